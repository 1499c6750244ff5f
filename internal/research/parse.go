package research

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/directory-enrich/internal/model"
)

// ErrMalformedResponse marks a research response that is not a JSON array of
// candidates.
var ErrMalformedResponse = eris.New("research: malformed response")

const fence = "```"

// Unwrap strips a markdown code fence from text. With a fence present it
// keeps the text between the first and second markers (to the end when the
// block is unterminated), dropping an info string such as "json".
func Unwrap(text string) string {
	start := strings.Index(text, fence)
	if start < 0 {
		return strings.TrimSpace(text)
	}

	body := text[start+len(fence):]
	if end := strings.Index(body, fence); end >= 0 {
		body = body[:end]
	}

	return strings.TrimSpace(dropInfo(body))
}

// dropInfo removes an info token such as "json" from the opening line of a
// fenced block. The token is dropped when a line break follows it, or when
// the payload starts right after it on the same line ("```json[...]```").
func dropInfo(body string) string {
	trimmed := strings.TrimLeft(body, " \t")
	n := 0
	for n < len(trimmed) && isInfoByte(trimmed[n], n == 0) {
		n++
	}
	if n == 0 {
		return body
	}

	rest := trimmed[n:]
	if strings.HasPrefix(rest, "\n") || strings.HasPrefix(rest, "\r\n") {
		return rest
	}
	if r := strings.TrimLeft(rest, " \t"); strings.HasPrefix(r, "[") || strings.HasPrefix(r, "{") {
		return r
	}
	return body
}

func isInfoByte(c byte, first bool) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	case first:
		return false
	case c >= '0' && c <= '9', c == '-', c == '+', c == '_':
		return true
	}
	return false
}

// ParseCandidates unwraps text and decodes it as a JSON array of candidates.
func ParseCandidates(text string) ([]model.Candidate, error) {
	payload := Unwrap(text)
	if !strings.HasPrefix(payload, "[") {
		return nil, eris.Wrapf(ErrMalformedResponse, "expected a JSON array, got %q", snippet(payload))
	}

	var candidates []model.Candidate
	if err := json.Unmarshal([]byte(payload), &candidates); err != nil {
		return nil, eris.Wrapf(ErrMalformedResponse, "decode candidates: %v", err)
	}
	return candidates, nil
}

func snippet(s string) string {
	if len(s) > 80 {
		return s[:80] + "..."
	}
	return s
}
