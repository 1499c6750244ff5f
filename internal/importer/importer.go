// Package importer seeds the directory from a list of company names. New
// records start with an unknown location so the enrichment selector picks
// them up.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/sells-group/directory-enrich/internal/model"
	"github.com/sells-group/directory-enrich/internal/resolve"
)

// DefaultChunkSize is the number of records inserted per call.
const DefaultChunkSize = 50

// DefaultCategory applies when no keyword matches.
const DefaultCategory = "General Contracting"

// Store is the record surface the importer needs.
type Store interface {
	ListRecords(ctx context.Context) ([]model.Record, error)
	InsertRecords(ctx context.Context, records []model.Record) (int, error)
}

// Result counts what an import did.
type Result struct {
	Read     int `json:"read"`
	Unique   int `json:"unique"`
	Existing int `json:"existing"`
	Inserted int `json:"inserted"`
}

var headerNames = map[string]bool{"name": true, "company": true, "company name": true}

// ReadNames reads one company name per row. Unquoted commas are kept as part
// of the name, a UTF-8 BOM is dropped, blank rows and a leading header row
// are skipped.
func ReadNames(r io.Reader) ([]string, error) {
	cr := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var names []string
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "importer: read csv")
		}

		name := strings.TrimSpace(strings.TrimRight(strings.Join(row, ","), ", \t"))
		if name == "" {
			continue
		}
		if len(names) == 0 && headerNames[strings.ToLower(name)] {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// Import inserts a record for every name not already in the store, in
// chunks of chunkSize.
func Import(ctx context.Context, st Store, names []string, chunkSize int) (*Result, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	res := &Result{Read: len(names)}

	existing, err := st.ListRecords(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "importer: list existing records")
	}
	seen := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		seen[resolve.Normalize(r.Name)] = struct{}{}
		seen[resolve.Normalize(r.DisplayName())] = struct{}{}
	}

	var pending []model.Record
	batch := make(map[string]struct{})
	for _, name := range names {
		rec := BuildRecord(name)
		key := resolve.Normalize(rec.Name)
		if key == "" {
			continue
		}
		if _, dup := batch[key]; dup {
			continue
		}
		batch[key] = struct{}{}
		res.Unique++

		if _, ok := seen[key]; ok {
			res.Existing++
			continue
		}
		pending = append(pending, rec)
	}

	for start := 0; start < len(pending); start += chunkSize {
		if err := ctx.Err(); err != nil {
			return res, eris.Wrap(err, "importer: cancelled")
		}
		end := min(start+chunkSize, len(pending))
		n, err := st.InsertRecords(ctx, pending[start:end])
		if err != nil {
			return res, eris.Wrapf(err, "importer: insert records %d-%d", start+1, end)
		}
		res.Inserted += n
		zap.L().Info("importer: chunk inserted",
			zap.Int("inserted", res.Inserted),
			zap.Int("total", len(pending)),
		)
	}
	return res, nil
}

// ImportFile reads names from path on fs and imports them.
func ImportFile(ctx context.Context, fs afero.Fs, path string, st Store, chunkSize int) (*Result, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "importer: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	names, err := ReadNames(f)
	if err != nil {
		return nil, err
	}
	return Import(ctx, st, names, chunkSize)
}

var dbaPattern = regexp.MustCompile(`(?i)^(.+?)\s+DBA:\s+(.+)$`)

// BuildRecord turns a raw company line into a new record.
func BuildRecord(raw string) model.Record {
	business, dba := ParseDBA(raw)
	city, state := InferLocation(raw)

	desc := business + " - Professional contractor services."
	if dba != "" {
		desc = fmt.Sprintf("%s (doing business as %s) - Professional contractor services.", business, dba)
	}

	name := business
	return model.Record{
		Name:         business,
		BusinessName: &name,
		Category:     Category(raw),
		Description:  desc,
		City:         city,
		State:        state,
		Status:       model.RecordStatusActive,
	}
}

// ParseDBA splits "Legal Name DBA: Trade Name".
func ParseDBA(raw string) (business, dba string) {
	raw = strings.TrimSpace(raw)
	if m := dbaPattern.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	return raw, ""
}

var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"Roofing", []string{"roofing", "roof"}},
	{"Insulation", []string{"insulation", "foam"}},
	{"Plumbing", []string{"plumbing"}},
	{"General Contracting", []string{"construction", "builders", "building"}},
	{"Painting", []string{"painting"}},
	{"Excavation & Grading", []string{"excavation", "landscaping", "landscape"}},
	{"Siding", []string{"siding"}},
	{"Masonry", []string{"masonry"}},
	{"Electrical", []string{"electrical", "electric"}},
	{"HVAC", []string{"hvac", "mechanical"}},
	{"Concrete", []string{"concrete"}},
	{"Carpentry", []string{"carpentry"}},
	{"Gutters", []string{"gutter"}},
	{"Solar", []string{"solar"}},
}

// Category infers a trade from keywords in the name. The first matching
// rule wins.
func Category(name string) string {
	lower := strings.ToLower(name)
	for _, rule := range categoryKeywords {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return DefaultCategory
}

var statePattern = regexp.MustCompile(`\b(AL|AK|AZ|AR|CA|CO|CT|DE|FL|GA|HI|ID|IL|IN|IA|KS|KY|LA|ME|MD|MA|MI|MN|MS|MO|MT|NE|NV|NH|NJ|NM|NY|NC|ND|OH|OK|OR|PA|RI|SC|SD|TN|TX|UT|VT|VA|WA|WV|WI|WY)\b`)

var places = []struct {
	pattern     *regexp.Regexp
	city, state string
}{
	{regexp.MustCompile(`(?i)chicago`), "Chicago", "IL"},
	{regexp.MustCompile(`(?i)nevada`), "", "NV"},
	{regexp.MustCompile(`(?i)kentucky`), "", "KY"},
	{regexp.MustCompile(`(?i)texas`), "", "TX"},
	{regexp.MustCompile(`(?i)maine`), "", "ME"},
	{regexp.MustCompile(`(?i)idaho`), "", "ID"},
	{regexp.MustCompile(`(?i)augusta`), "Augusta", "GA"},
	{regexp.MustCompile(`(?i)lexington`), "Lexington", "KY"},
	{regexp.MustCompile(`(?i)phoenix`), "Phoenix", "AZ"},
	{regexp.MustCompile(`(?i)arizona`), "", "AZ"},
	{regexp.MustCompile(`(?i)oklahoma`), "", "OK"},
}

// InferLocation guesses city and state from a standalone USPS code or a known
// place name. Anything not inferred is model.UnknownValue.
func InferLocation(name string) (city, state string) {
	city, state = model.UnknownValue, model.UnknownValue
	if m := statePattern.FindStringSubmatch(name); m != nil {
		return city, m[1]
	}
	for _, p := range places {
		if p.pattern.MatchString(name) {
			if p.city != "" {
				city = p.city
			}
			return city, p.state
		}
	}
	return city, state
}
