package enrich

import (
	"fmt"
	"strings"
	"time"
)

// Status is the per-candidate reconciliation outcome.
type Status string

const (
	StatusUpdated         Status = "updated"
	StatusSkippedNotFound Status = "skipped_not_found"
	StatusSkippedNoMatch  Status = "skipped_no_match"
	StatusSkippedError    Status = "skipped_error"
)

var statusOrder = []Status{StatusUpdated, StatusSkippedNotFound, StatusSkippedNoMatch, StatusSkippedError}

// Outcome records what happened to one candidate.
type Outcome struct {
	Name     string `json:"name"`
	RecordID string `json:"record_id,omitempty"`
	Status   Status `json:"status"`
	Geocoded bool   `json:"geocoded,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Summary aggregates one batch.
type Summary struct {
	Batch    int           `json:"batch"`
	Selected int           `json:"selected"`
	DryRun   bool          `json:"dry_run,omitempty"`
	Outcomes []Outcome     `json:"outcomes"`
	Duration time.Duration `json:"duration"`
}

// Add appends an outcome.
func (s *Summary) Add(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
}

// Counts returns the number of outcomes per status.
func (s *Summary) Counts() map[Status]int {
	counts := make(map[Status]int, len(statusOrder))
	for _, o := range s.Outcomes {
		counts[o.Status]++
	}
	return counts
}

// Updated is the number of records written.
func (s *Summary) Updated() int {
	return s.Counts()[StatusUpdated]
}

// Skipped is the number of candidates that changed nothing.
func (s *Summary) Skipped() int {
	return len(s.Outcomes) - s.Updated()
}

// Unresolved returns the names of candidates that were not applied.
func (s *Summary) Unresolved() []string {
	var names []string
	for _, o := range s.Outcomes {
		if o.Status != StatusUpdated {
			names = append(names, o.Name)
		}
	}
	return names
}

// Report renders the summary for the terminal.
func (s *Summary) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Batch #%d summary\n", s.Batch)
	if s.DryRun {
		fmt.Fprintf(&b, "  dry run: %d records researched, nothing applied\n", s.Selected)
		return b.String()
	}

	counts := s.Counts()
	fmt.Fprintf(&b, "  updated: %d\n", s.Updated())
	fmt.Fprintf(&b, "  skipped: %d\n", s.Skipped())
	for _, st := range statusOrder[1:] {
		if n := counts[st]; n > 0 {
			fmt.Fprintf(&b, "    %s: %d\n", st, n)
		}
	}
	if names := s.Unresolved(); len(names) > 0 {
		fmt.Fprintf(&b, "  unresolved: %s\n", strings.Join(names, ", "))
	}
	if s.Duration > 0 {
		fmt.Fprintf(&b, "  duration: %s\n", s.Duration.Round(100*time.Millisecond))
	}
	return b.String()
}
