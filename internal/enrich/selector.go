// Package enrich runs one enrichment batch: select incomplete records,
// research them, reconcile the results and publish when anything changed.
package enrich

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/directory-enrich/internal/model"
	"github.com/sells-group/directory-enrich/internal/research"
)

// DefaultBatchSize is the selector limit when none is given.
const DefaultBatchSize = research.MaxBatchSize

// IncompleteSource returns records still missing a location.
type IncompleteSource interface {
	SelectIncomplete(ctx context.Context, limit int) ([]model.Record, error)
}

// Selector picks the next batch of incomplete records.
type Selector struct {
	src IncompleteSource
}

// NewSelector creates a selector over src.
func NewSelector(src IncompleteSource) *Selector {
	return &Selector{src: src}
}

// Select returns up to limit incomplete records in store order. The limit
// is clamped to [1, DefaultBatchSize]; zero or negative means the default.
// An empty slice means there is nothing left to enrich.
func (s *Selector) Select(ctx context.Context, limit int) ([]model.Record, error) {
	records, err := s.src.SelectIncomplete(ctx, ClampLimit(limit))
	if err != nil {
		return nil, eris.Wrap(err, "enrich: select incomplete")
	}
	return records, nil
}

// ClampLimit maps limit into [1, DefaultBatchSize].
func ClampLimit(limit int) int {
	if limit <= 0 || limit > DefaultBatchSize {
		return DefaultBatchSize
	}
	return limit
}

// Items converts records into research items.
func Items(records []model.Record) []research.Item {
	items := make([]research.Item, len(records))
	for i, r := range records {
		items[i] = research.Item{Name: r.DisplayName(), Category: r.Category}
	}
	return items
}
