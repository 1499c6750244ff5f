package resolve

import (
	"strings"

	"github.com/sells-group/directory-enrich/internal/model"
)

// Strategy names accepted by New.
const (
	StrategyContainment = "containment"
	StrategyExactFirst  = "exact_first"
)

// Resolver picks the stored record a research candidate name refers to.
// It returns nil when no record qualifies.
type Resolver interface {
	Resolve(name string, records []model.Record) *model.Record
}

// AmbiguityFunc receives every record that matched a candidate name when
// more than one did.
type AmbiguityFunc func(name string, matches []model.Record)

// ContainmentResolver matches when the normalized candidate name contains the
// normalized display name of a record or vice versa. The first record in
// slice order wins; there is no ranking between multiple matches.
type ContainmentResolver struct {
	// OnAmbiguous, if set, is called when more than one record matches.
	OnAmbiguous AmbiguityFunc
}

// Resolve implements Resolver.
func (c *ContainmentResolver) Resolve(name string, records []model.Record) *model.Record {
	needle := Normalize(name)
	if needle == "" {
		return nil
	}

	var first *model.Record
	var matches []model.Record
	for i := range records {
		hay := Normalize(records[i].DisplayName())
		if hay == "" {
			continue
		}
		if !strings.Contains(hay, needle) && !strings.Contains(needle, hay) {
			continue
		}
		if first == nil {
			first = &records[i]
			if c.OnAmbiguous == nil {
				return first
			}
		}
		matches = append(matches, records[i])
	}

	if len(matches) > 1 {
		c.OnAmbiguous(name, matches)
	}
	return first
}

// ExactFirstResolver prefers a record whose name or business name equals the
// candidate name exactly, then falls back to Next.
type ExactFirstResolver struct {
	Next Resolver
}

// Resolve implements Resolver.
func (e *ExactFirstResolver) Resolve(name string, records []model.Record) *model.Record {
	name = strings.TrimSpace(name)
	if name != "" {
		for i := range records {
			r := &records[i]
			if r.Name == name || (r.BusinessName != nil && *r.BusinessName == name) {
				return r
			}
		}
	}
	if e.Next == nil {
		return nil
	}
	return e.Next.Resolve(name, records)
}

// New builds the resolver for a configured strategy name. Unknown and empty
// names select containment matching.
func New(strategy string, onAmbiguous AmbiguityFunc) Resolver {
	containment := &ContainmentResolver{OnAmbiguous: onAmbiguous}
	if strings.EqualFold(strings.TrimSpace(strategy), StrategyExactFirst) {
		return &ExactFirstResolver{Next: containment}
	}
	return containment
}
