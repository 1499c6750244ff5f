package enrich

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Pacer spaces calls to a rate-limited upstream.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer allows callsPerSecond calls with a burst of one. Non-positive
// rates are unlimited.
func NewPacer(callsPerSecond float64) *Pacer {
	limit := rate.Inf
	if callsPerSecond > 0 {
		limit = rate.Limit(callsPerSecond)
	}
	return NewPacerWithLimit(limit)
}

// NewPacerWithLimit creates a pacer with an explicit limit.
func NewPacerWithLimit(limit rate.Limit) *Pacer {
	return &Pacer{limiter: rate.NewLimiter(limit, 1)}
}

// Wait blocks until the next call is allowed or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "enrich: pacer wait")
	}
	return nil
}
