package enrich

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/directory-enrich/internal/model"
	"github.com/sells-group/directory-enrich/internal/resolve"
	"github.com/sells-group/directory-enrich/pkg/geocode"
)

// Updater applies a staged update to one record.
type Updater interface {
	UpdateByID(ctx context.Context, id string, u model.RecordUpdate) error
}

// Geocoder resolves a postal address to coordinates, or nil.
type Geocoder interface {
	Geocode(ctx context.Context, addr geocode.AddressInput) *geocode.Coordinate
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithResolver sets the identity resolver.
func WithResolver(r resolve.Resolver) EngineOption {
	return func(e *Engine) { e.resolver = r }
}

// WithGeocoder enables geocoding of complete addresses. Nil disables it.
func WithGeocoder(g Geocoder) EngineOption {
	return func(e *Engine) { e.geocoder = g }
}

// WithPacer sets the pacing applied before each geocoding call. Nil is
// ignored.
func WithPacer(p *Pacer) EngineOption {
	return func(e *Engine) {
		if p != nil {
			e.pacer = p
		}
	}
}

// WithClock sets the updated_at source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// Engine reconciles research candidates against stored records and applies
// additive updates.
type Engine struct {
	store    Updater
	resolver resolve.Resolver
	geocoder Geocoder
	pacer    *Pacer
	now      func() time.Time
}

// NewEngine creates an engine writing through store.
func NewEngine(store Updater, opts ...EngineOption) *Engine {
	e := &Engine{
		store:    store,
		resolver: resolve.New(resolve.StrategyContainment, LogAmbiguous),
		pacer:    NewPacer(5),
		now:      time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// LogAmbiguous reports a candidate name that matched more than one record.
func LogAmbiguous(name string, matches []model.Record) {
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.DisplayName()
	}
	zap.L().Warn("enrich: ambiguous match, using first",
		zap.String("candidate", name),
		zap.Strings("matches", names),
	)
}

// Reconcile applies candidates to records in order. A failure on one
// candidate never stops the rest.
func (e *Engine) Reconcile(ctx context.Context, candidates []model.Candidate, records []model.Record) *Summary {
	s := &Summary{}
	for _, c := range candidates {
		s.Add(e.apply(ctx, c, records))
	}
	return s
}

func (e *Engine) apply(ctx context.Context, c model.Candidate, records []model.Record) Outcome {
	log := zap.L().With(zap.String("record", c.Name))
	out := Outcome{Name: c.Name}

	if !c.Found {
		log.Info("enrich: not found by research, skipping")
		out.Status = StatusSkippedNotFound
		return out
	}

	rec := e.resolver.Resolve(c.Name, records)
	if rec == nil {
		log.Warn("enrich: no matching record")
		out.Status = StatusSkippedNoMatch
		return out
	}
	out.RecordID = rec.ID

	u := Stage(c)

	if u.HasFullAddress() && e.geocoder != nil {
		if err := e.pacer.Wait(ctx); err != nil {
			log.Error("enrich: pacing interrupted", zap.Error(err))
			out.Status = StatusSkippedError
			out.Error = err.Error()
			return out
		}
		coord := e.geocoder.Geocode(ctx, geocode.AddressInput{
			Street:  *u.Address,
			City:    *u.City,
			State:   *u.State,
			ZipCode: *u.ZipCode,
		})
		if coord != nil {
			lat, lng := coord.Lat.String(), coord.Lng.String()
			u.Latitude, u.Longitude = &lat, &lng
			out.Geocoded = true
		}
	}

	u.UpdatedAt = e.now()
	if err := e.store.UpdateByID(ctx, rec.ID, u); err != nil {
		log.Error("enrich: update failed", zap.String("id", rec.ID), zap.Error(err))
		out.Status = StatusSkippedError
		out.Error = err.Error()
		return out
	}

	log.Info("enrich: record updated",
		zap.String("id", rec.ID),
		zap.Int("columns", len(u.Columns())-1),
		zap.Bool("geocoded", out.Geocoded),
	)
	out.Status = StatusUpdated
	return out
}

// Stage builds the additive update for c. Blank values, the "Not Found"
// sentinel on email and license number, and non-positive years are dropped.
func Stage(c model.Candidate) model.RecordUpdate {
	u := model.RecordUpdate{
		Phone:         present(c.Phone),
		Email:         presentNotSentinel(c.Email),
		Website:       present(c.Website),
		Address:       present(c.Address),
		City:          present(c.City),
		State:         present(c.State),
		ZipCode:       present(c.ZipCode),
		Description:   present(c.Description),
		LicenseNumber: presentNotSentinel(c.LicenseNumber),
	}
	if c.YearsInBusiness > 0 {
		years := int(c.YearsInBusiness)
		u.YearsInBusiness = &years
	}
	return u
}

func present(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func presentNotSentinel(v string) *string {
	p := present(v)
	if p == nil || *p == model.NotFoundValue {
		return nil
	}
	return p
}
