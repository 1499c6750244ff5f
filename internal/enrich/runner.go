package enrich

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/directory-enrich/internal/ledger"
	"github.com/sells-group/directory-enrich/internal/model"
	"github.com/sells-group/directory-enrich/internal/publish"
	"github.com/sells-group/directory-enrich/internal/research"
)

// RecordStore is the store surface a run needs.
type RecordStore interface {
	IncompleteSource
	Updater
	ListRecords(ctx context.Context) ([]model.Record, error)
}

// Researcher researches a batch of items.
type Researcher interface {
	Research(ctx context.Context, items []research.Item) (*research.Result, error)
}

// Ledger numbers and persists batches.
type Ledger interface {
	NextBatchNumber() (int, error)
	Persist(e ledger.Entry) error
	PersistFailure(e ledger.Entry) error
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithBatchSize sets the selector limit.
func WithBatchSize(n int) RunnerOption {
	return func(r *Runner) { r.batchSize = n }
}

// WithDryRun stops each run after the ledger has been written.
func WithDryRun(dry bool) RunnerOption {
	return func(r *Runner) { r.dryRun = dry }
}

// WithPublisher sets the publisher notified after changes.
func WithPublisher(p publish.Publisher) RunnerOption {
	return func(r *Runner) {
		if p != nil {
			r.publisher = p
		}
	}
}

// Runner orchestrates one enrichment batch end to end.
type Runner struct {
	store      RecordStore
	selector   *Selector
	researcher Researcher
	ledger     Ledger
	engine     *Engine
	publisher  publish.Publisher
	batchSize  int
	dryRun     bool
}

// NewRunner wires a runner.
func NewRunner(st RecordStore, researcher Researcher, led Ledger, engine *Engine, opts ...RunnerOption) *Runner {
	r := &Runner{
		store:      st,
		selector:   NewSelector(st),
		researcher: researcher,
		ledger:     led,
		engine:     engine,
		publisher:  publish.Noop{},
		batchSize:  DefaultBatchSize,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run enriches the next batch of incomplete records. It returns a nil
// summary when nothing is left to enrich. The response is persisted to the
// ledger before any record is touched; a response that cannot be parsed is
// persisted as a failure and fails the run.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()

	records, err := r.selector.Select(ctx, r.batchSize)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		zap.L().Info("enrich: no incomplete records, nothing to do")
		return nil, nil
	}

	batch, err := r.ledger.NextBatchNumber()
	if err != nil {
		return nil, eris.Wrap(err, "enrich: next batch number")
	}
	log := zap.L().With(zap.Int("batch", batch))
	log.Info("enrich: batch selected", zap.Int("records", len(records)))

	res, err := r.researcher.Research(ctx, Items(records))
	if err != nil {
		if res != nil && eris.Is(err, research.ErrMalformedResponse) {
			entry := ledger.Entry{Batch: batch, Names: res.Names, Prompt: res.Prompt, Raw: res.Raw}
			if perr := r.ledger.PersistFailure(entry); perr != nil {
				log.Error("enrich: persist failed batch", zap.Error(perr))
			}
		}
		return nil, eris.Wrapf(err, "enrich: research batch %d", batch)
	}

	entry := ledger.Entry{
		Batch:      batch,
		Names:      res.Names,
		Prompt:     res.Prompt,
		Raw:        res.Raw,
		Candidates: res.Candidates,
	}
	if err := r.ledger.Persist(entry); err != nil {
		return nil, eris.Wrapf(err, "enrich: persist batch %d", batch)
	}

	if r.dryRun {
		log.Info("enrich: dry run, skipping reconciliation", zap.Int("candidates", len(res.Candidates)))
		return &Summary{Batch: batch, Selected: len(records), DryRun: true, Duration: time.Since(start)}, nil
	}

	s, err := r.Apply(ctx, batch, res.Candidates)
	if s != nil {
		s.Selected = len(records)
		s.Duration = time.Since(start)
	}
	return s, err
}

// Apply reconciles candidates against every stored record and publishes
// when at least one record changed. A publish failure is returned together
// with the summary; the updates are already committed.
func (r *Runner) Apply(ctx context.Context, batch int, candidates []model.Candidate) (*Summary, error) {
	start := time.Now()

	records, err := r.store.ListRecords(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "enrich: list records")
	}

	s := r.engine.Reconcile(ctx, candidates, records)
	s.Batch = batch
	s.Duration = time.Since(start)

	counts := s.Counts()
	zap.L().Info("enrich: batch reconciled",
		zap.Int("batch", batch),
		zap.Int("candidates", len(candidates)),
		zap.Int("updated", counts[StatusUpdated]),
		zap.Int("skipped_not_found", counts[StatusSkippedNotFound]),
		zap.Int("skipped_no_match", counts[StatusSkippedNoMatch]),
		zap.Int("skipped_error", counts[StatusSkippedError]),
		zap.Duration("duration", s.Duration),
	)

	if s.Updated() == 0 {
		return s, nil
	}

	sig := publish.Signal{Batch: batch, RecordsChanged: s.Updated(), At: time.Now()}
	if err := r.publisher.Publish(ctx, sig); err != nil {
		zap.L().Error("enrich: publish failed", zap.Int("batch", batch), zap.String("publisher", r.publisher.Name()), zap.Error(err))
		return s, eris.Wrapf(err, "enrich: publish batch %d", batch)
	}
	return s, nil
}
