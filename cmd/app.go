package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/directory-enrich/internal/config"
	"github.com/sells-group/directory-enrich/internal/enrich"
	"github.com/sells-group/directory-enrich/internal/ledger"
	"github.com/sells-group/directory-enrich/internal/publish"
	"github.com/sells-group/directory-enrich/internal/research"
	"github.com/sells-group/directory-enrich/internal/resilience"
	"github.com/sells-group/directory-enrich/internal/resolve"
	"github.com/sells-group/directory-enrich/internal/store"
	"github.com/sells-group/directory-enrich/pkg/geocode"
)

// appEnv holds the store and pipeline pieces shared by the enrich, replay
// and serve commands.
type appEnv struct {
	Store  store.Store
	Ledger *ledger.Ledger
	Runner *enrich.Runner
}

// Close releases the store.
func (a *appEnv) Close() {
	if a.Store != nil {
		_ = a.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.SQLitePath)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initApp validates cfg for mode, opens and migrates the store, and wires
// the runner. Research is wired only when withResearch is set; every
// provider key check happens before the store is touched.
func initApp(ctx context.Context, mode string, withResearch bool, opts ...enrich.RunnerOption) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	var researcher enrich.Researcher
	if withResearch {
		r, err := newResearchClient(ctx, cfg.Research)
		if err != nil {
			return nil, err
		}
		researcher = r
	}

	pub, err := publish.New(cfg.Publish, nil, nil)
	if err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	led := ledger.New(nil, cfg.Ledger.Dir)
	engine := newEngine(st, cfg)

	opts = append([]enrich.RunnerOption{
		enrich.WithBatchSize(cfg.Research.BatchSize),
		enrich.WithPublisher(pub),
	}, opts...)

	return &appEnv{
		Store:  st,
		Ledger: led,
		Runner: enrich.NewRunner(st, researcher, led, engine, opts...),
	}, nil
}

func newResearchClient(ctx context.Context, rc config.ResearchConfig) (*research.Client, error) {
	provider, err := research.NewProvider(ctx, rc, nil)
	if err != nil {
		return nil, err
	}
	return research.NewClient(provider,
		research.WithTimeout(time.Duration(rc.TimeoutSecs)*time.Second),
		research.WithRetry(resilience.WithRetries(rc.MaxRetries)),
	), nil
}

func newEngine(st enrich.Updater, c *config.Config) *enrich.Engine {
	opts := []enrich.EngineOption{
		enrich.WithResolver(resolve.New(c.Resolve.Strategy, enrich.LogAmbiguous)),
		enrich.WithPacer(enrich.NewPacer(c.Geocode.CallsPerSecond)),
	}

	geo := geocode.New(c.Geocode.GoogleKey,
		geocode.WithBaseURL(c.Geocode.BaseURL),
		geocode.WithTimeout(time.Duration(c.Geocode.TimeoutSecs)*time.Second),
	)
	if geo.Enabled() {
		opts = append(opts, enrich.WithGeocoder(geo))
	}
	return enrich.NewEngine(st, opts...)
}
