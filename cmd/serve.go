package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/directory-enrich/internal/config"
	"github.com/sells-group/directory-enrich/internal/enrich"
	"github.com/sells-group/directory-enrich/internal/model"
)

var (
	servePort  int
	serveEvery time.Duration
)

type runFunc func(ctx context.Context) (*enrich.Summary, error)

type statsFunc func(ctx context.Context) (*model.Stats, error)

// trigger serializes enrichment runs. A run requested while another is in
// progress is rejected.
type trigger struct {
	mu   sync.Mutex
	wg   sync.WaitGroup
	run  runFunc
	ctx  context.Context
	last *runRecord
	lmu  sync.Mutex
}

type runRecord struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Batch      int       `json:"batch"`
	Updated    int       `json:"updated"`
	Skipped    int       `json:"skipped"`
	Error      string    `json:"error,omitempty"`
}

func newTrigger(ctx context.Context, run runFunc) *trigger {
	return &trigger{ctx: ctx, run: run}
}

// start launches a run in the background. It returns false when a run is
// already in progress.
func (t *trigger) start(source string) bool {
	if !t.mu.TryLock() {
		return false
	}
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer t.mu.Unlock()
		t.execute(source)
	}()
	return true
}

func (t *trigger) execute(source string) {
	rec := &runRecord{StartedAt: time.Now()}
	log := zap.L().With(zap.String("source", source))
	log.Info("serve: enrichment run started")

	var summary *enrich.Summary
	var err error
	if t.run != nil {
		summary, err = t.run(t.ctx)
	}
	rec.FinishedAt = time.Now()
	if summary != nil {
		rec.Batch = summary.Batch
		rec.Updated = summary.Updated()
		rec.Skipped = summary.Skipped()
	}
	if err != nil {
		rec.Error = err.Error()
		log.Error("serve: enrichment run failed", zap.Error(err))
	} else {
		log.Info("serve: enrichment run finished", zap.Int("batch", rec.Batch), zap.Int("updated", rec.Updated))
	}

	t.lmu.Lock()
	t.last = rec
	t.lmu.Unlock()
}

func (t *trigger) lastRun() *runRecord {
	t.lmu.Lock()
	defer t.lmu.Unlock()
	return t.last
}

// wait blocks until the in-flight run, if any, returns.
func (t *trigger) wait() { t.wg.Wait() }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func buildMux(t *trigger, stats statsFunc) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.Post("/runs", func(w http.ResponseWriter, _ *http.Request) {
		if !t.start("http") {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "a run is already in progress"})
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
	})

	router.Get("/runs/last", func(w http.ResponseWriter, _ *http.Request) {
		last := t.lastRun()
		if last == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no run yet"})
			return
		}
		writeJSON(w, http.StatusOK, last)
	})

	router.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		if stats == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "store unavailable"})
			return
		}
		s, err := stats(r.Context())
		if err != nil {
			zap.L().Error("serve: load stats", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load stats"})
			return
		}
		writeJSON(w, http.StatusOK, s)
	})

	return router
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP trigger server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		cfg.Server.Port = port

		env, err := initApp(ctx, config.ModeServe, true)
		if err != nil {
			return err
		}
		defer env.Close()

		t := newTrigger(ctx, env.Runner.Run)
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           buildMux(t, env.Store.Stats),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		if serveEvery > 0 {
			g.Go(func() error {
				schedule(gctx, serveEvery, t)
				return nil
			})
		}

		err = g.Wait()
		t.wait()
		return err
	},
}

// schedule triggers a run every interval until ctx is done. Ticks that land
// while a run is in progress are skipped.
func schedule(ctx context.Context, every time.Duration, t *trigger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !t.start("schedule") {
				zap.L().Info("serve: scheduled run skipped, previous run still in progress")
			}
		}
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().DurationVar(&serveEvery, "every", 0, "also run a batch on this interval, e.g. 1h")
	rootCmd.AddCommand(serveCmd)
}
