// Package publish signals downstream consumers that directory records
// changed so the public site can be rebuilt.
package publish

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/sells-group/directory-enrich/internal/config"
)

// Publish modes accepted by publish.mode.
const (
	ModeNone    = "none"
	ModeWebhook = "webhook"
	ModeGit     = "git"
)

// Signal describes the enrichment run being published.
type Signal struct {
	Batch          int       `json:"batch"`
	RecordsChanged int       `json:"records_changed"`
	At             time.Time `json:"at"`
}

// Publisher delivers a Signal.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, sig Signal) error
}

// Noop discards signals.
type Noop struct{}

func (Noop) Name() string { return ModeNone }

func (Noop) Publish(_ context.Context, sig Signal) error {
	zap.L().Info("publish: disabled, skipping",
		zap.Int("batch", sig.Batch),
		zap.Int("records_changed", sig.RecordsChanged),
	)
	return nil
}

// New builds the publisher selected by cfg.Mode. A nil hc or fs uses the
// defaults.
func New(cfg config.PublishConfig, hc *http.Client, fs afero.Fs) (Publisher, error) {
	switch strings.ToLower(cfg.Mode) {
	case "", ModeNone:
		return Noop{}, nil
	case ModeWebhook:
		if cfg.WebhookURL == "" {
			return nil, eris.New("publish: webhook_url is required")
		}
		return NewWebhook(cfg.WebhookURL, hc), nil
	case ModeGit:
		return NewGit(cfg.Git, WithFs(fs)), nil
	default:
		return nil, eris.Errorf("publish: unknown mode %q", cfg.Mode)
	}
}
