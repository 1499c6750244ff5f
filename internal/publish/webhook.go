package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/directory-enrich/internal/resilience"
)

// Webhook POSTs the signal to a build hook URL.
type Webhook struct {
	url   string
	http  *http.Client
	retry resilience.RetryConfig
}

// NewWebhook creates a webhook publisher. A nil hc gets a 30s timeout client.
func NewWebhook(hookURL string, hc *http.Client) *Webhook {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	retry := resilience.WithRetries(2)
	retry.OnRetry = resilience.RetryLogger("publish: webhook", "post")
	return &Webhook{url: hookURL, http: hc, retry: retry}
}

func (w *Webhook) Name() string { return ModeWebhook }

// Publish posts sig as JSON with a trigger_title query parameter.
func (w *Webhook) Publish(ctx context.Context, sig Signal) error {
	body, err := json.Marshal(sig)
	if err != nil {
		return eris.Wrap(err, "publish: webhook: marshal signal")
	}

	target, err := url.Parse(w.url)
	if err != nil {
		return eris.Wrap(err, "publish: webhook: parse url")
	}
	q := target.Query()
	q.Set("trigger_title", fmt.Sprintf("Auto-batch %d: %d contractors", sig.Batch, sig.RecordsChanged))
	target.RawQuery = q.Encode()

	err = resilience.Do(ctx, w.retry, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(body))
		if err != nil {
			return eris.Wrap(err, "publish: webhook: create request")
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := w.http.Do(req)
		if err != nil {
			return eris.Wrap(err, "publish: webhook: send request")
		}
		defer resp.Body.Close() //nolint:errcheck

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return resilience.StatusError("publish: webhook", resp.StatusCode, respBody)
		}
		return nil
	})
	if err != nil {
		return err
	}

	zap.L().Info("publish: webhook triggered",
		zap.Int("batch", sig.Batch),
		zap.Int("records_changed", sig.RecordsChanged),
	)
	return nil
}
