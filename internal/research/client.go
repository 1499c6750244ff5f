package research

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/directory-enrich/internal/model"
	"github.com/sells-group/directory-enrich/internal/resilience"
)

const defaultTimeout = 120 * time.Second

// Provider sends one prompt to a research capability and returns its text.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Result is everything one research call produced. Raw is kept even when
// parsing fails so the response can be persisted for audit.
type Result struct {
	Prompt     string            `json:"prompt"`
	Raw        string            `json:"raw"`
	Names      []string          `json:"names"`
	Candidates []model.Candidate `json:"candidates"`
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each research call. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRetry sets the retry policy for transient provider errors.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// Client drives a Provider: prompt, call, unwrap, parse.
type Client struct {
	provider Provider
	timeout  time.Duration
	retry    resilience.RetryConfig
}

// NewClient creates a research client over provider.
func NewClient(provider Provider, opts ...Option) *Client {
	c := &Client{
		provider: provider,
		timeout:  defaultTimeout,
		retry:    resilience.WithRetries(2),
	}
	for _, o := range opts {
		o(c)
	}
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = resilience.RetryLogger("research: "+provider.Name(), "complete")
	}
	return c
}

// Research asks the provider about items. An empty batch returns an empty
// result without calling out. When the response cannot be parsed the
// returned Result still carries the prompt and raw text alongside an error
// wrapping ErrMalformedResponse.
func (c *Client) Research(ctx context.Context, items []Item) (*Result, error) {
	res := &Result{Names: Names(items)}
	if len(items) == 0 {
		return res, nil
	}
	if len(items) > MaxBatchSize {
		return nil, eris.Errorf("research: batch of %d exceeds max %d", len(items), MaxBatchSize)
	}

	res.Prompt = BuildPrompt(items)

	start := time.Now()
	raw, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		return c.provider.Complete(callCtx, res.Prompt)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "research: %s call", c.provider.Name())
	}
	res.Raw = raw

	zap.L().Info("research: response received",
		zap.String("provider", c.provider.Name()),
		zap.Int("records", len(items)),
		zap.Int("bytes", len(raw)),
		zap.Duration("duration", time.Since(start)),
	)

	candidates, err := ParseCandidates(raw)
	if err != nil {
		return res, err
	}
	res.Candidates = candidates
	return res, nil
}
