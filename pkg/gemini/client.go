// Package gemini wraps the Google Gen AI SDK for grounded text generation.
package gemini

import (
	"context"
	"errors"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/sells-group/directory-enrich/internal/resilience"
)

const defaultModel = "gemini-2.0-flash"

// Client generates text from a single prompt.
type Client interface {
	Generate(ctx context.Context, prompt string) (*Response, error)
}

// Response is the generated text plus token accounting.
type Response struct {
	Text         string
	Model        string
	InputTokens  int32
	OutputTokens int32
}

// Config tunes generation.
type Config struct {
	Model           string
	Temperature     float32
	MaxOutputTokens int32
	// GoogleSearch enables the Google Search grounding tool.
	GoogleSearch bool
	BaseURL      string
	HTTPClient   *http.Client
}

// generator is the slice of *genai.Models the client calls.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type sdkClient struct {
	models generator
	model  string
	gen    *genai.GenerateContentConfig
}

// NewClient creates a Gemini client for the Gemini Developer API.
func NewClient(ctx context.Context, apiKey string, cfg Config) (Client, error) {
	if apiKey == "" {
		return nil, eris.New("gemini: api key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: create client")
	}
	return newSDKClient(client.Models, cfg), nil
}

func newSDKClient(models generator, cfg Config) *sdkClient {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	gen := &genai.GenerateContentConfig{}
	if cfg.Temperature > 0 {
		gen.Temperature = genai.Ptr(cfg.Temperature)
	}
	if cfg.MaxOutputTokens > 0 {
		gen.MaxOutputTokens = cfg.MaxOutputTokens
	}
	if cfg.GoogleSearch {
		gen.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	return &sdkClient{models: models, model: model, gen: gen}
}

func (c *sdkClient) Generate(ctx context.Context, prompt string) (*Response, error) {
	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), c.gen)
	if err != nil {
		return nil, classify(eris.Wrap(err, "gemini: generate content"), err)
	}

	text := resp.Text()
	if text == "" {
		return nil, eris.New("gemini: response has no text")
	}

	out := &Response{Text: text, Model: c.model}
	if resp.UsageMetadata != nil {
		out.InputTokens = resp.UsageMetadata.PromptTokenCount
		out.OutputTokens = resp.UsageMetadata.CandidatesTokenCount
	}
	zap.L().Debug("gemini: generated",
		zap.String("model", c.model),
		zap.Int32("input_tokens", out.InputTokens),
		zap.Int32("output_tokens", out.OutputTokens),
	)
	return out, nil
}

// classify marks retryable API statuses as transient.
func classify(wrapped, raw error) error {
	var apiErr genai.APIError
	if errors.As(raw, &apiErr) && resilience.IsTransientHTTPStatus(apiErr.Code) {
		return resilience.NewTransientError(wrapped, apiErr.Code)
	}
	return wrapped
}
