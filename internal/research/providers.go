package research

import (
	"context"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/directory-enrich/internal/config"
	"github.com/sells-group/directory-enrich/pkg/anthropic"
	"github.com/sells-group/directory-enrich/pkg/gemini"
	"github.com/sells-group/directory-enrich/pkg/perplexity"
)

// Provider names accepted by research.provider.
const (
	ProviderGemini     = "gemini"
	ProviderAnthropic  = "anthropic"
	ProviderPerplexity = "perplexity"
)

// GeminiProvider researches with Gemini and Google Search grounding.
type GeminiProvider struct {
	Client gemini.Client
}

func (p *GeminiProvider) Name() string { return ProviderGemini }

func (p *GeminiProvider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.Client.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// AnthropicProvider researches with a Claude model.
type AnthropicProvider struct {
	Client    anthropic.Client
	Model     string
	MaxTokens int64
}

func (p *AnthropicProvider) Name() string { return ProviderAnthropic }

func (p *AnthropicProvider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.Client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     p.Model,
		MaxTokens: p.MaxTokens,
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}
	resp.Usage.Log(p.Model)
	return resp.Text(), nil
}

// PerplexityProvider researches with Perplexity's online models.
type PerplexityProvider struct {
	Client perplexity.Client
}

func (p *PerplexityProvider) Name() string { return ProviderPerplexity }

func (p *PerplexityProvider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.Client.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Messages:  []perplexity.Message{{Role: "user", Content: prompt}},
		WebSearch: &perplexity.WebSearchOptions{SearchContextSize: "high"},
	})
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if text == "" {
		return "", eris.New("perplexity: response has no choices")
	}
	return text, nil
}

// NewProvider builds the provider selected by cfg.Provider. hc may be nil.
func NewProvider(ctx context.Context, cfg config.ResearchConfig, hc *http.Client) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderGemini:
		client, err := gemini.NewClient(ctx, cfg.Gemini.Key, gemini.Config{
			Model:           cfg.Gemini.Model,
			Temperature:     cfg.Gemini.Temperature,
			MaxOutputTokens: cfg.Gemini.MaxOutputTokens,
			GoogleSearch:    cfg.Gemini.GoogleSearch,
			BaseURL:         cfg.Gemini.BaseURL,
			HTTPClient:      hc,
		})
		if err != nil {
			return nil, eris.Wrap(err, "research: gemini provider")
		}
		return &GeminiProvider{Client: client}, nil

	case ProviderAnthropic:
		if cfg.Anthropic.Key == "" {
			return nil, eris.New("research: anthropic key is required")
		}
		var opts []anthropic.Option
		if hc != nil {
			opts = append(opts, anthropic.WithHTTPClient(hc))
		}
		return &AnthropicProvider{
			Client:    anthropic.NewClient(cfg.Anthropic.Key, opts...),
			Model:     cfg.Anthropic.Model,
			MaxTokens: cfg.Anthropic.MaxTokens,
		}, nil

	case ProviderPerplexity:
		if cfg.Perplexity.Key == "" {
			return nil, eris.New("research: perplexity key is required")
		}
		opts := []perplexity.Option{
			perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
			perplexity.WithModel(cfg.Perplexity.Model),
		}
		if hc != nil {
			opts = append(opts, perplexity.WithHTTPClient(hc))
		}
		return &PerplexityProvider{Client: perplexity.NewClient(cfg.Perplexity.Key, opts...)}, nil

	default:
		return nil, eris.Errorf("research: unknown provider %q", cfg.Provider)
	}
}
