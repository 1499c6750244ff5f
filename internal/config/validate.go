package config

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Validation modes, one per command family.
const (
	ModeEnrich = "enrich"
	ModeServe  = "serve"
	ModeStore  = "store"
	ModeReplay = "replay"
)

// Validate checks that the settings a command needs are present. All problems
// are reported together.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case ModeStore:
		problems = append(problems, c.validateStore()...)
	case ModeReplay:
		problems = append(problems, c.validateStore()...)
		problems = append(problems, c.validatePipeline()...)
	case ModeEnrich:
		problems = append(problems, c.validateResearch()...)
		problems = append(problems, c.validateStore()...)
		problems = append(problems, c.validatePipeline()...)
	case ModeServe:
		problems = append(problems, c.validateResearch()...)
		problems = append(problems, c.validateStore()...)
		problems = append(problems, c.validatePipeline()...)
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) validateStore() []string {
	switch c.Store.Driver {
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return []string{"store.database_url is required"}
		}
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return []string{"store.sqlite_path is required"}
		}
	default:
		return []string{"store.driver must be postgres or sqlite"}
	}
	return nil
}

// validateResearch runs first so a missing key fails before any store access.
func (c *Config) validateResearch() []string {
	var problems []string
	switch c.Research.Provider {
	case "gemini":
		if c.Research.Gemini.Key == "" {
			problems = append(problems, "research.gemini.key is required")
		}
	case "anthropic":
		if c.Research.Anthropic.Key == "" {
			problems = append(problems, "research.anthropic.key is required")
		}
	case "perplexity":
		if c.Research.Perplexity.Key == "" {
			problems = append(problems, "research.perplexity.key is required")
		}
	default:
		problems = append(problems, "research.provider must be gemini, anthropic or perplexity")
	}

	if c.Research.BatchSize < 1 || c.Research.BatchSize > 20 {
		problems = append(problems, "research.batch_size must be between 1 and 20")
	}
	if c.Research.TimeoutSecs <= 0 {
		problems = append(problems, "research.timeout_secs must be > 0")
	}
	return problems
}

func (c *Config) validatePipeline() []string {
	var problems []string
	if c.Geocode.CallsPerSecond <= 0 {
		problems = append(problems, "geocode.calls_per_second must be > 0")
	}
	if c.Ledger.Dir == "" {
		problems = append(problems, "ledger.dir is required")
	}
	switch c.Resolve.Strategy {
	case "", "containment", "exact_first":
	default:
		problems = append(problems, "resolve.strategy must be containment or exact_first")
	}
	switch c.Publish.Mode {
	case "", "none":
	case "webhook":
		if c.Publish.WebhookURL == "" {
			problems = append(problems, "publish.webhook_url is required for webhook mode")
		}
	case "git":
		if c.Publish.Git.MarkerFile == "" {
			problems = append(problems, "publish.git.marker_file is required for git mode")
		}
	default:
		problems = append(problems, "publish.mode must be none, webhook or git")
	}
	return problems
}
