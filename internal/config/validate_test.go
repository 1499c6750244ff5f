package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validDefaults returns a Config that passes every mode.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "postgres"
	cfg.Store.DatabaseURL = "postgres://localhost/test"
	cfg.Research.Provider = "gemini"
	cfg.Research.Gemini.Key = "gemini-key"
	cfg.Research.BatchSize = 20
	cfg.Research.TimeoutSecs = 120
	cfg.Geocode.CallsPerSecond = 5
	cfg.Ledger.Dir = "temp/research-batches"
	cfg.Resolve.Strategy = "containment"
	cfg.Publish.Mode = "none"
	cfg.Server.Port = 8080
	return cfg
}

func TestValidate_AllModesPass(t *testing.T) {
	cfg := validDefaults()
	for _, mode := range []string{ModeEnrich, ModeServe, ModeStore, ModeReplay} {
		assert.NoError(t, cfg.Validate(mode), mode)
	}
}

func TestValidateEnrich_MissingFields(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.DatabaseURL = ""
	cfg.Research.Gemini.Key = ""

	err := cfg.Validate(ModeEnrich)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
	assert.Contains(t, err.Error(), "research.gemini.key is required")
}

func TestValidateEnrich_ProviderKeys(t *testing.T) {
	cfg := validDefaults()

	cfg.Research.Provider = "anthropic"
	err := cfg.Validate(ModeEnrich)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "research.anthropic.key is required")

	cfg.Research.Anthropic.Key = "sk-ant"
	assert.NoError(t, cfg.Validate(ModeEnrich))

	cfg.Research.Provider = "perplexity"
	err = cfg.Validate(ModeEnrich)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "research.perplexity.key is required")

	cfg.Research.Provider = "openai"
	err = cfg.Validate(ModeEnrich)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "research.provider must be")
}

func TestValidateEnrich_BatchSizeBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Research.BatchSize = 0
	assert.ErrorContains(t, cfg.Validate(ModeEnrich), "batch_size must be between 1 and 20")
	cfg.Research.BatchSize = 21
	assert.ErrorContains(t, cfg.Validate(ModeEnrich), "batch_size must be between 1 and 20")
	cfg.Research.BatchSize = 1
	assert.NoError(t, cfg.Validate(ModeEnrich))
}

func TestValidateEnrich_Pipeline(t *testing.T) {
	cfg := validDefaults()
	cfg.Geocode.CallsPerSecond = 0
	cfg.Resolve.Strategy = "levenshtein"
	cfg.Publish.Mode = "webhook"

	err := cfg.Validate(ModeEnrich)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calls_per_second must be > 0")
	assert.Contains(t, err.Error(), "resolve.strategy must be")
	assert.Contains(t, err.Error(), "publish.webhook_url is required")
}

func TestValidateEnrich_GitPublish(t *testing.T) {
	cfg := validDefaults()
	cfg.Publish.Mode = "git"
	assert.ErrorContains(t, cfg.Validate(ModeEnrich), "publish.git.marker_file is required")

	cfg.Publish.Git.MarkerFile = "index.astro"
	assert.NoError(t, cfg.Validate(ModeEnrich))
}

func TestValidateStore_SQLite(t *testing.T) {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	assert.ErrorContains(t, cfg.Validate(ModeStore), "store.sqlite_path is required")

	cfg.Store.SQLitePath = "directory.db"
	assert.NoError(t, cfg.Validate(ModeStore))
}

func TestValidateStore_IgnoresResearch(t *testing.T) {
	cfg := validDefaults()
	cfg.Research.Gemini.Key = ""
	assert.NoError(t, cfg.Validate(ModeStore))
}

func TestValidateStore_UnknownDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"
	assert.ErrorContains(t, cfg.Validate(ModeStore), "store.driver must be postgres or sqlite")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate(ModeServe)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateReplay_IgnoresResearchKey(t *testing.T) {
	cfg := validDefaults()
	cfg.Research.Gemini.Key = ""
	assert.NoError(t, cfg.Validate(ModeReplay))

	cfg.Ledger.Dir = ""
	err := cfg.Validate(ModeReplay)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger.dir")
}
