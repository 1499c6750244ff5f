package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Research ResearchConfig `yaml:"research" mapstructure:"research"`
	Geocode  GeocodeConfig  `yaml:"geocode" mapstructure:"geocode"`
	Ledger   LedgerConfig   `yaml:"ledger" mapstructure:"ledger"`
	Resolve  ResolveConfig  `yaml:"resolve" mapstructure:"resolve"`
	Publish  PublishConfig  `yaml:"publish" mapstructure:"publish"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ResearchConfig selects and tunes the research provider.
type ResearchConfig struct {
	Provider    string           `yaml:"provider" mapstructure:"provider"`
	TimeoutSecs int              `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	BatchSize   int              `yaml:"batch_size" mapstructure:"batch_size"`
	MaxRetries  int              `yaml:"max_retries" mapstructure:"max_retries"`
	Gemini      GeminiConfig     `yaml:"gemini" mapstructure:"gemini"`
	Anthropic   AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Perplexity  PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	Key             string  `yaml:"key" mapstructure:"key"`
	Model           string  `yaml:"model" mapstructure:"model"`
	BaseURL         string  `yaml:"base_url" mapstructure:"base_url"`
	Temperature     float32 `yaml:"temperature" mapstructure:"temperature"`
	MaxOutputTokens int32   `yaml:"max_output_tokens" mapstructure:"max_output_tokens"`
	GoogleSearch    bool    `yaml:"google_search" mapstructure:"google_search"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// GeocodeConfig configures the Google geocoder and its pacing.
type GeocodeConfig struct {
	GoogleKey      string  `yaml:"google_key" mapstructure:"google_key"`
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	CallsPerSecond float64 `yaml:"calls_per_second" mapstructure:"calls_per_second"`
}

// LedgerConfig locates the batch artifact directory.
type LedgerConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// ResolveConfig picks the identity resolution strategy.
type ResolveConfig struct {
	Strategy string `yaml:"strategy" mapstructure:"strategy"`
}

// PublishConfig configures the post-run publish signal.
type PublishConfig struct {
	Mode       string    `yaml:"mode" mapstructure:"mode"`
	WebhookURL string    `yaml:"webhook_url" mapstructure:"webhook_url"`
	Git        GitConfig `yaml:"git" mapstructure:"git"`
}

// GitConfig configures the git publisher.
type GitConfig struct {
	RepoDir    string `yaml:"repo_dir" mapstructure:"repo_dir"`
	MarkerFile string `yaml:"marker_file" mapstructure:"marker_file"`
	Remote     string `yaml:"remote" mapstructure:"remote"`
	Branch     string `yaml:"branch" mapstructure:"branch"`
}

// ServerConfig configures the trigger server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// envPrefix namespaces every configuration environment variable.
const envPrefix = "ENRICH"

// legacyEnv maps config keys to variable names used by older deployments.
// The prefixed name always wins.
var legacyEnv = map[string][]string{
	"store.database_url":      {"NETLIFY_DATABASE_URL", "DATABASE_URL"},
	"geocode.google_key":      {"PUBLIC_GOOGLE_MAPS_API_KEY", "GOOGLE_MAPS_API_KEY"},
	"research.gemini.key":     {"GEMINI_API_KEY"},
	"research.anthropic.key":  {"ANTHROPIC_API_KEY"},
	"research.perplexity.key": {"PERPLEXITY_API_KEY"},
	"publish.webhook_url":     {"BUILD_HOOK_URL"},
}

// Load reads configuration from .env, file and environment.
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, names := range legacyEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(append([]string{key, prefixed}, names...)...); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.sqlite_path", "directory.db")
	v.SetDefault("research.provider", "gemini")
	v.SetDefault("research.timeout_secs", 120)
	v.SetDefault("research.batch_size", 20)
	v.SetDefault("research.max_retries", 2)
	v.SetDefault("research.gemini.model", "gemini-2.0-flash")
	v.SetDefault("research.gemini.temperature", 0.4)
	v.SetDefault("research.gemini.max_output_tokens", 8192)
	v.SetDefault("research.gemini.google_search", true)
	v.SetDefault("research.anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("research.anthropic.max_tokens", 8192)
	v.SetDefault("research.perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("research.perplexity.model", "sonar-pro")
	v.SetDefault("geocode.base_url", "https://maps.googleapis.com/maps/api/geocode/json")
	v.SetDefault("geocode.timeout_secs", 10)
	v.SetDefault("geocode.calls_per_second", 5.0)
	v.SetDefault("ledger.dir", "temp/research-batches")
	v.SetDefault("resolve.strategy", "containment")
	v.SetDefault("publish.mode", "none")
	v.SetDefault("publish.git.repo_dir", ".")
	v.SetDefault("publish.git.marker_file", "apps/web/src/pages/index.astro")
	v.SetDefault("publish.git.remote", "origin")
	v.SetDefault("publish.git.branch", "main")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// loadDotEnv exports variables from path without overriding the process
// environment. A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return eris.Wrapf(godotenv.Load(path), "config: load %s", path)
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
