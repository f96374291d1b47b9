package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Groq      GroqConfig      `yaml:"groq" mapstructure:"groq"`
	Pricer    PricerConfig    `yaml:"pricer" mapstructure:"pricer"`
	Embed     EmbedConfig     `yaml:"embed" mapstructure:"embed"`
	Chroma    ChromaConfig    `yaml:"chroma" mapstructure:"chroma"`
	Pushover  PushoverConfig  `yaml:"pushover" mapstructure:"pushover"`
	Feeds     FeedsConfig     `yaml:"feeds" mapstructure:"feeds"`
	Planner   PlannerConfig   `yaml:"planner" mapstructure:"planner"`
	Artifacts ArtifactsConfig `yaml:"artifacts" mapstructure:"artifacts"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the opportunity memory backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds Anthropic API settings for the scanner's
// summarization call.
type AnthropicConfig struct {
	Key        string `yaml:"key" mapstructure:"key"`
	HaikuModel string `yaml:"haiku_model" mapstructure:"haiku_model"`
}

// GroqConfig holds settings for the OpenAI-compatible chat service used by
// the retrieval-augmented estimator.
type GroqConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// PricerConfig holds the remote fine-tuned pricing service endpoint.
type PricerConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	Key         string `yaml:"key" mapstructure:"key"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// EmbedConfig holds the text embedding service endpoint.
type EmbedConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ChromaConfig holds the vector store endpoint and collection.
type ChromaConfig struct {
	BaseURL    string `yaml:"base_url" mapstructure:"base_url"`
	Collection string `yaml:"collection" mapstructure:"collection"`
}

// PushoverConfig holds push notification credentials.
type PushoverConfig struct {
	User    string `yaml:"user" mapstructure:"user"`
	Token   string `yaml:"token" mapstructure:"token"`
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
}

// FeedsConfig configures the RSS deal feeds.
type FeedsConfig struct {
	URLs        []string `yaml:"urls" mapstructure:"urls"`
	TimeoutSecs int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	PerSecond   float64  `yaml:"per_second" mapstructure:"per_second"`
}

// PlannerConfig configures the planning run.
type PlannerConfig struct {
	DealThreshold float64 `yaml:"deal_threshold" mapstructure:"deal_threshold"`
	MaxSelected   int     `yaml:"max_selected" mapstructure:"max_selected"`
	TimeoutSecs   int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ArtifactsConfig points at the persisted model artifacts loaded at startup.
type ArtifactsConfig struct {
	EnsemblePath string `yaml:"ensemble_path" mapstructure:"ensemble_path"`
	ForestPath   string `yaml:"forest_path" mapstructure:"forest_path"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DEALS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "deals.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.haiku_model", "claude-haiku-4-5-20251001")
	v.SetDefault("groq.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("groq.model", "llama-3.3-70b-versatile")
	v.SetDefault("pricer.timeout_secs", 30)
	v.SetDefault("embed.base_url", "http://localhost:8081")
	v.SetDefault("embed.timeout_secs", 15)
	v.SetDefault("chroma.base_url", "http://localhost:8000")
	v.SetDefault("chroma.collection", "products")
	v.SetDefault("pushover.enabled", true)
	v.SetDefault("feeds.urls", []string{
		"https://www.dealnews.com/c142/Electronics/?rss=1",
		"https://www.dealnews.com/c39/Computers/?rss=1",
		"https://www.dealnews.com/c238/Automotive/?rss=1",
		"https://www.dealnews.com/f1912/Smart-Home/?rss=1",
		"https://www.dealnews.com/c196/Home-Garden/?rss=1",
	})
	v.SetDefault("feeds.timeout_secs", 15)
	v.SetDefault("feeds.per_second", 2.0)
	v.SetDefault("planner.deal_threshold", 50)
	v.SetDefault("planner.max_selected", 5)
	v.SetDefault("planner.timeout_secs", 300)
	v.SetDefault("artifacts.ensemble_path", "models/ensemble.yaml")
	v.SetDefault("artifacts.forest_path", "models/forest.yaml")

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
