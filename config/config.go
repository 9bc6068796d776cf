package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the briefer service.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Search    SearchConfig    `mapstructure:"search"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LLMConfig configures the generative client.
type LLMConfig struct {
	APIKey  string              `mapstructure:"api_key"`
	BaseURL string              `mapstructure:"base_url"`
	Timeout time.Duration       `mapstructure:"timeout"`
	Models  map[string]LLMModel `mapstructure:"models"`
	Routing RoutingConfig       `mapstructure:"routing"`
}

// LLMModel describes one model configuration.
type LLMModel struct {
	APIName     string  `mapstructure:"api_name"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// RoutingConfig maps task categories to model names. Planning and
// synthesis usually route to a heavier model than summarization.
type RoutingConfig struct {
	Planning      string `mapstructure:"planning"`
	Summarization string `mapstructure:"summarization"`
	Synthesis     string `mapstructure:"synthesis"`
	Fallback      string `mapstructure:"fallback"`
}

// SearchConfig selects the retrieval provider.
type SearchConfig struct {
	Provider string `mapstructure:"provider"` // brave, serper
	APIKey   string `mapstructure:"api_key"`
}

// FetchConfig selects the content fetcher.
type FetchConfig struct {
	Type      string        `mapstructure:"type"` // readability, chromedp
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxChars  int           `mapstructure:"max_chars"`
	UserAgent string        `mapstructure:"user_agent"`
}

// PipelineConfig tunes the pipeline engine.
type PipelineConfig struct {
	MaxContentChars int `mapstructure:"max_content_chars"`
	RecallTopK      int `mapstructure:"recall_top_k"`
}

// StorageConfig selects the brief history backend.
type StorageConfig struct {
	Backend  string         `mapstructure:"backend"` // file, redis, postgres
	File     FileConfig     `mapstructure:"file"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// FileConfig configures the per-user JSON file store.
type FileConfig struct {
	Dir string `mapstructure:"dir"`
}

// RedisConfig configures the redis history store.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns host:port for the redis client.
func (r RedisConfig) Addr() string { return fmt.Sprintf("%s:%s", r.Host, r.Port) }

// PostgresConfig configures the postgres history store.
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN builds a postgres connection string, preferring an explicit URL.
func (p PostgresConfig) DSN() (string, error) {
	if p.URL != "" {
		return p.URL, nil
	}
	if p.Host == "" || p.DBName == "" {
		return "", errors.New("postgres not configured (storage.postgres.host/dbname or url)")
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl), nil
}

// TelemetryConfig contains monitoring settings.
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load reads configuration from a file (config.yaml in ./config or the
// working directory when path is empty) with BRIEFER_* environment
// overrides. A missing config file is fine; env and defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.timeout", time.Minute)
	v.SetDefault("llm.routing.fallback", "default")
	// Registered empty so BRIEFER_* env overrides bind even without a
	// config file.
	v.SetDefault("llm.api_key", "")
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.provider", "serper")
	v.SetDefault("fetch.type", "readability")
	v.SetDefault("fetch.timeout", 15*time.Second)
	v.SetDefault("fetch.max_chars", 20000)
	v.SetDefault("pipeline.max_content_chars", 4000)
	v.SetDefault("pipeline.recall_top_k", 5)
	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.file.dir", "./storage")
	v.SetDefault("telemetry.enabled", true)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("BRIEFER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}
