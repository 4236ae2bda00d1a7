package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the advisory service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Context   ContextConfig   `mapstructure:"context"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// StorageConfig groups the persistence backends
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig describes the primary database connection
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN builds a postgres connection string from the configured parts.
func (p PostgresConfig) DSN() (string, error) {
	if p.URL != "" {
		return p.URL, nil
	}
	if p.Host == "" || p.DBName == "" {
		return "", fmt.Errorf("postgres not configured (storage.postgres.host/dbname or url)")
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

// RedisConfig describes the optional embedding cache. Disabled when host is empty.
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// Enabled reports whether the cache should be wired at all.
func (r RedisConfig) Enabled() bool { return r.Host != "" }

// LLMConfig contains the language-model backend configuration
type LLMConfig struct {
	Type           string        `mapstructure:"type"` // ollama is the only supported backend
	BaseURL        string        `mapstructure:"base_url"`
	Model          string        `mapstructure:"model"`
	EmbeddingModel string        `mapstructure:"embedding_model"`
	SystemPrompt   string        `mapstructure:"system_prompt"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// ContextConfig tunes the retrieval pipeline
type ContextConfig struct {
	QueryLimit          int `mapstructure:"query_limit"`           // default result count for ad hoc searches
	AdviceQueryLimit    int `mapstructure:"advice_query_limit"`    // candidates fetched on the advice path
	PromptDocumentCap   int `mapstructure:"prompt_document_cap"`   // ranked documents surfaced to the model
	EmbeddingDimensions int `mapstructure:"embedding_dimensions"`  // must match the vector column width
}

// TelemetryConfig controls metrics exposure
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DefaultSystemPrompt is the advisor persona sent with every generation request.
const DefaultSystemPrompt = "You are Sarah, a friendly financial advisor. Keep your responses short, natural, and conversational. For greetings, just say hello back. Only provide financial advice when specifically asked. Never refer to yourself in the third person."

// LoadConfig loads config from file with env overrides (FINCOACH_*).
// A missing config file is fine; defaults cover a local deployment.
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.default_timeout", 60*time.Second)
	viper.SetDefault("server.address", ":10002")
	viper.SetDefault("storage.postgres.host", "localhost")
	viper.SetDefault("storage.postgres.port", "5432")
	viper.SetDefault("storage.postgres.user", "fincoach")
	viper.SetDefault("storage.postgres.dbname", "fincoach")
	viper.SetDefault("storage.postgres.sslmode", "disable")
	viper.SetDefault("storage.redis.port", "6379")
	viper.SetDefault("storage.redis.cache_ttl", 24*time.Hour)
	viper.SetDefault("llm.type", "ollama")
	viper.SetDefault("llm.base_url", "http://localhost:11434")
	viper.SetDefault("llm.model", "tinyllama")
	viper.SetDefault("llm.embedding_model", "nomic-embed-text")
	viper.SetDefault("llm.system_prompt", DefaultSystemPrompt)
	viper.SetDefault("llm.timeout", 120*time.Second)
	viper.SetDefault("context.query_limit", 5)
	viper.SetDefault("context.advice_query_limit", 15)
	viper.SetDefault("context.prompt_document_cap", 10)
	viper.SetDefault("context.embedding_dimensions", 768)
	viper.SetDefault("telemetry.enabled", true)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("FINCOACH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	return &config
}
