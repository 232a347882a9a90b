// Package config loads and validates application configuration from
// Viper-managed sources (environment variables, .env, optional YAML file).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Persistence policies for the normalization sync.
const (
	// PolicySkipExisting inserts only offers not already stored under the
	// same (bank, title). Default: avoids churning vector point IDs on
	// every scheduled run.
	PolicySkipExisting = "skip-existing"
	// PolicyFullRefresh deletes all stored offers and re-inserts the
	// scraped set wholesale. All embeddings are invalidated with the rows.
	PolicyFullRefresh = "full-refresh"
)

// Default values applied when the environment does not provide them.
const (
	DefaultServerAddress         = ":8080"
	DefaultScrapeIntervalHours   = 12
	DefaultNavigationTimeout     = 60 * time.Second
	DefaultSelectorTimeout       = 10 * time.Second
	DefaultEmbeddingModel        = "text-embedding-3-small"
	DefaultLLMModel              = "gpt-4o-mini"
	DefaultLLMTemperature        = 0.2
	DefaultVectorDimension       = 1536
	DefaultCollectionName        = "promotions"
	DefaultEmbeddingBatchLimit   = 100
	DefaultUserAgent             = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/96.0.4664.110 Safari/537.36"
)

// Errors returned during configuration validation.
var (
	ErrMissingOpenAIKey = errors.New("openai api key is required")
	ErrMissingQdrantURL = errors.New("qdrant host is required")
	ErrNoScrapeURLs     = errors.New("no scrape urls configured")
	ErrInvalidPolicy    = errors.New("invalid persistence policy")
)

// AppConfig holds application-level settings.
type AppConfig struct {
	Environment string
	Debug       bool
}

// LoggerConfig holds logger settings.
type LoggerConfig struct {
	Level       string
	Encoding    string
	Development bool
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// ScraperConfig holds crawl orchestration settings.
type ScraperConfig struct {
	// URLs are the bank promotion pages to crawl, in order.
	URLs []string
	// IntervalHours is the wall-clock interval between scheduled runs.
	IntervalHours int
	// Headless controls whether the browser runs without a display.
	Headless bool
	// UserAgent is the desktop user-agent string set on every page.
	UserAgent string
	// NavigationTimeout bounds page navigation.
	NavigationTimeout time.Duration
	// Policy selects the persistence policy for scraped offers.
	Policy string
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// QdrantConfig holds vector index settings.
type QdrantConfig struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
	// Dimension is fixed by the embedding model in use.
	Dimension int
}

// OpenAIConfig holds embedding/completion provider settings.
type OpenAIConfig struct {
	APIKey         string
	EmbeddingModel string
	LLMModel       string
	Temperature    float64
}

// EmbeddingConfig holds embedding sync settings.
type EmbeddingConfig struct {
	// BatchLimit caps how many pending offers one sync pass processes.
	BatchLimit int
}

// Config is the root configuration for the service.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Server    ServerConfig
	Scraper   ScraperConfig
	Database  DatabaseConfig
	Qdrant    QdrantConfig
	OpenAI    OpenAIConfig
	Embedding EmbeddingConfig
}

// Load builds a Config from the current Viper state.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Environment: viper.GetString("app.environment"),
			Debug:       viper.GetBool("app.debug"),
		},
		Logger: LoggerConfig{
			Level:       viper.GetString("logger.level"),
			Encoding:    viper.GetString("logger.encoding"),
			Development: viper.GetBool("logger.development"),
		},
		Server: ServerConfig{
			Address:      viper.GetString("server.address"),
			ReadTimeout:  viper.GetDuration("server.read_timeout"),
			WriteTimeout: viper.GetDuration("server.write_timeout"),
			IdleTimeout:  viper.GetDuration("server.idle_timeout"),
		},
		Scraper: ScraperConfig{
			URLs:              splitURLs(viper.GetString("scraper.urls")),
			IntervalHours:     viper.GetInt("scraper.interval_hours"),
			Headless:          viper.GetBool("scraper.headless"),
			UserAgent:         viper.GetString("scraper.user_agent"),
			NavigationTimeout: viper.GetDuration("scraper.navigation_timeout"),
			Policy:            viper.GetString("scraper.policy"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("database.host"),
			Port:     viper.GetString("database.port"),
			User:     viper.GetString("database.user"),
			Password: viper.GetString("database.password"),
			DBName:   viper.GetString("database.name"),
			SSLMode:  viper.GetString("database.sslmode"),
		},
		Qdrant: QdrantConfig{
			Host:       viper.GetString("qdrant.host"),
			Port:       viper.GetInt("qdrant.port"),
			APIKey:     viper.GetString("qdrant.api_key"),
			UseTLS:     viper.GetBool("qdrant.use_tls"),
			Collection: viper.GetString("qdrant.collection"),
			Dimension:  viper.GetInt("qdrant.dimension"),
		},
		OpenAI: OpenAIConfig{
			APIKey:         viper.GetString("openai.api_key"),
			EmbeddingModel: viper.GetString("openai.embedding_model"),
			LLMModel:       viper.GetString("openai.llm_model"),
			Temperature:    viper.GetFloat64("openai.temperature"),
		},
		Embedding: EmbeddingConfig{
			BatchLimit: viper.GetInt("embedding.batch_limit"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required settings are present and coherent.
func (c *Config) Validate() error {
	if c.OpenAI.APIKey == "" {
		return ErrMissingOpenAIKey
	}
	if c.Qdrant.Host == "" {
		return ErrMissingQdrantURL
	}
	if len(c.Scraper.URLs) == 0 {
		return ErrNoScrapeURLs
	}
	if c.Scraper.Policy != PolicySkipExisting && c.Scraper.Policy != PolicyFullRefresh {
		return fmt.Errorf("%w: %q", ErrInvalidPolicy, c.Scraper.Policy)
	}
	return nil
}

// applyDefaults fills in zero values with production-safe defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = DefaultServerAddress
	}
	if cfg.Scraper.IntervalHours <= 0 {
		cfg.Scraper.IntervalHours = DefaultScrapeIntervalHours
	}
	if cfg.Scraper.UserAgent == "" {
		cfg.Scraper.UserAgent = DefaultUserAgent
	}
	if cfg.Scraper.NavigationTimeout <= 0 {
		cfg.Scraper.NavigationTimeout = DefaultNavigationTimeout
	}
	if cfg.Scraper.Policy == "" {
		cfg.Scraper.Policy = PolicySkipExisting
	}
	if cfg.OpenAI.EmbeddingModel == "" {
		cfg.OpenAI.EmbeddingModel = DefaultEmbeddingModel
	}
	if cfg.OpenAI.LLMModel == "" {
		cfg.OpenAI.LLMModel = DefaultLLMModel
	}
	if cfg.OpenAI.Temperature <= 0 {
		cfg.OpenAI.Temperature = DefaultLLMTemperature
	}
	if cfg.Qdrant.Collection == "" {
		cfg.Qdrant.Collection = DefaultCollectionName
	}
	if cfg.Qdrant.Dimension <= 0 {
		cfg.Qdrant.Dimension = DefaultVectorDimension
	}
	if cfg.Qdrant.Port <= 0 {
		cfg.Qdrant.Port = 6334
	}
	if cfg.Embedding.BatchLimit <= 0 {
		cfg.Embedding.BatchLimit = DefaultEmbeddingBatchLimit
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
}

// splitURLs parses a comma-separated URL list, trimming whitespace and
// dropping empty entries.
func splitURLs(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	urls := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			urls = append(urls, trimmed)
		}
	}
	return urls
}
