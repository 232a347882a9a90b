package config_test

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/promocrawl/internal/config"
)

// Load reads process-global viper state, so these tests cannot run in
// parallel with each other.

func setRequired(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("openai.api_key", "sk-test")
	viper.Set("qdrant.host", "localhost")
	viper.Set("scraper.urls", "https://bancociudad.com.ar/beneficios")
}

func TestLoadAppliesDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, config.DefaultScrapeIntervalHours, cfg.Scraper.IntervalHours)
	assert.Equal(t, 60*time.Second, cfg.Scraper.NavigationTimeout)
	assert.Equal(t, config.PolicySkipExisting, cfg.Scraper.Policy)
	assert.Equal(t, "text-embedding-3-small", cfg.OpenAI.EmbeddingModel)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.LLMModel)
	assert.InDelta(t, 0.2, cfg.OpenAI.Temperature, 1e-9)
	assert.Equal(t, "promotions", cfg.Qdrant.Collection)
	assert.Equal(t, 1536, cfg.Qdrant.Dimension)
	assert.Equal(t, 6334, cfg.Qdrant.Port)
	assert.Equal(t, 100, cfg.Embedding.BatchLimit)
	assert.Contains(t, cfg.Scraper.UserAgent, "Chrome/96")
}

func TestLoadSplitsScrapeURLs(t *testing.T) {
	setRequired(t)
	viper.Set("scraper.urls",
		" https://bancociudad.com.ar/beneficios ,https://go.bbva.com.ar, ,https://beneficios.galicia.ar")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://bancociudad.com.ar/beneficios",
		"https://go.bbva.com.ar",
		"https://beneficios.galicia.ar",
	}, cfg.Scraper.URLs)
}

func TestLoadRequiresOpenAIKey(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("qdrant.host", "localhost")

	_, err := config.Load()
	assert.ErrorIs(t, err, config.ErrMissingOpenAIKey)
}

func TestLoadRequiresQdrantHost(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("openai.api_key", "sk-test")

	_, err := config.Load()
	assert.ErrorIs(t, err, config.ErrMissingQdrantURL)
}

func TestLoadRequiresScrapeURLs(t *testing.T) {
	setRequired(t)
	viper.Set("scraper.urls", " , ")

	_, err := config.Load()
	assert.ErrorIs(t, err, config.ErrNoScrapeURLs)
}

func TestLoadRejectsUnknownPolicy(t *testing.T) {
	setRequired(t)
	viper.Set("scraper.policy", "append-only")

	_, err := config.Load()
	assert.ErrorIs(t, err, config.ErrInvalidPolicy)
}

func TestLoadAcceptsFullRefreshPolicy(t *testing.T) {
	setRequired(t)
	viper.Set("scraper.policy", config.PolicyFullRefresh)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.PolicyFullRefresh, cfg.Scraper.Policy)
}
