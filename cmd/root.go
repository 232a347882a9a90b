// Package cmd implements the command-line interface for the promotion
// crawler service.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug enables debug logging for all commands.
	debug bool

	rootCmd = &cobra.Command{
		Use:   "promocrawl",
		Short: "Scrapes Argentine bank promotions and answers questions about them",
		Long: `A service that scrapes promotional offers from Argentine bank sites,
stores them in Postgres, mirrors them into a vector index, and answers
natural-language questions about them over HTTP.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// Load .env early so environment variables are available
	_ = godotenv.Load()

	if err := initConfig(); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(httpdCommand())
	rootCmd.AddCommand(crawlCommand())
	rootCmd.AddCommand(embeddingsCommand())
}

// initConfig reads configuration from the config file and environment.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	// Config file is optional: environment variables and defaults cover
	// containerized deployments.
	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: config file not found, using environment and defaults\n")
	}

	if err := bindEnvVars(); err != nil {
		return err
	}

	if debug || viper.GetBool("app.debug") {
		viper.Set("logger.level", "debug")
		viper.Set("logger.development", true)
		viper.Set("logger.encoding", "console")
	}

	return nil
}

// bindEnvVars maps flat environment variable names onto config keys.
func bindEnvVars() error {
	bindings := map[string][]string{
		"app.environment":        {"APP_ENV"},
		"app.debug":              {"APP_DEBUG"},
		"logger.level":           {"LOG_LEVEL"},
		"logger.encoding":        {"LOG_FORMAT"},
		"server.address":         {"SERVER_ADDRESS", "PORT_ADDRESS"},
		"scraper.urls":           {"SCRAPE_URLS"},
		"scraper.interval_hours": {"SCRAPE_INTERVAL_HOURS"},
		"scraper.headless":       {"SCRAPER_HEADLESS"},
		"scraper.policy":         {"SCRAPER_POLICY"},
		"database.host":          {"DATABASE_HOST"},
		"database.port":          {"DATABASE_PORT"},
		"database.user":          {"DATABASE_USER"},
		"database.password":      {"DATABASE_PASSWORD"},
		"database.name":          {"DATABASE_NAME"},
		"database.sslmode":       {"DATABASE_SSLMODE"},
		"qdrant.host":            {"QDRANT_HOST"},
		"qdrant.port":            {"QDRANT_PORT"},
		"qdrant.api_key":         {"QDRANT_API_KEY"},
		"qdrant.use_tls":         {"QDRANT_USE_TLS"},
		"qdrant.collection":      {"QDRANT_COLLECTION"},
		"openai.api_key":         {"OPENAI_API_KEY"},
		"openai.embedding_model": {"OPENAI_EMBEDDING_MODEL"},
		"openai.llm_model":       {"OPENAI_LLM_MODEL"},
	}

	for key, envs := range bindings {
		args := append([]string{key}, envs...)
		if err := viper.BindEnv(args...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

// setDefaults sets production-safe defaults.
func setDefaults() {
	viper.SetDefault("app", map[string]any{
		"environment": "production",
		"debug":       false,
	})

	viper.SetDefault("logger", map[string]any{
		"level":       "info",
		"development": false,
		"encoding":    "json",
	})

	viper.SetDefault("server", map[string]any{
		"address":       ":8080",
		"read_timeout":  "15s",
		"write_timeout": "120s",
		"idle_timeout":  "60s",
	})

	viper.SetDefault("scraper", map[string]any{
		"headless": true,
	})
}
