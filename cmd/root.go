package cmd

import (
	"errors"
	"io/fs"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/assessment-recommender/internal/ai"
	"github.com/spigell/assessment-recommender/internal/catalog"
	"github.com/spigell/assessment-recommender/internal/recommender"
	"github.com/spigell/assessment-recommender/internal/scraper"
	"github.com/spigell/assessment-recommender/internal/server"
	"github.com/spigell/assessment-recommender/internal/ui"
)

const (
	app = "assessment-recommender"
)

type Config struct {
	Server  server.Config `mapstructure:"server"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Scrape  ScrapeConfig  `mapstructure:"scrape"`
	AI      AIConfig      `mapstructure:"ai"`
	UI      UIConfig      `mapstructure:"ui"`
}

type CatalogConfig struct {
	Path            string        `mapstructure:"path"`
	Freshness       time.Duration `mapstructure:"freshness"`
	ServeStale      bool          `mapstructure:"serve-stale"`
	SeedOnEmpty     bool          `mapstructure:"seed-on-empty"`
	RefreshSchedule string        `mapstructure:"refresh-schedule"`
	// Warm loads or refreshes the catalog before the server starts.
	Warm bool `mapstructure:"warm"`
}

type ScrapeConfig struct {
	IndexURL    string        `mapstructure:"index-url"`
	Concurrency int           `mapstructure:"concurrency"`
	MaxPages    int           `mapstructure:"max-pages"`
	Timeout     time.Duration `mapstructure:"timeout"`
	UserAgent   string        `mapstructure:"user-agent"`
	Firecrawl   SecretConfig  `mapstructure:"firecrawl"`
}

type AIConfig struct {
	Provider     string         `mapstructure:"provider"`
	MaxResults   int            `mapstructure:"max-results"`
	MaxLogLength int            `mapstructure:"max-log-length"`
	Gemini       ProviderConfig `mapstructure:"gemini"`
	OpenAI       ProviderConfig `mapstructure:"openai"`
}

type ProviderConfig struct {
	SecretConfig `mapstructure:",squash"`
	Model        string `mapstructure:"model"`
	BaseURL      string `mapstructure:"base-url"`
}

// SecretConfig points at an API key given inline or in a file.
type SecretConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
}

type UIConfig struct {
	Port    int           `mapstructure:"port"`
	APIURL  string        `mapstructure:"api-url"`
	Timeout time.Duration `mapstructure:"timeout"`
	// Mount serves the form under /ui of the API server.
	Mount bool `mapstructure:"mount"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "assessment-recommender matches job descriptions to SHL assessments",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envs := map[string]string{
		"ai.gemini.api-key":        "GEMINI_API_KEY",
		"ai.openai.api-key":        "OPENAI_API_KEY",
		"scrape.firecrawl.api-key": "FIRECRAWL_API_KEY",
		"ui.api-url":               "API_URL",
		"server.port":              "PORT",
	}
	for key, env := range envs {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is assessment-recommender.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults() {
	viper.SetDefault("server.port", server.DefaultPort)
	viper.SetDefault("server.cors-origins", []string{"*"})

	viper.SetDefault("catalog.path", catalog.DefaultPath)
	viper.SetDefault("catalog.freshness", catalog.DefaultFreshness)
	viper.SetDefault("catalog.serve-stale", true)
	viper.SetDefault("catalog.seed-on-empty", false)

	viper.SetDefault("scrape.index-url", scraper.DefaultIndexURL)
	viper.SetDefault("scrape.concurrency", scraper.DefaultConcurrency)

	viper.SetDefault("ai.provider", ai.ProviderGemini)
	viper.SetDefault("ai.max-results", recommender.DefaultMaxResults)

	viper.SetDefault("ui.port", ui.DefaultPort)
	viper.SetDefault("ui.api-url", ui.DefaultAPIURL)
}

func initConfig() {
	// Secrets and overrides may live in a local .env file.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	// A config file is optional unless one was given explicitly.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Server.Debug = viper.GetBool("debug")

	return &config, nil
}
