package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/ai"
	"github.com/spigell/assessment-recommender/internal/ai/gemini"
	"github.com/spigell/assessment-recommender/internal/ai/openai"
	"github.com/spigell/assessment-recommender/internal/catalog"
	"github.com/spigell/assessment-recommender/internal/logger"
	"github.com/spigell/assessment-recommender/internal/metrics"
	"github.com/spigell/assessment-recommender/internal/recommender"
	"github.com/spigell/assessment-recommender/internal/scraper"
	"github.com/spigell/assessment-recommender/internal/scraper/firecrawl"
	"github.com/spigell/assessment-recommender/internal/scraper/web"
	"github.com/spigell/assessment-recommender/internal/secrets"
)

// components is everything the commands compose.
type components struct {
	store       *catalog.Store
	recommender *recommender.Recommender
	metrics     *metrics.Metrics
}

func newLogger() (*zap.Logger, error) {
	return logger.New(viper.GetBool("json"), viper.GetBool("debug"))
}

func buildComponents(ctx context.Context, cfg *Config, log *zap.Logger) (*components, error) {
	generator, err := newGenerator(ctx, cfg.AI, log)
	if err != nil {
		return nil, fmt.Errorf("building ai generator: %w", err)
	}

	scraperLog := logger.Component(log, "scraper")
	fetcher := newFetcher(cfg.Scrape, scraperLog)

	builder := scraper.NewBuilder(scraper.Config{
		IndexURL:    cfg.Scrape.IndexURL,
		Concurrency: cfg.Scrape.Concurrency,
		MaxPages:    cfg.Scrape.MaxPages,
		SeedOnEmpty: cfg.Catalog.SeedOnEmpty,
	}, fetcher, scraper.NewAIExtractor(generator, scraperLog, 0), scraperLog)

	m := metrics.New()

	store := catalog.NewStore(catalog.Options{
		Path:       cfg.Catalog.Path,
		Freshness:  cfg.Catalog.Freshness,
		ServeStale: cfg.Catalog.ServeStale,
	}, builder, logger.Component(log, "catalog"))
	store.SetObserver(m)

	rec := recommender.New(generator, fetcher, recommender.Options{
		MaxResults:   cfg.AI.MaxResults,
		MaxLogLength: cfg.AI.MaxLogLength,
	}, logger.Component(log, "recommender"))

	return &components{
		store:       store,
		recommender: rec,
		metrics:     m,
	}, nil
}

func newGenerator(ctx context.Context, cfg AIConfig, log *zap.Logger) (ai.Generator, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))

	switch provider {
	case "", ai.ProviderGemini:
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: cfg.Gemini.APIKey,
			File:  cfg.Gemini.APIKeyFile,
			Env:   "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
		}
		return gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.MaxLogLength, log)
	case ai.ProviderOpenAI:
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "openai api key",
			Value: cfg.OpenAI.APIKey,
			File:  cfg.OpenAI.APIKeyFile,
			Env:   "OPENAI_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.openai.api-key-file or OPENAI_API_KEY)", err)
		}
		return openai.NewGenerator(apiKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, cfg.MaxLogLength, log)
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
}

// newFetcher prefers Firecrawl when a key is configured and always falls back to
// fetching the page directly.
func newFetcher(cfg ScrapeConfig, log *zap.Logger) scraper.Fetcher {
	direct := web.NewFetcher(web.Options{Timeout: cfg.Timeout, UserAgent: cfg.UserAgent}, log)

	token, err := secrets.Load(secrets.Source{
		Name:  "firecrawl api key",
		Value: cfg.Firecrawl.APIKey,
		File:  cfg.Firecrawl.APIKeyFile,
		Env:   "FIRECRAWL_API_KEY",
	})
	if err != nil {
		log.Warn("firecrawl disabled, fetching pages directly", zap.Error(err))
		return scraper.NewFallback(log, direct)
	}

	return scraper.NewFallback(log, firecrawl.New(log, token, cfg.Timeout), direct)
}
