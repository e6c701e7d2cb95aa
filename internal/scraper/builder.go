package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/assessment-recommender/internal/catalog"
)

const (
	DefaultIndexURL    = "https://www.shl.com/solutions/products/"
	DefaultConcurrency = 4

	maxFallbackDescription = 300
)

// ErrNoProducts is returned when a refresh scraped nothing usable.
var ErrNoProducts = errors.New("no assessment products scraped")

type Config struct {
	IndexURL    string
	Concurrency int
	// MaxPages caps the number of product pages per refresh. Zero means no cap.
	MaxPages int
	// SeedOnEmpty returns the built-in seed records instead of failing when
	// nothing could be scraped.
	SeedOnEmpty bool
}

// Builder rebuilds the catalog: it discovers product pages from the index page,
// scrapes them with bounded parallelism and enriches each with extracted details.
type Builder struct {
	cfg       Config
	fetcher   Fetcher
	extractor DetailsExtractor
	logger    *zap.Logger
}

var _ catalog.Refresher = (*Builder)(nil)

func NewBuilder(cfg Config, fetcher Fetcher, extractor DetailsExtractor, logger *zap.Logger) *Builder {
	if cfg.IndexURL == "" {
		cfg.IndexURL = DefaultIndexURL
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Builder{
		cfg:       cfg,
		fetcher:   fetcher,
		extractor: extractor,
		logger:    logger,
	}
}

func (b *Builder) Refresh(ctx context.Context) ([]catalog.Assessment, error) {
	start := time.Now()
	b.logger.Info("starting assessment scraping", zap.String("index_url", b.cfg.IndexURL))

	items, err := b.scrape(ctx)
	if err != nil && ctx.Err() != nil {
		return nil, err
	}

	if len(items) == 0 {
		if err == nil {
			err = ErrNoProducts
		}
		if !b.cfg.SeedOnEmpty {
			return nil, err
		}
		b.logger.Warn("scraping produced nothing, returning seed assessment data", zap.Error(err))
		return catalog.SeedAssessments(), nil
	}

	b.logger.Info("assessment scraping finished",
		zap.Int("count", len(items)),
		zap.Duration("duration", time.Since(start)),
	)

	return items, nil
}

func (b *Builder) scrape(ctx context.Context) ([]catalog.Assessment, error) {
	index, err := b.fetcher.Fetch(ctx, b.cfg.IndexURL)
	if err != nil {
		b.logger.Error("scraping products index", zap.String("url", b.cfg.IndexURL), zap.Error(err))
		return nil, fmt.Errorf("scrape products index: %w", err)
	}

	urls := DiscoverProducts(b.cfg.IndexURL, index.Links)
	if b.cfg.MaxPages > 0 && len(urls) > b.cfg.MaxPages {
		urls = urls[:b.cfg.MaxPages]
	}
	b.logger.Info("found product urls to scrape", zap.Int("count", len(urls)))

	results := make([]*catalog.Assessment, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Concurrency)

	for i, u := range urls {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			a, err := b.scrapeProduct(gctx, u)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				b.logger.Error("scraping product page", zap.String("url", u), zap.Error(err))
				return nil
			}
			results[i] = a
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := make([]catalog.Assessment, 0, len(results))
	for _, a := range results {
		if a != nil {
			items = append(items, NormalizeName(*a))
		}
	}

	return catalog.Dedupe(items), nil
}

func (b *Builder) scrapeProduct(ctx context.Context, pageURL string) (*catalog.Assessment, error) {
	b.logger.Debug("scraping product page", zap.String("url", pageURL))

	page, err := b.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	name := DeriveName(page.Title, pageURL)
	b.logger.Debug("derived product name", zap.String("name", name), zap.String("url", pageURL))

	details := DefaultDetails()
	if b.extractor != nil {
		extracted, err := b.extractor.Extract(ctx, page)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			b.logger.Warn("extracting product details, using defaults", zap.String("url", pageURL), zap.Error(err))
		default:
			details = extracted
		}
	}

	description := details.Description
	if description == "" {
		description = truncateRunes(strings.Join(strings.Fields(page.Text), " "), maxFallbackDescription)
	}

	return &catalog.Assessment{
		Name:            name,
		URL:             pageURL,
		Description:     description,
		RemoteTesting:   details.RemoteTesting,
		AdaptiveSupport: details.AdaptiveSupport,
		Duration:        details.Duration,
		TestType:        details.TestType,
	}, nil
}

// DiscoverProducts keeps the links that point at product pages on the index host,
// resolved to absolute URLs without query or fragment, in first-seen order.
func DiscoverProducts(indexURL string, links []string) []string {
	base, err := url.Parse(indexURL)
	if err != nil {
		return nil
	}
	index := strings.TrimSuffix(base.String(), "/")

	seen := make(map[string]struct{}, len(links))
	out := make([]string, 0, len(links))

	for _, link := range links {
		link = strings.TrimSpace(link)
		if link == "" || strings.HasPrefix(link, "#") || strings.HasPrefix(link, "mailto:") {
			continue
		}

		ref, err := url.Parse(link)
		if err != nil {
			continue
		}
		abs := base.ResolveReference(ref)
		abs.RawQuery = ""
		abs.Fragment = ""

		if !strings.EqualFold(abs.Host, base.Host) {
			continue
		}
		p := strings.TrimSuffix(abs.Path, "/")
		if !strings.Contains(abs.Path, "/products/") || strings.HasSuffix(p, "/products") {
			continue
		}

		s := abs.String()
		key := strings.TrimSuffix(s, "/")
		if key == index {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}

	return out
}
