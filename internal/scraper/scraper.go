// Package scraper rebuilds the assessment catalog from the vendor's public product pages.
package scraper

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Page is the readable content of one fetched web page.
type Page struct {
	URL   string
	Title string
	Text  string
	Links []string
}

// Fetcher loads a single page.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, url string) (*Page, error)
}

// Fallback tries each fetcher in order and returns the first page that has content.
type Fallback struct {
	fetchers []Fetcher
	logger   *zap.Logger
}

var _ Fetcher = (*Fallback)(nil)

func NewFallback(logger *zap.Logger, fetchers ...Fetcher) *Fallback {
	if logger == nil {
		logger = zap.NewNop()
	}

	active := make([]Fetcher, 0, len(fetchers))
	for _, f := range fetchers {
		if f != nil {
			active = append(active, f)
		}
	}

	return &Fallback{fetchers: active, logger: logger}
}

func (f *Fallback) Name() string {
	return "fallback"
}

func (f *Fallback) Fetch(ctx context.Context, url string) (*Page, error) {
	if len(f.fetchers) == 0 {
		return nil, errors.New("no page fetchers configured")
	}

	var errs []error
	for _, fetcher := range f.fetchers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := fetcher.Fetch(ctx, url)
		if err == nil && page != nil && (page.Text != "" || len(page.Links) > 0) {
			return page, nil
		}
		if err == nil {
			err = errors.New("empty page")
		}

		f.logger.Warn("page fetch failed, trying next fetcher",
			zap.String("fetcher", fetcher.Name()),
			zap.String("url", url),
			zap.Error(err),
		)
		errs = append(errs, fmt.Errorf("%s: %w", fetcher.Name(), err))
	}

	return nil, fmt.Errorf("fetch %s: %w", url, errors.Join(errs...))
}
