// Package web fetches pages directly over HTTP and reduces them to readable text.
package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/scraper"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (compatible; AssessmentRecommender/1.0)"

	noiseSelector = "script, style, noscript, nav, footer, header, iframe, svg, form, .cookie-banner, .popup"
)

var contentSelectors = []string{"main", "article", "#content", ".content", "body"}

type Options struct {
	Timeout   time.Duration
	UserAgent string
}

// Fetcher downloads a page with colly and extracts its title, text and links.
type Fetcher struct {
	opts   Options
	logger *zap.Logger
}

var _ scraper.Fetcher = (*Fetcher)(nil)

func NewFetcher(opts Options, logger *zap.Logger) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Fetcher{opts: opts, logger: logger}
}

func (f *Fetcher) Name() string {
	return "web"
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*scraper.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// A collector per fetch: colly refuses to revisit a URL on the same collector.
	c := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.UserAgent(f.opts.UserAgent),
		colly.IgnoreRobotsTxt(),
	)
	c.SetRequestTimeout(f.opts.Timeout)

	var (
		page     *scraper.Page
		parseErr error
	)

	c.OnRequest(func(r *colly.Request) {
		f.logger.Debug("make request", zap.String("url", r.URL.String()))
	})

	c.OnResponse(func(r *colly.Response) {
		page, parseErr = parse(r)
	})

	if err := c.Visit(url); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("visit %s: %w", url, err)
	}
	if parseErr != nil {
		return nil, parseErr
	}
	if page == nil {
		return nil, errors.New("no response received")
	}

	f.logger.Debug("page fetched",
		zap.String("url", url),
		zap.Int("text_length", len(page.Text)),
		zap.Int("links", len(page.Links)),
	)

	return page, nil
}

func parse(r *colly.Response) (*scraper.Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	page := &scraper.Page{
		URL:   r.Request.URL.String(),
		Title: pageTitle(doc),
	}

	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		abs := r.Request.AbsoluteURL(strings.TrimSpace(href))
		if abs == "" {
			return
		}
		if _, ok := seen[abs]; ok {
			return
		}
		seen[abs] = struct{}{}
		page.Links = append(page.Links, abs)
	})

	page.Text = ExtractText(doc)

	return page, nil
}

func pageTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if og, ok := doc.Find("meta[property='og:title']").Attr("content"); ok {
		return strings.TrimSpace(og)
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

// ExtractText removes page chrome and returns the main content as whitespace-collapsed text.
func ExtractText(doc *goquery.Document) string {
	doc.Find(noiseSelector).Remove()

	for _, sel := range contentSelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			if text := cleanWhitespace(s.Text()); text != "" {
				return text
			}
		}
	}

	return ""
}

func cleanWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
