// Package firecrawl is a minimal client for the Firecrawl scrape API.
package firecrawl

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/scraper"
)

const (
	apiURL         = "https://api.firecrawl.dev"
	scrapePath     = "/v1/scrape"
	contentType    = "application/json"
	defaultTimeout = 60 * time.Second
	userAgent      = "spigell/assessment-recommender"
)

type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

var _ scraper.Fetcher = (*Client)(nil)

type scrapeRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
	Timeout         int      `json:"timeout,omitempty"`
}

type scrapeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    struct {
		Markdown string         `json:"markdown"`
		Links    []string       `json:"links"`
		Metadata map[string]any `json:"metadata"`
	} `json:"data"`
}

// Metadata is the subset of page metadata Firecrawl reports that we use.
type Metadata struct {
	Title       string `mapstructure:"title"`
	Description string `mapstructure:"description"`
	SourceURL   string `mapstructure:"sourceURL"`
	StatusCode  int    `mapstructure:"statusCode"`
	Error       string `mapstructure:"error"`
}

func New(logger *zap.Logger, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		token:  strings.TrimSpace(token),
		logger: logger,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		UserAgent: userAgent,
	}
}

func (c *Client) Name() string {
	return "firecrawl"
}

// Fetch scrapes url and returns its main content as markdown plus all links.
func (c *Client) Fetch(ctx context.Context, url string) (*scraper.Page, error) {
	if c.token == "" {
		return nil, errors.New("firecrawl api key is not configured")
	}

	payload, err := json.Marshal(scrapeRequest{
		URL:             url,
		Formats:         []string{"markdown", "links"},
		OnlyMainContent: true,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(c.APIURL, "/")+scrapePath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req = c.setHeaders(req)

	resp, err := c.request(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	var response scrapeResponse
	if err := json.Unmarshal(data, &response); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("bad status: %s", resp.Status)
		}
		return nil, fmt.Errorf("decode firecrawl response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || !response.Success {
		msg := response.Error
		if msg == "" {
			msg = resp.Status
		}
		return nil, fmt.Errorf("firecrawl scrape failed: %s", msg)
	}

	meta, err := decodeMetadata(response.Data.Metadata)
	if err != nil {
		return nil, err
	}
	if meta.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("target responded with status %d", meta.StatusCode)
	}

	pageURL := url
	if meta.SourceURL != "" {
		pageURL = meta.SourceURL
	}

	c.logger.Debug("got response from firecrawl",
		zap.String("url", pageURL),
		zap.Int("markdown_length", len(response.Data.Markdown)),
		zap.Int("links", len(response.Data.Links)),
	)

	return &scraper.Page{
		URL:   pageURL,
		Title: meta.Title,
		Text:  strings.TrimSpace(response.Data.Markdown),
		Links: response.Data.Links,
	}, nil
}

// decodeMetadata tolerates loosely typed values, e.g. a numeric status code sent as a string.
func decodeMetadata(raw map[string]any) (*Metadata, error) {
	var meta Metadata
	if raw == nil {
		return &meta, nil
	}

	cfg := &mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &meta,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode firecrawl metadata: %w", err)
	}

	return &meta, nil
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	return c.HTTPClient.Do(req)
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Content-Type", contentType)

	return req
}
