// Package recommender matches a job description against the assessment catalog.
package recommender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/ai"
	"github.com/spigell/assessment-recommender/internal/catalog"
	"github.com/spigell/assessment-recommender/internal/scraper"
	"github.com/spigell/assessment-recommender/internal/utils"
)

//go:embed prompt.md
var promptTemplate string

//go:embed schema.json
var responseSchema string

const (
	DefaultMaxResults = 10

	defaultMaxJobText     = 12000
	defaultMaxLogLength   = 200
	maxPromptDescription  = 240
	additionalContextHead = "\n\nAdditional context:\n"
)

// Request carries the job to match. At least one field must be set.
type Request struct {
	Text string
	URL  string
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.Text) == "" && strings.TrimSpace(r.URL) == "" {
		return ErrEmptyRequest
	}
	return nil
}

// Result is the ranked subset of the catalog. Dropped counts AI entries that did not
// resolve to a catalog record.
type Result struct {
	Recommendations []catalog.Assessment
	Dropped         int
	Raw             string
}

type Options struct {
	MaxResults   int
	MaxJobText   int
	MaxLogLength int
}

// Service is what the API layer depends on.
type Service interface {
	Recommend(ctx context.Context, req Request, c *catalog.Catalog) (*Result, error)
}

type Recommender struct {
	generator ai.Generator
	fetcher   scraper.Fetcher
	opts      Options
	logger    *zap.Logger
}

var _ Service = (*Recommender)(nil)

// New builds a Recommender. fetcher may be nil, in which case URL requests fail.
func New(generator ai.Generator, fetcher scraper.Fetcher, opts Options, logger *zap.Logger) *Recommender {
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}
	if opts.MaxJobText <= 0 {
		opts.MaxJobText = defaultMaxJobText
	}
	if opts.MaxLogLength <= 0 {
		opts.MaxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Recommender{
		generator: generator,
		fetcher:   fetcher,
		opts:      opts,
		logger:    logger,
	}
}

type promptEntry struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	TestType    string `json:"type,omitempty"`
	Duration    string `json:"duration,omitempty"`
	Description string `json:"description,omitempty"`
}

type aiResponse struct {
	Recommendations []aiRecommendation `json:"recommendations"`
}

type aiRecommendation struct {
	ID     *int   `json:"id"`
	Name   string `json:"name"`
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

func (r *Recommender) Recommend(ctx context.Context, req Request, c *catalog.Catalog) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if c.Len() == 0 {
		return nil, catalog.ErrDataUnavailable
	}

	jobText, err := r.jobText(ctx, req)
	if err != nil {
		return nil, err
	}

	prompt, err := buildPrompt(jobText, c, r.opts.MaxResults)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("recommendation request",
		zap.Int("catalog_size", c.Len()),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("job_preview", utils.TruncateForLog(jobText, r.opts.MaxLogLength)),
	)

	raw, err := r.generator.Generate(ctx, ai.Request{
		Prompt:     prompt,
		Schema:     responseSchema,
		SchemaName: "recommendations",
	})
	if err != nil {
		return nil, &UpstreamError{Op: "generate recommendations", Err: err}
	}

	r.logger.Debug("recommendation response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, r.opts.MaxLogLength)),
	)

	var parsed aiResponse
	if err := ai.DecodeJSON(raw, responseSchema, &parsed); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}

	result := r.resolve(parsed.Recommendations, c)
	result.Raw = raw

	if len(parsed.Recommendations) > 0 && len(result.Recommendations) == 0 {
		return nil, &ParseError{Raw: raw, Err: errors.New("no recommendation matched the catalog")}
	}

	r.logger.Info("generated recommendations",
		zap.Int("count", len(result.Recommendations)),
		zap.Int("dropped", result.Dropped),
	)

	return result, nil
}

func (r *Recommender) jobText(ctx context.Context, req Request) (string, error) {
	text := strings.TrimSpace(req.Text)
	url := strings.TrimSpace(req.URL)

	if url != "" {
		if r.fetcher == nil {
			return "", &UpstreamError{Op: "fetch job url", Err: errors.New("no page fetcher configured")}
		}

		page, err := r.fetcher.Fetch(ctx, url)
		if err != nil {
			return "", &UpstreamError{Op: "fetch job url", Err: err}
		}

		pageText := strings.TrimSpace(page.Text)
		if pageText == "" {
			return "", &UpstreamError{Op: "fetch job url", Err: fmt.Errorf("%s has no readable text", url)}
		}

		if text != "" {
			pageText += additionalContextHead + text
		}
		text = pageText
	}

	return truncate(text, r.opts.MaxJobText), nil
}

// resolve maps AI entries back to catalog records by id, then url, then name.
func (r *Recommender) resolve(entries []aiRecommendation, c *catalog.Catalog) *Result {
	result := &Result{}
	seen := make(map[string]struct{}, len(entries))

	for _, e := range entries {
		a := lookup(e, c)
		if a == nil {
			result.Dropped++
			r.logger.Warn("dropping recommendation outside the catalog",
				zap.String("id", idString(e.ID)),
				zap.String("name", e.Name),
				zap.String("url", e.URL),
			)
			continue
		}

		if _, dup := seen[a.URL]; dup {
			continue
		}
		seen[a.URL] = struct{}{}

		if len(result.Recommendations) >= r.opts.MaxResults {
			continue
		}
		result.Recommendations = append(result.Recommendations, *a)
	}

	return result
}

func lookup(e aiRecommendation, c *catalog.Catalog) *catalog.Assessment {
	if e.ID != nil && *e.ID >= 0 && *e.ID < c.Len() {
		candidate := &c.Assessments[*e.ID]
		// Trust the id only when it agrees with whatever else the model echoed back.
		if consistent(e, candidate) {
			return candidate
		}
	}
	if a := c.FindByURL(e.URL); a != nil {
		return a
	}
	return c.FindByName(e.Name)
}

func consistent(e aiRecommendation, a *catalog.Assessment) bool {
	if e.URL != "" && strings.TrimSuffix(strings.TrimSpace(e.URL), "/") != strings.TrimSuffix(a.URL, "/") {
		return false
	}
	if e.URL == "" && e.Name != "" && !strings.EqualFold(strings.TrimSpace(e.Name), strings.TrimSpace(a.Name)) {
		return false
	}
	return true
}

func buildPrompt(jobText string, c *catalog.Catalog, maxResults int) (string, error) {
	entries := make([]promptEntry, 0, c.Len())
	for i, a := range c.Assessments {
		entries = append(entries, promptEntry{
			ID:          i,
			Name:        a.Name,
			URL:         a.URL,
			TestType:    a.TestType,
			Duration:    a.Duration,
			Description: truncate(a.Description, maxPromptDescription),
		})
	}

	catalogJSON, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("marshal catalog: %w", err)
	}

	replacer := strings.NewReplacer(
		"{{JOB_DESCRIPTION}}", jobText,
		"{{MAX_RESULTS}}", strconv.Itoa(maxResults),
		"{{CATALOG_JSON}}", string(catalogJSON),
	)
	return replacer.Replace(promptTemplate), nil
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

func idString(id *int) string {
	if id == nil {
		return ""
	}
	return strconv.Itoa(*id)
}
