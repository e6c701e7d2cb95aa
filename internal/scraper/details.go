package scraper

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/ai"
	"github.com/spigell/assessment-recommender/internal/utils"
)

//go:embed details_prompt.md
var detailsPrompt string

//go:embed details_schema.json
var detailsSchema string

const (
	defaultMaxContentLength = 8000
	defaultMaxLogLength     = 200
)

// Details are the product attributes read off a product page.
type Details struct {
	RemoteTesting   bool   `json:"remote_testing"`
	AdaptiveSupport bool   `json:"adaptive_support"`
	Duration        string `json:"duration"`
	TestType        string `json:"test_type"`
	Description     string `json:"description"`
}

// DefaultDetails is used when a page could not be analyzed.
func DefaultDetails() Details {
	return Details{
		RemoteTesting:   true,
		AdaptiveSupport: false,
		Duration:        "20-30 minutes",
		TestType:        "Assessment",
	}
}

// DetailsExtractor turns page content into product attributes.
type DetailsExtractor interface {
	Extract(ctx context.Context, page *Page) (Details, error)
}

// AIExtractor asks a model for the product attributes of a page.
type AIExtractor struct {
	generator  ai.Generator
	logger     *zap.Logger
	maxContent int
	maxLogLen  int
}

var _ DetailsExtractor = (*AIExtractor)(nil)

func NewAIExtractor(generator ai.Generator, logger *zap.Logger, maxContentLength int) *AIExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxContentLength <= 0 {
		maxContentLength = defaultMaxContentLength
	}

	return &AIExtractor{
		generator:  generator,
		logger:     logger,
		maxContent: maxContentLength,
		maxLogLen:  defaultMaxLogLength,
	}
}

func (e *AIExtractor) Extract(ctx context.Context, page *Page) (Details, error) {
	if page == nil {
		return Details{}, fmt.Errorf("page is required")
	}

	content := truncateRunes(strings.TrimSpace(page.Text), e.maxContent)
	prompt := strings.ReplaceAll(detailsPrompt, "{{URL}}", page.URL)
	prompt = strings.ReplaceAll(prompt, "{{CONTENT}}", content)

	raw, err := e.generator.Generate(ctx, ai.Request{
		Prompt:     prompt,
		Schema:     detailsSchema,
		SchemaName: "assessment_details",
	})
	if err != nil {
		return Details{}, fmt.Errorf("generate details: %w", err)
	}

	e.logger.Debug("details extraction response",
		zap.String("url", page.URL),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	details := DefaultDetails()
	if err := ai.DecodeJSON(raw, detailsSchema, &details); err != nil {
		return Details{}, fmt.Errorf("decode details: %w", err)
	}

	defaults := DefaultDetails()
	if strings.TrimSpace(details.Duration) == "" {
		details.Duration = defaults.Duration
	}
	if strings.TrimSpace(details.TestType) == "" {
		details.TestType = defaults.TestType
	}
	details.Description = strings.TrimSpace(details.Description)

	return details, nil
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
