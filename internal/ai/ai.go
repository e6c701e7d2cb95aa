// Package ai defines the provider-neutral text generation contract used by the
// recommender and the catalog scraper.
package ai

import (
	"context"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Request is a single prompt. When Schema holds a JSON Schema document the provider
// is asked for JSON output conforming to it.
type Request struct {
	Prompt     string
	Schema     string
	SchemaName string
}

// Generator sends prompts to a hosted model.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Provider() string
	Model() string
}
