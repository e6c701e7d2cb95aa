package ui

import (
	"context"

	"github.com/spigell/assessment-recommender/internal/catalog"
	"github.com/spigell/assessment-recommender/internal/recommender"
	"github.com/spigell/assessment-recommender/internal/server"
)

// Local serves the form from in-process components instead of the HTTP API.
type Local struct {
	Catalog     catalog.Provider
	Recommender recommender.Service
}

var (
	_ API = (*Local)(nil)
	_ API = (*Client)(nil)
)

func (l *Local) Recommend(ctx context.Context, text, url string) ([]catalog.Assessment, error) {
	// Same checks as POST /recommend, so only http(s) URLs reach the fetchers.
	body := server.RecommendRequest{Text: text, URL: url}
	if err := body.Validate(); err != nil {
		return nil, err
	}
	req := recommender.Request{Text: body.Text, URL: body.URL}

	cat, err := l.Catalog.Get(ctx, false)
	if err != nil {
		return nil, err
	}

	res, err := l.Recommender.Recommend(ctx, req, cat)
	if err != nil {
		return nil, err
	}

	return res.Recommendations, nil
}

func (l *Local) Assessments(ctx context.Context) ([]catalog.Assessment, error) {
	cat, err := l.Catalog.Get(ctx, false)
	if err != nil {
		return nil, err
	}
	return cat.Assessments, nil
}
