package recommender

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/assessment-recommender/internal/ai"
	"github.com/spigell/assessment-recommender/internal/catalog"
	"github.com/spigell/assessment-recommender/internal/scraper"
)

type stubGenerator struct {
	response string
	err      error
	requests []ai.Request
}

func (g *stubGenerator) Generate(_ context.Context, req ai.Request) (string, error) {
	g.requests = append(g.requests, req)
	return g.response, g.err
}

func (g *stubGenerator) Provider() string { return "stub" }
func (g *stubGenerator) Model() string    { return "stub-model" }

type stubFetcher struct {
	page *scraper.Page
	err  error
}

func (f *stubFetcher) Name() string { return "stub" }

func (f *stubFetcher) Fetch(context.Context, string) (*scraper.Page, error) {
	return f.page, f.err
}

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Assessments: []catalog.Assessment{
			{Name: "Verify Numerical Reasoning", URL: "https://www.shl.com/solutions/products/verify-numerical/", TestType: "Cognitive ability"},
			{Name: "OPQ", URL: "https://www.shl.com/solutions/products/opq/", TestType: "Personality assessment"},
		},
		RefreshedAt: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestRecommendReturnsOnlyCatalogRecords(t *testing.T) {
	gen := &stubGenerator{response: `{"recommendations": [
		{"id": 0, "name": "Verify Numerical Reasoning", "reason": "numbers"},
		{"id": 7, "name": "Invented Test", "url": "https://example.com/invented"}
	]}`}
	r := New(gen, nil, Options{}, zap.NewNop())
	c := testCatalog()

	res, err := r.Recommend(context.Background(), Request{Text: "Financial analyst with strong numerical skills"}, c)
	require.NoError(t, err)

	require.Len(t, res.Recommendations, 1)
	assert.Equal(t, c.Assessments[0], res.Recommendations[0])
	assert.Equal(t, 1, res.Dropped)
	for _, a := range res.Recommendations {
		assert.NotNil(t, c.FindByURL(a.URL), "recommendation must come from the catalog")
	}

	require.Len(t, gen.requests, 1)
	prompt := gen.requests[0].Prompt
	assert.Contains(t, prompt, "Financial analyst with strong numerical skills")
	assert.Contains(t, prompt, `"name":"OPQ"`)
	assert.Contains(t, prompt, "at most 10")
	assert.NotEmpty(t, gen.requests[0].Schema)
}

func TestRecommendMatchesByURLAndName(t *testing.T) {
	gen := &stubGenerator{response: "```json\n" + `{"recommendations": [
		{"id": 99, "url": "https://www.shl.com/solutions/products/opq"},
		{"id": -1, "name": "verify numerical reasoning"},
		{"id": 1}
	]}` + "\n```"}
	r := New(gen, nil, Options{}, zap.NewNop())

	res, err := r.Recommend(context.Background(), Request{Text: "team lead"}, testCatalog())
	require.NoError(t, err)

	names := make([]string, 0, len(res.Recommendations))
	for _, a := range res.Recommendations {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"OPQ", "Verify Numerical Reasoning"}, names)
	assert.Equal(t, 0, res.Dropped)
}

func TestRecommendIgnoresInconsistentID(t *testing.T) {
	gen := &stubGenerator{response: `{"recommendations": [{"id": 0, "name": "OPQ"}]}`}
	r := New(gen, nil, Options{}, zap.NewNop())

	res, err := r.Recommend(context.Background(), Request{Text: "x"}, testCatalog())
	require.NoError(t, err)
	require.Len(t, res.Recommendations, 1)
	assert.Equal(t, "OPQ", res.Recommendations[0].Name)
}

func TestRecommendCapsResults(t *testing.T) {
	c := &catalog.Catalog{}
	var entries []string
	for i := range 5 {
		c.Assessments = append(c.Assessments, catalog.Assessment{Name: fmt.Sprintf("A%d", i), URL: fmt.Sprintf("https://x/products/a%d/", i)})
		entries = append(entries, fmt.Sprintf(`{"id": %d}`, i))
	}
	gen := &stubGenerator{response: `{"recommendations": [` + strings.Join(entries, ",") + `]}`}

	res, err := New(gen, nil, Options{MaxResults: 3}, zap.NewNop()).Recommend(context.Background(), Request{Text: "x"}, c)
	require.NoError(t, err)
	assert.Len(t, res.Recommendations, 3)
	assert.Equal(t, "A0", res.Recommendations[0].Name)
}

func TestRecommendEmptyRequest(t *testing.T) {
	gen := &stubGenerator{}
	_, err := New(gen, nil, Options{}, zap.NewNop()).Recommend(context.Background(), Request{Text: "  "}, testCatalog())
	assert.ErrorIs(t, err, ErrEmptyRequest)
	assert.Empty(t, gen.requests)
}

func TestRecommendEmptyCatalog(t *testing.T) {
	_, err := New(&stubGenerator{}, nil, Options{}, zap.NewNop()).Recommend(context.Background(), Request{Text: "x"}, &catalog.Catalog{})
	assert.ErrorIs(t, err, catalog.ErrDataUnavailable)
}

func TestRecommendUpstreamFailure(t *testing.T) {
	boom := errors.New("quota exhausted")
	_, err := New(&stubGenerator{err: boom}, nil, Options{}, zap.NewNop()).Recommend(context.Background(), Request{Text: "x"}, testCatalog())

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.ErrorIs(t, err, boom)
}

func TestRecommendParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "not json", response: "I recommend OPQ"},
		{name: "schema violation", response: `{"recommendations": [{"id": "zero"}]}`},
		{name: "nothing matches", response: `{"recommendations": [{"id": 42, "name": "Nope"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(&stubGenerator{response: tt.response}, nil, Options{}, zap.NewNop()).
				Recommend(context.Background(), Request{Text: "x"}, testCatalog())

			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, tt.response, parseErr.Raw)
		})
	}
}

func TestRecommendEmptyListIsSuccess(t *testing.T) {
	res, err := New(&stubGenerator{response: `{"recommendations": []}`}, nil, Options{}, zap.NewNop()).
		Recommend(context.Background(), Request{Text: "x"}, testCatalog())
	require.NoError(t, err)
	assert.Empty(t, res.Recommendations)
}

func TestRecommendFetchesJobURL(t *testing.T) {
	gen := &stubGenerator{response: `{"recommendations": [{"id": 1}]}`}
	fetcher := &stubFetcher{page: &scraper.Page{Text: "Hiring a sales manager"}}

	res, err := New(gen, fetcher, Options{}, zap.NewNop()).
		Recommend(context.Background(), Request{URL: "https://jobs.example.com/1", Text: "remote only"}, testCatalog())
	require.NoError(t, err)
	require.Len(t, res.Recommendations, 1)

	prompt := gen.requests[0].Prompt
	assert.Contains(t, prompt, "Hiring a sales manager\n\nAdditional context:\nremote only")
}

func TestRecommendJobURLFailure(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gen := &stubGenerator{}
	fetcher := &stubFetcher{err: errors.New("timeout")}

	_, err := New(gen, fetcher, Options{}, zap.New(core)).
		Recommend(context.Background(), Request{URL: "https://jobs.example.com/1"}, testCatalog())

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "fetch job url", upstream.Op)
	assert.Empty(t, gen.requests)
	assert.Zero(t, logs.Len())
}

func TestRecommendTruncatesJobText(t *testing.T) {
	gen := &stubGenerator{response: `{"recommendations": []}`}
	long := strings.Repeat("x", 50) + strings.Repeat("Q", 50)

	_, err := New(gen, nil, Options{MaxJobText: 50}, zap.NewNop()).
		Recommend(context.Background(), Request{Text: long}, testCatalog())
	require.NoError(t, err)
	assert.NotContains(t, gen.requests[0].Prompt, "QQ")
}
