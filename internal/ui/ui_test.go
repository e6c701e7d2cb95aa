package ui

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/catalog"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAPI struct {
	items []catalog.Assessment
	err   error
	calls int
	text  string
	url   string
}

func (f *fakeAPI) Recommend(_ context.Context, text, url string) ([]catalog.Assessment, error) {
	f.calls++
	f.text, f.url = text, url
	return f.items, f.err
}

func (f *fakeAPI) Assessments(context.Context) ([]catalog.Assessment, error) {
	f.calls++
	return f.items, f.err
}

var sample = []catalog.Assessment{
	{Name: "Verify <Interactive>", URL: "https://www.shl.com/solutions/products/verify-interactive/", RemoteTesting: true, Duration: "10-15 minutes", TestType: "Cognitive ability"},
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIndexRendersForm(t *testing.T) {
	engine := NewEngine(NewHandler(&fakeAPI{}, "", zap.NewNop()))

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<form method="post" action="/">`)
	assert.Contains(t, rec.Body.String(), "Get Recommendations")
}

func TestSubmitEmptyInput(t *testing.T) {
	api := &fakeAPI{}
	rec := postForm(t, NewEngine(NewHandler(api, "", zap.NewNop())), "/", url.Values{"text": {"  "}})

	assert.Contains(t, rec.Body.String(), msgEmptyInput)
	assert.Zero(t, api.calls)
}

func TestSubmitRendersTable(t *testing.T) {
	api := &fakeAPI{items: sample}
	rec := postForm(t, NewEngine(NewHandler(api, "", zap.NewNop())), "/", url.Values{"text": {"analyst"}, "url": {"https://jobs.example.com/1"}})

	body := rec.Body.String()
	assert.Equal(t, "analyst", api.text)
	assert.Equal(t, "https://jobs.example.com/1", api.url)
	assert.Contains(t, body, `<a href="https://www.shl.com/solutions/products/verify-interactive/" target="_blank" rel="noopener">Verify &lt;Interactive&gt;</a>`)
	assert.Contains(t, body, "<td>Yes</td>")
	assert.Contains(t, body, "<td>No</td>")
	assert.Contains(t, body, "These assessments are recommended")
}

func TestSubmitNoResults(t *testing.T) {
	rec := postForm(t, NewEngine(NewHandler(&fakeAPI{}, "", zap.NewNop())), "/", url.Values{"text": {"x"}})
	assert.Contains(t, rec.Body.String(), msgNoResults)
}

func TestSubmitShowsAPIError(t *testing.T) {
	api := &fakeAPI{err: &APIError{StatusCode: http.StatusBadGateway, Message: "model overloaded"}}
	rec := postForm(t, NewEngine(NewHandler(api, "", zap.NewNop())), "/", url.Values{"text": {"x"}})

	assert.Contains(t, rec.Body.String(), "Error: api responded with status 502: model overloaded")
}

func TestAllAssessments(t *testing.T) {
	engine := gin.New()
	NewHandler(&fakeAPI{items: sample}, "/ui", zap.NewNop()).Register(engine.Group("/ui"))

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ui/all", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, headingAll)
	assert.Contains(t, body, `action="/ui/"`)
	assert.NotContains(t, body, "These assessments are recommended")
}

func TestAllAssessmentsError(t *testing.T) {
	rec := httptest.NewRecorder()
	NewEngine(NewHandler(&fakeAPI{err: errors.New("connection refused")}, "", zap.NewNop())).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/all", nil))

	assert.Contains(t, rec.Body.String(), "Error: connection refused")
}

func TestClientRecommend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/recommend", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req recommendRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, recommendRequest{Text: "analyst"}, req)

		_ = json.NewEncoder(w).Encode(recommendResponse{Recommendations: sample})
	}))
	defer srv.Close()

	items, err := NewClient(srv.URL+"/", 0, zap.NewNop()).Recommend(context.Background(), "analyst", "")
	require.NoError(t, err)
	assert.Equal(t, sample, items)
}

func TestClientAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error": "assessment catalog is unavailable"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 0, zap.NewNop()).Assessments(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, "assessment catalog is unavailable", apiErr.Message)
}
