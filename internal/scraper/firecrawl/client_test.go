package firecrawl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(zap.NewNop(), "fc-test", 0)
	c.APIURL = srv.URL
	return c
}

func TestFetchReturnsMarkdownAndLinks(t *testing.T) {
	var got scrapeRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != scrapePath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer fc-test" {
			t.Errorf("unexpected authorization header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"data": {
				"markdown": "# Verify\n\nAdaptive tests.\n",
				"links": ["https://www.shl.com/solutions/products/opq/"],
				"metadata": {"title": "Verify | SHL", "sourceURL": "https://www.shl.com/solutions/products/verify/", "statusCode": "200"}
			}
		}`))
	})

	page, err := c.Fetch(context.Background(), "https://www.shl.com/solutions/products/verify")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.URL != "https://www.shl.com/solutions/products/verify" || len(got.Formats) != 2 {
		t.Fatalf("unexpected request payload: %+v", got)
	}
	if page.Title != "Verify | SHL" {
		t.Fatalf("unexpected title %q", page.Title)
	}
	if page.URL != "https://www.shl.com/solutions/products/verify/" {
		t.Fatalf("expected source url, got %q", page.URL)
	}
	if page.Text != "# Verify\n\nAdaptive tests." {
		t.Fatalf("unexpected text %q", page.Text)
	}
	if len(page.Links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(page.Links))
	}
}

func TestFetchUpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"success": false, "error": "Insufficient credits"}`))
	})

	_, err := c.Fetch(context.Background(), "https://example.com")
	if err == nil || err.Error() != "firecrawl scrape failed: Insufficient credits" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFetchTargetStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success": true, "data": {"markdown": "", "metadata": {"statusCode": 404}}}`))
	})

	if _, err := c.Fetch(context.Background(), "https://example.com/missing"); err == nil {
		t.Fatal("expected error for target 404")
	}
}

func TestFetchRequiresToken(t *testing.T) {
	c := New(zap.NewNop(), " ", 0)
	if _, err := c.Fetch(context.Background(), "https://example.com"); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestDecodeMetadataIgnoresUnknownFields(t *testing.T) {
	meta, err := decodeMetadata(map[string]any{
		"title":      "T",
		"statusCode": 200.0,
		"ogImage":    []any{"x"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.Title != "T" || meta.StatusCode != 200 {
		t.Fatalf("unexpected metadata %+v", meta)
	}
}
