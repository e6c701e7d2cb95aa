package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/catalog"
)

const (
	DefaultAPIURL  = "http://localhost:8000"
	defaultTimeout = 5 * time.Minute
	contentType    = "application/json"
	maxErrorBody   = 4096
)

// Client calls the recommendation API.
type Client struct {
	logger     *zap.Logger
	HTTPClient *http.Client
	APIURL     string
}

func NewClient(apiURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if strings.TrimSpace(apiURL) == "" {
		apiURL = DefaultAPIURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		logger:     logger,
		HTTPClient: &http.Client{Timeout: timeout},
		APIURL:     strings.TrimSuffix(strings.TrimSpace(apiURL), "/"),
	}
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("api responded with status %d: %s", e.StatusCode, e.Message)
}

type recommendRequest struct {
	Text string `json:"text,omitempty"`
	URL  string `json:"url,omitempty"`
}

type recommendResponse struct {
	Recommendations []catalog.Assessment `json:"recommendations"`
}

type assessmentsResponse struct {
	Assessments []catalog.Assessment `json:"assessments"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *Client) Recommend(ctx context.Context, text, url string) ([]catalog.Assessment, error) {
	payload, err := json.Marshal(recommendRequest{Text: text, URL: url})
	if err != nil {
		return nil, err
	}

	var out recommendResponse
	if err := c.do(ctx, http.MethodPost, "/recommend", payload, &out); err != nil {
		return nil, err
	}
	return out.Recommendations, nil
}

func (c *Client) Assessments(ctx context.Context) ([]catalog.Assessment, error) {
	var out assessmentsResponse
	if err := c.do(ctx, http.MethodGet, "/assessments", nil, &out); err != nil {
		return nil, err
	}
	return out.Assessments, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, target any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.APIURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", contentType)
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}

	c.logger.Debug("make request", zap.String("method", method), zap.String("url", req.URL.String()))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var apiErr errorResponse
		if json.Unmarshal(data, &apiErr) != nil || apiErr.Error == "" {
			apiErr.Error = strings.TrimSpace(string(data))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}

	return nil
}
