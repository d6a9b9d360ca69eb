package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"uems/internal/log"
	"uems/internal/metrics"
	"uems/internal/source"
)

// maxBody bounds a single upstream response.
const maxBody = 32 << 20

// Client implements source.Fetcher against the metering REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *metrics.Metrics
	logger     *log.Logger
}

// NewClient creates a metering API client. baseURL has no trailing slash.
func NewClient(baseURL string, timeout time.Duration, m *metrics.Metrics, logger *log.Logger) *Client {
	if m == nil {
		m = metrics.NewMetricsForTesting()
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: m,
		logger:  logger.WithComponent(log.ComponentSource),
	}
}

// Fetch GETs baseURL+path and returns the body of a 200 response.
func (c *Client) Fetch(ctx context.Context, path string) ([]byte, error) {
	start := time.Now()
	body, err := c.doRequest(ctx, path)
	c.metrics.UpstreamDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())

	outcome := "success"
	if err != nil {
		outcome = "error"
		errType := log.ErrorTypeUpstream
		if errors.Is(err, context.DeadlineExceeded) {
			errType = log.ErrorTypeTimeout
		}
		c.logger.WarnContext(ctx, "Upstream request failed",
			log.FieldEndpoint, path,
			log.FieldOperation, log.OpFetch,
			log.FieldError, err.Error(),
			log.FieldErrorType, errType,
			log.FieldDuration, time.Since(start).Milliseconds())
	} else {
		c.logger.DebugContext(ctx, "Upstream request completed",
			log.FieldEndpoint, path,
			log.FieldBytes, len(body),
			log.FieldDuration, time.Since(start).Milliseconds())
	}
	c.metrics.UpstreamRequests.WithLabelValues(path, outcome).Inc()
	return body, err
}

func (c *Client) doRequest(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &source.StatusError{
			Path:    path,
			Status:  resp.StatusCode,
			Message: errorMessage(body),
		}
	}
	return body, nil
}

// errorMessage pulls the "error" field out of a JSON error body.
func errorMessage(body []byte) string {
	var payload struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &payload) != nil || len(payload.Error) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(payload.Error, &s) == nil {
		return s
	}
	return string(payload.Error)
}
