// Package mlservice is the HTTP client for the heatwave risk prediction service.
package mlservice

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/i474232898/heatwave-risk-api/internal/risk"
	"github.com/i474232898/heatwave-risk-api/internal/upstream"
)

// Client implements risk.Classifier against /predict and /predict-bulk.
type Client struct {
	baseURL string
	exec    *upstream.Executor
}

func NewClient(exec *upstream.Executor, baseURL string) *Client {
	return &Client{baseURL: baseURL, exec: exec}
}

func (c *Client) Name() string {
	return c.exec.Name()
}

type bulkRequest struct {
	Predictions []risk.Features `json:"predictions"`
}

type bulkResponse struct {
	Predictions []risk.Assessment `json:"predictions"`
}

// ClassifyOne posts a single feature set to /predict.
func (c *Client) ClassifyOne(ctx context.Context, f risk.Features) (risk.Assessment, error) {
	var out risk.Assessment
	if err := c.post(ctx, "/predict", f, &out); err != nil {
		return risk.Assessment{}, err
	}
	return out, nil
}

// ClassifyBulk posts all feature sets to /predict-bulk in one call. A response
// whose length differs from the request is rejected as malformed.
func (c *Client) ClassifyBulk(ctx context.Context, features []risk.Features) ([]risk.Assessment, error) {
	if len(features) == 0 {
		return []risk.Assessment{}, nil
	}

	var out bulkResponse
	if err := c.post(ctx, "/predict-bulk", bulkRequest{Predictions: features}, &out); err != nil {
		return nil, err
	}
	if len(out.Predictions) != len(features) {
		return nil, fmt.Errorf("%w: bulk response has %d predictions for %d inputs",
			risk.ErrClassifier, len(out.Predictions), len(features))
	}
	return out.Predictions, nil
}

// Ping calls the service root, which answers {"status":"ok"} when the model is loaded.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.exec.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", risk.ErrClassifier, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%w: encode request: %w", risk.ErrClassifier, err)
	}

	resp, err := c.exec.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %w", risk.ErrClassifier, path, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: decode response: %w", risk.ErrClassifier, path, err)
	}
	return nil
}
