// Package client is a small Go client for the mycoscan inference API, used
// by the mycoctl command and by integration tooling.
package client

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client talks to a running inference server.
type Client struct {
	base string
	rest *resty.Client
}

// New creates a client for the server at base, e.g. "http://localhost:8000".
func New(base string, timeout time.Duration) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(10 * time.Second)
	}
	return &Client{base: base, rest: r}
}

// Prediction mirrors the server's prediction response.
type Prediction struct {
	Prediction        string  `json:"prediction"`
	Probability       float64 `json:"probability"`
	ConfidencePercent string  `json:"confidence_percent"`
}

// BatchPrediction mirrors the server's batch response; predictions are in
// request order.
type BatchPrediction struct {
	Count       int          `json:"count"`
	Predictions []Prediction `json:"predictions"`
}

// Health mirrors the server's readiness response.
type Health struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

// Predict classifies one specimen. The map keys follow the hyphenated
// schema field names.
func (c *Client) Predict(specimen map[string]any) (*Prediction, error) {
	result := &Prediction{}
	resp, err := c.rest.R().
		SetBody(specimen).
		SetResult(result).
		Post(c.base + "/predict")
	if err != nil {
		return nil, fmt.Errorf("predict request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("predict: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	return result, nil
}

// BatchPredict classifies an ordered sequence of specimens.
func (c *Client) BatchPredict(specimens []map[string]any) (*BatchPrediction, error) {
	result := &BatchPrediction{}
	resp, err := c.rest.R().
		SetBody(specimens).
		SetResult(result).
		Post(c.base + "/batch_predict")
	if err != nil {
		return nil, fmt.Errorf("batch predict request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("batch predict: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	return result, nil
}

// Health reports whether the server holds a loaded model.
func (c *Client) Health() (*Health, error) {
	result := &Health{}
	resp, err := c.rest.R().
		SetResult(result).
		Get(c.base + "/health")
	if err != nil {
		return nil, fmt.Errorf("health request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("health: status %d", resp.StatusCode())
	}
	return result, nil
}
