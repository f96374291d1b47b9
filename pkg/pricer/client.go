// Package pricer wraps the remotely deployed fine-tuned pricing model.
// The service exposes a single endpoint that maps a product description to a
// price estimate; the model itself is opaque to callers.
package pricer

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// Client performs price estimation calls against the remote pricer service.
type Client interface {
	Price(ctx context.Context, description string) (float64, error)
}

// priceRequest is the request body for POST /price.
type priceRequest struct {
	Description string `json:"description"`
}

// priceResponse is the response from POST /price.
type priceResponse struct {
	Price float64 `json:"price"`
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

type httpClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a pricer service client. baseURL is required; the
// service has no default public endpoint.
func NewClient(baseURL, apiKey string, opts ...Option) Client {
	c := &httpClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Price(ctx context.Context, description string) (float64, error) {
	body, err := json.Marshal(priceRequest{Description: description})
	if err != nil {
		return 0, eris.Wrap(err, "pricer: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/price", bytes.NewReader(body))
	if err != nil {
		return 0, eris.Wrap(err, "pricer: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return 0, eris.Wrap(err, "pricer: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, eris.Wrap(err, "pricer: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return 0, eris.Errorf("pricer: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result priceResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return 0, eris.Wrap(err, "pricer: unmarshal response")
	}

	return result.Price, nil
}
