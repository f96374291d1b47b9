// Package embed provides a client for a text-embeddings-inference style
// encoding service that maps text to fixed-size numeric vectors.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// Client encodes text into embedding vectors.
type Client interface {
	Encode(ctx context.Context, texts []string) ([][]float64, error)
}

// embedRequest is the request body for POST /embed.
type embedRequest struct {
	Inputs []string `json:"inputs"`
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
	http    *http.Client
}

// NewClient creates an embedding service client.
func NewClient(baseURL string, opts ...Option) Client {
	c := &httpClient{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
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

func (c *httpClient) Encode(ctx context.Context, texts []string) ([][]float64, error) {
	body, err := json.Marshal(embedRequest{Inputs: texts})
	if err != nil {
		return nil, eris.Wrap(err, "embed: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "embed: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "embed: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "embed: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("embed: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var vectors [][]float64
	if err := json.Unmarshal(respBody, &vectors); err != nil {
		return nil, eris.Wrap(err, "embed: unmarshal response")
	}

	if len(vectors) != len(texts) {
		return nil, eris.Errorf("embed: got %d vectors for %d inputs", len(vectors), len(texts))
	}

	return vectors, nil
}
