// Package chroma provides a client for the Chroma vector store's query API,
// used to look up previously priced products by embedding similarity.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

// Client queries a Chroma collection.
type Client interface {
	Query(ctx context.Context, embedding []float64, n int) (*QueryResult, error)
}

// queryRequest is the body for POST /api/v1/collections/{name}/query.
type queryRequest struct {
	QueryEmbeddings [][]float64 `json:"query_embeddings"`
	NResults        int         `json:"n_results"`
	Include         []string    `json:"include"`
}

// queryResponse mirrors Chroma's nested per-query response shape.
type queryResponse struct {
	Documents [][]string         `json:"documents"`
	Metadatas [][]map[string]any `json:"metadatas"`
	Distances [][]float64        `json:"distances"`
}

// QueryResult holds the matches for a single query embedding, ordered by
// decreasing similarity as returned by the store. Order is never re-sorted
// here; ties keep the store's native order.
type QueryResult struct {
	Documents []string
	Metadatas []map[string]any
	Distances []float64
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL    string
	collection string
	http       *http.Client
}

// NewClient creates a Chroma client bound to one collection.
func NewClient(baseURL, collection string, opts ...Option) Client {
	c := &httpClient{
		baseURL:    baseURL,
		collection: collection,
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

func (c *httpClient) Query(ctx context.Context, embedding []float64, n int) (*QueryResult, error) {
	body, err := json.Marshal(queryRequest{
		QueryEmbeddings: [][]float64{embedding},
		NResults:        n,
		Include:         []string{"documents", "metadatas", "distances"},
	})
	if err != nil {
		return nil, eris.Wrap(err, "chroma: marshal request")
	}

	endpoint := fmt.Sprintf("%s/api/v1/collections/%s/query", c.baseURL, url.PathEscape(c.collection))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "chroma: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "chroma: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "chroma: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("chroma: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result queryResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "chroma: unmarshal response")
	}

	out := &QueryResult{}
	if len(result.Documents) > 0 {
		out.Documents = result.Documents[0]
	}
	if len(result.Metadatas) > 0 {
		out.Metadatas = result.Metadatas[0]
	}
	if len(result.Distances) > 0 {
		out.Distances = result.Distances[0]
	}

	return out, nil
}
