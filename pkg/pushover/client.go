// Package pushover sends push notifications through the Pushover API.
package pushover

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/dealhawk/deals-cli/internal/resilience"
)

const defaultBaseURL = "https://api.pushover.net"

// Client sends push notifications.
type Client interface {
	Push(ctx context.Context, message, sound string) error
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRetry overrides the delivery retry configuration.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	user    string
	token   string
	baseURL string
	http    *http.Client
	retry   resilience.RetryConfig
}

// NewClient creates a Pushover client. Delivery is best-effort: transient
// send failures are retried a couple of times with backoff before giving up.
func NewClient(user, token string, opts ...Option) Client {
	c := &httpClient{
		user:    user,
		token:   token,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		retry: resilience.RetryConfig{
			MaxAttempts:    2,
			InitialBackoff: 250 * time.Millisecond,
			OnRetry:        resilience.RetryLogger("pushover", "push"),
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Push(ctx context.Context, message, sound string) error {
	form := url.Values{
		"token":   {c.token},
		"user":    {c.user},
		"message": {message},
	}
	if sound != "" {
		form.Set("sound", sound)
	}

	return resilience.Do(ctx, c.retry, func(ctx context.Context) error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/1/messages.json", strings.NewReader(form.Encode()))
		if err != nil {
			return eris.Wrap(err, "pushover: create request")
		}
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := c.http.Do(httpReq)
		if err != nil {
			return eris.Wrap(err, "pushover: send request")
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return eris.Wrap(err, "pushover: read response")
		}

		if resp.StatusCode != http.StatusOK {
			err := eris.Errorf("pushover: unexpected status %d: %s", resp.StatusCode, string(body))
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return resilience.NewTransientError(err, resp.StatusCode)
			}
			return err
		}

		return nil
	})
}
