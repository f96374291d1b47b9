package pushover

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealhawk/deals-cli/internal/resilience"
)

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    2,
		InitialBackoff: time.Millisecond,
		JitterFraction: 0,
	}
}

func TestPush(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/1/messages.json", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "test-token", r.PostForm.Get("token"))
		assert.Equal(t, "test-user", r.PostForm.Get("user"))
		assert.Equal(t, "Deal Alert! big discount", r.PostForm.Get("message"))
		assert.Equal(t, "classical", r.PostForm.Get("sound"))

		_, _ = w.Write([]byte(`{"status": 1}`))
	}))
	defer srv.Close()

	client := NewClient("test-user", "test-token", WithBaseURL(srv.URL), WithRetry(fastRetry()))

	require.NoError(t, client.Push(context.Background(), "Deal Alert! big discount", "classical"))
}

func TestPushOmitsEmptySound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		_, hasSound := r.PostForm["sound"]
		assert.False(t, hasSound)
		_, _ = w.Write([]byte(`{"status": 1}`))
	}))
	defer srv.Close()

	client := NewClient("test-user", "test-token", WithBaseURL(srv.URL), WithRetry(fastRetry()))

	require.NoError(t, client.Push(context.Background(), "hello", ""))
}

func TestPushRetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status": 1}`))
	}))
	defer srv.Close()

	client := NewClient("test-user", "test-token", WithBaseURL(srv.URL), WithRetry(fastRetry()))

	require.NoError(t, client.Push(context.Background(), "hello", "classical"))
	assert.Equal(t, int32(2), calls.Load())
}

func TestPushDoesNotRetryClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors": ["user identifier is invalid"]}`))
	}))
	defer srv.Close()

	client := NewClient("test-user", "test-token", WithBaseURL(srv.URL), WithRetry(fastRetry()))

	err := client.Push(context.Background(), "hello", "classical")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 400")
	assert.Equal(t, int32(1), calls.Load())
}

func TestPushGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient("test-user", "test-token", WithBaseURL(srv.URL), WithRetry(fastRetry()))

	err := client.Push(context.Background(), "hello", "classical")
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}
