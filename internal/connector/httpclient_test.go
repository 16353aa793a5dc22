package connector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/job-scanner/internal/retry"
	"github.com/job-scanner/internal/types"
)

func TestClientGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "job-scanner-test/1.0", r.Header.Get("User-Agent"))
		fmt.Fprint(w, `{"ok": true}`)
	}))
	defer srv.Close()

	body, status, err := testClient(t).Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 200, status)
	assert.JSONEq(t, `{"ok": true}`, string(body))
}

func TestClientGetServerErrorNotRetried(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(5*time.Second, "job-scanner-test/1.0")
	c.SetRetryConfig(retry.Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   1,
	})

	_, status, err := c.Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, 503, status)
	assert.Contains(t, err.Error(), "HTTP 503")
	assert.Equal(t, 1, hits, "non-429 statuses are terminal")
}

func TestClientGetRateLimitedRetries(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits < 3 {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	c := NewClient(5*time.Second, "job-scanner-test/1.0")
	c.SetRetryConfig(retry.Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   1,
	})

	body, status, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 200, status)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, 3, hits)
}

func TestClientGetNetworkErrorRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewClient(time.Second, "job-scanner-test/1.0")
	c.SetRetryConfig(retry.Config{
		MaxAttempts:  2,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   1,
	})

	_, _, err := c.Get(context.Background(), srv.URL)
	require.Error(t, err)

	ferr := Classify(err)
	require.NotNil(t, ferr)
	assert.Equal(t, types.ErrorNetwork, ferr.Type)
}
