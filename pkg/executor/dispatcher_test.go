package executor

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchEcho(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Echo-Method", r.Method)
		w.Header().Set("X-Echo-Auth", r.Header.Get("Authorization"))
		w.Header().Set("X-Echo-Content-Type", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusTeapot)
		w.Write(body)
	}))
	defer srv.Close()

	d := NewDispatcher(DispatcherOptions{})
	res, err := d.Dispatch(context.Background(), "POST", srv.URL,
		map[string]string{"Authorization": "Bearer tok"}, `{"k":"v"}`)
	require.NoError(t, err, "a non-2xx status is a result, not an error")
	require.NotNil(t, res)

	assert.Equal(t, http.StatusTeapot, res.StatusCode)
	assert.Equal(t, "POST", res.Headers["X-Echo-Method"])
	assert.Equal(t, "Bearer tok", res.Headers["X-Echo-Auth"])
	// Headers go out exactly as stored; nothing is invented.
	assert.Equal(t, "", res.Headers["X-Echo-Content-Type"])
	assert.Equal(t, `{"k":"v"}`, string(res.Body))
	assert.Greater(t, res.Elapsed, time.Duration(0))
	assert.Equal(t, int64(1), hits.Load())
}

func TestDispatchElapsedCoversBodyTransfer(t *testing.T) {
	const delay = 120 * time.Millisecond
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(delay)
		w.Write([]byte("slow"))
	}))
	defer srv.Close()

	d := NewDispatcher(DispatcherOptions{})
	res, err := d.Dispatch(context.Background(), "GET", srv.URL, nil, "")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Elapsed, delay)
}

func TestDispatchNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing is listening anymore

	d := NewDispatcher(DispatcherOptions{})
	res, err := d.Dispatch(context.Background(), "GET", srv.URL, nil, "")
	assert.Nil(t, res)

	var nerr *NetworkError
	require.ErrorAs(t, err, &nerr)
	assert.Error(t, nerr.Err)
}

func TestDispatchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	d := NewDispatcher(DispatcherOptions{Timeout: 50 * time.Millisecond})
	_, err := d.Dispatch(context.Background(), "GET", srv.URL, nil, "")

	var nerr *NetworkError
	require.ErrorAs(t, err, &nerr)
}

func TestDispatchRefusesBadDestinations(t *testing.T) {
	d := NewDispatcher(DispatcherOptions{})

	cases := []string{
		"http://169.254.169.254/latest/meta-data/",
		"http://metadata.google.internal/computeMetadata/v1/",
		"ftp://example.com/file",
		"://not-a-url",
		"http:///no-host",
	}
	for _, rawURL := range cases {
		res, err := d.Dispatch(context.Background(), "GET", rawURL, nil, "")
		assert.Nil(t, res, rawURL)
		var nerr *NetworkError
		assert.ErrorAs(t, err, &nerr, rawURL)
	}
}

func TestDispatchDenyPrivateHosts(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	d := NewDispatcher(DispatcherOptions{DenyPrivateHosts: true})
	_, err := d.Dispatch(context.Background(), "GET", srv.URL, nil, "")

	var nerr *NetworkError
	require.ErrorAs(t, err, &nerr)
	assert.Contains(t, nerr.Err.Error(), "private address")
	assert.Equal(t, int64(0), hits.Load(), "refused destination must never be dialed")
}

func TestDispatchBodyCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(w, strings.NewReader(strings.Repeat("a", 100)))
	}))
	defer srv.Close()

	d := NewDispatcher(DispatcherOptions{MaxResponseBytes: 16})
	res, err := d.Dispatch(context.Background(), "GET", srv.URL, nil, "")
	require.NoError(t, err)
	assert.Len(t, res.Body, 16)
}

func TestDispatchBreakerOpens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	d := NewDispatcher(DispatcherOptions{})
	// Enough consecutive failures to trip the breaker for this host.
	for i := 0; i < 7; i++ {
		_, err := d.Dispatch(context.Background(), "GET", url, nil, "")
		require.Error(t, err)
	}

	_, err := d.Dispatch(context.Background(), "GET", url, nil, "")
	var nerr *NetworkError
	require.ErrorAs(t, err, &nerr, "breaker refusal still surfaces as a network failure")
	assert.ErrorIs(t, nerr.Err, gobreaker.ErrOpenState)
}
