package executor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

const (
	// DefaultTimeout bounds one outbound call end to end, connection
	// setup through body transfer.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResponseBytes caps how much of a remote body is read,
	// preventing memory exhaustion from hostile endpoints.
	DefaultMaxResponseBytes = 50 * 1024 * 1024
)

// cloud metadata services, refused unconditionally
var metadataHosts = map[string]bool{
	"169.254.169.254":          true,
	"metadata.google.internal": true,
	"metadata.goog":            true,
	"100.100.100.200":          true,
	"169.254.170.2":            true,
}

// DispatcherOptions configure outbound behavior.
type DispatcherOptions struct {
	Timeout          time.Duration
	MaxResponseBytes int64
	// DenyPrivateHosts refuses loopback and RFC1918 destinations before
	// dialing. Off by default: request definitions legitimately target
	// developer-local services.
	DenyPrivateHosts bool
}

// Dispatcher performs exactly one outbound HTTP call per invocation.
// It never retries, applies headers and body verbatim, and follows
// redirects with net/http's default policy (up to 10 hops). A non-2xx
// status is a result, not an error; only transport-level failures
// surface as *NetworkError. A per-destination-host circuit breaker
// refuses dials to hosts that have been failing; the refusal is itself
// a *NetworkError so the attempt is still recorded upstream.
type Dispatcher struct {
	client *http.Client
	opts   DispatcherOptions

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// DispatchResult is the raw outcome of one successful dispatch.
type DispatchResult struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Elapsed    time.Duration
}

// NewDispatcher builds a dispatcher with the given options, filling in
// defaults for zero values.
func NewDispatcher(opts DispatcherOptions) *Dispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxResponseBytes <= 0 {
		opts.MaxResponseBytes = DefaultMaxResponseBytes
	}
	return &Dispatcher{
		client:   &http.Client{Timeout: opts.Timeout},
		opts:     opts,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Dispatch performs the outbound call described by method, rawURL,
// headers and body. The returned error, when non-nil, is always a
// *NetworkError carrying the elapsed time until the failure.
func (d *Dispatcher) Dispatch(ctx context.Context, method, rawURL string, headers map[string]string, body string) (*DispatchResult, error) {
	start := time.Now()

	host, err := d.checkDestination(rawURL)
	if err != nil {
		return nil, &NetworkError{Err: err, Elapsed: time.Since(start)}
	}

	out, err := d.breaker(host).Execute(func() (interface{}, error) {
		return d.doOnce(ctx, method, rawURL, headers, body)
	})
	if err != nil {
		if ne, ok := err.(*NetworkError); ok {
			return nil, ne
		}
		// breaker refused the call without dialing
		return nil, &NetworkError{Err: err, Elapsed: time.Since(start)}
	}

	res := out.(*DispatchResult)
	outboundLatency.Observe(res.Elapsed.Seconds())
	return res, nil
}

func (d *Dispatcher) doOnce(ctx context.Context, method, rawURL string, headers map[string]string, body string) (*DispatchResult, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
	if err != nil {
		return nil, &NetworkError{Err: err, Elapsed: time.Since(start)}
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err, Elapsed: time.Since(start)}
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, d.opts.MaxResponseBytes+1)
	respBody, err := io.ReadAll(limited)
	if err != nil {
		// transport died mid-body; no complete response was obtained
		return nil, &NetworkError{Err: err, Elapsed: time.Since(start)}
	}
	if int64(len(respBody)) > d.opts.MaxResponseBytes {
		respBody = respBody[:d.opts.MaxResponseBytes]
	}

	elapsed := time.Since(start)

	respHeaders := make(map[string]string, len(resp.Header))
	for key, values := range resp.Header {
		if len(values) > 0 {
			respHeaders[key] = values[0]
		}
	}

	return &DispatchResult{
		StatusCode: resp.StatusCode,
		Headers:    respHeaders,
		Body:       respBody,
		Elapsed:    elapsed,
	}, nil
}

// checkDestination validates the URL far enough to extract the host and
// applies the destination policy. It returns the hostname used to key
// the circuit breaker.
func (d *Dispatcher) checkDestination(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("unsupported URL scheme %q", parsed.Scheme)
	}
	hostname := strings.ToLower(parsed.Hostname())
	if hostname == "" {
		return "", fmt.Errorf("URL has no hostname")
	}

	if metadataHosts[hostname] {
		return "", fmt.Errorf("destination %s refused: cloud metadata endpoint", hostname)
	}
	if d.opts.DenyPrivateHosts && isPrivateHost(hostname) {
		return "", fmt.Errorf("destination %s refused: private address", hostname)
	}
	return hostname, nil
}

func (d *Dispatcher) breaker(host string) *gobreaker.CircuitBreaker {
	d.mu.Lock()
	defer d.mu.Unlock()
	cb, ok := d.breakers[host]
	if !ok {
		cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{Name: host})
		d.breakers[host] = cb
	}
	return cb
}

func isPrivateHost(hostname string) bool {
	if hostname == "localhost" || hostname == "127.0.0.1" || hostname == "::1" {
		return true
	}
	privatePrefixes := []string{
		"10.",
		"192.168.",
		"172.16.", "172.17.", "172.18.", "172.19.",
		"172.20.", "172.21.", "172.22.", "172.23.",
		"172.24.", "172.25.", "172.26.", "172.27.",
		"172.28.", "172.29.", "172.30.", "172.31.",
		"0.",
		"169.254.",
	}
	for _, prefix := range privatePrefixes {
		if strings.HasPrefix(hostname, prefix) {
			return true
		}
	}
	return false
}
