// Package client provides the upstream HTTP client shared by all backends.
package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"privacy-center-proxy/internal/backend"
	"privacy-center-proxy/internal/config"
	"privacy-center-proxy/internal/metrics"
	"privacy-center-proxy/internal/model"
)

// Request is one outbound call to a backend.
type Request struct {
	Backend       backend.ID
	Method        string
	URL           string
	Host          string // sent as the Host header
	Header        http.Header
	Body          io.Reader
	ContentLength int64
}

// UpstreamClient sends requests to the backends.
type UpstreamClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewUpstreamClient creates an UpstreamClient with connection pooling and timeouts.
// The metrics parameter is optional; pass nil to disable upstream metrics recording.
func NewUpstreamClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *UpstreamClient {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.Upstream.IdleConnections,
		MaxIdleConnsPerHost: cfg.Upstream.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		// Bodies and Content-Encoding are relayed as the backend sent them.
		DisableCompression: true,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &UpstreamClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
			// Redirects are the browser's business, not the proxy's.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger:  logger.With("component", "upstream_client"),
		metrics: m,
	}
}

// Do executes an HTTP request against backend id and returns the raw response.
// The caller is responsible for closing the response body.
func (c *UpstreamClient) Do(id backend.ID, req *http.Request) (*model.ProxyResponse, error) {
	c.logger.Debug("upstream request",
		"backend", id,
		"method", req.Method,
		"host", req.Host,
		"path", req.URL.Path,
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req) //nolint:bodyclose // body ownership transfers to caller via ProxyResponse
	duration := time.Since(start).Seconds()

	method := metrics.NormalizeMethod(req.Method)

	if err != nil {
		if c.metrics != nil {
			c.metrics.UpstreamDuration.WithLabelValues(string(id), method).Observe(duration)
			c.metrics.UpstreamErrors.WithLabelValues(string(id)).Inc()
		}
		return nil, fmt.Errorf("upstream request: %w", err)
	}

	if c.metrics != nil {
		status := strconv.Itoa(resp.StatusCode)
		c.metrics.UpstreamDuration.WithLabelValues(string(id), method).Observe(duration)
		c.metrics.UpstreamResponses.WithLabelValues(string(id), method, status).Inc()
	}

	return &model.ProxyResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
	}, nil
}

// DoStream builds and executes r, returning the response body as a stream.
// The caller is responsible for closing the returned body.
// The provided context controls the lifetime of the upstream request:
// when the context is canceled (e.g. client disconnects), the upstream
// request is also canceled.
func (c *UpstreamClient) DoStream(ctx context.Context, r Request) (*model.ProxyResponse, error) {
	body := r.Body
	if body == http.NoBody {
		body = nil
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header = r.Header
	req.Host = r.Host
	if body != nil {
		req.ContentLength = r.ContentLength
	}

	return c.Do(r.Backend, req)
}
