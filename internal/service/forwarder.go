// Package service implements the core proxy forwarding logic.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"privacy-center-proxy/internal/backend"
	"privacy-center-proxy/internal/client"
	"privacy-center-proxy/internal/config"
	"privacy-center-proxy/internal/headers"
	"privacy-center-proxy/internal/model"
	"privacy-center-proxy/internal/response"
)

// ErrUnknownBackend is returned when a backend identifier has no entry in the
// hostname table. It indicates a configuration defect, not a runtime condition.
var ErrUnknownBackend = errors.New("backend not configured")

// DefaultUserAgent is sent upstream when the request has no User-Agent header.
const DefaultUserAgent = "Fastly-Proxy/1.0"

// Forwarder rewrites requests for a backend, sends them, and applies the
// CORS and cache header rules to the reply.
type Forwarder struct {
	client *client.UpstreamClient
	cfg    *config.Config
	logger *slog.Logger
}

// NewForwarder creates a Forwarder.
func NewForwarder(c *client.UpstreamClient, cfg *config.Config, logger *slog.Logger) *Forwarder {
	return &Forwarder{
		client: c,
		cfg:    cfg,
		logger: logger.With("component", "forwarder"),
	}
}

// Forward sends pr to backend id and returns the rewritten response.
// The caller is responsible for closing the response body.
//
// OPTIONS requests are answered locally with a CORS preflight response and
// never reach the backend. Transport failures are returned as-is (wrapped);
// there is no retry and no substitute response.
func (f *Forwarder) Forward(pr *model.ProxyRequest, id backend.ID) (*model.ProxyResponse, error) {
	host, ok := backend.Host(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, id)
	}
	addr, _ := f.cfg.BackendAddress(id)

	if pr.Method == http.MethodOptions {
		f.logger.Debug("answering preflight", "backend", id, "path", pr.Path)
		return response.Preflight(), nil
	}

	if pr.Header == nil {
		pr.Header = http.Header{}
	}
	rewriteRequestHeaders(pr.Header)

	f.logger.Debug("forwarding request",
		"backend", id,
		"method", pr.Method,
		"path", pr.Path,
	)

	resp, err := f.client.DoStream(pr.Ctx, client.Request{
		Backend:       id,
		Method:        pr.Method,
		URL:           f.buildUpstreamURL(addr, pr),
		Host:          host,
		Header:        pr.Header,
		Body:          pr.Body,
		ContentLength: pr.ContentLength,
	})
	if err != nil {
		return nil, fmt.Errorf("forward to %s: %w", id, err)
	}

	headers.ApplyCORS(resp.Header)
	headers.ApplyCachePolicy(resp.Header, id)

	f.logger.Info("proxied request",
		"backend", id,
		"status", resp.StatusCode,
	)
	return resp, nil
}

// rewriteRequestHeaders keeps the client's User-Agent, even an empty one, and
// substitutes the default only when the header is missing. Host travels on
// the outbound request itself, not in the map.
func rewriteRequestHeaders(h http.Header) {
	if len(h.Values("User-Agent")) == 0 {
		h.Set("User-Agent", DefaultUserAgent)
	}
}

func (f *Forwarder) buildUpstreamURL(addr string, pr *model.ProxyRequest) string {
	u := url.URL{
		Scheme:   f.cfg.Upstream.Scheme,
		Host:     addr,
		Path:     pr.Path,
		RawPath:  pr.RawPath,
		RawQuery: pr.RawQuery,
	}
	return u.String()
}
