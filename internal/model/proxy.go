// Package model defines shared types for the proxy.
package model

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// ProxyRequest represents an inbound request that may be forwarded upstream.
type ProxyRequest struct {
	Ctx           context.Context
	Method        string
	Path          string
	RawPath       string // escaped form of Path when it differs from the default encoding
	RawQuery      string
	Header        http.Header
	Body          io.ReadCloser
	ContentLength int64
}

// FromHTTP builds a ProxyRequest from an inbound *http.Request. Header and
// Body are shared with r, not copied.
func FromHTTP(r *http.Request) *ProxyRequest {
	return &ProxyRequest{
		Ctx:           r.Context(),
		Method:        r.Method,
		Path:          r.URL.Path,
		RawPath:       r.URL.RawPath,
		RawQuery:      r.URL.RawQuery,
		Header:        r.Header,
		Body:          r.Body,
		ContentLength: r.ContentLength,
	}
}

// EscapedPath returns the path exactly as the client sent it, without
// percent-decoding.
func (r *ProxyRequest) EscapedPath() string {
	u := url.URL{Path: r.Path, RawPath: r.RawPath}
	return u.EscapedPath()
}

// ProxyResponse represents the upstream (or locally built) response to be
// streamed back.
type ProxyResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}
