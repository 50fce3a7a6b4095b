// Package headers implements the CORS and cache header rules applied to
// proxied and locally generated responses.
package headers

import (
	"net/http"

	"privacy-center-proxy/internal/backend"
)

// Header names not covered by the echo constants.
const (
	AllowOrigin  = "Access-Control-Allow-Origin"
	AllowMethods = "Access-Control-Allow-Methods"
	AllowHeaders = "Access-Control-Allow-Headers"
	MaxAge       = "Access-Control-Max-Age"
	CacheControl = "Cache-Control"
	Pragma       = "Pragma"
	Expires      = "Expires"
)

// CORS header values.
const (
	AnyOrigin      = "*"
	AllowedMethods = "GET, POST, PUT, DELETE, PATCH, OPTIONS"
	AllowedHeaders = "Content-Type, Authorization, X-Requested-With"
	MaxAgeSeconds  = "86400"
)

// Cache directives per backend.
const (
	SDKCacheControl = "public, max-age=3600"
	APICacheControl = "no-cache, no-store, must-revalidate"
)

// ApplyCORS sets the four CORS headers on h, overwriting upstream values.
func ApplyCORS(h http.Header) {
	h.Set(AllowOrigin, AnyOrigin)
	h.Set(AllowMethods, AllowedMethods)
	h.Set(AllowHeaders, AllowedHeaders)
	h.Set(MaxAge, MaxAgeSeconds)
}

// ApplyCachePolicy sets the cache directives for id. SDK assets are cacheable
// for an hour; API responses are never cached. Other backends are untouched.
func ApplyCachePolicy(h http.Header, id backend.ID) {
	switch id {
	case backend.SDK:
		h.Set(CacheControl, SDKCacheControl)
	case backend.API:
		h.Set(CacheControl, APICacheControl)
		// For HTTP/1.0 caches that ignore Cache-Control.
		h.Set(Pragma, "no-cache")
		h.Set(Expires, "0")
	}
}

// SetPreflight fills h with the headers of a CORS preflight answer.
func SetPreflight(h http.Header) {
	ApplyCORS(h)
	h.Set("Content-Length", "0")
}
