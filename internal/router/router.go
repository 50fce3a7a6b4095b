// Package router decides whether an inbound request is forwardable and to
// which backend.
package router

import (
	"fmt"
	"strings"

	"privacy-center-proxy/internal/backend"
)

// Outcome is the result of routing one request. It is one of Forward,
// NotFound or MethodNotAllowed.
type Outcome interface {
	outcome()
}

// Forward means the request should be proxied to Backend.
type Forward struct {
	Backend backend.ID
}

// NotFound means the method is allowed but no prefix matched.
type NotFound struct{}

// MethodNotAllowed means the method is outside the allowed set.
type MethodNotAllowed struct{}

func (Forward) outcome()          {}
func (NotFound) outcome()         {}
func (MethodNotAllowed) outcome() {}

// Rule maps a literal path prefix to a backend.
type Rule struct {
	Prefix  string
	Backend backend.ID
}

// DefaultRules is the production prefix table.
var DefaultRules = []Rule{
	{Prefix: "/api/", Backend: backend.API},
	{Prefix: "/sdk/", Backend: backend.SDK},
}

// allowedMethods are the methods that may be routed. OPTIONS is routed so
// the forwarder can answer CORS preflights for known prefixes.
var allowedMethods = map[string]bool{
	"GET":     true,
	"POST":    true,
	"PUT":     true,
	"DELETE":  true,
	"PATCH":   true,
	"OPTIONS": true,
}

// Router matches requests against an ordered prefix table.
// It holds no mutable state and is safe for concurrent use.
type Router struct {
	rules []Rule
}

// New returns a Router over rules, evaluated in order (first match wins).
// With no rules the DefaultRules table is used. New panics if a rule names
// a backend missing from the hostname table.
func New(rules ...Rule) *Router {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	for _, r := range rules {
		if !backend.Known(r.Backend) {
			panic(fmt.Sprintf("router: rule %q targets unknown backend %q", r.Prefix, r.Backend))
		}
	}
	return &Router{rules: append([]Rule(nil), rules...)}
}

// NewDefault returns a Router over DefaultRules.
func NewDefault() *Router {
	return New()
}

// Route classifies a request by method and path. The path is matched
// literally: case-sensitive, no normalization, no percent-decoding.
func (r *Router) Route(method, path string) Outcome {
	if !allowedMethods[method] {
		return MethodNotAllowed{}
	}
	for _, rule := range r.rules {
		if strings.HasPrefix(path, rule.Prefix) {
			return Forward{Backend: rule.Backend}
		}
	}
	return NotFound{}
}

// Rules returns a copy of the prefix table in evaluation order.
func (r *Router) Rules() []Rule {
	return append([]Rule(nil), r.rules...)
}
