package model

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFromHTTP(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/users/42?expand=1", strings.NewReader("hello"))
	req.Header.Set("X-Trace", "abc")

	pr := FromHTTP(req)

	if pr.Method != http.MethodPost {
		t.Errorf("Method = %q, want %q", pr.Method, http.MethodPost)
	}
	if pr.Path != "/api/users/42" {
		t.Errorf("Path = %q, want %q", pr.Path, "/api/users/42")
	}
	if pr.RawQuery != "expand=1" {
		t.Errorf("RawQuery = %q, want %q", pr.RawQuery, "expand=1")
	}
	if pr.ContentLength != 5 {
		t.Errorf("ContentLength = %d, want 5", pr.ContentLength)
	}
	if pr.Header.Get("X-Trace") != "abc" {
		t.Errorf("X-Trace = %q, want %q", pr.Header.Get("X-Trace"), "abc")
	}
	if pr.Ctx == nil {
		t.Error("Ctx is nil")
	}
}

func TestEscapedPath(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"/api/users", "/api/users"},
		{"/%61pi/users", "/%61pi/users"},
		{"/sdk/a%2Fb.js", "/sdk/a%2Fb.js"},
		{"/sdk/with%20space", "/sdk/with%20space"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, http.NoBody)
			if got := FromHTTP(req).EscapedPath(); got != tt.want {
				t.Errorf("EscapedPath() = %q, want %q", got, tt.want)
			}
		})
	}
}
