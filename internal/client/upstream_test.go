package client

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"privacy-center-proxy/internal/backend"
	"privacy-center-proxy/internal/config"
	"privacy-center-proxy/internal/metrics"
)

func testConfig(timeout int) *config.Config {
	return &config.Config{
		Upstream: config.UpstreamConfig{
			TimeoutSeconds:  timeout,
			IdleConnections: 10,
		},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUpstreamClient_DoStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Host != "api.privacy-center.org" {
			t.Errorf("Host = %q, want %q", r.Host, "api.privacy-center.org")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c := NewUpstreamClient(testConfig(10), discardLogger(), nil)

	resp, err := c.DoStream(context.Background(), Request{
		Backend: backend.API,
		Method:  http.MethodGet,
		URL:     srv.URL + "/api/test",
		Host:    "api.privacy-center.org",
		Header:  http.Header{},
		Body:    http.NoBody,
	})
	if err != nil {
		t.Fatalf("DoStream() error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(body) != `{"status":"ok"}` {
		t.Errorf("body = %q, want %q", string(body), `{"status":"ok"}`)
	}
}

func TestUpstreamClient_DoStream_ForwardsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) != "payload" {
			t.Errorf("body = %q, want %q", string(body), "payload")
		}
		if r.ContentLength != int64(len("payload")) {
			t.Errorf("ContentLength = %d, want %d", r.ContentLength, len("payload"))
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewUpstreamClient(testConfig(10), discardLogger(), nil)

	resp, err := c.DoStream(context.Background(), Request{
		Backend:       backend.API,
		Method:        http.MethodPost,
		URL:           srv.URL + "/api/items",
		Host:          "api.privacy-center.org",
		Header:        http.Header{"Content-Type": {"text/plain"}},
		Body:          strings.NewReader("payload"),
		ContentLength: int64(len("payload")),
	})
	if err != nil {
		t.Fatalf("DoStream() error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
}

func TestUpstreamClient_DoesNotFollowRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	}))
	defer srv.Close()

	c := NewUpstreamClient(testConfig(10), discardLogger(), nil)

	resp, err := c.DoStream(context.Background(), Request{
		Backend: backend.SDK,
		Method:  http.MethodGet,
		URL:     srv.URL + "/sdk/old.js",
		Host:    "sdk.privacy-center.org",
		Header:  http.Header{},
	})
	if err != nil {
		t.Fatalf("DoStream() error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusFound {
		t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusFound)
	}
	if resp.Header.Get("Location") != "/elsewhere" {
		t.Errorf("Location = %q, want %q", resp.Header.Get("Location"), "/elsewhere")
	}
}

func TestUpstreamClient_DoStream_Error(t *testing.T) {
	m := metrics.New()
	c := NewUpstreamClient(testConfig(1), discardLogger(), m)

	_, err := c.DoStream(context.Background(), Request{
		Backend: backend.API,
		Method:  http.MethodGet,
		URL:     "http://127.0.0.1:1/nonexistent",
		Host:    "api.privacy-center.org",
		Header:  http.Header{},
	})
	if err == nil {
		t.Fatal("DoStream() expected error for unreachable host, got nil")
	}

	if got := testutil.ToFloat64(m.UpstreamErrors.WithLabelValues("api")); got != 1 {
		t.Errorf("upstream errors = %v, want 1", got)
	}
}

func TestUpstreamClient_DoStream_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Simulate a slow upstream; the request should be canceled before this completes.
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewUpstreamClient(testConfig(30), discardLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	_, err := c.DoStream(ctx, Request{
		Backend: backend.SDK,
		Method:  http.MethodGet,
		URL:     srv.URL + "/slow",
		Host:    "sdk.privacy-center.org",
		Header:  http.Header{},
	})
	if err == nil {
		t.Fatal("DoStream() expected error for canceled context, got nil")
	}
}

func TestUpstreamClient_RecordsResponseMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	m := metrics.New()
	c := NewUpstreamClient(testConfig(10), discardLogger(), m)

	resp, err := c.DoStream(context.Background(), Request{
		Backend: backend.SDK,
		Method:  http.MethodGet,
		URL:     srv.URL + "/sdk/x.js",
		Host:    "sdk.privacy-center.org",
		Header:  http.Header{},
	})
	if err != nil {
		t.Fatalf("DoStream() error = %v", err)
	}
	_ = resp.Body.Close()

	if got := testutil.ToFloat64(m.UpstreamResponses.WithLabelValues("sdk", "GET", "204")); got != 1 {
		t.Errorf("upstream responses = %v, want 1", got)
	}
}
