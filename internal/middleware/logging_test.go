package middleware

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	e := echo.New()
	e.Use(RequestLogger(logger))
	e.GET("/sdk/test.js", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/sdk/test.js", http.NoBody)
	req.Header.Set("User-Agent", "TestClient/1.0")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	out := buf.String()
	for _, want := range []string{"path=/sdk/test.js", "status=200", "user_agent=TestClient/1.0"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}

func TestRequestLogger_StatusFromReturnedError(t *testing.T) {
	tests := []struct {
		name    string
		handler echo.HandlerFunc
		want    string
	}{
		{
			name: "http error",
			handler: func(echo.Context) error {
				return echo.ErrMethodNotAllowed
			},
			want: "status=405",
		},
		{
			name: "plain error",
			handler: func(echo.Context) error {
				return errors.New("boom")
			},
			want: "status=500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			e := echo.New()
			e.Use(RequestLogger(slog.New(slog.NewTextHandler(&buf, nil))))
			e.GET("/api/x", tt.handler)

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/x", http.NoBody))

			if out := buf.String(); !strings.Contains(out, tt.want) {
				t.Errorf("log output missing %q: %s", tt.want, out)
			}
		})
	}
}
