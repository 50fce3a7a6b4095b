package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"privacy-center-proxy/internal/backend"
	"privacy-center-proxy/internal/config"
	"privacy-center-proxy/internal/metrics"
	"privacy-center-proxy/internal/model"
	"privacy-center-proxy/internal/response"
	"privacy-center-proxy/internal/router"
	"privacy-center-proxy/internal/service"
)

// ProxyHandler routes every non-operational request and either forwards it
// to a backend or answers it locally.
type ProxyHandler struct {
	router    *router.Router
	forwarder *service.Forwarder
	bodyLimit echo.MiddlewareFunc
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewProxyHandler creates a ProxyHandler. The metrics parameter is optional.
// Request bodies of forwarded requests are capped at cfg.Server.BodyMaxBytes;
// zero disables the cap.
func NewProxyHandler(r *router.Router, f *service.Forwarder, cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) *ProxyHandler {
	h := &ProxyHandler{
		router:    r,
		forwarder: f,
		metrics:   m,
		logger:    logger.With("component", "proxy_handler"),
	}
	if limit := cfg.Server.BodyMaxBytes; limit > 0 {
		h.bodyLimit = echomw.BodyLimit(fmt.Sprintf("%dB", limit))
	}
	return h
}

// Handle routes the request and streams back exactly one response: the
// backend's reply or a local 404/405.
func (h *ProxyHandler) Handle(c echo.Context) error {
	req := c.Request()
	path := model.FromHTTP(req).EscapedPath()

	switch out := h.router.Route(req.Method, path).(type) {
	case router.Forward:
		h.recordDecision(c, "forward", out.Backend)
		h.logger.Info("routing request", "backend", out.Backend, "method", req.Method, "path", path)

		forward := func(c echo.Context) error { return h.forward(c, out.Backend) }
		if h.bodyLimit != nil {
			return h.bodyLimit(forward)(c)
		}
		return forward(c)

	case router.MethodNotAllowed:
		h.recordDecision(c, "method_not_allowed", "")
		h.logger.Info("method not allowed", "method", req.Method, "path", path)
		return h.write(c, response.MethodNotAllowed())

	default:
		h.recordDecision(c, "not_found", "")
		h.logger.Info("no matching route", "method", req.Method, "path", path)
		return h.write(c, response.NotFound())
	}
}

// forward builds the proxy request after the body limit has wrapped the
// request body, so an oversized streamed body fails the upstream call.
func (h *ProxyHandler) forward(c echo.Context, id backend.ID) error {
	resp, err := h.forwarder.Forward(model.FromHTTP(c.Request()), id)
	if err != nil {
		return h.mapError(c, err)
	}
	return h.write(c, resp)
}

// write copies resp onto the echo response and closes its body.
func (h *ProxyHandler) write(c echo.Context, resp *model.ProxyResponse) error {
	defer func() { _ = resp.Body.Close() }()

	dst := c.Response().Header()
	for key, vals := range resp.Header {
		dst.Del(key)
		for _, v := range vals {
			dst.Add(key, v)
		}
	}

	c.Response().WriteHeader(resp.StatusCode)

	// Stream the body directly to the client. If io.Copy fails mid-stream
	// (e.g. client disconnect), the status code has already been sent, so
	// the client receives a truncated response with the original status.
	if _, err := io.Copy(c.Response(), resp.Body); err != nil {
		h.logger.Error("streaming response body",
			"err", err,
			"path", c.Request().URL.Path,
		)
	}

	return nil
}

// recordDecision counts the routing outcome and tags the request with its
// route label for the inbound metrics middleware.
func (h *ProxyHandler) recordDecision(c echo.Context, outcome string, id backend.ID) {
	route := outcome
	if id != "" {
		route = string(id)
	}
	c.Set(metrics.RouteKey, route)

	if h.metrics != nil {
		h.metrics.RoutingDecisions.WithLabelValues(outcome, string(id)).Inc()
	}
}

func (h *ProxyHandler) mapError(c echo.Context, err error) error {
	h.logger.Error("proxy error",
		"err", err,
		"path", c.Request().URL.Path,
	)

	if errors.Is(err, echo.ErrStatusRequestEntityTooLarge) {
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{
			"error": "request body too large",
		})
	}

	if errors.Is(err, service.ErrUnknownBackend) {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "backend not configured",
		})
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return c.JSON(http.StatusGatewayTimeout, map[string]string{
			"error": "upstream request timed out",
		})
	}

	if errors.Is(err, context.Canceled) {
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "client disconnected",
		})
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "upstream host unreachable",
		})
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return c.JSON(http.StatusGatewayTimeout, map[string]string{
				"error": "upstream request timed out",
			})
		}
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "upstream connection failed",
		})
	}

	return c.JSON(http.StatusBadGateway, map[string]string{
		"error": "upstream request failed",
	})
}
