package handler

import (
	"errors"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"privacy-center-proxy/internal/config"
	"privacy-center-proxy/internal/metrics"
)

// RegisterRoutes wires all route handlers onto the Echo instance. Every path
// not claimed by an operational endpoint goes to the proxy handler, which
// makes its own 404/405 decisions.
func RegisterRoutes(e *echo.Echo, cfg *config.Config, m *metrics.Metrics, proxy *ProxyHandler, health *HealthHandler) {
	e.GET("/healthz", health.Healthz)
	e.GET("/proxy/status", health.Status)

	if cfg.Metrics.Enabled && m != nil {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}

	e.Any("/*", proxy.Handle)
	e.HTTPErrorHandler = methodFallback(proxy, e.HTTPErrorHandler)
}

// methodFallback hands requests that echo's router rejected for their method
// to the proxy handler. Echo's Any only registers the methods it knows, so
// arbitrary methods would otherwise get echo's own 405 without CORS headers.
func methodFallback(proxy *ProxyHandler, next echo.HTTPErrorHandler) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if errors.Is(err, echo.ErrMethodNotAllowed) && !c.Response().Committed {
			if err = proxy.Handle(c); err == nil {
				return
			}
		}
		next(err, c)
	}
}
