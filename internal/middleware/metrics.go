package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"privacy-center-proxy/internal/metrics"
)

// MetricsMiddleware returns an Echo middleware that records Prometheus metrics
// for each inbound request, labelled by the route the request took.
func MetricsMiddleware(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()

			err := next(c)

			statusCode := responseStatus(c, err)
			status := strconv.Itoa(statusCode)
			method := metrics.NormalizeMethod(c.Request().Method)
			route := routeLabel(c, statusCode)

			m.RequestsTotal.WithLabelValues(method, status, route).Inc()
			m.RequestDuration.WithLabelValues(method, status, route).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// responseStatus resolves the status the client will see. An error returned
// up the chain has not been written yet; echo's central error handler writes
// it after every middleware has returned.
func responseStatus(c echo.Context, err error) int {
	if err == nil || c.Response().Committed {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

// routeLabel prefers the label set by the proxy handler. Method rejections by
// echo's router end up as proxy 405s through the error handler, so they share
// the proxy's label. Anything else is labelled by its registered echo route.
func routeLabel(c echo.Context, status int) string {
	if route, ok := c.Get(metrics.RouteKey).(string); ok && route != "" {
		return route
	}
	if status == http.StatusMethodNotAllowed {
		return metrics.RouteMethodNotAllowed
	}
	if p := c.Path(); p != "" && p != "/*" {
		return p
	}
	return metrics.RouteOther
}
