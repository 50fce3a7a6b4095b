// Package handler contains the echo handlers for the proxy and its
// operational endpoints.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"privacy-center-proxy/internal/backend"
	"privacy-center-proxy/internal/config"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves health and status endpoints.
type HealthHandler struct {
	cfg     *config.Config
	version Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(cfg *config.Config, v Version) *HealthHandler {
	return &HealthHandler{cfg: cfg, version: v}
}

// Healthz returns a simple OK response for liveness probes.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

type backendStatus struct {
	Host    string `json:"host"`
	Address string `json:"address"`
}

type statusResponse struct {
	Status   string                   `json:"status"`
	Version  string                   `json:"version"`
	Scheme   string                   `json:"scheme"`
	Backends map[string]backendStatus `json:"backends"`
}

// Status returns proxy status information, including the backend table.
func (h *HealthHandler) Status(c echo.Context) error {
	backends := make(map[string]backendStatus)
	for _, id := range backend.IDs() {
		host, _ := backend.Host(id)
		addr, _ := h.cfg.BackendAddress(id)
		backends[string(id)] = backendStatus{Host: host, Address: addr}
	}

	return c.JSON(http.StatusOK, statusResponse{
		Status:   "ok",
		Version:  string(h.version),
		Scheme:   h.cfg.Upstream.Scheme,
		Backends: backends,
	})
}
