package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/campusdesk/issue-tracker/internal/observability"
)

// Pinger is a dependency that can be probed for readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck names one readiness dependency.
type HealthCheck struct {
	Name   string
	Pinger Pinger
}

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	checks      []HealthCheck
	metrics     *observability.Metrics
}

// NewHealthHandler returns a new handler instance. Only configured dependencies should be passed as checks.
func NewHealthHandler(serviceName, version string, metrics *observability.Metrics, checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, checks: checks, metrics: metrics}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness by checking dependencies.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true

	for _, check := range h.checks {
		if err := check.Pinger.Ping(ctx); err != nil {
			depStatus[check.Name] = err.Error()
			ready = false
		} else {
			depStatus[check.Name] = "ok"
		}
	}

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"code":    "DEPENDENCY_UNAVAILABLE",
		"message": "one or more dependencies unavailable",
		"details": depStatus,
	})
}

// Metrics returns the request counters.
func (h *HealthHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(h.metrics.Snapshot())
}
