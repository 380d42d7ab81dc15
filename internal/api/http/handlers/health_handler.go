package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/passari/web-ui/internal/observability"
	"github.com/passari/web-ui/internal/service"
)

const readinessTimeout = 2 * time.Second

// Pinger checks that a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatusReader returns the current heartbeat snapshot.
type StatusReader interface {
	Status(ctx context.Context) (*service.SystemStatus, error)
}

// Dependency is a named backing service checked by the readiness probe.
type Dependency struct {
	Name   string
	Pinger Pinger
}

// HealthHandler serves the probes under /health.
type HealthHandler struct {
	serviceName  string
	version      string
	dependencies []Dependency
	status       StatusReader
	metrics      *observability.Metrics
}

// NewHealthHandler wires the probe handler. status may be nil.
func NewHealthHandler(serviceName, version string, status StatusReader, metrics *observability.Metrics, deps ...Dependency) *HealthHandler {
	return &HealthHandler{
		serviceName:  serviceName,
		version:      version,
		dependencies: deps,
		status:       status,
		metrics:      metrics,
	}
}

// Live reports that the process is up.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready checks the workflow database and Redis. Late heartbeats are
// reported but don't make the UI unready: the console is how operators
// notice them.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	checks := make(map[string]string, len(h.dependencies))
	ready := true
	for _, dep := range h.dependencies {
		if err := dep.Pinger.Ping(ctx); err != nil {
			checks[dep.Name] = err.Error()
			ready = false
			continue
		}
		checks[dep.Name] = "ok"
	}

	if !ready {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "DEPENDENCY_UNAVAILABLE",
				"message": "one or more dependencies unavailable",
				"details": checks,
			},
		})
	}

	body := fiber.Map{"status": "ready", "dependencies": checks}
	if h.status != nil {
		if status, err := h.status.Status(ctx); err == nil {
			body["heartbeats_ok"] = status.AllOK()
			body["heartbeats_overdue"] = status.AnyOverdue()
		}
	}
	return c.JSON(body)
}

// Metrics returns the request counters.
func (h *HealthHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(h.metrics.Snapshot())
}
