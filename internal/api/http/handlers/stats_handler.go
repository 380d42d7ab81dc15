package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/passari/web-ui/internal/service"
)

// StatsHandler serves the dashboard counters.
type StatsHandler struct {
	stats *service.StatsService
}

// NewStatsHandler constructs handler.
func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Overview GET /api/overview-stats.
func (h *StatsHandler) Overview(c *fiber.Ctx) error {
	stats, err := h.stats.Overview(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

// Navbar GET /api/navbar-stats.
func (h *StatsHandler) Navbar(c *fiber.Ctx) error {
	stats, err := h.stats.Navbar(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(stats)
}
