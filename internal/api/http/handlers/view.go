package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/passari/web-ui/internal/auth"
	"github.com/passari/web-ui/internal/events"
	"github.com/passari/web-ui/internal/service"
	"github.com/passari/web-ui/internal/web"
)

// CSRFContextKey is where the csrf middleware stores the current token.
const CSRFContextKey = "csrf"

// PageRenderer renders HTML pages inside the main layout and fills in the
// values every page needs.
type PageRenderer struct {
	status        *service.SystemStatusService
	museumPlusURL string
	registerable  bool
	logger        *zap.Logger
}

// NewPageRenderer constructs renderer.
func NewPageRenderer(status *service.SystemStatusService, museumPlusURL string, registerable bool, logger *zap.Logger) *PageRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageRenderer{
		status:        status,
		museumPlusURL: strings.TrimRight(museumPlusURL, "/"),
		registerable:  registerable,
		logger:        logger,
	}
}

// Render renders the named template. Keys in data override the defaults.
func (r *PageRenderer) Render(c *fiber.Ctx, name string, data fiber.Map) error {
	base := fiber.Map{
		"Title":         "",
		"Errors":        map[string][]string{},
		"CSRFToken":     CSRFToken(c),
		"Flashes":       web.PopFlashes(c),
		"MuseumPlusURL": r.museumPlusURL,
		"Registerable":  r.registerable,
	}

	if principal, ok := auth.PrincipalFromContext(c); ok && principal.User != nil {
		base["User"] = principal.User
		if r.status != nil {
			status, err := r.status.Status(c.UserContext())
			if err != nil {
				r.logger.Warn("system status unavailable", zap.Error(err))
			} else {
				base["SystemStatus"] = status
			}
		}
	}

	for k, v := range data {
		base[k] = v
	}
	return c.Render(name, base, web.LayoutMain)
}

// CSRFToken returns the token of the current request, if any.
func CSRFToken(c *fiber.Ctx) string {
	token, _ := c.Locals(CSRFContextKey).(string)
	return token
}

// actorFromContext identifies the caller for audit events.
func actorFromContext(c *fiber.Ctx) events.Actor {
	actor := events.Actor{IP: c.IP()}
	if principal, ok := auth.PrincipalFromContext(c); ok && principal.User != nil {
		id := principal.User.ID
		actor.UserID = &id
		actor.Email = principal.User.Email
	}
	return actor
}
