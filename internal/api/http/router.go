package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"

	"github.com/passari/web-ui/internal/api/http/handlers"
	"github.com/passari/web-ui/internal/auth"
	"github.com/passari/web-ui/internal/web"
)

// NewApp creates the fiber app with the HTML views. Immutable is required:
// form and query values end up in audit events, which are written after
// fasthttp has reused the request buffer.
func NewApp(name string) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               name,
		Views:                 web.NewEngine(),
		Immutable:             true,
		DisableStartupMessage: true,
	})
}

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Stats          *handlers.StatsHandler
	Objects        *handlers.ObjectsHandler
	SIPs           *handlers.SIPsHandler
	Pages          *handlers.PagesHandler
	Forms          *handlers.FormsHandler
	Session        *handlers.SessionHandler
	AuthMiddleware *auth.AuthMiddleware
	// RequiredRole restricts every protected route to holders of the role.
	RequiredRole string
}

// RegisterRoutes wires HTTP routes. Routes registered before the protected
// groups are public.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	app.Use("/web-ui/static", filesystem.New(filesystem.Config{Root: web.StaticFS()}))

	app.Get("/", cfg.Pages.Home)

	ui := app.Group("/web-ui")
	ui.Get("/login", cfg.AuthMiddleware.Optional, cfg.Session.LoginPage)
	ui.Post("/login", loginLimiter(), cfg.Session.Login)
	ui.Get("/logout", cfg.Session.Logout)
	ui.Get("/register", cfg.Session.RegisterPage)
	ui.Post("/register", loginLimiter(), cfg.Session.Register)

	requireUser := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireRole(cfg.RequiredRole)}

	api := app.Group("/api", requireUser...)
	api.Get("/overview-stats", cfg.Stats.Overview)
	api.Get("/navbar-stats", cfg.Stats.Navbar)
	api.Get("/list-frozen-objects", cfg.Objects.ListFrozen)
	api.Get("/list-sips", cfg.SIPs.List)
	api.Post("/reenqueue-object", cfg.Objects.Reenqueue)
	api.Post("/unfreeze-objects", cfg.Objects.Unfreeze)
	api.Get("/get-log-content", cfg.SIPs.LogContent)

	protected := ui.Group("", requireUser...)
	protected.Get("/", cfg.Pages.Home)
	protected.Get("/overview/", cfg.Pages.Overview)
	protected.Get("/system-status/", cfg.Pages.SystemStatus)

	protected.Get("/enqueue-objects/", cfg.Forms.EnqueueForm)
	protected.Post("/enqueue-objects/", cfg.Forms.EnqueueSubmit)
	protected.Get("/enqueue-objects/success/", cfg.Pages.Success("Objects enqueued", "/web-ui/enqueue-objects/"))

	protected.Get("/freeze-objects/", cfg.Forms.FreezeForm)
	protected.Post("/freeze-objects/", cfg.Forms.FreezeSubmit)
	protected.Get("/freeze-objects/success/", cfg.Pages.Success("Objects frozen", "/web-ui/freeze-objects/"))

	protected.Get("/unfreeze-objects/", cfg.Forms.UnfreezeForm)
	protected.Post("/unfreeze-objects/", cfg.Forms.UnfreezeSubmit)
	protected.Get("/unfreeze-objects/success/", cfg.Pages.Success("Objects unfrozen", "/web-ui/unfreeze-objects/"))

	protected.Get("/reenqueue-object/", cfg.Forms.ReenqueueForm)
	protected.Post("/reenqueue-object/", cfg.Forms.ReenqueueSubmit)
	protected.Get("/reenqueue-object/success/", cfg.Pages.Success("Object re-enqueued", "/web-ui/reenqueue-object/"))

	protected.Get("/manage-frozen-objects/", cfg.Pages.ManageFrozenObjects)
	protected.Get("/frozen-object-statistics/", cfg.Pages.FrozenObjectStatistics)
	protected.Get("/manage-sips/", cfg.Pages.ManageSIPs)
	protected.Get("/manage-sips/:package_id", cfg.Pages.ViewSIP)
	protected.Post("/manage-sips/:package_id/reenqueue", cfg.Pages.ReenqueueSIP)
	protected.Get("/redirect-to-sip/:object_id/:sip_id", cfg.Pages.RedirectToSIP)
}
