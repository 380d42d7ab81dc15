package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/passari/web-ui/internal/api/dto"
	"github.com/passari/web-ui/internal/auth"
	"github.com/passari/web-ui/internal/service"
	"github.com/passari/web-ui/internal/web"
	apperrors "github.com/passari/web-ui/pkg/util/errorutil"
)

// SessionHandler serves login, logout and registration.
type SessionHandler struct {
	views        *PageRenderer
	auth         *service.AuthService
	cookieSecure bool
}

// NewSessionHandler constructs handler.
func NewSessionHandler(views *PageRenderer, authService *service.AuthService, cookieSecure bool) *SessionHandler {
	return &SessionHandler{views: views, auth: authService, cookieSecure: cookieSecure}
}

// LoginPage GET /web-ui/login.
func (h *SessionHandler) LoginPage(c *fiber.Ctx) error {
	if principal, ok := auth.PrincipalFromContext(c); ok && principal.User != nil {
		return c.Redirect(safeNext(c.Query("next")), fiber.StatusFound)
	}
	return h.views.Render(c, "login", fiber.Map{"Title": "Log in", "Next": c.Query("next")})
}

// Login POST /web-ui/login.
func (h *SessionHandler) Login(c *fiber.Ctx) error {
	var form dto.LoginForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	_, token, exp, err := h.auth.Login(c.UserContext(), form.Email, form.Password, c.IP())
	if err != nil {
		if !apperrors.IsCode(err, apperrors.CodeUnauthorized) {
			return err
		}
		return h.views.Render(c, "login", fiber.Map{
			"Title": "Log in",
			"Next":  form.Next,
			"Email": form.Email,
			"Error": apperrors.ToDomainError(err).Message,
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		Secure:   h.cookieSecure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect(safeNext(form.Next), fiber.StatusFound)
}

// Logout GET /web-ui/logout.
func (h *SessionHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     auth.SessionCookie,
		Path:     "/",
		Expires:  time.Unix(0, 0),
		Secure:   h.cookieSecure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect(auth.LoginPath, fiber.StatusFound)
}

// RegisterPage GET /web-ui/register.
func (h *SessionHandler) RegisterPage(c *fiber.Ctx) error {
	if !h.auth.Registerable() {
		return apperrors.NewNotFound("page", nil)
	}
	return h.views.Render(c, "register", fiber.Map{"Title": "Register"})
}

// Register POST /web-ui/register.
func (h *SessionHandler) Register(c *fiber.Ctx) error {
	if !h.auth.Registerable() {
		return apperrors.NewNotFound("page", nil)
	}
	var form dto.RegisterForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	data := fiber.Map{"Title": "Register", "Email": form.Email}
	if form.Password != form.PasswordConfirm {
		data["Error"] = "Passwords do not match"
		return h.views.Render(c, "register", data)
	}
	if _, err := h.auth.Register(c.UserContext(), form.Email, form.Password, c.IP()); err != nil {
		if !apperrors.IsCode(err, apperrors.CodeValidation) && !apperrors.IsCode(err, apperrors.CodeConflict) {
			return err
		}
		data["Error"] = apperrors.ToDomainError(err).Message
		return h.views.Render(c, "register", data)
	}

	web.AddFlash(c, "success", "Registration complete. You can now log in.")
	return c.Redirect(auth.LoginPath, fiber.StatusFound)
}

// safeNext only follows local redirect targets.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return OverviewPath
	}
	return next
}
