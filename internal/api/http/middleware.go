package http

import (
	"context"
	"errors"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/passari/web-ui/internal/api/http/handlers"
	"github.com/passari/web-ui/internal/auth"
	"github.com/passari/web-ui/internal/observability"
	"github.com/passari/web-ui/internal/web"
	apperrors "github.com/passari/web-ui/pkg/util/errorutil"
)

const (
	contentSecurityPolicy = "default-src 'self'; script-src 'self' 'unsafe-eval'; " +
		"style-src 'self' 'unsafe-inline'; frame-src 'self' blob:"

	csrfCookie = "passari_csrf"
	csrfHeader = "X-CSRFToken"
	csrfField  = "csrf_token"

	loginAttemptsPerMinute = 10
)

var errCSRFTokenMissing = errors.New("csrf token not found")

// MiddlewareConfig configures the global middlewares.
type MiddlewareConfig struct {
	Logger       *zap.Logger
	Metrics      *observability.Metrics
	Timeout      time.Duration
	CSRFEnabled  bool
	CookieSecure bool
	// CookieKey is the base64 AES key for the flash cookie. Flashes are
	// sent in clear when it is empty.
	CookieKey string
}

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, cfg MiddlewareConfig) {
	app.Use(requestid.New(requestid.Config{
		Generator:  uuid.NewString,
		ContextKey: observability.RequestIDKey,
	}))
	app.Use(helmet.New(helmet.Config{ContentSecurityPolicy: contentSecurityPolicy}))
	if cfg.CookieKey != "" {
		app.Use(flashCookieEncryption(cfg.CookieKey))
	}
	if cfg.Timeout > 0 {
		app.Use(requestTimeoutMiddleware(cfg.Timeout))
	}
	app.Use(observability.RequestLogger(cfg.Logger, cfg.Metrics))
	app.Use(errorHandlingMiddleware(cfg.Logger, cfg.Metrics))
	if cfg.CSRFEnabled {
		app.Use(csrfMiddleware(cfg.CookieSecure))
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// csrfMiddleware uses double submit cookies. The token is accepted from the
// X-CSRFToken header or the csrf_token form field.
func csrfMiddleware(secure bool) fiber.Handler {
	return csrf.New(csrf.Config{
		CookieName:     csrfCookie,
		CookieSecure:   secure,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		Expiration:     12 * time.Hour,
		ContextKey:     handlers.CSRFContextKey,
		Extractor: func(c *fiber.Ctx) (string, error) {
			if token := c.Get(csrfHeader); token != "" {
				return token, nil
			}
			if token := c.FormValue(csrfField); token != "" {
				return token, nil
			}
			return "", errCSRFTokenMissing
		},
		ErrorHandler: func(_ *fiber.Ctx, _ error) error {
			return apperrors.NewForbidden("CSRF token missing or invalid")
		},
	})
}

// flashCookieEncryption encrypts the flash cookie so clients can't write
// their own messages. A cookie that fails to decrypt is dropped. The session
// token is signed already and the CSRF cookie must stay readable for the
// double submit check.
func flashCookieEncryption(key string) fiber.Handler {
	return encryptcookie.New(encryptcookie.Config{
		Key:    key,
		Except: []string{auth.SessionCookie, csrfCookie},
	})
}

// loginLimiter throttles login and registration attempts per client IP.
func loginLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        loginAttemptsPerMinute,
		Expiration: time.Minute,
		LimitReached: func(_ *fiber.Ctx) error {
			return apperrors.NewDomainError("RATE_LIMITED", "too many attempts, try again later",
				fiber.StatusTooManyRequests, nil)
		},
	})
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := toDomainError(err)
				if metrics != nil {
					metrics.RecordError(routeTemplate(c), c.Method(), domainErr.Code)
				}
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed", zap.Error(domainErr))
				}
				c.Status(domainErr.HTTPStatus)
				if wantsJSON(c) {
					_ = c.JSON(errorResponse(domainErr))
				} else {
					_ = renderErrorPage(c, domainErr)
				}
				err = nil
			}
		}()
		return c.Next()
	}
}

// toDomainError also covers the errors fiber itself returns, such as
// unmatched routes.
func toDomainError(err error) *apperrors.DomainError {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code := "HTTP_ERROR"
		switch fiberErr.Code {
		case fiber.StatusNotFound:
			code = apperrors.CodeNotFound
		case fiber.StatusMethodNotAllowed:
			code = "METHOD_NOT_ALLOWED"
		case fiber.StatusBadRequest:
			code = apperrors.CodeValidation
		}
		return apperrors.NewDomainError(code, fiberErr.Message, fiberErr.Code, nil)
	}
	return apperrors.ToDomainError(err)
}

func errorResponse(domainErr *apperrors.DomainError) fiber.Map {
	body := fiber.Map{
		"code":    domainErr.Code,
		"message": domainErr.Message,
	}
	if len(domainErr.Details) > 0 {
		body["details"] = domainErr.Details
	}
	return fiber.Map{"error": body}
}

func renderErrorPage(c *fiber.Ctx, domainErr *apperrors.DomainError) error {
	err := c.Render("error", fiber.Map{
		"Title":   "Error",
		"Status":  domainErr.HTTPStatus,
		"Message": domainErr.Message,
		"Errors":  map[string][]string{},
	}, web.LayoutMain)
	if err != nil {
		return c.SendString(domainErr.Message)
	}
	return nil
}

func wantsJSON(c *fiber.Ctx) bool {
	return auth.IsAPIRequest(c) || strings.HasPrefix(c.Path(), "/health/")
}

func routeTemplate(c *fiber.Ctx) string {
	if route := c.Route().Path; route != "" {
		return route
	}
	return c.Path()
}
