package auth

import (
	"errors"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/passari/web-ui/internal/domain"
	"github.com/passari/web-ui/internal/repository"
	apperrors "github.com/passari/web-ui/pkg/util/errorutil"
)

const (
	principalKey = "auth_principal"

	// SessionCookie holds the signed session token.
	SessionCookie = "passari_session"
	// LoginPath is where unauthenticated browsers are sent.
	LoginPath = "/web-ui/login"
	apiPrefix = "/api/"
)

// Principal represents the authenticated caller.
type Principal struct {
	User    *domain.User
	Session *domain.Session
}

// AuthMiddleware validates session cookies and loads the user.
type AuthMiddleware struct {
	tokens *TokenManager
	users  repository.UserRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// Handle enforces authentication for protected routes. API callers get a
// 401 error, browsers are redirected to the login page.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	principal, err := m.authenticate(c)
	if err != nil {
		if !apperrors.IsCode(err, apperrors.CodeUnauthorized) {
			return err
		}
		c.ClearCookie(SessionCookie)
		if IsAPIRequest(c) {
			return err
		}
		return c.Redirect(LoginPath+"?next="+url.QueryEscape(c.OriginalURL()), fiber.StatusFound)
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// Optional loads the principal when a valid session exists but never rejects
// the request. Used on the login and registration pages.
func (m *AuthMiddleware) Optional(c *fiber.Ctx) error {
	if principal, err := m.authenticate(c); err == nil {
		c.Locals(principalKey, principal)
	}
	return c.Next()
}

func (m *AuthMiddleware) authenticate(c *fiber.Ctx) (*Principal, error) {
	token := c.Cookies(SessionCookie)
	if token == "" {
		return nil, apperrors.NewUnauthorized("login required")
	}

	session, err := m.tokens.ParseToken(token)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid session")
	}

	user, err := m.users.GetByID(c.UserContext(), session.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("user not found")
		}
		return nil, apperrors.MapError(err)
	}
	if !user.Active {
		return nil, apperrors.NewUnauthorized("user is inactive")
	}
	return &Principal{User: user, Session: session}, nil
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// IsAPIRequest reports whether the request targets the JSON API.
func IsAPIRequest(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), apiPrefix)
}
