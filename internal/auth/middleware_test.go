package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passari/web-ui/internal/domain"
	"github.com/passari/web-ui/internal/repository"
	apperrors "github.com/passari/web-ui/pkg/util/errorutil"
)

type fakeUsers struct {
	repository.UserRepository
	users map[int64]*domain.User
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func newTestApp(tokens *TokenManager, users repository.UserRepository, role string) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
		},
	})
	mw := NewAuthMiddleware(tokens, users)
	protected := app.Group("", mw.Handle, RequireRole(role))
	protected.Get("/api/navbar-stats", func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		return c.SendString(principal.User.Email)
	})
	protected.Get("/web-ui/overview/", func(c *fiber.Ctx) error {
		return c.SendString("overview")
	})
	return app
}

func sessionCookie(t *testing.T, tokens *TokenManager, user *domain.User) *http.Cookie {
	t.Helper()
	token, _, err := tokens.GenerateToken(user)
	require.NoError(t, err)
	return &http.Cookie{Name: SessionCookie, Value: token}
}

func TestAuthMiddlewareRejectsAnonymousCallers(t *testing.T) {
	tokens := NewTokenManager("secret", time.Hour)
	app := newTestApp(tokens, &fakeUsers{users: map[int64]*domain.User{}}, "")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/navbar-stats", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/web-ui/overview/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/web-ui/login?next=%2Fweb-ui%2Foverview%2F", resp.Header.Get("Location"))
}

func TestAuthMiddlewareAcceptsValidSession(t *testing.T) {
	tokens := NewTokenManager("secret", time.Hour)
	user := &domain.User{ID: 1, Email: "admin@example.com", Active: true}
	app := newTestApp(tokens, &fakeUsers{users: map[int64]*domain.User{1: user}}, "")

	req := httptest.NewRequest(http.MethodGet, "/api/navbar-stats", nil)
	req.AddCookie(sessionCookie(t, tokens, user))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthMiddlewareRejectsInactiveAndUnknownUsers(t *testing.T) {
	tokens := NewTokenManager("secret", time.Hour)
	inactive := &domain.User{ID: 2, Email: "gone@example.com"}
	app := newTestApp(tokens, &fakeUsers{users: map[int64]*domain.User{2: inactive}}, "")

	for _, user := range []*domain.User{inactive, {ID: 3, Active: true}} {
		req := httptest.NewRequest(http.MethodGet, "/api/navbar-stats", nil)
		req.AddCookie(sessionCookie(t, tokens, user))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestRequireRole(t *testing.T) {
	tokens := NewTokenManager("secret", time.Hour)
	plain := &domain.User{ID: 1, Active: true}
	admin := &domain.User{ID: 2, Active: true, Roles: []domain.Role{{Name: "admin"}}}
	app := newTestApp(tokens, &fakeUsers{users: map[int64]*domain.User{1: plain, 2: admin}}, "admin")

	req := httptest.NewRequest(http.MethodGet, "/api/navbar-stats", nil)
	req.AddCookie(sessionCookie(t, tokens, plain))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/navbar-stats", nil)
	req.AddCookie(sessionCookie(t, tokens, admin))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
