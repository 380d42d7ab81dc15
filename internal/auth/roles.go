package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/passari/web-ui/pkg/util/errorutil"
)

// RequireRole ensures the authenticated user holds the role. An empty role
// only requires authentication.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthorized("login required")
		}
		if role != "" && !principal.User.HasRole(role) {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
