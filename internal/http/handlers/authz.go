package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "kitstore/internal/log"
	"kitstore/internal/services"
)

// RequireUser resolves the Authorization bearer token to a user and stores
// it in Locals("user"). Missing, malformed, expired, or wrong-type tokens
// are all a 401.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, ok := bearerToken(c)
		if !ok {
			return jsonError(c, fiber.StatusUnauthorized, "authentication required")
		}
		u, err := auth.Authenticate(raw)
		if err != nil {
			applog.Security(c, "auth.token.reject", nil)
			return jsonError(c, fiber.StatusUnauthorized, "invalid or expired token")
		}
		c.Locals("user", u)
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	h := c.Get(fiber.HeaderAuthorization)
	tok, ok := strings.CutPrefix(h, "Bearer ")
	tok = strings.TrimSpace(tok)
	return tok, ok && tok != ""
}
