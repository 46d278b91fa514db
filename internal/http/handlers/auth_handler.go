package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "kitstore/internal/log"
	"kitstore/internal/services"
	"kitstore/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type credentialsInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshInput struct {
	Refresh string `json:"refresh"`
}

// TokenPair issues an access/refresh pair from credentials.
func (h *AuthHandler) TokenPair(c *fiber.Ctx) error {
	var in credentialsInput
	if err := c.BodyParser(&in); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "malformed request body")
	}
	username, ok := validate.Username(in.Username)
	if !ok || !validate.Password(in.Password) {
		applog.Security(c, "auth.login.fail", map[string]any{"username": in.Username, "reason": "bad_format"})
		return jsonError(c, fiber.StatusUnauthorized, "invalid username or password")
	}

	pair, err := h.Auth.Login(username, in.Password)
	if err != nil {
		applog.Security(c, "auth.login.fail", map[string]any{"username": username})
		return jsonError(c, fiber.StatusUnauthorized, "invalid username or password")
	}

	applog.Audit(c, "auth.login.success", map[string]any{"username": username})
	return c.JSON(pair)
}

// Refresh exchanges a refresh token for a new access token.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var in refreshInput
	if err := c.BodyParser(&in); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "malformed request body")
	}
	if in.Refresh == "" {
		return jsonFieldErrors(c, map[string]string{"refresh": "this field is required"})
	}

	access, err := h.Auth.Refresh(in.Refresh)
	if err != nil {
		applog.Security(c, "auth.refresh.fail", nil)
		return jsonError(c, fiber.StatusUnauthorized, "invalid or expired token")
	}
	return c.JSON(fiber.Map{"access": access})
}
