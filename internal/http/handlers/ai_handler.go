package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "kitstore/internal/log"
	"kitstore/internal/services"
)

type AIHandler struct {
	Describe *services.DescribeService
}

type describeInput struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Generate proxies to the text-generation service. Upstream failures are
// never echoed to the caller; the details go to the log only.
func (h *AIHandler) Generate(c *fiber.Ctx) error {
	var in describeInput
	if err := c.BodyParser(&in); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "malformed request body")
	}
	if in.Name == "" {
		return jsonFieldErrors(c, map[string]string{"name": "this field is required"})
	}

	description, err := h.Describe.Generate(c.UserContext(), in.Name, in.Category)
	if err != nil {
		applog.Error(c, "ai.describe.fail", err, map[string]any{"name": in.Name})
		return jsonError(c, fiber.StatusInternalServerError, "failed to generate description")
	}
	return c.JSON(fiber.Map{"description": description})
}
