package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	applog "kitstore/internal/log"
)

// NewApp assembles the fiber app: hardening middleware, the API route table
// with its per-endpoint auth policy, and the JSON error surface.
func NewApp(deps *Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			// Never leak internals to the caller.
			return jsonError(c, fiber.StatusInternalServerError, "something went wrong")
		},
	})
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/healthz"
		},
	}))

	requireUser := RequireUser(deps.Auth)
	api := app.Group("/api")

	// Catalog: reads are public, writes need a user.
	api.Get("/products", deps.ProductHandler.List)
	api.Post("/products/create", requireUser, deps.ProductHandler.Create)
	api.Get("/products/:id", deps.ProductHandler.Detail)
	api.Put("/products/:id", requireUser, deps.ProductHandler.Update)
	api.Patch("/products/:id", requireUser, deps.ProductHandler.Update)
	api.Delete("/products/:id", requireUser, deps.ProductHandler.Delete)

	// Orders: owner-only, always authenticated.
	api.Post("/orders", requireUser, deps.OrderHandler.Create)
	api.Get("/orders", requireUser, deps.OrderHandler.History)
	api.Get("/orders/:id", requireUser, deps.OrderHandler.Detail)

	api.Post("/ai/describe", requireUser, deps.AIHandler.Generate)

	// Token issuance is throttled per IP.
	api.Post("/token", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return jsonError(c, fiber.StatusTooManyRequests, "too many attempts, please try again later")
		},
	}), deps.AuthHandler.TokenPair)
	api.Post("/token/refresh", deps.AuthHandler.Refresh)

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return jsonError(c, fiber.StatusNotFound, "not found")
	})

	return app
}
