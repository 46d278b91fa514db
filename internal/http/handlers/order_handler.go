package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"kitstore/internal/domain"
	applog "kitstore/internal/log"
	"kitstore/internal/services"
	"kitstore/internal/validate"
)

type OrderHandler struct {
	Orders *services.OrderService
}

type orderInput struct {
	Items      []services.OrderLine `json:"items"`
	TotalPrice *decimal.Decimal     `json:"total_price"`
	Status     string               `json:"status"`
}

// Create places an order for the authenticated caller. The order's user is
// never taken from the request body.
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	u := c.Locals("user").(*domain.User)

	var in orderInput
	if err := c.BodyParser(&in); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "malformed request body")
	}
	for _, l := range in.Items {
		if _, ok := validate.ID(l.ProductID); !ok {
			return jsonFieldErrors(c, map[string]string{"items": "invalid product_id"})
		}
	}

	order, serverTotal, err := h.Orders.Place(u.ID, in.Items, in.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoItems):
			return jsonFieldErrors(c, map[string]string{"items": "at least one item is required"})
		case errors.Is(err, services.ErrBadQuantity):
			return jsonFieldErrors(c, map[string]string{"items": "quantity must be at least 1"})
		case errors.Is(err, services.ErrNegativePrice):
			return jsonFieldErrors(c, map[string]string{"items": "price must not be negative"})
		case errors.Is(err, services.ErrUnknownProduct):
			return jsonFieldErrors(c, map[string]string{"items": "unknown product"})
		case errors.Is(err, services.ErrBadStatus):
			return jsonFieldErrors(c, map[string]string{"status": "must be one of pending, paid, shipped, cancelled"})
		}
		applog.Error(c, "order.place.fail", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "could not place order")
	}

	fields := map[string]any{
		"order_id":     order.ID,
		"server_total": serverTotal.String(),
	}
	if in.TotalPrice != nil {
		fields["client_total"] = in.TotalPrice.String()
		fields["mismatch"] = !in.TotalPrice.Equal(serverTotal)
	}
	applog.Audit(c, "order.place", fields)

	return c.Status(fiber.StatusCreated).JSON(order)
}

// Detail returns the order only to its owner; anyone else sees a 404.
func (h *OrderHandler) Detail(c *fiber.Ctx) error {
	u := c.Locals("user").(*domain.User)

	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "order not found")
	}
	o, err := h.Orders.Get(id, u.ID)
	if errors.Is(err, services.ErrNotFound) {
		applog.Security(c, "access.denied.order", map[string]any{"order_id": id})
		return jsonError(c, fiber.StatusNotFound, "order not found")
	}
	if err != nil {
		applog.Error(c, "order.get.fail", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "could not load order")
	}
	return c.JSON(o)
}

// History lists the caller's own orders.
func (h *OrderHandler) History(c *fiber.Ctx) error {
	u := c.Locals("user").(*domain.User)

	orders, err := h.Orders.History(u.ID)
	if err != nil {
		applog.Error(c, "order.history.fail", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "could not load orders")
	}
	return c.JSON(orders)
}
