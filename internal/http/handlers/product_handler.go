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

type ProductHandler struct {
	Catalog *services.CatalogService
}

// productInput uses pointers so PATCH can tell "absent" from "zero".
type productInput struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	ImageURL    *string          `json:"image_url"`
	Category    *string          `json:"category"`
}

// apply copies the provided fields onto p, collecting field-level errors.
// When required is set, name and price must be present (create / full PUT).
func (in productInput) apply(p *domain.Product, required bool) map[string]string {
	errs := map[string]string{}

	if in.Name != nil {
		if v, ok := validate.ProductName(*in.Name); ok {
			p.Name = v
		} else {
			errs["name"] = "must be 1-100 characters"
		}
	} else if required {
		errs["name"] = "this field is required"
	}

	if in.Price != nil {
		if in.Price.IsNegative() {
			errs["price"] = "must not be negative"
		} else {
			p.Price = *in.Price
		}
	} else if required {
		errs["price"] = "this field is required"
	}

	if in.Description != nil {
		if v, ok := validate.Description(*in.Description); ok {
			p.Description = v
		} else {
			errs["description"] = "too long"
		}
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			errs["stock"] = "must not be negative"
		} else {
			p.Stock = *in.Stock
		}
	}
	if in.ImageURL != nil {
		if v, ok := validate.ImageURL(*in.ImageURL); ok {
			p.ImageURL = v
		} else {
			errs["image_url"] = "must be an http(s) URL"
		}
	}
	if in.Category != nil {
		if v, ok := validate.Category(*in.Category); ok {
			p.Category = v
		} else {
			errs["category"] = "must be at most 40 characters"
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// List is public: anyone may browse the catalog.
func (h *ProductHandler) List(c *fiber.Ctx) error {
	products, err := h.Catalog.ListProducts()
	if err != nil {
		applog.Error(c, "product.list.fail", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "could not list products")
	}
	return c.JSON(products)
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "product not found")
	}
	p, err := h.Catalog.GetProduct(id)
	if errors.Is(err, services.ErrNotFound) {
		return jsonError(c, fiber.StatusNotFound, "product not found")
	}
	if err != nil {
		applog.Error(c, "product.get.fail", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "could not load product")
	}
	return c.JSON(p)
}

func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in productInput
	if err := c.BodyParser(&in); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "malformed request body")
	}

	var p domain.Product
	if errs := in.apply(&p, true); errs != nil {
		applog.Security(c, "validation.fail", map[string]any{"resource": "product"})
		return jsonFieldErrors(c, errs)
	}

	created, err := h.Catalog.CreateProduct(p)
	if err != nil {
		applog.Error(c, "product.create.fail", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "could not create product")
	}
	applog.Audit(c, "product.create", map[string]any{"product_id": created.ID})
	return c.Status(fiber.StatusCreated).JSON(created)
}

// Update handles PUT (full replace) and PATCH (merge onto the stored row).
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "product not found")
	}

	var in productInput
	if err := c.BodyParser(&in); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "malformed request body")
	}

	var p domain.Product
	required := c.Method() != fiber.MethodPatch
	if !required {
		existing, err := h.Catalog.GetProduct(id)
		if errors.Is(err, services.ErrNotFound) {
			return jsonError(c, fiber.StatusNotFound, "product not found")
		}
		if err != nil {
			applog.Error(c, "product.update.fail", err, nil)
			return jsonError(c, fiber.StatusInternalServerError, "could not update product")
		}
		p = existing
	}
	p.ID = id

	if errs := in.apply(&p, required); errs != nil {
		applog.Security(c, "validation.fail", map[string]any{"resource": "product"})
		return jsonFieldErrors(c, errs)
	}

	updated, err := h.Catalog.UpdateProduct(p)
	if errors.Is(err, services.ErrNotFound) {
		return jsonError(c, fiber.StatusNotFound, "product not found")
	}
	if err != nil {
		applog.Error(c, "product.update.fail", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "could not update product")
	}
	applog.Audit(c, "product.update", map[string]any{"product_id": id})
	return c.JSON(updated)
}

func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "product not found")
	}
	err := h.Catalog.DeleteProduct(id)
	if errors.Is(err, services.ErrNotFound) {
		return jsonError(c, fiber.StatusNotFound, "product not found")
	}
	if err != nil {
		applog.Error(c, "product.delete.fail", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "could not delete product")
	}
	applog.Audit(c, "product.delete", map[string]any{"product_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}
