package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/seo-hub/backend/internal/schema"
)

type SchemaHandler struct {
	catalog *schema.Catalog
}

func NewSchemaHandler(catalog *schema.Catalog) *SchemaHandler {
	return &SchemaHandler{
		catalog: catalog,
	}
}

// HandleSchema returns the rendered multi-store schema description, the
// same text the planner sees.
func (h *SchemaHandler) HandleSchema(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"schema":     h.catalog.Describe(c.Context()),
		"guidelines": schema.Guidelines(),
	})
}
