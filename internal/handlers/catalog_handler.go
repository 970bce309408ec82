package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/limbsorthopaedic/clinic-backend/internal/catalog"
	"github.com/limbsorthopaedic/clinic-backend/internal/clinic"
)

type CatalogHandler struct {
	catalog *catalog.Catalog
}

func NewCatalogHandler(cat *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: cat}
}

func (h *CatalogHandler) Get(c *fiber.Ctx) error {
	stages := make([]string, len(clinic.Stages))
	for i, s := range clinic.Stages {
		stages[i] = string(s)
	}
	return c.JSON(fiber.Map{
		"services":  h.catalog.Services(),
		"timeSlots": h.catalog.TimeSlots(),
		"stages":    stages,
	})
}
