package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/limbsorthopaedic/clinic-backend/internal/database"
	"github.com/limbsorthopaedic/clinic-backend/internal/docstore"
	"github.com/limbsorthopaedic/clinic-backend/internal/dto"
)

const healthProbeID = "__health__"

type HealthHandler struct {
	store   docstore.Store
	checkDB bool
}

// NewHealthHandler probes the document store, and the relational database
// when checkDB is set.
func NewHealthHandler(store docstore.Store, checkDB bool) *HealthHandler {
	return &HealthHandler{store: store, checkDB: checkDB}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()

	status := "ok"
	docStatus := "ok"
	if _, err := h.store.Get(ctx, "health", healthProbeID); err != nil && !errors.Is(err, docstore.ErrNotFound) {
		docStatus = "unhealthy: " + err.Error()
		status = "degraded"
	}

	resp := dto.HealthResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Docstore:  docStatus,
	}
	if h.checkDB {
		resp.DB = "ok"
		if err := database.Ping(); err != nil {
			resp.DB = "unhealthy: " + err.Error()
			status = "degraded"
		}
	}
	resp.Status = status

	if status != "ok" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}
