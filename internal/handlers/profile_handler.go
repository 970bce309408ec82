package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/limbsorthopaedic/clinic-backend/internal/dto"
	"github.com/limbsorthopaedic/clinic-backend/internal/middleware"
	"github.com/limbsorthopaedic/clinic-backend/internal/services"
)

type ProfileHandler struct {
	profiles *services.ProfileService
}

func NewProfileHandler(profiles *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Get returns null data, not 404, when the caller has no profile yet.
func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	p, err := h.profiles.Get(c.UserContext(), middleware.CurrentSession(c).UID())
	if errors.Is(err, services.ErrProfileNotFound) {
		return c.JSON(fiber.Map{"data": nil})
	}
	if err != nil {
		return writeError(c, err, "Failed to load profile")
	}
	return c.JSON(fiber.Map{"data": p})
}

func (h *ProfileHandler) Save(c *fiber.Ctx) error {
	var req dto.ProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	p, err := h.profiles.Save(c.UserContext(), middleware.CurrentSession(c).UID(), &req)
	if err != nil {
		return writeError(c, err, "Failed to save profile")
	}
	return c.JSON(fiber.Map{"data": p})
}
