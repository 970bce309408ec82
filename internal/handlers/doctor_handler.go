package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/limbsorthopaedic/clinic-backend/internal/aggregate"
	"github.com/limbsorthopaedic/clinic-backend/internal/dto"
	"github.com/limbsorthopaedic/clinic-backend/internal/services"
)

type DoctorHandler struct {
	doctors *services.DoctorService
	agg     *aggregate.Aggregator
}

func NewDoctorHandler(doctors *services.DoctorService, agg *aggregate.Aggregator) *DoctorHandler {
	return &DoctorHandler{doctors: doctors, agg: agg}
}

func (h *DoctorHandler) List(c *fiber.Ctx) error {
	docs, err := h.agg.Doctors(c.UserContext())
	if err != nil {
		return writeError(c, err, "Failed to load doctors")
	}
	return c.JSON(dto.ListResponse{Data: docs, Count: len(docs)})
}

func (h *DoctorHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateDoctorRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	user, err := h.doctors.Create(c.UserContext(), &req)
	if err != nil {
		return writeError(c, err, "Failed to create doctor")
	}
	return c.Status(fiber.StatusCreated).JSON(userResponse(user.UID, user.Email, user.DisplayName, user.Role))
}

func (h *DoctorHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateDoctorRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	if err := h.doctors.Update(c.UserContext(), param(c, "uid"), &req); err != nil {
		return writeError(c, err, "Failed to update doctor")
	}
	return c.JSON(fiber.Map{"message": "Doctor updated"})
}

// Deactivate is the DELETE verb; doctor records are kept.
func (h *DoctorHandler) Deactivate(c *fiber.Ctx) error {
	if err := h.doctors.Deactivate(c.UserContext(), param(c, "uid")); err != nil {
		return writeError(c, err, "Failed to deactivate doctor")
	}
	return c.JSON(fiber.Map{"message": "Doctor deactivated"})
}
