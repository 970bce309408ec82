package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/limbsorthopaedic/clinic-backend/internal/dto"
	"github.com/limbsorthopaedic/clinic-backend/internal/middleware"
	"github.com/limbsorthopaedic/clinic-backend/internal/services"
)

type AppointmentHandler struct {
	appointments *services.AppointmentService
}

func NewAppointmentHandler(appointments *services.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments}
}

// Book accepts guest bookings; a signed-in caller becomes the owner.
func (h *AppointmentHandler) Book(c *fiber.Ctx) error {
	var req dto.BookingRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	appt, err := h.appointments.Book(c.UserContext(), middleware.CurrentSession(c).UID(), &req)
	if err != nil {
		return writeError(c, err, "Failed to book appointment")
	}
	return c.Status(fiber.StatusCreated).JSON(appt)
}

func (h *AppointmentHandler) Mine(c *fiber.Ctx) error {
	appts, err := h.appointments.ListForUser(c.UserContext(), middleware.CurrentSession(c).UID())
	if err != nil {
		return writeError(c, err, "Failed to load appointments")
	}
	return c.JSON(dto.ListResponse{Data: appts, Count: len(appts)})
}

func (h *AppointmentHandler) List(c *fiber.Ctx) error {
	appts, err := h.appointments.List(c.UserContext(), c.Query("status"))
	if err != nil {
		return writeError(c, err, "Failed to load appointments")
	}
	return c.JSON(dto.ListResponse{Data: appts, Count: len(appts)})
}

func (h *AppointmentHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.StatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	appt, err := h.appointments.UpdateStatus(c.UserContext(), param(c, "id"), req.Status)
	if err != nil {
		return writeError(c, err, "Failed to update appointment")
	}
	return c.JSON(appt)
}
