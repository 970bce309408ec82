package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/limbsorthopaedic/clinic-backend/internal/clinic"
	"github.com/limbsorthopaedic/clinic-backend/internal/dto"
	"github.com/limbsorthopaedic/clinic-backend/internal/middleware"
	"github.com/limbsorthopaedic/clinic-backend/internal/services"
)

type StageHandler struct {
	stages *services.StageService
}

func NewStageHandler(stages *services.StageService) *StageHandler {
	return &StageHandler{stages: stages}
}

type timelineResponse struct {
	Data     []clinic.TreatmentStage `json:"data"`
	Count    int                     `json:"count"`
	Progress *dto.StageProgress      `json:"progress"`
}

// Mine serves the signed-in patient's own timeline.
func (h *StageHandler) Mine(c *fiber.Ctx) error {
	return h.timeline(c, middleware.CurrentSession(c).UID())
}

func (h *StageHandler) ForPatient(c *fiber.Ctx) error {
	return h.timeline(c, param(c, "uid"))
}

func (h *StageHandler) timeline(c *fiber.Ctx, uid string) error {
	stages, err := h.stages.Timeline(c.UserContext(), uid)
	if err != nil {
		return writeError(c, err, "Failed to load treatment stages")
	}
	progress, err := h.stages.Progress(c.UserContext(), uid)
	if err != nil {
		return writeError(c, err, "Failed to load treatment stages")
	}
	return c.JSON(timelineResponse{Data: stages, Count: len(stages), Progress: progress})
}

func (h *StageHandler) Create(c *fiber.Ctx) error {
	var req dto.StageRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	stage, err := h.stages.Add(c.UserContext(), param(c, "uid"), middleware.CurrentSession(c).User, &req)
	if err != nil {
		return writeError(c, err, "Failed to add treatment stage")
	}
	return c.Status(fiber.StatusCreated).JSON(stage)
}

func (h *StageHandler) Update(c *fiber.Ctx) error {
	var req dto.StageUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	stage, err := h.stages.Update(c.UserContext(), param(c, "id"), &req)
	if err != nil {
		return writeError(c, err, "Failed to update treatment stage")
	}
	return c.JSON(stage)
}

func (h *StageHandler) Delete(c *fiber.Ctx) error {
	if err := h.stages.Delete(c.UserContext(), param(c, "id")); err != nil {
		return writeError(c, err, "Failed to delete treatment stage")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
