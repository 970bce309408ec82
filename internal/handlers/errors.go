package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/limbsorthopaedic/clinic-backend/internal/aggregate"
	"github.com/limbsorthopaedic/clinic-backend/internal/dto"
	"github.com/limbsorthopaedic/clinic-backend/internal/identity"
	"github.com/limbsorthopaedic/clinic-backend/internal/middleware"
	"github.com/limbsorthopaedic/clinic-backend/internal/services"
)

// writeError maps domain errors to status codes. Anything unrecognised is
// logged and reported with the generic fallback notice.
func writeError(c *fiber.Ctx, err error, fallback string) error {
	status := fiber.StatusInternalServerError
	message := fallback

	switch {
	case errors.Is(err, services.ErrInvalidInput):
		status = fiber.StatusBadRequest
		message = strings.TrimPrefix(err.Error(), services.ErrInvalidInput.Error()+": ")
	case errors.Is(err, identity.ErrWeakPassword), errors.Is(err, identity.ErrEmailRequired):
		status = fiber.StatusBadRequest
		message = err.Error()
	case errors.Is(err, identity.ErrEmailTaken):
		status = fiber.StatusConflict
		message = err.Error()
	case errors.Is(err, identity.ErrInvalidCredentials), errors.Is(err, identity.ErrInvalidToken):
		status = fiber.StatusUnauthorized
		message = err.Error()
	case errors.Is(err, services.ErrInvalidTransition):
		status = fiber.StatusConflict
		message = err.Error()
	case errors.Is(err, services.ErrAppointmentNotFound),
		errors.Is(err, services.ErrStageNotFound),
		errors.Is(err, services.ErrPatientNotFound),
		errors.Is(err, services.ErrProfileNotFound),
		errors.Is(err, services.ErrDoctorNotFound),
		errors.Is(err, aggregate.ErrNotAPatient):
		status = fiber.StatusNotFound
		message = err.Error()
	default:
		slog.Error(fallback,
			"path", c.Path(),
			"request_id", requestID(c),
			"user_id", middleware.CurrentSession(c).UID(),
			"error", err,
		)
	}

	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: "Invalid request body",
	})
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}

// param copies a route parameter out of the request buffer, which fasthttp
// reuses once the handler returns. Ids are stored, so they must own their bytes.
func param(c *fiber.Ctx, name string) string {
	return utils.CopyString(c.Params(name))
}
