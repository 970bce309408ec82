package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/limbsorthopaedic/clinic-backend/internal/clinic"
	"github.com/limbsorthopaedic/clinic-backend/internal/dto"
	"github.com/limbsorthopaedic/clinic-backend/internal/models"
	"github.com/limbsorthopaedic/clinic-backend/internal/storage"
)

// LegacyHandler serves the integer-keyed /api surface over storage.Storage.
// Responses are bare JSON values, as older clients expect.
type LegacyHandler struct {
	store storage.Storage
}

func NewLegacyHandler(store storage.Storage) *LegacyHandler {
	return &LegacyHandler{store: store}
}

func (h *LegacyHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.store.ListUsers(c.UserContext())
	if err != nil {
		return h.fail(c, err, "Failed to get users")
	}
	return c.JSON(users)
}

func (h *LegacyHandler) GetUser(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return invalidLegacy(c, "Invalid user id")
	}
	u, err := h.store.GetUser(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err, "Failed to get user")
	}
	return c.JSON(u)
}

func (h *LegacyHandler) CreateUser(c *fiber.Ctx) error {
	var req dto.LegacyUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if msg := validateLegacyUser(&req); msg != "" {
		return invalidLegacy(c, msg)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return h.fail(c, fmt.Errorf("failed to hash password: %w", err), "Failed to create user")
	}
	u := &models.User{
		Username:    strings.TrimSpace(req.Username),
		Password:    string(hash),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		DisplayName: strings.TrimSpace(req.DisplayName),
		Role:        req.Role,
		PhotoURL:    req.PhotoURL,
	}
	if err := h.store.CreateUser(c.UserContext(), u); err != nil {
		return h.fail(c, err, "Failed to create user")
	}
	return c.Status(fiber.StatusCreated).JSON(u)
}

func validateLegacyUser(req *dto.LegacyUserRequest) string {
	if strings.TrimSpace(req.Username) == "" {
		return "Invalid user data: username is required"
	}
	if len(req.Password) < 8 {
		return "Invalid user data: password must be at least 8 characters"
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(req.Email)); err != nil {
		return "Invalid user data: email is invalid"
	}
	if req.Role == "" {
		req.Role = string(clinic.RolePatient)
	}
	if !clinic.Role(req.Role).Valid() {
		return "Invalid user data: role must be patient, doctor or owner"
	}
	return ""
}

func (h *LegacyHandler) GetProfile(c *fiber.Ctx) error {
	id, err := idParam(c, "userId")
	if err != nil {
		return invalidLegacy(c, "Invalid user id")
	}
	p, err := h.store.GetProfile(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err, "Failed to get profile")
	}
	return c.JSON(p)
}

// SaveProfile creates or replaces the user's single profile.
func (h *LegacyHandler) SaveProfile(c *fiber.Ctx) error {
	id, err := idParam(c, "userId")
	if err != nil {
		return invalidLegacy(c, "Invalid user id")
	}
	var req dto.LegacyProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if !clinic.Gender(req.Gender).Valid() {
		return invalidLegacy(c, "Invalid profile data: gender must be male, female or other")
	}
	if _, err := h.store.GetUser(c.UserContext(), id); err != nil {
		return h.fail(c, err, "Failed to save profile")
	}

	p := &models.Profile{
		UserID:           id,
		Phone:            req.Phone,
		Address:          req.Address,
		EmergencyContact: req.EmergencyContact,
		MedicalHistory:   req.MedicalHistory,
		Gender:           req.Gender,
		DateOfBirth:      req.DateOfBirth,
		Bio:              req.Bio,
		Specialization:   req.Specialization,
		Availability:     req.Availability,
	}
	if err := h.store.SaveProfile(c.UserContext(), p); err != nil {
		return h.fail(c, err, "Failed to save profile")
	}
	return c.JSON(p)
}

func (h *LegacyHandler) ListAppointments(c *fiber.Ctx) error {
	appts, err := h.store.ListAppointments(c.UserContext())
	if err != nil {
		return h.fail(c, err, "Failed to get appointments")
	}
	return c.JSON(appts)
}

func (h *LegacyHandler) GetAppointment(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return invalidLegacy(c, "Invalid appointment id")
	}
	a, err := h.store.GetAppointment(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err, "Failed to get appointment")
	}
	return c.JSON(a)
}

func (h *LegacyHandler) UserAppointments(c *fiber.Ctx) error {
	id, err := idParam(c, "userId")
	if err != nil {
		return invalidLegacy(c, "Invalid user id")
	}
	appts, err := h.store.ListUserAppointments(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err, "Failed to get user appointments")
	}
	return c.JSON(appts)
}

func (h *LegacyHandler) CreateAppointment(c *fiber.Ctx) error {
	var req dto.LegacyAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if msg := validateLegacyAppointment(&req); msg != "" {
		return invalidLegacy(c, msg)
	}

	a := &models.Appointment{
		UserID:   req.UserID,
		FullName: strings.TrimSpace(req.FullName),
		Email:    strings.TrimSpace(req.Email),
		Phone:    strings.TrimSpace(req.Phone),
		Service:  req.Service,
		Date:     req.Date,
		Time:     req.Time,
		Message:  req.Message,
		Status:   req.Status,
	}
	if err := h.store.CreateAppointment(c.UserContext(), a); err != nil {
		return h.fail(c, err, "Failed to create appointment")
	}
	return c.Status(fiber.StatusCreated).JSON(a)
}

func validateLegacyAppointment(req *dto.LegacyAppointmentRequest) string {
	switch {
	case req.UserID == 0:
		return "Invalid appointment data: userId is required"
	case strings.TrimSpace(req.FullName) == "",
		strings.TrimSpace(req.Email) == "",
		strings.TrimSpace(req.Phone) == "",
		req.Service == "",
		req.Time == "":
		return "Invalid appointment data: fullName, email, phone, service and time are required"
	}
	if _, err := time.Parse(clinic.DateLayout, req.Date); err != nil {
		return "Invalid appointment data: date must be YYYY-MM-DD"
	}
	if req.Status != "" && !clinic.AppointmentStatus(req.Status).Valid() {
		return "Invalid appointment data: unknown status"
	}
	return ""
}

// UpdateAppointmentStatus follows the same forward-only rules as the
// primary API.
func (h *LegacyHandler) UpdateAppointmentStatus(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return invalidLegacy(c, "Invalid appointment id")
	}
	var req dto.StatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	next := clinic.AppointmentStatus(req.Status)
	if !next.Valid() {
		return invalidLegacy(c, "Invalid status")
	}

	current, err := h.store.GetAppointment(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err, "Failed to update appointment status")
	}
	if !clinic.CanTransition(clinic.AppointmentStatus(current.Status), next) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Error:   true,
			Message: fmt.Sprintf("Cannot change status from %s to %s", current.Status, next),
		})
	}

	a, err := h.store.UpdateAppointmentStatus(c.UserContext(), id, string(next))
	if err != nil {
		return h.fail(c, err, "Failed to update appointment status")
	}
	return c.JSON(a)
}

func (h *LegacyHandler) ListStages(c *fiber.Ctx) error {
	stages, err := h.store.ListStages(c.UserContext())
	if err != nil {
		return h.fail(c, err, "Failed to get treatment stages")
	}
	return c.JSON(stages)
}

func (h *LegacyHandler) UserStages(c *fiber.Ctx) error {
	id, err := idParam(c, "userId")
	if err != nil {
		return invalidLegacy(c, "Invalid user id")
	}
	stages, err := h.store.ListUserStages(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err, "Failed to get user treatment stages")
	}
	return c.JSON(stages)
}

func (h *LegacyHandler) CreateStage(c *fiber.Ctx) error {
	var req dto.LegacyStageRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if req.PatientID == 0 || req.DoctorID == 0 {
		return invalidLegacy(c, "Invalid treatment stage data: patientId and doctorId are required")
	}
	if !clinic.Stage(req.Stage).Valid() {
		return invalidLegacy(c, "Invalid treatment stage data: unknown stage")
	}
	if strings.TrimSpace(req.Notes) == "" {
		return invalidLegacy(c, "Invalid treatment stage data: notes are required")
	}

	st := &models.TreatmentStage{
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		Stage:     req.Stage,
		Notes:     strings.TrimSpace(req.Notes),
	}
	if req.Date != "" {
		d, err := time.Parse(time.RFC3339, req.Date)
		if err != nil {
			return invalidLegacy(c, "Invalid treatment stage data: date must be RFC 3339")
		}
		st.Date = d.UTC()
	}
	if err := h.store.CreateStage(c.UserContext(), st); err != nil {
		return h.fail(c, err, "Failed to create treatment stage")
	}
	return c.Status(fiber.StatusCreated).JSON(st)
}

func (h *LegacyHandler) UpdateStage(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return invalidLegacy(c, "Invalid treatment stage id")
	}
	var req dto.LegacyStageUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if req.Stage != nil && !clinic.Stage(*req.Stage).Valid() {
		return invalidLegacy(c, "Invalid update data: unknown stage")
	}

	st, err := h.store.UpdateStage(c.UserContext(), id, storage.StageUpdate{Stage: req.Stage, Notes: req.Notes})
	if err != nil {
		return h.fail(c, err, "Failed to update treatment stage")
	}
	return c.JSON(st)
}

func (h *LegacyHandler) fail(c *fiber.Ctx, err error, message string) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "Not found"})
	case errors.Is(err, storage.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: true, Message: "Username or email already in use"})
	}
	slog.Error(message, "path", c.Path(), "request_id", requestID(c), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func invalidLegacy(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func idParam(c *fiber.Ctx, name string) (uint, error) {
	n, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return uint(n), nil
}
