package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/limbsorthopaedic/clinic-backend/internal/aggregate"
	"github.com/limbsorthopaedic/clinic-backend/internal/dto"
	"github.com/limbsorthopaedic/clinic-backend/internal/export"
)

type DashboardHandler struct {
	agg *aggregate.Aggregator
}

func NewDashboardHandler(agg *aggregate.Aggregator) *DashboardHandler {
	return &DashboardHandler{agg: agg}
}

func (h *DashboardHandler) Overview(c *fiber.Ctx) error {
	d, err := h.agg.Dashboard(c.UserContext())
	if err != nil {
		return writeError(c, err, "Failed to load dashboard data")
	}
	return c.JSON(d)
}

// Patients lists the roster, optionally narrowed by ?q= on name or email.
func (h *DashboardHandler) Patients(c *fiber.Ctx) error {
	rows, err := h.agg.PatientRecords(c.UserContext())
	if err != nil {
		return writeError(c, err, "Failed to load patients")
	}
	rows = aggregate.FilterPatients(rows, c.Query("q"))
	return c.JSON(dto.ListResponse{Data: rows, Count: len(rows)})
}

func (h *DashboardHandler) Patient(c *fiber.Ctx) error {
	detail, err := h.agg.Patient(c.UserContext(), param(c, "uid"))
	if err != nil {
		return writeError(c, err, "Failed to load patient")
	}
	return c.JSON(detail)
}

func (h *DashboardHandler) ExportPatients(c *fiber.Ctx) error {
	rows, err := h.agg.PatientRecords(c.UserContext())
	if err != nil {
		return writeError(c, err, "Failed to load patients")
	}
	buf, err := export.PatientRecords(aggregate.FilterPatients(rows, c.Query("q")))
	if err != nil {
		return writeError(c, err, "Failed to export patients")
	}

	name := fmt.Sprintf("patients-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Set(fiber.HeaderContentType, export.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
	return c.Send(buf.Bytes())
}
