// Package export renders staff reports as spreadsheets.
package export

import (
	"bytes"
	"fmt"

	"github.com/360EntSecGroup-Skylar/excelize"

	"github.com/limbsorthopaedic/clinic-backend/internal/aggregate"
)

const (
	PatientsSheet = "Patients"
	ContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var patientHeaders = []string{"Name", "Email", "Registered", "Appointments", "Last Appointment", "Current Stage"}

// PatientRecords writes the roster to a single-sheet workbook, one row per
// record after the header row.
func PatientRecords(records []aggregate.PatientRecord) (*bytes.Buffer, error) {
	file := excelize.NewFile()
	file.NewSheet(PatientsSheet)
	file.DeleteSheet("Sheet1")

	for i, h := range patientHeaders {
		file.SetCellValue(PatientsSheet, cell(i, 1), h)
	}
	for i, rec := range records {
		row := i + 2
		registered := ""
		if !rec.CreatedAt.IsZero() {
			registered = rec.CreatedAt.Format("2006-01-02")
		}
		file.SetCellValue(PatientsSheet, cell(0, row), rec.Name)
		file.SetCellValue(PatientsSheet, cell(1, row), rec.Email)
		file.SetCellValue(PatientsSheet, cell(2, row), registered)
		file.SetCellValue(PatientsSheet, cell(3, row), rec.AppointmentsCount)
		file.SetCellValue(PatientsSheet, cell(4, row), rec.LastAppointment)
		file.SetCellValue(PatientsSheet, cell(5, row), rec.CurrentStage)
	}
	file.SetColWidth(PatientsSheet, "A", "B", 28)
	file.SetColWidth(PatientsSheet, "C", "F", 18)

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render patients workbook: %w", err)
	}
	return buf, nil
}

// cell maps a zero-based column and one-based row to an A1 reference.
func cell(col, row int) string {
	return fmt.Sprintf("%s%d", excelize.ToAlphaString(col), row)
}
