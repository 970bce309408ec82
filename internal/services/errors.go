package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrInvalidTransition   = errors.New("status change not allowed")
	ErrStageNotFound       = errors.New("treatment stage not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrProfileNotFound     = errors.New("profile not found")
	ErrDoctorNotFound      = errors.New("doctor not found")
)

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
