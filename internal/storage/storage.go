// Package storage backs the legacy /api surface with integer-keyed records.
package storage

import (
	"context"
	"errors"

	"github.com/limbsorthopaedic/clinic-backend/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// StageUpdate carries optional treatment stage changes.
type StageUpdate struct {
	Stage *string
	Notes *string
}

type Storage interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, u *models.User) error

	GetProfile(ctx context.Context, userID uint) (*models.Profile, error)
	SaveProfile(ctx context.Context, p *models.Profile) error

	GetAppointment(ctx context.Context, id uint) (*models.Appointment, error)
	ListAppointments(ctx context.Context) ([]models.Appointment, error)
	ListUserAppointments(ctx context.Context, userID uint) ([]models.Appointment, error)
	CreateAppointment(ctx context.Context, a *models.Appointment) error
	UpdateAppointmentStatus(ctx context.Context, id uint, status string) (*models.Appointment, error)

	GetStage(ctx context.Context, id uint) (*models.TreatmentStage, error)
	ListStages(ctx context.Context) ([]models.TreatmentStage, error)
	ListUserStages(ctx context.Context, patientID uint) ([]models.TreatmentStage, error)
	CreateStage(ctx context.Context, s *models.TreatmentStage) error
	UpdateStage(ctx context.Context, id uint, upd StageUpdate) (*models.TreatmentStage, error)
}
