package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/limbsorthopaedic/clinic-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStorage persists the legacy schema in PostgreSQL.
type GormStorage struct {
	db *gorm.DB
}

func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{db: db}
}

func (s *GormStorage) first(ctx context.Context, dst interface{}, query string, args ...interface{}) error {
	err := s.db.WithContext(ctx).Where(query, args...).First(dst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *GormStorage) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.first(ctx, &u, "id = ?", id); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *GormStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.first(ctx, &u, "username = ?", username); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *GormStorage) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *GormStorage) CreateUser(ctx context.Context, u *models.User) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ? OR LOWER(email) = LOWER(?)", u.Username, u.Email).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to check existing user: %w", err)
	}
	if count > 0 {
		return ErrDuplicate
	}
	u.IsActive = true
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *GormStorage) GetProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	var p models.Profile
	if err := s.first(ctx, &p, "user_id = ?", userID); err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveProfile relies on the unique user_id index so concurrent saves
// converge on one row.
func (s *GormStorage) SaveProfile(ctx context.Context, p *models.Profile) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"phone", "address", "emergency_contact", "medical_history", "gender",
			"date_of_birth", "bio", "specialization", "availability", "updated_at",
		}),
	}).Create(p).Error
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (s *GormStorage) GetAppointment(ctx context.Context, id uint) (*models.Appointment, error) {
	var a models.Appointment
	if err := s.first(ctx, &a, "id = ?", id); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *GormStorage) ListAppointments(ctx context.Context) ([]models.Appointment, error) {
	var appts []models.Appointment
	if err := s.db.WithContext(ctx).Order("id").Find(&appts).Error; err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appts, nil
}

func (s *GormStorage) ListUserAppointments(ctx context.Context, userID uint) ([]models.Appointment, error) {
	var appts []models.Appointment
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&appts).Error; err != nil {
		return nil, fmt.Errorf("failed to list user appointments: %w", err)
	}
	return appts, nil
}

func (s *GormStorage) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	if a.Status == "" {
		a.Status = "pending"
	}
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (s *GormStorage) UpdateAppointmentStatus(ctx context.Context, id uint, status string) (*models.Appointment, error) {
	result := s.db.WithContext(ctx).Model(&models.Appointment{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetAppointment(ctx, id)
}

func (s *GormStorage) GetStage(ctx context.Context, id uint) (*models.TreatmentStage, error) {
	var st models.TreatmentStage
	if err := s.first(ctx, &st, "id = ?", id); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *GormStorage) ListStages(ctx context.Context) ([]models.TreatmentStage, error) {
	var stages []models.TreatmentStage
	if err := s.db.WithContext(ctx).Order("id").Find(&stages).Error; err != nil {
		return nil, fmt.Errorf("failed to list treatment stages: %w", err)
	}
	return stages, nil
}

func (s *GormStorage) ListUserStages(ctx context.Context, patientID uint) ([]models.TreatmentStage, error) {
	var stages []models.TreatmentStage
	if err := s.db.WithContext(ctx).Where("patient_id = ?", patientID).Order("id").Find(&stages).Error; err != nil {
		return nil, fmt.Errorf("failed to list user treatment stages: %w", err)
	}
	return stages, nil
}

func (s *GormStorage) CreateStage(ctx context.Context, st *models.TreatmentStage) error {
	if err := s.db.WithContext(ctx).Create(st).Error; err != nil {
		return fmt.Errorf("failed to create treatment stage: %w", err)
	}
	return nil
}

func (s *GormStorage) UpdateStage(ctx context.Context, id uint, upd StageUpdate) (*models.TreatmentStage, error) {
	fields := map[string]interface{}{}
	if upd.Stage != nil {
		fields["stage"] = *upd.Stage
	}
	if upd.Notes != nil {
		fields["notes"] = *upd.Notes
	}
	if len(fields) == 0 {
		return s.GetStage(ctx, id)
	}
	result := s.db.WithContext(ctx).Model(&models.TreatmentStage{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update treatment stage: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetStage(ctx, id)
}
