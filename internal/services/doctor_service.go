package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/limbsorthopaedic/clinic-backend/internal/clinic"
	"github.com/limbsorthopaedic/clinic-backend/internal/docstore"
	"github.com/limbsorthopaedic/clinic-backend/internal/dto"
	"github.com/limbsorthopaedic/clinic-backend/internal/identity"
)

// DoctorService manages doctor accounts. Doctors are never deleted, only
// deactivated.
type DoctorService struct {
	store    docstore.Store
	provider identity.Provider
	now      func() time.Time
}

func NewDoctorService(store docstore.Store, provider identity.Provider) *DoctorService {
	return &DoctorService{store: store, provider: provider, now: time.Now}
}

// Create provisions an identity account, its doctor role record and profile.
func (s *DoctorService) Create(ctx context.Context, req *dto.CreateDoctorRequest) (*clinic.User, error) {
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		return nil, invalid("doctor name is required")
	}

	uid, err := s.provider.CreateAccount(ctx, strings.TrimSpace(req.Email), req.Password, name)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := clinic.User{
		UID:         uid,
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		DisplayName: name,
		Role:        clinic.RoleDoctor,
		CreatedAt:   now,
		IsActive:    true,
	}
	if err := s.store.CreateWithID(ctx, clinic.CollectionUsers, uid, user.Fields()); err != nil {
		return nil, fmt.Errorf("failed to create doctor record: %w", err)
	}

	profile := clinic.DoctorProfile{
		Phone:          strings.TrimSpace(req.Phone),
		Specialization: strings.TrimSpace(req.Specialization),
		Availability:   strings.TrimSpace(req.Availability),
		Bio:            strings.TrimSpace(req.Bio),
	}
	fields := profile.EditableFields()
	fields["isActive"] = true
	if _, err := upsertByUser(ctx, s.store, clinic.CollectionDoctorProfiles, uid, fields, now); err != nil {
		return nil, err
	}
	return &user, nil
}

// Update renames the doctor when a name is given and creates or updates
// their profile.
func (s *DoctorService) Update(ctx context.Context, uid string, req *dto.UpdateDoctorRequest) error {
	if _, err := s.doctor(ctx, uid); err != nil {
		return err
	}

	if name := strings.TrimSpace(req.DisplayName); name != "" {
		if err := s.store.Update(ctx, clinic.CollectionUsers, uid, map[string]interface{}{"displayName": name}); err != nil {
			return fmt.Errorf("failed to rename doctor: %w", err)
		}
	}

	profile := clinic.DoctorProfile{
		Phone:          strings.TrimSpace(req.Phone),
		Specialization: strings.TrimSpace(req.Specialization),
		Availability:   strings.TrimSpace(req.Availability),
		Bio:            strings.TrimSpace(req.Bio),
	}
	_, err := upsertByUser(ctx, s.store, clinic.CollectionDoctorProfiles, uid, profile.EditableFields(), s.now().UTC())
	return err
}

// Deactivate soft-deletes a doctor: the role record and profile are kept
// but flagged inactive, which removes the doctor's access.
func (s *DoctorService) Deactivate(ctx context.Context, uid string) error {
	if _, err := s.doctor(ctx, uid); err != nil {
		return err
	}

	now := s.now().UTC()
	flags := map[string]interface{}{"isActive": false, "deactivatedAt": now}
	if err := s.store.Update(ctx, clinic.CollectionUsers, uid, flags); err != nil {
		return fmt.Errorf("failed to deactivate doctor: %w", err)
	}
	if _, err := upsertByUser(ctx, s.store, clinic.CollectionDoctorProfiles, uid, flags, now); err != nil {
		return err
	}
	return nil
}

func (s *DoctorService) doctor(ctx context.Context, uid string) (*clinic.User, error) {
	doc, err := s.store.Get(ctx, clinic.CollectionUsers, uid)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("failed to read doctor: %w", err)
	}
	u := clinic.UserFromDocument(*doc)
	if u.Role != clinic.RoleDoctor {
		return nil, ErrDoctorNotFound
	}
	return &u, nil
}
