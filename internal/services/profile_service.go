package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/limbsorthopaedic/clinic-backend/internal/clinic"
	"github.com/limbsorthopaedic/clinic-backend/internal/docstore"
	"github.com/limbsorthopaedic/clinic-backend/internal/dto"
)

type ProfileService struct {
	store docstore.Store
	now   func() time.Time
}

func NewProfileService(store docstore.Store) *ProfileService {
	return &ProfileService{store: store, now: time.Now}
}

func (s *ProfileService) Get(ctx context.Context, uid string) (*clinic.PatientProfile, error) {
	docs, err := s.store.Query(ctx, docstore.From(clinic.CollectionPatientProfiles).
		Where("userId", docstore.OpEqual, uid).
		Take(1))
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	if len(docs) == 0 {
		return nil, ErrProfileNotFound
	}
	p := clinic.PatientProfileFromDocument(docs[0])
	return &p, nil
}

// Save creates or updates uid's profile; repeating the call with the same
// fields leaves exactly one profile. A non-empty full name is mirrored to
// the identity's display name.
func (s *ProfileService) Save(ctx context.Context, uid string, req *dto.ProfileRequest) (*clinic.PatientProfile, error) {
	gender := clinic.Gender(req.Gender)
	if !gender.Valid() {
		return nil, invalid("gender must be male, female or other")
	}
	if req.DateOfBirth != "" {
		if _, err := time.Parse(clinic.DateLayout, req.DateOfBirth); err != nil {
			return nil, invalid("date of birth must be YYYY-MM-DD")
		}
	}

	profile := clinic.PatientProfile{
		FullName:         strings.TrimSpace(req.FullName),
		Phone:            strings.TrimSpace(req.Phone),
		Address:          strings.TrimSpace(req.Address),
		EmergencyContact: strings.TrimSpace(req.EmergencyContact),
		MedicalHistory:   strings.TrimSpace(req.MedicalHistory),
		Gender:           gender,
		DateOfBirth:      req.DateOfBirth,
	}

	now := s.now().UTC()
	if _, err := upsertByUser(ctx, s.store, clinic.CollectionPatientProfiles, uid, profile.EditableFields(), now); err != nil {
		return nil, err
	}

	if profile.FullName != "" {
		err := s.store.Update(ctx, clinic.CollectionUsers, uid, map[string]interface{}{"displayName": profile.FullName})
		if err != nil && !errors.Is(err, docstore.ErrNotFound) {
			return nil, fmt.Errorf("failed to update display name: %w", err)
		}
		if err != nil {
			slog.Warn("profile saved for identity without a user record", "user_id", uid)
		}
	}

	return s.Get(ctx, uid)
}
