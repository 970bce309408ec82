package aggregate

import (
	"context"
	"time"

	"github.com/limbsorthopaedic/clinic-backend/internal/clinic"
	"github.com/limbsorthopaedic/clinic-backend/internal/docstore"
)

// DoctorRecord merges a doctor's identity record with their profile.
type DoctorRecord struct {
	UID            string     `json:"uid"`
	Name           string     `json:"displayName"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	Specialization string     `json:"specialization"`
	Availability   string     `json:"availability"`
	Bio            string     `json:"bio"`
	IsActive       bool       `json:"isActive"`
	DeactivatedAt  *time.Time `json:"deactivatedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Doctors reads the doctor roster by name and merges each profile. A doctor
// without a profile is listed with empty profile fields.
func (a *Aggregator) Doctors(ctx context.Context) ([]DoctorRecord, error) {
	ctx, span := a.startSpan(ctx, "Aggregator.Doctors")
	defer span.End()

	doctors, err := a.Roster(ctx, clinic.RoleDoctor, ByName, 0)
	if err != nil {
		return nil, err
	}

	out := make([]DoctorRecord, len(doctors))
	err = a.fanOut(ctx, len(doctors), func(ctx context.Context, i int) error {
		u := doctors[i]
		rec := DoctorRecord{
			UID:           u.UID,
			Name:          orDefault(u.DisplayName, NoName),
			Email:         orDefault(u.Email, NoEmail),
			IsActive:      u.IsActive,
			DeactivatedAt: u.DeactivatedAt,
			CreatedAt:     u.CreatedAt,
		}

		profile, err := a.DoctorProfile(ctx, u.UID)
		if err != nil {
			return err
		}
		if profile != nil {
			rec.Phone = profile.Phone
			rec.Specialization = profile.Specialization
			rec.Availability = profile.Availability
			rec.Bio = profile.Bio
		}
		out[i] = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DoctorProfile returns uid's profile or nil when none exists.
func (a *Aggregator) DoctorProfile(ctx context.Context, uid string) (*clinic.DoctorProfile, error) {
	docs, err := a.store.Query(ctx, docstore.From(clinic.CollectionDoctorProfiles).
		Where("userId", docstore.OpEqual, uid).
		Take(1))
	if err != nil {
		return nil, queryError("doctor profile for "+uid, err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	p := clinic.DoctorProfileFromDocument(docs[0])
	return &p, nil
}
