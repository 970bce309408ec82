package aggregate

import (
	"context"
	"errors"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/limbsorthopaedic/clinic-backend/internal/clinic"
	"github.com/limbsorthopaedic/clinic-backend/internal/docstore"
)

var ErrNotAPatient = errors.New("no patient with that id")

// PatientDetail is everything staff see on one patient's page.
type PatientDetail struct {
	Patient      PatientRecord           `json:"patient"`
	Profile      *clinic.PatientProfile  `json:"profile"`
	Appointments []clinic.Appointment    `json:"appointments"`
	Stages       []clinic.TreatmentStage `json:"treatmentStages"`
}

// Patient reads uid's identity record, then its profile, appointments and
// timeline concurrently. Appointments come latest date first and stages
// most recent first.
func (a *Aggregator) Patient(ctx context.Context, uid string) (*PatientDetail, error) {
	ctx, span := a.startSpan(ctx, "Aggregator.Patient")
	defer span.End()

	doc, err := a.store.Get(ctx, clinic.CollectionUsers, uid)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrNotAPatient
		}
		return nil, queryError("patient "+uid, err)
	}
	user := clinic.UserFromDocument(*doc)
	if user.Role != clinic.RolePatient {
		return nil, ErrNotAPatient
	}

	var (
		profile *clinic.PatientProfile
		appts   []clinic.Appointment
		stages  []clinic.TreatmentStage
	)
	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		docs, err := a.store.Query(gctx, docstore.From(clinic.CollectionPatientProfiles).
			Where("userId", docstore.OpEqual, uid).
			Take(1))
		if err != nil {
			return queryError("profile for "+uid, err)
		}
		if len(docs) > 0 {
			p := clinic.PatientProfileFromDocument(docs[0])
			profile = &p
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		appts, err = a.AppointmentsFor(gctx, uid)
		return err
	})
	eg.Go(func() error {
		docs, err := a.store.Query(gctx, docstore.From(clinic.CollectionTreatmentStages).
			Where("patientId", docstore.OpEqual, uid).
			OrderBy("date", docstore.Desc))
		if err != nil {
			return queryError("treatment stages for "+uid, err)
		}
		stages = make([]clinic.TreatmentStage, 0, len(docs))
		for _, d := range docs {
			stages = append(stages, clinic.TreatmentStageFromDocument(d))
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(appts, func(i, j int) bool { return appts[i].Date > appts[j].Date })

	current := NotStarted
	for _, s := range stages {
		if s.Stage != clinic.StageCompleted {
			current = string(s.Stage)
			break
		}
	}

	return &PatientDetail{
		Patient: PatientRecord{
			UID:               user.UID,
			Name:              orDefault(user.DisplayName, NoName),
			Email:             orDefault(user.Email, NoEmail),
			PhotoURL:          user.PhotoURL,
			CreatedAt:         user.CreatedAt,
			AppointmentsCount: len(appts),
			LastAppointment:   latestDate(appts),
			CurrentStage:      current,
		},
		Profile:      profile,
		Appointments: appts,
		Stages:       stages,
	}, nil
}
