package aggregate

import (
	"context"
	"strings"
	"time"

	"github.com/limbsorthopaedic/clinic-backend/internal/clinic"
	"github.com/limbsorthopaedic/clinic-backend/internal/docstore"
)

const (
	NeverVisited = "Never"
	NotStarted   = "Not Started"
	NoName       = "No Name"
	NoEmail      = "No Email"
)

// PatientRecord is one row of the staff patient roster.
type PatientRecord struct {
	UID               string    `json:"uid"`
	Name              string    `json:"displayName"`
	Email             string    `json:"email"`
	PhotoURL          string    `json:"photoURL,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	AppointmentsCount int       `json:"appointmentsCount"`
	LastAppointment   string    `json:"lastAppointment"`
	CurrentStage      string    `json:"currentStage"`
}

// PatientRecords reads the patient roster, newest first, and enriches each
// row with its appointment summary and current treatment stage. Rows keep
// roster order regardless of which follow-up read finishes first.
func (a *Aggregator) PatientRecords(ctx context.Context) ([]PatientRecord, error) {
	ctx, span := a.startSpan(ctx, "Aggregator.PatientRecords")
	defer span.End()

	patients, err := a.Roster(ctx, clinic.RolePatient, ByNewest, 0)
	if err != nil {
		return nil, err
	}

	records := make([]PatientRecord, len(patients))
	err = a.fanOut(ctx, len(patients), func(ctx context.Context, i int) error {
		rec, err := a.patientRecord(ctx, patients[i])
		if err != nil {
			return err
		}
		records[i] = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (a *Aggregator) patientRecord(ctx context.Context, u clinic.User) (PatientRecord, error) {
	appts, err := a.AppointmentsFor(ctx, u.UID)
	if err != nil {
		return PatientRecord{}, err
	}
	stage, err := a.CurrentStage(ctx, u.UID)
	if err != nil {
		return PatientRecord{}, err
	}

	return PatientRecord{
		UID:               u.UID,
		Name:              orDefault(u.DisplayName, NoName),
		Email:             orDefault(u.Email, NoEmail),
		PhotoURL:          u.PhotoURL,
		CreatedAt:         u.CreatedAt,
		AppointmentsCount: len(appts),
		LastAppointment:   latestDate(appts),
		CurrentStage:      stage,
	}, nil
}

// AppointmentsFor reads every appointment owned by uid.
func (a *Aggregator) AppointmentsFor(ctx context.Context, uid string) ([]clinic.Appointment, error) {
	docs, err := a.store.Query(ctx, docstore.From(clinic.CollectionAppointments).
		Where("userId", docstore.OpEqual, uid))
	if err != nil {
		return nil, queryError("appointments for "+uid, err)
	}
	appts := make([]clinic.Appointment, 0, len(docs))
	for _, doc := range docs {
		appts = append(appts, clinic.AppointmentFromDocument(doc))
	}
	return appts, nil
}

// CurrentStage is the most recent stage of uid's timeline that is not
// "Completed", or NotStarted. A patient whose only stage is Completed
// therefore reports NotStarted.
func (a *Aggregator) CurrentStage(ctx context.Context, uid string) (string, error) {
	// The completed filter is applied here rather than in the query: the
	// hosted store cannot combine != on stage with an ordering on date.
	docs, err := a.store.Query(ctx, docstore.From(clinic.CollectionTreatmentStages).
		Where("patientId", docstore.OpEqual, uid).
		OrderBy("date", docstore.Desc))
	if err != nil {
		return "", queryError("treatment stages for "+uid, err)
	}
	for _, doc := range docs {
		stage := clinic.TreatmentStageFromDocument(doc).Stage
		if stage != clinic.StageCompleted {
			return string(stage), nil
		}
	}
	return NotStarted, nil
}

// FilterPatients keeps rows whose name or email contains term,
// case-insensitively. A blank term keeps everything.
func FilterPatients(rows []PatientRecord, term string) []PatientRecord {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return rows
	}
	out := make([]PatientRecord, 0, len(rows))
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.Name), term) || strings.Contains(strings.ToLower(r.Email), term) {
			out = append(out, r)
		}
	}
	return out
}

// latestDate returns the greatest parseable calendar date, or NeverVisited.
func latestDate(appts []clinic.Appointment) string {
	var latest time.Time
	found := ""
	for _, appt := range appts {
		day, ok := appt.Day(time.UTC)
		if !ok {
			continue
		}
		if found == "" || day.After(latest) {
			latest = day
			found = appt.Date
		}
	}
	if found == "" {
		return NeverVisited
	}
	return found
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
