package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/limbsorthopaedic/clinic-backend/internal/clinic"
	"github.com/limbsorthopaedic/clinic-backend/internal/docstore"
	"github.com/limbsorthopaedic/clinic-backend/internal/dto"
	"github.com/limbsorthopaedic/clinic-backend/internal/identity"
)

const minStageNotes = 10

type StageService struct {
	store docstore.Store
	now   func() time.Time
}

func NewStageService(store docstore.Store) *StageService {
	return &StageService{store: store, now: time.Now}
}

// Add appends a stage to a patient's timeline, authored by doctor.
func (s *StageService) Add(ctx context.Context, patientID string, doctor *identity.Identity, req *dto.StageRequest) (*clinic.TreatmentStage, error) {
	stage := clinic.Stage(req.Stage)
	if !stage.Valid() {
		return nil, invalid("please select a stage")
	}
	notes := strings.TrimSpace(req.Notes)
	if len([]rune(notes)) < minStageNotes {
		return nil, invalid("notes must be at least %d characters", minStageNotes)
	}
	date, err := s.parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}

	ts := clinic.TreatmentStage{
		PatientID:  patientID,
		Stage:      stage,
		Notes:      notes,
		DoctorID:   doctor.UID,
		DoctorName: authorName(doctor),
		Date:       date,
	}
	id, err := s.store.Create(ctx, clinic.CollectionTreatmentStages, ts.Fields())
	if err != nil {
		return nil, fmt.Errorf("failed to create treatment stage: %w", err)
	}
	ts.ID = id
	return &ts, nil
}

func (s *StageService) Get(ctx context.Context, id string) (*clinic.TreatmentStage, error) {
	doc, err := s.store.Get(ctx, clinic.CollectionTreatmentStages, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrStageNotFound
		}
		return nil, fmt.Errorf("failed to read treatment stage: %w", err)
	}
	ts := clinic.TreatmentStageFromDocument(*doc)
	return &ts, nil
}

// Update changes the provided fields only.
func (s *StageService) Update(ctx context.Context, id string, req *dto.StageUpdateRequest) (*clinic.TreatmentStage, error) {
	ts, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	if req.Stage != nil {
		stage := clinic.Stage(*req.Stage)
		if !stage.Valid() {
			return nil, invalid("please select a stage")
		}
		ts.Stage = stage
		fields["stage"] = string(stage)
	}
	if req.Notes != nil {
		notes := strings.TrimSpace(*req.Notes)
		if len([]rune(notes)) < minStageNotes {
			return nil, invalid("notes must be at least %d characters", minStageNotes)
		}
		ts.Notes = notes
		fields["notes"] = notes
	}
	if req.Date != nil {
		date, err := s.parseDate(*req.Date)
		if err != nil {
			return nil, err
		}
		ts.Date = date
		fields["date"] = date
	}
	if len(fields) == 0 {
		return ts, nil
	}

	if err := s.store.Update(ctx, clinic.CollectionTreatmentStages, id, fields); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrStageNotFound
		}
		return nil, fmt.Errorf("failed to update treatment stage: %w", err)
	}
	return ts, nil
}

func (s *StageService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, clinic.CollectionTreatmentStages, id); err != nil {
		return fmt.Errorf("failed to delete treatment stage: %w", err)
	}
	return nil
}

// Timeline returns a patient's stages, most recent first.
func (s *StageService) Timeline(ctx context.Context, patientID string) ([]clinic.TreatmentStage, error) {
	docs, err := s.store.Query(ctx, docstore.From(clinic.CollectionTreatmentStages).
		Where("patientId", docstore.OpEqual, patientID).
		OrderBy("date", docstore.Desc))
	if err != nil {
		return nil, fmt.Errorf("failed to list treatment stages: %w", err)
	}
	stages := make([]clinic.TreatmentStage, 0, len(docs))
	for _, doc := range docs {
		stages = append(stages, clinic.TreatmentStageFromDocument(doc))
	}
	return stages, nil
}

// Progress places the patient on the ordered stage list using the latest
// entry of their timeline read oldest first.
func (s *StageService) Progress(ctx context.Context, patientID string) (*dto.StageProgress, error) {
	timeline, err := s.Timeline(ctx, patientID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(timeline, func(i, j int) bool { return timeline[i].Date.Before(timeline[j].Date) })

	names := make([]string, len(clinic.Stages))
	for i, st := range clinic.Stages {
		names[i] = string(st)
	}
	p := &dto.StageProgress{Index: -1, Total: len(clinic.Stages), Stages: names}
	if len(timeline) == 0 {
		p.Current = "Not Started"
		return p, nil
	}
	latest := timeline[len(timeline)-1].Stage
	p.Current = string(latest)
	p.Index = latest.Index()
	p.Completed = latest == clinic.StageCompleted
	return p, nil
}

func (s *StageService) requirePatient(ctx context.Context, uid string) error {
	doc, err := s.store.Get(ctx, clinic.CollectionUsers, uid)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrPatientNotFound
		}
		return fmt.Errorf("failed to read patient: %w", err)
	}
	if clinic.UserFromDocument(*doc).Role != clinic.RolePatient {
		return ErrPatientNotFound
	}
	return nil
}

// parseDate accepts a calendar date or an RFC 3339 timestamp; empty means now.
func (s *StageService) parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.now().UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(clinic.DateLayout, raw); err == nil {
		return t, nil
	}
	return time.Time{}, invalid("date must be YYYY-MM-DD or RFC 3339")
}

func authorName(doctor *identity.Identity) string {
	if doctor.DisplayName != "" {
		return doctor.DisplayName
	}
	return doctor.Email
}
