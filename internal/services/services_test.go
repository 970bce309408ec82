package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/limbsorthopaedic/clinic-backend/internal/catalog"
	"github.com/limbsorthopaedic/clinic-backend/internal/clinic"
	"github.com/limbsorthopaedic/clinic-backend/internal/docstore"
	"github.com/limbsorthopaedic/clinic-backend/internal/dto"
	"github.com/limbsorthopaedic/clinic-backend/internal/identity"
	"github.com/limbsorthopaedic/clinic-backend/internal/notify"
)

var epoch = time.Date(2025, 2, 20, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return epoch }

type recorder struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (r *recorder) Notify(_ context.Context, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return r.err
}

// fakeProvider hands out sequential uids and rejects repeated emails.
type fakeProvider struct {
	mu     sync.Mutex
	emails map[string]string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{emails: make(map[string]string)}
}

func (p *fakeProvider) VerifyToken(context.Context, string) (*identity.Identity, error) {
	return nil, identity.ErrInvalidToken
}

func (p *fakeProvider) CreateAccount(_ context.Context, email, password, _ string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(password) < 8 {
		return "", identity.ErrWeakPassword
	}
	email = strings.ToLower(email)
	if _, ok := p.emails[email]; ok {
		return "", identity.ErrEmailTaken
	}
	uid := fmt.Sprintf("uid-%d", len(p.emails)+1)
	p.emails[email] = uid
	return uid, nil
}

func seedUser(t *testing.T, store docstore.Store, u clinic.User) {
	t.Helper()
	if err := store.CreateWithID(context.Background(), clinic.CollectionUsers, u.UID, u.Fields()); err != nil {
		t.Fatalf("seed user %s: %v", u.UID, err)
	}
}

func newAppointments(store docstore.Store, n notify.Notifier) *AppointmentService {
	s := NewAppointmentService(store, catalog.Default(), n)
	s.now = fixedClock
	return s
}

func validBooking() *dto.BookingRequest {
	return &dto.BookingRequest{
		FullName: "Amina Otieno",
		Email:    "amina@example.com",
		Phone:    "0712345678",
		Service:  "prosthetic_limbs",
		Date:     "2025-03-01",
		Time:     "morning",
		Message:  "below-knee review",
	}
}

func TestBookValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *dto.BookingRequest)
	}{
		{"short name", func(r *dto.BookingRequest) { r.FullName = "A" }},
		{"bad email", func(r *dto.BookingRequest) { r.Email = "not-an-email" }},
		{"short phone", func(r *dto.BookingRequest) { r.Phone = "12345" }},
		{"unknown service", func(r *dto.BookingRequest) { r.Service = "massage" }},
		{"bad date", func(r *dto.BookingRequest) { r.Date = "01/03/2025" }},
		{"unknown slot", func(r *dto.BookingRequest) { r.Time = "midnight" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := docstore.NewMemoryStore()
			svc := newAppointments(store, &recorder{})
			req := validBooking()
			tt.mutate(req)

			_, err := svc.Book(context.Background(), "patient-1", req)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("Book() error = %v, want ErrInvalidInput", err)
			}
			docs, _ := store.Query(context.Background(), docstore.From(clinic.CollectionAppointments))
			if len(docs) != 0 {
				t.Errorf("invalid booking stored %d documents", len(docs))
			}
		})
	}
}

func TestBookIsVisibleOnlyToOwner(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	rec := &recorder{}
	svc := newAppointments(store, rec)

	appt, err := svc.Book(ctx, "patient-1", validBooking())
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}
	if appt.Status != clinic.StatusPending {
		t.Errorf("Status = %q, want pending", appt.Status)
	}

	own, err := svc.ListForUser(ctx, "patient-1")
	if err != nil {
		t.Fatalf("ListForUser(owner) error = %v", err)
	}
	want := []clinic.Appointment{{
		ID:        appt.ID,
		UserID:    "patient-1",
		FullName:  "Amina Otieno",
		Email:     "amina@example.com",
		Phone:     "0712345678",
		Service:   "prosthetic_limbs",
		Date:      "2025-03-01",
		Time:      clinic.SlotMorning,
		Message:   "below-knee review",
		Status:    clinic.StatusPending,
		CreatedAt: epoch,
		UpdatedAt: epoch,
	}}
	if diff := cmp.Diff(want, own); diff != "" {
		t.Errorf("ListForUser(owner) mismatch (-want +got):\n%s", diff)
	}

	other, err := svc.ListForUser(ctx, "patient-2")
	if err != nil {
		t.Fatalf("ListForUser(other) error = %v", err)
	}
	if len(other) != 0 {
		t.Errorf("ListForUser(other) = %d appointments, want 0", len(other))
	}

	if len(rec.sent) != 2 {
		t.Fatalf("sent %d notifications, want 2", len(rec.sent))
	}
	if rec.sent[0].To != "amina@example.com" || rec.sent[0].Staff {
		t.Errorf("first notification = %+v, want patient confirmation", rec.sent[0])
	}
	if !rec.sent[1].Staff {
		t.Errorf("second notification = %+v, want staff alert", rec.sent[1])
	}
}

func TestBookSurvivesNotificationFailure(t *testing.T) {
	store := docstore.NewMemoryStore()
	svc := newAppointments(store, &recorder{err: errors.New("smtp down")})

	if _, err := svc.Book(context.Background(), "", validBooking()); err != nil {
		t.Fatalf("Book() error = %v, want nil despite notifier failure", err)
	}
	docs, _ := store.Query(context.Background(), docstore.From(clinic.CollectionAppointments))
	if len(docs) != 1 {
		t.Fatalf("stored %d appointments, want 1", len(docs))
	}
	if v, ok := docs[0].Data["userId"]; !ok || v != nil {
		t.Errorf("guest userId = %v (present %v), want explicit nil", v, ok)
	}
}

func TestUpdateStatus(t *testing.T) {
	tests := []struct {
		name    string
		steps   []string
		wantErr error
		want    clinic.AppointmentStatus
	}{
		{"confirm", []string{"confirmed"}, nil, clinic.StatusConfirmed},
		{"confirm then complete", []string{"confirmed", "completed"}, nil, clinic.StatusCompleted},
		{"repeat is a no-op", []string{"confirmed", "confirmed"}, nil, clinic.StatusConfirmed},
		{"no return to pending", []string{"confirmed", "pending"}, ErrInvalidTransition, clinic.StatusConfirmed},
		{"cancelled is final", []string{"cancelled", "confirmed"}, ErrInvalidTransition, clinic.StatusCancelled},
		{"unknown status", []string{"archived"}, ErrInvalidInput, clinic.StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc := newAppointments(docstore.NewMemoryStore(), &recorder{})
			appt, err := svc.Book(ctx, "patient-1", validBooking())
			if err != nil {
				t.Fatalf("Book() error = %v", err)
			}

			var lastErr error
			for _, step := range tt.steps {
				_, lastErr = svc.UpdateStatus(ctx, appt.ID, step)
			}
			if !errors.Is(lastErr, tt.wantErr) {
				t.Fatalf("UpdateStatus() error = %v, want %v", lastErr, tt.wantErr)
			}

			got, err := svc.Get(ctx, appt.ID)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.Status != tt.want {
				t.Errorf("Status = %q, want %q", got.Status, tt.want)
			}
		})
	}
}

func TestUpdateStatusMissing(t *testing.T) {
	svc := newAppointments(docstore.NewMemoryStore(), &recorder{})
	_, err := svc.UpdateStatus(context.Background(), "nope", "confirmed")
	if !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("UpdateStatus() error = %v, want ErrAppointmentNotFound", err)
	}
}

// interleavingStore lands another staff member's write between the
// service's read and its conditional write.
type interleavingStore struct {
	*docstore.MemoryStore
	competing map[string]interface{}
}

func (s *interleavingStore) UpdateIf(ctx context.Context, collection, id, field string, want interface{}, fields map[string]interface{}) error {
	if s.competing != nil {
		if err := s.MemoryStore.Update(ctx, collection, id, s.competing); err != nil {
			return err
		}
		s.competing = nil
	}
	return s.MemoryStore.UpdateIf(ctx, collection, id, field, want, fields)
}

func TestUpdateStatusLosesToConcurrentTerminalWrite(t *testing.T) {
	ctx := context.Background()
	store := &interleavingStore{MemoryStore: docstore.NewMemoryStore()}
	svc := newAppointments(store, &recorder{})
	appt, err := svc.Book(ctx, "p1", validBooking())
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}

	store.competing = map[string]interface{}{"status": string(clinic.StatusCancelled)}
	if _, err := svc.UpdateStatus(ctx, appt.ID, "completed"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("UpdateStatus() error = %v, want ErrInvalidTransition", err)
	}

	got, err := svc.Get(ctx, appt.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != clinic.StatusCancelled {
		t.Errorf("Status = %q, want the cancelled write to stand", got.Status)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	ctx := context.Background()
	svc := newAppointments(docstore.NewMemoryStore(), &recorder{})
	first, _ := svc.Book(ctx, "p1", validBooking())
	if _, err := svc.Book(ctx, "p2", validBooking()); err != nil {
		t.Fatalf("Book() error = %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, first.ID, "confirmed"); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	confirmed, err := svc.List(ctx, "confirmed")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(confirmed) != 1 || confirmed[0].ID != first.ID {
		t.Errorf("List(confirmed) = %+v, want only %s", confirmed, first.ID)
	}

	due, err := svc.DueOn(ctx, "2025-03-01", clinic.StatusConfirmed)
	if err != nil {
		t.Fatalf("DueOn() error = %v", err)
	}
	if len(due) != 1 {
		t.Errorf("DueOn() = %d appointments, want 1", len(due))
	}

	if _, err := svc.List(ctx, "archived"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("List(archived) error = %v, want ErrInvalidInput", err)
	}
}

func TestProfileSaveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	seedUser(t, store, clinic.User{UID: "p1", Email: "p1@example.com", Role: clinic.RolePatient, IsActive: true})
	svc := NewProfileService(store)
	svc.now = fixedClock

	if _, err := svc.Get(ctx, "p1"); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("Get() before save error = %v, want ErrProfileNotFound", err)
	}

	req := &dto.ProfileRequest{FullName: "Brian Mwangi", Phone: "0700000000", Gender: "male"}
	for i := 0; i < 3; i++ {
		if _, err := svc.Save(ctx, "p1", req); err != nil {
			t.Fatalf("Save() #%d error = %v", i, err)
		}
	}
	req.Address = "Kisumu"
	got, err := svc.Save(ctx, "p1", req)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	docs, _ := store.Query(ctx, docstore.From(clinic.CollectionPatientProfiles).Where("userId", docstore.OpEqual, "p1"))
	if len(docs) != 1 {
		t.Fatalf("stored %d profiles, want 1", len(docs))
	}

	want := &clinic.PatientProfile{
		UserID:   "p1",
		FullName: "Brian Mwangi",
		Phone:    "0700000000",
		Address:  "Kisumu",
		Gender:   clinic.GenderMale,
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(clinic.PatientProfile{}, "ID", "CreatedAt", "UpdatedAt")); diff != "" {
		t.Errorf("Save() mismatch (-want +got):\n%s", diff)
	}

	user, _ := store.Get(ctx, clinic.CollectionUsers, "p1")
	if name := clinic.UserFromDocument(*user).DisplayName; name != "Brian Mwangi" {
		t.Errorf("display name = %q, want mirrored full name", name)
	}
}

func TestProfileSaveRejectsBadInput(t *testing.T) {
	svc := NewProfileService(docstore.NewMemoryStore())
	for _, req := range []*dto.ProfileRequest{
		{Gender: "unknown"},
		{DateOfBirth: "20/01/1990"},
	} {
		if _, err := svc.Save(context.Background(), "p1", req); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Save(%+v) error = %v, want ErrInvalidInput", req, err)
		}
	}
}

func TestStageLifecycle(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	seedUser(t, store, clinic.User{UID: "p1", Role: clinic.RolePatient, IsActive: true})
	seedUser(t, store, clinic.User{UID: "d1", Role: clinic.RoleDoctor, IsActive: true})
	svc := NewStageService(store)
	svc.now = fixedClock
	doctor := &identity.Identity{UID: "d1", Email: "dr@example.com"}

	if _, err := svc.Add(ctx, "p1", doctor, &dto.StageRequest{Stage: "Assessment", Notes: "too short"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Add(short notes) error = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.Add(ctx, "p1", doctor, &dto.StageRequest{Stage: "Polishing", Notes: "long enough notes"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Add(bad stage) error = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.Add(ctx, "d1", doctor, &dto.StageRequest{Stage: "Assessment", Notes: "long enough notes"}); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("Add(doctor as patient) error = %v, want ErrPatientNotFound", err)
	}

	first, err := svc.Add(ctx, "p1", doctor, &dto.StageRequest{Stage: "Initial Consultation", Notes: "  first visit, referred by county  ", Date: "2025-01-10"})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if first.DoctorName != "dr@example.com" {
		t.Errorf("DoctorName = %q, want email fallback", first.DoctorName)
	}
	if first.Notes != "first visit, referred by county" {
		t.Errorf("Notes = %q, want trimmed", first.Notes)
	}
	second, err := svc.Add(ctx, "p1", doctor, &dto.StageRequest{Stage: "Measurement", Notes: "casting for socket"})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if !second.Date.Equal(epoch) {
		t.Errorf("Date = %v, want clock default %v", second.Date, epoch)
	}

	timeline, err := svc.Timeline(ctx, "p1")
	if err != nil {
		t.Fatalf("Timeline() error = %v", err)
	}
	if diff := cmp.Diff([]string{second.ID, first.ID}, stageIDs(timeline)); diff != "" {
		t.Errorf("Timeline() order mismatch (-want +got):\n%s", diff)
	}

	progress, err := svc.Progress(ctx, "p1")
	if err != nil {
		t.Fatalf("Progress() error = %v", err)
	}
	if progress.Current != "Measurement" || progress.Index != 2 || progress.Completed {
		t.Errorf("Progress() = %+v, want Measurement at index 2", progress)
	}

	stage := "Completed"
	if _, err := svc.Update(ctx, second.ID, &dto.StageUpdateRequest{Stage: &stage}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	progress, _ = svc.Progress(ctx, "p1")
	if !progress.Completed {
		t.Errorf("Progress() after completion = %+v, want completed", progress)
	}

	if err := svc.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := svc.Delete(ctx, first.ID); !errors.Is(err, ErrStageNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrStageNotFound", err)
	}
}

func TestProgressNotStarted(t *testing.T) {
	svc := NewStageService(docstore.NewMemoryStore())
	got, err := svc.Progress(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Progress() error = %v", err)
	}
	if got.Current != "Not Started" || got.Index != -1 || got.Total != len(clinic.Stages) {
		t.Errorf("Progress() = %+v, want not started", got)
	}
}

func stageIDs(stages []clinic.TreatmentStage) []string {
	ids := make([]string, len(stages))
	for i, s := range stages {
		ids[i] = s.ID
	}
	return ids
}

func TestDoctorLifecycle(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	svc := NewDoctorService(store, newFakeProvider())
	svc.now = fixedClock

	if _, err := svc.Create(ctx, &dto.CreateDoctorRequest{Email: "dr@example.com", Password: "longenough"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Create(no name) error = %v, want ErrInvalidInput", err)
	}

	doc, err := svc.Create(ctx, &dto.CreateDoctorRequest{
		Email:          "Dr@Example.com",
		Password:       "longenough",
		DisplayName:    "Dr. Njeri",
		Specialization: "Prosthetics",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if doc.Role != clinic.RoleDoctor || doc.Email != "dr@example.com" {
		t.Errorf("Create() = %+v, want lower-cased doctor", doc)
	}

	if _, err := svc.Create(ctx, &dto.CreateDoctorRequest{Email: "dr@example.com", Password: "longenough", DisplayName: "Again"}); !errors.Is(err, identity.ErrEmailTaken) {
		t.Errorf("Create(duplicate) error = %v, want ErrEmailTaken", err)
	}

	if err := svc.Update(ctx, doc.UID, &dto.UpdateDoctorRequest{DisplayName: "Dr. W. Njeri", Bio: "Twenty years in orthotics"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if err := svc.Deactivate(ctx, doc.UID); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}

	userDoc, _ := store.Get(ctx, clinic.CollectionUsers, doc.UID)
	user := clinic.UserFromDocument(*userDoc)
	if user.IsActive || user.DeactivatedAt == nil || user.DisplayName != "Dr. W. Njeri" {
		t.Errorf("user after deactivate = %+v", user)
	}

	profiles, _ := store.Query(ctx, docstore.From(clinic.CollectionDoctorProfiles).Where("userId", docstore.OpEqual, doc.UID))
	if len(profiles) != 1 {
		t.Fatalf("stored %d doctor profiles, want 1", len(profiles))
	}
	profile := clinic.DoctorProfileFromDocument(profiles[0])
	if profile.IsActive || profile.Bio != "Twenty years in orthotics" {
		t.Errorf("profile after deactivate = %+v", profile)
	}

	if err := svc.Deactivate(ctx, "missing"); !errors.Is(err, ErrDoctorNotFound) {
		t.Errorf("Deactivate(missing) error = %v, want ErrDoctorNotFound", err)
	}
}

func TestEnsureOwner(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	svc := NewAccountService(store, newFakeProvider())
	svc.now = fixedClock

	patient, err := svc.Register(ctx, &dto.RegisterRequest{Email: "lead@example.com", Password: "longenough", DisplayName: "Lead"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if patient.Role != clinic.RolePatient {
		t.Errorf("Register() role = %q, want patient", patient.Role)
	}

	created, err := svc.EnsureOwner(ctx, "lead@example.com", "longenough", "Lead")
	if err != nil {
		t.Fatalf("EnsureOwner(existing) error = %v", err)
	}
	if created {
		t.Error("EnsureOwner(existing) created a new account")
	}
	userDoc, _ := store.Get(ctx, clinic.CollectionUsers, patient.UID)
	if role := clinic.UserFromDocument(*userDoc).Role; role != clinic.RoleOwner {
		t.Errorf("role after EnsureOwner = %q, want owner", role)
	}

	created, err = svc.EnsureOwner(ctx, "boss@example.com", "longenough", "Boss")
	if err != nil || !created {
		t.Errorf("EnsureOwner(new) = %v, %v; want true, nil", created, err)
	}
}
