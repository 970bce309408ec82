package aggregate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/limbsorthopaedic/clinic-backend/internal/catalog"
	"github.com/limbsorthopaedic/clinic-backend/internal/clinic"
	"github.com/limbsorthopaedic/clinic-backend/internal/docstore"
)

var epoch = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

type fixture struct {
	t     *testing.T
	store *docstore.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	return &fixture{t: t, store: docstore.NewMemoryStore()}
}

func (f *fixture) user(u clinic.User) {
	f.t.Helper()
	if err := f.store.CreateWithID(context.Background(), clinic.CollectionUsers, u.UID, u.Fields()); err != nil {
		f.t.Fatalf("seed user %s: %v", u.UID, err)
	}
}

func (f *fixture) appointment(id string, a clinic.Appointment) {
	f.t.Helper()
	if err := f.store.CreateWithID(context.Background(), clinic.CollectionAppointments, id, a.Fields()); err != nil {
		f.t.Fatalf("seed appointment %s: %v", id, err)
	}
}

func (f *fixture) stage(id string, s clinic.TreatmentStage) {
	f.t.Helper()
	if err := f.store.CreateWithID(context.Background(), clinic.CollectionTreatmentStages, id, s.Fields()); err != nil {
		f.t.Fatalf("seed stage %s: %v", id, err)
	}
}

// failOn wraps a store and fails queries against one collection.
type failOn struct {
	docstore.Store
	collection string
}

var errUnavailable = errors.New("store unavailable")

func (f failOn) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	if q.Collection == f.collection {
		return nil, errUnavailable
	}
	return f.Store.Query(ctx, q)
}

func (f failOn) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	if collection == f.collection {
		return nil, errUnavailable
	}
	return f.Store.Get(ctx, collection, id)
}

func TestWeeklyDistributionEmpty(t *testing.T) {
	want := []Bucket{
		{Name: "Sunday"}, {Name: "Monday"}, {Name: "Tuesday"}, {Name: "Wednesday"},
		{Name: "Thursday"}, {Name: "Friday"}, {Name: "Saturday"},
	}
	if diff := cmp.Diff(want, WeeklyDistribution(nil)); diff != "" {
		t.Errorf("WeeklyDistribution(nil) mismatch (-want +got):\n%s", diff)
	}
}

func TestWeeklyDistribution(t *testing.T) {
	appts := []clinic.Appointment{
		{Date: "2025-03-01"}, // Saturday
		{Date: "2025-03-03"}, // Monday
		{Date: "2025-03-08"}, // Saturday
		{Date: "next tuesday"},
		{Date: ""},
	}
	got := WeeklyDistribution(appts)
	want := []Bucket{
		{Name: "Sunday"}, {Name: "Monday", Value: 1}, {Name: "Tuesday"}, {Name: "Wednesday"},
		{Name: "Thursday"}, {Name: "Friday"}, {Name: "Saturday", Value: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("WeeklyDistribution mismatch (-want +got):\n%s", diff)
	}
}

func TestServiceDistributionFirstSeenOrder(t *testing.T) {
	appts := []clinic.Appointment{
		{Service: "custom_braces"},
		{Service: "prosthetic_limbs"},
		{Service: "custom_braces"},
		{Service: "gait_lab"},
		{Service: "prosthetic_limbs"},
		{Service: "custom_braces"},
	}
	got := ServiceDistribution(appts, catalog.Default().Label)
	want := []Bucket{
		{Name: "Custom Braces", Value: 3},
		{Name: "Prosthetic Limbs", Value: 2},
		{Name: "gait_lab", Value: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ServiceDistribution mismatch (-want +got):\n%s", diff)
	}

	if got := ServiceDistribution(nil, catalog.Default().Label); got == nil || len(got) != 0 {
		t.Errorf("ServiceDistribution(nil) = %#v, want empty non-nil", got)
	}
}

func TestCurrentStage(t *testing.T) {
	f := newFixture(t)
	f.stage("s1", clinic.TreatmentStage{PatientID: "done", Stage: clinic.StageCompleted, Date: epoch})

	f.stage("s2", clinic.TreatmentStage{PatientID: "mid", Stage: clinic.StageAssessment, Date: epoch})
	f.stage("s3", clinic.TreatmentStage{PatientID: "mid", Stage: clinic.StageFitting, Date: epoch.Add(48 * time.Hour)})
	f.stage("s4", clinic.TreatmentStage{PatientID: "mid", Stage: clinic.StageDesign, Date: epoch.Add(24 * time.Hour)})

	f.stage("s5", clinic.TreatmentStage{PatientID: "finished", Stage: clinic.StageFinalAssessment, Date: epoch})
	f.stage("s6", clinic.TreatmentStage{PatientID: "finished", Stage: clinic.StageCompleted, Date: epoch.Add(time.Hour)})

	a := New(f.store, nil)
	cases := map[string]string{
		"nobody":   NotStarted,
		"done":     NotStarted,
		"mid":      string(clinic.StageFitting),
		"finished": string(clinic.StageFinalAssessment),
	}
	for uid, want := range cases {
		got, err := a.CurrentStage(context.Background(), uid)
		if err != nil {
			t.Fatalf("CurrentStage(%q): %v", uid, err)
		}
		if got != want {
			t.Errorf("CurrentStage(%q) = %q, want %q", uid, got, want)
		}
	}
}

func seedRoster(f *fixture) {
	f.user(clinic.User{UID: "patientA", Email: "a@example.com", DisplayName: "Amani", Role: clinic.RolePatient, CreatedAt: epoch, IsActive: true})
	f.user(clinic.User{UID: "patientB", Role: clinic.RolePatient, CreatedAt: epoch.Add(time.Hour), IsActive: true})
	f.user(clinic.User{UID: "doc", DisplayName: "Dr. Otieno", Role: clinic.RoleDoctor, CreatedAt: epoch, IsActive: true})

	f.appointment("a1", clinic.Appointment{UserID: "patientA", Service: "prosthetic_limbs", Date: "2025-02-10", Status: clinic.StatusCompleted, CreatedAt: epoch})
	f.appointment("a2", clinic.Appointment{UserID: "patientA", Service: "custom_braces", Date: "2025-03-04", Status: clinic.StatusConfirmed, CreatedAt: epoch.Add(time.Minute)})
	f.appointment("g1", clinic.Appointment{FullName: "Walk In", Service: "orthotic_insoles", Date: "2025-03-01", Status: clinic.StatusPending, CreatedAt: epoch.Add(2 * time.Minute)})
}

func TestPatientRecords(t *testing.T) {
	f := newFixture(t)
	seedRoster(f)
	f.stage("s1", clinic.TreatmentStage{PatientID: "patientA", Stage: clinic.StageMeasurement, Date: epoch})

	a := New(f.store, nil, WithConcurrency(1))
	got, err := a.PatientRecords(context.Background())
	if err != nil {
		t.Fatalf("PatientRecords: %v", err)
	}

	want := []PatientRecord{
		{
			UID: "patientB", Name: NoName, Email: NoEmail, CreatedAt: epoch.Add(time.Hour),
			AppointmentsCount: 0, LastAppointment: NeverVisited, CurrentStage: NotStarted,
		},
		{
			UID: "patientA", Name: "Amani", Email: "a@example.com", CreatedAt: epoch,
			AppointmentsCount: 2, LastAppointment: "2025-03-04", CurrentStage: string(clinic.StageMeasurement),
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("PatientRecords mismatch (-want +got):\n%s", diff)
	}
}

func TestPatientRecordsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	seedRoster(f)

	a := New(failOn{Store: f.store, collection: clinic.CollectionTreatmentStages}, nil)
	got, err := a.PatientRecords(context.Background())
	if !errors.Is(err, errUnavailable) {
		t.Fatalf("PatientRecords error = %v, want errUnavailable", err)
	}
	if got != nil {
		t.Errorf("PatientRecords returned partial rows: %+v", got)
	}
}

func TestPatientRecordsEmptyRoster(t *testing.T) {
	a := New(docstore.NewMemoryStore(), nil)
	got, err := a.PatientRecords(context.Background())
	if err != nil {
		t.Fatalf("PatientRecords: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("PatientRecords = %+v, want empty", got)
	}
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	seedRoster(f)

	nairobi := time.FixedZone("EAT", 3*60*60)
	// 22:30 UTC on Feb 28 is already March 1 in the clinic's zone.
	now := time.Date(2025, 2, 28, 22, 30, 0, 0, time.UTC)
	a := New(f.store, nil, WithClock(func() time.Time { return now }), WithLocation(nairobi))

	got, err := a.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}

	wantStats := Stats{
		TotalPatients:       2,
		TotalAppointments:   3,
		PendingAppointments: 1,
		TodayAppointments:   1,
		Weekly: []Bucket{
			{Name: "Sunday"}, {Name: "Monday", Value: 1}, {Name: "Tuesday", Value: 1}, {Name: "Wednesday"},
			{Name: "Thursday"}, {Name: "Friday"}, {Name: "Saturday", Value: 1},
		},
	}
	if diff := cmp.Diff(wantStats, got.Stats, cmpopts.IgnoreFields(Stats{}, "ByService")); diff != "" {
		t.Errorf("Stats mismatch (-want +got):\n%s", diff)
	}
	if len(got.Stats.ByService) != 3 {
		t.Errorf("ByService = %+v, want 3 buckets", got.Stats.ByService)
	}

	wantRecent := []RecentAppointment{
		{ID: "g1", PatientName: "Walk In", Service: "orthotic_insoles", Date: "2025-03-01", Status: clinic.StatusPending},
		{ID: "a2", PatientName: "Amani", Service: "custom_braces", Date: "2025-03-04", Status: clinic.StatusConfirmed},
		{ID: "a1", PatientName: "Amani", Service: "prosthetic_limbs", Date: "2025-02-10", Status: clinic.StatusCompleted},
	}
	if diff := cmp.Diff(wantRecent, got.RecentAppointments); diff != "" {
		t.Errorf("RecentAppointments mismatch (-want +got):\n%s", diff)
	}

	wantPatients := []RecentPatient{
		{UID: "patientB", Name: NoName, Email: NoEmail, CreatedAt: epoch.Add(time.Hour)},
		{UID: "patientA", Name: "Amani", Email: "a@example.com", CreatedAt: epoch},
	}
	if diff := cmp.Diff(wantPatients, got.RecentPatients); diff != "" {
		t.Errorf("RecentPatients mismatch (-want +got):\n%s", diff)
	}
}

func TestDashboardFailsWhole(t *testing.T) {
	f := newFixture(t)
	seedRoster(f)

	a := New(failOn{Store: f.store, collection: clinic.CollectionAppointments}, nil)
	got, err := a.Dashboard(context.Background())
	if !errors.Is(err, errUnavailable) {
		t.Fatalf("Dashboard error = %v, want errUnavailable", err)
	}
	if got != nil {
		t.Errorf("Dashboard returned partial view: %+v", got)
	}
}

func TestRecentAppointmentsNameLookupFailureFallsBack(t *testing.T) {
	f := newFixture(t)
	f.appointment("a1", clinic.Appointment{UserID: "patientA", FullName: "Booked As", CreatedAt: epoch})

	a := New(failOn{Store: f.store, collection: clinic.CollectionUsers}, nil)
	got, err := a.RecentAppointments(context.Background())
	if err != nil {
		t.Fatalf("RecentAppointments: %v", err)
	}
	if len(got) != 1 || got[0].PatientName != "Booked As" {
		t.Errorf("RecentAppointments = %+v, want fallback name", got)
	}
}

func TestDoctors(t *testing.T) {
	f := newFixture(t)
	f.user(clinic.User{UID: "d2", DisplayName: "Dr. Wekesa", Email: "wekesa@limbs.example", Role: clinic.RoleDoctor, IsActive: true})
	f.user(clinic.User{UID: "d1", DisplayName: "Dr. Achieng", Email: "achieng@limbs.example", Role: clinic.RoleDoctor, IsActive: false})
	f.user(clinic.User{UID: "p1", DisplayName: "A Patient", Role: clinic.RolePatient, IsActive: true})
	_, err := f.store.Create(context.Background(), clinic.CollectionDoctorProfiles, map[string]interface{}{
		"userId": "d2", "specialization": "Prosthetics", "phone": "0700000000",
	})
	if err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	got, err := New(f.store, nil).Doctors(context.Background())
	if err != nil {
		t.Fatalf("Doctors: %v", err)
	}
	want := []DoctorRecord{
		{UID: "d1", Name: "Dr. Achieng", Email: "achieng@limbs.example", IsActive: false},
		{UID: "d2", Name: "Dr. Wekesa", Email: "wekesa@limbs.example", IsActive: true, Specialization: "Prosthetics", Phone: "0700000000"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Doctors mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterPatients(t *testing.T) {
	rows := []PatientRecord{
		{UID: "1", Name: "Amani Juma", Email: "amani@example.com"},
		{UID: "2", Name: "Baraka", Email: "b.odhiambo@example.com"},
		{UID: "3", Name: NoName, Email: NoEmail},
	}
	cases := []struct {
		term string
		want []string
	}{
		{"", []string{"1", "2", "3"}},
		{"  ", []string{"1", "2", "3"}},
		{"AMANI", []string{"1"}},
		{"odhiambo", []string{"2"}},
		{"example.com", []string{"1", "2"}},
		{"zzz", []string{}},
	}
	for _, tc := range cases {
		got := []string{}
		for _, r := range FilterPatients(rows, tc.term) {
			got = append(got, r.UID)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("FilterPatients(%q) mismatch (-want +got):\n%s", tc.term, diff)
		}
	}
}

func TestPatientDetail(t *testing.T) {
	f := newFixture(t)
	f.user(clinic.User{UID: "p1", DisplayName: "Amina", Email: "a@example.com", Role: clinic.RolePatient, IsActive: true, CreatedAt: epoch})
	f.user(clinic.User{UID: "d1", DisplayName: "Dr. Njeri", Role: clinic.RoleDoctor, IsActive: true})
	f.appointment("a1", clinic.Appointment{UserID: "p1", Date: "2025-02-01", Status: clinic.StatusCompleted})
	f.appointment("a2", clinic.Appointment{UserID: "p1", Date: "2025-03-01", Status: clinic.StatusConfirmed})
	f.stage("s1", clinic.TreatmentStage{PatientID: "p1", Stage: clinic.StageFitting, Date: epoch.Add(-48 * time.Hour)})
	f.stage("s2", clinic.TreatmentStage{PatientID: "p1", Stage: clinic.StageCompleted, Date: epoch})

	a := New(f.store, nil)
	got, err := a.Patient(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Patient() error = %v", err)
	}

	want := PatientRecord{
		UID:               "p1",
		Name:              "Amina",
		Email:             "a@example.com",
		CreatedAt:         epoch,
		AppointmentsCount: 2,
		LastAppointment:   "2025-03-01",
		CurrentStage:      string(clinic.StageFitting),
	}
	if diff := cmp.Diff(want, got.Patient); diff != "" {
		t.Errorf("Patient() record mismatch (-want +got):\n%s", diff)
	}
	if got.Profile != nil {
		t.Errorf("Profile = %+v, want nil without a profile", got.Profile)
	}
	if got.Appointments[0].ID != "a2" {
		t.Errorf("first appointment = %s, want latest date first", got.Appointments[0].ID)
	}
	if len(got.Stages) != 2 || got.Stages[0].ID != "s2" {
		t.Errorf("stages = %+v, want most recent first", got.Stages)
	}

	for _, uid := range []string{"d1", "missing"} {
		if _, err := a.Patient(context.Background(), uid); !errors.Is(err, ErrNotAPatient) {
			t.Errorf("Patient(%s) error = %v, want ErrNotAPatient", uid, err)
		}
	}
}
