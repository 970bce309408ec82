package aggregate

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/limbsorthopaedic/clinic-backend/internal/clinic"
	"github.com/limbsorthopaedic/clinic-backend/internal/docstore"
)

const recentLimit = 5

type Stats struct {
	TotalPatients       int      `json:"totalPatients"`
	TotalAppointments   int      `json:"totalAppointments"`
	PendingAppointments int      `json:"pendingAppointments"`
	TodayAppointments   int      `json:"todayAppointments"`
	Weekly              []Bucket `json:"weeklyAppointmentsData"`
	ByService           []Bucket `json:"patientsByServiceData"`
}

type RecentAppointment struct {
	ID          string                   `json:"id"`
	PatientName string                   `json:"patientName"`
	Service     string                   `json:"service"`
	Date        string                   `json:"date"`
	Time        clinic.TimeSlot          `json:"time"`
	Status      clinic.AppointmentStatus `json:"status"`
}

type RecentPatient struct {
	UID       string    `json:"uid"`
	Name      string    `json:"displayName"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type Dashboard struct {
	Stats              Stats               `json:"stats"`
	RecentAppointments []RecentAppointment `json:"recentAppointments"`
	RecentPatients     []RecentPatient     `json:"recentPatients"`
}

// Dashboard runs the stats, recent-appointments and recent-patients reads
// concurrently and returns only once all of them have succeeded.
func (a *Aggregator) Dashboard(ctx context.Context) (*Dashboard, error) {
	ctx, span := a.startSpan(ctx, "Aggregator.Dashboard")
	defer span.End()

	var d Dashboard
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		stats, err := a.Stats(ctx)
		if err != nil {
			return err
		}
		d.Stats = *stats
		return nil
	})
	eg.Go(func() error {
		recent, err := a.RecentAppointments(ctx)
		if err != nil {
			return err
		}
		d.RecentAppointments = recent
		return nil
	})
	eg.Go(func() error {
		recent, err := a.RecentPatients(ctx)
		if err != nil {
			return err
		}
		d.RecentPatients = recent
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}

func (a *Aggregator) Stats(ctx context.Context) (*Stats, error) {
	ctx, span := a.startSpan(ctx, "Aggregator.Stats")
	defer span.End()

	var (
		patients []clinic.User
		appts    []clinic.Appointment
	)
	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		patients, err = a.Roster(gctx, clinic.RolePatient, Unordered, 0)
		return err
	})
	eg.Go(func() error {
		var err error
		appts, err = a.AllAppointments(gctx)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	today := a.now().In(a.loc).Format(clinic.DateLayout)
	s := &Stats{
		TotalPatients:     len(patients),
		TotalAppointments: len(appts),
		Weekly:            WeeklyDistribution(appts),
		ByService:         ServiceDistribution(appts, a.catalog.Label),
	}
	for _, appt := range appts {
		if appt.Status == clinic.StatusPending {
			s.PendingAppointments++
		}
		if appt.Date == today {
			s.TodayAppointments++
		}
	}
	return s, nil
}

func (a *Aggregator) AllAppointments(ctx context.Context) ([]clinic.Appointment, error) {
	docs, err := a.store.Query(ctx, docstore.From(clinic.CollectionAppointments))
	if err != nil {
		return nil, queryError("appointments", err)
	}
	appts := make([]clinic.Appointment, 0, len(docs))
	for _, doc := range docs {
		appts = append(appts, clinic.AppointmentFromDocument(doc))
	}
	return appts, nil
}

// RecentAppointments returns the newest bookings. The patient name prefers
// the owner's display name; a failed lookup falls back to the name on the
// booking and does not fail the read.
func (a *Aggregator) RecentAppointments(ctx context.Context) ([]RecentAppointment, error) {
	ctx, span := a.startSpan(ctx, "Aggregator.RecentAppointments")
	defer span.End()

	docs, err := a.store.Query(ctx, docstore.From(clinic.CollectionAppointments).
		OrderBy("createdAt", docstore.Desc).
		Take(recentLimit))
	if err != nil {
		return nil, queryError("recent appointments", err)
	}

	out := make([]RecentAppointment, len(docs))
	err = a.fanOut(ctx, len(docs), func(ctx context.Context, i int) error {
		appt := clinic.AppointmentFromDocument(docs[i])
		out[i] = RecentAppointment{
			ID:          appt.ID,
			PatientName: a.patientName(ctx, appt),
			Service:     appt.Service,
			Date:        appt.Date,
			Time:        appt.Time,
			Status:      appt.Status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Aggregator) patientName(ctx context.Context, appt clinic.Appointment) string {
	if appt.UserID == "" {
		return appt.FullName
	}
	doc, err := a.store.Get(ctx, clinic.CollectionUsers, appt.UserID)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("patient name lookup failed", "user_id", appt.UserID, "appointment_id", appt.ID, "error", err)
		}
		return appt.FullName
	}
	return orDefault(clinic.UserFromDocument(*doc).DisplayName, appt.FullName)
}

func (a *Aggregator) RecentPatients(ctx context.Context) ([]RecentPatient, error) {
	patients, err := a.Roster(ctx, clinic.RolePatient, ByNewest, recentLimit)
	if err != nil {
		return nil, err
	}
	out := make([]RecentPatient, 0, len(patients))
	for _, p := range patients {
		out = append(out, RecentPatient{
			UID:       p.UID,
			Name:      orDefault(p.DisplayName, NoName),
			Email:     orDefault(p.Email, NoEmail),
			CreatedAt: p.CreatedAt,
		})
	}
	return out, nil
}
