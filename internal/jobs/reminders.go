package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/limbsorthopaedic/clinic-backend/internal/catalog"
	"github.com/limbsorthopaedic/clinic-backend/internal/clinic"
	"github.com/limbsorthopaedic/clinic-backend/internal/notify"
)

// AppointmentLister is the slice of the appointment service reminders need.
type AppointmentLister interface {
	DueOn(ctx context.Context, date string, status clinic.AppointmentStatus) ([]clinic.Appointment, error)
}

// Reminders emails patients about their confirmed appointments tomorrow.
type Reminders struct {
	appointments AppointmentLister
	catalog      *catalog.Catalog
	notifier     notify.Notifier
	loc          *time.Location
	now          func() time.Time
}

func NewReminders(appts AppointmentLister, cat *catalog.Catalog, n notify.Notifier, loc *time.Location) *Reminders {
	if loc == nil {
		loc = time.UTC
	}
	return &Reminders{appointments: appts, catalog: cat, notifier: n, loc: loc, now: time.Now}
}

// Run sends one reminder per appointment and reports how many were sent.
// A failed delivery does not stop the rest.
func (r *Reminders) Run(ctx context.Context) (int, error) {
	tomorrow := r.now().In(r.loc).AddDate(0, 0, 1).Format(clinic.DateLayout)
	appts, err := r.appointments.DueOn(ctx, tomorrow, clinic.StatusConfirmed)
	if err != nil {
		return 0, err
	}

	sent := 0
	var errs []error
	for _, appt := range appts {
		if appt.Email == "" {
			continue
		}
		if err := r.notifier.Notify(ctx, notify.Reminder(appt, r.catalog.Label(appt.Service))); err != nil {
			errs = append(errs, fmt.Errorf("appointment %s: %w", appt.ID, err))
			continue
		}
		sent++
	}
	slog.Info("appointment reminders sent", "date", tomorrow, "due", len(appts), "sent", sent)
	return sent, errors.Join(errs...)
}
