package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/limbsorthopaedic/clinic-backend/internal/catalog"
	"github.com/limbsorthopaedic/clinic-backend/internal/clinic"
	"github.com/limbsorthopaedic/clinic-backend/internal/docstore"
	"github.com/limbsorthopaedic/clinic-backend/internal/dto"
	"github.com/limbsorthopaedic/clinic-backend/internal/notify"
)

const notifyTimeout = 10 * time.Second

type AppointmentService struct {
	store    docstore.Store
	catalog  *catalog.Catalog
	notifier notify.Notifier
	now      func() time.Time
}

func NewAppointmentService(store docstore.Store, cat *catalog.Catalog, notifier notify.Notifier) *AppointmentService {
	if notifier == nil {
		notifier = notify.Log{}
	}
	return &AppointmentService{store: store, catalog: cat, notifier: notifier, now: time.Now}
}

// Book records a new pending appointment. userID is empty for guest
// bookings. Notification failures are logged and do not fail the booking.
func (s *AppointmentService) Book(ctx context.Context, userID string, req *dto.BookingRequest) (*clinic.Appointment, error) {
	if err := s.validateBooking(req); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	appt := clinic.Appointment{
		UserID:    userID,
		FullName:  strings.TrimSpace(req.FullName),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		Service:   req.Service,
		Date:      req.Date,
		Time:      clinic.TimeSlot(req.Time),
		Message:   strings.TrimSpace(req.Message),
		Status:    clinic.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	id, err := s.store.Create(ctx, clinic.CollectionAppointments, appt.Fields())
	if err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}
	appt.ID = id

	s.announce(ctx, appt)
	return &appt, nil
}

func (s *AppointmentService) announce(ctx context.Context, appt clinic.Appointment) {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	label := s.catalog.Label(appt.Service)
	for _, msg := range []notify.Message{
		notify.BookingConfirmation(appt, label),
		notify.NewBookingAlert(appt, label),
	} {
		if err := s.notifier.Notify(ctx, msg); err != nil {
			slog.Error("booking notification failed", "appointment_id", appt.ID, "subject", msg.Subject, "error", err)
		}
	}
}

func (s *AppointmentService) validateBooking(req *dto.BookingRequest) error {
	if len([]rune(strings.TrimSpace(req.FullName))) < 2 {
		return invalid("full name must be at least 2 characters")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(req.Email)); err != nil {
		return invalid("please enter a valid email address")
	}
	if len(strings.TrimSpace(req.Phone)) < 10 {
		return invalid("please enter a valid phone number")
	}
	if !s.catalog.Exists(req.Service) {
		return invalid("please select a service")
	}
	if _, err := time.Parse(clinic.DateLayout, req.Date); err != nil {
		return invalid("please select a date")
	}
	if !s.catalog.ValidSlot(clinic.TimeSlot(req.Time)) {
		return invalid("please select a time")
	}
	return nil
}

func (s *AppointmentService) Get(ctx context.Context, id string) (*clinic.Appointment, error) {
	doc, err := s.store.Get(ctx, clinic.CollectionAppointments, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("failed to read appointment: %w", err)
	}
	appt := clinic.AppointmentFromDocument(*doc)
	return &appt, nil
}

// ListForUser returns uid's own appointments, latest date first.
func (s *AppointmentService) ListForUser(ctx context.Context, uid string) ([]clinic.Appointment, error) {
	docs, err := s.store.Query(ctx, docstore.From(clinic.CollectionAppointments).
		Where("userId", docstore.OpEqual, uid))
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	appts := decodeAppointments(docs)
	sort.SliceStable(appts, func(i, j int) bool {
		if appts[i].Date != appts[j].Date {
			return appts[i].Date > appts[j].Date
		}
		return appts[i].CreatedAt.After(appts[j].CreatedAt)
	})
	return appts, nil
}

// List returns all appointments, newest booking first, optionally limited
// to one status.
func (s *AppointmentService) List(ctx context.Context, status string) ([]clinic.Appointment, error) {
	q := docstore.From(clinic.CollectionAppointments).OrderBy("createdAt", docstore.Desc)
	if status != "" {
		if !clinic.AppointmentStatus(status).Valid() {
			return nil, invalid("unknown status %q", status)
		}
		q = q.Where("status", docstore.OpEqual, status)
	}
	docs, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return decodeAppointments(docs), nil
}

// DueOn returns appointments on date with the given status.
func (s *AppointmentService) DueOn(ctx context.Context, date string, status clinic.AppointmentStatus) ([]clinic.Appointment, error) {
	docs, err := s.store.Query(ctx, docstore.From(clinic.CollectionAppointments).
		Where("date", docstore.OpEqual, date).
		Where("status", docstore.OpEqual, string(status)))
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments due %s: %w", date, err)
	}
	return decodeAppointments(docs), nil
}

// UpdateStatus applies a staff status change. Completed and cancelled
// appointments never change again.
func (s *AppointmentService) UpdateStatus(ctx context.Context, id, status string) (*clinic.Appointment, error) {
	next := clinic.AppointmentStatus(status)
	if !next.Valid() {
		return nil, invalid("status must be one of pending, confirmed, cancelled, completed")
	}

	appt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status == next {
		return appt, nil
	}
	if !clinic.CanTransition(appt.Status, next) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, appt.Status, next)
	}

	// The write only lands if nobody changed the status since the read.
	now := s.now().UTC()
	err = s.store.UpdateIf(ctx, clinic.CollectionAppointments, id, "status", string(appt.Status), map[string]interface{}{
		"status":    string(next),
		"updatedAt": now,
	})
	if err != nil {
		switch {
		case errors.Is(err, docstore.ErrNotFound):
			return nil, ErrAppointmentNotFound
		case errors.Is(err, docstore.ErrConflict):
			return nil, fmt.Errorf("%w: %s changed concurrently", ErrInvalidTransition, id)
		}
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}

	appt.Status = next
	appt.UpdatedAt = now
	return appt, nil
}

func decodeAppointments(docs []docstore.Document) []clinic.Appointment {
	appts := make([]clinic.Appointment, 0, len(docs))
	for _, doc := range docs {
		appts = append(appts, clinic.AppointmentFromDocument(doc))
	}
	return appts
}
