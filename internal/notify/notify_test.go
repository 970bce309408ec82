package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/limbsorthopaedic/clinic-backend/internal/clinic"
)

type recorder struct {
	got []Message
	err error
}

func (r *recorder) Notify(_ context.Context, msg Message) error {
	r.got = append(r.got, msg)
	return r.err
}

func TestMultiDeliversToAllAndJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	ok := &recorder{}
	bad := &recorder{err: boom}

	err := Multi{bad, ok}.Notify(context.Background(), Message{Subject: "hi"})
	if !errors.Is(err, boom) {
		t.Fatalf("Notify error = %v, want boom", err)
	}
	if len(ok.got) != 1 {
		t.Errorf("healthy channel skipped after failure")
	}

	if err := (Multi{}).Notify(context.Background(), Message{}); err != nil {
		t.Errorf("empty Multi: %v", err)
	}
}

func TestTemplates(t *testing.T) {
	appt := clinic.Appointment{
		FullName: "Zawadi Mutua",
		Email:    "zawadi@example.com",
		Phone:    "0712345678",
		Service:  "prosthetic_limbs",
		Date:     "2025-03-01",
		Time:     clinic.SlotMorning,
		Status:   clinic.StatusPending,
	}

	confirm := BookingConfirmation(appt, "Prosthetic Limbs")
	if confirm.To != appt.Email || confirm.Staff {
		t.Errorf("confirmation addressed wrongly: %+v", confirm)
	}
	for _, want := range []string{"Zawadi Mutua", "Prosthetic Limbs", "2025-03-01", "morning", "pending", "0712345678"} {
		if !strings.Contains(confirm.Body, want) {
			t.Errorf("confirmation body missing %q:\n%s", want, confirm.Body)
		}
	}

	alert := NewBookingAlert(appt, "Prosthetic Limbs")
	want := Message{
		Subject: "New appointment request",
		Body:    "Zawadi Mutua requested Prosthetic Limbs on 2025-03-01 (morning).",
		Staff:   true,
	}
	if diff := cmp.Diff(want, alert); diff != "" {
		t.Errorf("alert mismatch (-want +got):\n%s", diff)
	}

	if r := Reminder(appt, "Prosthetic Limbs"); !strings.Contains(r.Body, "reminder") {
		t.Errorf("reminder body = %q", r.Body)
	}
}

func TestSendGridSkipsStaffBroadcasts(t *testing.T) {
	s := NewSendGrid("unused", "Clinic", "clinic@example.com")
	if err := s.Notify(context.Background(), Message{Staff: true, Subject: "x"}); err != nil {
		t.Errorf("Notify staff broadcast: %v", err)
	}

	m := s.buildMail(Message{To: "p@example.com", ToName: "P", Subject: "S", Body: "B"})
	if m.Subject != "S" || m.From.Address != "clinic@example.com" {
		t.Errorf("unexpected mail header: %+v", m)
	}
	if len(m.Personalizations) != 1 || m.Personalizations[0].To[0].Address != "p@example.com" {
		t.Errorf("unexpected recipients: %+v", m.Personalizations)
	}
	if len(m.Content) != 1 || m.Content[0].Value != "B" {
		t.Errorf("unexpected content: %+v", m.Content)
	}
}

func TestFCMOnlyHandlesStaff(t *testing.T) {
	f := NewFCM(nil, "staff")
	if err := f.Notify(context.Background(), Message{To: "p@example.com"}); err != nil {
		t.Errorf("Notify patient message: %v", err)
	}
	m := f.buildMessage(Message{Subject: "New", Body: "Body", Staff: true})
	if m.Topic != "staff" || m.Notification.Title != "New" || m.Notification.Body != "Body" {
		t.Errorf("unexpected push: %+v", m)
	}
}
