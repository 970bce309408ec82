package notify

import (
	"bytes"
	"text/template"

	"github.com/limbsorthopaedic/clinic-backend/internal/clinic"
)

const bookingPlain = `Hello {{.Appointment.FullName}},

We have received your appointment request for {{.Service}} on {{.Appointment.Date}} ({{.Appointment.Time}}).
Its status is {{.Appointment.Status}}. Our team will contact you on {{.Appointment.Phone}} to confirm.

LIMBS Orthopaedic
`

const staffPlain = `{{.Appointment.FullName}} requested {{.Service}} on {{.Appointment.Date}} ({{.Appointment.Time}}).`

const reminderPlain = `Hello {{.Appointment.FullName}},

This is a reminder of your {{.Service}} appointment on {{.Appointment.Date}} ({{.Appointment.Time}}).

LIMBS Orthopaedic
`

var (
	bookingTemplate  = template.Must(template.New("booking").Parse(bookingPlain))
	staffTemplate    = template.Must(template.New("staff").Parse(staffPlain))
	reminderTemplate = template.Must(template.New("reminder").Parse(reminderPlain))
)

type appointmentView struct {
	Appointment clinic.Appointment
	Service     string
}

func render(t *template.Template, appt clinic.Appointment, serviceLabel string) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, appointmentView{Appointment: appt, Service: serviceLabel}); err != nil {
		return serviceLabel + " on " + appt.Date
	}
	return buf.String()
}

// BookingConfirmation is sent to the person who booked.
func BookingConfirmation(appt clinic.Appointment, serviceLabel string) Message {
	return Message{
		To:      appt.Email,
		ToName:  appt.FullName,
		Subject: "Your appointment request",
		Body:    render(bookingTemplate, appt, serviceLabel),
	}
}

// NewBookingAlert tells staff that a booking is waiting for review.
func NewBookingAlert(appt clinic.Appointment, serviceLabel string) Message {
	return Message{
		Subject: "New appointment request",
		Body:    render(staffTemplate, appt, serviceLabel),
		Staff:   true,
	}
}

func Reminder(appt clinic.Appointment, serviceLabel string) Message {
	return Message{
		To:      appt.Email,
		ToName:  appt.FullName,
		Subject: "Appointment reminder",
		Body:    render(reminderTemplate, appt, serviceLabel),
	}
}
