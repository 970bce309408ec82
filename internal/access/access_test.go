package access

import (
	"testing"

	"github.com/limbsorthopaedic/clinic-backend/internal/clinic"
	"github.com/limbsorthopaedic/clinic-backend/internal/identity"
	"github.com/limbsorthopaedic/clinic-backend/internal/session"
)

func sessionFor(role clinic.Role) session.Session {
	return session.Session{User: &identity.Identity{UID: "u-" + string(role)}, Role: role}
}

func TestAdmit(t *testing.T) {
	cases := []struct {
		name     string
		session  session.Session
		required clinic.Role
		want     Decision
	}{
		{"anonymous any area", session.Anonymous(), "", RedirectTo(LoginPath)},
		{"anonymous patient area", session.Anonymous(), clinic.RolePatient, RedirectTo(LoginPath)},
		{"anonymous doctor area", session.Anonymous(), clinic.RoleDoctor, RedirectTo(LoginPath)},
		{"anonymous owner area", session.Anonymous(), clinic.RoleOwner, RedirectTo(LoginPath)},

		{"no role required", sessionFor(clinic.RolePatient), "", Allow},
		{"undefined role, no requirement", sessionFor(""), "", Allow},

		{"patient in patient area", sessionFor(clinic.RolePatient), clinic.RolePatient, Allow},
		{"patient in doctor area", sessionFor(clinic.RolePatient), clinic.RoleDoctor, RedirectTo(HomePath)},
		{"patient in owner area", sessionFor(clinic.RolePatient), clinic.RoleOwner, RedirectTo(HomePath)},

		{"doctor in doctor area", sessionFor(clinic.RoleDoctor), clinic.RoleDoctor, Allow},
		{"doctor in owner area", sessionFor(clinic.RoleDoctor), clinic.RoleOwner, Allow},
		{"doctor in patient area", sessionFor(clinic.RoleDoctor), clinic.RolePatient, RedirectTo(HomePath)},

		{"owner in owner area", sessionFor(clinic.RoleOwner), clinic.RoleOwner, Allow},
		{"owner in doctor area", sessionFor(clinic.RoleOwner), clinic.RoleDoctor, RedirectTo(HomePath)},

		{"undefined role is locked out", sessionFor(""), clinic.RolePatient, RedirectTo(HomePath)},
		{"undefined role in owner area", sessionFor(""), clinic.RoleOwner, RedirectTo(HomePath)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Admit(tc.session, tc.required); got != tc.want {
				t.Errorf("Admit() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestPolicyWithoutGrantIsStrict(t *testing.T) {
	p := NewPolicy()
	if got := p.Admit(sessionFor(clinic.RoleDoctor), clinic.RoleOwner); got != RedirectTo(HomePath) {
		t.Errorf("doctor admitted to owner area without grant: %+v", got)
	}
}

func TestCapabilities(t *testing.T) {
	p := DefaultPolicy()
	if !p.Can(clinic.RoleDoctor, clinic.RoleOwner) {
		t.Errorf("doctor should hold the owner capability")
	}
	if p.Can(clinic.RoleOwner, clinic.RoleDoctor) {
		t.Errorf("owner must not hold the doctor capability")
	}
	if p.Can("", clinic.RolePatient) {
		t.Errorf("undefined role must hold no capability")
	}
}
