// Package access decides whether a session may enter a role-gated area.
package access

import (
	"github.com/limbsorthopaedic/clinic-backend/internal/clinic"
	"github.com/limbsorthopaedic/clinic-backend/internal/session"
)

const (
	LoginPath = "/login"
	HomePath  = "/"
)

// Decision is either Allowed or a redirect target.
type Decision struct {
	Allowed  bool   `json:"allowed"`
	Redirect string `json:"redirect,omitempty"`
}

var Allow = Decision{Allowed: true}

func RedirectTo(target string) Decision { return Decision{Redirect: target} }

// Grant extends a role with a capability it would not otherwise hold.
type Grant struct {
	Name       string
	Role       clinic.Role
	Capability clinic.Role
}

// DoctorActsAsOwner lets doctors into owner-gated areas. It is one-way:
// owners do not gain doctor capabilities.
var DoctorActsAsOwner = Grant{
	Name:       "doctor-acts-as-owner",
	Role:       clinic.RoleDoctor,
	Capability: clinic.RoleOwner,
}

// Policy maps each role to its capability set. Every valid role holds its
// own capability; grants add more.
type Policy struct {
	capabilities map[clinic.Role]map[clinic.Role]struct{}
}

func NewPolicy(grants ...Grant) *Policy {
	p := &Policy{capabilities: make(map[clinic.Role]map[clinic.Role]struct{})}
	for _, r := range []clinic.Role{clinic.RolePatient, clinic.RoleDoctor, clinic.RoleOwner} {
		p.add(r, r)
	}
	for _, g := range grants {
		p.add(g.Role, g.Capability)
	}
	return p
}

// DefaultPolicy is the clinic's policy.
func DefaultPolicy() *Policy {
	return NewPolicy(DoctorActsAsOwner)
}

func (p *Policy) add(role, capability clinic.Role) {
	set, ok := p.capabilities[role]
	if !ok {
		set = make(map[clinic.Role]struct{})
		p.capabilities[role] = set
	}
	set[capability] = struct{}{}
}

// Can reports whether role holds capability. The undefined role holds none.
func (p *Policy) Can(role, capability clinic.Role) bool {
	_, ok := p.capabilities[role][capability]
	return ok
}

// Admit evaluates a session against an optional required role.
func (p *Policy) Admit(s session.Session, required clinic.Role) Decision {
	if !s.Authenticated() {
		return RedirectTo(LoginPath)
	}
	if required == "" {
		return Allow
	}
	if p.Can(s.Role, required) {
		return Allow
	}
	return RedirectTo(HomePath)
}

var defaultPolicy = DefaultPolicy()

// Admit evaluates s with the default policy.
func Admit(s session.Session, required clinic.Role) Decision {
	return defaultPolicy.Admit(s, required)
}
