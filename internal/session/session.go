// Package session turns provider identities into (user, role) sessions.
package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/limbsorthopaedic/clinic-backend/internal/clinic"
	"github.com/limbsorthopaedic/clinic-backend/internal/docstore"
	"github.com/limbsorthopaedic/clinic-backend/internal/identity"
)

// Session is the resolved state of one principal. An empty Role with a
// non-nil User means the role record could not be read.
type Session struct {
	User *identity.Identity `json:"user"`
	Role clinic.Role        `json:"role"`
}

func Anonymous() Session { return Session{} }

func (s Session) Authenticated() bool { return s.User != nil }

func (s Session) UID() string {
	if s.User == nil {
		return ""
	}
	return s.User.UID
}

type Resolver struct {
	store docstore.Store
}

func NewResolver(store docstore.Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve reads users/{uid} once and merges the stored role into the
// session. Read failures leave the role undefined; they never fail the
// session itself.
func (r *Resolver) Resolve(ctx context.Context, id *identity.Identity) Session {
	if id == nil {
		return Anonymous()
	}

	user := *id
	s := Session{User: &user}

	doc, err := r.store.Get(ctx, clinic.CollectionUsers, id.UID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			slog.Warn("role record missing, session has no role", "user_id", id.UID)
		} else {
			slog.Warn("role lookup failed, session has no role", "user_id", id.UID, "error", err)
		}
		return s
	}

	record := clinic.UserFromDocument(*doc)
	if user.DisplayName == "" {
		user.DisplayName = record.DisplayName
	}
	if user.Email == "" {
		user.Email = record.Email
	}

	if !record.IsActive {
		slog.Warn("account deactivated, session has no role", "user_id", id.UID)
		return s
	}
	if !record.Role.Valid() {
		slog.Warn("unrecognised role on record", "user_id", id.UID, "role", string(record.Role))
		return s
	}
	s.Role = record.Role
	return s
}

// Watch resolves a stream of identity changes. Output order follows input
// order. The returned channel closes when events closes or ctx is done;
// cancelling ctx also aborts a resolution in flight.
func (r *Resolver) Watch(ctx context.Context, events <-chan *identity.Identity) <-chan Session {
	out := make(chan Session)
	go func() {
		defer close(out)
		for {
			var id *identity.Identity
			select {
			case <-ctx.Done():
				return
			case next, ok := <-events:
				if !ok {
					return
				}
				id = next
			}

			s := r.Resolve(ctx, id)
			if ctx.Err() != nil {
				return
			}

			select {
			case out <- s:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
