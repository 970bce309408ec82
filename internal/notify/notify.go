// Package notify delivers booking notifications to patients and staff.
package notify

import (
	"context"
	"errors"
	"log/slog"
)

// Message is channel-neutral. To addresses one recipient by email; Staff
// marks a broadcast to clinic staff.
type Message struct {
	To      string
	ToName  string
	Subject string
	Body    string
	Staff   bool
}

type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Multi delivers to every channel and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Log records messages instead of delivering them. Used when no channel is
// configured.
type Log struct{}

func (Log) Notify(_ context.Context, msg Message) error {
	slog.Info("notification suppressed, no channel configured",
		"to", msg.To, "staff", msg.Staff, "subject", msg.Subject)
	return nil
}
