// Package jobs runs the server's periodic background work.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"gorm.io/gorm"

	"github.com/limbsorthopaedic/clinic-backend/internal/logging"
)

const jobTimeout = 5 * time.Minute

// Scheduler wraps a gocron scheduler whose jobs share one lifetime context,
// cancelled by Stop.
type Scheduler struct {
	cron   *gocron.Scheduler
	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	ctx, cancel := context.WithCancel(context.Background())
	cron := gocron.NewScheduler(loc)
	cron.SingletonModeAll()
	return &Scheduler{cron: cron, ctx: ctx, cancel: cancel}
}

// ScheduleReminders runs r on a cron expression evaluated in the clinic's
// timezone.
func (s *Scheduler) ScheduleReminders(spec string, r *Reminders) error {
	_, err := s.cron.Cron(spec).Do(func() {
		ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
		defer cancel()
		if _, err := r.Run(ctx); err != nil {
			slog.Error("appointment reminders failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}
	return nil
}

// ScheduleLogRetention purges old system_logs rows once a day.
func (s *Scheduler) ScheduleLogRetention(db *gorm.DB, retention time.Duration) error {
	_, err := s.cron.Every(1).Day().At("03:00").Do(func() {
		ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
		defer cancel()
		deleted, err := logging.PurgeSystemLogs(ctx, db, retention)
		if err != nil {
			slog.Error("log cleanup failed", "error", err)
			return
		}
		if deleted > 0 {
			slog.Info("log cleanup completed", "deleted", deleted)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule log cleanup: %w", err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.StartAsync()
	slog.Info("background jobs started", "jobs", len(s.cron.Jobs()))
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.cron.Stop()
}
