// Package scheduler runs the background maintenance of the dead stock
// service: a nightly sweep that deletes persisted reconciliation records past
// the retention window, plus a monitor that warns when the sweep stalls.
package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/noine32/deadstock-search-replit/interfaces"
	"github.com/noine32/deadstock-search-replit/logging"
)

// Scheduler drives retention cleanup using an injected record store.
type Scheduler struct {
	records   interfaces.RecordStore
	retention time.Duration
	scheduler *gocron.Scheduler
	lastSweep atomic.Value // time.Time
}

// NewScheduler creates a scheduler deleting records older than retentionDays.
func NewScheduler(records interfaces.RecordStore, retentionDays int) *Scheduler {
	return &Scheduler{
		records:   records,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		scheduler: gocron.NewScheduler(time.Local),
	}
}

// Start runs an initial sweep, schedules the nightly one and starts the
// stall monitor.
func (s *Scheduler) Start() error {
	if err := s.RunCleanup(context.Background()); err != nil {
		logging.Error("Initial retention sweep failed", "error", err)
		return fmt.Errorf("initial retention sweep failed: %w", err)
	}

	_, err := s.scheduler.Every(1).Days().At("03:00").Do(func() {
		if err := s.RunCleanup(context.Background()); err != nil {
			logging.Error("Retention sweep failed", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule retention sweep", "error", err)
		return fmt.Errorf("failed to schedule retention sweep: %w", err)
	}

	s.scheduler.StartAsync()
	s.startMonitoring()

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// RunCleanup deletes records uploaded before the retention cutoff.
func (s *Scheduler) RunCleanup(ctx context.Context) error {
	cutoff := time.Now().Add(-s.retention)
	start := time.Now()

	deleted, err := s.records.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("deleting records before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	s.lastSweep.Store(time.Now())
	logging.Info("Retention sweep completed",
		"deleted", deleted,
		"cutoff", cutoff.Format(time.RFC3339),
		"duration", time.Since(start).String())
	return nil
}

// LastSweep returns when the last successful sweep finished.
func (s *Scheduler) LastSweep() time.Time {
	if v := s.lastSweep.Load(); v != nil {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}
	return time.Time{}
}

// startMonitoring warns when no sweep has finished for over a day.
func (s *Scheduler) startMonitoring() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			last := s.LastSweep()
			if !last.IsZero() && time.Since(last) > 25*time.Hour {
				logging.Warn("Retention sweep hasn't run in over 25 hours",
					"last_sweep", last.Format(time.RFC3339))
			}
		}
	}()
}
