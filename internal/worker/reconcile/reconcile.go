// Package reconcile runs the periodic maintenance pass: counter
// reconciliation for every user plus expired session and reset token cleanup.
package reconcile

import (
	"context"
	"time"

	"wardrobe/internal/logger"
	"wardrobe/internal/wardrobe"
)

// Maintainer is satisfied by *wardrobe.Service.
type Maintainer interface {
	RunMaintenance(ctx context.Context) (*wardrobe.MaintenanceReport, error)
}

type Job struct {
	svc      Maintainer
	interval time.Duration
}

// NewJob returns a job that runs every interval. Intervals of zero or less
// fall back to one hour.
func NewJob(svc Maintainer, interval time.Duration) *Job {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Job{svc: svc, interval: interval}
}

// Start runs once immediately and then on every tick until ctx is cancelled.
func (j *Job) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	logger.Info("Reconcile job started", "interval", j.interval.String())

	j.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Reconcile job stopped")
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

func (j *Job) RunOnce(ctx context.Context) (*wardrobe.MaintenanceReport, error) {
	start := time.Now()

	report, err := j.svc.RunMaintenance(ctx)
	if err != nil {
		logger.Error("Reconcile job failed", "error", err)
		return report, err
	}

	logger.Info("Reconcile job completed",
		"users_checked", report.UsersChecked,
		"users_repaired", report.UsersRepaired,
		"users_failed", report.UsersFailed,
		"expired_sessions", report.ExpiredSessions,
		"expired_reset_tokens", report.ExpiredResetTokens,
		"duration_ms", time.Since(start).Milliseconds())
	return report, nil
}
