package wardrobe

import (
	"context"

	"wardrobe/internal/database"
	"wardrobe/internal/identity"
	"wardrobe/internal/logger"
	"wardrobe/internal/models"
)

type MaintenanceReport struct {
	UsersChecked       int   `json:"usersChecked"`
	UsersRepaired      int   `json:"usersRepaired"`
	UsersFailed        int   `json:"usersFailed"`
	ExpiredSessions    int64 `json:"expiredSessions"`
	ExpiredResetTokens int64 `json:"expiredResetTokens"`
}

// Reconcile recomputes the session user's counters and, when repair is set,
// rewrites the ones that drifted.
func (s *Service) Reconcile(ctx context.Context, sess *identity.Session, repair bool) (*models.CounterDrift, error) {
	drift, err := database.ReconcileCounters(ctx, s.db, sess, repair)
	if err != nil {
		return nil, err
	}

	if drift.Repaired {
		s.recordRepairs(drift)
		logger.Warn("Repaired drifted counters",
			"user_id", drift.UserID,
			"items_stored", drift.Items.Stored,
			"items_actual", drift.Items.Actual,
			"outfits_stored", drift.Outfits.Stored,
			"outfits_actual", drift.Outfits.Actual,
			"events_stored", drift.Events.Stored,
			"events_actual", drift.Events.Actual,
			"categories", len(drift.Categories))
	}
	return drift, nil
}

func (s *Service) recordRepairs(drift *models.CounterDrift) {
	if drift.Items.Drifted() || len(drift.Categories) > 0 || drift.ClosetSize.Drifted() {
		s.metrics.RecordDriftRepaired(collectionCloset)
	}
	if drift.Outfits.Drifted() || drift.Created.Drifted() {
		s.metrics.RecordDriftRepaired(collectionOutfits)
	}
	if drift.Events.Drifted() {
		s.metrics.RecordDriftRepaired(collectionEvents)
	}
}

// RunMaintenance reconciles every user's counters and removes expired
// sessions and reset tokens. A failure on one user does not stop the pass.
func (s *Service) RunMaintenance(ctx context.Context) (*MaintenanceReport, error) {
	report := &MaintenanceReport{}

	userIDs, err := database.ListUserIDs(ctx, s.db)
	if err != nil {
		return nil, err
	}

	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		report.UsersChecked++
		drift, err := s.Reconcile(ctx, identity.ForUser(userID), true)
		if err != nil {
			report.UsersFailed++
			logger.Error("Failed to reconcile counters",
				"user_id", userID,
				"error", err)
			continue
		}
		if drift.Repaired {
			report.UsersRepaired++
		}
	}

	if report.ExpiredSessions, err = database.CleanupExpiredSessions(ctx, s.db); err != nil {
		logger.Error("Failed to cleanup expired sessions", "error", err)
	}
	if report.ExpiredResetTokens, err = database.CleanupExpiredResetTokens(ctx, s.db); err != nil {
		logger.Error("Failed to cleanup expired reset tokens", "error", err)
	}

	return report, nil
}
