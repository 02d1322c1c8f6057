package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"wardrobe/internal/identity"
	"wardrobe/internal/models"
)

const (
	collectionCloset  = "closet"
	collectionOutfits = "outfits"
	collectionEvents  = "events"
)

// Profile columns mirroring collection totals.
const (
	profileClosetSize     = "closet_size"
	profileOutfitsCreated = "outfits_created"
)

func categoryKey(c models.Category) string {
	return strings.ToLower(string(c))
}

// seedMetadata creates the zeroed metadata documents of a new user.
func seedMetadata(ctx context.Context, tx *sql.Tx, userID string, at time.Time) error {
	for _, collection := range []string{collectionCloset, collectionOutfits, collectionEvents} {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO collection_metadata (user_id, collection, total, last_updated)
			VALUES (?, ?, 0, ?)
		`, userID, collection, at)
		if err != nil {
			return fmt.Errorf("failed to seed %s metadata: %w", collection, err)
		}
	}

	for _, c := range models.Categories {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO category_counts (user_id, category, count)
			VALUES (?, ?, 0)
		`, userID, categoryKey(c))
		if err != nil {
			return fmt.Errorf("failed to seed category counts: %w", err)
		}
	}
	return nil
}

func bumpCollection(ctx context.Context, tx *sql.Tx, userID, collection string, delta int, at time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO collection_metadata (user_id, collection, total, last_updated)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, collection) DO UPDATE SET
			total = total + excluded.total,
			last_updated = excluded.last_updated
	`, userID, collection, delta, at)
	if err != nil {
		return fmt.Errorf("failed to update %s metadata: %w", collection, err)
	}
	return nil
}

func bumpCategory(ctx context.Context, tx *sql.Tx, userID string, category models.Category, delta int) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO category_counts (user_id, category, count)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, category) DO UPDATE SET count = count + excluded.count
	`, userID, categoryKey(category), delta)
	if err != nil {
		return fmt.Errorf("failed to update category count: %w", err)
	}
	return nil
}

// bumpProfile moves one of the profile's mirrored totals. column must be one
// of the profile* constants.
func bumpProfile(ctx context.Context, tx *sql.Tx, userID, column string, delta int, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE users SET `+column+` = `+column+` + ?, updated_at = ? WHERE id = ?`,
		delta, at, userID)
	if err != nil {
		return fmt.Errorf("failed to update user %s: %w", column, err)
	}
	return nil
}

func readCollection(ctx context.Context, q queryer, userID, collection string) (int, time.Time, error) {
	var total int
	var lastUpdated time.Time
	err := q.QueryRowContext(ctx, `
		SELECT total, last_updated FROM collection_metadata WHERE user_id = ? AND collection = ?
	`, userID, collection).Scan(&total, &lastUpdated)
	if err == sql.ErrNoRows {
		return 0, time.Time{}, nil
	}
	return total, lastUpdated, err
}

func readCategoryCounts(ctx context.Context, q queryer, userID string) (map[string]int, error) {
	rows, err := q.QueryContext(ctx, `SELECT category, count FROM category_counts WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		counts[category] = count
	}
	return counts, rows.Err()
}

func GetClosetMetadata(ctx context.Context, db *sql.DB, sess *identity.Session) (*models.ClosetMetadata, error) {
	userID, err := sess.CurrentUserID()
	if err != nil {
		return nil, err
	}

	total, lastUpdated, err := readCollection(ctx, db, userID, collectionCloset)
	if err != nil {
		return nil, models.Backend("get closet metadata", err)
	}
	categories, err := readCategoryCounts(ctx, db, userID)
	if err != nil {
		return nil, models.Backend("get closet metadata", err)
	}

	return &models.ClosetMetadata{
		TotalItems:  total,
		Categories:  categories,
		LastUpdated: lastUpdated,
	}, nil
}

func GetOutfitsMetadata(ctx context.Context, db *sql.DB, sess *identity.Session) (*models.OutfitsMetadata, error) {
	userID, err := sess.CurrentUserID()
	if err != nil {
		return nil, err
	}

	total, lastUpdated, err := readCollection(ctx, db, userID, collectionOutfits)
	if err != nil {
		return nil, models.Backend("get outfits metadata", err)
	}
	return &models.OutfitsMetadata{TotalOutfits: total, LastUpdated: lastUpdated}, nil
}

func GetEventsMetadata(ctx context.Context, db *sql.DB, sess *identity.Session) (*models.EventsMetadata, error) {
	userID, err := sess.CurrentUserID()
	if err != nil {
		return nil, err
	}

	total, lastUpdated, err := readCollection(ctx, db, userID, collectionEvents)
	if err != nil {
		return nil, models.Backend("get events metadata", err)
	}
	return &models.EventsMetadata{TotalEvents: total, LastUpdated: lastUpdated}, nil
}

func countRows(ctx context.Context, q queryer, table, userID string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

// ReconcileCounters recomputes every denormalized counter of the session's
// user from the collections themselves. When repair is set, drifted counters
// are overwritten with the recomputed values.
func ReconcileCounters(ctx context.Context, db *sql.DB, sess *identity.Session, repair bool) (*models.CounterDrift, error) {
	userID, err := sess.CurrentUserID()
	if err != nil {
		return nil, err
	}

	drift := &models.CounterDrift{UserID: userID}

	err = withTx(ctx, db, func(tx *sql.Tx) error {
		if err := measureDrift(ctx, tx, userID, drift); err != nil {
			return err
		}
		if !repair || !drift.HasDrift() {
			return nil
		}
		if err := repairDrift(ctx, tx, userID, drift); err != nil {
			return err
		}
		drift.Repaired = true
		return nil
	})
	if err != nil {
		return nil, models.Backend("reconcile counters", err)
	}

	return drift, nil
}

func measureDrift(ctx context.Context, tx *sql.Tx, userID string, drift *models.CounterDrift) error {
	var err error
	if drift.Items.Actual, err = countRows(ctx, tx, "closet_items", userID); err != nil {
		return fmt.Errorf("failed to count closet items: %w", err)
	}
	if drift.Outfits.Actual, err = countRows(ctx, tx, "outfits", userID); err != nil {
		return fmt.Errorf("failed to count outfits: %w", err)
	}
	if drift.Events.Actual, err = countRows(ctx, tx, "events", userID); err != nil {
		return fmt.Errorf("failed to count events: %w", err)
	}
	drift.ClosetSize.Actual = drift.Items.Actual
	drift.Created.Actual = drift.Outfits.Actual

	if drift.Items.Stored, _, err = readCollection(ctx, tx, userID, collectionCloset); err != nil {
		return fmt.Errorf("failed to read closet metadata: %w", err)
	}
	if drift.Outfits.Stored, _, err = readCollection(ctx, tx, userID, collectionOutfits); err != nil {
		return fmt.Errorf("failed to read outfits metadata: %w", err)
	}
	if drift.Events.Stored, _, err = readCollection(ctx, tx, userID, collectionEvents); err != nil {
		return fmt.Errorf("failed to read events metadata: %w", err)
	}

	err = tx.QueryRowContext(ctx, `SELECT closet_size, outfits_created FROM users WHERE id = ?`, userID).
		Scan(&drift.ClosetSize.Stored, &drift.Created.Stored)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.NotFound("user", userID)
		}
		return fmt.Errorf("failed to read user profile: %w", err)
	}

	stored, err := readCategoryCounts(ctx, tx, userID)
	if err != nil {
		return fmt.Errorf("failed to read category counts: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT LOWER(category), COUNT(*) FROM closet_items WHERE user_id = ? GROUP BY LOWER(category)
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to count categories: %w", err)
	}
	defer rows.Close()

	actual := make(map[string]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return fmt.Errorf("failed to scan category count: %w", err)
		}
		actual[category] = count
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to count categories: %w", err)
	}

	for category, n := range stored {
		if d := (models.CounterDelta{Stored: n, Actual: actual[category]}); d.Drifted() {
			if drift.Categories == nil {
				drift.Categories = make(map[string]models.CounterDelta)
			}
			drift.Categories[category] = d
		}
	}
	for category, n := range actual {
		if _, ok := stored[category]; ok {
			continue
		}
		if drift.Categories == nil {
			drift.Categories = make(map[string]models.CounterDelta)
		}
		drift.Categories[category] = models.CounterDelta{Actual: n}
	}
	return nil
}

func repairDrift(ctx context.Context, tx *sql.Tx, userID string, drift *models.CounterDrift) error {
	at := now()
	totals := map[string]models.CounterDelta{
		collectionCloset:  drift.Items,
		collectionOutfits: drift.Outfits,
		collectionEvents:  drift.Events,
	}
	for collection, d := range totals {
		if !d.Drifted() {
			continue
		}
		if err := bumpCollection(ctx, tx, userID, collection, d.Actual-d.Stored, at); err != nil {
			return err
		}
	}

	for category, d := range drift.Categories {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO category_counts (user_id, category, count)
			VALUES (?, ?, ?)
			ON CONFLICT(user_id, category) DO UPDATE SET count = excluded.count
		`, userID, category, d.Actual)
		if err != nil {
			return fmt.Errorf("failed to repair category count: %w", err)
		}
	}

	if drift.ClosetSize.Drifted() || drift.Created.Drifted() {
		_, err := tx.ExecContext(ctx, `
			UPDATE users SET closet_size = ?, outfits_created = ?, updated_at = ? WHERE id = ?
		`, drift.ClosetSize.Actual, drift.Created.Actual, at, userID)
		if err != nil {
			return fmt.Errorf("failed to repair user profile: %w", err)
		}
	}
	return nil
}
