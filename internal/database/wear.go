package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"wardrobe/internal/identity"
	"wardrobe/internal/models"
)

func wornAt(date time.Time) time.Time {
	if date.IsZero() {
		return now()
	}
	return date.UTC()
}

// MarkItemWorn increments the item's wear count by one and sets its last
// worn date. A zero date means now.
func MarkItemWorn(ctx context.Context, db *sql.DB, sess *identity.Session, itemID string, date time.Time) (*models.ClothingItem, error) {
	userID, err := sess.CurrentUserID()
	if err != nil {
		return nil, err
	}

	if err := markItemWorn(ctx, db, userID, itemID, wornAt(date)); err != nil {
		return nil, models.Backend("mark item worn", err)
	}

	item, err := getItem(ctx, db, userID, itemID)
	if err != nil {
		return nil, models.Backend("get clothing item", err)
	}
	return item, nil
}

func markItemWorn(ctx context.Context, db *sql.DB, userID, itemID string, at time.Time) error {
	result, err := db.ExecContext(ctx, `
		UPDATE closet_items
		SET times_worn = times_worn + 1, last_worn = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, at, now(), itemID, userID)
	if err != nil {
		return fmt.Errorf("failed to update item wear: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return models.NotFound("clothing item", itemID)
	}
	return nil
}

// MarkOutfitWorn records a wear on the outfit and then on each of its items,
// one at a time and in outfit order. Item updates are not rolled back when a
// later one fails; the returned batch lists what was applied, and the error
// joins the item failures.
func MarkOutfitWorn(ctx context.Context, db *sql.DB, sess *identity.Session, outfitID string, date time.Time) (*models.WearBatch, error) {
	userID, err := sess.CurrentUserID()
	if err != nil {
		return nil, err
	}

	outfit, err := getOutfit(ctx, db, userID, outfitID)
	if err != nil {
		return nil, models.Backend("get outfit", err)
	}

	at := wornAt(date)
	result, err := db.ExecContext(ctx, `
		UPDATE outfits
		SET times_worn = times_worn + 1, last_worn = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, at, now(), outfitID, userID)
	if err != nil {
		return nil, models.Backend("mark outfit worn", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, models.NotFound("outfit", outfitID)
	}

	batch := &models.WearBatch{
		OutfitID:  outfitID,
		WornAt:    at,
		TimesWorn: outfit.TimesWorn + 1,
		Updated:   []string{},
		Failed:    []models.WearFailure{},
	}

	for _, itemID := range outfit.Items {
		if err := markItemWorn(ctx, db, userID, itemID, at); err != nil {
			batch.RecordFailure(itemID, models.Backend("mark item worn", err))
			continue
		}
		batch.RecordSuccess(itemID)
	}

	return batch, batch.Err()
}
