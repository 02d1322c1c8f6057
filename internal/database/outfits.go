package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"wardrobe/internal/identity"
	"wardrobe/internal/models"

	"github.com/google/uuid"
)

const outfitColumns = `id, user_id, name, description, items, occasion, season, weather,
	favorite, times_worn, last_worn, image_url, created_at, updated_at`

func scanOutfit(row rowScanner) (*models.Outfit, error) {
	outfit := &models.Outfit{}
	var items, weather string
	var lastWorn sql.NullTime
	var imageURL sql.NullString

	err := row.Scan(
		&outfit.ID,
		&outfit.Owner,
		&outfit.Name,
		&outfit.Description,
		&items,
		&outfit.Occasion,
		&outfit.Season,
		&weather,
		&outfit.Favorite,
		&outfit.TimesWorn,
		&lastWorn,
		&imageURL,
		&outfit.CreatedAt,
		&outfit.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if outfit.Items, err = decodeSet(items); err != nil {
		return nil, err
	}
	if outfit.Weather, err = decodeSet(weather); err != nil {
		return nil, err
	}
	if lastWorn.Valid {
		outfit.LastWorn = &lastWorn.Time
	}
	if imageURL.Valid {
		outfit.ImageURL = &imageURL.String
	}

	return outfit, nil
}

// CreateOutfit stores a new outfit. Item ids are kept in the given order and
// are not checked against the closet.
func CreateOutfit(ctx context.Context, db *sql.DB, sess *identity.Session, outfit models.Outfit) (*models.Outfit, error) {
	userID, err := sess.CurrentUserID()
	if err != nil {
		return nil, err
	}

	outfit.ID = uuid.New().String()
	outfit.Owner = userID
	outfit.TimesWorn = 0
	outfit.LastWorn = nil
	outfit.CreatedAt = now()
	outfit.UpdatedAt = outfit.CreatedAt
	if outfit.Items == nil {
		outfit.Items = []string{}
	}
	if outfit.Weather == nil {
		outfit.Weather = []string{}
	}

	err = withTx(ctx, db, func(tx *sql.Tx) error {
		if err := writeOutfit(ctx, tx, &outfit, true); err != nil {
			return err
		}
		if err := bumpCollection(ctx, tx, userID, collectionOutfits, 1, outfit.CreatedAt); err != nil {
			return err
		}
		return bumpProfile(ctx, tx, userID, profileOutfitsCreated, 1, outfit.CreatedAt)
	})
	if err != nil {
		return nil, models.Backend("create outfit", err)
	}

	return &outfit, nil
}

func writeOutfit(ctx context.Context, tx *sql.Tx, outfit *models.Outfit, insert bool) error {
	items, err := encodeSet(outfit.Items)
	if err != nil {
		return err
	}
	weather, err := encodeSet(outfit.Weather)
	if err != nil {
		return err
	}

	if insert {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO outfits (id, user_id, name, description, items, occasion, season, weather,
				favorite, times_worn, last_worn, image_url, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, outfit.ID, outfit.Owner, outfit.Name, outfit.Description, items, outfit.Occasion, outfit.Season, weather,
			outfit.Favorite, outfit.TimesWorn, outfit.LastWorn, outfit.ImageURL, outfit.CreatedAt, outfit.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create outfit: %w", err)
		}
		return nil
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE outfits
		SET name = ?, description = ?, items = ?, occasion = ?, season = ?, weather = ?,
			favorite = ?, image_url = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, outfit.Name, outfit.Description, items, outfit.Occasion, outfit.Season, weather,
		outfit.Favorite, outfit.ImageURL, outfit.UpdatedAt, outfit.ID, outfit.Owner)
	if err != nil {
		return fmt.Errorf("failed to update outfit: %w", err)
	}
	return nil
}

func ListOutfits(ctx context.Context, db *sql.DB, sess *identity.Session, f models.OutfitFilter) ([]models.Outfit, error) {
	userID, err := sess.CurrentUserID()
	if err != nil {
		return nil, err
	}

	where := []string{"user_id = ?"}
	args := []any{userID}

	if f.Occasion != "" {
		where = append(where, "occasion = ?")
		args = append(args, f.Occasion)
	}
	if f.Season != "" {
		where = append(where, "season = ?")
		args = append(args, f.Season)
	}
	if f.Weather != "" {
		where = append(where, containsClause("weather"))
		args = append(args, f.Weather)
	}
	if f.Favorite {
		where = append(where, "favorite = 1")
	}

	query := `SELECT ` + outfitColumns + ` FROM outfits WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC, rowid DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, models.Backend("query outfits", err)
	}
	defer rows.Close()

	outfits := []models.Outfit{}
	for rows.Next() {
		outfit, err := scanOutfit(rows)
		if err != nil {
			return nil, models.Backend("scan outfit", err)
		}
		outfits = append(outfits, *outfit)
	}

	if err = rows.Err(); err != nil {
		return nil, models.Backend("iterate outfits", err)
	}

	return outfits, nil
}

func getOutfit(ctx context.Context, q queryer, userID, outfitID string) (*models.Outfit, error) {
	row := q.QueryRowContext(ctx, `SELECT `+outfitColumns+` FROM outfits WHERE id = ? AND user_id = ?`, outfitID, userID)
	outfit, err := scanOutfit(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.NotFound("outfit", outfitID)
		}
		return nil, fmt.Errorf("failed to query outfit: %w", err)
	}
	return outfit, nil
}

func GetOutfit(ctx context.Context, db *sql.DB, sess *identity.Session, outfitID string) (*models.Outfit, error) {
	userID, err := sess.CurrentUserID()
	if err != nil {
		return nil, err
	}

	outfit, err := getOutfit(ctx, db, userID, outfitID)
	if err != nil {
		return nil, models.Backend("get outfit", err)
	}
	return outfit, nil
}

func UpdateOutfit(ctx context.Context, db *sql.DB, sess *identity.Session, outfitID string, patch models.OutfitPatch) (*models.Outfit, error) {
	userID, err := sess.CurrentUserID()
	if err != nil {
		return nil, err
	}

	var updated *models.Outfit
	err = withTx(ctx, db, func(tx *sql.Tx) error {
		outfit, err := getOutfit(ctx, tx, userID, outfitID)
		if err != nil {
			return err
		}

		if patch.Name != nil {
			outfit.Name = *patch.Name
		}
		if patch.Description != nil {
			outfit.Description = *patch.Description
		}
		if patch.Items != nil {
			outfit.Items = *patch.Items
		}
		if patch.Occasion != nil {
			outfit.Occasion = *patch.Occasion
		}
		if patch.Season != nil {
			outfit.Season = *patch.Season
		}
		if patch.Weather != nil {
			outfit.Weather = *patch.Weather
		}
		if patch.Favorite != nil {
			outfit.Favorite = *patch.Favorite
		}
		if patch.ImageURL != nil {
			outfit.ImageURL = patch.ImageURL
		}
		outfit.UpdatedAt = now()

		if err := writeOutfit(ctx, tx, outfit, false); err != nil {
			return err
		}
		updated = outfit
		return nil
	})
	if err != nil {
		return nil, models.Backend("update outfit", err)
	}

	return updated, nil
}

func DeleteOutfit(ctx context.Context, db *sql.DB, sess *identity.Session, outfitID string) error {
	userID, err := sess.CurrentUserID()
	if err != nil {
		return err
	}

	err = withTx(ctx, db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM outfits WHERE id = ? AND user_id = ?`, outfitID, userID)
		if err != nil {
			return fmt.Errorf("failed to delete outfit: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return models.NotFound("outfit", outfitID)
		}

		at := now()
		if err := bumpCollection(ctx, tx, userID, collectionOutfits, -1, at); err != nil {
			return err
		}
		return bumpProfile(ctx, tx, userID, profileOutfitsCreated, -1, at)
	})
	if err != nil {
		return models.Backend("delete outfit", err)
	}

	return nil
}
