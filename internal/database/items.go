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

const itemColumns = `id, user_id, name, description, category, colors, pattern, occasions, seasons,
	brand, size, price, purchase_date, favorite, times_worn, last_worn, image_url, created_at, updated_at`

func scanItem(row rowScanner) (*models.ClothingItem, error) {
	item := &models.ClothingItem{}
	var colors, occasions, seasons string
	var purchaseDate, lastWorn sql.NullTime
	var imageURL sql.NullString

	err := row.Scan(
		&item.ID,
		&item.Owner,
		&item.Name,
		&item.Description,
		&item.Category,
		&colors,
		&item.Pattern,
		&occasions,
		&seasons,
		&item.Brand,
		&item.Size,
		&item.Price,
		&purchaseDate,
		&item.Favorite,
		&item.TimesWorn,
		&lastWorn,
		&imageURL,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if item.Colors, err = decodeSet(colors); err != nil {
		return nil, err
	}
	if item.Occasions, err = decodeSet(occasions); err != nil {
		return nil, err
	}
	if item.Seasons, err = decodeSet(seasons); err != nil {
		return nil, err
	}

	if purchaseDate.Valid {
		item.PurchaseDate = &purchaseDate.Time
	}
	if lastWorn.Valid {
		item.LastWorn = &lastWorn.Time
	}
	if imageURL.Valid {
		item.ImageURL = &imageURL.String
	}

	return item, nil
}

// CreateClothingItem stores a new item with zeroed wear counters and moves the
// closet total, its category count and the profile's closet size in the same
// transaction.
func CreateClothingItem(ctx context.Context, db *sql.DB, sess *identity.Session, item models.ClothingItem) (*models.ClothingItem, error) {
	userID, err := sess.CurrentUserID()
	if err != nil {
		return nil, err
	}

	item.ID = uuid.New().String()
	item.Owner = userID
	item.TimesWorn = 0
	item.LastWorn = nil
	item.CreatedAt = now()
	item.UpdatedAt = item.CreatedAt
	if item.Colors == nil {
		item.Colors = []string{}
	}
	if item.Occasions == nil {
		item.Occasions = []string{}
	}
	if item.Seasons == nil {
		item.Seasons = []string{}
	}

	err = withTx(ctx, db, func(tx *sql.Tx) error {
		if err := writeItem(ctx, tx, &item, true); err != nil {
			return err
		}
		if err := bumpCollection(ctx, tx, userID, collectionCloset, 1, item.CreatedAt); err != nil {
			return err
		}
		if err := bumpCategory(ctx, tx, userID, item.Category, 1); err != nil {
			return err
		}
		return bumpProfile(ctx, tx, userID, profileClosetSize, 1, item.CreatedAt)
	})
	if err != nil {
		return nil, models.Backend("create clothing item", err)
	}

	return &item, nil
}

func writeItem(ctx context.Context, tx *sql.Tx, item *models.ClothingItem, insert bool) error {
	colors, err := encodeSet(item.Colors)
	if err != nil {
		return err
	}
	occasions, err := encodeSet(item.Occasions)
	if err != nil {
		return err
	}
	seasons, err := encodeSet(item.Seasons)
	if err != nil {
		return err
	}

	if insert {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO closet_items (id, user_id, name, description, category, colors, pattern, occasions, seasons,
				brand, size, price, purchase_date, favorite, times_worn, last_worn, image_url, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, item.ID, item.Owner, item.Name, item.Description, item.Category, colors, item.Pattern, occasions, seasons,
			item.Brand, item.Size, item.Price, item.PurchaseDate, item.Favorite, item.TimesWorn, item.LastWorn,
			item.ImageURL, item.CreatedAt, item.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create clothing item: %w", err)
		}
		return nil
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE closet_items
		SET name = ?, description = ?, category = ?, colors = ?, pattern = ?, occasions = ?, seasons = ?,
			brand = ?, size = ?, price = ?, purchase_date = ?, favorite = ?, image_url = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, item.Name, item.Description, item.Category, colors, item.Pattern, occasions, seasons,
		item.Brand, item.Size, item.Price, item.PurchaseDate, item.Favorite, item.ImageURL, item.UpdatedAt,
		item.ID, item.Owner)
	if err != nil {
		return fmt.Errorf("failed to update clothing item: %w", err)
	}
	return nil
}

// ListClothingItems returns the session user's items matching f, newest
// first unless f.Sort asks for a wear ordering.
func ListClothingItems(ctx context.Context, db *sql.DB, sess *identity.Session, f models.ItemFilter) ([]models.ClothingItem, error) {
	userID, err := sess.CurrentUserID()
	if err != nil {
		return nil, err
	}

	where := []string{"user_id = ?"}
	args := []any{userID}

	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.Color != "" {
		where = append(where, containsClause("colors"))
		args = append(args, f.Color)
	}
	if f.Occasion != "" {
		where = append(where, containsClause("occasions"))
		args = append(args, f.Occasion)
	}
	if f.Season != "" {
		where = append(where, containsClause("seasons"))
		args = append(args, f.Season)
	}
	if f.Favorite {
		where = append(where, "favorite = 1")
	}
	if search := strings.ToLower(strings.TrimSpace(f.Search)); search != "" {
		where = append(where, "instr(LOWER(name), ?) > 0")
		args = append(args, search)
	}

	var orderBy string
	switch f.Sort {
	case "", models.SortNewest:
		orderBy = "created_at DESC, rowid DESC"
	case models.SortMostWorn:
		orderBy = "times_worn DESC, created_at DESC"
	case models.SortLeastWorn:
		orderBy = "times_worn ASC, created_at DESC"
	default:
		return nil, models.Invalid(fmt.Sprintf("unknown sort %q", f.Sort))
	}

	query := `SELECT ` + itemColumns + ` FROM closet_items WHERE ` + strings.Join(where, " AND ") + ` ORDER BY ` + orderBy
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, models.Backend("query clothing items", err)
	}
	defer rows.Close()

	items := []models.ClothingItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, models.Backend("scan clothing item", err)
		}
		items = append(items, *item)
	}

	if err = rows.Err(); err != nil {
		return nil, models.Backend("iterate clothing items", err)
	}

	return items, nil
}

func getItem(ctx context.Context, q queryer, userID, itemID string) (*models.ClothingItem, error) {
	row := q.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM closet_items WHERE id = ? AND user_id = ?`, itemID, userID)
	item, err := scanItem(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.NotFound("clothing item", itemID)
		}
		return nil, fmt.Errorf("failed to query clothing item: %w", err)
	}
	return item, nil
}

func GetClothingItem(ctx context.Context, db *sql.DB, sess *identity.Session, itemID string) (*models.ClothingItem, error) {
	userID, err := sess.CurrentUserID()
	if err != nil {
		return nil, err
	}

	item, err := getItem(ctx, db, userID, itemID)
	if err != nil {
		return nil, models.Backend("get clothing item", err)
	}
	return item, nil
}

// UpdateClothingItem merges patch into the stored item. A category change
// moves one unit from the old category count to the new one.
func UpdateClothingItem(ctx context.Context, db *sql.DB, sess *identity.Session, itemID string, patch models.ItemPatch) (*models.ClothingItem, error) {
	userID, err := sess.CurrentUserID()
	if err != nil {
		return nil, err
	}

	var updated *models.ClothingItem
	err = withTx(ctx, db, func(tx *sql.Tx) error {
		item, err := getItem(ctx, tx, userID, itemID)
		if err != nil {
			return err
		}

		previous := item.Category
		applyItemPatch(item, patch)
		item.UpdatedAt = now()

		if err := writeItem(ctx, tx, item, false); err != nil {
			return err
		}

		if item.Category != previous {
			if err := bumpCategory(ctx, tx, userID, previous, -1); err != nil {
				return err
			}
			if err := bumpCategory(ctx, tx, userID, item.Category, 1); err != nil {
				return err
			}
			if err := bumpCollection(ctx, tx, userID, collectionCloset, 0, item.UpdatedAt); err != nil {
				return err
			}
		}

		updated = item
		return nil
	})
	if err != nil {
		return nil, models.Backend("update clothing item", err)
	}

	return updated, nil
}

func applyItemPatch(item *models.ClothingItem, p models.ItemPatch) {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Category != nil {
		item.Category = *p.Category
	}
	if p.Colors != nil {
		item.Colors = *p.Colors
	}
	if p.Pattern != nil {
		item.Pattern = *p.Pattern
	}
	if p.Occasions != nil {
		item.Occasions = *p.Occasions
	}
	if p.Seasons != nil {
		item.Seasons = *p.Seasons
	}
	if p.Brand != nil {
		item.Brand = *p.Brand
	}
	if p.Size != nil {
		item.Size = *p.Size
	}
	if p.Price != nil {
		item.Price = *p.Price
	}
	if p.PurchaseDate != nil {
		item.PurchaseDate = p.PurchaseDate
	}
	if p.Favorite != nil {
		item.Favorite = *p.Favorite
	}
	if p.ImageURL != nil {
		item.ImageURL = p.ImageURL
	}
}

func SetItemFavorite(ctx context.Context, db *sql.DB, sess *identity.Session, itemID string, favorite bool) (*models.ClothingItem, error) {
	return UpdateClothingItem(ctx, db, sess, itemID, models.ItemPatch{Favorite: &favorite})
}

func DeleteClothingItem(ctx context.Context, db *sql.DB, sess *identity.Session, itemID string) error {
	userID, err := sess.CurrentUserID()
	if err != nil {
		return err
	}

	err = withTx(ctx, db, func(tx *sql.Tx) error {
		item, err := getItem(ctx, tx, userID, itemID)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM closet_items WHERE id = ? AND user_id = ?`, itemID, userID); err != nil {
			return fmt.Errorf("failed to delete clothing item: %w", err)
		}

		at := now()
		if err := bumpCollection(ctx, tx, userID, collectionCloset, -1, at); err != nil {
			return err
		}
		if err := bumpCategory(ctx, tx, userID, item.Category, -1); err != nil {
			return err
		}
		return bumpProfile(ctx, tx, userID, profileClosetSize, -1, at)
	})
	if err != nil {
		return models.Backend("delete clothing item", err)
	}

	return nil
}
