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

const eventColumns = `id, user_id, title, description, date, type, location, outfit_id, notes, weather, created_at, updated_at`

func scanEvent(row rowScanner) (*models.Event, error) {
	event := &models.Event{}
	var outfitID, weather sql.NullString

	err := row.Scan(
		&event.ID,
		&event.Owner,
		&event.Title,
		&event.Description,
		&event.Date,
		&event.Type,
		&event.Location,
		&outfitID,
		&event.Notes,
		&weather,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if outfitID.Valid {
		event.OutfitID = &outfitID.String
	}
	if weather.Valid {
		event.Weather = &weather.String
	}

	return event, nil
}

func CreateEvent(ctx context.Context, db *sql.DB, sess *identity.Session, event models.Event) (*models.Event, error) {
	userID, err := sess.CurrentUserID()
	if err != nil {
		return nil, err
	}

	event.ID = uuid.New().String()
	event.Owner = userID
	event.Date = event.Date.UTC()
	if event.OutfitID != nil && *event.OutfitID == "" {
		event.OutfitID = nil
	}
	event.CreatedAt = now()
	event.UpdatedAt = event.CreatedAt

	err = withTx(ctx, db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO events (id, user_id, title, description, date, type, location, outfit_id, notes, weather, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, event.ID, event.Owner, event.Title, event.Description, event.Date, event.Type, event.Location,
			event.OutfitID, event.Notes, event.Weather, event.CreatedAt, event.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create event: %w", err)
		}
		return bumpCollection(ctx, tx, userID, collectionEvents, 1, event.CreatedAt)
	})
	if err != nil {
		return nil, models.Backend("create event", err)
	}

	return &event, nil
}

// ListEvents returns the session user's events within the optional date
// window. EventOrderDate lists them chronologically for calendar views.
func ListEvents(ctx context.Context, db *sql.DB, sess *identity.Session, f models.EventFilter) ([]models.Event, error) {
	userID, err := sess.CurrentUserID()
	if err != nil {
		return nil, err
	}

	where := []string{"user_id = ?"}
	args := []any{userID}

	if f.StartDate != nil {
		where = append(where, "date >= ?")
		args = append(args, f.StartDate.UTC())
	}
	if f.EndDate != nil {
		where = append(where, "date <= ?")
		args = append(args, f.EndDate.UTC())
	}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, f.Type)
	}

	var orderBy string
	switch f.Order {
	case "", models.EventOrderCreated:
		orderBy = "created_at DESC, rowid DESC"
	case models.EventOrderDate:
		orderBy = "date ASC, created_at ASC"
	default:
		return nil, models.Invalid(fmt.Sprintf("unknown order %q", f.Order))
	}

	query := `SELECT ` + eventColumns + ` FROM events WHERE ` + strings.Join(where, " AND ") + ` ORDER BY ` + orderBy
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, models.Backend("query events", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, models.Backend("scan event", err)
		}
		events = append(events, *event)
	}

	if err = rows.Err(); err != nil {
		return nil, models.Backend("iterate events", err)
	}

	return events, nil
}

func getEvent(ctx context.Context, q queryer, userID, eventID string) (*models.Event, error) {
	row := q.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ? AND user_id = ?`, eventID, userID)
	event, err := scanEvent(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.NotFound("event", eventID)
		}
		return nil, fmt.Errorf("failed to query event: %w", err)
	}
	return event, nil
}

func GetEvent(ctx context.Context, db *sql.DB, sess *identity.Session, eventID string) (*models.Event, error) {
	userID, err := sess.CurrentUserID()
	if err != nil {
		return nil, err
	}

	event, err := getEvent(ctx, db, userID, eventID)
	if err != nil {
		return nil, models.Backend("get event", err)
	}
	return event, nil
}

func UpdateEvent(ctx context.Context, db *sql.DB, sess *identity.Session, eventID string, patch models.EventPatch) (*models.Event, error) {
	userID, err := sess.CurrentUserID()
	if err != nil {
		return nil, err
	}

	var updated *models.Event
	err = withTx(ctx, db, func(tx *sql.Tx) error {
		event, err := getEvent(ctx, tx, userID, eventID)
		if err != nil {
			return err
		}

		if patch.Title != nil {
			event.Title = *patch.Title
		}
		if patch.Description != nil {
			event.Description = *patch.Description
		}
		if patch.Date != nil {
			event.Date = patch.Date.UTC()
		}
		if patch.Type != nil {
			event.Type = *patch.Type
		}
		if patch.Location != nil {
			event.Location = *patch.Location
		}
		if patch.OutfitID != nil {
			// An empty id clears the planned outfit.
			if *patch.OutfitID == "" {
				event.OutfitID = nil
			} else {
				event.OutfitID = patch.OutfitID
			}
		}
		if patch.Notes != nil {
			event.Notes = *patch.Notes
		}
		if patch.Weather != nil {
			event.Weather = patch.Weather
		}
		event.UpdatedAt = now()

		_, err = tx.ExecContext(ctx, `
			UPDATE events
			SET title = ?, description = ?, date = ?, type = ?, location = ?, outfit_id = ?, notes = ?, weather = ?, updated_at = ?
			WHERE id = ? AND user_id = ?
		`, event.Title, event.Description, event.Date, event.Type, event.Location, event.OutfitID, event.Notes,
			event.Weather, event.UpdatedAt, event.ID, userID)
		if err != nil {
			return fmt.Errorf("failed to update event: %w", err)
		}

		updated = event
		return nil
	})
	if err != nil {
		return nil, models.Backend("update event", err)
	}

	return updated, nil
}

func DeleteEvent(ctx context.Context, db *sql.DB, sess *identity.Session, eventID string) error {
	userID, err := sess.CurrentUserID()
	if err != nil {
		return err
	}

	err = withTx(ctx, db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ? AND user_id = ?`, eventID, userID)
		if err != nil {
			return fmt.Errorf("failed to delete event: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return models.NotFound("event", eventID)
		}
		return bumpCollection(ctx, tx, userID, collectionEvents, -1, now())
	})
	if err != nil {
		return models.Backend("delete event", err)
	}

	return nil
}
