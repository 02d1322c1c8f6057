package database

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"wardrobe/internal/identity"
	"wardrobe/internal/logger"
	"wardrobe/internal/models"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidResetToken  = errors.New("password reset token not found or expired")
)

const resetTokenLifetime = time.Hour

const profileColumns = `id, email, display_name, photo_url, COALESCE(password_hash, ''), COALESCE(google_subject, ''),
	closet_size, outfits_created, created_at, updated_at`

func now() time.Time {
	return time.Now().UTC()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func scanProfile(row rowScanner) (*models.UserProfile, error) {
	p := &models.UserProfile{}
	err := row.Scan(
		&p.ID,
		&p.Email,
		&p.DisplayName,
		&p.PhotoURL,
		&p.PasswordHash,
		&p.GoogleSubject,
		&p.ClosetSize,
		&p.OutfitsCreated,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CreateUser registers an email/password account together with its zeroed
// metadata documents.
func CreateUser(ctx context.Context, db *sql.DB, email, password, displayName string) (*models.UserProfile, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return insertUser(ctx, db, &models.UserProfile{
		Email:        normalizeEmail(email),
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: string(hashedPassword),
	})
}

func insertUser(ctx context.Context, db *sql.DB, p *models.UserProfile) (*models.UserProfile, error) {
	p.ID = uuid.New().String()
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt

	err := withTx(ctx, db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO users (id, email, display_name, photo_url, password_hash, google_subject, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, p.ID, p.Email, p.DisplayName, p.PhotoURL, nullString(p.PasswordHash), nullString(p.GoogleSubject), p.CreatedAt, p.UpdatedAt)
		if err != nil {
			var sqliteErr sqlite3.Error
			if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
				return ErrEmailTaken
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		return seedMetadata(ctx, tx, p.ID, p.CreatedAt)
	})
	if err != nil {
		return nil, err
	}

	return p, nil
}

func AuthenticateUser(ctx context.Context, db *sql.DB, email, password string) (*models.UserProfile, error) {
	row := db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM users WHERE email = ?`, normalizeEmail(email))
	p, err := scanProfile(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	// Google-only accounts have no password to compare against.
	if p.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return p, nil
}

// FindOrCreateGoogleUser resolves a verified Google identity to a profile.
// An existing email account is linked to the Google subject on first use.
func FindOrCreateGoogleUser(ctx context.Context, db *sql.DB, g *identity.GoogleIdentity) (*models.UserProfile, bool, error) {
	row := db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM users WHERE google_subject = ?`, g.Subject)
	p, err := scanProfile(row)
	if err == nil {
		return p, false, nil
	}
	if err != sql.ErrNoRows {
		return nil, false, fmt.Errorf("failed to query user: %w", err)
	}

	email := normalizeEmail(g.Email)
	row = db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM users WHERE email = ?`, email)
	p, err = scanProfile(row)
	if err == nil {
		_, err = db.ExecContext(ctx, `UPDATE users SET google_subject = ?, updated_at = ? WHERE id = ?`, g.Subject, now(), p.ID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to link google account: %w", err)
		}
		p.GoogleSubject = g.Subject
		return p, false, nil
	}
	if err != sql.ErrNoRows {
		return nil, false, fmt.Errorf("failed to query user: %w", err)
	}

	p, err = insertUser(ctx, db, &models.UserProfile{
		Email:         email,
		DisplayName:   g.Name,
		PhotoURL:      g.Picture,
		GoogleSubject: g.Subject,
	})
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

func CreateSession(ctx context.Context, db *sql.DB, userID string, sessionDuration time.Duration) (*identity.Session, error) {
	sessionID, err := generateSecureToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	createdAt := now()
	expiresAt := createdAt.Add(sessionDuration)

	_, err = db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)
	`, sessionID, userID, expiresAt, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &identity.Session{
		UserID:    userID,
		Token:     sessionID,
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateSession resolves a token to an active session and slides its
// expiry forward.
func ValidateSession(ctx context.Context, db *sql.DB, sessionID string, sessionDuration time.Duration) (*identity.Session, error) {
	if sessionID == "" {
		return nil, models.ErrUnauthenticated
	}

	row := db.QueryRowContext(ctx, `
		SELECT u.id, u.email, u.display_name, u.photo_url, COALESCE(u.password_hash, ''), COALESCE(u.google_subject, ''),
		       u.closet_size, u.outfits_created, u.created_at, u.updated_at
		FROM users u
		INNER JOIN sessions s ON u.id = s.user_id
		WHERE s.id = ? AND s.expires_at > ?
	`, sessionID, now())
	p, err := scanProfile(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to validate session: %w", err)
	}

	expiresAt := now().Add(sessionDuration)
	if err := renewSession(ctx, db, sessionID, expiresAt); err != nil {
		logger.Warn("Failed to renew session",
			"session_id", sessionID,
			"error", err)
	}

	return &identity.Session{
		UserID:    p.ID,
		Token:     sessionID,
		ExpiresAt: expiresAt,
		Profile:   p,
	}, nil
}

func renewSession(ctx context.Context, db *sql.DB, sessionID string, expiresAt time.Time) error {
	_, err := db.ExecContext(ctx, `UPDATE sessions SET expires_at = ? WHERE id = ?`, expiresAt, sessionID)
	if err != nil {
		return fmt.Errorf("failed to renew session: %w", err)
	}
	return nil
}

func DeleteSession(ctx context.Context, db *sql.DB, sessionID string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func CleanupExpiredSessions(ctx context.Context, db *sql.DB) (int64, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, now())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired sessions: %w", err)
	}
	return result.RowsAffected()
}

// CreatePasswordResetToken issues a one-hour reset token for the account
// registered under email. It returns ErrNotFound for unknown addresses.
func CreatePasswordResetToken(ctx context.Context, db *sql.DB, email string) (*models.PasswordResetToken, *models.UserProfile, error) {
	row := db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM users WHERE email = ?`, normalizeEmail(email))
	p, err := scanProfile(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, models.NotFound("user", normalizeEmail(email))
		}
		return nil, nil, fmt.Errorf("failed to query user: %w", err)
	}

	token, err := generateSecureToken()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate reset token: %w", err)
	}

	createdAt := now()
	t := &models.PasswordResetToken{
		Token:     token,
		UserID:    p.ID,
		ExpiresAt: createdAt.Add(resetTokenLifetime),
		CreatedAt: createdAt,
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO password_reset_tokens (token, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)
	`, t.Token, t.UserID, t.ExpiresAt, t.CreatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create reset token: %w", err)
	}

	return t, p, nil
}

// ResetPassword consumes token, replaces the password hash and signs the
// user out everywhere.
func ResetPassword(ctx context.Context, db *sql.DB, token, newPassword string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return withTx(ctx, db, func(tx *sql.Tx) error {
		var userID string
		err := tx.QueryRowContext(ctx, `
			SELECT user_id FROM password_reset_tokens WHERE token = ? AND expires_at > ?
		`, token, now()).Scan(&userID)
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrInvalidResetToken
			}
			return fmt.Errorf("failed to validate reset token: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
			string(hashedPassword), now(), userID); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE user_id = ?`, userID); err != nil {
			return fmt.Errorf("failed to delete reset tokens: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
			return fmt.Errorf("failed to delete sessions: %w", err)
		}
		return nil
	})
}

func CleanupExpiredResetTokens(ctx context.Context, db *sql.DB) (int64, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE expires_at < ?`, now())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired reset tokens: %w", err)
	}
	return result.RowsAffected()
}

func GetUserProfile(ctx context.Context, db *sql.DB, sess *identity.Session) (*models.UserProfile, error) {
	userID, err := sess.CurrentUserID()
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM users WHERE id = ?`, userID)
	p, err := scanProfile(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.NotFound("user", userID)
		}
		return nil, models.Backend("get user profile", err)
	}
	return p, nil
}

func UpdateUserProfile(ctx context.Context, db *sql.DB, sess *identity.Session, patch models.ProfilePatch) (*models.UserProfile, error) {
	userID, err := sess.CurrentUserID()
	if err != nil {
		return nil, err
	}

	sets := []string{"updated_at = ?"}
	args := []any{now()}
	if patch.DisplayName != nil {
		sets = append(sets, "display_name = ?")
		args = append(args, strings.TrimSpace(*patch.DisplayName))
	}
	if patch.PhotoURL != nil {
		sets = append(sets, "photo_url = ?")
		args = append(args, *patch.PhotoURL)
	}
	args = append(args, userID)

	result, err := db.ExecContext(ctx, `UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, models.Backend("update user profile", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, models.NotFound("user", userID)
	}

	return GetUserProfile(ctx, db, sess)
}

// ListUserIDs returns every registered user id, oldest account first.
func ListUserIDs(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT id FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func generateSecureToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
