// Package identity carries the authenticated caller through the data layer.
//
// A Session is handed explicitly to every repository call; there is no
// process-wide "current user".
package identity

import (
	"time"

	"wardrobe/internal/models"
)

type Session struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
	Profile   *models.UserProfile
}

// ForUser builds a session for a known user id. Used by background jobs and tests.
func ForUser(userID string) *Session {
	return &Session{UserID: userID}
}

// CurrentUserID returns the caller's user id, or ErrUnauthenticated when no
// session is active.
func (s *Session) CurrentUserID() (string, error) {
	if s == nil || s.UserID == "" {
		return "", models.ErrUnauthenticated
	}
	if !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt) {
		return "", models.ErrUnauthenticated
	}
	return s.UserID, nil
}
