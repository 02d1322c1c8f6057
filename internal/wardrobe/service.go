// Package wardrobe binds the repositories to image storage, validation,
// metrics and email. The HTTP layer and the reconcile worker talk to it.
package wardrobe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"wardrobe/internal/identity"
	"wardrobe/internal/logger"
	"wardrobe/internal/media"
	"wardrobe/internal/metrics"
	"wardrobe/internal/models"

	"github.com/go-playground/validator/v10"
)

type Mailer interface {
	SendWelcomeEmail(ctx context.Context, user *models.UserProfile) error
	SendPasswordResetEmail(ctx context.Context, user *models.UserProfile, token string) error
}

type Options struct {
	DB              *sql.DB
	Uploader        media.Uploader
	Google          identity.GoogleVerifier
	Mailer          Mailer
	Metrics         metrics.Recorder
	RequireImages   bool
	SessionDuration time.Duration
}

type Service struct {
	db              *sql.DB
	uploader        media.Uploader
	google          identity.GoogleVerifier
	mailer          Mailer
	metrics         metrics.Recorder
	validate        *validator.Validate
	requireImages   bool
	sessionDuration time.Duration
}

func New(opts Options) *Service {
	s := &Service{
		db:              opts.DB,
		uploader:        opts.Uploader,
		google:          opts.Google,
		mailer:          opts.Mailer,
		metrics:         opts.Metrics,
		validate:        validator.New(validator.WithRequiredStructEnabled()),
		requireImages:   opts.RequireImages,
		sessionDuration: opts.SessionDuration,
	}
	if s.uploader == nil {
		s.uploader = media.DisabledUploader{}
	}
	if s.google == nil {
		s.google = identity.NewGoogleVerifier("")
	}
	if s.metrics == nil {
		s.metrics = metrics.Nop{}
	}
	if s.sessionDuration <= 0 {
		s.sessionDuration = 30 * 24 * time.Hour
	}
	return s
}

func (s *Service) SessionDuration() time.Duration {
	return s.sessionDuration
}

// validateStruct runs the struct's validate tags and reports the first
// failing field as ErrInvalidInput.
func (s *Service) validateStruct(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		reason := fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag())
		if fe.Param() != "" {
			reason = fmt.Sprintf("%s failed on '%s=%s'", fe.Field(), fe.Tag(), fe.Param())
		}
		return models.Invalid(reason)
	}
	return models.Invalid(err.Error())
}

// attachImage uploads img when present. Under the best-effort policy an upload
// failure is logged and the entity is stored without an image.
func (s *Service) attachImage(ctx context.Context, sess *identity.Session, img *media.Image, folder string) (*string, error) {
	if img == nil {
		return nil, nil
	}

	userID, err := sess.CurrentUserID()
	if err != nil {
		return nil, err
	}

	url, err := s.uploader.Upload(ctx, *img, userID, folder)
	if err != nil {
		s.metrics.RecordUploadFailure(folder)
		if s.requireImages {
			return nil, err
		}
		logger.Warn("Image upload failed, continuing without image",
			"user_id", userID,
			"folder", folder,
			"error", err)
		return nil, nil
	}

	return &url, nil
}

func normalizeSet(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
