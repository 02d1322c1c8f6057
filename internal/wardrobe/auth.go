package wardrobe

import (
	"context"
	"errors"

	"wardrobe/internal/database"
	"wardrobe/internal/email"
	"wardrobe/internal/identity"
	"wardrobe/internal/logger"
	"wardrobe/internal/models"
)

type Registration struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"displayName" validate:"max=100"`
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type PasswordReset struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

// Register creates the account with its zeroed metadata and signs it in.
func (s *Service) Register(ctx context.Context, r Registration) (*identity.Session, error) {
	if err := s.validateStruct(r); err != nil {
		return nil, err
	}

	user, err := database.CreateUser(ctx, s.db, r.Email, r.Password, r.DisplayName)
	if err != nil {
		return nil, err
	}

	logger.Info("User registered", "user_id", user.ID, "email", user.Email)
	s.sendWelcome(ctx, user)

	return s.startSession(ctx, user)
}

func (s *Service) SignIn(ctx context.Context, c Credentials) (*identity.Session, error) {
	if err := s.validateStruct(c); err != nil {
		return nil, err
	}

	user, err := database.AuthenticateUser(ctx, s.db, c.Email, c.Password)
	if err != nil {
		return nil, err
	}

	return s.startSession(ctx, user)
}

// SignInWithGoogle verifies the ID token and signs in the matching profile,
// creating it on first use.
func (s *Service) SignInWithGoogle(ctx context.Context, idToken string) (*identity.Session, error) {
	g, err := s.google.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}

	user, created, err := database.FindOrCreateGoogleUser(ctx, s.db, g)
	if err != nil {
		return nil, err
	}
	if created {
		logger.Info("User registered with Google", "user_id", user.ID, "email", user.Email)
		s.sendWelcome(ctx, user)
	}

	return s.startSession(ctx, user)
}

func (s *Service) startSession(ctx context.Context, user *models.UserProfile) (*identity.Session, error) {
	sess, err := database.CreateSession(ctx, s.db, user.ID, s.sessionDuration)
	if err != nil {
		return nil, err
	}
	sess.Profile = user
	return sess, nil
}

func (s *Service) SignOut(ctx context.Context, token string) error {
	return database.DeleteSession(ctx, s.db, token)
}

// CurrentUser resolves a session token, extending the session on success.
func (s *Service) CurrentUser(ctx context.Context, token string) (*identity.Session, error) {
	return database.ValidateSession(ctx, s.db, token, s.sessionDuration)
}

// RequestPasswordReset emails a reset link when the address is registered.
// Unknown addresses are not reported to the caller.
func (s *Service) RequestPasswordReset(ctx context.Context, address string) error {
	token, user, err := database.CreatePasswordResetToken(ctx, s.db, address)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			logger.Info("Password reset requested for unknown email", "email", address)
			return nil
		}
		return err
	}

	if s.mailer == nil {
		logger.Warn("Password reset requested but no mailer is configured", "user_id", user.ID)
		return nil
	}
	if err := s.mailer.SendPasswordResetEmail(ctx, user, token.Token); err != nil {
		if errors.Is(err, email.ErrDisabled) {
			logger.Warn("Password reset requested but email is disabled", "user_id", user.ID)
			return nil
		}
		return err
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, r PasswordReset) error {
	if err := s.validateStruct(r); err != nil {
		return err
	}
	return database.ResetPassword(ctx, s.db, r.Token, r.NewPassword)
}

func (s *Service) sendWelcome(ctx context.Context, user *models.UserProfile) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.SendWelcomeEmail(ctx, user); err != nil {
		if errors.Is(err, email.ErrDisabled) {
			logger.Debug("Welcome email skipped", "user_id", user.ID)
			return
		}
		logger.Error("Failed to send welcome email",
			"user_id", user.ID,
			"email", user.Email,
			"error", err)
	}
}
