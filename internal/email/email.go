package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wardrobe/internal/config"
	"wardrobe/internal/logger"
	"wardrobe/internal/models"

	"github.com/mailgun/mailgun-go/v5"
)

var ErrDisabled = errors.New("email service is not configured")

const sendTimeout = 10 * time.Second

type Service struct {
	client      mailgun.Mailgun
	domain      string
	senderEmail string
	senderName  string
	appBaseURL  string
	enabled     bool
}

func NewService(cfg *config.Config) *Service {
	enabled := cfg.MailgunDomain != "" && cfg.MailgunAPIKey != ""

	var client mailgun.Mailgun
	if enabled {
		client = mailgun.NewMailgun(cfg.MailgunAPIKey)
	}

	return &Service{
		client:      client,
		domain:      cfg.MailgunDomain,
		senderEmail: cfg.MailgunSenderEmail,
		senderName:  cfg.MailgunSenderName,
		appBaseURL:  cfg.AppBaseURL,
		enabled:     enabled,
	}
}

func (s *Service) IsEnabled() bool {
	return s.enabled
}

func (s *Service) SendWelcomeEmail(ctx context.Context, user *models.UserProfile) error {
	return s.send(ctx, user.Email,
		fmt.Sprintf("Welcome to Wardrobe, %s!", displayName(user)),
		s.generateWelcomeText(user),
		s.generateWelcomeHTML(user))
}

func (s *Service) SendPasswordResetEmail(ctx context.Context, user *models.UserProfile, token string) error {
	return s.send(ctx, user.Email,
		"Reset your Wardrobe password",
		s.generatePasswordResetText(user, token),
		s.generatePasswordResetHTML(user, token))
}

func (s *Service) send(ctx context.Context, to, subject, textBody, htmlBody string) error {
	if !s.enabled {
		return ErrDisabled
	}

	message := mailgun.NewMessage(
		s.domain,
		fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail),
		subject,
		textBody,
		to,
	)
	message.SetHTML(htmlBody)

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if _, err := s.client.Send(ctx, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	logger.Info("Email sent", "email", to, "subject", subject)
	return nil
}

func displayName(user *models.UserProfile) string {
	if user.DisplayName != "" {
		return user.DisplayName
	}
	return "there"
}

func (s *Service) resetURL(token string) string {
	return fmt.Sprintf("%s/reset-password?token=%s", s.appBaseURL, token)
}
