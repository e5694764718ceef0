package email

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/Dan9191/card-service/internal/cards"
	"github.com/Dan9191/card-service/internal/config"
	"github.com/Dan9191/card-service/internal/models"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	users  cards.UserStore
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, users cards.UserStore, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		users:  users,
		logger: logger,
	}
}

// NotifyCardExpired tells a card's owner that the card has expired.
func (s *Sender) NotifyCardExpired(ctx context.Context, card *models.Card) error {
	user, err := s.users.FindByID(ctx, card.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("owner %s of card %s not found", card.UserID, card.ID)
	}

	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{user.Email}
	e.Subject = "Your card has expired"

	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"Your card ending in %s expired on %s and can no longer be used.\n"+
			"Please contact support to request a replacement card.\n"+
			"\nBest regards,\nCard Service",
		user.Username, card.LastFour, card.ExpirationDate.Format("2006-01-02"),
	)
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", user.Email, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", user.Email, e.Subject)
	return nil
}
