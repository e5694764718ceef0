package cards

import (
	"context"
	"fmt"
	"time"

	"github.com/Dan9191/card-service/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Rules holds the shared validation logic used by the transfer engine
// and the lifecycle service.
type Rules struct {
	store CardStore
	log   *logrus.Logger
	now   func() time.Time
}

// NewRules initializes the shared card rules.
func NewRules(store CardStore, log *logrus.Logger) *Rules {
	return &Rules{store: store, log: log, now: time.Now}
}

// ValidateActive checks that a card can take part in an operation.
// It is a check-and-heal: a card that is past its expiration date but
// not yet marked EXPIRED has its status flipped and persisted before
// the error is reported. The heal survives the failing call.
func (r *Rules) ValidateActive(ctx context.Context, card *models.Card) error {
	switch {
	case card.Status == models.StatusBlocked:
		r.log.Warnf("Attempt to use blocked card %s", card.ID)
		return ErrCardBlocked
	case card.Status == models.StatusExpired:
		r.log.Warnf("Attempt to use expired card %s", card.ID)
		return ErrCardExpired
	case card.Expired(r.now()):
		r.log.Warnf("Card %s expired on %s, updating status", card.ID, card.ExpirationDate.Format("2006-01-02"))
		card.Status = models.StatusExpired
		if err := r.store.UpdateStatus(ctx, card.ID, models.StatusExpired); err != nil {
			return fmt.Errorf("failed to mark card %s expired: %w", card.ID, err)
		}
		return ErrCardExpired
	}
	return nil
}

// EnsureOwnership fails with ErrAccessDenied unless the card belongs
// to the given user.
func (r *Rules) EnsureOwnership(card *models.Card, userID uuid.UUID) error {
	if card.UserID != userID {
		r.log.Warnf("Access denied: user %s does not own card %s", userID, card.ID)
		return ErrAccessDenied
	}
	return nil
}

// FindCard loads a card by id, translating a missing record into
// ErrCardNotFound.
func (r *Rules) FindCard(ctx context.Context, cardID uuid.UUID) (*models.Card, error) {
	card, err := r.store.FindByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if card == nil {
		r.log.Warnf("Card not found: %s", cardID)
		return nil, ErrCardNotFound
	}
	return card, nil
}
