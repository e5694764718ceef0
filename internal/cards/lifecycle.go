package cards

import (
	"context"
	"time"

	"github.com/Dan9191/card-service/internal/crypto"
	"github.com/Dan9191/card-service/internal/metrics"
	"github.com/Dan9191/card-service/internal/models"
	"github.com/Dan9191/card-service/internal/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	// Cards are valid for 5 years from issuance.
	expirationYears = 5

	// How many times a colliding card number is regenerated before
	// giving up.
	maxNumberAttempts = 10
)

// LifecycleService manages card creation, status changes, top-ups,
// deletion and queries.
type LifecycleService struct {
	store     CardStore
	users     UserStore
	rules     *Rules
	encryptor *crypto.Encryptor
	log       *logrus.Logger
	now       func() time.Time
}

// NewLifecycleService initializes the card lifecycle service.
func NewLifecycleService(store CardStore, users UserStore, rules *Rules, encryptor *crypto.Encryptor, log *logrus.Logger) *LifecycleService {
	return &LifecycleService{
		store:     store,
		users:     users,
		rules:     rules,
		encryptor: encryptor,
		log:       log,
		now:       time.Now,
	}
}

// CreateCard issues a new ACTIVE card with zero balance for the user.
func (s *LifecycleService) CreateCard(ctx context.Context, userID uuid.UUID) (*models.Card, error) {
	s.log.Infof("Creating new card for user %s", userID)

	exists, err := s.users.ExistsByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		s.log.Warnf("Card creation failed: user %s not found", userID)
		return nil, ErrUserNotFound
	}

	cardNumber, encrypted, err := s.uniqueCardNumber(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	card := &models.Card{
		ID:             uuid.New(),
		UserID:         userID,
		Number:         encrypted,
		LastFour:       utils.LastFourDigits(cardNumber),
		Balance:        decimal.Zero,
		Status:         models.StatusActive,
		ExpirationDate: now.AddDate(expirationYears, 0, 0),
	}
	if err := s.store.Save(ctx, card); err != nil {
		return nil, err
	}

	metrics.CardsCreatedTotal.Inc()
	s.log.Infof("Card created for user %s: %s", userID, utils.MaskCardNumber(cardNumber))
	return card, nil
}

// uniqueCardNumber generates card numbers until one is not already
// stored, bounded by maxNumberAttempts.
func (s *LifecycleService) uniqueCardNumber(ctx context.Context) (plaintext, encrypted string, err error) {
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		number, err := utils.GenerateCardNumber()
		if err != nil {
			return "", "", err
		}
		blob, err := s.encryptor.Encrypt(number)
		if err != nil {
			return "", "", err
		}
		taken, err := s.store.ExistsByCardNumber(ctx, blob)
		if err != nil {
			return "", "", err
		}
		if !taken {
			return number, blob, nil
		}
	}
	s.log.Errorf("Card number generation exhausted after %d attempts", maxNumberAttempts)
	return "", "", ErrCardNumberGeneration
}

// BlockCard transitions a card to BLOCKED. A user actor must own the
// card; an admin actor may block any card. Blocking an EXPIRED card
// fails: EXPIRED is terminal.
func (s *LifecycleService) BlockCard(ctx context.Context, actor models.Actor, cardID uuid.UUID) (*models.Card, error) {
	s.log.Infof("Block card request: actor=%s admin=%t card=%s", actor.UserID, actor.Admin, cardID)

	card, err := s.loadForActor(ctx, actor, cardID)
	if err != nil {
		return nil, err
	}

	if card.Status == models.StatusBlocked {
		s.log.Warnf("Block failed: card %s already blocked", cardID)
		return nil, ErrCardAlreadyBlocked
	}
	if card.Status == models.StatusExpired || card.Expired(s.now()) {
		s.log.Warnf("Block failed: card %s expired", cardID)
		return nil, ErrCardExpired
	}

	card.Status = models.StatusBlocked
	if err := s.store.Save(ctx, card); err != nil {
		return nil, err
	}
	s.log.Infof("Card %s blocked by %s", cardID, actor.UserID)
	return card, nil
}

// ActivateCard transitions a BLOCKED card back to ACTIVE. Admin only;
// the transport layer enforces the role, the ledger enforces the state
// machine. Activating an EXPIRED card fails.
func (s *LifecycleService) ActivateCard(ctx context.Context, cardID uuid.UUID) (*models.Card, error) {
	s.log.Infof("Activate card request: card=%s", cardID)

	card, err := s.rules.FindCard(ctx, cardID)
	if err != nil {
		return nil, err
	}

	if card.Status == models.StatusActive {
		s.log.Warnf("Activation failed: card %s already active", cardID)
		return nil, ErrCardAlreadyActivated
	}
	if card.Status == models.StatusExpired || card.Expired(s.now()) {
		s.log.Warnf("Activation failed: card %s expired", cardID)
		return nil, ErrCardExpired
	}

	card.Status = models.StatusActive
	if err := s.store.Save(ctx, card); err != nil {
		return nil, err
	}
	s.log.Infof("Card %s activated", cardID)
	return card, nil
}

// TopUp adds amount to a card's balance. The card must be active.
func (s *LifecycleService) TopUp(ctx context.Context, cardID uuid.UUID, amount decimal.Decimal) (*models.Card, error) {
	s.log.Infof("Top up request: card=%s amount=%s", cardID, amount)

	if !amount.IsPositive() {
		s.log.Warnf("Top-up failed: incorrect amount %s for card %s", amount, cardID)
		return nil, ErrIncorrectAmount
	}

	card, err := s.rules.FindCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if err := s.rules.ValidateActive(ctx, card); err != nil {
		return nil, err
	}

	card.Balance = card.Balance.Add(amount)
	if err := s.store.Save(ctx, card); err != nil {
		return nil, err
	}
	s.log.Infof("Card %s topped up, new balance=%s", cardID, card.Balance)
	return card, nil
}

// DeleteCard removes a card record permanently.
func (s *LifecycleService) DeleteCard(ctx context.Context, cardID uuid.UUID) error {
	s.log.Infof("Delete card request: card=%s", cardID)

	card, err := s.rules.FindCard(ctx, cardID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, card.ID); err != nil {
		return err
	}
	s.log.Infof("Card %s deleted", cardID)
	return nil
}

// GetCard loads a single card. A user actor must own it.
func (s *LifecycleService) GetCard(ctx context.Context, actor models.Actor, cardID uuid.UUID) (*models.Card, error) {
	return s.loadForActor(ctx, actor, cardID)
}

// RevealCardNumber decrypts the stored card number for administrative
// disclosure. It never persists the plaintext.
func (s *LifecycleService) RevealCardNumber(ctx context.Context, cardID uuid.UUID) (string, error) {
	card, err := s.rules.FindCard(ctx, cardID)
	if err != nil {
		return "", err
	}
	number, err := s.encryptor.Decrypt(card.Number)
	if err != nil {
		s.log.Errorf("Failed to decrypt number of card %s: %v", cardID, err)
		return "", err
	}
	return number, nil
}

// ListUserCards lists a user's cards, optionally filtered by status.
// The user must exist.
func (s *LifecycleService) ListUserCards(ctx context.Context, userID uuid.UUID, status *models.CardStatus, page models.Page) ([]models.Card, error) {
	exists, err := s.users.ExistsByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		s.log.Warnf("User not found: %s", userID)
		return nil, ErrUserNotFound
	}
	if status != nil {
		return s.store.FindAllByUserAndStatus(ctx, userID, *status, page.Normalize())
	}
	return s.store.FindAllByUser(ctx, userID, page.Normalize())
}

// ListAllCards lists every card in the system, optionally filtered by
// status. Admin only.
func (s *LifecycleService) ListAllCards(ctx context.Context, status *models.CardStatus, page models.Page) ([]models.Card, error) {
	if status != nil {
		return s.store.FindAllByStatus(ctx, *status, page.Normalize())
	}
	return s.store.FindAll(ctx, page.Normalize())
}

// loadForActor loads a card, enforcing ownership for non-admin actors.
func (s *LifecycleService) loadForActor(ctx context.Context, actor models.Actor, cardID uuid.UUID) (*models.Card, error) {
	card, err := s.rules.FindCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if !actor.Admin {
		if err := s.rules.EnsureOwnership(card, actor.UserID); err != nil {
			return nil, err
		}
	}
	return card, nil
}
