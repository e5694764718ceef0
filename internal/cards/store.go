package cards

import (
	"context"

	"github.com/Dan9191/card-service/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CardStore is the persistence contract the card ledger depends on.
// FindByID returns (nil, nil) for a missing id; MoveBalance must return
// ErrInsufficientFunds if the debit would take the balance negative.
type CardStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Card, error)
	// Save upserts a card and applies the persisted timestamps to it.
	Save(ctx context.Context, card *models.Card) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.CardStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindAllByUser(ctx context.Context, userID uuid.UUID, page models.Page) ([]models.Card, error)
	FindAllByUserAndStatus(ctx context.Context, userID uuid.UUID, status models.CardStatus, page models.Page) ([]models.Card, error)
	FindAll(ctx context.Context, page models.Page) ([]models.Card, error)
	FindAllByStatus(ctx context.Context, status models.CardStatus, page models.Page) ([]models.Card, error)
	ExistsByCardNumber(ctx context.Context, encryptedNumber string) (bool, error)
	// FindExpiredCandidates returns cards whose expiration date has
	// passed and whose status is not yet EXPIRED.
	FindExpiredCandidates(ctx context.Context) ([]models.Card, error)
	// MoveBalance atomically debits amount from one card and credits it
	// to another. Both updates commit together or neither does.
	MoveBalance(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal) error
}

// UserStore is the user-existence contract. User accounts themselves
// are managed outside the card ledger.
type UserStore interface {
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}
