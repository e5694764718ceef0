package cards

import (
	"context"

	"github.com/Dan9191/card-service/internal/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// TransferService moves money between two cards of the same owner.
type TransferService struct {
	store CardStore
	users UserStore
	rules *Rules
	log   *logrus.Logger
}

// NewTransferService initializes the transfer engine.
func NewTransferService(store CardStore, users UserStore, rules *Rules, log *logrus.Logger) *TransferService {
	return &TransferService{store: store, users: users, rules: rules, log: log}
}

// Transfer moves amount from one card to another. Both cards must
// belong to the caller and be active, and the source card must hold
// enough balance. All validation happens before any balance is
// touched; the two balance updates commit together or not at all.
func (s *TransferService) Transfer(ctx context.Context, callerID, fromCardID, toCardID uuid.UUID, amount decimal.Decimal) error {
	s.log.Infof("Transfer requested: from=%s to=%s amount=%s user=%s", fromCardID, toCardID, amount, callerID)

	if fromCardID == toCardID {
		s.log.Warnf("Transfer failed: cards are the same (%s)", fromCardID)
		return ErrCardsAreTheSame
	}
	if !amount.IsPositive() {
		s.log.Warnf("Transfer failed: incorrect amount %s from user %s", amount, callerID)
		return ErrIncorrectAmount
	}

	exists, err := s.users.ExistsByID(ctx, callerID)
	if err != nil {
		return err
	}
	if !exists {
		s.log.Warnf("Transfer failed: user %s not found", callerID)
		return ErrUserNotFound
	}

	fromCard, err := s.rules.FindCard(ctx, fromCardID)
	if err != nil {
		return err
	}
	if err := s.rules.EnsureOwnership(fromCard, callerID); err != nil {
		return err
	}
	if err := s.rules.ValidateActive(ctx, fromCard); err != nil {
		return err
	}

	toCard, err := s.rules.FindCard(ctx, toCardID)
	if err != nil {
		return err
	}
	if err := s.rules.EnsureOwnership(toCard, callerID); err != nil {
		return err
	}
	if err := s.rules.ValidateActive(ctx, toCard); err != nil {
		return err
	}

	if amount.GreaterThan(fromCard.Balance) {
		s.log.Warnf("Transfer failed: insufficient funds on card %s (balance=%s, requested=%s)",
			fromCard.ID, fromCard.Balance, amount)
		return ErrInsufficientFunds
	}

	// The store re-checks the balance under row locks; a concurrent
	// debit between the check above and the move surfaces here.
	if err := s.store.MoveBalance(ctx, fromCardID, toCardID, amount); err != nil {
		return err
	}

	metrics.TransfersTotal.Inc()
	s.log.Infof("Transfer success: %s -> %s amount=%s", fromCardID, toCardID, amount)
	return nil
}
