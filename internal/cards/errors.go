package cards

import "errors"

// Business errors of the card ledger. Handlers map these to HTTP
// statuses with errors.Is.
var (
	ErrCardNotFound         = errors.New("card not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrAccessDenied         = errors.New("user does not own this card")
	ErrCardBlocked          = errors.New("card is blocked")
	ErrCardExpired          = errors.New("card is expired")
	ErrCardAlreadyBlocked   = errors.New("card is already blocked")
	ErrCardAlreadyActivated = errors.New("card is already activated")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrIncorrectAmount      = errors.New("amount must be positive")
	ErrCardsAreTheSame      = errors.New("cards cannot be the same")
	ErrCardNumberGeneration = errors.New("failed to generate a unique card number")
)
