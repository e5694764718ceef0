package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CardStatus is the lifecycle state of a card.
type CardStatus string

const (
	StatusActive  CardStatus = "ACTIVE"
	StatusBlocked CardStatus = "BLOCKED"
	StatusExpired CardStatus = "EXPIRED"
)

// ValidStatus reports whether s is one of the known card statuses.
func ValidStatus(s CardStatus) bool {
	switch s {
	case StatusActive, StatusBlocked, StatusExpired:
		return true
	}
	return false
}

// Card represents a virtual bank card. Number holds the encrypted card
// number (base64 nonce+ciphertext+tag); the plaintext is never stored.
type Card struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	Number         string          `json:"-"`
	LastFour       string          `json:"last_four"`
	Balance        decimal.Decimal `json:"balance"`
	Status         CardStatus      `json:"status"`
	ExpirationDate time.Time       `json:"expiration_date"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Expired reports whether the card's expiration date is strictly before
// the current day (time component ignored).
func (c *Card) Expired(now time.Time) bool {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	exp := time.Date(c.ExpirationDate.Year(), c.ExpirationDate.Month(), c.ExpirationDate.Day(), 0, 0, 0, 0, time.UTC)
	return exp.Before(today)
}
