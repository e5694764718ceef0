package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a user in the system
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Not serialized
	Admin        bool      `json:"admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// Actor is the already-authenticated caller of a card operation.
type Actor struct {
	UserID uuid.UUID
	Admin  bool
}
