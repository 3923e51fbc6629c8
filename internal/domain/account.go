package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account is a user account referenced by transactions. Its lifecycle is
// owned by the user subsystem; the core only resolves accounts by id.
type Account struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
