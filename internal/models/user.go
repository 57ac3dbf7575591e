package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Email          string    `json:"email" db:"email"`
	HashedPassword string    `json:"-" db:"password_hash"`
	IsAdmin        bool      `json:"isAdmin" db:"is_admin"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	LastSeen       time.Time `json:"lastSeen" db:"last_seen"`
}
