package models

import (
	"time"

	"github.com/google/uuid"
)

// Message represents one chat message, public or private. UserName is a
// snapshot of the author's display name at send time; a later rename does
// not rewrite history.
type Message struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	UserID       uuid.UUID      `json:"userId" db:"user_id"`
	UserName     string         `json:"userName" db:"user_name"`
	Content      string         `json:"content" db:"content"`
	IsPrivate    bool           `json:"isPrivate" db:"is_private"`
	TargetUserID *uuid.UUID     `json:"targetUserId,omitempty" db:"target_user_id"`
	CreatedAt    time.Time      `json:"createdAt" db:"created_at"`
	Reactions    []*Reaction    `json:"reactions"`
	SeenBy       []*SeenReceipt `json:"seenBy"`
}

// Reaction is a single emoji reaction on a message. At most one live
// reaction exists per (message, user, emoji); re-adding the same emoji
// removes it instead.
type Reaction struct {
	ID        uuid.UUID `json:"id" db:"id"`
	MessageID uuid.UUID `json:"messageId" db:"message_id"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	UserName  string    `json:"userName" db:"user_name"`
	Emoji     string    `json:"emoji" db:"emoji"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// SeenReceipt records that a viewer has observed a message. At most one
// per (message, user), and never for the message's own author.
type SeenReceipt struct {
	ID        uuid.UUID `json:"id" db:"id"`
	MessageID uuid.UUID `json:"messageId" db:"message_id"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	UserName  string    `json:"userName" db:"user_name"`
	SeenAt    time.Time `json:"seenAt" db:"seen_at"`
}
