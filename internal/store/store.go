// internal/store/store.go
package store

import (
	"context"

	"chit-chat/internal/models"

	"github.com/google/uuid"
)

// Adapter defines the common interface for message-store operations.
// Two backing strategies implement it: PostgresStore (remote, per-entity
// tables, change feed) and LocalStore (embedded Pebble, whole serialized
// collections under fixed keys). Fallback composes the two.
type Adapter interface {
	// Messages. FetchAll returns every message in creation order with its
	// reactions and seen receipts attached; messages without annotations
	// carry empty, never nil, slices.
	FetchAll(ctx context.Context) ([]*models.Message, error)
	SaveMessage(ctx context.Context, msg *models.Message) error
	// DeleteMessage removes a message and its annotations. Deleting a
	// message that is already gone is not an error.
	DeleteMessage(ctx context.Context, messageID uuid.UUID) error

	// Annotations. ToggleReaction returns the resulting state: true when
	// the reaction is now present, false when it was removed or the
	// message no longer exists. RecordSeen is idempotent and never
	// records a receipt for the message's own author.
	ToggleReaction(ctx context.Context, messageID, userID uuid.UUID, userName, emoji string) (bool, error)
	RecordSeen(ctx context.Context, messageID, userID uuid.UUID, userName string) error

	// Users
	SaveUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	UpdateLastSeen(ctx context.Context, id uuid.UUID) error

	// Ready is the capability probe: a trivial read against the messages
	// collection, true iff it succeeds.
	Ready(ctx context.Context) bool

	Close(ctx context.Context) error
}
