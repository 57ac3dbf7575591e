// internal/store/local.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"chit-chat/internal/models"
	"chit-chat/internal/utils"

	"github.com/cockroachdb/pebble"
	"github.com/google/uuid"
)

// Fixed keys for the serialized collections, mirroring the browser
// local-storage layout: the whole collection lives under one key and every
// write rewrites it. Messages inline their reactions and seenBy arrays in
// this representation.
const (
	localUsersKey    = "users"
	localMessagesKey = "messages"
)

// LocalStore is the embedded fallback strategy backed by Pebble. Writes are
// read-modify-write over the whole collection: last writer wins, no partial
// updates, no cross-process coordination.
type LocalStore struct {
	db *pebble.DB

	// Serializes read-modify-write cycles within this process. Another
	// process on the same path still races exactly like another browser
	// tab would.
	mu sync.Mutex
}

// NewLocalStore opens (or creates) the Pebble database at path.
func NewLocalStore(path string) (*LocalStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open local store at %s: %v", path, err)
	}
	log.Printf("Local store opened at %s", path)
	return &LocalStore{db: db}, nil
}

// Close closes the underlying Pebble database.
func (l *LocalStore) Close(ctx context.Context) error {
	log.Println("Closing local store...")
	return l.db.Close()
}

// Ready always reports true: the embedded store has no remote dependency.
func (l *LocalStore) Ready(ctx context.Context) bool {
	return true
}

// GetRaw reads an arbitrary key. A missing key returns (nil, nil).
func (l *LocalStore) GetRaw(key string) ([]byte, error) {
	value, closer, err := l.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// PutRaw writes an arbitrary key synchronously.
func (l *LocalStore) PutRaw(key string, value []byte) error {
	return l.db.Set([]byte(key), value, pebble.Sync)
}

// DeleteRaw removes an arbitrary key.
func (l *LocalStore) DeleteRaw(key string) error {
	return l.db.Delete([]byte(key), pebble.Sync)
}

func (l *LocalStore) readMessages() ([]*models.Message, error) {
	raw, err := l.GetRaw(localMessagesKey)
	if err != nil {
		return nil, utils.NewStorageUnavailableError("read local messages", err)
	}
	if raw == nil {
		return []*models.Message{}, nil
	}
	var messages []*models.Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil, utils.NewStorageUnavailableError("decode local messages", err)
	}
	return messages, nil
}

func (l *LocalStore) writeMessages(messages []*models.Message) error {
	raw, err := json.Marshal(messages)
	if err != nil {
		return utils.NewStorageUnavailableError("encode local messages", err)
	}
	if err := l.PutRaw(localMessagesKey, raw); err != nil {
		return utils.NewStorageUnavailableError("write local messages", err)
	}
	return nil
}

func (l *LocalStore) readUsers() ([]*models.User, error) {
	raw, err := l.GetRaw(localUsersKey)
	if err != nil {
		return nil, utils.NewStorageUnavailableError("read local users", err)
	}
	if raw == nil {
		return []*models.User{}, nil
	}
	var users []*models.User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, utils.NewStorageUnavailableError("decode local users", err)
	}
	return users, nil
}

func (l *LocalStore) writeUsers(users []*models.User) error {
	raw, err := json.Marshal(users)
	if err != nil {
		return utils.NewStorageUnavailableError("encode local users", err)
	}
	if err := l.PutRaw(localUsersKey, raw); err != nil {
		return utils.NewStorageUnavailableError("write local users", err)
	}
	return nil
}

// FetchAll returns the whole message collection. Annotations are stored
// inline, so this is a single read plus normalization of nil slices.
func (l *LocalStore) FetchAll(ctx context.Context) ([]*models.Message, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	messages, err := l.readMessages()
	if err != nil {
		return nil, err
	}
	for _, msg := range messages {
		if msg.Reactions == nil {
			msg.Reactions = []*models.Reaction{}
		}
		if msg.SeenBy == nil {
			msg.SeenBy = []*models.SeenReceipt{}
		}
	}
	return messages, nil
}

// SaveMessage appends one message and rewrites the collection.
func (l *LocalStore) SaveMessage(ctx context.Context, msg *models.Message) error {
	if msg.IsPrivate && msg.TargetUserID == nil {
		return utils.NewAppError(utils.ErrInvalidInput, "Private message requires a target user", nil)
	}
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	if msg.Reactions == nil {
		msg.Reactions = []*models.Reaction{}
	}
	if msg.SeenBy == nil {
		msg.SeenBy = []*models.SeenReceipt{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	messages, err := l.readMessages()
	if err != nil {
		return err
	}
	return l.writeMessages(append(messages, msg))
}

// DeleteMessage drops a message from the collection. Deleting a message
// that is already gone is a no-op.
func (l *LocalStore) DeleteMessage(ctx context.Context, messageID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	messages, err := l.readMessages()
	if err != nil {
		return err
	}

	kept := messages[:0]
	for _, msg := range messages {
		if msg.ID != messageID {
			kept = append(kept, msg)
		}
	}
	if len(kept) == len(messages) {
		return nil
	}
	return l.writeMessages(kept)
}

// ToggleReaction flips the inline reaction and rewrites the collection.
func (l *LocalStore) ToggleReaction(ctx context.Context, messageID, userID uuid.UUID, userName, emoji string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	messages, err := l.readMessages()
	if err != nil {
		return false, err
	}

	var target *models.Message
	for _, msg := range messages {
		if msg.ID == messageID {
			target = msg
			break
		}
	}
	if target == nil {
		log.Printf("ToggleReaction: message %s no longer exists locally, ignoring", messageID)
		return false, nil
	}

	for i, r := range target.Reactions {
		if r.UserID == userID && r.Emoji == emoji {
			target.Reactions = append(target.Reactions[:i], target.Reactions[i+1:]...)
			return false, l.writeMessages(messages)
		}
	}

	target.Reactions = append(target.Reactions, &models.Reaction{
		ID:        uuid.New(),
		MessageID: messageID,
		UserID:    userID,
		UserName:  userName,
		Emoji:     emoji,
		CreatedAt: time.Now(),
	})
	return true, l.writeMessages(messages)
}

// RecordSeen appends one inline receipt per (message, user), never for the
// author. Replays and missing messages are no-ops.
func (l *LocalStore) RecordSeen(ctx context.Context, messageID, userID uuid.UUID, userName string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	messages, err := l.readMessages()
	if err != nil {
		return err
	}

	var target *models.Message
	for _, msg := range messages {
		if msg.ID == messageID {
			target = msg
			break
		}
	}
	if target == nil || target.UserID == userID {
		return nil
	}
	for _, rc := range target.SeenBy {
		if rc.UserID == userID {
			return nil
		}
	}

	target.SeenBy = append(target.SeenBy, &models.SeenReceipt{
		ID:        uuid.New(),
		MessageID: messageID,
		UserID:    userID,
		UserName:  userName,
		SeenAt:    time.Now(),
	})
	return l.writeMessages(messages)
}

// SaveUser appends a user; duplicate emails are rejected.
func (l *LocalStore) SaveUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	if user.LastSeen.IsZero() {
		user.LastSeen = user.CreatedAt
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	users, err := l.readUsers()
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.Email == user.Email {
			return utils.NewAppError(utils.ErrUserAlreadyExists, "User with this email already exists", nil)
		}
	}
	return l.writeUsers(append(users, user))
}

// GetUser retrieves a user by ID
func (l *LocalStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	users, err := l.readUsers()
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, utils.NewUserNotFoundError(id.String())
}

// GetUserByEmail retrieves a user by email
func (l *LocalStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	users, err := l.readUsers()
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, utils.NewUserNotFoundError(email)
}

// GetAllUsers returns every registered user
func (l *LocalStore) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readUsers()
}

// UpdateLastSeen stamps the user's LastSeen field and rewrites the collection
func (l *LocalStore) UpdateLastSeen(ctx context.Context, id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	users, err := l.readUsers()
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.ID == id {
			u.LastSeen = time.Now()
			return l.writeUsers(users)
		}
	}
	return nil
}
