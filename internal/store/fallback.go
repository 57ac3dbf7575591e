// internal/store/fallback.go
package store

import (
	"context"
	"log"

	"chit-chat/internal/feed"
	"chit-chat/internal/models"
	"chit-chat/internal/utils"

	"github.com/google/uuid"
)

// Fallback is the single place the remote-then-local policy lives. Every
// operation runs against the remote store first and retries against the
// local store when the remote fails with a storage error. The two stores
// are not reconciled with each other: a local write taken during an outage
// stays local. That divergence is accepted and logged, never merged.
//
// Domain errors (validation, duplicates, not-found) are returned as-is;
// only storage failures trigger the fallback.
type Fallback struct {
	remote  Adapter // nil when the server runs local-only
	local   Adapter
	metrics *utils.MetricsCollector
}

// NewFallback composes the two strategies. remote may be nil.
func NewFallback(remote Adapter, local *LocalStore, metrics *utils.MetricsCollector) *Fallback {
	return &Fallback{
		remote:  remote,
		local:   local,
		metrics: metrics,
	}
}

// fellBack records one remote failure and logs the operation that took the
// local path.
func (f *Fallback) fellBack(operation string, err error) {
	f.metrics.IncrementFallbacks()
	log.Printf("Fallback: remote %s failed, using local store: %v", operation, err)
}

// shouldFallBack reports whether err is a storage failure rather than a
// domain error the caller needs to see.
func shouldFallBack(err error) bool {
	if appErr, ok := err.(*utils.AppError); ok {
		return appErr.Code == utils.ErrStorageUnavailable
	}
	// Unknown backend errors are treated as storage unavailability.
	return true
}

func (f *Fallback) FetchAll(ctx context.Context) ([]*models.Message, error) {
	if f.remote != nil {
		messages, err := f.remote.FetchAll(ctx)
		if err == nil {
			return messages, nil
		}
		if !shouldFallBack(err) {
			return nil, err
		}
		f.fellBack("fetchAll", err)
	}
	return f.local.FetchAll(ctx)
}

func (f *Fallback) SaveMessage(ctx context.Context, msg *models.Message) error {
	if f.remote != nil {
		err := f.remote.SaveMessage(ctx, msg)
		if err == nil || !shouldFallBack(err) {
			return err
		}
		f.fellBack("saveMessage", err)
	}
	return f.local.SaveMessage(ctx, msg)
}

func (f *Fallback) DeleteMessage(ctx context.Context, messageID uuid.UUID) error {
	if f.remote != nil {
		err := f.remote.DeleteMessage(ctx, messageID)
		if err == nil || !shouldFallBack(err) {
			return err
		}
		f.fellBack("deleteMessage", err)
	}
	return f.local.DeleteMessage(ctx, messageID)
}

func (f *Fallback) ToggleReaction(ctx context.Context, messageID, userID uuid.UUID, userName, emoji string) (bool, error) {
	if f.remote != nil {
		active, err := f.remote.ToggleReaction(ctx, messageID, userID, userName, emoji)
		if err == nil || !shouldFallBack(err) {
			return active, err
		}
		f.fellBack("toggleReaction", err)
	}
	return f.local.ToggleReaction(ctx, messageID, userID, userName, emoji)
}

func (f *Fallback) RecordSeen(ctx context.Context, messageID, userID uuid.UUID, userName string) error {
	if f.remote != nil {
		err := f.remote.RecordSeen(ctx, messageID, userID, userName)
		if err == nil || !shouldFallBack(err) {
			return err
		}
		f.fellBack("recordSeen", err)
	}
	return f.local.RecordSeen(ctx, messageID, userID, userName)
}

func (f *Fallback) SaveUser(ctx context.Context, user *models.User) error {
	if f.remote != nil {
		err := f.remote.SaveUser(ctx, user)
		if err == nil || !shouldFallBack(err) {
			return err
		}
		f.fellBack("saveUser", err)
	}
	return f.local.SaveUser(ctx, user)
}

func (f *Fallback) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if f.remote != nil {
		user, err := f.remote.GetUser(ctx, id)
		if err == nil || !shouldFallBack(err) {
			return user, err
		}
		f.fellBack("getUser", err)
	}
	return f.local.GetUser(ctx, id)
}

func (f *Fallback) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.remote != nil {
		user, err := f.remote.GetUserByEmail(ctx, email)
		if err == nil || !shouldFallBack(err) {
			return user, err
		}
		f.fellBack("getUserByEmail", err)
	}
	return f.local.GetUserByEmail(ctx, email)
}

func (f *Fallback) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	if f.remote != nil {
		users, err := f.remote.GetAllUsers(ctx)
		if err == nil || !shouldFallBack(err) {
			return users, err
		}
		f.fellBack("getAllUsers", err)
	}
	return f.local.GetAllUsers(ctx)
}

func (f *Fallback) UpdateLastSeen(ctx context.Context, id uuid.UUID) error {
	if f.remote != nil {
		err := f.remote.UpdateLastSeen(ctx, id)
		if err == nil || !shouldFallBack(err) {
			return err
		}
		f.fellBack("updateLastSeen", err)
	}
	return f.local.UpdateLastSeen(ctx, id)
}

// Ready reports the remote probe; a local-only deployment never reports
// ready, which keeps every refresh driver in polling mode.
func (f *Fallback) Ready(ctx context.Context) bool {
	return f.remote != nil && f.remote.Ready(ctx)
}

// Subscribe exposes the remote change feed when the remote store provides
// one.
func (f *Fallback) Subscribe(ctx context.Context) (<-chan feed.ChangeEvent, func(), error) {
	if sub, ok := f.remote.(feed.ChangeSubscriber); ok && f.remote != nil {
		return sub.Subscribe(ctx)
	}
	return nil, nil, utils.NewAppError(utils.ErrStorageUnavailable, "No change feed available", nil)
}

// Close closes both strategies; the first error wins.
func (f *Fallback) Close(ctx context.Context) error {
	var firstErr error
	if f.remote != nil {
		if err := f.remote.Close(ctx); err != nil {
			firstErr = err
		}
	}
	if err := f.local.Close(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
