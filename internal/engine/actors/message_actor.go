// internal/engine/actors/message_actor.go
package actors

import (
	"log"
	"strings"
	"time"

	stdctx "context"

	"chit-chat/internal/feed"
	"chit-chat/internal/models"
	"chit-chat/internal/store"
	"chit-chat/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

// Message types for feed operations
type (
	SendMessageMsg struct {
		UserID       uuid.UUID
		UserName     string
		Content      string
		IsPrivate    bool
		TargetUserID *uuid.UUID
	}

	DeleteMessageMsg struct {
		MessageID   uuid.UUID
		RequesterID uuid.UUID
		IsAdmin     bool
	}

	ToggleReactionMsg struct {
		MessageID uuid.UUID
		UserID    uuid.UUID
		UserName  string
		Emoji     string
	}

	RecordSeenMsg struct {
		MessageID uuid.UUID
		UserID    uuid.UUID
		UserName  string
	}

	GetFeedMsg struct {
		ViewerID uuid.UUID
	}
)

// ToggleReactionResult reports the state a reaction ended up in.
type ToggleReactionResult struct {
	Added bool
}

// MessageActor serializes all feed writes. Running them through a single
// actor keeps toggle and delete races out of the handlers while the store
// enforces the per-row uniqueness guarantees underneath.
type MessageActor struct {
	store   store.Adapter
	metrics *utils.MetricsCollector
}

func NewMessageActor(store store.Adapter, metrics *utils.MetricsCollector) actor.Actor {
	return &MessageActor{
		store:   store,
		metrics: metrics,
	}
}

// Receive handles messages sent to the MessageActor:
// - SendMessageMsg: Validates and persists a new message. Private messages
//   must name a recipient.
// - DeleteMessageMsg: Admin-only removal of a message and its annotations.
// - ToggleReactionMsg: Flips a (message, user, emoji) reaction and responds
//   with the resulting state.
// - RecordSeenMsg: Records a seen receipt. Duplicate and self receipts are
//   silently absorbed by the store.
// - GetFeedMsg: Responds with the full feed filtered to what the viewer may
//   see.
func (a *MessageActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *SendMessageMsg:
		startTime := time.Now()

		content := strings.TrimSpace(msg.Content)
		if content == "" {
			context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Message content cannot be empty", nil))
			return
		}
		if msg.IsPrivate && msg.TargetUserID == nil {
			context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Private messages need a recipient", nil))
			return
		}

		message := &models.Message{
			ID:           uuid.New(),
			UserID:       msg.UserID,
			UserName:     msg.UserName,
			Content:      content,
			IsPrivate:    msg.IsPrivate,
			TargetUserID: msg.TargetUserID,
			CreatedAt:    time.Now(),
			Reactions:    []*models.Reaction{},
			SeenBy:       []*models.SeenReceipt{},
		}

		ctx := stdctx.Background()
		if err := a.store.SaveMessage(ctx, message); err != nil {
			log.Printf("MessageActor: Failed to save message: %v", err)
			context.Respond(utils.NewAppError(utils.ErrStorageUnavailable, "Failed to save message", err))
			return
		}

		a.metrics.AddOperationLatency("send_message", time.Since(startTime))
		context.Respond(message)

	case *DeleteMessageMsg:
		if !msg.IsAdmin {
			context.Respond(utils.NewAppError(utils.ErrForbidden, "Only admins can delete messages", nil))
			return
		}

		ctx := stdctx.Background()
		if err := a.store.DeleteMessage(ctx, msg.MessageID); err != nil {
			log.Printf("MessageActor: Failed to delete message %s: %v", msg.MessageID, err)
			context.Respond(utils.NewAppError(utils.ErrStorageUnavailable, "Failed to delete message", err))
			return
		}

		log.Printf("MessageActor: Message %s deleted by admin %s", msg.MessageID, msg.RequesterID)
		context.Respond(true)

	case *ToggleReactionMsg:
		startTime := time.Now()

		if !models.IsAllowedEmoji(msg.Emoji) {
			context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Unsupported reaction emoji", nil))
			return
		}

		ctx := stdctx.Background()
		added, err := a.store.ToggleReaction(ctx, msg.MessageID, msg.UserID, msg.UserName, msg.Emoji)
		if err != nil {
			log.Printf("MessageActor: Failed to toggle reaction on %s: %v", msg.MessageID, err)
			context.Respond(utils.NewAppError(utils.ErrStorageUnavailable, "Failed to toggle reaction", err))
			return
		}

		a.metrics.AddOperationLatency("toggle_reaction", time.Since(startTime))
		context.Respond(&ToggleReactionResult{Added: added})

	case *RecordSeenMsg:
		ctx := stdctx.Background()
		if err := a.store.RecordSeen(ctx, msg.MessageID, msg.UserID, msg.UserName); err != nil {
			log.Printf("MessageActor: Failed to record seen receipt on %s: %v", msg.MessageID, err)
			context.Respond(utils.NewAppError(utils.ErrStorageUnavailable, "Failed to record seen receipt", err))
			return
		}
		context.Respond(true)

	case *GetFeedMsg:
		startTime := time.Now()

		ctx := stdctx.Background()
		messages, err := a.store.FetchAll(ctx)
		if err != nil {
			log.Printf("MessageActor: Failed to fetch feed: %v", err)
			context.Respond(utils.NewAppError(utils.ErrStorageUnavailable, "Failed to fetch feed", err))
			return
		}

		visible := feed.Visible(messages, msg.ViewerID)

		a.metrics.AddOperationLatency("get_feed", time.Since(startTime))
		context.Respond(visible)
	}
}
