// internal/handlers/message_handlers.go
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"chit-chat/internal/engine/actors"
	"chit-chat/internal/models"
	"chit-chat/internal/session"

	"github.com/google/uuid"
)

// SendMessageRequest represents a request to post a message to the feed
type SendMessageRequest struct {
	Content      string `json:"content"`
	IsPrivate    bool   `json:"isPrivate"`
	TargetUserID string `json:"targetUserId,omitempty"` // UUID as string, required when IsPrivate
}

// ReactionRequest represents a request to toggle an emoji reaction
type ReactionRequest struct {
	MessageID string `json:"messageId"`
	Emoji     string `json:"emoji"`
}

// SeenRequest represents a request to record a seen receipt
type SeenRequest struct {
	MessageID string `json:"messageId"`
}

// HandleMessages handles feed reads, message creation and message deletion
func (s *Server) HandleMessages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session.FromContext(r.Context())
		if !ok {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		switch r.Method {
		case http.MethodGet:
			future := s.Context.RequestFuture(
				s.Engine.GetMessageActor(),
				&actors.GetFeedMsg{ViewerID: sess.UserID},
				s.RequestTimeout,
			)

			result, err := future.Result()
			if err != nil {
				http.Error(w, "Failed to fetch feed", http.StatusInternalServerError)
				return
			}

			if s.respondAppError(w, result) {
				return
			}

			respondJSON(w, http.StatusOK, result)

		case http.MethodPost:
			var req SendMessageRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}

			var targetUserID *uuid.UUID
			if req.TargetUserID != "" {
				id, err := uuid.Parse(req.TargetUserID)
				if err != nil {
					http.Error(w, "Invalid target user ID format", http.StatusBadRequest)
					return
				}
				targetUserID = &id
			}

			future := s.Context.RequestFuture(
				s.Engine.GetMessageActor(),
				&actors.SendMessageMsg{
					UserID:       sess.UserID,
					UserName:     sess.Name,
					Content:      req.Content,
					IsPrivate:    req.IsPrivate,
					TargetUserID: targetUserID,
				},
				s.RequestTimeout,
			)

			result, err := future.Result()
			if err != nil {
				http.Error(w, fmt.Sprintf("Failed to send message: %v", err), http.StatusInternalServerError)
				return
			}

			if s.respondAppError(w, result) {
				return
			}

			if msg, ok := result.(*models.Message); ok {
				s.notifyNewMessage(msg)
			}
			respondJSON(w, http.StatusCreated, result)

		case http.MethodDelete:
			messageIDStr := r.URL.Query().Get("id")
			if messageIDStr == "" {
				http.Error(w, "Message ID required", http.StatusBadRequest)
				return
			}

			messageID, err := uuid.Parse(messageIDStr)
			if err != nil {
				http.Error(w, "Invalid message ID format", http.StatusBadRequest)
				return
			}

			future := s.Context.RequestFuture(
				s.Engine.GetMessageActor(),
				&actors.DeleteMessageMsg{
					MessageID:   messageID,
					RequesterID: sess.UserID,
					IsAdmin:     sess.IsAdmin,
				},
				s.RequestTimeout,
			)

			result, err := future.Result()
			if err != nil {
				http.Error(w, fmt.Sprintf("Failed to delete message: %v", err), http.StatusInternalServerError)
				return
			}

			if s.respondAppError(w, result) {
				return
			}

			respondJSON(w, http.StatusOK, map[string]bool{"success": true})

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleReaction handles emoji reaction toggles
func (s *Server) HandleReaction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		sess, ok := session.FromContext(r.Context())
		if !ok {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		var req ReactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		messageID, err := uuid.Parse(req.MessageID)
		if err != nil {
			http.Error(w, "Invalid message ID format", http.StatusBadRequest)
			return
		}

		future := s.Context.RequestFuture(
			s.Engine.GetMessageActor(),
			&actors.ToggleReactionMsg{
				MessageID: messageID,
				UserID:    sess.UserID,
				UserName:  sess.Name,
				Emoji:     req.Emoji,
			},
			s.RequestTimeout,
		)

		result, err := future.Result()
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to toggle reaction: %v", err), http.StatusInternalServerError)
			return
		}

		if s.respondAppError(w, result) {
			return
		}

		toggled, ok := result.(*actors.ToggleReactionResult)
		if !ok {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		respondJSON(w, http.StatusOK, map[string]bool{"added": toggled.Added})
	}
}

// HandleSeen records a seen receipt for a message on behalf of the caller
func (s *Server) HandleSeen() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		sess, ok := session.FromContext(r.Context())
		if !ok {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		var req SeenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		messageID, err := uuid.Parse(req.MessageID)
		if err != nil {
			http.Error(w, "Invalid message ID format", http.StatusBadRequest)
			return
		}

		future := s.Context.RequestFuture(
			s.Engine.GetMessageActor(),
			&actors.RecordSeenMsg{
				MessageID: messageID,
				UserID:    sess.UserID,
				UserName:  sess.Name,
			},
			s.RequestTimeout,
		)

		result, err := future.Result()
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to record seen receipt: %v", err), http.StatusInternalServerError)
			return
		}

		if s.respondAppError(w, result) {
			return
		}

		respondJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}
