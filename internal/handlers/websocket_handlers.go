// internal/handlers/websocket_handlers.go
package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"chit-chat/internal/feed"
	"chit-chat/internal/middleware"
	"chit-chat/internal/models"
	"chit-chat/internal/websocket"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origins are filtered by the CORS layer; the upgrade accepts any.
		return true
	},
}

// feedFrame is the JSON envelope pushed to clients on every refresh. It
// carries the visible messages plus per-message reaction tallies so clients
// render counts without re-grouping.
type feedFrame struct {
	Type           string                       `json:"type"`
	Messages       []*models.Message            `json:"messages"`
	ReactionCounts map[uuid.UUID]map[string]int `json:"reactionCounts"`
}

// reactionCounts tallies each message's reactions by emoji.
func reactionCounts(messages []*models.Message) map[uuid.UUID]map[string]int {
	counts := make(map[uuid.UUID]map[string]int, len(messages))
	for _, msg := range messages {
		perEmoji := make(map[string]int)
		for emoji, group := range feed.GroupReactions(msg.Reactions) {
			perEmoji[emoji] = len(group)
		}
		counts[msg.ID] = perEmoji
	}
	return counts
}

// messageNotice nudges connected clients about a just-posted message ahead
// of their next refresh.
type messageNotice struct {
	Type    string          `json:"type"`
	Message *models.Message `json:"message"`
}

// notifyNewMessage pushes a notice for a freshly saved message. Public
// messages go to every connection; private ones stay between the author and
// the recipient so other viewers never see them on the wire.
func (s *Server) notifyNewMessage(msg *models.Message) {
	if s.Hub == nil {
		return
	}
	payload, err := json.Marshal(&messageNotice{Type: "message", Message: msg})
	if err != nil {
		log.Printf("Failed to encode message notice for %s: %v", msg.ID, err)
		return
	}
	if msg.IsPrivate {
		if msg.TargetUserID != nil {
			s.Hub.SendDirectFrame(*msg.TargetUserID, payload)
		}
		s.Hub.SendDirectFrame(msg.UserID, payload)
		return
	}
	s.Hub.BroadcastFrame(payload)
}

// HandleWebSocket upgrades the connection and attaches a refresh driver to
// it. The driver keeps the client's feed current, either by polling or by
// following the remote change feed; it is stopped when the peer goes away.
func (s *Server) HandleWebSocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Browsers cannot set an Authorization header on the upgrade
		// request, so the token rides in a query parameter.
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			log.Println("WebSocket connection failed: Missing token")
			http.Error(w, "Missing authentication token", http.StatusUnauthorized)
			return
		}

		claims, err := middleware.ValidateToken(tokenString)
		if err != nil {
			log.Printf("WebSocket connection failed: Invalid token: %v", err)
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		userID := claims.UserID
		if userID == uuid.Nil {
			log.Println("WebSocket connection failed: Nil userID in token claims")
			http.Error(w, "Invalid user ID in token", http.StatusInternalServerError)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed for user %s: %v", userID, err)
			return
		}
		log.Printf("WebSocket connection upgraded for user %s", userID)

		client := &websocket.Client{
			Hub:      s.Hub,
			UserID:   userID,
			UserName: claims.Name,
			Conn:     conn,
			Send:     make(chan []byte, 256),
		}
		client.Hub.Register <- client

		driver := feed.NewRefreshDriver(
			s.Store,
			s.Store,
			userID,
			claims.Name,
			s.Config.PollInterval,
			func(visible []*models.Message) {
				payload, err := json.Marshal(&feedFrame{
					Type:           "feed",
					Messages:       visible,
					ReactionCounts: reactionCounts(visible),
				})
				if err != nil {
					log.Printf("WebSocket: failed to encode feed for user %s: %v", userID, err)
					return
				}
				select {
				case client.Send <- payload:
				default:
					// A full buffer means the client is behind; the next
					// refresh carries a complete snapshot anyway.
				}
			},
			s.Metrics,
		)

		go client.WritePump()
		go func() {
			client.ReadPump()
			driver.Stop()
		}()
		driver.Start()
	}
}
