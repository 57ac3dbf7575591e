// internal/handlers/handlers.go
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"chit-chat/internal/config"
	"chit-chat/internal/engine"
	"chit-chat/internal/session"
	"chit-chat/internal/store"
	"chit-chat/internal/utils"
	"chit-chat/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
)

// Server holds all server dependencies, including the actor system and engine
type Server struct {
	System         *actor.ActorSystem
	Context        *actor.RootContext
	Engine         *engine.Engine
	Store          *store.Fallback
	Hub            *websocket.Hub
	Sessions       *session.Manager
	Metrics        *utils.MetricsCollector
	Config         *config.Config
	RequestTimeout time.Duration
}

// NewServer creates a new Server instance with the given components
func NewServer(
	system *actor.ActorSystem,
	context *actor.RootContext,
	eng *engine.Engine,
	adapter *store.Fallback,
	hub *websocket.Hub,
	sessions *session.Manager,
	metrics *utils.MetricsCollector,
	cfg *config.Config,
) *Server {
	return &Server{
		System:         system,
		Context:        context,
		Engine:         eng,
		Store:          adapter,
		Hub:            hub,
		Sessions:       sessions,
		Metrics:        metrics,
		Config:         cfg,
		RequestTimeout: 5 * time.Second, // Default timeout for actor requests
	}
}

// respondJSON writes a JSON body with the given status.
func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// respondAppError maps an actor-returned AppError onto an HTTP status and
// reports true when result was in fact an error.
func (s *Server) respondAppError(w http.ResponseWriter, result interface{}) bool {
	appErr, ok := result.(*utils.AppError)
	if !ok {
		return false
	}
	s.Metrics.IncrementErrors()
	respondJSON(w, utils.AppErrorToHTTPStatus(appErr.Code), map[string]string{
		"error": appErr.Message,
	})
	return true
}
