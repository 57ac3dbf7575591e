// internal/handlers/user_handlers.go
package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"chit-chat/internal/api"
	"chit-chat/internal/engine/actors"
	"chit-chat/internal/session"

	"github.com/google/uuid"
)

// RegisterUserRequest represents a request to register a new user
type RegisterUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a request to log in a user
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleUserRegistration handles requests to register a new user
func (s *Server) HandleUserRegistration() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req RegisterUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		future := s.Context.RequestFuture(
			s.Engine.GetUserActor(),
			&actors.RegisterUserMsg{
				Name:     req.Name,
				Email:    req.Email,
				Password: req.Password,
			},
			s.RequestTimeout,
		)

		result, err := future.Result()
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to register user: %v", err), http.StatusInternalServerError)
			return
		}

		if s.respondAppError(w, result) {
			return
		}

		resp, ok := result.(*api.LoginResponse)
		if !ok {
			log.Printf("HTTP Handler: Invalid registration response type: %T", result)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		s.persistSession(resp)
		respondJSON(w, http.StatusOK, resp)
	}
}

// HandleUserLogin handles requests to log in a user
func (s *Server) HandleUserLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		log.Printf("HTTP Handler: Received login request for email: %s", req.Email)

		future := s.Context.RequestFuture(
			s.Engine.GetUserActor(),
			&actors.LoginMsg{
				Email:    req.Email,
				Password: req.Password,
			},
			s.RequestTimeout,
		)

		result, err := future.Result()
		if err != nil {
			log.Printf("HTTP Handler: Error getting login result: %v", err)
			http.Error(w, "Failed to process login", http.StatusInternalServerError)
			return
		}

		if s.respondAppError(w, result) {
			return
		}

		resp, ok := result.(*api.LoginResponse)
		if !ok {
			log.Printf("HTTP Handler: Invalid login response type: %T", result)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		s.persistSession(resp)
		respondJSON(w, http.StatusOK, resp)
	}
}

// HandleUserLogout clears the persisted session.
func (s *Server) HandleUserLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if err := s.Sessions.Clear(); err != nil {
			log.Printf("HTTP Handler: Failed to clear session: %v", err)
			http.Error(w, "Failed to log out", http.StatusInternalServerError)
			return
		}

		respondJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// HandleSessionRestore reports the identity remembered from the last login
// so a reloaded client can resume without showing the login form again.
// Logout clears the record, after which this returns a null session.
func (s *Server) HandleSessionRestore() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		sess, err := s.Sessions.Load()
		if err != nil {
			log.Printf("HTTP Handler: Failed to load session: %v", err)
			http.Error(w, "Failed to load session", http.StatusInternalServerError)
			return
		}

		respondJSON(w, http.StatusOK, map[string]*session.Session{"session": sess})
	}
}

// HandleUserProfile handles requests to get a user's profile
func (s *Server) HandleUserProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userIDStr := r.URL.Query().Get("userId")
		if userIDStr == "" {
			// Default to the caller's own profile.
			sess, ok := session.FromContext(r.Context())
			if !ok {
				http.Error(w, "User ID required", http.StatusBadRequest)
				return
			}
			userIDStr = sess.UserID.String()
		}

		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			http.Error(w, "Invalid user ID format", http.StatusBadRequest)
			return
		}

		future := s.Context.RequestFuture(
			s.Engine.GetUserActor(),
			&actors.GetUserMsg{UserID: userID},
			s.RequestTimeout,
		)

		result, err := future.Result()
		if err != nil {
			http.Error(w, "Failed to get user profile", http.StatusInternalServerError)
			return
		}

		if s.respondAppError(w, result) {
			return
		}

		respondJSON(w, http.StatusOK, result)
	}
}

// HandleGetAllUsers handles requests to get all users, used by the private
// message recipient picker.
func (s *Server) HandleGetAllUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		future := s.Context.RequestFuture(
			s.Engine.GetUserActor(),
			&actors.GetAllUsersMsg{},
			s.RequestTimeout,
		)

		result, err := future.Result()
		if err != nil {
			http.Error(w, "Failed to fetch users", http.StatusInternalServerError)
			return
		}

		if s.respondAppError(w, result) {
			return
		}

		respondJSON(w, http.StatusOK, result)
	}
}

// persistSession writes the authenticated identity to the local store so it
// survives a restart. Failures only lose the remembered login, so they are
// logged and ignored.
func (s *Server) persistSession(resp *api.LoginResponse) {
	if !resp.Success || resp.User == nil {
		return
	}
	err := s.Sessions.Save(&session.Session{
		UserID:  resp.User.ID,
		Name:    resp.User.Name,
		IsAdmin: resp.User.IsAdmin,
	})
	if err != nil {
		log.Printf("HTTP Handler: Failed to persist session: %v", err)
	}
}
