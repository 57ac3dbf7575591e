package api

import "chit-chat/internal/models"

// LoginResponse is the body returned by the login and register endpoints.
type LoginResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token,omitempty"`
	User    *models.User `json:"user,omitempty"`
	Error   string       `json:"error,omitempty"`
}
