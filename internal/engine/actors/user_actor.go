// internal/engine/actors/user_actor.go
package actors

import (
	"log"
	"strings"
	"time"

	stdctx "context"

	"chit-chat/internal/api"
	"chit-chat/internal/middleware"
	"chit-chat/internal/models"
	"chit-chat/internal/store"
	"chit-chat/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Message types for user operations
type (
	RegisterUserMsg struct {
		Name     string
		Email    string
		Password string
	}

	LoginMsg struct {
		Email    string
		Password string
	}

	GetUserMsg struct {
		UserID uuid.UUID
	}

	GetAllUsersMsg struct{}

	UpdateLastSeenMsg struct {
		UserID uuid.UUID
	}
)

// UserActor owns account operations. All user reads and writes go through
// the store adapter so the actor itself stays stateless and restartable.
type UserActor struct {
	store   store.Adapter
	metrics *utils.MetricsCollector
}

func NewUserActor(store store.Adapter, metrics *utils.MetricsCollector) actor.Actor {
	return &UserActor{
		store:   store,
		metrics: metrics,
	}
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}

// Receive handles messages sent to the UserActor:
// - RegisterUserMsg: Validates input, hashes the password, persists the new
//   account and responds with a signed token so registration doubles as login.
// - LoginMsg: Verifies credentials and responds with a LoginResponse. Failed
//   lookups and failed password checks produce the same error so the response
//   never reveals whether an email is registered.
// - GetUserMsg / GetAllUsersMsg: Read-through to the store.
// - UpdateLastSeenMsg: Best-effort activity bump, responds with true.
func (a *UserActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *RegisterUserMsg:
		startTime := time.Now()

		name := strings.TrimSpace(msg.Name)
		email := strings.TrimSpace(msg.Email)
		if name == "" || email == "" || msg.Password == "" {
			context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Please fill in all fields", nil))
			return
		}

		ctx := stdctx.Background()
		existing, _ := a.store.GetUserByEmail(ctx, email)
		if existing != nil {
			log.Printf("UserActor: Email already registered: %s", email)
			context.Respond(utils.NewAppError(utils.ErrUserAlreadyExists, "User with this email already exists", nil))
			return
		}

		hashedPassword, err := hashPassword(msg.Password)
		if err != nil {
			context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Failed to hash password", err))
			return
		}

		user := &models.User{
			ID:             uuid.New(),
			Name:           name,
			Email:          email,
			HashedPassword: hashedPassword,
			IsAdmin:        false,
			CreatedAt:      time.Now(),
			LastSeen:       time.Now(),
		}

		if err := a.store.SaveUser(ctx, user); err != nil {
			if utils.IsErrorCode(err, utils.ErrUserAlreadyExists) {
				context.Respond(utils.NewAppError(utils.ErrUserAlreadyExists, "User with this email already exists", err))
				return
			}
			log.Printf("UserActor: Failed to save user: %v", err)
			context.Respond(utils.NewAppError(utils.ErrStorageUnavailable, "Failed to save user", err))
			return
		}

		token, err := middleware.GenerateToken(user)
		if err != nil {
			log.Printf("UserActor: Failed to generate token: %v", err)
			context.Respond(utils.NewAppError(utils.ErrInvalidToken, "Failed to generate token", err))
			return
		}

		log.Printf("UserActor: Registered user %s (%s)", user.ID, user.Email)
		a.metrics.AddOperationLatency("register_user", time.Since(startTime))

		context.Respond(&api.LoginResponse{
			Success: true,
			Token:   token,
			User:    user,
		})

	case *LoginMsg:
		startTime := time.Now()

		email := strings.TrimSpace(msg.Email)
		if email == "" || msg.Password == "" {
			context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Please fill in all fields", nil))
			return
		}

		ctx := stdctx.Background()
		user, err := a.store.GetUserByEmail(ctx, email)
		if err != nil {
			log.Printf("UserActor: Login failed, user lookup error: %v", err)
			context.Respond(utils.NewInvalidCredentialsError())
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(msg.Password)); err != nil {
			log.Printf("UserActor: Login failed, password mismatch for %s", email)
			context.Respond(utils.NewInvalidCredentialsError())
			return
		}

		if err := a.store.UpdateLastSeen(ctx, user.ID); err != nil {
			log.Printf("UserActor: Warning: failed to update last seen for %s: %v", user.ID, err)
		}
		user.LastSeen = time.Now()

		token, err := middleware.GenerateToken(user)
		if err != nil {
			log.Printf("UserActor: Failed to generate token: %v", err)
			context.Respond(utils.NewAppError(utils.ErrInvalidToken, "Failed to generate token", err))
			return
		}

		log.Printf("UserActor: Login successful for %s", user.Name)
		a.metrics.AddOperationLatency("login", time.Since(startTime))

		context.Respond(&api.LoginResponse{
			Success: true,
			Token:   token,
			User:    user,
		})

	case *GetUserMsg:
		ctx := stdctx.Background()
		user, err := a.store.GetUser(ctx, msg.UserID)
		if err != nil {
			context.Respond(utils.NewAppError(utils.ErrUserNotFound, "User not found", err))
			return
		}
		context.Respond(user)

	case *GetAllUsersMsg:
		ctx := stdctx.Background()
		users, err := a.store.GetAllUsers(ctx)
		if err != nil {
			context.Respond(utils.NewAppError(utils.ErrStorageUnavailable, "Failed to list users", err))
			return
		}
		context.Respond(users)

	case *UpdateLastSeenMsg:
		ctx := stdctx.Background()
		if err := a.store.UpdateLastSeen(ctx, msg.UserID); err != nil {
			log.Printf("UserActor: Failed to update last seen for %s: %v", msg.UserID, err)
		}
		context.Respond(true)
	}
}
