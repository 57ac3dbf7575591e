package actors

import (
	"context"
	"testing"
	"time"

	"chit-chat/internal/api"
	"chit-chat/internal/middleware"
	"chit-chat/internal/models"
	"chit-chat/internal/store"
	"chit-chat/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.LocalStore {
	t.Helper()
	s, err := store.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		s.Close(context.Background())
	})
	return s
}

func spawnUserActor(t *testing.T, adapter store.Adapter) (*actor.ActorSystem, *actor.PID) {
	t.Helper()
	middleware.SetSecret("test-secret")

	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewUserActor(adapter, utils.NewMetricsCollector())
	})
	return system, system.Root.Spawn(props)
}

func TestUserAuthentication(t *testing.T) {
	system, pid := spawnUserActor(t, newTestStore(t))

	// Step 1: Register a new user
	regFuture := system.Root.RequestFuture(pid, &RegisterUserMsg{
		Name:     "testuser",
		Email:    "test@example.com",
		Password: "password123",
	}, 5*time.Second)

	regResult, err := regFuture.Result()
	if err != nil {
		t.Fatalf("Registration failed: %v", err)
	}

	regResponse, ok := regResult.(*api.LoginResponse)
	if !ok {
		t.Fatalf("Unexpected registration result type: %T", regResult)
	}
	assert.True(t, regResponse.Success)
	assert.NotEmpty(t, regResponse.Token)
	require.NotNil(t, regResponse.User)
	assert.Equal(t, "testuser", regResponse.User.Name)
	assert.False(t, regResponse.User.IsAdmin)

	// Step 2: Log in with the same credentials
	loginFuture := system.Root.RequestFuture(pid, &LoginMsg{
		Email:    "test@example.com",
		Password: "password123",
	}, 5*time.Second)

	loginResult, err := loginFuture.Result()
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	loginResponse, ok := loginResult.(*api.LoginResponse)
	if !ok {
		t.Fatalf("Unexpected login result type: %T", loginResult)
	}
	assert.True(t, loginResponse.Success)
	assert.NotEmpty(t, loginResponse.Token)

	// Step 3: Wrong password
	badFuture := system.Root.RequestFuture(pid, &LoginMsg{
		Email:    "test@example.com",
		Password: "wrongpassword",
	}, 5*time.Second)

	badResult, err := badFuture.Result()
	if err != nil {
		t.Fatalf("Bad login request failed: %v", err)
	}

	badErr, ok := badResult.(*utils.AppError)
	if !ok {
		t.Fatalf("Unexpected bad login result type: %T", badResult)
	}
	assert.Equal(t, utils.ErrInvalidCredentials, badErr.Code)
	assert.Equal(t, "Invalid email or password", badErr.Message)

	// Step 4: Unknown email reads identically to a wrong password
	unknownFuture := system.Root.RequestFuture(pid, &LoginMsg{
		Email:    "nobody@example.com",
		Password: "password123",
	}, 5*time.Second)

	unknownResult, err := unknownFuture.Result()
	if err != nil {
		t.Fatalf("Unknown email login request failed: %v", err)
	}

	unknownErr, ok := unknownResult.(*utils.AppError)
	if !ok {
		t.Fatalf("Unexpected unknown email result type: %T", unknownResult)
	}
	assert.Equal(t, badErr.Message, unknownErr.Message)
}

func TestUserRegistrationValidation(t *testing.T) {
	system, pid := spawnUserActor(t, newTestStore(t))

	// Missing fields
	future := system.Root.RequestFuture(pid, &RegisterUserMsg{
		Name:     "",
		Email:    "test@example.com",
		Password: "password123",
	}, 5*time.Second)

	result, err := future.Result()
	require.NoError(t, err)

	appErr, ok := result.(*utils.AppError)
	require.True(t, ok, "expected an AppError, got %T", result)
	assert.Equal(t, utils.ErrInvalidInput, appErr.Code)
	assert.Equal(t, "Please fill in all fields", appErr.Message)
}

func TestUserRegistrationDuplicateEmail(t *testing.T) {
	system, pid := spawnUserActor(t, newTestStore(t))

	first := system.Root.RequestFuture(pid, &RegisterUserMsg{
		Name:     "original",
		Email:    "dup@example.com",
		Password: "password123",
	}, 5*time.Second)
	firstResult, err := first.Result()
	require.NoError(t, err)
	require.IsType(t, &api.LoginResponse{}, firstResult)

	second := system.Root.RequestFuture(pid, &RegisterUserMsg{
		Name:     "impostor",
		Email:    "dup@example.com",
		Password: "different456",
	}, 5*time.Second)
	secondResult, err := second.Result()
	require.NoError(t, err)

	appErr, ok := secondResult.(*utils.AppError)
	require.True(t, ok, "expected an AppError, got %T", secondResult)
	assert.Equal(t, utils.ErrUserAlreadyExists, appErr.Code)
	assert.Equal(t, "User with this email already exists", appErr.Message)
}

func TestGetAllUsers(t *testing.T) {
	system, pid := spawnUserActor(t, newTestStore(t))

	for _, name := range []string{"alice", "bob"} {
		future := system.Root.RequestFuture(pid, &RegisterUserMsg{
			Name:     name,
			Email:    name + "@example.com",
			Password: "password123",
		}, 5*time.Second)
		_, err := future.Result()
		require.NoError(t, err)
	}

	future := system.Root.RequestFuture(pid, &GetAllUsersMsg{}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)

	users, ok := result.([]*models.User)
	require.True(t, ok, "expected a user slice, got %T", result)
	assert.Len(t, users, 2)
}
