package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chit-chat/internal/models"
	"chit-chat/internal/session"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() *models.User {
	return &models.User{
		ID:        uuid.New(),
		Name:      "alice",
		Email:     "alice@example.com",
		IsAdmin:   true,
		CreatedAt: time.Now(),
	}
}

func TestTokenRoundTrip(t *testing.T) {
	SetSecret("test-secret")
	user := testUser()

	token, err := GenerateToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Name)
	assert.True(t, claims.IsAdmin)

	sess := SessionFromClaims(claims)
	assert.Equal(t, user.ID, sess.UserID)
	assert.True(t, sess.IsAdmin)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	SetSecret("first-secret")
	token, err := GenerateToken(testUser())
	require.NoError(t, err)

	SetSecret("second-secret")
	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTMiddlewareAttachesSession(t *testing.T) {
	SetSecret("test-secret")
	user := testUser()
	token, err := GenerateToken(user)
	require.NoError(t, err)

	var got *session.Session
	handler := ApplyJWTMiddleware(func(w http.ResponseWriter, r *http.Request) {
		got, _ = session.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}, "/messages")

	req := httptest.NewRequest(http.MethodGet, "/messages", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.UserID)
}

func TestJWTMiddlewareRejectsMissingToken(t *testing.T) {
	SetSecret("test-secret")

	handler := ApplyJWTMiddleware(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run without a token")
	}, "/messages")

	req := httptest.NewRequest(http.MethodGet, "/messages", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTMiddlewareSkipsUnprotectedRoutes(t *testing.T) {
	SetSecret("test-secret")

	called := false
	handler := ApplyJWTMiddleware(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}, "/user/login")

	req := httptest.NewRequest(http.MethodPost, "/user/login", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}
