package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"brokerage/internal/repository"
	"brokerage/types"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type stubUserStore struct {
	users  map[string]*types.User
	nextID int64
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{users: make(map[string]*types.User)}
}

func (s *stubUserStore) CreateUser(_ context.Context, username, passwordHash string, initialCash decimal.Decimal) (*types.User, error) {
	if _, ok := s.users[username]; ok {
		return nil, fmt.Errorf("username %s: %w", username, repository.ErrUsernameTaken)
	}
	s.nextID++
	u := &types.User{ID: s.nextID, Username: username, PasswordHash: passwordHash, Cash: initialCash, CreatedAt: time.Now()}
	s.users[username] = u
	return u, nil
}

func (s *stubUserStore) GetUserByUsername(_ context.Context, username string) (*types.User, error) {
	u, ok := s.users[username]
	if !ok {
		return nil, fmt.Errorf("username %s: %w", username, repository.ErrUserNotFound)
	}
	return u, nil
}

type stubTokenStore struct {
	saved   map[string]int64
	deleted []string
}

func newStubTokenStore() *stubTokenStore {
	return &stubTokenStore{saved: make(map[string]int64)}
}

func (s *stubTokenStore) SaveRefreshToken(_ context.Context, token string, userID int64, _ time.Duration) error {
	s.saved[token] = userID
	return nil
}

func (s *stubTokenStore) DeleteRefreshToken(_ context.Context, token string) error {
	s.deleted = append(s.deleted, token)
	return nil
}

func authRouter(users *stubUserStore, tokens *stubTokenStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(users, tokens, "test-secret", zerolog.Nop())
	r := gin.New()
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestRegister(t *testing.T) {
	users := newStubUserStore()
	r := authRouter(users, newStubTokenStore())

	w := postJSON(t, r, "/register", `{"username":"alice","password":"hunter2"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"alice"`)
	assert.Contains(t, w.Body.String(), `"cash":"10000"`)
	assert.NotContains(t, w.Body.String(), "hunter2")

	// Stored hash must verify, and must not be the plain password.
	u := users.users["alice"]
	require.NotNil(t, u)
	assert.NotEqual(t, "hunter2", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("hunter2")))

	t.Run("duplicate username", func(t *testing.T) {
		w := postJSON(t, r, "/register", `{"username":"alice","password":"other"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("missing password", func(t *testing.T) {
		w := postJSON(t, r, "/register", `{"username":"bob"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLogin(t *testing.T) {
	users := newStubUserStore()
	tokens := newStubTokenStore()
	r := authRouter(users, tokens)

	w := postJSON(t, r, "/register", `{"username":"alice","password":"hunter2"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("valid credentials", func(t *testing.T) {
		w := postJSON(t, r, "/login", `{"username":"alice","password":"hunter2"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "access_token")
		assert.Contains(t, w.Body.String(), "refresh_token")
		assert.Len(t, tokens.saved, 1)
	})

	t.Run("wrong password", func(t *testing.T) {
		w := postJSON(t, r, "/login", `{"username":"alice","password":"wrong"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		w := postJSON(t, r, "/login", `{"username":"mallory","password":"hunter2"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestLogout(t *testing.T) {
	tokens := newStubTokenStore()
	r := authRouter(newStubUserStore(), tokens)

	w := postJSON(t, r, "/logout", `{"refresh_token":"tok-123"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"tok-123"}, tokens.deleted)
}
