package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"brokerage/internal/middleware"
	"brokerage/internal/repository"
	"brokerage/types"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenTTL  = 24 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
)

// startingCash is the balance every new account opens with.
var startingCash = decimal.NewFromInt(10000)

type userStore interface {
	CreateUser(ctx context.Context, username, passwordHash string, initialCash decimal.Decimal) (*types.User, error)
	GetUserByUsername(ctx context.Context, username string) (*types.User, error)
}

type tokenStore interface {
	SaveRefreshToken(ctx context.Context, token string, userID int64, ttl time.Duration) error
	DeleteRefreshToken(ctx context.Context, token string) error
}

type AuthHandler struct {
	users  userStore
	tokens tokenStore
	secret string
	log    zerolog.Logger
}

func NewAuthHandler(users userStore, tokens tokenStore, secret string, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, secret: secret, log: log}
}

type credentialsInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input credentialsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error hashing password"})
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), input.Username, string(hashedPassword), startingCash)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "Username already exists"})
			return
		}
		h.log.Error().Err(err).Msg("failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating user"})
		return
	}

	h.log.Info().Str("username", user.Username).Int64("user_id", user.ID).Msg("user registered")
	c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input credentialsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.GetUserByUsername(c.Request.Context(), input.Username)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	accessToken, err := h.signToken(user.ID, accessTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error generating token"})
		return
	}
	refreshToken, err := h.signToken(user.ID, refreshTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error generating refresh token"})
		return
	}
	if err := h.tokens.SaveRefreshToken(c.Request.Context(), refreshToken, user.ID, refreshTokenTTL); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error storing refresh token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

type logoutInput struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var input logoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.tokens.DeleteRefreshToken(c.Request.Context(), input.RefreshToken); err != nil {
		h.log.Warn().Err(err).Msg("failed to delete refresh token")
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) signToken(userID int64, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		middleware.UserIDKey: userID,
		"exp":                time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.secret))
}
