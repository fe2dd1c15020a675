package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"whisp/internal/pkg/auth"
	repository "whisp/internal/repository/port"
)

var validate = validator.New()

// AuthController handles account registration and token issuance.
type AuthController struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
}

func NewAuthController(users repository.UserRepository, tokens *auth.TokenManager) *AuthController {
	return &AuthController{users: users, tokens: tokens}
}

type registerRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=64"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	PublicKey string `json:"public_key" validate:"required"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Register creates an account with a bcrypt-hashed password.
func (ctl *AuthController) Register() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
		if err := validate.Struct(req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
			return
		}

		id, err := ctl.users.Create(c.Request.Context(), repository.User{
			Username:     req.Username,
			Email:        req.Email,
			PasswordHash: hash,
			PublicKey:    req.PublicKey,
		})
		if errors.Is(err, repository.ErrUsernameTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username already taken"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"id": id, "username": req.Username, "email": req.Email})
	}
}

// Login verifies credentials and issues an access/refresh token pair. The
// response does not distinguish bad username from bad password.
func (ctl *AuthController) Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
		if err := validate.Struct(req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		user, err := ctl.users.FindByUsername(c.Request.Context(), req.Username)
		if err != nil || !auth.VerifyPassword(req.Password, user.PasswordHash) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
			return
		}

		access, err := ctl.tokens.Access(user.ID, user.Username)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue tokens"})
			return
		}
		refresh, err := ctl.tokens.Refresh(user.ID, user.Username)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue tokens"})
			return
		}

		c.JSON(http.StatusOK, tokenResponse{AccessToken: access, RefreshToken: refresh, TokenType: "Bearer"})
	}
}

// Refresh exchanges a valid refresh token for a new access token; the refresh
// token itself is reused until it expires.
func (ctl *AuthController) Refresh() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}

		access, err := ctl.tokens.Exchange(req.RefreshToken)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
			return
		}

		c.JSON(http.StatusOK, tokenResponse{AccessToken: access, RefreshToken: req.RefreshToken, TokenType: "Bearer"})
	}
}
