package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"whisp/internal/pkg/auth"
	repository "whisp/internal/repository/port"
)

// UserController exposes the authenticated user's own account.
type UserController struct {
	users repository.UserRepository
}

func NewUserController(users repository.UserRepository) *UserController {
	return &UserController{users: users}
}

type updatePublicKeyRequest struct {
	PublicKey string `json:"public_key" validate:"required"`
}

// Me returns the current account's public profile.
func (ctl *UserController) Me() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := auth.CurrentIdentity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":         identity.ID,
			"username":   identity.Username,
			"public_key": identity.PublicKey,
		})
	}
}

// UpdatePublicKey replaces the account's public key material, e.g. after a
// client reinstall rotates its keypair.
func (ctl *UserController) UpdatePublicKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := auth.CurrentIdentity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		var req updatePublicKeyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
		if err := validate.Struct(req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		err := ctl.users.UpdatePublicKey(c.Request.Context(), identity.ID, req.PublicKey)
		if errors.Is(err, repository.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update public key"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "public key updated"})
	}
}
