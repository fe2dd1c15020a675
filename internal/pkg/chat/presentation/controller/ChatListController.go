package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"whisp/internal/pkg/auth"
	"whisp/internal/pkg/chat/application/usecase"
	repository "whisp/internal/pkg/chat/persistence/repository/port"
	users "whisp/internal/repository/port"
)

// ChatListController serves the conversation-list view: one entry per
// partner, latest message first.
type ChatListController struct {
	listUC *usecase.ChatListUseCase
}

func NewChatListController(messages repository.MessageRepository, u users.UserRepository) *ChatListController {
	return &ChatListController{listUC: usecase.NewChatListUseCase(messages, u)}
}

func (ctl *ChatListController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := auth.CurrentIdentity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		entries, err := ctl.listUC.Execute(c.Request.Context(), identity.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build chat list"})
			return
		}
		c.JSON(http.StatusOK, entries)
	}
}
