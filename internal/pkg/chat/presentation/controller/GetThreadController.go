package controller

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"whisp/internal/pkg/auth"
	"whisp/internal/pkg/chat/application/usecase"
	repository "whisp/internal/pkg/chat/persistence/repository/port"
)

// GetThreadController serves backward-paginated history for one conversation.
type GetThreadController struct {
	fetchUC *usecase.FetchThreadUseCase
}

func NewGetThreadController(repo repository.MessageRepository) *GetThreadController {
	return &GetThreadController{fetchUC: usecase.NewFetchThreadUseCase(repo)}
}

// Handle answers GET /chat/messages?partnerID=&before=&limit=.
// before is an exclusive RFC3339 cursor; omitted means the latest page.
func (ctl *GetThreadController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := auth.CurrentIdentity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		partnerID, err := strconv.ParseInt(c.Query("partnerID"), 10, 64)
		if err != nil || partnerID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "partnerID is required"})
			return
		}

		var before *time.Time
		if raw := c.Query("before"); raw != "" {
			t, err := time.Parse(time.RFC3339Nano, raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "before must be an RFC3339 timestamp"})
				return
			}
			before = &t
		}

		limit := 0
		if raw := c.Query("limit"); raw != "" {
			limit, err = strconv.Atoi(raw)
			if err != nil || limit < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
		}

		msgs, err := ctl.fetchUC.Execute(c.Request.Context(), usecase.FetchThreadInput{
			UserID:    identity.ID,
			PartnerID: partnerID,
			Before:    before,
			Limit:     limit,
		})
		switch {
		case errors.Is(err, repository.ErrUnknownPartner):
			c.JSON(http.StatusNotFound, gin.H{"error": "partner does not exist"})
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch messages"})
		default:
			out := make([]messagePayload, 0, len(msgs))
			for _, m := range msgs {
				out = append(out, toPayload(m))
			}
			c.JSON(http.StatusOK, out)
		}
	}
}
