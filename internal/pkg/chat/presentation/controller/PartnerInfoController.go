package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	cport "whisp/internal/infrastructure/cache/port"
	"whisp/internal/pkg/auth"
	"whisp/internal/pkg/chat/application/usecase"
	users "whisp/internal/repository/port"
)

const partnerCacheTTL = 10 * time.Minute

// PartnerInfoController serves public account details of a conversation
// partner, cached because clients request key material on every thread open.
type PartnerInfoController struct {
	users users.UserRepository
	cache cport.Cache // nil disables caching
}

func NewPartnerInfoController(u users.UserRepository, cache cport.Cache) *PartnerInfoController {
	return &PartnerInfoController{users: u, cache: cache}
}

func (ctl *PartnerInfoController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := auth.CurrentIdentity(c); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		partnerID, err := strconv.ParseInt(c.Query("partnerID"), 10, 64)
		if err != nil || partnerID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "partnerID is required"})
			return
		}

		if info, ok := ctl.cached(c.Request.Context(), partnerID); ok {
			c.JSON(http.StatusOK, info)
			return
		}

		partner, err := ctl.users.FindByID(c.Request.Context(), partnerID)
		if errors.Is(err, users.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "partner does not exist"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch partner"})
			return
		}

		info := usecase.PartnerInfo{ID: partner.ID, Username: partner.Username, PublicKey: partner.PublicKey}
		ctl.store(c.Request.Context(), info)
		c.JSON(http.StatusOK, info)
	}
}

func (ctl *PartnerInfoController) cached(ctx context.Context, partnerID int64) (usecase.PartnerInfo, bool) {
	if ctl.cache == nil {
		return usecase.PartnerInfo{}, false
	}
	raw, err := ctl.cache.Get(ctx, partnerCacheKey(partnerID))
	if err != nil {
		return usecase.PartnerInfo{}, false
	}
	var info usecase.PartnerInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return usecase.PartnerInfo{}, false
	}
	return info, true
}

func (ctl *PartnerInfoController) store(ctx context.Context, info usecase.PartnerInfo) {
	if ctl.cache == nil {
		return
	}
	if raw, err := json.Marshal(info); err == nil {
		_ = ctl.cache.Set(ctx, partnerCacheKey(info.ID), string(raw), partnerCacheTTL)
	}
}

func partnerCacheKey(id int64) string {
	return "partner:" + strconv.FormatInt(id, 10)
}
