package public

import (
	"context"
	"errors"
	"time"

	"github.com/parcel-billing/internal/cache"
	"github.com/parcel-billing/internal/http/response"
	"github.com/parcel-billing/internal/models"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

// Healthz 存活检查：数据库必须可用，Redis 仅作为附加信息
func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	dbStatus := "ok"
	if models.DB == nil {
		dbStatus = "unavailable"
	} else if sqlDB, err := models.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		dbStatus = "unavailable"
	}

	redisStatus := "ok"
	if err := cache.Ping(ctx); errors.Is(err, cache.ErrDisabled) {
		redisStatus = "disabled"
	} else if err != nil {
		redisStatus = "unavailable"
		requestLog(c).Warnw("healthz_redis_unavailable", "error", err)
	}

	data := gin.H{"database": dbStatus, "redis": redisStatus}
	if dbStatus != "ok" {
		response.ErrorWithData(c, response.CodeInternal, "unhealthy", data)
		return
	}
	data["status"] = "ok"
	response.Success(c, data)
}
