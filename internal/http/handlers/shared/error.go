package shared

import (
	"github.com/parcel-billing/internal/http/response"
	"github.com/parcel-billing/internal/i18n"
	"github.com/parcel-billing/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 带 request_id 与员工 ID 的日志实例
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	kv := make([]interface{}, 0, 4)
	if id := c.GetString("request_id"); id != "" {
		kv = append(kv, "request_id", id)
	}
	if staffID, ok := c.Get("staff_id"); ok {
		kv = append(kv, "staff_id", staffID)
	}
	if len(kv) == 0 {
		return logger.S()
	}
	return logger.SW(kv...)
}

// RespondError 按 locale 翻译消息键输出错误；带原始错误时记录日志
func RespondError(c *gin.Context, code int, key string, err error) {
	msg := i18n.T(i18n.ResolveLocale(c), key)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", code,
			"key", key,
			"path", c.FullPath(),
			"error", err,
		)
	}
	response.Error(c, code, msg)
}
