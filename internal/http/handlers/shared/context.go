package shared

import (
	"github.com/parcel-billing/internal/http/response"

	"github.com/gin-gonic/gin"
)

// StaffIDFromContext 读取鉴权中间件写入的员工 ID；缺失视为未登录
func StaffIDFromContext(c *gin.Context) (uint, bool) {
	value, exists := c.Get("staff_id")
	if !exists {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return 0, false
	}
	switch v := value.(type) {
	case uint:
		if v == 0 {
			RespondError(c, response.CodeUnauthorized, "error.staff_id_invalid", nil)
			return 0, false
		}
		return v, true
	case int:
		if v <= 0 {
			RespondError(c, response.CodeUnauthorized, "error.staff_id_invalid", nil)
			return 0, false
		}
		return uint(v), true
	default:
		RespondError(c, response.CodeInternal, "error.staff_id_type_invalid", nil)
		return 0, false
	}
}
