package shared

import (
	"errors"

	"github.com/parcel-billing/internal/billing"
	"github.com/parcel-billing/internal/http/response"

	"github.com/gin-gonic/gin"
)

// MappedError 定义业务错误到接口错误响应的映射关系。
type MappedError struct {
	Target error
	Code   int
	Key    string
}

// RespondWithMappedError 按规则表输出错误；枚举解析失败统一按参数错误处理。
func RespondWithMappedError(c *gin.Context, err error, rules []MappedError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			RespondError(c, rule.Code, rule.Key, nil)
			return
		}
	}
	var parseErr *billing.ParseError
	if errors.As(err, &parseErr) {
		RequestLog(c).Infow("enum_value_rejected", "kind", parseErr.Kind, "value", parseErr.Value)
		RespondError(c, response.CodeBadRequest, "error.enum_invalid", nil)
		return
	}
	RespondError(c, fallbackCode, fallbackKey, err)
}

// ConcatMappedErrors 合并多组规则。
func ConcatMappedErrors(groups ...[]MappedError) []MappedError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]MappedError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}
