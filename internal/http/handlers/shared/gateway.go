package shared

import (
	"github.com/parcel-billing/internal/http/response"
	"github.com/parcel-billing/internal/i18n"
	"github.com/parcel-billing/internal/payment/gateway"

	"github.com/gin-gonic/gin"
)

// RespondGatewayResult 输出网关调用结果；失败时透传网关状态码与响应体。
func RespondGatewayResult(c *gin.Context, result gateway.Result, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["gatewayResponse"] = result.Body
	if result.Success {
		response.Success(c, data)
		return
	}
	code := result.StatusCode
	if code < 400 {
		code = response.CodeBadGateway
	}
	RequestLog(c).Warnw("payment_gateway_rejected",
		"gateway_status", result.StatusCode,
		"payment_request_id", data["paymentRequestId"],
	)
	response.ErrorWithData(c, code, i18n.T(i18n.ResolveLocale(c), "error.payment_gateway_failed"), data)
}
