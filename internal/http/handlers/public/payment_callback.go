package public

import (
	"strings"

	"github.com/parcel-billing/internal/http/response"
	"github.com/parcel-billing/internal/i18n"
	"github.com/parcel-billing/internal/service"

	"github.com/gin-gonic/gin"
)

// PaymentCallbackRequest 网关回调载荷
type PaymentCallbackRequest struct {
	Status           string `json:"status"`
	PaymentRequestID string `json:"paymentRequestId"`
	ErrorCode        string `json:"errorCode"`
	ErrorMessage     string `json:"errorMessage"`
}

// PaymentCallback 支付网关回调；重复回调按成功应答但不产生副作用
func (h *Handler) PaymentCallback(c *gin.Context) {
	requestID := strings.TrimSpace(c.Param("id"))
	var req PaymentCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	requestLog(c).Infow("payment_callback_received",
		"payment_request_id", requestID,
		"status", req.Status,
		"client_ip", c.ClientIP(),
	)

	result, err := h.PaymentRequestService.ProcessCallback(c.Request.Context(), service.CallbackInput{
		PathRequestID:    requestID,
		Status:           req.Status,
		PaymentRequestID: req.PaymentRequestID,
		ErrorCode:        req.ErrorCode,
		ErrorMessage:     req.ErrorMessage,
	})
	if err != nil {
		respondPaymentCallbackError(c, err)
		return
	}
	response.SuccessWithMsg(c, i18n.T(i18n.ResolveLocale(c), "success.callback_processed"), gin.H{
		"paymentRequestId": result.PaymentRequestID,
		"state":            result.State,
	})
}
