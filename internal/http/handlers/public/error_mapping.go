package public

import (
	handlershared "github.com/parcel-billing/internal/http/handlers/shared"
	"github.com/parcel-billing/internal/http/response"
	"github.com/parcel-billing/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

var paymentCallbackErrorRules = []handlershared.MappedError{
	{Target: service.ErrCallbackStatusRequired, Code: response.CodeBadRequest, Key: "error.callback_status_required"},
	{Target: service.ErrCallbackRequestMismatch, Code: response.CodeBadRequest, Key: "error.callback_request_mismatch"},
	{Target: service.ErrPaymentRequestNotFound, Code: response.CodeNotFound, Key: "error.payment_request_not_found"},
	{Target: service.ErrReservationLost, Code: response.CodeConflict, Key: "error.reservation_lost"},
}

func respondPaymentCallbackError(c *gin.Context, err error) {
	handlershared.RespondWithMappedError(c, err, paymentCallbackErrorRules, response.CodeInternal, "error.internal")
}
