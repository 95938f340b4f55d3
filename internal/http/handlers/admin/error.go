package admin

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

type mappedHandlerError = handlershared.MappedError

var pricingErrorRules = []mappedHandlerError{
	{Target: service.ErrDeliveryOrderNotFound, Code: response.CodeNotFound, Key: "error.delivery_order_not_found"},
	{Target: service.ErrCustomerNotFound, Code: response.CodeNotFound, Key: "error.customer_not_found"},
	{Target: service.ErrOrderHasNoPackages, Code: response.CodeBadRequest, Key: "error.order_has_no_packages"},
	{Target: service.ErrPackagePriceMissing, Code: response.CodeInternal, Key: "error.package_price_missing"},
	{Target: service.ErrChargeAlreadySettled, Code: response.CodeConflict, Key: "error.charge_already_settled"},
	{Target: service.ErrChargesReserved, Code: response.CodeConflict, Key: "error.charges_reserved"},
}

var ledgerErrorRules = []mappedHandlerError{
	{Target: service.ErrPackageNotFound, Code: response.CodeNotFound, Key: "error.package_not_found"},
	{Target: service.ErrDeliveryOrderNotFound, Code: response.CodeNotFound, Key: "error.delivery_order_not_found"},
	{Target: service.ErrChargeTypeRequired, Code: response.CodeBadRequest, Key: "error.charge_type_required"},
	{Target: service.ErrChargeTypeNotAllowed, Code: response.CodeBadRequest, Key: "error.charge_type_not_allowed"},
	{Target: service.ErrChargeAmountRequired, Code: response.CodeBadRequest, Key: "error.charge_amount_required"},
	{Target: service.ErrDiscountTypeRequired, Code: response.CodeBadRequest, Key: "error.discount_type_required"},
	{Target: service.ErrDiscountAmountRequired, Code: response.CodeBadRequest, Key: "error.discount_amount_required"},
	{Target: service.ErrDiscountExists, Code: response.CodeConflict, Key: "error.discount_exists"},
}

var paymentErrorRules = []mappedHandlerError{
	{Target: service.ErrPaymentMethodRequired, Code: response.CodeBadRequest, Key: "error.payment_method_required"},
	{Target: service.ErrTotalAmountRequired, Code: response.CodeBadRequest, Key: "error.total_amount_required"},
	{Target: service.ErrTotalAmountIncorrect, Code: response.CodeBadRequest, Key: "error.total_amount_incorrect"},
	{Target: service.ErrEndAtRequired, Code: response.CodeBadRequest, Key: "error.end_at_required"},
	{Target: service.ErrOperatorTransactionRequired, Code: response.CodeBadRequest, Key: "error.operator_txn_required"},
	{Target: service.ErrPaymentTimeRequired, Code: response.CodeBadRequest, Key: "error.payment_time_required"},
	{Target: service.ErrPickupWindowClosed, Code: response.CodeBadRequest, Key: "error.pickup_window_closed"},
	{Target: service.ErrOrderStatusInvalid, Code: response.CodeBadRequest, Key: "error.order_status_invalid"},
	{Target: service.ErrDeliveryOrderNotFound, Code: response.CodeNotFound, Key: "error.delivery_order_not_found"},
	{Target: service.ErrCustomerNotFound, Code: response.CodeNotFound, Key: "error.customer_not_found"},
	{Target: service.ErrBranchNotFound, Code: response.CodeNotFound, Key: "error.branch_not_found"},
	{Target: service.ErrNoUnpaidCharges, Code: response.CodeNotFound, Key: "error.no_unpaid_charges"},
	{Target: service.ErrChargesReserved, Code: response.CodeConflict, Key: "error.charges_reserved"},
	{Target: service.ErrPaymentInProgress, Code: response.CodeConflict, Key: "error.payment_in_progress"},
	{Target: service.ErrReservationLost, Code: response.CodeConflict, Key: "error.reservation_lost"},
	{Target: service.ErrAmountRequired, Code: response.CodeInternal, Key: "error.internal"},
}

var paymentRequestErrorRules = []mappedHandlerError{
	{Target: service.ErrPaymentRequestNotFound, Code: response.CodeNotFound, Key: "error.payment_request_not_found"},
}

var customerErrorRules = []mappedHandlerError{
	{Target: service.ErrCustomerNotFound, Code: response.CodeNotFound, Key: "error.customer_not_found"},
	{Target: service.ErrBranchNotFound, Code: response.CodeNotFound, Key: "error.branch_not_found"},
}

var invoiceErrorRules = []mappedHandlerError{
	{Target: service.ErrCustomerNotFound, Code: response.CodeNotFound, Key: "error.customer_not_found"},
	{Target: service.ErrEndAtRequired, Code: response.CodeBadRequest, Key: "error.end_at_required"},
	{Target: service.ErrInvoiceRangeInvalid, Code: response.CodeBadRequest, Key: "error.invoice_range_invalid"},
	{Target: service.ErrNoUnpaidCharges, Code: response.CodeNotFound, Key: "error.no_unpaid_charges"},
	{Target: service.ErrInvoiceNotFound, Code: response.CodeNotFound, Key: "error.invoice_not_found"},
	{Target: service.ErrInvoiceHasNoCharges, Code: response.CodeNotFound, Key: "error.invoice_has_no_charges"},
}

func respondPricingError(c *gin.Context, err error) {
	handlershared.RespondWithMappedError(c, err, pricingErrorRules, response.CodeInternal, "error.internal")
}

func respondLedgerError(c *gin.Context, err error) {
	handlershared.RespondWithMappedError(c, err, ledgerErrorRules, response.CodeInternal, "error.internal")
}

func respondPaymentError(c *gin.Context, err error) {
	handlershared.RespondWithMappedError(c, err, paymentErrorRules, response.CodeInternal, "error.internal")
}

func respondPaymentRequestError(c *gin.Context, err error) {
	handlershared.RespondWithMappedError(c, err, paymentRequestErrorRules, response.CodeInternal, "error.internal")
}

func respondCustomerError(c *gin.Context, err error) {
	handlershared.RespondWithMappedError(c, err, customerErrorRules, response.CodeInternal, "error.internal")
}

func respondInvoiceError(c *gin.Context, err error) {
	handlershared.RespondWithMappedError(c, err, invoiceErrorRules, response.CodeInternal, "error.internal")
}
