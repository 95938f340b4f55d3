package admin

import (
	"strings"

	"github.com/parcel-billing/internal/billing"
	handlershared "github.com/parcel-billing/internal/http/handlers/shared"
	"github.com/parcel-billing/internal/http/response"
	"github.com/parcel-billing/internal/i18n"
	"github.com/parcel-billing/internal/models"
	"github.com/parcel-billing/internal/repository"
	"github.com/parcel-billing/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// OrderPaymentRequest 单订单线上支付请求
type OrderPaymentRequest struct {
	PaymentMethodID string `json:"paymentMethodId"`
}

// CustomerPaymentRequest 客户多订单线上支付请求
type CustomerPaymentRequest struct {
	PaymentMethodID string              `json:"paymentMethodId"`
	EndAt           string              `json:"endAt"`
	BranchID        *uint               `json:"branchId"`
	TotalAmount     decimal.NullDecimal `json:"totalAmount"`
}

// PaymentConfirmationRequest 线下支付登记
type PaymentConfirmationRequest struct {
	PaymentMethodID       string              `json:"paymentMethodId"`
	OperatorTransactionID string              `json:"operatorTransactionId"`
	TotalAmount           decimal.NullDecimal `json:"totalAmount"`
	PaymentTime           string              `json:"paymentTime"`
	Description           string              `json:"description"`
	EndAt                 string              `json:"endAt"`
	BranchID              *uint               `json:"branchId"`
}

// breakdownData 网关拒绝线下登记时请求已回滚，不返回 paymentRequestId
func breakdownData(result *service.PaymentRequestResult) gin.H {
	data := gin.H{
		"transactionAmount": models.NewMoneyFromDecimal(result.Breakdown.TransactionAmount),
		"transactionFee":    models.NewMoneyFromDecimal(result.Breakdown.TransactionFee),
		"totalAmount":       models.NewMoneyFromDecimal(result.Breakdown.TotalAmount),
	}
	if result.PaymentRequestID != "" {
		data["paymentRequestId"] = result.PaymentRequestID
	}
	return data
}

// CreateOrderPaymentRequest 为单个订单发起线上支付
func (h *Handler) CreateOrderPaymentRequest(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req OrderPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	result, err := h.PaymentRequestService.RequestOrderPayment(c.Request.Context(), service.OrderPaymentInput{
		DeliveryOrderID: orderID,
		PaymentMethodID: req.PaymentMethodID,
	})
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	if result.AlreadyPaid {
		response.SuccessWithMsg(c, i18n.T(i18n.ResolveLocale(c), "success.payment_already_complete"), gin.H{
			"deliveryOrderId": orderID,
			"paymentStatus":   billing.PaymentStatusPaid,
		})
		return
	}
	handlershared.RespondGatewayResult(c, result.Gateway, breakdownData(result))
}

// CreateCustomerPaymentRequest 为客户截止日期前全部未付订单发起线上支付
func (h *Handler) CreateCustomerPaymentRequest(c *gin.Context) {
	customerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req CustomerPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	endAt, err := handlershared.ParseTimeNullable(req.EndAt)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.date_invalid", nil)
		return
	}
	result, err := h.PaymentRequestService.RequestCustomerPayment(c.Request.Context(), service.CustomerPaymentInput{
		CustomerID:      customerID,
		PaymentMethodID: req.PaymentMethodID,
		EndAt:           endAt,
		BranchID:        req.BranchID,
		TotalAmount:     req.TotalAmount,
	})
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	data := breakdownData(result)
	data["customerId"] = customerID
	handlershared.RespondGatewayResult(c, result.Gateway, data)
}

func (req PaymentConfirmationRequest) toOfflineInput(c *gin.Context) (service.OfflinePaymentInput, bool) {
	paymentTime, err := handlershared.ParseTimeNullable(req.PaymentTime)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.date_invalid", nil)
		return service.OfflinePaymentInput{}, false
	}
	return service.OfflinePaymentInput{
		PaymentMethodID:       req.PaymentMethodID,
		OperatorTransactionID: req.OperatorTransactionID,
		TotalAmount:           req.TotalAmount,
		PaymentTime:           paymentTime,
		Description:           req.Description,
	}, true
}

// ConfirmOrderPayment 登记单个订单的线下支付
func (h *Handler) ConfirmOrderPayment(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req PaymentConfirmationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	input, ok := req.toOfflineInput(c)
	if !ok {
		return
	}
	result, err := h.PaymentRequestService.ConfirmOrderPayment(c.Request.Context(), orderID, input)
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	data := breakdownData(result)
	data["deliveryOrderId"] = orderID
	handlershared.RespondGatewayResult(c, result.Gateway, data)
}

// ConfirmCustomerPayment 登记客户多订单的线下支付；endAt 可选
func (h *Handler) ConfirmCustomerPayment(c *gin.Context) {
	customerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req PaymentConfirmationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	input, ok := req.toOfflineInput(c)
	if !ok {
		return
	}
	endAt, err := handlershared.ParseTimeNullable(req.EndAt)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.date_invalid", nil)
		return
	}
	result, err := h.PaymentRequestService.ConfirmCustomerPayment(c.Request.Context(), service.CustomerOfflineInput{
		CustomerID:          customerID,
		EndAt:               endAt,
		BranchID:            req.BranchID,
		OfflinePaymentInput: input,
	})
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	data := breakdownData(result)
	data["customerId"] = customerID
	handlershared.RespondGatewayResult(c, result.Gateway, data)
}

// GetPaymentStatus 支付请求的实时支付状态
func (h *Handler) GetPaymentStatus(c *gin.Context) {
	requestID := strings.TrimSpace(c.Param("id"))
	status, err := h.PaymentRequestService.GetPaymentStatus(requestID)
	if err != nil {
		respondPaymentRequestError(c, err)
		return
	}
	response.Success(c, gin.H{"paymentStatus": status})
}

// PaymentRequestView 支付请求详情
type PaymentRequestView struct {
	models.PaymentRequest
	State       string `json:"state"`
	ChargeIDs   []uint `json:"charge_ids"`
	DiscountIDs []uint `json:"discount_ids"`
}

func newPaymentRequestView(req *models.PaymentRequest) PaymentRequestView {
	return PaymentRequestView{
		PaymentRequest: *req,
		State:          req.State(),
		ChargeIDs:      req.ChargeIDs(),
		DiscountIDs:    req.DiscountIDs(),
	}
}

// GetPaymentRequest 支付请求详情
func (h *Handler) GetPaymentRequest(c *gin.Context) {
	req, err := h.PaymentRequestService.GetPaymentRequest(strings.TrimSpace(c.Param("id")))
	if err != nil {
		respondPaymentRequestError(c, err)
		return
	}
	response.Success(c, newPaymentRequestView(req))
}

// ListPaymentRequests 支付请求分页列表
func (h *Handler) ListPaymentRequests(c *gin.Context) {
	page, pageSize := handlershared.PaginationFromQuery(c)
	createdFrom, err := handlershared.ParseTimeNullable(c.Query("created_from"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.date_invalid", nil)
		return
	}
	createdTo, err := handlershared.ParseTimeNullable(c.Query("created_to"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.date_invalid", nil)
		return
	}
	customerID, err := handlershared.ParseUintQueryNullable(c, "customer_id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.id_invalid", nil)
		return
	}
	filter := repository.PaymentRequestListFilter{
		Page:        page,
		PageSize:    pageSize,
		Mode:        strings.ToUpper(strings.TrimSpace(c.Query("mode"))),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	}
	if customerID != nil {
		filter.CustomerID = *customerID
	}
	requests, total, err := h.PaymentRequestService.ListPaymentRequests(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	items := make([]PaymentRequestView, 0, len(requests))
	for i := range requests {
		items = append(items, newPaymentRequestView(&requests[i]))
	}
	response.SuccessWithPage(c, items, handlershared.BuildPagination(page, pageSize, total))
}

// ExpirePaymentRequest 手动过期待定的支付请求并释放费用占用
func (h *Handler) ExpirePaymentRequest(c *gin.Context) {
	requestID := strings.TrimSpace(c.Param("id"))
	req, err := h.PaymentRequestService.GetPaymentRequest(requestID)
	if err != nil {
		respondPaymentRequestError(c, err)
		return
	}
	expired, err := h.PaymentRequestService.ExpirePaymentRequest(c.Request.Context(), req.ID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	if staffID, ok := c.Get("staff_id"); ok {
		requestLog(c).Infow("payment_request_expired_by_staff", "payment_request_id", req.ID, "staff_id", staffID, "expired", expired)
	}
	response.Success(c, gin.H{"paymentRequestId": req.ID, "expired": expired})
}
