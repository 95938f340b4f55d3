package admin

import (
	"strings"

	handlershared "github.com/parcel-billing/internal/http/handlers/shared"
	"github.com/parcel-billing/internal/http/response"
	"github.com/parcel-billing/internal/models"
	"github.com/parcel-billing/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateInvoiceRequest 创建账单请求
type CreateInvoiceRequest struct {
	StartAt string `json:"startAt"`
	EndAt   string `json:"endAt"`
}

// CreateDeliveryInvoice 将区间内未付费用生成账单
func (h *Handler) CreateDeliveryInvoice(c *gin.Context) {
	customerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	startAt, err := handlershared.ParseTimeNullable(req.StartAt)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.date_invalid", nil)
		return
	}
	endAt, err := handlershared.ParseTimeNullable(req.EndAt)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.date_invalid", nil)
		return
	}
	invoice, err := h.InvoiceService.CreateInvoice(service.CreateInvoiceInput{
		CustomerID: customerID,
		StartAt:    startAt,
		EndAt:      endAt,
		Trigger:    service.InvoiceTriggerManual,
	})
	if err != nil {
		respondInvoiceError(c, err)
		return
	}
	response.Success(c, gin.H{"deliveryInvoiceId": invoice.ID})
}

// GetDeliveryInvoiceStatus 账单实时支付状态
func (h *Handler) GetDeliveryInvoiceStatus(c *gin.Context) {
	status, err := h.InvoiceService.GetInvoiceStatus(strings.TrimSpace(c.Param("id")))
	if err != nil {
		respondInvoiceError(c, err)
		return
	}
	response.Success(c, gin.H{"status": status})
}

// GetDeliveryInvoice 账单详情
func (h *Handler) GetDeliveryInvoice(c *gin.Context) {
	detail, err := h.InvoiceService.GetInvoice(strings.TrimSpace(c.Param("id")))
	if err != nil {
		respondInvoiceError(c, err)
		return
	}
	response.Success(c, gin.H{
		"id":                detail.Invoice.ID,
		"customerId":        detail.Invoice.CustomerID,
		"startAt":           detail.Invoice.StartAt,
		"endAt":             detail.Invoice.EndAt,
		"createdAt":         detail.Invoice.CreatedAt,
		"chargeIds":         detail.ChargeIDs,
		"status":            detail.Status,
		"transactionAmount": models.NewMoneyFromDecimal(detail.Breakdown.TransactionAmount),
		"transactionFee":    models.NewMoneyFromDecimal(detail.Breakdown.TransactionFee),
		"totalAmount":       models.NewMoneyFromDecimal(detail.Breakdown.TotalAmount),
	})
}
