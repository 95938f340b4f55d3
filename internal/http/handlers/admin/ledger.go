package admin

import (
	"strings"

	handlershared "github.com/parcel-billing/internal/http/handlers/shared"
	"github.com/parcel-billing/internal/http/response"
	"github.com/parcel-billing/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreateChargeRequest 新增附加费用（金额含手续费）
type CreateChargeRequest struct {
	Type              string              `json:"type"`
	TransactionAmount decimal.NullDecimal `json:"transactionAmount"`
	Description       string              `json:"description"`
}

// CreateDiscountRequest 新增订单折扣
type CreateDiscountRequest struct {
	Type   string              `json:"type"`
	Amount decimal.NullDecimal `json:"amount"`
}

// CreatePackageCharge 为包裹新增附加费用
func (h *Handler) CreatePackageCharge(c *gin.Context) {
	packageID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req CreateChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	charge, err := h.LedgerService.AddCharge(packageID, req.Type, req.TransactionAmount, req.Description)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	requestLog(c).Infow("charge_created",
		"charge_id", charge.ID,
		"package_id", packageID,
		"type", charge.Type,
	)
	response.Success(c, charge)
}

// ListPackageCharges 包裹费用分页列表
func (h *Handler) ListPackageCharges(c *gin.Context) {
	packageID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	page, pageSize := handlershared.PaginationFromQuery(c)
	charges, total, err := h.LedgerService.ListPackageCharges(repository.ChargeListFilter{
		Page:      page,
		PageSize:  pageSize,
		PackageID: packageID,
		Status:    strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, charges, handlershared.BuildPagination(page, pageSize, total))
}

// CreateOrderDiscount 为订单新增待抵扣折扣
func (h *Handler) CreateOrderDiscount(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req CreateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	discount, err := h.LedgerService.CreateDiscount(orderID, req.Type, req.Amount)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	response.Success(c, discount)
}
