package admin

import (
	handlershared "github.com/parcel-billing/internal/http/handlers/shared"
	"github.com/parcel-billing/internal/http/response"
	"github.com/parcel-billing/internal/i18n"

	"github.com/gin-gonic/gin"
)

// GetDeliverySpending 客户未付订单及合计；endAt 缺省时不限截止时间
func (h *Handler) GetDeliverySpending(c *gin.Context) {
	customerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	endAt, err := handlershared.ParseTimeNullable(c.Query("endAt"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.date_invalid", nil)
		return
	}
	branchID, err := handlershared.ParseUintQueryNullable(c, "branchId")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.id_invalid", nil)
		return
	}
	spending, err := h.CustomerBillingService.GetSpending(customerID, endAt, branchID)
	if err != nil {
		respondCustomerError(c, err)
		return
	}
	if !spending.HasUnpaid() {
		response.SuccessWithMsg(c, i18n.T(i18n.ResolveLocale(c), "success.no_unpaid_charges"), spending)
		return
	}
	response.Success(c, spending)
}

// GetBillingStatus 客户账期状态
func (h *Handler) GetBillingStatus(c *gin.Context) {
	customerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	status, err := h.CustomerBillingService.GetBillingStatus(customerID)
	if err != nil {
		respondCustomerError(c, err)
		return
	}
	response.Success(c, status)
}
