package admin

import (
	"github.com/parcel-billing/internal/http/response"

	"github.com/gin-gonic/gin"
)

// PricingPackage 报价包裹
type PricingPackage struct {
	Size string `json:"size"`
}

// PricingRequest 报价请求
type PricingRequest struct {
	Packages []PricingPackage `json:"packages" binding:"required"`
}

// QuotePricing 按包裹尺寸报价（不落库）
func (h *Handler) QuotePricing(c *gin.Context) {
	var req PricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	sizes := make([]string, 0, len(req.Packages))
	for _, pkg := range req.Packages {
		sizes = append(sizes, pkg.Size)
	}
	quote, err := h.PricingService.Quote(sizes)
	if err != nil {
		respondPricingError(c, err)
		return
	}
	response.Success(c, quote)
}

// CreateDeliveryFees 为订单全部包裹定价并写入运费
func (h *Handler) CreateDeliveryFees(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	quote, err := h.PricingService.CreateDeliveryFees(c.Request.Context(), orderID)
	if err != nil {
		respondPricingError(c, err)
		return
	}
	response.Success(c, quote)
}
