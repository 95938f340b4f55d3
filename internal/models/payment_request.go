package models

import (
	"time"

	"github.com/parcel-billing/internal/constants"
)

// PaymentRequest 支付请求（一次付款意图的快照）
type PaymentRequest struct {
	ID                   string                   `gorm:"primarykey;type:varchar(36)" json:"id"`                 // UUID
	Mode                 string                   `gorm:"type:varchar(16);index;not null" json:"mode"`           // ONLINE / OFFLINE
	CustomerID           uint                     `gorm:"index;not null" json:"customer_id"`                     // 客户ID
	DeliveryOrderID      *uint                    `gorm:"index" json:"delivery_order_id"`                        // 单订单支付时的订单ID
	PaymentMethodID      string                   `gorm:"not null" json:"payment_method_id"`                     // 支付方式
	TransactionAmount    Money                    `gorm:"type:decimal(20,2);not null" json:"transaction_amount"` // 交易金额
	TransactionFee       Money                    `gorm:"type:decimal(20,2);not null" json:"transaction_fee"`    // 手续费
	TotalAmount          Money                    `gorm:"type:decimal(20,2);not null" json:"total_amount"`       // 总额
	IsSuccess            *bool                    `gorm:"index" json:"is_success"`                               // nil 待定 / true 成功 / false 失败
	FinalizedAt          *time.Time               `json:"finalized_at"`                                          // 终态时间
	CallbackErrorCode    string                   `json:"callback_error_code,omitempty"`                         // 回调错误码
	CallbackErrorMessage string                   `gorm:"type:text" json:"callback_error_message,omitempty"`     // 回调错误信息
	GatewayResponse      JSON                     `gorm:"type:json" json:"gateway_response,omitempty"`           // 网关即时响应
	CreatedAt            time.Time                `gorm:"index" json:"created_at"`                               // 创建时间
	UpdatedAt            time.Time                `json:"updated_at"`                                            // 更新时间
	Charges              []PaymentRequestCharge   `gorm:"foreignKey:PaymentRequestID" json:"-"`                  // 关联费用
	Discounts            []PaymentRequestDiscount `gorm:"foreignKey:PaymentRequestID" json:"-"`                  // 关联折扣
}

// TableName 指定表名
func (PaymentRequest) TableName() string {
	return "payment_requests"
}

// State 由三态 is_success 推导请求状态
func (r *PaymentRequest) State() string {
	switch {
	case r == nil || r.IsSuccess == nil:
		return constants.PaymentRequestStatePending
	case *r.IsSuccess:
		return constants.PaymentRequestStateSucceeded
	default:
		return constants.PaymentRequestStateFailed
	}
}

// ChargeIDs 返回关联费用ID
func (r *PaymentRequest) ChargeIDs() []uint {
	ids := make([]uint, 0, len(r.Charges))
	for _, row := range r.Charges {
		ids = append(ids, row.ChargeID)
	}
	return ids
}

// DiscountIDs 返回关联折扣ID
func (r *PaymentRequest) DiscountIDs() []uint {
	ids := make([]uint, 0, len(r.Discounts))
	for _, row := range r.Discounts {
		ids = append(ids, row.DiscountID)
	}
	return ids
}

// PaymentRequestCharge 支付请求与费用关联
type PaymentRequestCharge struct {
	ID               uint   `gorm:"primarykey" json:"id"`
	PaymentRequestID string `gorm:"type:varchar(36);uniqueIndex:idx_prc_request_charge;not null" json:"payment_request_id"`
	ChargeID         uint   `gorm:"uniqueIndex:idx_prc_request_charge;index;not null" json:"charge_id"`
}

// TableName 指定表名
func (PaymentRequestCharge) TableName() string {
	return "payment_request_charges"
}

// PaymentRequestDiscount 支付请求与折扣关联
type PaymentRequestDiscount struct {
	ID               uint   `gorm:"primarykey" json:"id"`
	PaymentRequestID string `gorm:"type:varchar(36);uniqueIndex:idx_prd_request_discount;not null" json:"payment_request_id"`
	DiscountID       uint   `gorm:"uniqueIndex:idx_prd_request_discount;index;not null" json:"discount_id"`
}

// TableName 指定表名
func (PaymentRequestDiscount) TableName() string {
	return "payment_request_discounts"
}

// PaymentRecord 线下结算记录（仅审计，不决定费用状态）
type PaymentRecord struct {
	ID                    uint      `gorm:"primarykey" json:"id"`
	PaymentRequestID      string    `gorm:"type:varchar(36);index;not null" json:"payment_request_id"`
	ChargeID              uint      `gorm:"index;not null" json:"charge_id"`
	OperatorTransactionID string    `gorm:"index;not null" json:"operator_transaction_id"`
	PaymentTime           time.Time `json:"payment_time"`
	IsSuccess             bool      `gorm:"not null" json:"is_success"`
	Description           string    `gorm:"type:text" json:"description"`
	CreatedAt             time.Time `json:"created_at"`
}

// TableName 指定表名
func (PaymentRecord) TableName() string {
	return "payment_records"
}
