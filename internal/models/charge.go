package models

import (
	"errors"
	"time"

	"github.com/parcel-billing/internal/billing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrChargeTypeNotSet 未设置类型前不能设置金额
	ErrChargeTypeNotSet = errors.New("charge type must be set before transaction amount")
	// ErrChargeAmountNotSet 未设置金额前不能设置原始金额
	ErrChargeAmountNotSet = errors.New("charge transaction amount must be set before actual transaction amount")
)

// Charge 包裹费用
type Charge struct {
	ID                      uint                 `gorm:"primarykey" json:"id"`                                            // 主键
	PackageID               uint                 `gorm:"index;not null" json:"package_id"`                                // 包裹ID
	DeliveryOrderID         uint                 `gorm:"index;not null" json:"delivery_order_id"`                         // 订单ID
	Type                    billing.ChargeType   `gorm:"type:varchar(32);index;not null" json:"type"`                     // 费用类型
	Status                  billing.ChargeStatus `gorm:"type:varchar(16);index;not null" json:"status"`                   // 支付状态
	TransactionAmount       Money                `gorm:"type:decimal(20,2);not null;default:0" json:"transaction_amount"` // 不含手续费金额
	ActualTransactionAmount *Money               `gorm:"type:decimal(20,2)" json:"actual_transaction_amount"`             // 原始计算金额（审计用）
	Description             string               `gorm:"type:text" json:"description"`                                    // 描述
	ReservedByRequestID     *string              `gorm:"type:varchar(36);index" json:"-"`                                 // 占用的支付请求
	ReservedUntil           *time.Time           `json:"-"`                                                               // 占用到期时间
	CreatedAt               time.Time            `gorm:"index" json:"created_at"`                                         // 创建时间
	UpdatedAt               time.Time            `json:"updated_at"`                                                      // 更新时间

	amountSet bool `gorm:"-"`
}

// TableName 指定表名
func (Charge) TableName() string {
	return "charges"
}

// AfterFind 已落库的费用金额视为已设置
func (c *Charge) AfterFind(tx *gorm.DB) error {
	c.amountSet = true
	return nil
}

// SetTransactionAmount 设置不含手续费金额
func (c *Charge) SetTransactionAmount(amount decimal.Decimal) error {
	if c.Type == "" {
		return ErrChargeTypeNotSet
	}
	c.TransactionAmount = NewMoneyFromDecimal(amount)
	c.amountSet = true
	return nil
}

// SetActualTransactionAmount 设置原始计算金额
func (c *Charge) SetActualTransactionAmount(amount decimal.Decimal) error {
	if !c.amountSet {
		return ErrChargeAmountNotSet
	}
	c.ActualTransactionAmount = NewMoneyPtr(amount)
	return nil
}

// Line 转换为计费行
func (c Charge) Line() billing.ChargeLine {
	return billing.ChargeLine{TransactionAmount: c.TransactionAmount.Decimal, Status: c.Status}
}

// ChargeLines 批量转换
func ChargeLines(charges []Charge) []billing.ChargeLine {
	lines := make([]billing.ChargeLine, 0, len(charges))
	for _, c := range charges {
		lines = append(lines, c.Line())
	}
	return lines
}

// Discount 订单折扣
type Discount struct {
	ID              uint                   `gorm:"primarykey" json:"id"`
	DeliveryOrderID uint                   `gorm:"uniqueIndex:idx_discount_order_type;not null" json:"delivery_order_id"`
	Type            billing.DiscountType   `gorm:"type:varchar(32);uniqueIndex:idx_discount_order_type;not null" json:"type"`
	Amount          Money                  `gorm:"type:decimal(20,2);not null" json:"amount"`
	Status          billing.DiscountStatus `gorm:"type:varchar(16);index;not null" json:"status"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// TableName 指定表名
func (Discount) TableName() string {
	return "discounts"
}

// DiscountLines 批量转换为计费行
func DiscountLines(discounts []Discount) []billing.DiscountLine {
	lines := make([]billing.DiscountLine, 0, len(discounts))
	for _, d := range discounts {
		lines = append(lines, billing.DiscountLine{Amount: d.Amount.Decimal})
	}
	return lines
}
