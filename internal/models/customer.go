package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer 客户（仅包含计费所需字段）
type Customer struct {
	ID                 uint            `gorm:"primarykey" json:"id"`                                          // 主键
	Name               string          `gorm:"not null" json:"name"`                                          // 客户名称
	BillingInterval    int             `gorm:"not null;default:7" json:"billing_interval"`                    // 账期（天）
	BillingGracePeriod int             `gorm:"not null;default:3" json:"billing_grace_period"`                // 宽限期（天）
	WeightingFactor    decimal.Decimal `gorm:"type:decimal(10,4);not null;default:1" json:"weighting_factor"` // 运费加权系数
	FixedPriceAmount   *Money          `gorm:"type:decimal(20,2)" json:"fixed_price_amount"`                  // 固定价（含手续费）
	FixedPriceExpiry   *time.Time      `json:"fixed_price_expiry"`                                            // 固定价到期时间
	PostpaidExpiry     *time.Time      `json:"postpaid_expiry"`                                               // 后付费到期时间
	CreatedAt          time.Time       `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt          time.Time       `json:"updated_at"`                                                    // 更新时间
}

// TableName 指定表名
func (Customer) TableName() string {
	return "customers"
}

// HasFixedPrice 是否存在未过期的固定价
func (c *Customer) HasFixedPrice(now time.Time) bool {
	if c == nil || c.FixedPriceAmount == nil || c.FixedPriceExpiry == nil {
		return false
	}
	return c.FixedPriceExpiry.After(now)
}

// IsPrepaid 后付费到期或未开通即为预付费
func (c *Customer) IsPrepaid(now time.Time) bool {
	if c == nil || c.PostpaidExpiry == nil {
		return true
	}
	return !c.PostpaidExpiry.After(now)
}

// Branch 客户分支
type Branch struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	CustomerID uint      `gorm:"index;not null" json:"customer_id"`
	Name       string    `gorm:"not null" json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName 指定表名
func (Branch) TableName() string {
	return "branches"
}
