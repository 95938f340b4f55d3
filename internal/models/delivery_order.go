package models

import (
	"time"

	"github.com/parcel-billing/internal/billing"
)

// DeliveryOrder 配送订单（计费只读取其状态与下单时间）
type DeliveryOrder struct {
	ID         uint       `gorm:"primarykey" json:"id"`                // 主键
	CustomerID uint       `gorm:"index;not null" json:"customer_id"`   // 客户ID
	BranchID   *uint      `gorm:"index" json:"branch_id"`              // 分支ID
	Status     string     `gorm:"index;not null" json:"status"`        // 订单状态
	PlacedAt   *time.Time `gorm:"index" json:"placed_at"`              // 下单时间
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`             // 创建时间
	UpdatedAt  time.Time  `json:"updated_at"`                          // 更新时间
	Packages   []Package  `gorm:"foreignKey:DeliveryOrderID" json:"-"` // 包裹
	Charges    []Charge   `gorm:"foreignKey:DeliveryOrderID" json:"-"` // 费用
	Discounts  []Discount `gorm:"foreignKey:DeliveryOrderID" json:"-"` // 折扣
}

// TableName 指定表名
func (DeliveryOrder) TableName() string {
	return "delivery_orders"
}

// Package 包裹
type Package struct {
	ID              uint                `gorm:"primarykey" json:"id"`
	DeliveryOrderID uint                `gorm:"index;not null" json:"delivery_order_id"`
	Size            billing.PackageSize `gorm:"type:varchar(16);not null" json:"size"`
	CreatedAt       time.Time           `json:"created_at"`
	Charges         []Charge            `gorm:"foreignKey:PackageID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName 指定表名
func (Package) TableName() string {
	return "packages"
}
