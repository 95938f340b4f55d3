package models

import "time"

// DeliveryInvoice 账单（状态由关联费用实时推导，不落库）
type DeliveryInvoice struct {
	ID         string                  `gorm:"primarykey;type:varchar(36)" json:"id"`
	CustomerID uint                    `gorm:"index;not null" json:"customer_id"`
	StartAt    *time.Time              `json:"start_at"`
	EndAt      *time.Time              `gorm:"index" json:"end_at"`
	CreatedAt  time.Time               `gorm:"index" json:"created_at"`
	Charges    []DeliveryInvoiceCharge `gorm:"foreignKey:DeliveryInvoiceID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName 指定表名
func (DeliveryInvoice) TableName() string {
	return "delivery_invoices"
}

// DeliveryInvoiceCharge 账单与费用关联
type DeliveryInvoiceCharge struct {
	ID                uint   `gorm:"primarykey" json:"id"`
	DeliveryInvoiceID string `gorm:"type:varchar(36);uniqueIndex:idx_dic_invoice_charge;not null" json:"delivery_invoice_id"`
	ChargeID          uint   `gorm:"uniqueIndex:idx_dic_invoice_charge;index;not null" json:"charge_id"`
}

// TableName 指定表名
func (DeliveryInvoiceCharge) TableName() string {
	return "delivery_invoice_charges"
}
