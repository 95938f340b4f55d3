package repository

import (
	"errors"
	"strings"

	"github.com/parcel-billing/internal/models"

	"gorm.io/gorm"
)

// InvoiceRepository 账单数据访问接口
type InvoiceRepository interface {
	Create(invoice *models.DeliveryInvoice, chargeIDs []uint) error
	GetByID(id string) (*models.DeliveryInvoice, error)
	LatestByCustomer(customerID uint) (*models.DeliveryInvoice, error)
	WithTx(tx *gorm.DB) *GormInvoiceRepository
}

// GormInvoiceRepository GORM 实现
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository 创建账单仓库
func NewInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// WithTx 绑定事务
func (r *GormInvoiceRepository) WithTx(tx *gorm.DB) *GormInvoiceRepository {
	if tx == nil {
		return r
	}
	return &GormInvoiceRepository{db: tx}
}

// Create 创建账单及其费用关联
func (r *GormInvoiceRepository) Create(invoice *models.DeliveryInvoice, chargeIDs []uint) error {
	invoice.Charges = make([]models.DeliveryInvoiceCharge, 0, len(chargeIDs))
	for _, id := range chargeIDs {
		invoice.Charges = append(invoice.Charges, models.DeliveryInvoiceCharge{ChargeID: id})
	}
	return r.db.Create(invoice).Error
}

// GetByID 根据 ID 获取账单（含费用关联）
func (r *GormInvoiceRepository) GetByID(id string) (*models.DeliveryInvoice, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	var invoice models.DeliveryInvoice
	if err := r.db.Preload("Charges", func(db *gorm.DB) *gorm.DB {
		return db.Order("charge_id asc")
	}).Where("id = ?", id).First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

// LatestByCustomer 获取客户最近一张账单
func (r *GormInvoiceRepository) LatestByCustomer(customerID uint) (*models.DeliveryInvoice, error) {
	var invoice models.DeliveryInvoice
	result := r.db.Where("customer_id = ?", customerID).Order("end_at desc").Order("created_at desc").Limit(1).Find(&invoice)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &invoice, nil
}
