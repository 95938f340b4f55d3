package repository

import (
	"errors"

	"github.com/parcel-billing/internal/billing"
	"github.com/parcel-billing/internal/models"

	"gorm.io/gorm"
)

// DiscountRepository 折扣数据访问接口
type DiscountRepository interface {
	Create(discount *models.Discount) error
	GetByOrderAndType(orderID uint, discountType billing.DiscountType) (*models.Discount, error)
	GetByIDs(ids []uint) ([]models.Discount, error)
	ListByOrderIDs(orderIDs []uint) ([]models.Discount, error)
	MarkApplied(ids []uint) error
	WithTx(tx *gorm.DB) *GormDiscountRepository
}

// GormDiscountRepository GORM 实现
type GormDiscountRepository struct {
	db *gorm.DB
}

// NewDiscountRepository 创建折扣仓库
func NewDiscountRepository(db *gorm.DB) *GormDiscountRepository {
	return &GormDiscountRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDiscountRepository) WithTx(tx *gorm.DB) *GormDiscountRepository {
	if tx == nil {
		return r
	}
	return &GormDiscountRepository{db: tx}
}

// Create 创建折扣
func (r *GormDiscountRepository) Create(discount *models.Discount) error {
	return r.db.Create(discount).Error
}

// GetByOrderAndType 获取订单下指定类型的折扣
func (r *GormDiscountRepository) GetByOrderAndType(orderID uint, discountType billing.DiscountType) (*models.Discount, error) {
	var discount models.Discount
	if err := r.db.Where("delivery_order_id = ? AND type = ?", orderID, discountType).First(&discount).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &discount, nil
}

// GetByIDs 根据 ID 列表获取折扣
func (r *GormDiscountRepository) GetByIDs(ids []uint) ([]models.Discount, error) {
	if len(ids) == 0 {
		return []models.Discount{}, nil
	}
	var discounts []models.Discount
	if err := r.db.Where("id IN ?", ids).Order("id asc").Find(&discounts).Error; err != nil {
		return nil, err
	}
	return discounts, nil
}

// ListByOrderIDs 获取订单下全部折扣
func (r *GormDiscountRepository) ListByOrderIDs(orderIDs []uint) ([]models.Discount, error) {
	if len(orderIDs) == 0 {
		return []models.Discount{}, nil
	}
	var discounts []models.Discount
	if err := r.db.Where("delivery_order_id IN ?", orderIDs).Order("id asc").Find(&discounts).Error; err != nil {
		return nil, err
	}
	return discounts, nil
}

// MarkApplied 批量标记为已抵扣
func (r *GormDiscountRepository) MarkApplied(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&models.Discount{}).
		Where("id IN ?", ids).
		Update("status", billing.DiscountStatusApplied).Error
}
