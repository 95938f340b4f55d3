package repository

import (
	"errors"
	"time"

	"github.com/parcel-billing/internal/models"

	"gorm.io/gorm"
)

// CustomerRepository 客户数据访问接口
type CustomerRepository interface {
	GetByID(id uint) (*models.Customer, error)
	ListPostpaid(now time.Time) ([]models.Customer, error)
	BranchBelongsTo(branchID, customerID uint) (bool, error)
	WithTx(tx *gorm.DB) *GormCustomerRepository
}

// GormCustomerRepository GORM 实现
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository 创建客户仓库
func NewCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCustomerRepository) WithTx(tx *gorm.DB) *GormCustomerRepository {
	if tx == nil {
		return r
	}
	return &GormCustomerRepository{db: tx}
}

// GetByID 根据 ID 获取客户
func (r *GormCustomerRepository) GetByID(id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

// ListPostpaid 获取后付费仍有效的客户
func (r *GormCustomerRepository) ListPostpaid(now time.Time) ([]models.Customer, error) {
	var customers []models.Customer
	if err := r.db.Where("postpaid_expiry IS NOT NULL AND postpaid_expiry > ?", now).
		Order("id asc").
		Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

// BranchBelongsTo 校验分支归属
func (r *GormCustomerRepository) BranchBelongsTo(branchID, customerID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Branch{}).
		Where("id = ? AND customer_id = ?", branchID, customerID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
