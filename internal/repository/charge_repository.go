package repository

import (
	"errors"
	"time"

	"github.com/parcel-billing/internal/billing"
	"github.com/parcel-billing/internal/models"

	"gorm.io/gorm"
)

// ChargeRepository 费用数据访问接口
type ChargeRepository interface {
	Create(charge *models.Charge) error
	Save(charge *models.Charge) error
	GetByID(id uint) (*models.Charge, error)
	GetByIDs(ids []uint) ([]models.Charge, error)
	FindByPackageAndType(packageID uint, chargeType billing.ChargeType) (*models.Charge, error)
	ListByPackage(filter ChargeListFilter) ([]models.Charge, int64, error)
	ListByOrderIDs(orderIDs []uint) ([]models.Charge, error)
	LockUnpaid(ids []uint) ([]models.Charge, error)
	Reserve(ids []uint, requestID string, until time.Time) (int64, error)
	ReleaseByRequest(requestID string) (int64, error)
	MarkPaid(ids []uint) error
	MarkPaidForRequest(ids []uint, requestID string) (int64, error)
	WithTx(tx *gorm.DB) *GormChargeRepository
}

// GormChargeRepository GORM 实现
type GormChargeRepository struct {
	db *gorm.DB
}

// NewChargeRepository 创建费用仓库
func NewChargeRepository(db *gorm.DB) *GormChargeRepository {
	return &GormChargeRepository{db: db}
}

// WithTx 绑定事务
func (r *GormChargeRepository) WithTx(tx *gorm.DB) *GormChargeRepository {
	if tx == nil {
		return r
	}
	return &GormChargeRepository{db: tx}
}

// Create 创建费用
func (r *GormChargeRepository) Create(charge *models.Charge) error {
	return r.db.Create(charge).Error
}

// Save 保存费用
func (r *GormChargeRepository) Save(charge *models.Charge) error {
	return r.db.Save(charge).Error
}

// GetByID 根据 ID 获取费用
func (r *GormChargeRepository) GetByID(id uint) (*models.Charge, error) {
	var charge models.Charge
	if err := r.db.First(&charge, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &charge, nil
}

// GetByIDs 根据 ID 列表获取费用
func (r *GormChargeRepository) GetByIDs(ids []uint) ([]models.Charge, error) {
	if len(ids) == 0 {
		return []models.Charge{}, nil
	}
	var charges []models.Charge
	if err := r.db.Where("id IN ?", ids).Order("id asc").Find(&charges).Error; err != nil {
		return nil, err
	}
	return charges, nil
}

// FindByPackageAndType 加锁读取包裹下指定类型的费用
func (r *GormChargeRepository) FindByPackageAndType(packageID uint, chargeType billing.ChargeType) (*models.Charge, error) {
	var charge models.Charge
	result := forUpdate(r.db).
		Where("package_id = ? AND type = ?", packageID, chargeType).
		Order("id asc").
		Limit(1).
		Find(&charge)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &charge, nil
}

// ListByPackage 分页获取包裹费用
func (r *GormChargeRepository) ListByPackage(filter ChargeListFilter) ([]models.Charge, int64, error) {
	query := r.db.Model(&models.Charge{}).Where("package_id = ?", filter.PackageID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var charges []models.Charge
	if err := applyPagination(query, filter.Page, filter.PageSize).Order("id asc").Find(&charges).Error; err != nil {
		return nil, 0, err
	}
	return charges, total, nil
}

// ListByOrderIDs 获取订单下全部费用
func (r *GormChargeRepository) ListByOrderIDs(orderIDs []uint) ([]models.Charge, error) {
	if len(orderIDs) == 0 {
		return []models.Charge{}, nil
	}
	var charges []models.Charge
	if err := r.db.Where("delivery_order_id IN ?", orderIDs).Order("id asc").Find(&charges).Error; err != nil {
		return nil, err
	}
	return charges, nil
}

// LockUnpaid 加锁读取仍未支付的费用
func (r *GormChargeRepository) LockUnpaid(ids []uint) ([]models.Charge, error) {
	if len(ids) == 0 {
		return []models.Charge{}, nil
	}
	var charges []models.Charge
	if err := forUpdate(r.db).
		Where("id IN ? AND status = ?", ids, billing.ChargeStatusUnpaid).
		Order("id asc").
		Find(&charges).Error; err != nil {
		return nil, err
	}
	return charges, nil
}

// liveReservationOwner 占用者仍为待定请求时占用有效，与 reserved_until 无关
const liveReservationOwner = `EXISTS (SELECT 1 FROM payment_requests pr WHERE pr.id = charges.reserved_by_request_id AND pr.is_success IS NULL)`

// Reserve 为支付请求占用费用，返回占用行数；只有请求终态后占用才会失效
// until 仅记录请求的预期过期时间
func (r *GormChargeRepository) Reserve(ids []uint, requestID string, until time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.Charge{}).
		Where("id IN ? AND status = ?", ids, billing.ChargeStatusUnpaid).
		Where("reserved_by_request_id IS NULL OR NOT " + liveReservationOwner).
		Updates(map[string]interface{}{
			"reserved_by_request_id": requestID,
			"reserved_until":         until,
		})
	return result.RowsAffected, result.Error
}

// ReleaseByRequest 释放支付请求占用的费用
func (r *GormChargeRepository) ReleaseByRequest(requestID string) (int64, error) {
	result := r.db.Model(&models.Charge{}).
		Where("reserved_by_request_id = ?", requestID).
		Updates(map[string]interface{}{
			"reserved_by_request_id": nil,
			"reserved_until":         nil,
		})
	return result.RowsAffected, result.Error
}

// MarkPaid 批量标记为已支付并清除占用
func (r *GormChargeRepository) MarkPaid(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&models.Charge{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"status":                 billing.ChargeStatusPaid,
			"reserved_by_request_id": nil,
			"reserved_until":         nil,
		}).Error
}

// MarkPaidForRequest 只结算仍由该请求占用的未付费用，返回结算行数
func (r *GormChargeRepository) MarkPaidForRequest(ids []uint, requestID string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.Charge{}).
		Where("id IN ? AND status = ? AND reserved_by_request_id = ?", ids, billing.ChargeStatusUnpaid, requestID).
		Updates(map[string]interface{}{
			"status":                 billing.ChargeStatusPaid,
			"reserved_by_request_id": nil,
			"reserved_until":         nil,
		})
	return result.RowsAffected, result.Error
}
