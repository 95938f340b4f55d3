package repository

import (
	"errors"
	"time"

	"github.com/parcel-billing/internal/billing"
	"github.com/parcel-billing/internal/constants"
	"github.com/parcel-billing/internal/models"

	"gorm.io/gorm"
)

// DeliveryOrderRepository 配送订单数据访问接口
type DeliveryOrderRepository interface {
	GetByID(id uint) (*models.DeliveryOrder, error)
	GetByIDForUpdate(id uint) (*models.DeliveryOrder, error)
	GetWithPackages(id uint) (*models.DeliveryOrder, error)
	GetPackage(id uint) (*models.Package, error)
	ListUnpaid(filter UnpaidOrderFilter) ([]models.DeliveryOrder, error)
	EarliestUnpaidPlacedAt(customerID uint) (*time.Time, error)
	TransitionStatus(id uint, from []string, to string, updates map[string]interface{}) (bool, error)
	WithTx(tx *gorm.DB) *GormDeliveryOrderRepository
}

// GormDeliveryOrderRepository GORM 实现
type GormDeliveryOrderRepository struct {
	db *gorm.DB
}

// NewDeliveryOrderRepository 创建配送订单仓库
func NewDeliveryOrderRepository(db *gorm.DB) *GormDeliveryOrderRepository {
	return &GormDeliveryOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDeliveryOrderRepository) WithTx(tx *gorm.DB) *GormDeliveryOrderRepository {
	if tx == nil {
		return r
	}
	return &GormDeliveryOrderRepository{db: tx}
}

func (r *GormDeliveryOrderRepository) first(query *gorm.DB, id uint) (*models.DeliveryOrder, error) {
	var order models.DeliveryOrder
	if err := query.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByID 根据 ID 获取订单
func (r *GormDeliveryOrderRepository) GetByID(id uint) (*models.DeliveryOrder, error) {
	return r.first(r.db, id)
}

// GetByIDForUpdate 加行锁读取订单
func (r *GormDeliveryOrderRepository) GetByIDForUpdate(id uint) (*models.DeliveryOrder, error) {
	return r.first(forUpdate(r.db), id)
}

// GetWithPackages 读取订单及其包裹
func (r *GormDeliveryOrderRepository) GetWithPackages(id uint) (*models.DeliveryOrder, error) {
	return r.first(r.db.Preload("Packages", func(db *gorm.DB) *gorm.DB {
		return db.Order("id asc")
	}), id)
}

// GetPackage 根据 ID 获取包裹
func (r *GormDeliveryOrderRepository) GetPackage(id uint) (*models.Package, error) {
	var pkg models.Package
	if err := r.db.First(&pkg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pkg, nil
}

// unpaidScope 已完成且仍有未付费用的订单
func (r *GormDeliveryOrderRepository) unpaidScope(customerID uint) *gorm.DB {
	return r.db.Model(&models.DeliveryOrder{}).
		Where("delivery_orders.customer_id = ? AND delivery_orders.status = ?", customerID, constants.OrderStatusComplete).
		Where("EXISTS (SELECT 1 FROM charges WHERE charges.delivery_order_id = delivery_orders.id AND charges.status = ?)", billing.ChargeStatusUnpaid)
}

// ListUnpaid 按下单时间倒序列出未付订单，附带其费用与折扣
func (r *GormDeliveryOrderRepository) ListUnpaid(filter UnpaidOrderFilter) ([]models.DeliveryOrder, error) {
	query := r.unpaidScope(filter.CustomerID)
	if filter.StartAt != nil {
		query = query.Where("delivery_orders.placed_at >= ?", *filter.StartAt)
	}
	if filter.EndAt != nil {
		query = query.Where("delivery_orders.placed_at < ?", *filter.EndAt)
	}
	if filter.BranchID != nil {
		query = query.Where("delivery_orders.branch_id = ?", *filter.BranchID)
	}

	var orders []models.DeliveryOrder
	if err := query.
		Preload("Charges", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Discounts", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Order("delivery_orders.placed_at desc").
		Order("delivery_orders.id desc").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// EarliestUnpaidPlacedAt 最早一笔未付订单的下单时间
func (r *GormDeliveryOrderRepository) EarliestUnpaidPlacedAt(customerID uint) (*time.Time, error) {
	var order models.DeliveryOrder
	result := r.unpaidScope(customerID).
		Where("delivery_orders.placed_at IS NOT NULL").
		Order("delivery_orders.placed_at asc").
		Limit(1).
		Find(&order)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return order.PlacedAt, nil
}

// TransitionStatus 仅当当前状态在 from 中时才更新，返回是否发生变更
func (r *GormDeliveryOrderRepository) TransitionStatus(id uint, from []string, to string, updates map[string]interface{}) (bool, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to
	result := r.db.Model(&models.DeliveryOrder{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
