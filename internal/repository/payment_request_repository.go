package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/parcel-billing/internal/models"

	"gorm.io/gorm"
)

// PaymentRequestRepository 支付请求数据访问接口
type PaymentRequestRepository interface {
	Create(req *models.PaymentRequest, chargeIDs, discountIDs []uint) error
	GetByID(id string) (*models.PaymentRequest, error)
	Finalize(id string, success bool, errorCode, errorMessage string, at time.Time) (bool, error)
	SaveGatewayResponse(id string, body models.JSON) error
	ListStalePending(before time.Time, limit int) ([]models.PaymentRequest, error)
	List(filter PaymentRequestListFilter) ([]models.PaymentRequest, int64, error)
	CreateRecords(records []models.PaymentRecord) error
	WithTx(tx *gorm.DB) *GormPaymentRequestRepository
}

// GormPaymentRequestRepository GORM 实现
type GormPaymentRequestRepository struct {
	db *gorm.DB
}

// NewPaymentRequestRepository 创建支付请求仓库
func NewPaymentRequestRepository(db *gorm.DB) *GormPaymentRequestRepository {
	return &GormPaymentRequestRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPaymentRequestRepository) WithTx(tx *gorm.DB) *GormPaymentRequestRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentRequestRepository{db: tx}
}

// Create 创建支付请求及其费用/折扣关联
func (r *GormPaymentRequestRepository) Create(req *models.PaymentRequest, chargeIDs, discountIDs []uint) error {
	req.Charges = make([]models.PaymentRequestCharge, 0, len(chargeIDs))
	for _, id := range chargeIDs {
		req.Charges = append(req.Charges, models.PaymentRequestCharge{ChargeID: id})
	}
	req.Discounts = make([]models.PaymentRequestDiscount, 0, len(discountIDs))
	for _, id := range discountIDs {
		req.Discounts = append(req.Discounts, models.PaymentRequestDiscount{DiscountID: id})
	}
	return r.db.Create(req).Error
}

// GetByID 根据 ID 获取支付请求（含关联）
func (r *GormPaymentRequestRepository) GetByID(id string) (*models.PaymentRequest, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	var req models.PaymentRequest
	if err := r.db.Preload("Charges", func(db *gorm.DB) *gorm.DB {
		return db.Order("charge_id asc")
	}).Preload("Discounts", func(db *gorm.DB) *gorm.DB {
		return db.Order("discount_id asc")
	}).Where("id = ?", id).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

// Finalize 仅当请求仍处于待定状态时写入终态，返回是否由本次调用完成
func (r *GormPaymentRequestRepository) Finalize(id string, success bool, errorCode, errorMessage string, at time.Time) (bool, error) {
	result := r.db.Model(&models.PaymentRequest{}).
		Where("id = ? AND is_success IS NULL", id).
		Updates(map[string]interface{}{
			"is_success":             success,
			"finalized_at":           at,
			"callback_error_code":    errorCode,
			"callback_error_message": errorMessage,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// SaveGatewayResponse 保存网关即时响应
func (r *GormPaymentRequestRepository) SaveGatewayResponse(id string, body models.JSON) error {
	return r.db.Model(&models.PaymentRequest{}).Where("id = ?", id).Update("gateway_response", body).Error
}

// ListStalePending 列出早于 before 仍未终结的线上请求
func (r *GormPaymentRequestRepository) ListStalePending(before time.Time, limit int) ([]models.PaymentRequest, error) {
	query := r.db.Where("is_success IS NULL AND created_at < ?", before).Order("created_at asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var reqs []models.PaymentRequest
	if err := query.Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

// List 分页查询支付请求
func (r *GormPaymentRequestRepository) List(filter PaymentRequestListFilter) ([]models.PaymentRequest, int64, error) {
	query := r.db.Model(&models.PaymentRequest{})
	if filter.CustomerID != 0 {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.Mode != "" {
		query = query.Where("mode = ?", filter.Mode)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var reqs []models.PaymentRequest
	if err := applyPagination(query, filter.Page, filter.PageSize).Order("created_at desc").Find(&reqs).Error; err != nil {
		return nil, 0, err
	}
	return reqs, total, nil
}

// CreateRecords 批量写入线下结算记录
func (r *GormPaymentRequestRepository) CreateRecords(records []models.PaymentRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.Create(&records).Error
}
