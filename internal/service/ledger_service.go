package service

import (
	"strings"

	"github.com/parcel-billing/internal/billing"
	"github.com/parcel-billing/internal/constants"
	"github.com/parcel-billing/internal/models"
	"github.com/parcel-billing/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerService 费用与折扣账本
type LedgerService struct {
	chargeRepo   repository.ChargeRepository
	discountRepo repository.DiscountRepository
	orderRepo    repository.DeliveryOrderRepository
}

// NewLedgerService 创建账本服务
func NewLedgerService(chargeRepo repository.ChargeRepository, discountRepo repository.DiscountRepository, orderRepo repository.DeliveryOrderRepository) *LedgerService {
	return &LedgerService{
		chargeRepo:   chargeRepo,
		discountRepo: discountRepo,
		orderRepo:    orderRepo,
	}
}

// UpsertDeliveryFee 创建或更新包裹的运费；固定价存在时覆盖计算价，已付或被占用的费用不再改价
func (s *LedgerService) UpsertDeliveryFee(tx *gorm.DB, pkg *models.Package, rawAmount decimal.Decimal, customAmount *decimal.Decimal, weightingFactor decimal.Decimal) (*models.Charge, error) {
	if pkg == nil {
		return nil, ErrPackageNotFound
	}
	chargeRepo := s.chargeRepo.WithTx(tx)
	charge, err := chargeRepo.FindByPackageAndType(pkg.ID, billing.ChargeTypeDeliveryFee)
	if err != nil {
		return nil, err
	}
	isNew := charge == nil
	if !isNew {
		// 只允许在支付前修正金额
		if charge.Status == billing.ChargeStatusPaid {
			return nil, ErrChargeAlreadySettled
		}
		if charge.ReservedByRequestID != nil {
			return nil, ErrChargesReserved
		}
	}
	if isNew {
		charge = &models.Charge{
			PackageID:       pkg.ID,
			DeliveryOrderID: pkg.DeliveryOrderID,
			Type:            billing.ChargeTypeDeliveryFee,
			Status:          billing.ChargeStatusUnpaid,
			Description:     constants.DeliveryFeeDescription,
		}
	}

	actual := rawAmount.Mul(weightingFactor).Round(2)
	amount := actual
	if customAmount != nil {
		amount = customAmount.Round(2)
	}
	if err := charge.SetTransactionAmount(amount); err != nil {
		return nil, err
	}
	if err := charge.SetActualTransactionAmount(actual); err != nil {
		return nil, err
	}

	if isNew {
		err = chargeRepo.Create(charge)
	} else {
		err = chargeRepo.Save(charge)
	}
	if err != nil {
		return nil, err
	}
	return charge, nil
}

// AddCharge 新增附加费用；调用方传入含手续费金额，落库为不含手续费金额
func (s *LedgerService) AddCharge(packageID uint, rawType string, feeInclusiveAmount decimal.NullDecimal, description string) (*models.Charge, error) {
	if strings.TrimSpace(rawType) == "" {
		return nil, ErrChargeTypeRequired
	}
	chargeType, err := billing.ParseChargeType(rawType)
	if err != nil {
		return nil, err
	}
	if chargeType == billing.ChargeTypeDeliveryFee {
		return nil, ErrChargeTypeNotAllowed
	}
	if !feeInclusiveAmount.Valid || feeInclusiveAmount.Decimal.IsZero() {
		return nil, ErrChargeAmountRequired
	}

	pkg, err := s.orderRepo.GetPackage(packageID)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, ErrPackageNotFound
	}

	amount, err := billing.TransactionAmountFromTotal(feeInclusiveAmount)
	if err != nil {
		return nil, err
	}
	charge := &models.Charge{
		PackageID:       pkg.ID,
		DeliveryOrderID: pkg.DeliveryOrderID,
		Type:            chargeType,
		Status:          billing.ChargeStatusUnpaid,
		Description:     strings.TrimSpace(description),
	}
	if err := charge.SetTransactionAmount(amount.Round(2)); err != nil {
		return nil, err
	}
	if err := s.chargeRepo.Create(charge); err != nil {
		return nil, err
	}
	return charge, nil
}

// ListPackageCharges 分页查询包裹费用
func (s *LedgerService) ListPackageCharges(filter repository.ChargeListFilter) ([]models.Charge, int64, error) {
	return s.chargeRepo.ListByPackage(filter)
}

// CreateDiscount 为订单创建待抵扣折扣
func (s *LedgerService) CreateDiscount(orderID uint, rawType string, amount decimal.NullDecimal) (*models.Discount, error) {
	if strings.TrimSpace(rawType) == "" {
		return nil, ErrDiscountTypeRequired
	}
	discountType, err := billing.ParseDiscountType(rawType)
	if err != nil {
		return nil, err
	}
	if !amount.Valid || !amount.Decimal.IsPositive() {
		return nil, ErrDiscountAmountRequired
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrDeliveryOrderNotFound
	}
	existing, err := s.discountRepo.GetByOrderAndType(orderID, discountType)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDiscountExists
	}

	discount := &models.Discount{
		DeliveryOrderID: orderID,
		Type:            discountType,
		Amount:          models.NewMoneyFromDecimal(amount.Decimal),
		Status:          billing.DiscountStatusPending,
	}
	if err := s.discountRepo.Create(discount); err != nil {
		return nil, err
	}
	return discount, nil
}

// UnpaidCharges 汇总订单中的未付费用并按 ID 去重
func UnpaidCharges(orders []models.DeliveryOrder) []models.Charge {
	seen := make(map[uint]struct{})
	result := make([]models.Charge, 0)
	for _, order := range orders {
		for _, charge := range order.Charges {
			if charge.Status != billing.ChargeStatusUnpaid {
				continue
			}
			if _, ok := seen[charge.ID]; ok {
				continue
			}
			seen[charge.ID] = struct{}{}
			result = append(result, charge)
		}
	}
	return result
}

// PendingDiscounts 汇总订单中的待抵扣折扣并按 ID 去重
func PendingDiscounts(orders []models.DeliveryOrder) []models.Discount {
	seen := make(map[uint]struct{})
	result := make([]models.Discount, 0)
	for _, order := range orders {
		for _, discount := range order.Discounts {
			if discount.Status != billing.DiscountStatusPending {
				continue
			}
			if _, ok := seen[discount.ID]; ok {
				continue
			}
			seen[discount.ID] = struct{}{}
			result = append(result, discount)
		}
	}
	return result
}

func chargeIDsOf(charges []models.Charge) []uint {
	ids := make([]uint, 0, len(charges))
	for _, c := range charges {
		ids = append(ids, c.ID)
	}
	return ids
}

func discountIDsOf(discounts []models.Discount) []uint {
	ids := make([]uint, 0, len(discounts))
	for _, d := range discounts {
		ids = append(ids, d.ID)
	}
	return ids
}
