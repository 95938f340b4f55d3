package service

import (
	"context"
	"strings"
	"time"

	"github.com/parcel-billing/internal/billing"
	"github.com/parcel-billing/internal/config"
	"github.com/parcel-billing/internal/logger"
	"github.com/parcel-billing/internal/models"
	"github.com/parcel-billing/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PricingService 运费定价
type PricingService struct {
	cfg          config.BillingConfig
	orderRepo    repository.DeliveryOrderRepository
	customerRepo repository.CustomerRepository
	ledger       *LedgerService
	now          func() time.Time
}

// NewPricingService 创建定价服务
func NewPricingService(cfg config.BillingConfig, orderRepo repository.DeliveryOrderRepository, customerRepo repository.CustomerRepository, ledger *LedgerService) *PricingService {
	return &PricingService{
		cfg:          cfg,
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		ledger:       ledger,
		now:          time.Now,
	}
}

// PriceQuote 展示用报价（均已取整）
type PriceQuote struct {
	TransactionAmount decimal.Decimal `json:"transactionAmount"`
	TransactionFee    decimal.Decimal `json:"transactionFee"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	IsPrepaid         bool            `json:"isPrepaid"`
}

// PackagePrice 按尺寸读取基础运费
func (s *PricingService) PackagePrice(size billing.PackageSize) (decimal.Decimal, error) {
	raw, ok := s.cfg.PackagePrices[strings.ToLower(string(size))]
	if !ok {
		return decimal.Zero, ErrPackagePriceMissing
	}
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, ErrPackagePriceMissing
	}
	return price, nil
}

// CreateDeliveryFees 为订单所有包裹定价并写入运费
func (s *PricingService) CreateDeliveryFees(ctx context.Context, orderID uint) (*PriceQuote, error) {
	order, err := s.orderRepo.GetWithPackages(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrDeliveryOrderNotFound
	}
	if len(order.Packages) == 0 {
		return nil, ErrOrderHasNoPackages
	}
	customer, err := s.customerRepo.GetByID(order.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}

	now := s.now()
	var customAmount *decimal.Decimal
	if customer.HasFixedPrice(now) {
		custom, err := billing.TransactionAmountFromTotal(decimal.NewNullDecimal(customer.FixedPriceAmount.Decimal))
		if err != nil {
			return nil, err
		}
		customAmount = &custom
	}
	weight := customer.WeightingFactor
	if weight.IsZero() {
		weight = decimal.NewFromInt(1)
	}

	charges := make([]models.Charge, 0, len(order.Packages))
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		for i := range order.Packages {
			pkg := &order.Packages[i]
			raw, err := s.PackagePrice(pkg.Size)
			if err != nil {
				return err
			}
			charge, err := s.ledger.UpsertDeliveryFee(tx, pkg, raw, customAmount, weight)
			if err != nil {
				return err
			}
			charges = append(charges, *charge)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.SW("delivery_order_id", orderID, "customer_id", customer.ID).
		Infow("delivery_fees_priced", "packages", len(charges), "fixed_price", customAmount != nil)
	quote, err := displayQuote(models.ChargeLines(charges))
	if err != nil {
		return nil, err
	}
	quote.IsPrepaid = customer.IsPrepaid(now)
	return quote, nil
}

// Quote 按包裹尺寸报价，不落库
func (s *PricingService) Quote(sizes []string) (*PriceQuote, error) {
	lines := make([]billing.ChargeLine, 0, len(sizes))
	for _, raw := range sizes {
		size, err := billing.ParsePackageSize(raw)
		if err != nil {
			return nil, err
		}
		price, err := s.PackagePrice(size)
		if err != nil {
			return nil, err
		}
		lines = append(lines, billing.ChargeLine{TransactionAmount: price, Status: billing.ChargeStatusUnpaid})
	}
	if len(lines) == 0 {
		return nil, ErrOrderHasNoPackages
	}
	quote, err := displayQuote(lines)
	if err != nil {
		return nil, err
	}
	quote.IsPrepaid = true
	return quote, nil
}

func displayQuote(lines []billing.ChargeLine) (*PriceQuote, error) {
	breakdown, err := billing.TransactionBreakdownOf(lines, nil, nil)
	if err != nil {
		return nil, err
	}
	return &PriceQuote{
		TransactionAmount: billing.RoundForDisplay(breakdown.TransactionAmount),
		TransactionFee:    billing.RoundForDisplay(breakdown.TransactionFee),
		TotalAmount:       billing.RoundForDisplay(breakdown.TotalAmount),
	}, nil
}
