package service

import (
	"time"

	"github.com/parcel-billing/internal/billing"
	"github.com/parcel-billing/internal/models"
	"github.com/parcel-billing/internal/repository"

	"github.com/shopspring/decimal"
)

// CustomerBillingService 客户账期与消费汇总
type CustomerBillingService struct {
	customerRepo repository.CustomerRepository
	orderRepo    repository.DeliveryOrderRepository
	now          func() time.Time
}

// NewCustomerBillingService 创建客户账期服务
func NewCustomerBillingService(customerRepo repository.CustomerRepository, orderRepo repository.DeliveryOrderRepository) *CustomerBillingService {
	return &CustomerBillingService{
		customerRepo: customerRepo,
		orderRepo:    orderRepo,
		now:          time.Now,
	}
}

// BillingStatus 账期状态
type BillingStatus struct {
	IsBillDue   bool       `json:"isBillDue"`
	GracePeriod int        `json:"gracePeriod"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	LockoutDate *time.Time `json:"lockoutDate,omitempty"`
}

// OrderSpending 单个未付订单的金额
type OrderSpending struct {
	DeliveryOrderID   uint            `json:"id"`
	PlacedAt          *time.Time      `json:"placedAt"`
	BranchID          *uint           `json:"branchId,omitempty"`
	TransactionAmount decimal.Decimal `json:"transactionAmount"`
	TransactionFee    decimal.Decimal `json:"transactionFee"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
}

// Spending 客户未付消费汇总
type Spending struct {
	DeliveryOrders    []OrderSpending `json:"deliveryOrders"`
	TotalCount        int             `json:"totalCount"`
	TransactionAmount decimal.Decimal `json:"transactionAmount"`
	TransactionFee    decimal.Decimal `json:"transactionFee"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
}

// HasUnpaid 是否存在未付订单
func (s *Spending) HasUnpaid() bool {
	return s != nil && s.TotalCount > 0
}

func (s *CustomerBillingService) loadCustomer(customerID uint) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByID(customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	return customer, nil
}

// GetBillingStatus 以最早未付订单的下单时间推算到期日与锁定日
func (s *CustomerBillingService) GetBillingStatus(customerID uint) (*BillingStatus, error) {
	customer, err := s.loadCustomer(customerID)
	if err != nil {
		return nil, err
	}
	earliest, err := s.orderRepo.EarliestUnpaidPlacedAt(customer.ID)
	if err != nil {
		return nil, err
	}
	return evaluateBillingStatus(customer, earliest, s.now()), nil
}

func evaluateBillingStatus(customer *models.Customer, earliestPlacedAt *time.Time, now time.Time) *BillingStatus {
	if earliestPlacedAt == nil {
		return &BillingStatus{}
	}
	dueDate := earliestPlacedAt.AddDate(0, 0, customer.BillingInterval)
	lockoutDate := dueDate.AddDate(0, 0, customer.BillingGracePeriod)
	grace := int(lockoutDate.Sub(now) / (24 * time.Hour))
	if grace < 0 {
		grace = 0
	}
	return &BillingStatus{
		IsBillDue:   !now.Before(dueDate),
		GracePeriod: grace,
		DueDate:     &dueDate,
		LockoutDate: &lockoutDate,
	}
}

// GetSpending 汇总截止时间前的未付订单
func (s *CustomerBillingService) GetSpending(customerID uint, endAt *time.Time, branchID *uint) (*Spending, error) {
	customer, err := s.loadCustomer(customerID)
	if err != nil {
		return nil, err
	}
	if branchID != nil {
		ok, err := s.customerRepo.BranchBelongsTo(*branchID, customer.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrBranchNotFound
		}
	}
	orders, err := s.orderRepo.ListUnpaid(repository.UnpaidOrderFilter{
		CustomerID: customer.ID,
		EndAt:      endAt,
		BranchID:   branchID,
	})
	if err != nil {
		return nil, err
	}

	spending := &Spending{
		DeliveryOrders:    make([]OrderSpending, 0, len(orders)),
		TransactionAmount: decimal.Zero,
		TransactionFee:    decimal.Zero,
		TotalAmount:       decimal.Zero,
	}
	if len(orders) == 0 {
		return spending, nil
	}
	for _, order := range orders {
		single := []models.DeliveryOrder{order}
		breakdown, err := billing.TransactionBreakdownOf(
			models.ChargeLines(UnpaidCharges(single)),
			models.DiscountLines(PendingDiscounts(single)),
			nil,
		)
		if err != nil {
			return nil, err
		}
		spending.DeliveryOrders = append(spending.DeliveryOrders, OrderSpending{
			DeliveryOrderID:   order.ID,
			PlacedAt:          order.PlacedAt,
			BranchID:          order.BranchID,
			TransactionAmount: breakdown.TransactionAmount,
			TransactionFee:    breakdown.TransactionFee,
			TotalAmount:       breakdown.TotalAmount,
		})
	}
	total, err := billing.TransactionBreakdownOf(
		models.ChargeLines(UnpaidCharges(orders)),
		models.DiscountLines(PendingDiscounts(orders)),
		nil,
	)
	if err != nil {
		return nil, err
	}
	spending.TotalCount = len(orders)
	spending.TransactionAmount = total.TransactionAmount
	spending.TransactionFee = total.TransactionFee
	spending.TotalAmount = total.TotalAmount
	return spending, nil
}
