package service

import (
	"context"
	"errors"
	"time"

	"github.com/parcel-billing/internal/billing"
	"github.com/parcel-billing/internal/logger"
	"github.com/parcel-billing/internal/metrics"
	"github.com/parcel-billing/internal/models"
	"github.com/parcel-billing/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 账单生成来源
const (
	InvoiceTriggerManual    = "manual"
	InvoiceTriggerScheduled = "scheduled"
)

// InvoiceService 账单生成与状态查询
type InvoiceService struct {
	invoiceRepo  repository.InvoiceRepository
	orderRepo    repository.DeliveryOrderRepository
	customerRepo repository.CustomerRepository
	chargeRepo   repository.ChargeRepository
	now          func() time.Time
}

// NewInvoiceService 创建账单服务
func NewInvoiceService(invoiceRepo repository.InvoiceRepository, orderRepo repository.DeliveryOrderRepository, customerRepo repository.CustomerRepository, chargeRepo repository.ChargeRepository) *InvoiceService {
	return &InvoiceService{
		invoiceRepo:  invoiceRepo,
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		chargeRepo:   chargeRepo,
		now:          time.Now,
	}
}

// CreateInvoiceInput 创建账单参数
type CreateInvoiceInput struct {
	CustomerID uint
	StartAt    *time.Time
	EndAt      *time.Time
	Trigger    string
}

// InvoiceDetail 账单详情（金额与状态实时计算）
type InvoiceDetail struct {
	Invoice   *models.DeliveryInvoice
	ChargeIDs []uint
	Status    billing.PaymentStatus
	Breakdown billing.Breakdown
}

// CreateInvoice 将区间内未付订单的未付费用快照为账单
func (s *InvoiceService) CreateInvoice(input CreateInvoiceInput) (*models.DeliveryInvoice, error) {
	if input.EndAt == nil {
		return nil, ErrEndAtRequired
	}
	if input.StartAt != nil && !input.StartAt.Before(*input.EndAt) {
		return nil, ErrInvoiceRangeInvalid
	}
	customer, err := s.customerRepo.GetByID(input.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	trigger := input.Trigger
	if trigger == "" {
		trigger = InvoiceTriggerManual
	}

	var invoice *models.DeliveryInvoice
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		orders, err := s.orderRepo.WithTx(tx).ListUnpaid(repository.UnpaidOrderFilter{
			CustomerID: customer.ID,
			StartAt:    input.StartAt,
			EndAt:      input.EndAt,
		})
		if err != nil {
			return err
		}
		charges := UnpaidCharges(orders)
		if len(charges) == 0 {
			return ErrNoUnpaidCharges
		}
		invoice = &models.DeliveryInvoice{
			ID:         uuid.NewString(),
			CustomerID: customer.ID,
			StartAt:    input.StartAt,
			EndAt:      input.EndAt,
		}
		return s.invoiceRepo.WithTx(tx).Create(invoice, chargeIDsOf(charges))
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordInvoiceCreated(trigger)
	logger.Infow("delivery_invoice_created",
		"delivery_invoice_id", invoice.ID,
		"customer_id", customer.ID,
		"charges", len(invoice.Charges),
		"trigger", trigger,
	)
	return invoice, nil
}

// GetInvoice 读取账单并按费用当前状态计算金额与状态
func (s *InvoiceService) GetInvoice(invoiceID string) (*InvoiceDetail, error) {
	invoice, err := s.invoiceRepo.GetByID(invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, ErrInvoiceNotFound
	}
	ids := make([]uint, 0, len(invoice.Charges))
	for _, row := range invoice.Charges {
		ids = append(ids, row.ChargeID)
	}
	if len(ids) == 0 {
		return nil, ErrInvoiceHasNoCharges
	}
	charges, err := s.chargeRepo.GetByIDs(ids)
	if err != nil {
		return nil, err
	}
	if len(charges) == 0 {
		return nil, ErrInvoiceHasNoCharges
	}
	lines := models.ChargeLines(charges)
	breakdown, err := billing.TransactionBreakdownOf(lines, nil, nil)
	if err != nil {
		return nil, err
	}
	return &InvoiceDetail{
		Invoice:   invoice,
		ChargeIDs: ids,
		Status:    billing.PaymentStatusOf(lines),
		Breakdown: breakdown,
	}, nil
}

// GetInvoiceStatus 账单状态
func (s *InvoiceService) GetInvoiceStatus(invoiceID string) (billing.PaymentStatus, error) {
	detail, err := s.GetInvoice(invoiceID)
	if err != nil {
		return "", err
	}
	return detail.Status, nil
}

// RunScheduledInvoicing 为到期的后付费客户生成账单，返回生成数量
func (s *InvoiceService) RunScheduledInvoicing(ctx context.Context) (int, error) {
	now := s.now()
	customers, err := s.customerRepo.ListPostpaid(now)
	if err != nil {
		return 0, err
	}
	created := 0
	for i := range customers {
		if ctx.Err() != nil {
			return created, ctx.Err()
		}
		customer := &customers[i]
		log := logger.SW("customer_id", customer.ID)
		startAt, due, err := s.nextInvoiceStart(customer, now)
		if err != nil {
			log.Warnw("scheduled_invoice_lookup_failed", "error", err)
			continue
		}
		if !due {
			continue
		}
		endAt := now
		_, err = s.CreateInvoice(CreateInvoiceInput{
			CustomerID: customer.ID,
			StartAt:    startAt,
			EndAt:      &endAt,
			Trigger:    InvoiceTriggerScheduled,
		})
		if errors.Is(err, ErrNoUnpaidCharges) {
			continue
		}
		if err != nil {
			log.Warnw("scheduled_invoice_create_failed", "error", err)
			continue
		}
		created++
	}
	return created, nil
}

// nextInvoiceStart 上一张账单结束时间满一个账期才生成；没有账单时从最早未付订单开始
func (s *InvoiceService) nextInvoiceStart(customer *models.Customer, now time.Time) (*time.Time, bool, error) {
	latest, err := s.invoiceRepo.LatestByCustomer(customer.ID)
	if err != nil {
		return nil, false, err
	}
	if latest != nil && latest.EndAt != nil {
		if now.Before(latest.EndAt.AddDate(0, 0, customer.BillingInterval)) {
			return nil, false, nil
		}
		return latest.EndAt, true, nil
	}
	earliest, err := s.orderRepo.EarliestUnpaidPlacedAt(customer.ID)
	if err != nil {
		return nil, false, err
	}
	if earliest == nil {
		return nil, false, nil
	}
	return earliest, true, nil
}
