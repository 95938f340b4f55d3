package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/parcel-billing/internal/billing"
	"github.com/parcel-billing/internal/cache"
	"github.com/parcel-billing/internal/config"
	"github.com/parcel-billing/internal/constants"
	"github.com/parcel-billing/internal/logger"
	"github.com/parcel-billing/internal/metrics"
	"github.com/parcel-billing/internal/models"
	"github.com/parcel-billing/internal/payment/gateway"
	"github.com/parcel-billing/internal/queue"
	"github.com/parcel-billing/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PaymentGateway 外部支付网关
type PaymentGateway interface {
	RequestPayment(ctx context.Context, input gateway.RequestPaymentInput) gateway.Result
	ConfirmPayment(ctx context.Context, input gateway.ConfirmPaymentInput) gateway.Result
	CallbackURL(paymentRequestID string) string
}

// OrderCompleter 付款成功后的订单推进
type OrderCompleter interface {
	Trigger(ctx context.Context, orderID uint, paymentRequestID string)
}

// PaymentRequestService 支付请求协调器
type PaymentRequestService struct {
	cfg             config.BillingConfig
	orderRepo       repository.DeliveryOrderRepository
	customerRepo    repository.CustomerRepository
	chargeRepo      repository.ChargeRepository
	discountRepo    repository.DiscountRepository
	requestRepo     repository.PaymentRequestRepository
	gateway         PaymentGateway
	pickupValidator PickupWindowValidator
	completer       OrderCompleter
	queueClient     *queue.Client
	now             func() time.Time
}

// PaymentRequestServiceOptions 协调器依赖
type PaymentRequestServiceOptions struct {
	Config          config.BillingConfig
	OrderRepo       repository.DeliveryOrderRepository
	CustomerRepo    repository.CustomerRepository
	ChargeRepo      repository.ChargeRepository
	DiscountRepo    repository.DiscountRepository
	RequestRepo     repository.PaymentRequestRepository
	Gateway         PaymentGateway
	PickupValidator PickupWindowValidator
	Completer       OrderCompleter
	QueueClient     *queue.Client
}

// NewPaymentRequestService 创建支付请求协调器
func NewPaymentRequestService(opts PaymentRequestServiceOptions) *PaymentRequestService {
	return &PaymentRequestService{
		cfg:             opts.Config,
		orderRepo:       opts.OrderRepo,
		customerRepo:    opts.CustomerRepo,
		chargeRepo:      opts.ChargeRepo,
		discountRepo:    opts.DiscountRepo,
		requestRepo:     opts.RequestRepo,
		gateway:         opts.Gateway,
		pickupValidator: opts.PickupValidator,
		completer:       opts.Completer,
		queueClient:     opts.QueueClient,
		now:             time.Now,
	}
}

func paymentLogger(kv ...interface{}) *zap.SugaredLogger {
	if len(kv) == 0 {
		return logger.S()
	}
	return logger.SW(kv...)
}

// OrderPaymentInput 单订单线上支付
type OrderPaymentInput struct {
	DeliveryOrderID uint
	PaymentMethodID string
}

// CustomerPaymentInput 客户多订单线上支付
type CustomerPaymentInput struct {
	CustomerID      uint
	PaymentMethodID string
	EndAt           *time.Time
	BranchID        *uint
	TotalAmount     decimal.NullDecimal
}

// OfflinePaymentInput 线下支付登记的公共字段
type OfflinePaymentInput struct {
	PaymentMethodID       string
	OperatorTransactionID string
	TotalAmount           decimal.NullDecimal
	PaymentTime           *time.Time
	Description           string
}

// CustomerOfflineInput 客户多订单线下登记
type CustomerOfflineInput struct {
	CustomerID uint
	EndAt      *time.Time
	BranchID   *uint
	OfflinePaymentInput
}

// CallbackInput 网关回调
type CallbackInput struct {
	PathRequestID    string
	Status           string
	PaymentRequestID string
	ErrorCode        string
	ErrorMessage     string
}

// PaymentRequestResult 支付请求结果
type PaymentRequestResult struct {
	PaymentRequestID string
	Breakdown        billing.Breakdown
	Gateway          gateway.Result
	AlreadyPaid      bool
}

// CallbackResult 回调处理结果
type CallbackResult struct {
	PaymentRequestID string
	State            string
	Finalized        bool
}

// paymentSelection 待支付的费用/折扣快照
type paymentSelection struct {
	customerID      uint
	deliveryOrderID *uint
	charges         []models.Charge
	discounts       []models.Discount
	expectedTotal   *decimal.Decimal
}

// RequestOrderPayment 为单个订单的未付费用发起线上支付
func (s *PaymentRequestService) RequestOrderPayment(ctx context.Context, input OrderPaymentInput) (*PaymentRequestResult, error) {
	methodID := strings.TrimSpace(input.PaymentMethodID)
	if methodID == "" {
		return nil, ErrPaymentMethodRequired
	}
	lock, err := s.acquireLock(ctx, fmt.Sprintf(constants.LockKeyOrderPayment, input.DeliveryOrderID))
	if err != nil {
		return nil, err
	}
	defer releaseLock(ctx, lock)

	order, err := s.orderRepo.GetByID(input.DeliveryOrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrDeliveryOrderNotFound
	}
	if s.pickupValidator != nil {
		if err := s.pickupValidator.Validate(order, s.now()); err != nil {
			return nil, err
		}
	}

	charges, err := s.chargeRepo.ListByOrderIDs([]uint{order.ID})
	if err != nil {
		return nil, err
	}
	switch billing.PaymentStatusOf(models.ChargeLines(charges)) {
	case billing.PaymentStatusPaid:
		return &PaymentRequestResult{AlreadyPaid: true}, nil
	case billing.PaymentStatusNoCharge:
		return nil, ErrNoUnpaidCharges
	}
	discounts, err := s.discountRepo.ListByOrderIDs([]uint{order.ID})
	if err != nil {
		return nil, err
	}
	order.Charges = charges
	order.Discounts = discounts
	orders := []models.DeliveryOrder{*order}

	return s.requestPayment(ctx, paymentSelection{
		customerID:      order.CustomerID,
		deliveryOrderID: &order.ID,
		charges:         UnpaidCharges(orders),
		discounts:       PendingDiscounts(orders),
	}, methodID)
}

// RequestCustomerPayment 为客户截止日期前的全部未付费用发起线上支付
func (s *PaymentRequestService) RequestCustomerPayment(ctx context.Context, input CustomerPaymentInput) (*PaymentRequestResult, error) {
	methodID := strings.TrimSpace(input.PaymentMethodID)
	if methodID == "" {
		return nil, ErrPaymentMethodRequired
	}
	if input.EndAt == nil {
		return nil, ErrEndAtRequired
	}
	if !input.TotalAmount.Valid || input.TotalAmount.Decimal.IsZero() {
		return nil, ErrTotalAmountRequired
	}
	lock, err := s.acquireLock(ctx, fmt.Sprintf(constants.LockKeyCustomerPayment, input.CustomerID))
	if err != nil {
		return nil, err
	}
	defer releaseLock(ctx, lock)

	orders, err := s.customerUnpaidOrders(input.CustomerID, input.EndAt, input.BranchID)
	if err != nil {
		return nil, err
	}
	expected := input.TotalAmount.Decimal
	return s.requestPayment(ctx, paymentSelection{
		customerID:    input.CustomerID,
		charges:       UnpaidCharges(orders),
		discounts:     PendingDiscounts(orders),
		expectedTotal: &expected,
	}, methodID)
}

func (s *PaymentRequestService) customerUnpaidOrders(customerID uint, endAt *time.Time, branchID *uint) ([]models.DeliveryOrder, error) {
	customer, err := s.customerRepo.GetByID(customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	if branchID != nil {
		ok, err := s.customerRepo.BranchBelongsTo(*branchID, customerID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrBranchNotFound
		}
	}
	orders, err := s.orderRepo.ListUnpaid(repository.UnpaidOrderFilter{
		CustomerID: customerID,
		EndAt:      endAt,
		BranchID:   branchID,
	})
	if err != nil {
		return nil, err
	}
	if len(UnpaidCharges(orders)) == 0 {
		return nil, ErrNoUnpaidCharges
	}
	return orders, nil
}

// requestPayment 线上路径：先提交 PENDING 请求与费用占用，再调用网关
func (s *PaymentRequestService) requestPayment(ctx context.Context, selection paymentSelection, methodID string) (*PaymentRequestResult, error) {
	if len(selection.charges) == 0 {
		return nil, ErrNoUnpaidCharges
	}
	now := s.now()
	req := &models.PaymentRequest{
		ID:              uuid.NewString(),
		Mode:            constants.PaymentRequestModeOnline,
		CustomerID:      selection.customerID,
		DeliveryOrderID: selection.deliveryOrderID,
		PaymentMethodID: methodID,
	}
	log := paymentLogger("payment_request_id", req.ID, "customer_id", selection.customerID, "mode", req.Mode)
	chargeIDs := chargeIDsOf(selection.charges)
	discountIDs := discountIDsOf(selection.discounts)

	var breakdown billing.Breakdown
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		locked, err := s.reserveCharges(tx, chargeIDs, req.ID, now)
		if err != nil {
			return err
		}
		breakdown, err = billing.TransactionBreakdownOf(models.ChargeLines(locked), models.DiscountLines(selection.discounts), selection.expectedTotal)
		if err != nil {
			return err
		}
		req.TransactionAmount = models.NewMoneyFromDecimal(breakdown.TransactionAmount)
		req.TransactionFee = models.NewMoneyFromDecimal(breakdown.TransactionFee)
		req.TotalAmount = models.NewMoneyFromDecimal(breakdown.TotalAmount)
		return s.requestRepo.WithTx(tx).Create(req, chargeIDs, discountIDs)
	})
	if err != nil {
		if errors.Is(err, ErrChargesReserved) {
			metrics.RecordReservationConflict()
		}
		log.Warnw("payment_request_create_failed", "error", err)
		return nil, err
	}
	log.Infow("payment_request_created", "charges", len(chargeIDs), "total_amount", breakdown.TotalAmount.String())

	if err := s.queueClient.EnqueuePaymentRequestExpire(queue.PaymentRequestExpirePayload{PaymentRequestID: req.ID}, s.cfg.OrphanExpiry()); err != nil {
		log.Warnw("payment_request_expire_enqueue_failed", "error", err)
	}

	result := s.gateway.RequestPayment(ctx, gateway.RequestPaymentInput{
		PaymentRequestID: req.ID,
		Breakdown:        breakdown,
		PaymentMethodID:  methodID,
		CallbackURL:      s.gateway.CallbackURL(req.ID),
		Description:      constants.DeliveryTransactionDesc,
	})
	if result.Success {
		metrics.RecordPaymentRequest(req.Mode, "accepted")
		if err := s.requestRepo.SaveGatewayResponse(req.ID, models.JSON(result.Body)); err != nil {
			log.Warnw("payment_request_gateway_response_save_failed", "error", err)
		}
	} else {
		// 请求保持 PENDING，由过期任务或对账扫描释放占用
		metrics.RecordPaymentRequest(req.Mode, "gateway_failed")
		log.Warnw("payment_gateway_request_failed", "status_code", result.StatusCode)
	}

	return &PaymentRequestResult{
		PaymentRequestID: req.ID,
		Breakdown:        breakdown,
		Gateway:          result,
	}, nil
}

// reserveCharges 锁定并占用费用；有任何一笔已付或被其他请求占用则整体失败
func (s *PaymentRequestService) reserveCharges(tx *gorm.DB, chargeIDs []uint, requestID string, now time.Time) ([]models.Charge, error) {
	chargeRepo := s.chargeRepo.WithTx(tx)
	locked, err := chargeRepo.LockUnpaid(chargeIDs)
	if err != nil {
		return nil, err
	}
	if len(locked) != len(chargeIDs) {
		return nil, ErrChargesReserved
	}
	claimed, err := chargeRepo.Reserve(chargeIDs, requestID, now.Add(s.cfg.ReservationTTL()))
	if err != nil {
		return nil, err
	}
	if claimed != int64(len(chargeIDs)) {
		return nil, ErrChargesReserved
	}
	return locked, nil
}

// ProcessCallback 处理网关回调；只有首个终态写入者执行标记与订单推进
func (s *PaymentRequestService) ProcessCallback(ctx context.Context, input CallbackInput) (*CallbackResult, error) {
	if strings.TrimSpace(input.Status) == "" {
		return nil, ErrCallbackStatusRequired
	}
	status, err := billing.ParseCallbackStatus(input.Status)
	if err != nil {
		return nil, err
	}
	requestID := strings.TrimSpace(input.PathRequestID)
	if strings.TrimSpace(input.PaymentRequestID) == "" || strings.TrimSpace(input.PaymentRequestID) != requestID {
		return nil, ErrCallbackRequestMismatch
	}
	success := status == billing.CallbackStatusSuccess
	log := paymentLogger("payment_request_id", requestID, "callback_status", string(status))

	var (
		won             bool
		state           string
		completionOrder uint
	)
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		requestRepo := s.requestRepo.WithTx(tx)
		req, err := requestRepo.GetByID(requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return ErrPaymentRequestNotFound
		}
		won, err = requestRepo.Finalize(req.ID, success, strings.TrimSpace(input.ErrorCode), strings.TrimSpace(input.ErrorMessage), s.now())
		if err != nil {
			return err
		}
		if !won {
			state = req.State()
			return nil
		}

		chargeRepo := s.chargeRepo.WithTx(tx)
		if !success {
			state = constants.PaymentRequestStateFailed
			_, err := chargeRepo.ReleaseByRequest(req.ID)
			return err
		}
		state = constants.PaymentRequestStateSucceeded
		chargeIDs := req.ChargeIDs()
		settled, err := chargeRepo.MarkPaidForRequest(chargeIDs, req.ID)
		if err != nil {
			return err
		}
		if settled != int64(len(chargeIDs)) {
			log.Errorw("payment_callback_reservation_lost", "charges", len(chargeIDs), "settled", settled)
			return ErrReservationLost
		}
		if err := s.discountRepo.WithTx(tx).MarkApplied(req.DiscountIDs()); err != nil {
			return err
		}
		charges, err := chargeRepo.GetByIDs(chargeIDs)
		if err != nil {
			return err
		}
		if len(charges) > 0 {
			completionOrder = charges[0].DeliveryOrderID
		}
		return nil
	})
	if err != nil {
		log.Warnw("payment_callback_failed", "error", err)
		return nil, err
	}

	if !won {
		metrics.RecordCallback(string(status), "ignored")
		log.Infow("payment_callback_ignored_terminal", "state", state)
		return &CallbackResult{PaymentRequestID: requestID, State: state}, nil
	}
	metrics.RecordCallback(string(status), "finalized")
	log.Infow("payment_callback_finalized", "state", state, "error_code", input.ErrorCode)
	if completionOrder != 0 && s.completer != nil {
		s.completer.Trigger(ctx, completionOrder, requestID)
	}
	return &CallbackResult{PaymentRequestID: requestID, State: state, Finalized: true}, nil
}

// ConfirmOrderPayment 登记单个订单的线下支付
func (s *PaymentRequestService) ConfirmOrderPayment(ctx context.Context, orderID uint, input OfflinePaymentInput) (*PaymentRequestResult, error) {
	if err := validateOfflineInput(input); err != nil {
		return nil, err
	}
	lock, err := s.acquireLock(ctx, fmt.Sprintf(constants.LockKeyOrderPayment, orderID))
	if err != nil {
		return nil, err
	}
	defer releaseLock(ctx, lock)

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrDeliveryOrderNotFound
	}
	if order.Status != constants.OrderStatusPlaced && order.Status != constants.OrderStatusComplete {
		return nil, ErrOrderStatusInvalid
	}
	charges, err := s.chargeRepo.ListByOrderIDs([]uint{order.ID})
	if err != nil {
		return nil, err
	}
	discounts, err := s.discountRepo.ListByOrderIDs([]uint{order.ID})
	if err != nil {
		return nil, err
	}
	order.Charges = charges
	order.Discounts = discounts
	orders := []models.DeliveryOrder{*order}
	unpaid := UnpaidCharges(orders)
	if len(unpaid) == 0 {
		return nil, ErrNoUnpaidCharges
	}
	expected := input.TotalAmount.Decimal
	return s.confirmOffline(ctx, paymentSelection{
		customerID:      order.CustomerID,
		deliveryOrderID: &order.ID,
		charges:         unpaid,
		discounts:       PendingDiscounts(orders),
		expectedTotal:   &expected,
	}, input)
}

// ConfirmCustomerPayment 登记客户多订单的线下支付
func (s *PaymentRequestService) ConfirmCustomerPayment(ctx context.Context, input CustomerOfflineInput) (*PaymentRequestResult, error) {
	if err := validateOfflineInput(input.OfflinePaymentInput); err != nil {
		return nil, err
	}
	lock, err := s.acquireLock(ctx, fmt.Sprintf(constants.LockKeyCustomerPayment, input.CustomerID))
	if err != nil {
		return nil, err
	}
	defer releaseLock(ctx, lock)

	orders, err := s.customerUnpaidOrders(input.CustomerID, input.EndAt, input.BranchID)
	if err != nil {
		return nil, err
	}
	expected := input.TotalAmount.Decimal
	return s.confirmOffline(ctx, paymentSelection{
		customerID:    input.CustomerID,
		charges:       UnpaidCharges(orders),
		discounts:     PendingDiscounts(orders),
		expectedTotal: &expected,
	}, input.OfflinePaymentInput)
}

func validateOfflineInput(input OfflinePaymentInput) error {
	if !input.TotalAmount.Valid || input.TotalAmount.Decimal.IsZero() {
		return ErrTotalAmountRequired
	}
	if strings.TrimSpace(input.PaymentMethodID) == "" {
		return ErrPaymentMethodRequired
	}
	if strings.TrimSpace(input.OperatorTransactionID) == "" {
		return ErrOperatorTransactionRequired
	}
	if input.PaymentTime == nil || input.PaymentTime.IsZero() {
		return ErrPaymentTimeRequired
	}
	return nil
}

// confirmOffline 线下路径：请求直接为 SUCCEEDED，网关登记成功后才标记费用，失败整体回滚
func (s *PaymentRequestService) confirmOffline(ctx context.Context, selection paymentSelection, input OfflinePaymentInput) (*PaymentRequestResult, error) {
	if len(selection.charges) == 0 {
		return nil, ErrNoUnpaidCharges
	}
	now := s.now()
	succeeded := true
	req := &models.PaymentRequest{
		ID:              uuid.NewString(),
		Mode:            constants.PaymentRequestModeOffline,
		CustomerID:      selection.customerID,
		DeliveryOrderID: selection.deliveryOrderID,
		PaymentMethodID: strings.TrimSpace(input.PaymentMethodID),
		IsSuccess:       &succeeded,
		FinalizedAt:     &now,
	}
	log := paymentLogger("payment_request_id", req.ID, "customer_id", selection.customerID, "mode", req.Mode)
	chargeIDs := chargeIDsOf(selection.charges)
	discountIDs := discountIDsOf(selection.discounts)
	operatorTxnID := strings.TrimSpace(input.OperatorTransactionID)

	var breakdown billing.Breakdown
	var result gateway.Result
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		locked, err := s.reserveCharges(tx, chargeIDs, req.ID, now)
		if err != nil {
			return err
		}
		breakdown, err = billing.TransactionBreakdownOf(models.ChargeLines(locked), models.DiscountLines(selection.discounts), selection.expectedTotal)
		if err != nil {
			return err
		}
		req.TransactionAmount = models.NewMoneyFromDecimal(breakdown.TransactionAmount)
		req.TransactionFee = models.NewMoneyFromDecimal(breakdown.TransactionFee)
		req.TotalAmount = models.NewMoneyFromDecimal(breakdown.TotalAmount)
		requestRepo := s.requestRepo.WithTx(tx)
		if err := requestRepo.Create(req, chargeIDs, discountIDs); err != nil {
			return err
		}

		// 网关调用期间持有费用行锁，持锁时长受 payment_gateway.timeout_seconds 限制
		result = s.gateway.ConfirmPayment(ctx, gateway.ConfirmPaymentInput{
			PaymentRequestID:      req.ID,
			Breakdown:             breakdown,
			PaymentMethodID:       req.PaymentMethodID,
			OperatorTransactionID: operatorTxnID,
			PaymentTime:           *input.PaymentTime,
			Description:           strings.TrimSpace(input.Description),
		})
		if !result.Success {
			return errOfflineGatewayRejected
		}

		settled, err := s.chargeRepo.WithTx(tx).MarkPaidForRequest(chargeIDs, req.ID)
		if err != nil {
			return err
		}
		if settled != int64(len(chargeIDs)) {
			return ErrReservationLost
		}
		if err := s.discountRepo.WithTx(tx).MarkApplied(discountIDs); err != nil {
			return err
		}
		records := make([]models.PaymentRecord, 0, len(chargeIDs))
		for _, id := range chargeIDs {
			records = append(records, models.PaymentRecord{
				PaymentRequestID:      req.ID,
				ChargeID:              id,
				OperatorTransactionID: operatorTxnID,
				PaymentTime:           *input.PaymentTime,
				IsSuccess:             true,
				Description:           strings.TrimSpace(input.Description),
			})
		}
		return requestRepo.CreateRecords(records)
	})
	if errors.Is(err, errOfflineGatewayRejected) {
		metrics.RecordPaymentRequest(req.Mode, "gateway_failed")
		log.Warnw("payment_gateway_confirm_failed", "status_code", result.StatusCode)
		// 事务已回滚，请求不存在，不返回请求 ID
		return &PaymentRequestResult{Breakdown: breakdown, Gateway: result}, nil
	}
	if err != nil {
		if errors.Is(err, ErrChargesReserved) {
			metrics.RecordReservationConflict()
		}
		log.Warnw("payment_offline_confirm_failed", "error", err)
		return nil, err
	}
	metrics.RecordPaymentRequest(req.Mode, "accepted")
	log.Infow("payment_offline_confirmed", "charges", len(chargeIDs), "operator_transaction_id", operatorTxnID)
	return &PaymentRequestResult{PaymentRequestID: req.ID, Breakdown: breakdown, Gateway: result}, nil
}

// GetPaymentStatus 由关联费用的当前状态推导，不读取请求自身的终态
func (s *PaymentRequestService) GetPaymentStatus(requestID string) (billing.PaymentStatus, error) {
	req, err := s.requestRepo.GetByID(requestID)
	if err != nil {
		return "", err
	}
	if req == nil {
		return "", ErrPaymentRequestNotFound
	}
	charges, err := s.chargeRepo.GetByIDs(req.ChargeIDs())
	if err != nil {
		return "", err
	}
	return billing.PaymentStatusOf(models.ChargeLines(charges)), nil
}

// GetPaymentRequest 读取支付请求详情
func (s *PaymentRequestService) GetPaymentRequest(requestID string) (*models.PaymentRequest, error) {
	req, err := s.requestRepo.GetByID(requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrPaymentRequestNotFound
	}
	return req, nil
}

// ListPaymentRequests 分页查询支付请求
func (s *PaymentRequestService) ListPaymentRequests(filter repository.PaymentRequestListFilter) ([]models.PaymentRequest, int64, error) {
	return s.requestRepo.List(filter)
}

// ExpirePaymentRequest 将仍待定的请求置为失败并释放占用
func (s *PaymentRequestService) ExpirePaymentRequest(ctx context.Context, requestID string) (bool, error) {
	var won bool
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		won, err = s.requestRepo.WithTx(tx).Finalize(requestID, false, "EXPIRED", "payment request expired before callback", s.now())
		if err != nil || !won {
			return err
		}
		_, err = s.chargeRepo.WithTx(tx).ReleaseByRequest(requestID)
		return err
	})
	if err != nil {
		return false, err
	}
	if won {
		metrics.RecordExpiredRequest()
		paymentLogger("payment_request_id", requestID).Infow("payment_request_expired")
	}
	return won, nil
}

// ExpireStalePaymentRequests 扫描并过期超时的待定请求
func (s *PaymentRequestService) ExpireStalePaymentRequests(ctx context.Context, limit int) (int, error) {
	before := s.now().Add(-s.cfg.OrphanExpiry())
	stale, err := s.requestRepo.ListStalePending(before, limit)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, req := range stale {
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}
		won, err := s.ExpirePaymentRequest(ctx, req.ID)
		if err != nil {
			paymentLogger("payment_request_id", req.ID).Warnw("payment_request_expire_failed", "error", err)
			continue
		}
		if won {
			expired++
		}
	}
	return expired, nil
}

func (s *PaymentRequestService) acquireLock(ctx context.Context, key string) (*cache.Lock, error) {
	lock, err := cache.AcquireLock(ctx, key, s.cfg.PaymentLockTTL())
	if errors.Is(err, cache.ErrLockHeld) {
		return nil, ErrPaymentInProgress
	}
	if err != nil {
		// Redis 不可用时退化为仅依赖数据库占用
		paymentLogger("lock_key", key).Warnw("payment_lock_unavailable", "error", err)
		return nil, nil
	}
	return lock, nil
}

func releaseLock(ctx context.Context, lock *cache.Lock) {
	if lock == nil {
		return
	}
	if err := lock.Release(ctx); err != nil {
		logger.Warnw("payment_lock_release_failed", "error", err)
	}
}
