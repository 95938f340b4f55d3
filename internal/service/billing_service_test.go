package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/parcel-billing/internal/billing"
	"github.com/parcel-billing/internal/config"
	"github.com/parcel-billing/internal/constants"
	"github.com/parcel-billing/internal/models"
	"github.com/parcel-billing/internal/payment/gateway"
	"github.com/parcel-billing/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fakeGateway struct {
	requestCalls  []gateway.RequestPaymentInput
	confirmCalls  []gateway.ConfirmPaymentInput
	requestResult gateway.Result
	confirmResult gateway.Result
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		requestResult: gateway.Result{Success: true, StatusCode: 200, Body: map[string]interface{}{"status": "ACCEPTED"}},
		confirmResult: gateway.Result{Success: true, StatusCode: 200, Body: map[string]interface{}{"status": "RECORDED"}},
	}
}

func (g *fakeGateway) RequestPayment(ctx context.Context, input gateway.RequestPaymentInput) gateway.Result {
	g.requestCalls = append(g.requestCalls, input)
	return g.requestResult
}

func (g *fakeGateway) ConfirmPayment(ctx context.Context, input gateway.ConfirmPaymentInput) gateway.Result {
	g.confirmCalls = append(g.confirmCalls, input)
	return g.confirmResult
}

func (g *fakeGateway) CallbackURL(paymentRequestID string) string {
	return fmt.Sprintf(constants.PaymentCallbackPathFormat, "https://billing.test", paymentRequestID)
}

type countingCompleter struct {
	orders []uint
}

func (c *countingCompleter) Trigger(ctx context.Context, orderID uint, paymentRequestID string) {
	c.orders = append(c.orders, orderID)
}

type billingFixture struct {
	db        *gorm.DB
	gateway   *fakeGateway
	completer *countingCompleter
	payments  *PaymentRequestService
	ledger    *LedgerService
	pricing   *PricingService
	invoices  *InvoiceService
	customers *CustomerBillingService
	now       time.Time
}

func testBillingConfig() config.BillingConfig {
	return config.BillingConfig{
		PackagePrices: map[string]string{
			"small":  "1000",
			"medium": "1500",
			"large":  "2500",
		},
		ReservationTTLMinutes: 15,
		OrphanExpiryMinutes:   15,
		PaymentLockSeconds:    30,
	}
}

func setupBillingServiceTest(t *testing.T) *billingFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:billing_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Customer{},
		&models.Branch{},
		&models.DeliveryOrder{},
		&models.Package{},
		&models.Charge{},
		&models.Discount{},
		&models.PaymentRequest{},
		&models.PaymentRequestCharge{},
		&models.PaymentRequestDiscount{},
		&models.PaymentRecord{},
		&models.DeliveryInvoice{},
		&models.DeliveryInvoiceCharge{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cfg := testBillingConfig()
	orderRepo := repository.NewDeliveryOrderRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	chargeRepo := repository.NewChargeRepository(db)
	discountRepo := repository.NewDiscountRepository(db)
	requestRepo := repository.NewPaymentRequestRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)

	fx := &billingFixture{
		db:        db,
		gateway:   newFakeGateway(),
		completer: &countingCompleter{},
		now:       time.Now(),
	}
	fx.ledger = NewLedgerService(chargeRepo, discountRepo, orderRepo)
	fx.pricing = NewPricingService(cfg, orderRepo, customerRepo, fx.ledger)
	fx.payments = NewPaymentRequestService(PaymentRequestServiceOptions{
		Config:       cfg,
		OrderRepo:    orderRepo,
		CustomerRepo: customerRepo,
		ChargeRepo:   chargeRepo,
		DiscountRepo: discountRepo,
		RequestRepo:  requestRepo,
		Gateway:      fx.gateway,
		Completer:    fx.completer,
	})
	fx.payments.now = func() time.Time { return fx.now }
	fx.invoices = NewInvoiceService(invoiceRepo, orderRepo, customerRepo, chargeRepo)
	fx.invoices.now = func() time.Time { return fx.now }
	fx.customers = NewCustomerBillingService(customerRepo, orderRepo)
	fx.customers.now = func() time.Time { return fx.now }
	return fx
}

func (fx *billingFixture) createCustomer(t *testing.T) *models.Customer {
	t.Helper()
	customer := &models.Customer{
		Name:               "Acme Logistics",
		BillingInterval:    7,
		BillingGracePeriod: 3,
		WeightingFactor:    decimal.NewFromInt(1),
	}
	if err := fx.db.Create(customer).Error; err != nil {
		t.Fatalf("create customer failed: %v", err)
	}
	return customer
}

func (fx *billingFixture) createOrder(t *testing.T, customerID uint, status string, placedAt *time.Time, amounts ...string) (*models.DeliveryOrder, []models.Charge) {
	t.Helper()
	order := &models.DeliveryOrder{CustomerID: customerID, Status: status, PlacedAt: placedAt}
	if err := fx.db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	charges := make([]models.Charge, 0, len(amounts))
	for _, amount := range amounts {
		pkg := models.Package{DeliveryOrderID: order.ID, Size: billing.PackageSizeSmall}
		if err := fx.db.Create(&pkg).Error; err != nil {
			t.Fatalf("create package failed: %v", err)
		}
		charge := models.Charge{
			PackageID:         pkg.ID,
			DeliveryOrderID:   order.ID,
			Type:              billing.ChargeTypeDeliveryFee,
			Status:            billing.ChargeStatusUnpaid,
			TransactionAmount: models.NewMoneyFromDecimal(decimal.RequireFromString(amount)),
		}
		if err := fx.db.Create(&charge).Error; err != nil {
			t.Fatalf("create charge failed: %v", err)
		}
		charges = append(charges, charge)
	}
	return order, charges
}

func (fx *billingFixture) reloadCharge(t *testing.T, id uint) models.Charge {
	t.Helper()
	var charge models.Charge
	if err := fx.db.First(&charge, id).Error; err != nil {
		t.Fatalf("reload charge failed: %v", err)
	}
	return charge
}

func TestRequestOrderPaymentEndToEnd(t *testing.T) {
	fx := setupBillingServiceTest(t)
	customer := fx.createCustomer(t)
	order, charges := fx.createOrder(t, customer.ID, constants.OrderStatusRequest, nil, "975")

	result, err := fx.payments.RequestOrderPayment(context.Background(), OrderPaymentInput{
		DeliveryOrderID: order.ID,
		PaymentMethodID: "pm_card_1",
	})
	if err != nil {
		t.Fatalf("request payment failed: %v", err)
	}
	if len(fx.gateway.requestCalls) != 1 {
		t.Fatalf("gateway calls want 1 got %d", len(fx.gateway.requestCalls))
	}
	call := fx.gateway.requestCalls[0]
	if !call.Breakdown.TotalAmount.Equal(decimal.NewFromInt(1000)) ||
		!call.Breakdown.TransactionAmount.Equal(decimal.NewFromInt(975)) ||
		!call.Breakdown.TransactionFee.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("unexpected breakdown: %+v", call.Breakdown)
	}
	if call.PaymentRequestID != result.PaymentRequestID || call.PaymentMethodID != "pm_card_1" {
		t.Fatalf("unexpected gateway input: %+v", call)
	}
	if call.CallbackURL != "https://billing.test/api/v1/delivery-payment-requests/"+result.PaymentRequestID+"/callbacks" {
		t.Fatalf("unexpected callback url: %s", call.CallbackURL)
	}

	reserved := fx.reloadCharge(t, charges[0].ID)
	if reserved.ReservedByRequestID == nil || *reserved.ReservedByRequestID != result.PaymentRequestID {
		t.Fatalf("charge should be reserved by %s", result.PaymentRequestID)
	}

	callback := CallbackInput{
		PathRequestID:    result.PaymentRequestID,
		PaymentRequestID: result.PaymentRequestID,
		Status:           "SUCCESS",
	}
	first, err := fx.payments.ProcessCallback(context.Background(), callback)
	if err != nil {
		t.Fatalf("callback failed: %v", err)
	}
	if !first.Finalized || first.State != constants.PaymentRequestStateSucceeded {
		t.Fatalf("first callback want finalized SUCCEEDED got %+v", first)
	}
	replay, err := fx.payments.ProcessCallback(context.Background(), callback)
	if err != nil {
		t.Fatalf("replayed callback failed: %v", err)
	}
	if replay.Finalized {
		t.Fatalf("replayed callback should not finalize again")
	}

	if paid := fx.reloadCharge(t, charges[0].ID); paid.Status != billing.ChargeStatusPaid {
		t.Fatalf("charge status want PAID got %s", paid.Status)
	}
	if len(fx.completer.orders) != 1 || fx.completer.orders[0] != order.ID {
		t.Fatalf("completion want once for order %d got %v", order.ID, fx.completer.orders)
	}

	status, err := fx.payments.GetPaymentStatus(result.PaymentRequestID)
	if err != nil || status != billing.PaymentStatusPaid {
		t.Fatalf("payment status want PAID got %s (%v)", status, err)
	}
}

func TestRequestOrderPaymentGuards(t *testing.T) {
	fx := setupBillingServiceTest(t)
	customer := fx.createCustomer(t)
	order, charges := fx.createOrder(t, customer.ID, constants.OrderStatusRequest, nil, "100")

	if _, err := fx.payments.RequestOrderPayment(context.Background(), OrderPaymentInput{DeliveryOrderID: order.ID}); err != ErrPaymentMethodRequired {
		t.Fatalf("want ErrPaymentMethodRequired got %v", err)
	}
	if _, err := fx.payments.RequestOrderPayment(context.Background(), OrderPaymentInput{DeliveryOrderID: 9999, PaymentMethodID: "pm"}); err != ErrDeliveryOrderNotFound {
		t.Fatalf("want ErrDeliveryOrderNotFound got %v", err)
	}

	empty, _ := fx.createOrder(t, customer.ID, constants.OrderStatusRequest, nil)
	if _, err := fx.payments.RequestOrderPayment(context.Background(), OrderPaymentInput{DeliveryOrderID: empty.ID, PaymentMethodID: "pm"}); err != ErrNoUnpaidCharges {
		t.Fatalf("want ErrNoUnpaidCharges got %v", err)
	}

	if err := fx.db.Model(&models.Charge{}).Where("id = ?", charges[0].ID).Update("status", billing.ChargeStatusPaid).Error; err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	result, err := fx.payments.RequestOrderPayment(context.Background(), OrderPaymentInput{DeliveryOrderID: order.ID, PaymentMethodID: "pm"})
	if err != nil || !result.AlreadyPaid {
		t.Fatalf("want already paid result got %+v (%v)", result, err)
	}
	if len(fx.gateway.requestCalls) != 0 {
		t.Fatalf("gateway should not be called, got %d", len(fx.gateway.requestCalls))
	}
}

func TestRequestOrderPaymentReservationConflict(t *testing.T) {
	fx := setupBillingServiceTest(t)
	customer := fx.createCustomer(t)
	order, _ := fx.createOrder(t, customer.ID, constants.OrderStatusRequest, nil, "200")

	input := OrderPaymentInput{DeliveryOrderID: order.ID, PaymentMethodID: "pm"}
	first, err := fx.payments.RequestOrderPayment(context.Background(), input)
	if err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	if _, err := fx.payments.RequestOrderPayment(context.Background(), input); err != ErrChargesReserved {
		t.Fatalf("second request want ErrChargesReserved got %v", err)
	}

	// 失败回调释放占用后可以重新发起
	if _, err := fx.payments.ProcessCallback(context.Background(), CallbackInput{
		PathRequestID:    first.PaymentRequestID,
		PaymentRequestID: first.PaymentRequestID,
		Status:           "FAILURE",
		ErrorCode:        "CARD_DECLINED",
	}); err != nil {
		t.Fatalf("failure callback failed: %v", err)
	}
	if len(fx.completer.orders) != 0 {
		t.Fatalf("failure callback should not trigger completion")
	}
	if _, err := fx.payments.RequestOrderPayment(context.Background(), input); err != nil {
		t.Fatalf("request after release failed: %v", err)
	}

	var req models.PaymentRequest
	if err := fx.db.Where("id = ?", first.PaymentRequestID).First(&req).Error; err != nil {
		t.Fatalf("load request failed: %v", err)
	}
	if req.State() != constants.PaymentRequestStateFailed || req.CallbackErrorCode != "CARD_DECLINED" {
		t.Fatalf("unexpected failed request: state=%s code=%s", req.State(), req.CallbackErrorCode)
	}
}

func TestRequestPaymentGatewayFailureLeavesPending(t *testing.T) {
	fx := setupBillingServiceTest(t)
	fx.gateway.requestResult = gateway.Result{Success: false, StatusCode: 502, Body: map[string]interface{}{"error": "connection refused"}}
	customer := fx.createCustomer(t)
	order, charges := fx.createOrder(t, customer.ID, constants.OrderStatusRequest, nil, "300")

	result, err := fx.payments.RequestOrderPayment(context.Background(), OrderPaymentInput{DeliveryOrderID: order.ID, PaymentMethodID: "pm"})
	if err != nil {
		t.Fatalf("gateway failure should not be an error: %v", err)
	}
	if result.Gateway.Success || result.Gateway.StatusCode != 502 {
		t.Fatalf("want failed gateway result got %+v", result.Gateway)
	}
	var req models.PaymentRequest
	if err := fx.db.Where("id = ?", result.PaymentRequestID).First(&req).Error; err != nil {
		t.Fatalf("load request failed: %v", err)
	}
	if req.State() != constants.PaymentRequestStatePending {
		t.Fatalf("request state want PENDING got %s", req.State())
	}

	fx.now = fx.now.Add(time.Hour)
	expired, err := fx.payments.ExpireStalePaymentRequests(context.Background(), 10)
	if err != nil || expired != 1 {
		t.Fatalf("expire stale want 1 got %d (%v)", expired, err)
	}
	charge := fx.reloadCharge(t, charges[0].ID)
	if charge.ReservedByRequestID != nil || charge.Status != billing.ChargeStatusUnpaid {
		t.Fatalf("expired request should release charge, got %+v", charge)
	}
	again, err := fx.payments.ExpirePaymentRequest(context.Background(), result.PaymentRequestID)
	if err != nil || again {
		t.Fatalf("second expiry want no-op got %v (%v)", again, err)
	}
}

func TestProcessCallbackValidation(t *testing.T) {
	fx := setupBillingServiceTest(t)
	cases := []struct {
		name  string
		input CallbackInput
		want  error
	}{
		{name: "status required", input: CallbackInput{PathRequestID: "a", PaymentRequestID: "a"}, want: ErrCallbackStatusRequired},
		{name: "id mismatch", input: CallbackInput{PathRequestID: "a", PaymentRequestID: "b", Status: "SUCCESS"}, want: ErrCallbackRequestMismatch},
		{name: "unknown request", input: CallbackInput{PathRequestID: "a", PaymentRequestID: "a", Status: "SUCCESS"}, want: ErrPaymentRequestNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := fx.payments.ProcessCallback(context.Background(), tc.input); err != tc.want {
				t.Fatalf("want %v got %v", tc.want, err)
			}
		})
	}

	_, err := fx.payments.ProcessCallback(context.Background(), CallbackInput{PathRequestID: "a", PaymentRequestID: "a", Status: "PENDING"})
	if _, ok := err.(*billing.ParseError); !ok {
		t.Fatalf("want ParseError got %v", err)
	}
}

func TestRequestCustomerPayment(t *testing.T) {
	fx := setupBillingServiceTest(t)
	customer := fx.createCustomer(t)
	placed := fx.now.Add(-48 * time.Hour)
	_, first := fx.createOrder(t, customer.ID, constants.OrderStatusComplete, &placed, "500")
	_, second := fx.createOrder(t, customer.ID, constants.OrderStatusComplete, &placed, "475")
	endAt := fx.now

	input := CustomerPaymentInput{
		CustomerID:      customer.ID,
		PaymentMethodID: "pm",
		EndAt:           &endAt,
		TotalAmount:     decimal.NewNullDecimal(decimal.RequireFromString("999.99")),
	}
	if _, err := fx.payments.RequestCustomerPayment(context.Background(), input); err != ErrTotalAmountIncorrect {
		t.Fatalf("want ErrTotalAmountIncorrect got %v", err)
	}
	if len(fx.gateway.requestCalls) != 0 {
		t.Fatalf("gateway should not be called on mismatch")
	}
	if fx.reloadCharge(t, first[0].ID).ReservedByRequestID != nil {
		t.Fatalf("mismatch should roll back reservation")
	}

	input.TotalAmount = decimal.NewNullDecimal(decimal.NewFromInt(1000))
	result, err := fx.payments.RequestCustomerPayment(context.Background(), input)
	if err != nil {
		t.Fatalf("customer payment failed: %v", err)
	}
	if !result.Breakdown.TotalAmount.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("total want 1000 got %s", result.Breakdown.TotalAmount)
	}
	req, err := fx.payments.GetPaymentRequest(result.PaymentRequestID)
	if err != nil {
		t.Fatalf("load request failed: %v", err)
	}
	ids := req.ChargeIDs()
	if len(ids) != 2 || ids[0] != first[0].ID || ids[1] != second[0].ID {
		t.Fatalf("request charges want [%d %d] got %v", first[0].ID, second[0].ID, ids)
	}

	input.EndAt = nil
	if _, err := fx.payments.RequestCustomerPayment(context.Background(), input); err != ErrEndAtRequired {
		t.Fatalf("want ErrEndAtRequired got %v", err)
	}
}

func TestConfirmOrderPaymentOffline(t *testing.T) {
	fx := setupBillingServiceTest(t)
	customer := fx.createCustomer(t)
	order, charges := fx.createOrder(t, customer.ID, constants.OrderStatusPlaced, &fx.now, "975")
	paidAt := fx.now.Add(-time.Hour)
	input := OfflinePaymentInput{
		PaymentMethodID:       "cash",
		OperatorTransactionID: "op-1",
		TotalAmount:           decimal.NewNullDecimal(decimal.NewFromInt(1000)),
		PaymentTime:           &paidAt,
		Description:           "cash at depot",
	}

	fx.gateway.confirmResult = gateway.Result{Success: false, StatusCode: 400, Body: map[string]interface{}{"error": "rejected"}}
	result, err := fx.payments.ConfirmOrderPayment(context.Background(), order.ID, input)
	if err != nil {
		t.Fatalf("gateway rejection should not be an error: %v", err)
	}
	if result.Gateway.Success {
		t.Fatalf("want failed gateway result")
	}
	charge := fx.reloadCharge(t, charges[0].ID)
	if charge.Status != billing.ChargeStatusUnpaid || charge.ReservedByRequestID != nil {
		t.Fatalf("rejected confirmation must leave charge untouched, got %+v", charge)
	}
	var count int64
	fx.db.Model(&models.PaymentRequest{}).Count(&count)
	if count != 0 {
		t.Fatalf("rejected confirmation must not persist a request, got %d", count)
	}

	fx.gateway.confirmResult = gateway.Result{Success: true, StatusCode: 200, Body: map[string]interface{}{}}
	result, err = fx.payments.ConfirmOrderPayment(context.Background(), order.ID, input)
	if err != nil || !result.Gateway.Success {
		t.Fatalf("confirmation failed: %+v (%v)", result, err)
	}
	if paid := fx.reloadCharge(t, charges[0].ID); paid.Status != billing.ChargeStatusPaid {
		t.Fatalf("charge want PAID got %s", paid.Status)
	}
	var records []models.PaymentRecord
	if err := fx.db.Where("payment_request_id = ?", result.PaymentRequestID).Find(&records).Error; err != nil {
		t.Fatalf("load records failed: %v", err)
	}
	if len(records) != 1 || records[0].OperatorTransactionID != "op-1" {
		t.Fatalf("unexpected payment records: %+v", records)
	}
	req, err := fx.payments.GetPaymentRequest(result.PaymentRequestID)
	if err != nil || req.State() != constants.PaymentRequestStateSucceeded || req.Mode != constants.PaymentRequestModeOffline {
		t.Fatalf("unexpected offline request: %+v (%v)", req, err)
	}
	if len(fx.completer.orders) != 0 {
		t.Fatalf("offline confirmation should not trigger completion")
	}
}

func TestConfirmOrderPaymentValidation(t *testing.T) {
	fx := setupBillingServiceTest(t)
	customer := fx.createCustomer(t)
	order, _ := fx.createOrder(t, customer.ID, constants.OrderStatusRequest, nil, "975")
	paidAt := fx.now

	valid := OfflinePaymentInput{
		PaymentMethodID:       "cash",
		OperatorTransactionID: "op-1",
		TotalAmount:           decimal.NewNullDecimal(decimal.NewFromInt(1000)),
		PaymentTime:           &paidAt,
	}
	noTotal := valid
	noTotal.TotalAmount = decimal.NullDecimal{}
	noOperator := valid
	noOperator.OperatorTransactionID = " "
	noTime := valid
	noTime.PaymentTime = nil

	cases := []struct {
		name  string
		input OfflinePaymentInput
		want  error
	}{
		{name: "total", input: noTotal, want: ErrTotalAmountRequired},
		{name: "operator", input: noOperator, want: ErrOperatorTransactionRequired},
		{name: "time", input: noTime, want: ErrPaymentTimeRequired},
		{name: "status", input: valid, want: ErrOrderStatusInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := fx.payments.ConfirmOrderPayment(context.Background(), order.ID, tc.input); err != tc.want {
				t.Fatalf("want %v got %v", tc.want, err)
			}
		})
	}
}

func TestEvaluateBillingStatus(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	customer := &models.Customer{BillingInterval: 7, BillingGracePeriod: 3}

	tenDaysAgo := now.AddDate(0, 0, -10)
	status := evaluateBillingStatus(customer, &tenDaysAgo, now)
	if !status.IsBillDue || status.GracePeriod != 0 {
		t.Fatalf("10 days ago want due with 0 grace got %+v", status)
	}

	fiveDaysAgo := now.AddDate(0, 0, -5)
	status = evaluateBillingStatus(customer, &fiveDaysAgo, now)
	if status.IsBillDue {
		t.Fatalf("5 days ago should not be due")
	}
	if status.GracePeriod != 5 {
		t.Fatalf("grace period want 5 got %d", status.GracePeriod)
	}

	if status := evaluateBillingStatus(customer, nil, now); status.IsBillDue || status.GracePeriod != 0 {
		t.Fatalf("no unpaid orders want not due got %+v", status)
	}
}

func TestGetBillingStatusAndSpending(t *testing.T) {
	fx := setupBillingServiceTest(t)
	customer := fx.createCustomer(t)
	placed := fx.now.AddDate(0, 0, -10)
	fx.createOrder(t, customer.ID, constants.OrderStatusComplete, &placed, "500", "475")

	status, err := fx.customers.GetBillingStatus(customer.ID)
	if err != nil {
		t.Fatalf("billing status failed: %v", err)
	}
	if !status.IsBillDue || status.GracePeriod != 0 {
		t.Fatalf("want due with 0 grace got %+v", status)
	}

	spending, err := fx.customers.GetSpending(customer.ID, nil, nil)
	if err != nil {
		t.Fatalf("spending failed: %v", err)
	}
	if spending.TotalCount != 1 || !spending.TotalAmount.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("unexpected spending: %+v", spending)
	}

	if _, err := fx.customers.GetBillingStatus(9999); err != ErrCustomerNotFound {
		t.Fatalf("want ErrCustomerNotFound got %v", err)
	}
}

func TestInvoiceStatusIsLive(t *testing.T) {
	fx := setupBillingServiceTest(t)
	customer := fx.createCustomer(t)
	placed := fx.now.AddDate(0, 0, -2)
	_, charges := fx.createOrder(t, customer.ID, constants.OrderStatusComplete, &placed, "100", "200")
	startAt := fx.now.AddDate(0, 0, -3)
	endAt := fx.now

	invoice, err := fx.invoices.CreateInvoice(CreateInvoiceInput{CustomerID: customer.ID, StartAt: &startAt, EndAt: &endAt})
	if err != nil {
		t.Fatalf("create invoice failed: %v", err)
	}
	status, err := fx.invoices.GetInvoiceStatus(invoice.ID)
	if err != nil || status != billing.PaymentStatusUnpaid {
		t.Fatalf("status want UNPAID got %s (%v)", status, err)
	}

	chargeRepo := repository.NewChargeRepository(fx.db)
	if err := chargeRepo.MarkPaid([]uint{charges[0].ID}); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if status, _ := fx.invoices.GetInvoiceStatus(invoice.ID); status != billing.PaymentStatusPartial {
		t.Fatalf("status want PARTIAL got %s", status)
	}
	if err := chargeRepo.MarkPaid([]uint{charges[1].ID}); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if status, _ := fx.invoices.GetInvoiceStatus(invoice.ID); status != billing.PaymentStatusPaid {
		t.Fatalf("status want PAID got %s", status)
	}

	if _, err := fx.invoices.CreateInvoice(CreateInvoiceInput{CustomerID: customer.ID, StartAt: &startAt, EndAt: &endAt}); err != ErrNoUnpaidCharges {
		t.Fatalf("want ErrNoUnpaidCharges got %v", err)
	}
	if _, err := fx.invoices.GetInvoiceStatus("missing"); err != ErrInvoiceNotFound {
		t.Fatalf("want ErrInvoiceNotFound got %v", err)
	}
}

func TestRunScheduledInvoicing(t *testing.T) {
	fx := setupBillingServiceTest(t)
	customer := fx.createCustomer(t)
	postpaidUntil := fx.now.AddDate(0, 1, 0)
	if err := fx.db.Model(customer).Update("postpaid_expiry", postpaidUntil).Error; err != nil {
		t.Fatalf("update customer failed: %v", err)
	}
	placed := fx.now.AddDate(0, 0, -8)
	fx.createOrder(t, customer.ID, constants.OrderStatusComplete, &placed, "100")

	created, err := fx.invoices.RunScheduledInvoicing(context.Background())
	if err != nil || created != 1 {
		t.Fatalf("first run want 1 got %d (%v)", created, err)
	}
	created, err = fx.invoices.RunScheduledInvoicing(context.Background())
	if err != nil || created != 0 {
		t.Fatalf("second run within interval want 0 got %d (%v)", created, err)
	}
}

func TestLedgerDeliveryFeeUpsert(t *testing.T) {
	fx := setupBillingServiceTest(t)
	customer := fx.createCustomer(t)
	order := &models.DeliveryOrder{CustomerID: customer.ID, Status: constants.OrderStatusRequest}
	if err := fx.db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	pkg := &models.Package{DeliveryOrderID: order.ID, Size: billing.PackageSizeMedium}
	if err := fx.db.Create(pkg).Error; err != nil {
		t.Fatalf("create package failed: %v", err)
	}

	first, err := fx.ledger.UpsertDeliveryFee(fx.db, pkg, decimal.NewFromInt(1500), nil, decimal.NewFromInt(1))
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	custom := decimal.NewFromInt(900)
	second, err := fx.ledger.UpsertDeliveryFee(fx.db, pkg, decimal.NewFromInt(1500), &custom, decimal.RequireFromString("1.2"))
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("upsert should update charge %d, got %d", first.ID, second.ID)
	}
	var count int64
	fx.db.Model(&models.Charge{}).Where("package_id = ?", pkg.ID).Count(&count)
	if count != 1 {
		t.Fatalf("charges want 1 got %d", count)
	}
	stored := fx.reloadCharge(t, first.ID)
	if !stored.TransactionAmount.Equal(custom) {
		t.Fatalf("transaction amount want 900 got %s", stored.TransactionAmount.String())
	}
	if stored.ActualTransactionAmount == nil || !stored.ActualTransactionAmount.Equal(decimal.NewFromInt(1800)) {
		t.Fatalf("actual amount want 1800 got %v", stored.ActualTransactionAmount)
	}
}

func TestLedgerAddCharge(t *testing.T) {
	fx := setupBillingServiceTest(t)
	customer := fx.createCustomer(t)
	_, charges := fx.createOrder(t, customer.ID, constants.OrderStatusRequest, nil, "100")
	packageID := charges[0].PackageID
	amount := decimal.NewNullDecimal(decimal.NewFromInt(1000))

	if _, err := fx.ledger.AddCharge(packageID, "DELIVERY_FEE", amount, "manual"); err != ErrChargeTypeNotAllowed {
		t.Fatalf("want ErrChargeTypeNotAllowed got %v", err)
	}
	if _, err := fx.ledger.AddCharge(packageID, "", amount, ""); err != ErrChargeTypeRequired {
		t.Fatalf("want ErrChargeTypeRequired got %v", err)
	}
	if _, err := fx.ledger.AddCharge(packageID, "PICK_UP_DELAY", decimal.NewNullDecimal(decimal.Zero), ""); err != ErrChargeAmountRequired {
		t.Fatalf("want ErrChargeAmountRequired got %v", err)
	}
	if _, err := fx.ledger.AddCharge(9999, "PICK_UP_DELAY", amount, ""); err != ErrPackageNotFound {
		t.Fatalf("want ErrPackageNotFound got %v", err)
	}

	charge, err := fx.ledger.AddCharge(packageID, "PICK_UP_DELAY", amount, "waited 30 minutes")
	if err != nil {
		t.Fatalf("add charge failed: %v", err)
	}
	if !charge.TransactionAmount.Equal(decimal.NewFromInt(975)) {
		t.Fatalf("stored amount want 975 got %s", charge.TransactionAmount.String())
	}
	if charge.Status != billing.ChargeStatusUnpaid {
		t.Fatalf("new charge want UNPAID got %s", charge.Status)
	}
}

func TestPricingCreateDeliveryFees(t *testing.T) {
	fx := setupBillingServiceTest(t)
	customer := fx.createCustomer(t)
	order := &models.DeliveryOrder{CustomerID: customer.ID, Status: constants.OrderStatusRequest}
	if err := fx.db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	for _, size := range []billing.PackageSize{billing.PackageSizeSmall, billing.PackageSizeLarge} {
		if err := fx.db.Create(&models.Package{DeliveryOrderID: order.ID, Size: size}).Error; err != nil {
			t.Fatalf("create package failed: %v", err)
		}
	}

	quote, err := fx.pricing.CreateDeliveryFees(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("price order failed: %v", err)
	}
	// 3500 的手续费 89.75 展示时进位为 90
	if !quote.TransactionAmount.Equal(decimal.NewFromInt(3500)) || !quote.TransactionFee.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("unexpected quote: %+v", quote)
	}
	if !quote.IsPrepaid {
		t.Fatalf("customer without postpaid should be prepaid")
	}

	if _, err := fx.pricing.CreateDeliveryFees(context.Background(), order.ID); err != nil {
		t.Fatalf("re-pricing failed: %v", err)
	}
	var count int64
	fx.db.Model(&models.Charge{}).Where("delivery_order_id = ?", order.ID).Count(&count)
	if count != 2 {
		t.Fatalf("re-pricing should not duplicate charges, got %d", count)
	}

	if _, err := fx.pricing.Quote([]string{"HUGE"}); err == nil {
		t.Fatalf("unknown size should fail")
	}
}

func TestReservationHeldWhileRequestPendingPastTTL(t *testing.T) {
	fx := setupBillingServiceTest(t)
	customer := fx.createCustomer(t)
	order, charges := fx.createOrder(t, customer.ID, constants.OrderStatusRequest, nil, "975")
	input := OrderPaymentInput{DeliveryOrderID: order.ID, PaymentMethodID: "pm_card_1"}

	first, err := fx.payments.RequestOrderPayment(context.Background(), input)
	if err != nil {
		t.Fatalf("first request failed: %v", err)
	}

	// 占用时间已过，但请求仍待定
	fx.now = fx.now.Add(15*time.Minute + time.Second)
	if _, err := fx.payments.RequestOrderPayment(context.Background(), input); !errors.Is(err, ErrChargesReserved) {
		t.Fatalf("second request want ErrChargesReserved got %v", err)
	}
	if len(fx.gateway.requestCalls) != 1 {
		t.Fatalf("gateway calls want 1 got %d", len(fx.gateway.requestCalls))
	}

	callback := CallbackInput{PathRequestID: first.PaymentRequestID, PaymentRequestID: first.PaymentRequestID, Status: "SUCCESS"}
	for i := 0; i < 2; i++ {
		if _, err := fx.payments.ProcessCallback(context.Background(), callback); err != nil {
			t.Fatalf("callback %d failed: %v", i, err)
		}
	}
	if len(fx.completer.orders) != 1 {
		t.Fatalf("completion want 1 got %d", len(fx.completer.orders))
	}
	if paid := fx.reloadCharge(t, charges[0].ID); paid.Status != billing.ChargeStatusPaid {
		t.Fatalf("charge want PAID got %s", paid.Status)
	}
	var count int64
	fx.db.Model(&models.PaymentRequest{}).Count(&count)
	if count != 1 {
		t.Fatalf("payment requests want 1 got %d", count)
	}
}

func TestProcessCallbackRefusesLostReservation(t *testing.T) {
	fx := setupBillingServiceTest(t)
	customer := fx.createCustomer(t)
	order, charges := fx.createOrder(t, customer.ID, constants.OrderStatusRequest, nil, "500")

	result, err := fx.payments.RequestOrderPayment(context.Background(), OrderPaymentInput{DeliveryOrderID: order.ID, PaymentMethodID: "pm"})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if err := fx.db.Model(&models.Charge{}).Where("id = ?", charges[0].ID).
		Update("reserved_by_request_id", "another-request").Error; err != nil {
		t.Fatalf("reassign reservation failed: %v", err)
	}

	_, err = fx.payments.ProcessCallback(context.Background(), CallbackInput{
		PathRequestID:    result.PaymentRequestID,
		PaymentRequestID: result.PaymentRequestID,
		Status:           "SUCCESS",
	})
	if !errors.Is(err, ErrReservationLost) {
		t.Fatalf("want ErrReservationLost got %v", err)
	}
	if charge := fx.reloadCharge(t, charges[0].ID); charge.Status != billing.ChargeStatusUnpaid {
		t.Fatalf("charge want UNPAID got %s", charge.Status)
	}
	req, err := fx.payments.GetPaymentRequest(result.PaymentRequestID)
	if err != nil || req.State() != constants.PaymentRequestStatePending {
		t.Fatalf("request should stay PENDING after rollback: %+v (%v)", req, err)
	}
	if len(fx.completer.orders) != 0 {
		t.Fatalf("completion should not run, got %d", len(fx.completer.orders))
	}
}

func TestConfirmOfflineRejectedOmitsRequestID(t *testing.T) {
	fx := setupBillingServiceTest(t)
	customer := fx.createCustomer(t)
	order, _ := fx.createOrder(t, customer.ID, constants.OrderStatusPlaced, &fx.now, "975")
	paidAt := fx.now
	fx.gateway.confirmResult = gateway.Result{Success: false, StatusCode: 422, Body: map[string]interface{}{"error": "unknown operator"}}

	result, err := fx.payments.ConfirmOrderPayment(context.Background(), order.ID, OfflinePaymentInput{
		PaymentMethodID:       "cash",
		OperatorTransactionID: "op-9",
		TotalAmount:           decimal.NewNullDecimal(decimal.NewFromInt(1000)),
		PaymentTime:           &paidAt,
	})
	if err != nil {
		t.Fatalf("gateway rejection should not be an error: %v", err)
	}
	if result.PaymentRequestID != "" {
		t.Fatalf("rolled back request id should be empty, got %s", result.PaymentRequestID)
	}
	if !result.Breakdown.TotalAmount.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("breakdown total want 1000 got %s", result.Breakdown.TotalAmount.String())
	}
}

func TestLedgerDeliveryFeeUpsertRefusesSettledCharge(t *testing.T) {
	fx := setupBillingServiceTest(t)
	customer := fx.createCustomer(t)
	order, charges := fx.createOrder(t, customer.ID, constants.OrderStatusRequest, nil, "975", "400")
	var pkgs []models.Package
	if err := fx.db.Where("delivery_order_id = ?", order.ID).Order("id asc").Find(&pkgs).Error; err != nil || len(pkgs) != 2 {
		t.Fatalf("load packages failed: %d (%v)", len(pkgs), err)
	}

	if err := fx.db.Model(&models.Charge{}).Where("id = ?", charges[0].ID).Update("status", billing.ChargeStatusPaid).Error; err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if _, err := fx.ledger.UpsertDeliveryFee(fx.db, &pkgs[0], decimal.NewFromInt(5000), nil, decimal.NewFromInt(1)); !errors.Is(err, ErrChargeAlreadySettled) {
		t.Fatalf("want ErrChargeAlreadySettled got %v", err)
	}
	if stored := fx.reloadCharge(t, charges[0].ID); !stored.TransactionAmount.Equal(decimal.NewFromInt(975)) {
		t.Fatalf("paid amount want 975 got %s", stored.TransactionAmount.String())
	}

	if err := fx.db.Model(&models.Charge{}).Where("id = ?", charges[1].ID).Update("reserved_by_request_id", "req-pending").Error; err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if _, err := fx.ledger.UpsertDeliveryFee(fx.db, &pkgs[1], decimal.NewFromInt(5000), nil, decimal.NewFromInt(1)); !errors.Is(err, ErrChargesReserved) {
		t.Fatalf("want ErrChargesReserved got %v", err)
	}
	if stored := fx.reloadCharge(t, charges[1].ID); !stored.TransactionAmount.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("reserved amount want 400 got %s", stored.TransactionAmount.String())
	}
}
