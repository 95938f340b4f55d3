package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/parcel-billing/internal/billing"
	"github.com/parcel-billing/internal/constants"
	"github.com/parcel-billing/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupBillingRepositoryTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:billing_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
	return db
}

func seedOrderWithCharge(t *testing.T, db *gorm.DB, customerID uint, status string, placedAt time.Time, branchID *uint, amount string, chargeStatus billing.ChargeStatus) (models.DeliveryOrder, models.Charge) {
	t.Helper()
	order := models.DeliveryOrder{CustomerID: customerID, BranchID: branchID, Status: status, PlacedAt: &placedAt}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	pkg := models.Package{DeliveryOrderID: order.ID, Size: billing.PackageSizeSmall}
	if err := db.Create(&pkg).Error; err != nil {
		t.Fatalf("create package failed: %v", err)
	}
	charge := models.Charge{
		PackageID:         pkg.ID,
		DeliveryOrderID:   order.ID,
		Type:              billing.ChargeTypeDeliveryFee,
		Status:            chargeStatus,
		TransactionAmount: models.NewMoneyFromDecimal(decimal.RequireFromString(amount)),
	}
	if err := db.Create(&charge).Error; err != nil {
		t.Fatalf("create charge failed: %v", err)
	}
	return order, charge
}

func TestChargeRepositoryReserveConflict(t *testing.T) {
	db := setupBillingRepositoryTest(t)
	repo := NewChargeRepository(db)
	now := time.Now().UTC()
	_, charge := seedOrderWithCharge(t, db, 1, constants.OrderStatusComplete, now, nil, "100", billing.ChargeStatusUnpaid)
	if err := db.Create(&models.PaymentRequest{ID: "req-a", Mode: constants.PaymentRequestModeOnline, CustomerID: 1, PaymentMethodID: "pm_1"}).Error; err != nil {
		t.Fatalf("create request failed: %v", err)
	}

	claimed, err := repo.Reserve([]uint{charge.ID}, "req-a", now.Add(15*time.Minute))
	if err != nil || claimed != 1 {
		t.Fatalf("first reserve want 1 got %d (%v)", claimed, err)
	}
	claimed, err = repo.Reserve([]uint{charge.ID}, "req-b", now.Add(15*time.Minute))
	if err != nil || claimed != 0 {
		t.Fatalf("second reserve want 0 got %d (%v)", claimed, err)
	}

	// reserved_until 已过但 req-a 仍待定，占用依然有效
	if err := db.Model(&models.Charge{}).Where("id = ?", charge.ID).Update("reserved_until", now.Add(-time.Hour)).Error; err != nil {
		t.Fatalf("age reservation failed: %v", err)
	}
	claimed, err = repo.Reserve([]uint{charge.ID}, "req-b", now.Add(15*time.Minute))
	if err != nil || claimed != 0 {
		t.Fatalf("reserve over pending owner want 0 got %d (%v)", claimed, err)
	}

	// 占用者进入终态后残留的占用可被接管
	if err := db.Model(&models.PaymentRequest{}).Where("id = ?", "req-a").Update("is_success", false).Error; err != nil {
		t.Fatalf("finalize request failed: %v", err)
	}
	claimed, err = repo.Reserve([]uint{charge.ID}, "req-b", now.Add(15*time.Minute))
	if err != nil || claimed != 1 {
		t.Fatalf("reserve after owner finalized want 1 got %d (%v)", claimed, err)
	}

	released, err := repo.ReleaseByRequest("req-b")
	if err != nil || released != 1 {
		t.Fatalf("release want 1 got %d (%v)", released, err)
	}
	reloaded, err := repo.GetByID(charge.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload charge failed: %v", err)
	}
	if reloaded.ReservedByRequestID != nil {
		t.Fatalf("reservation should be cleared, got %v", *reloaded.ReservedByRequestID)
	}
}

func TestChargeRepositoryMarkPaidForRequest(t *testing.T) {
	db := setupBillingRepositoryTest(t)
	repo := NewChargeRepository(db)
	now := time.Now().UTC()
	_, charge := seedOrderWithCharge(t, db, 1, constants.OrderStatusComplete, now, nil, "100", billing.ChargeStatusUnpaid)

	if _, err := repo.Reserve([]uint{charge.ID}, "req-a", now.Add(time.Minute)); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	settled, err := repo.MarkPaidForRequest([]uint{charge.ID}, "req-b")
	if err != nil || settled != 0 {
		t.Fatalf("settle by non-owner want 0 got %d (%v)", settled, err)
	}
	settled, err = repo.MarkPaidForRequest([]uint{charge.ID}, "req-a")
	if err != nil || settled != 1 {
		t.Fatalf("settle by owner want 1 got %d (%v)", settled, err)
	}
	reloaded, _ := repo.GetByID(charge.ID)
	if reloaded.Status != billing.ChargeStatusPaid || reloaded.ReservedByRequestID != nil {
		t.Fatalf("unexpected charge state: %+v", reloaded)
	}
}

func TestChargeRepositoryMarkPaidClearsReservation(t *testing.T) {
	db := setupBillingRepositoryTest(t)
	repo := NewChargeRepository(db)
	now := time.Now().UTC()
	_, charge := seedOrderWithCharge(t, db, 1, constants.OrderStatusComplete, now, nil, "100", billing.ChargeStatusUnpaid)

	if _, err := repo.Reserve([]uint{charge.ID}, "req-a", now.Add(time.Minute)); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if err := repo.MarkPaid([]uint{charge.ID}); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	reloaded, _ := repo.GetByID(charge.ID)
	if reloaded.Status != billing.ChargeStatusPaid || reloaded.ReservedByRequestID != nil {
		t.Fatalf("unexpected charge state: %+v", reloaded)
	}
	locked, err := repo.LockUnpaid([]uint{charge.ID})
	if err != nil || len(locked) != 0 {
		t.Fatalf("paid charge should not be returned as unpaid, got %d (%v)", len(locked), err)
	}
}

func TestDeliveryOrderRepositoryListUnpaid(t *testing.T) {
	db := setupBillingRepositoryTest(t)
	repo := NewDeliveryOrderRepository(db)
	now := time.Now().UTC().Truncate(time.Second)
	branchID := uint(7)

	older, _ := seedOrderWithCharge(t, db, 1, constants.OrderStatusComplete, now.Add(-48*time.Hour), nil, "10", billing.ChargeStatusUnpaid)
	newer, _ := seedOrderWithCharge(t, db, 1, constants.OrderStatusComplete, now.Add(-24*time.Hour), &branchID, "20", billing.ChargeStatusUnpaid)
	seedOrderWithCharge(t, db, 1, constants.OrderStatusComplete, now.Add(-12*time.Hour), nil, "30", billing.ChargeStatusPaid)
	seedOrderWithCharge(t, db, 1, constants.OrderStatusPlaced, now.Add(-6*time.Hour), nil, "40", billing.ChargeStatusUnpaid)
	seedOrderWithCharge(t, db, 2, constants.OrderStatusComplete, now.Add(-6*time.Hour), nil, "50", billing.ChargeStatusUnpaid)

	orders, err := repo.ListUnpaid(UnpaidOrderFilter{CustomerID: 1})
	if err != nil {
		t.Fatalf("list unpaid failed: %v", err)
	}
	if len(orders) != 2 || orders[0].ID != newer.ID || orders[1].ID != older.ID {
		t.Fatalf("unexpected unpaid orders: %+v", orders)
	}
	if len(orders[0].Charges) != 1 {
		t.Fatalf("charges should be preloaded, got %d", len(orders[0].Charges))
	}

	endAt := now.Add(-36 * time.Hour)
	orders, err = repo.ListUnpaid(UnpaidOrderFilter{CustomerID: 1, EndAt: &endAt})
	if err != nil || len(orders) != 1 || orders[0].ID != older.ID {
		t.Fatalf("end filter want older order, got %+v (%v)", orders, err)
	}

	orders, err = repo.ListUnpaid(UnpaidOrderFilter{CustomerID: 1, BranchID: &branchID})
	if err != nil || len(orders) != 1 || orders[0].ID != newer.ID {
		t.Fatalf("branch filter want newer order, got %+v (%v)", orders, err)
	}

	earliest, err := repo.EarliestUnpaidPlacedAt(1)
	if err != nil || earliest == nil || !earliest.Equal(*older.PlacedAt) {
		t.Fatalf("earliest want %v got %v (%v)", older.PlacedAt, earliest, err)
	}
	none, err := repo.EarliestUnpaidPlacedAt(99)
	if err != nil || none != nil {
		t.Fatalf("unknown customer want nil got %v (%v)", none, err)
	}
}

func TestPaymentRequestRepositoryFinalizeOnce(t *testing.T) {
	db := setupBillingRepositoryTest(t)
	repo := NewPaymentRequestRepository(db)
	now := time.Now().UTC()
	_, charge := seedOrderWithCharge(t, db, 1, constants.OrderStatusComplete, now, nil, "975", billing.ChargeStatusUnpaid)

	req := &models.PaymentRequest{
		ID:              "0b9f1f2e-1111-4c4c-9a9a-000000000001",
		Mode:            constants.PaymentRequestModeOnline,
		CustomerID:      1,
		PaymentMethodID: "pm_1",
	}
	if err := repo.Create(req, []uint{charge.ID}, nil); err != nil {
		t.Fatalf("create request failed: %v", err)
	}

	won, err := repo.Finalize(req.ID, true, "", "", now)
	if err != nil || !won {
		t.Fatalf("first finalize want win got %v (%v)", won, err)
	}
	won, err = repo.Finalize(req.ID, false, "E1", "late failure", now)
	if err != nil || won {
		t.Fatalf("second finalize want no-op got %v (%v)", won, err)
	}

	loaded, err := repo.GetByID(req.ID)
	if err != nil || loaded == nil {
		t.Fatalf("get request failed: %v", err)
	}
	if loaded.State() != constants.PaymentRequestStateSucceeded {
		t.Fatalf("state want SUCCEEDED got %s", loaded.State())
	}
	if ids := loaded.ChargeIDs(); len(ids) != 1 || ids[0] != charge.ID {
		t.Fatalf("charge ids want [%d] got %v", charge.ID, ids)
	}
}

func TestInvoiceRepositoryCreateAndLatest(t *testing.T) {
	db := setupBillingRepositoryTest(t)
	repo := NewInvoiceRepository(db)
	now := time.Now().UTC()
	_, charge := seedOrderWithCharge(t, db, 3, constants.OrderStatusComplete, now, nil, "10", billing.ChargeStatusUnpaid)

	first := now.Add(-72 * time.Hour)
	second := now.Add(-24 * time.Hour)
	if err := repo.Create(&models.DeliveryInvoice{ID: "inv-1", CustomerID: 3, EndAt: &first}, []uint{charge.ID}); err != nil {
		t.Fatalf("create invoice failed: %v", err)
	}
	if err := repo.Create(&models.DeliveryInvoice{ID: "inv-2", CustomerID: 3, EndAt: &second}, []uint{charge.ID}); err != nil {
		t.Fatalf("create invoice failed: %v", err)
	}

	latest, err := repo.LatestByCustomer(3)
	if err != nil || latest == nil || latest.ID != "inv-2" {
		t.Fatalf("latest want inv-2 got %+v (%v)", latest, err)
	}
	loaded, err := repo.GetByID("inv-1")
	if err != nil || loaded == nil || len(loaded.Charges) != 1 {
		t.Fatalf("get invoice want 1 charge got %+v (%v)", loaded, err)
	}
	missing, err := repo.GetByID("nope")
	if err != nil || missing != nil {
		t.Fatalf("missing invoice want nil got %+v (%v)", missing, err)
	}
}
