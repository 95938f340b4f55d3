package public

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/parcel-billing/internal/billing"
	"github.com/parcel-billing/internal/config"
	"github.com/parcel-billing/internal/constants"
	"github.com/parcel-billing/internal/http/response"
	"github.com/parcel-billing/internal/models"
	"github.com/parcel-billing/internal/payment/gateway"
	"github.com/parcel-billing/internal/provider"
	"github.com/parcel-billing/internal/repository"
	"github.com/parcel-billing/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type acceptingGateway struct{}

func (acceptingGateway) RequestPayment(ctx context.Context, input gateway.RequestPaymentInput) gateway.Result {
	return gateway.Result{Success: true, StatusCode: 200, Body: map[string]interface{}{"status": "ACCEPTED"}}
}

func (acceptingGateway) ConfirmPayment(ctx context.Context, input gateway.ConfirmPaymentInput) gateway.Result {
	return gateway.Result{Success: true, StatusCode: 200}
}

func (acceptingGateway) CallbackURL(paymentRequestID string) string {
	return fmt.Sprintf(constants.PaymentCallbackPathFormat, "https://billing.test", paymentRequestID)
}

type callbackEnvelope struct {
	StatusCode int                    `json:"status_code"`
	Msg        string                 `json:"msg"`
	Data       map[string]interface{} `json:"data"`
}

func setupPublicHandlerTest(t *testing.T) (*Handler, *gorm.DB, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:public_callback_handler_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	models.DB = db
	if err := models.AutoMigrate(); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	orderRepo := repository.NewDeliveryOrderRepository(db)
	payments := service.NewPaymentRequestService(service.PaymentRequestServiceOptions{
		Config:       config.BillingConfig{ReservationTTLMinutes: 15, OrphanExpiryMinutes: 15},
		OrderRepo:    orderRepo,
		CustomerRepo: repository.NewCustomerRepository(db),
		ChargeRepo:   repository.NewChargeRepository(db),
		DiscountRepo: repository.NewDiscountRepository(db),
		RequestRepo:  repository.NewPaymentRequestRepository(db),
		Gateway:      acceptingGateway{},
		Completer:    service.NewOrderCompletionService(orderRepo, nil),
	})
	h := New(&provider.Container{PaymentRequestService: payments})

	engine := gin.New()
	engine.POST("/delivery-payment-requests/:id/callbacks", h.PaymentCallback)
	engine.GET("/healthz", h.Healthz)
	return h, db, engine
}

func postCallback(t *testing.T, engine *gin.Engine, pathID string, body gin.H) callbackEnvelope {
	t.Helper()
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/delivery-payment-requests/"+pathID+"/callbacks", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	var resp callbackEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response failed: %v body=%s", err, w.Body.String())
	}
	return resp
}

func TestPaymentCallback(t *testing.T) {
	h, db, engine := setupPublicHandlerTest(t)

	customer := models.Customer{Name: "Acme", BillingInterval: 7, BillingGracePeriod: 3, WeightingFactor: decimal.NewFromInt(1)}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("create customer failed: %v", err)
	}
	order := models.DeliveryOrder{CustomerID: customer.ID, Status: constants.OrderStatusRequest}
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
		Status:            billing.ChargeStatusUnpaid,
		TransactionAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(975)),
	}
	if err := db.Create(&charge).Error; err != nil {
		t.Fatalf("create charge failed: %v", err)
	}
	result, err := h.PaymentRequestService.RequestOrderPayment(context.Background(), service.OrderPaymentInput{
		DeliveryOrderID: order.ID,
		PaymentMethodID: "pm_1",
	})
	if err != nil {
		t.Fatalf("request payment failed: %v", err)
	}
	requestID := result.PaymentRequestID

	resp := postCallback(t, engine, requestID, gin.H{"paymentRequestId": requestID})
	if resp.StatusCode != response.CodeBadRequest || resp.Msg != "Callback status is required" {
		t.Fatalf("missing status want 400 got %d %s", resp.StatusCode, resp.Msg)
	}
	resp = postCallback(t, engine, requestID, gin.H{"status": "DONE", "paymentRequestId": requestID})
	if resp.StatusCode != response.CodeBadRequest || resp.Msg != "Unsupported value" {
		t.Fatalf("unknown status want 400 got %d %s", resp.StatusCode, resp.Msg)
	}
	resp = postCallback(t, engine, requestID, gin.H{"status": "SUCCESS", "paymentRequestId": "other"})
	if resp.StatusCode != response.CodeBadRequest || resp.Msg != "Payment request id does not match" {
		t.Fatalf("mismatch want 400 got %d %s", resp.StatusCode, resp.Msg)
	}
	resp = postCallback(t, engine, "missing", gin.H{"status": "SUCCESS", "paymentRequestId": "missing"})
	if resp.StatusCode != response.CodeNotFound {
		t.Fatalf("unknown request want 404 got %d", resp.StatusCode)
	}

	for i := 0; i < 2; i++ {
		resp = postCallback(t, engine, requestID, gin.H{"status": "SUCCESS", "paymentRequestId": requestID})
		if resp.StatusCode != response.CodeOK || resp.Msg != "Callback processed successfully" {
			t.Fatalf("callback #%d want success got %d %s", i, resp.StatusCode, resp.Msg)
		}
		if resp.Data["state"] != constants.PaymentRequestStateSucceeded {
			t.Fatalf("callback #%d state want SUCCEEDED got %v", i, resp.Data["state"])
		}
	}

	var reloaded models.Charge
	if err := db.First(&reloaded, charge.ID).Error; err != nil {
		t.Fatalf("reload charge failed: %v", err)
	}
	if reloaded.Status != billing.ChargeStatusPaid {
		t.Fatalf("charge status want PAID got %s", reloaded.Status)
	}
	var placed models.DeliveryOrder
	if err := db.First(&placed, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if placed.Status != constants.OrderStatusPlaced {
		t.Fatalf("order status want PLACED got %s", placed.Status)
	}

	late := postCallback(t, engine, requestID, gin.H{"status": "FAILURE", "paymentRequestId": requestID, "errorCode": "LATE"})
	if late.StatusCode != response.CodeOK || late.Data["state"] != constants.PaymentRequestStateSucceeded {
		t.Fatalf("late failure want ignored success got %d %v", late.StatusCode, late.Data)
	}
}

func TestHealthz(t *testing.T) {
	_, _, engine := setupPublicHandlerTest(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	var resp callbackEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	if resp.StatusCode != response.CodeOK || resp.Data["database"] != "ok" || resp.Data["redis"] != "disabled" {
		t.Fatalf("healthz want ok got %d %v", resp.StatusCode, resp.Data)
	}
}
