package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/parcel-billing/internal/config"
)

func TestDisabledClientIsNoop(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("client should be disabled")
	}
	if err := client.EnqueueDeliveryOrderPaid(DeliveryOrderPaidPayload{DeliveryOrderID: 1}); err != nil {
		t.Fatalf("disabled enqueue should be noop, got %v", err)
	}
	if err := client.EnqueuePaymentRequestExpire(PaymentRequestExpirePayload{PaymentRequestID: "x"}, time.Minute); err != nil {
		t.Fatalf("disabled enqueue should be noop, got %v", err)
	}
	var nilClient *Client
	if nilClient.Enabled() {
		t.Fatalf("nil client should be disabled")
	}
}

func TestNewDeliveryOrderPaidTask(t *testing.T) {
	task, err := NewDeliveryOrderPaidTask(DeliveryOrderPaidPayload{DeliveryOrderID: 42, PaymentRequestID: "req-1"})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if task.Type() != TaskDeliveryOrderPaid {
		t.Fatalf("task type want %s got %s", TaskDeliveryOrderPaid, task.Type())
	}
	var payload DeliveryOrderPaidPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("decode payload failed: %v", err)
	}
	if payload.DeliveryOrderID != 42 || payload.PaymentRequestID != "req-1" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(nil)
	if opt.Addr != "127.0.0.1:6379" {
		t.Fatalf("redis addr want 127.0.0.1:6379 got %s", opt.Addr)
	}
	if cfg.Concurrency != 10 || cfg.Queues[CriticalQueue] != 2 {
		t.Fatalf("unexpected server config: %+v", cfg)
	}
}
