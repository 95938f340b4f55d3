package worker

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/parcel-billing/internal/logger"
	"github.com/parcel-billing/internal/provider"
	"github.com/parcel-billing/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskDeliveryOrderPaid, c.handleDeliveryOrderPaid)
	mux.HandleFunc(queue.TaskPaymentRequestExpire, c.handlePaymentRequestExpire)
}

func (c *Consumer) handleDeliveryOrderPaid(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_delivery_order_paid_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.DeliveryOrderPaidPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_delivery_order_paid_unmarshal_failed", "error", err)
		return err
	}
	if payload.DeliveryOrderID == 0 {
		logger.Debugw("worker_delivery_order_paid_skip_invalid_payload", "payment_request_id", payload.PaymentRequestID)
		return nil
	}
	if c.OrderCompletionService == nil {
		logger.Warnw("worker_delivery_order_paid_skip_service_nil", "delivery_order_id", payload.DeliveryOrderID)
		return nil
	}
	changed, err := c.OrderCompletionService.Complete(payload.DeliveryOrderID)
	if err != nil {
		logger.Warnw("worker_delivery_order_paid_failed",
			"delivery_order_id", payload.DeliveryOrderID,
			"payment_request_id", payload.PaymentRequestID,
			"error", err,
		)
		return err
	}
	logger.Infow("worker_delivery_order_paid_done",
		"delivery_order_id", payload.DeliveryOrderID,
		"payment_request_id", payload.PaymentRequestID,
		"changed", changed,
	)
	return nil
}

func (c *Consumer) handlePaymentRequestExpire(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_payment_request_expire_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.PaymentRequestExpirePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_payment_request_expire_unmarshal_failed", "error", err)
		return err
	}
	requestID := strings.TrimSpace(payload.PaymentRequestID)
	if requestID == "" {
		logger.Debugw("worker_payment_request_expire_skip_invalid_payload")
		return nil
	}
	if c.PaymentRequestService == nil {
		logger.Warnw("worker_payment_request_expire_skip_service_nil", "payment_request_id", requestID)
		return nil
	}
	expired, err := c.PaymentRequestService.ExpirePaymentRequest(ctx, requestID)
	if err != nil {
		logger.Warnw("worker_payment_request_expire_failed", "payment_request_id", requestID, "error", err)
		return err
	}
	logger.Debugw("worker_payment_request_expire_done", "payment_request_id", requestID, "expired", expired)
	return nil
}
