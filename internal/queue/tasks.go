package queue

import (
	"encoding/json"

	"github.com/parcel-billing/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskDeliveryOrderPaid 订单付清后推进状态
	TaskDeliveryOrderPaid = constants.TaskDeliveryOrderPaid
	// TaskPaymentRequestExpire 待定支付请求过期
	TaskPaymentRequestExpire = constants.TaskPaymentRequestExpire
)

// DeliveryOrderPaidPayload 订单完成任务载荷
type DeliveryOrderPaidPayload struct {
	DeliveryOrderID  uint   `json:"delivery_order_id"`
	PaymentRequestID string `json:"payment_request_id"`
}

// PaymentRequestExpirePayload 支付请求过期任务载荷
type PaymentRequestExpirePayload struct {
	PaymentRequestID string `json:"payment_request_id"`
}

// NewDeliveryOrderPaidTask 创建订单完成任务
func NewDeliveryOrderPaidTask(payload DeliveryOrderPaidPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDeliveryOrderPaid, body), nil
}

// NewPaymentRequestExpireTask 创建支付请求过期任务
func NewPaymentRequestExpireTask(payload PaymentRequestExpirePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPaymentRequestExpire, body), nil
}
