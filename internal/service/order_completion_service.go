package service

import (
	"context"
	"time"

	"github.com/parcel-billing/internal/constants"
	"github.com/parcel-billing/internal/logger"
	"github.com/parcel-billing/internal/queue"
	"github.com/parcel-billing/internal/repository"

	"gorm.io/gorm"
)

// completableStatuses 付款后可推进为已下单的状态
var completableStatuses = []string{
	constants.OrderStatusRequest,
	constants.OrderStatusStarted,
	constants.OrderStatusPending,
}

// OrderCompletionService 付清后推进订单
type OrderCompletionService struct {
	orderRepo   repository.DeliveryOrderRepository
	queueClient *queue.Client
	now         func() time.Time
}

// NewOrderCompletionService 创建订单完成服务
func NewOrderCompletionService(orderRepo repository.DeliveryOrderRepository, queueClient *queue.Client) *OrderCompletionService {
	return &OrderCompletionService{
		orderRepo:   orderRepo,
		queueClient: queueClient,
		now:         time.Now,
	}
}

// Trigger 队列可用时异步执行，否则同步执行
func (s *OrderCompletionService) Trigger(ctx context.Context, orderID uint, paymentRequestID string) {
	log := logger.SW("delivery_order_id", orderID, "payment_request_id", paymentRequestID)
	if s.queueClient.Enabled() {
		err := s.queueClient.EnqueueDeliveryOrderPaid(queue.DeliveryOrderPaidPayload{
			DeliveryOrderID:  orderID,
			PaymentRequestID: paymentRequestID,
		})
		if err == nil {
			log.Infow("delivery_order_completion_enqueued")
			return
		}
		log.Warnw("delivery_order_completion_enqueue_failed", "error", err)
	}
	if _, err := s.Complete(orderID); err != nil {
		log.Errorw("delivery_order_completion_failed", "error", err)
	}
}

// Complete 将待处理订单推进为 PLACED，已推进过的订单不变
func (s *OrderCompletionService) Complete(orderID uint) (bool, error) {
	now := s.now()
	changed, err := s.orderRepo.TransitionStatus(orderID, completableStatuses, constants.OrderStatusPlaced, map[string]interface{}{
		"placed_at": gorm.Expr("COALESCE(placed_at, ?)", now),
	})
	if err != nil {
		return false, err
	}
	logger.Infow("delivery_order_completion_applied", "delivery_order_id", orderID, "changed", changed)
	return changed, nil
}
