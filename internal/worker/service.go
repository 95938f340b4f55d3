package worker

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/parcel-billing/internal/config"
	"github.com/parcel-billing/internal/logger"
	"github.com/parcel-billing/internal/queue"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
)

const reconcileBatchSize = 100

// Service 后台任务服务：队列消费、过期对账与定时出账
type Service struct {
	name      string
	server    *asynq.Server
	mux       *asynq.ServeMux
	consumer  *Consumer
	scheduler *cron.Cron
	billing   config.BillingConfig
}

// NewService 创建后台任务服务；队列未启用时只运行对账与定时任务
func NewService(cfg *config.QueueConfig, billing config.BillingConfig, consumer *Consumer) (*Service, error) {
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	s := &Service{
		name:     "worker",
		consumer: consumer,
		billing:  billing,
	}
	if cfg != nil && cfg.Enabled {
		opt, serverCfg := queue.BuildServerConfig(cfg)
		s.server = asynq.NewServer(opt, serverCfg)
		s.mux = asynq.NewServeMux()
		consumer.Register(s.mux)
	} else {
		logger.Warnw("worker_queue_disabled_loops_only")
	}
	scheduler, err := newInvoiceScheduler(billing.InvoiceSchedule, consumer)
	if err != nil {
		return nil, err
	}
	s.scheduler = scheduler
	return s, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.consumer == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer.PaymentRequestService != nil {
		go s.runReconcileLoop(ctx)
	}
	if s.scheduler != nil {
		s.scheduler.Start()
	}
	if s.server == nil {
		<-ctx.Done()
		return nil
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}
	if s.scheduler != nil {
		select {
		case <-s.scheduler.Stop().Done():
		case <-ctx.Done():
		}
	}
	if s.server != nil {
		s.server.Shutdown()
	}
	return nil
}

func (s *Service) runReconcileLoop(ctx context.Context) {
	runOnce := func() {
		expired, err := s.consumer.PaymentRequestService.ExpireStalePaymentRequests(ctx, reconcileBatchSize)
		if err != nil {
			logger.Warnw("worker_reconcile_payment_requests_failed", "error", err)
			return
		}
		if expired > 0 {
			logger.Infow("worker_reconcile_payment_requests_expired", "count", expired)
		}
	}
	runOnce()

	ticker := time.NewTicker(s.billing.ReconcileInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

// newInvoiceScheduler 按 cron 表达式定期为后付费客户出账；表达式为空时不启用
func newInvoiceScheduler(spec string, consumer *Consumer) (*cron.Cron, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" || consumer == nil || consumer.InvoiceService == nil {
		return nil, nil
	}
	scheduler := cron.New(cron.WithChain(cron.Recover(cron.PrintfLogger(logger.StdLogger()))))
	if _, err := scheduler.AddFunc(spec, func() { consumer.runScheduledInvoicing() }); err != nil {
		return nil, err
	}
	return scheduler, nil
}

func (c *Consumer) runScheduledInvoicing() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	created, err := c.InvoiceService.RunScheduledInvoicing(ctx)
	if err != nil {
		logger.Warnw("worker_scheduled_invoicing_failed", "error", err)
		return
	}
	logger.Infow("worker_scheduled_invoicing_done", "created", created)
}
