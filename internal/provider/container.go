package provider

import (
	"github.com/parcel-billing/internal/authz"
	"github.com/parcel-billing/internal/cache"
	"github.com/parcel-billing/internal/config"
	"github.com/parcel-billing/internal/logger"
	"github.com/parcel-billing/internal/models"
	"github.com/parcel-billing/internal/payment/gateway"
	"github.com/parcel-billing/internal/queue"
	"github.com/parcel-billing/internal/repository"
	"github.com/parcel-billing/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Gateway     service.PaymentGateway

	// Repositories
	StaffRepo          repository.StaffRepository
	CustomerRepo       repository.CustomerRepository
	DeliveryOrderRepo  repository.DeliveryOrderRepository
	ChargeRepo         repository.ChargeRepository
	DiscountRepo       repository.DiscountRepository
	PaymentRequestRepo repository.PaymentRequestRepository
	InvoiceRepo        repository.InvoiceRepository

	// Services
	AuthzService           *authz.Service
	AuthService            *service.AuthService
	LedgerService          *service.LedgerService
	PricingService         *service.PricingService
	OrderCompletionService *service.OrderCompletionService
	PaymentRequestService  *service.PaymentRequestService
	CustomerBillingService *service.CustomerBillingService
	InvoiceService         *service.InvoiceService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	gatewayClient, err := gateway.NewClient(gateway.Config{
		BaseURL:         cfg.PaymentGateway.BaseURL,
		CallbackBaseURL: cfg.PaymentGateway.CallbackBaseURL,
		AuthToken:       cfg.PaymentGateway.AuthToken,
		Timeout:         cfg.PaymentGateway.Timeout(),
	})
	if err != nil {
		logger.Errorw("provider_init_payment_gateway_failed", "error", err)
		panic(err)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Gateway:     gatewayClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.StaffRepo = repository.NewStaffRepository(db)
	c.CustomerRepo = repository.NewCustomerRepository(db)
	c.DeliveryOrderRepo = repository.NewDeliveryOrderRepository(db)
	c.ChargeRepo = repository.NewChargeRepository(db)
	c.DiscountRepo = repository.NewDiscountRepository(db)
	c.PaymentRequestRepo = repository.NewPaymentRequestRepository(db)
	c.InvoiceRepo = repository.NewInvoiceRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	billingCfg := c.Config.Billing
	c.AuthService = service.NewAuthService(c.Config, c.StaffRepo)
	c.LedgerService = service.NewLedgerService(c.ChargeRepo, c.DiscountRepo, c.DeliveryOrderRepo)
	c.PricingService = service.NewPricingService(billingCfg, c.DeliveryOrderRepo, c.CustomerRepo, c.LedgerService)
	c.OrderCompletionService = service.NewOrderCompletionService(c.DeliveryOrderRepo, c.QueueClient)
	c.PaymentRequestService = service.NewPaymentRequestService(service.PaymentRequestServiceOptions{
		Config:          billingCfg,
		OrderRepo:       c.DeliveryOrderRepo,
		CustomerRepo:    c.CustomerRepo,
		ChargeRepo:      c.ChargeRepo,
		DiscountRepo:    c.DiscountRepo,
		RequestRepo:     c.PaymentRequestRepo,
		Gateway:         c.Gateway,
		PickupValidator: service.NewBusinessHoursValidator(billingCfg.BusinessHours),
		Completer:       c.OrderCompletionService,
		QueueClient:     c.QueueClient,
	})
	c.CustomerBillingService = service.NewCustomerBillingService(c.CustomerRepo, c.DeliveryOrderRepo)
	c.InvoiceService = service.NewInvoiceService(c.InvoiceRepo, c.DeliveryOrderRepo, c.CustomerRepo, c.ChargeRepo)
}
