package constants

// 配送订单状态常量
const (
	OrderStatusRequest  = "REQUEST"
	OrderStatusStarted  = "STARTED"
	OrderStatusPending  = "PENDING"
	OrderStatusPlaced   = "PLACED"
	OrderStatusComplete = "COMPLETE"
	OrderStatusCanceled = "CANCELED"
)

// 支付请求模式
const (
	PaymentRequestModeOnline  = "ONLINE"
	PaymentRequestModeOffline = "OFFLINE"
)

// 计费默认值
const (
	DefaultBillingIntervalDays    = 7
	DefaultBillingGracePeriodDays = 3
	DeliveryFeeDescription        = "Delivery fee"
	DeliveryTransactionDesc       = "Delivery transaction"
)

// 员工角色
const (
	StaffRoleReadonlyAuditor = "readonly_auditor"
	StaffRoleDispatcher      = "dispatcher"
	StaffRoleFinance         = "finance"
)

// 队列与任务
const (
	QueueDefault              = "default"
	QueueCritical             = "critical"
	TaskDeliveryOrderPaid     = "delivery_order:paid"
	TaskPaymentRequestExpire  = "payment_request:expire"
	PaymentCallbackPathFormat = "%s/api/v1/delivery-payment-requests/%s/callbacks"
)

// 缓存键前缀
const (
	LockKeyOrderPayment    = "lock:payment:order:%d"
	LockKeyCustomerPayment = "lock:payment:customer:%d"
)

// 支付请求状态（由 is_success 推导）
const (
	PaymentRequestStatePending   = "PENDING"
	PaymentRequestStateSucceeded = "SUCCEEDED"
	PaymentRequestStateFailed    = "FAILED"
)
