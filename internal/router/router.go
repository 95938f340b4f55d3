package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/parcel-billing/internal/authz"
	"github.com/parcel-billing/internal/cache"
	"github.com/parcel-billing/internal/config"
	adminhandlers "github.com/parcel-billing/internal/http/handlers/admin"
	publichandlers "github.com/parcel-billing/internal/http/handlers/public"
	"github.com/parcel-billing/internal/http/response"
	"github.com/parcel-billing/internal/logger"
	"github.com/parcel-billing/internal/metrics"
	"github.com/parcel-billing/internal/provider"

	"github.com/gin-gonic/gin"
)

const apiV1Prefix = "/api/v1"

// 免鉴权接口，不出现在权限目录中
var publicAPIPaths = map[string]struct{}{
	apiV1Prefix + "/auth/login":                              {},
	apiV1Prefix + "/delivery-payment-requests/:id/callbacks": {},
}

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	staffHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "pb"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:staff_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		MessageKey:    "error.login_too_many",
	}
	callbackRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:payment_callback", redisPrefix),
		WindowSeconds: cfg.Security.CallbackRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.CallbackRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.CallbackRateLimit.BlockSeconds,
		FailOpen:      true,
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(AccessLogMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	r.GET("/healthz", publicHandler.Healthz)
	r.GET("/metrics", metrics.Handler())

	apiV1 := r.Group(apiV1Prefix)
	{
		apiV1.POST("/auth/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("username")), staffHandler.StaffLogin)

		// 支付网关回调
		apiV1.POST("/delivery-payment-requests/:id/callbacks", RateLimitMiddleware(redisClient, callbackRule, KeyByParam("id")), publicHandler.PaymentCallback)

		staff := apiV1.Group("")
		staff.Use(StaffJWTAuthMiddleware(c.AuthService), StaffRBACMiddleware(c.AuthzService))
		{
			staff.GET("/auth/me", staffHandler.GetStaffMe)
			staff.GET("/auth/permissions/catalog", func(ctx *gin.Context) {
				response.Success(ctx, buildStaffPermissionCatalog(r))
			})

			// 计价与运费
			staff.POST("/pricing", staffHandler.QuotePricing)
			staff.POST("/delivery-orders/:id/delivery-fees", staffHandler.CreateDeliveryFees)

			// 费用与折扣
			staff.POST("/packages/:id/charges", staffHandler.CreatePackageCharge)
			staff.GET("/packages/:id/charges", staffHandler.ListPackageCharges)
			staff.POST("/delivery-orders/:id/discounts", staffHandler.CreateOrderDiscount)

			// 订单维度支付
			staff.POST("/delivery-orders/:id/payment-requests", staffHandler.CreateOrderPaymentRequest)
			staff.POST("/delivery-orders/:id/payment-confirmations", staffHandler.ConfirmOrderPayment)

			// 客户维度支付与账单
			staff.POST("/customers/:id/delivery-payment-requests", staffHandler.CreateCustomerPaymentRequest)
			staff.POST("/customers/:id/delivery-payment-confirmations", staffHandler.ConfirmCustomerPayment)
			staff.GET("/customers/:id/delivery-spending", staffHandler.GetDeliverySpending)
			staff.GET("/customers/:id/billing-status", staffHandler.GetBillingStatus)
			staff.POST("/customers/:id/delivery-invoices", staffHandler.CreateDeliveryInvoice)

			// 支付请求
			staff.GET("/delivery-payment-requests", staffHandler.ListPaymentRequests)
			staff.GET("/delivery-payment-requests/:id", staffHandler.GetPaymentRequest)
			staff.GET("/delivery-payment-requests/:id/payment-status", staffHandler.GetPaymentStatus)
			staff.POST("/delivery-payment-requests/:id/expire", staffHandler.ExpirePaymentRequest)

			// 账单
			staff.GET("/delivery-invoices/:id", staffHandler.GetDeliveryInvoice)
			staff.GET("/delivery-invoices/:id/status", staffHandler.GetDeliveryInvoiceStatus)
		}
	}

	return r
}

type staffPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildStaffPermissionCatalog(engine *gin.Engine) []staffPermissionCatalogItem {
	if engine == nil {
		return []staffPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]staffPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, apiV1Prefix+"/") {
			continue
		}
		if _, ok := publicAPIPaths[item.Path]; ok {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, staffPermissionCatalogItem{
			Module:     deriveStaffPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

// deriveStaffPermissionModule 取资源路径首段作为模块名
func deriveStaffPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	return strings.Split(normalized, "/")[0]
}
