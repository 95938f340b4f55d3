package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "billing_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	paymentRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_payment_requests_total",
			Help: "Payment requests by mode and gateway outcome",
		},
		[]string{"mode", "outcome"},
	)

	paymentCallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_payment_callbacks_total",
			Help: "Gateway callbacks by status and whether they finalized the request",
		},
		[]string{"status", "result"},
	)

	reservationConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "billing_charge_reservation_conflicts_total",
			Help: "Payment requests rejected because a charge was reserved by another request",
		},
	)

	expiredRequestsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "billing_payment_requests_expired_total",
			Help: "Pending payment requests expired by reconciliation",
		},
	)

	invoicesCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_invoices_created_total",
			Help: "Delivery invoices created by trigger",
		},
		[]string{"trigger"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(paymentRequestsTotal)
	prometheus.MustRegister(paymentCallbacksTotal)
	prometheus.MustRegister(reservationConflictsTotal)
	prometheus.MustRegister(expiredRequestsTotal)
	prometheus.MustRegister(invoicesCreatedTotal)
}

// ObserveHTTP 记录一次 HTTP 请求
func ObserveHTTP(method, endpoint, status string, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint).Observe(elapsed.Seconds())
}

// RecordPaymentRequest 记录支付请求结果
func RecordPaymentRequest(mode, outcome string) {
	paymentRequestsTotal.WithLabelValues(mode, outcome).Inc()
}

// RecordCallback 记录回调处理结果
func RecordCallback(status, result string) {
	paymentCallbacksTotal.WithLabelValues(status, result).Inc()
}

// RecordReservationConflict 记录费用占用冲突
func RecordReservationConflict() {
	reservationConflictsTotal.Inc()
}

// RecordExpiredRequest 记录过期的支付请求
func RecordExpiredRequest() {
	expiredRequestsTotal.Inc()
}

// RecordInvoiceCreated 记录账单生成
func RecordInvoiceCreated(trigger string) {
	invoicesCreatedTotal.WithLabelValues(trigger).Inc()
}

// Handler /metrics 处理器
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
