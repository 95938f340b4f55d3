package queue

import (
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/parcel-billing/internal/config"
	"github.com/parcel-billing/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 过期等维护任务
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 付款完成后的订单推进
	CriticalQueue = constants.QueueCritical

	defaultConcurrency  = 10
	orderPaidMaxRetry   = 10
	expireTaskIDPrefix  = "expire:"
	defaultQueueAddress = "127.0.0.1"
	defaultQueuePort    = 6379
)

// Client asynq 客户端；未启用时所有投递均为空操作
type Client struct {
	inner *asynq.Client
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	return &Client{inner: asynq.NewClient(buildRedisOpt(cfg))}, nil
}

// Enabled 是否可投递
func (c *Client) Enabled() bool {
	return c != nil && c.inner != nil
}

// Close 关闭连接
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.inner.Close()
}

// EnqueueDeliveryOrderPaid 投递订单付清任务，由 worker 推进订单状态
func (c *Client) EnqueueDeliveryOrderPaid(payload DeliveryOrderPaidPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewDeliveryOrderPaidTask(payload)
	if err != nil {
		return err
	}
	base := []asynq.Option{asynq.Queue(CriticalQueue), asynq.MaxRetry(orderPaidMaxRetry)}
	_, err = c.inner.Enqueue(task, append(base, opts...)...)
	return err
}

// EnqueuePaymentRequestExpire 投递延迟过期任务；同一请求只保留一个任务
func (c *Client) EnqueuePaymentRequestExpire(payload PaymentRequestExpirePayload, delay time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewPaymentRequestExpireTask(payload)
	if err != nil {
		return err
	}
	_, err = c.inner.Enqueue(task,
		asynq.Queue(DefaultQueue),
		asynq.ProcessIn(max(delay, 0)),
		asynq.TaskID(expireTaskIDPrefix+payload.PaymentRequestID),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

// BuildServerConfig worker 端连接与并发配置，critical 队列权重更高
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	serverCfg := asynq.Config{
		Concurrency: defaultConcurrency,
		Queues:      map[string]int{DefaultQueue: 1, CriticalQueue: 2},
	}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			serverCfg.Concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			serverCfg.Queues = cfg.Queues
		}
	}
	return buildRedisOpt(cfg), serverCfg
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	if cfg == nil {
		return asynq.RedisClientOpt{Addr: net.JoinHostPort(defaultQueueAddress, strconv.Itoa(defaultQueuePort))}
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = defaultQueueAddress
	}
	port := cfg.Port
	if port <= 0 {
		port = defaultQueuePort
	}
	return asynq.RedisClientOpt{
		Addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}
