package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/parcel-billing/internal/billing"
	"github.com/parcel-billing/internal/constants"
)

var (
	ErrConfigInvalid   = errors.New("payment gateway config invalid")
	ErrRequestFailed   = errors.New("payment gateway request failed")
	ErrResponseInvalid = errors.New("payment gateway response invalid")
)

// Config 网关配置
type Config struct {
	BaseURL         string
	CallbackBaseURL string
	AuthToken       string
	Timeout         time.Duration
}

// Result 网关调用结果；失败不是错误，调用方按原状态码与响应体透传
type Result struct {
	Success    bool
	StatusCode int
	Body       map[string]interface{}
}

// RequestPaymentInput 发起线上支付
type RequestPaymentInput struct {
	PaymentRequestID string
	Breakdown        billing.Breakdown
	PaymentMethodID  string
	CallbackURL      string
	Description      string
}

// ConfirmPaymentInput 登记线下支付
type ConfirmPaymentInput struct {
	PaymentRequestID      string
	Breakdown             billing.Breakdown
	PaymentMethodID       string
	OperatorTransactionID string
	PaymentTime           time.Time
	Description           string
}

// Client 支付网关 HTTP 客户端
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// ValidateConfig 校验配置
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return fmt.Errorf("%w: base_url is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.CallbackBaseURL) == "" {
		return fmt.Errorf("%w: callback_base_url is required", ErrConfigInvalid)
	}
	return nil
}

// NewClient 创建网关客户端
func NewClient(cfg Config) (*Client, error) {
	cfg.normalize()
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (c *Config) normalize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.CallbackBaseURL = strings.TrimRight(strings.TrimSpace(c.CallbackBaseURL), "/")
	c.AuthToken = strings.TrimSpace(c.AuthToken)
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
}

// CallbackURL 生成支付请求回调地址
func (c *Client) CallbackURL(paymentRequestID string) string {
	return fmt.Sprintf(constants.PaymentCallbackPathFormat, c.cfg.CallbackBaseURL, paymentRequestID)
}

// RequestPayment 调用网关创建支付
func (c *Client) RequestPayment(ctx context.Context, input RequestPaymentInput) Result {
	payload := map[string]interface{}{
		"paymentRequestId":  input.PaymentRequestID,
		"totalAmount":       input.Breakdown.TotalAmount.InexactFloat64(),
		"transactionAmount": input.Breakdown.TransactionAmount.InexactFloat64(),
		"transactionFee":    input.Breakdown.TransactionFee.InexactFloat64(),
		"paymentMethod": map[string]interface{}{
			"paymentMethodId": input.PaymentMethodID,
		},
		"callbackUrl": input.CallbackURL,
		"description": input.Description,
	}
	result := c.post(ctx, "/payment-requests", payload)
	if result.Success {
		result.Body["paymentRequestId"] = input.PaymentRequestID
	}
	return result
}

// ConfirmPayment 调用网关登记线下支付
func (c *Client) ConfirmPayment(ctx context.Context, input ConfirmPaymentInput) Result {
	payload := map[string]interface{}{
		"paymentRequestId":      input.PaymentRequestID,
		"operatorTransactionId": input.OperatorTransactionID,
		"paymentTime":           input.PaymentTime.UTC().Format(time.RFC3339),
		"paymentMethodId":       input.PaymentMethodID,
		"description":           input.Description,
		"totalAmount":           input.Breakdown.TotalAmount.InexactFloat64(),
		"transactionAmount":     input.Breakdown.TransactionAmount.InexactFloat64(),
		"transactionFee":        input.Breakdown.TransactionFee.InexactFloat64(),
	}
	return c.post(ctx, "/payment-records", payload)
}

func (c *Client) post(ctx context.Context, path string, payload map[string]interface{}) Result {
	body, err := json.Marshal(payload)
	if err != nil {
		return transportFailure(fmt.Errorf("%w: %v", ErrRequestFailed, err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return transportFailure(fmt.Errorf("%w: %v", ErrRequestFailed, err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.cfg.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.AuthToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportFailure(fmt.Errorf("%w: %v", ErrRequestFailed, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportFailure(fmt.Errorf("%w: %v", ErrResponseInvalid, err))
	}
	return Result{
		Success:    resp.StatusCode >= 200 && resp.StatusCode < 300,
		StatusCode: resp.StatusCode,
		Body:       decodeBody(raw),
	}
}

func decodeBody(raw []byte) map[string]interface{} {
	body := map[string]interface{}{}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return body
	}
	if err := json.Unmarshal(trimmed, &body); err != nil {
		return map[string]interface{}{"raw": string(trimmed)}
	}
	return body
}

func transportFailure(err error) Result {
	return Result{
		Success:    false,
		StatusCode: http.StatusBadGateway,
		Body:       map[string]interface{}{"error": err.Error()},
	}
}
