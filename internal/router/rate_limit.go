package router

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/parcel-billing/internal/http/response"
	"github.com/parcel-billing/internal/i18n"
	"github.com/parcel-billing/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitKeyFunc 从请求中提取限流维度
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 固定窗口限流规则
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	// BlockSeconds 超限后的封禁时长，0 表示只等窗口过期
	BlockSeconds int
	MessageKey   string
	// FailOpen Redis 出错时放行
	FailOpen bool
}

func (r RateLimitRule) active() bool {
	return r.WindowSeconds > 0 && r.MaxRequests > 0
}

func (r RateLimitRule) counterKey(c *gin.Context, keyFunc RateLimitKeyFunc) string {
	dimension := ""
	if keyFunc != nil {
		dimension = strings.TrimSpace(keyFunc(c))
	}
	if dimension == "" {
		dimension = c.ClientIP()
	}
	if r.Prefix == "" {
		return dimension
	}
	return r.Prefix + ":" + dimension
}

// retryAfter 提示等待秒数，至少 1 秒
func (r RateLimitRule) retryAfter(ttl int64) int {
	if ttl > 0 {
		return int(ttl)
	}
	return max(r.WindowSeconds, 1)
}

// 返回 {计数, 剩余秒数}；处于封禁期返回 {-1, 封禁剩余秒数}
var rateLimitScript = redis.NewScript(`
local blockTTL = redis.call("TTL", KEYS[2])
if blockTTL > 0 then
	return {-1, blockTTL}
end
local hits = redis.call("INCR", KEYS[1])
if hits == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
local blockFor = tonumber(ARGV[3])
if hits > tonumber(ARGV[2]) and blockFor > 0 then
	redis.call("SET", KEYS[2], "1", "EX", blockFor)
	return {hits, blockFor}
end
return {hits, redis.call("TTL", KEYS[1])}
`)

// RateLimitMiddleware Redis 限流；client 为空或规则未配置时不生效
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || !rule.active() {
			c.Next()
			return
		}
		key := rule.counterKey(c, keyFunc)
		raw, err := rateLimitScript.Run(c.Request.Context(), client,
			[]string{key, key + ":block"},
			rule.WindowSeconds, rule.MaxRequests, rule.BlockSeconds,
		).Result()
		hits, ttl, ok := parseRateLimitResult(raw)
		if err != nil || !ok {
			if rule.FailOpen {
				logger.Warnw("rate_limit_fail_open", "prefix", rule.Prefix, "error", err)
				c.Next()
				return
			}
			logger.Errorw("rate_limit_unavailable", "prefix", rule.Prefix, "error", err)
			respondRateLimitUnavailable(c)
			return
		}
		if hits >= 0 && hits <= int64(rule.MaxRequests) {
			c.Next()
			return
		}
		messageKey := rule.MessageKey
		if strings.TrimSpace(messageKey) == "" {
			messageKey = "error.rate_limited"
		}
		response.Error(c, response.CodeTooManyRequests, i18n.Sprintf(i18n.ResolveLocale(c), messageKey, rule.retryAfter(ttl)))
		c.Abort()
	}
}

func respondRateLimitUnavailable(c *gin.Context) {
	response.Error(c, response.CodeInternal, i18n.T(i18n.ResolveLocale(c), "error.rate_limit_unavailable"))
	c.Abort()
}

func parseRateLimitResult(raw interface{}) (int64, int64, bool) {
	values, ok := raw.([]interface{})
	if !ok || len(values) < 2 {
		return 0, 0, false
	}
	hits, ok := toInt64(values[0])
	if !ok {
		return 0, 0, false
	}
	ttl, _ := toInt64(values[1])
	return hits, ttl, true
}

// KeyByIP 按客户端 IP
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByParam 按路径参数，例如回调按支付请求 id 限流
func KeyByParam(name string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		if value := strings.TrimSpace(c.Param(name)); value != "" {
			return value
		}
		return c.ClientIP()
	}
}

// KeyByIPAndJSONField 按 JSON 字段（小写）加 IP，例如登录用户名
func KeyByIPAndJSONField(field string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := strings.ToLower(readJSONField(c, field))
		if value == "" {
			return c.ClientIP()
		}
		return value + "|" + c.ClientIP()
	}
}

// readJSONField 读取后回填请求体，后续绑定不受影响
func readJSONField(c *gin.Context, field string) string {
	if c.Request == nil || c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil || len(body) == 0 {
		return ""
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	var text string
	if err := json.Unmarshal(payload[field], &text); err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func toInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint8:
		return int64(v), true
	case float64:
		return int64(v), true
	}
	return 0, false
}
