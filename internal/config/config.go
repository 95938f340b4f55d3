package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/parcel-billing/internal/logger"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Log            LogConfig            `mapstructure:"log"`
	Database       DatabaseConfig       `mapstructure:"database"`
	JWT            JWTConfig            `mapstructure:"jwt"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Queue          QueueConfig          `mapstructure:"queue"`
	CORS           CORSConfig           `mapstructure:"cors"`
	Security       SecurityConfig       `mapstructure:"security"`
	Billing        BillingConfig        `mapstructure:"billing"`
	PaymentGateway PaymentGatewayConfig `mapstructure:"payment_gateway"`
	Seed           SeedConfig           `mapstructure:"seed"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres）
	DSN    string             `mapstructure:"dsn"`    // 数据库连接串
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// JWTConfig 员工 JWT 配置
type JWTConfig struct {
	SecretKey   string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	LoginRateLimit    RateLimitConfig      `mapstructure:"login_rate_limit"`
	CallbackRateLimit RateLimitConfig      `mapstructure:"callback_rate_limit"`
	PasswordPolicy    PasswordPolicyConfig `mapstructure:"password_policy"`
}

// PasswordPolicyConfig 员工密码策略
type PasswordPolicyConfig struct {
	MinLength      int  `mapstructure:"min_length"`
	RequireUpper   bool `mapstructure:"require_upper"`
	RequireLower   bool `mapstructure:"require_lower"`
	RequireNumber  bool `mapstructure:"require_number"`
	RequireSpecial bool `mapstructure:"require_special"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxAttempts   int `mapstructure:"max_attempts"`
	BlockSeconds  int `mapstructure:"block_seconds"`
}

// BillingConfig 计费配置
type BillingConfig struct {
	PackagePrices            map[string]string   `mapstructure:"package_prices"` // 尺寸 -> 基础运费（键为小写）
	ReservationTTLMinutes    int                 `mapstructure:"reservation_ttl_minutes"`
	OrphanExpiryMinutes      int                 `mapstructure:"orphan_expiry_minutes"`
	ReconcileIntervalSeconds int                 `mapstructure:"reconcile_interval_seconds"`
	InvoiceSchedule          string              `mapstructure:"invoice_schedule"` // cron 表达式，空则关闭
	PaymentLockSeconds       int                 `mapstructure:"payment_lock_seconds"`
	BusinessHours            BusinessHoursConfig `mapstructure:"business_hours"`
}

// ReservationTTL 费用占用时长
func (c BillingConfig) ReservationTTL() time.Duration {
	return minutesOr(c.ReservationTTLMinutes, 15)
}

// OrphanExpiry 待定支付请求过期时长
func (c BillingConfig) OrphanExpiry() time.Duration {
	return minutesOr(c.OrphanExpiryMinutes, 15)
}

// ReconcileInterval 对账扫描间隔
func (c BillingConfig) ReconcileInterval() time.Duration {
	if c.ReconcileIntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.ReconcileIntervalSeconds) * time.Second
}

// PaymentLockTTL 支付分布式锁时长
func (c BillingConfig) PaymentLockTTL() time.Duration {
	if c.PaymentLockSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.PaymentLockSeconds) * time.Second
}

func minutesOr(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Minute
}

// BusinessHoursConfig 营业时间（取件时间窗口）配置
type BusinessHoursConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Timezone  string `mapstructure:"timezone"`
	OpenHour  int    `mapstructure:"open_hour"`
	CloseHour int    `mapstructure:"close_hour"`
	Weekdays  []int  `mapstructure:"weekdays"` // 0=周日
}

// PaymentGatewayConfig 外部支付网关配置
type PaymentGatewayConfig struct {
	BaseURL         string `mapstructure:"base_url"`
	CallbackBaseURL string `mapstructure:"callback_base_url"`
	AuthToken       string `mapstructure:"auth_token"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
}

// Timeout 网关请求超时
func (c PaymentGatewayConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SeedConfig 默认员工账号
type SeedConfig struct {
	StaffUsername string `mapstructure:"staff_username"`
	StaffPassword string `mapstructure:"staff_password"`
}

// Load 从 config.yml 加载配置
func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")     // 从当前目录查找
	viper.AddConfigPath("./")    // 备用路径
	viper.AddConfigPath("../")   // 如果从 cmd/server 运行
	viper.AddConfigPath("./etc") // etc 文件夹

	// 设置默认值（可选）
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("log.dir", "")
	viper.SetDefault("log.filename", "billing.log")
	viper.SetDefault("log.max_size_mb", 100)
	viper.SetDefault("log.max_backups", 7)
	viper.SetDefault("log.max_age_days", 30)
	viper.SetDefault("log.compress", true)
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.dsn", "./db/billing.db")
	viper.SetDefault("database.pool.max_open_conns", 1)
	viper.SetDefault("database.pool.max_idle_conns", 1)
	viper.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	viper.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("jwt.expire_hours", 12)
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "127.0.0.1")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.prefix", "pb")
	viper.SetDefault("queue.enabled", false)
	viper.SetDefault("queue.host", "127.0.0.1")
	viper.SetDefault("queue.port", 6379)
	viper.SetDefault("queue.password", "")
	viper.SetDefault("queue.db", 1)
	viper.SetDefault("queue.concurrency", 10)
	viper.SetDefault("queue.queues", map[string]int{
		"default":  10,
		"critical": 5,
	})
	viper.SetDefault("cors.allowed_origins", []string{"*"})
	viper.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	viper.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Accept-Language",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
		"X-Request-ID",
	})
	viper.SetDefault("cors.allow_credentials", true)
	viper.SetDefault("cors.max_age", 600)
	viper.SetDefault("security.login_rate_limit.window_seconds", 300)
	viper.SetDefault("security.login_rate_limit.max_attempts", 5)
	viper.SetDefault("security.login_rate_limit.block_seconds", 900)
	viper.SetDefault("security.callback_rate_limit.window_seconds", 60)
	viper.SetDefault("security.callback_rate_limit.max_attempts", 120)
	viper.SetDefault("security.callback_rate_limit.block_seconds", 60)
	viper.SetDefault("security.password_policy.min_length", 8)
	viper.SetDefault("security.password_policy.require_number", true)
	viper.SetDefault("billing.package_prices", map[string]string{
		"small":  "1000",
		"medium": "1500",
		"large":  "2500",
	})
	viper.SetDefault("billing.reservation_ttl_minutes", 15)
	viper.SetDefault("billing.orphan_expiry_minutes", 15)
	viper.SetDefault("billing.reconcile_interval_seconds", 60)
	viper.SetDefault("billing.invoice_schedule", "0 2 * * *")
	viper.SetDefault("billing.payment_lock_seconds", 30)
	viper.SetDefault("billing.business_hours.enabled", false)
	viper.SetDefault("billing.business_hours.timezone", "UTC")
	viper.SetDefault("billing.business_hours.open_hour", 8)
	viper.SetDefault("billing.business_hours.close_hour", 20)
	viper.SetDefault("billing.business_hours.weekdays", []int{1, 2, 3, 4, 5, 6})
	viper.SetDefault("payment_gateway.base_url", "http://127.0.0.1:9000")
	viper.SetDefault("payment_gateway.callback_base_url", "http://127.0.0.1:8080")
	viper.SetDefault("payment_gateway.auth_token", "")
	viper.SetDefault("payment_gateway.timeout_seconds", 30)
	viper.SetDefault("seed.staff_username", "admin")
	viper.SetDefault("seed.staff_password", "")

	// 环境变量支持
	viper.AutomaticEnv()                                   // 自动读取环境变量
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // 将 . 替换为 _ (例如 server.port -> SERVER_PORT)

	// 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}

	return &cfg
}
