package main

import (
	"flag"
	"os"
	"strings"
	"syscall"

	"github.com/parcel-billing/internal/app"
	"github.com/parcel-billing/internal/config"
	"github.com/parcel-billing/internal/logger"
	"github.com/parcel-billing/internal/models"
	"github.com/parcel-billing/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

const serviceName = "parcel-billing"

func main() {
	var mode string
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.Parse()

	// 本地开发读取 .env，生产环境直接注入环境变量
	dotenvErr := godotenv.Load()

	cfg := config.Load()
	logOptions := cfg.Log.ToLoggerOptions()
	logOptions.Service = serviceName
	logger.Init(cfg.Server.Mode, logOptions)
	defer logger.Sync()
	stdLog := logger.StdLogger()
	if dotenvErr != nil {
		logger.Debugw("dotenv_not_loaded", "error", dotenvErr)
	}

	runMode, err := app.ParseMode(mode)
	if err != nil {
		stdLog.Fatalf("启动参数错误: %v", err)
	}

	if isWeakSecret(cfg.JWT.SecretKey) {
		if cfg.Server.Mode == "release" {
			stdLog.Fatalf("JWT secret 过弱或仍为默认值，请在生产环境中配置强随机密钥")
		}
		logger.Warnw("jwt_secret_weak", "mode", cfg.Server.Mode)
	}

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	if cfg.Seed.StaffPassword != "" {
		if err := service.ValidateStaffPassword(cfg.Security.PasswordPolicy, cfg.Seed.StaffPassword); err != nil {
			if cfg.Server.Mode == "release" {
				stdLog.Fatalf("默认员工密码不满足密码策略: %v", err)
			}
			logger.Warnw("default_staff_password_weak", "error", err)
		}
	}
	if cfg.Server.Mode == "release" && cfg.Seed.StaffPassword == "" {
		logger.Warnw("default_staff_skipped", "reason", "seed.staff_password is empty")
	} else if err := models.InitDefaultStaff(cfg.Seed.StaffUsername, cfg.Seed.StaffPassword); err != nil {
		logger.Warnw("default_staff_init_failed", "error", err)
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    runMode,
	}); err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	return strings.Contains(normalized, "change-me") ||
		strings.Contains(normalized, "change-in-production") ||
		strings.Contains(normalized, "your-secret-key")
}
