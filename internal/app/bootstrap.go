package app

import (
	"errors"
	"fmt"
	"net"

	"github.com/parcel-billing/internal/config"
	"github.com/parcel-billing/internal/provider"
	"github.com/parcel-billing/internal/router"
	"github.com/parcel-billing/internal/worker"
)

// BuildRunner 按启动模式组装 HTTP 与 Worker 服务
func BuildRunner(opts Options) (*Runner, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if _, err := ParseMode(opts.Mode); err != nil {
		return nil, err
	}

	container := provider.NewContainer(cfg)

	var services []Service
	if opts.runsAPI() {
		engine := router.SetupRouter(cfg, container)
		services = append(services, NewHTTPService(listenAddr(cfg), engine))
	}
	if opts.runsWorker() {
		consumer := worker.NewConsumer(container)
		workerService, err := worker.NewService(&cfg.Queue, cfg.Billing, consumer)
		if err != nil {
			return nil, fmt.Errorf("init worker: %w", err)
		}
		services = append(services, workerService)
	}
	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}
	return NewRunner(services...), nil
}

func listenAddr(cfg *config.Config) string {
	return net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start", "addr", listenAddr(opts.Config), "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
