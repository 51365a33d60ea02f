package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-p2pping/internal/config"
	"github.com/dep2p/go-p2pping/internal/util/logger"
)

// 包级别日志实例
var log = logger.Logger("metrics")

// Config 指标配置
type Config struct {
	// Enable 是否启动 HTTP 端点
	Enable bool

	// ListenAddr HTTP 端点地址
	ListenAddr string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{ListenAddr: config.DefaultMetricsAddr}
}

// ConfigFromUnified 从统一配置创建指标配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		Enable:     cfg.Metrics.Enable,
		ListenAddr: cfg.Metrics.ListenAddr,
	}
}

// ModuleInput 模块输入依赖
type ModuleInput struct {
	fx.In

	Config *config.Config `optional:"true"`
}

// ModuleOutput 模块输出
type ModuleOutput struct {
	fx.Out

	Registry   *prometheus.Registry
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	Bandwidth  *BandwidthCounter
	Reporter   Reporter
	Server     *Server
}

// ProvideServices 提供指标服务
func ProvideServices(input ModuleInput) (ModuleOutput, error) {
	cfg := ConfigFromUnified(input.Config)

	reg := NewRegistry()
	bwc := NewBandwidthCounter()
	if err := reg.Register(bwc); err != nil {
		return ModuleOutput{}, err
	}

	return ModuleOutput{
		Registry:   reg,
		Registerer: reg,
		Gatherer:   reg,
		Bandwidth:  bwc,
		Reporter:   bwc,
		Server:     NewServer(cfg.ListenAddr, reg),
	}, nil
}

// Module 返回 fx 模块
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(ProvideServices),
		fx.Invoke(registerLifecycle),
	)
}

type lifecycleInput struct {
	fx.In

	LC        fx.Lifecycle
	Config    *config.Config `optional:"true"`
	Bandwidth *BandwidthCounter
	Server    *Server
}

// registerLifecycle 启动空闲统计清理，并在启用时启动 HTTP 端点
func registerLifecycle(input lifecycleInput) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	input.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				defer close(done)
				input.Bandwidth.trimLoop(ctx, trimInterval, peerIdleTTL)
			}()
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			<-done
			return nil
		},
	})

	if !ConfigFromUnified(input.Config).Enable {
		return
	}
	input.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			return input.Server.Start()
		},
		OnStop: func(ctx context.Context) error {
			return input.Server.Stop(ctx)
		},
	})
}
