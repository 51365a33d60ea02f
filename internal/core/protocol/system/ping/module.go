package ping

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-p2pping/internal/config"
	"github.com/dep2p/go-p2pping/internal/util/logger"
	"github.com/dep2p/go-p2pping/pkg/interfaces"
)

// 包级别日志实例
var log = logger.Logger("ping")

// ModuleInput 模块输入依赖
type ModuleInput struct {
	fx.In

	Config     *config.Config        `optional:"true"`
	Host       interfaces.Host
	Registerer prometheus.Registerer `optional:"true"`
	Clock      clock.Clock           `optional:"true"`
}

// ModuleOutput 模块输出
type ModuleOutput struct {
	fx.Out

	Service *Service
	Metrics *Metrics
}

// ProvideServices 提供 Ping 服务
func ProvideServices(input ModuleInput) (ModuleOutput, error) {
	metrics, err := NewMetrics(input.Registerer)
	if err != nil {
		return ModuleOutput{}, err
	}

	svc, err := NewService(input.Host, ConfigFromUnified(input.Config),
		WithClock(input.Clock),
		WithMetrics(metrics),
	)
	if err != nil {
		return ModuleOutput{}, err
	}
	return ModuleOutput{Service: svc, Metrics: metrics}, nil
}

// Module 返回 fx 模块
func Module() fx.Option {
	return fx.Module("ping",
		fx.Provide(ProvideServices),
		fx.Invoke(registerLifecycle),
	)
}

type lifecycleInput struct {
	fx.In

	LC      fx.Lifecycle
	Service *Service
}

func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return input.Service.Start(ctx)
		},
		OnStop: func(_ context.Context) error {
			return input.Service.Stop()
		},
	})
}
