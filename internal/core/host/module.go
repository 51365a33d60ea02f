package host

import (
	"context"
	"fmt"

	ma "github.com/multiformats/go-multiaddr"
	"go.uber.org/fx"

	"github.com/dep2p/go-p2pping/internal/config"
	"github.com/dep2p/go-p2pping/internal/core/identity"
	"github.com/dep2p/go-p2pping/internal/core/metrics"
	"github.com/dep2p/go-p2pping/pkg/interfaces"
	"github.com/dep2p/go-p2pping/pkg/types"
)

// ModuleInput 模块输入依赖
type ModuleInput struct {
	fx.In

	Config   *config.Config `optional:"true"`
	Identity *identity.Identity
	Reporter metrics.Reporter `optional:"true"`
}

// ModuleOutput 模块输出
type ModuleOutput struct {
	fx.Out

	Host      *Host
	Interface interfaces.Host
}

// ProvideHost 提供 Host 服务
func ProvideHost(input ModuleInput) (ModuleOutput, error) {
	h, err := New(input.Identity, ConfigFromUnified(input.Config), WithReporter(input.Reporter))
	if err != nil {
		return ModuleOutput{}, err
	}
	return ModuleOutput{Host: h, Interface: h}, nil
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("host",
		fx.Provide(ProvideHost),
		fx.Invoke(registerLifecycle),
	)
}

type lifecycleInput struct {
	fx.In

	LC     fx.Lifecycle
	Config *config.Config `optional:"true"`
	Host   *Host
}

// registerLifecycle 启动时监听配置地址，停止时关闭 Host
func registerLifecycle(input lifecycleInput) error {
	listen := []string{config.DefaultListenAddr}
	if input.Config != nil {
		listen = input.Config.ListenAddrs
	}

	addrs := make([]ma.Multiaddr, 0, len(listen))
	for _, s := range listen {
		addr, err := types.ParseMultiaddr(s)
		if err != nil {
			return fmt.Errorf("监听地址无效: %w", err)
		}
		addrs = append(addrs, addr)
	}

	input.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			return input.Host.Listen(addrs...)
		},
		OnStop: func(_ context.Context) error {
			return input.Host.Close()
		},
	})
	return nil
}
