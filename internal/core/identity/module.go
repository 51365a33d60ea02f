package identity

import (
	"fmt"

	"go.uber.org/fx"

	"github.com/dep2p/go-p2pping/internal/config"
	"github.com/dep2p/go-p2pping/internal/util/logger"
)

var log = logger.Logger("identity")

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	Config *config.Config `optional:"true"`
}

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	Identity *Identity
}

// ProvideServices 提供模块服务
func ProvideServices(input ModuleInput) (ModuleOutput, error) {
	var seed int64
	if input.Config != nil {
		seed = input.Config.Identity.Seed
	}

	id, err := FromSeed(seed)
	if err != nil {
		return ModuleOutput{}, fmt.Errorf("创建身份失败: %w", err)
	}

	log.Debug("身份已就绪", "peer", id.ID().ShortString(), "seeded", seed != 0)
	return ModuleOutput{Identity: id}, nil
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("identity",
		fx.Provide(ProvideServices),
	)
}
