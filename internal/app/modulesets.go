// Package app 提供模块集合清单
//
// modulesets.go 集中维护"哪些模块属于哪个 Tier"，是 Bootstrap 组装的唯一模块来源。
package app

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-p2pping/internal/core/host"
	"github.com/dep2p/go-p2pping/internal/core/identity"
	"github.com/dep2p/go-p2pping/internal/core/metrics"
	"github.com/dep2p/go-p2pping/internal/core/protocol/system/ping"
)

// FoundationModules 基础层模块组合 (Tier 1)
//
// 身份与指标注册表，Host 和协议都依赖它们。
func FoundationModules() fx.Option {
	return fx.Options(
		identity.Module(),
		metrics.Module(),
	)
}

// TransportModules 传输层模块组合 (Tier 2)
//
// QUIC Host：监听、拨号与流路由。
func TransportModules() fx.Option {
	return host.Module()
}

// ProtocolModules 系统协议模块组合 (Tier 3)
func ProtocolModules() fx.Option {
	return fx.Options(
		ping.Module(),
	)
}
