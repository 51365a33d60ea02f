package app

import (
	"context"

	"github.com/dep2p/go-p2pping/internal/core/host"
	"github.com/dep2p/go-p2pping/internal/core/metrics"
	"github.com/dep2p/go-p2pping/internal/core/protocol/system/ping"
)

// Runtime 表示一个已通过 fx 组装并启动的 p2pping 节点
type Runtime struct {
	Host      *host.Host
	Ping      *ping.Service
	Bandwidth *metrics.BandwidthCounter
	Metrics   *metrics.Server

	stop func(ctx context.Context) error
}

// Stop 停止运行时（触发 fx 生命周期 OnStop）
func (r *Runtime) Stop(ctx context.Context) error {
	if r.stop == nil {
		return nil
	}
	return r.stop(ctx)
}
