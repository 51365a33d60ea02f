package host

import (
	"context"

	"github.com/dep2p/go-p2pping/internal/core/metrics"
	"github.com/dep2p/go-p2pping/internal/core/transport/quic"
	"github.com/dep2p/go-p2pping/pkg/interfaces"
	"github.com/dep2p/go-p2pping/pkg/types"
)

// hostConn Host 对外暴露的连接，出站流按 Reporter 计量
type hostConn struct {
	*quic.Conn
	reporter metrics.Reporter
}

// NewStream 打开出站流
func (c *hostConn) NewStream(ctx context.Context, protocolID types.ProtocolID) (interfaces.Stream, error) {
	s, err := c.Conn.NewStream(ctx, protocolID)
	if err != nil {
		return nil, err
	}
	return metrics.NewMeteredStream(s, c.reporter), nil
}

var _ interfaces.Connection = (*hostConn)(nil)
