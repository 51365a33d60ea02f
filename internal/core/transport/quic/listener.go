package quic

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	ma "github.com/multiformats/go-multiaddr"
	"github.com/quic-go/quic-go"

	"github.com/dep2p/go-p2pping/pkg/types"
)

// Listener QUIC 监听器
type Listener struct {
	quicListener *quic.Listener
	addr         ma.Multiaddr
	transport    *Transport
	closed       atomic.Bool
}

// Accept 接受一条入站连接
//
// 对端身份从握手证书派生。阻塞直到有新连接、ctx 取消或监听器关闭。
func (l *Listener) Accept(ctx context.Context) (*Conn, error) {
	if l.closed.Load() {
		return nil, ErrListenerClosed
	}

	qc, err := l.quicListener.Accept(ctx)
	if err != nil {
		if l.closed.Load() || errors.Is(err, context.Canceled) {
			return nil, ErrListenerClosed
		}
		return nil, fmt.Errorf("接受连接失败: %w", err)
	}

	remote, err := ExtractPeerID(qc.ConnectionState().TLS)
	if err != nil {
		_ = qc.CloseWithError(0, "bad certificate")
		return nil, err
	}

	return newConn(qc, l.transport.cfg, l.transport.LocalPeer(), remote, types.DirInbound), nil
}

// Addr 返回实际监听地址
func (l *Listener) Addr() ma.Multiaddr {
	return l.addr
}

// Close 关闭监听器
func (l *Listener) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	return l.quicListener.Close()
}
