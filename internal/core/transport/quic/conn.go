package quic

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	ma "github.com/multiformats/go-multiaddr"
	"github.com/quic-go/quic-go"

	"github.com/dep2p/go-p2pping/pkg/interfaces"
	"github.com/dep2p/go-p2pping/pkg/types"
)

// 应用层关闭码
const closeCodeNormal quic.ApplicationErrorCode = 0

// Conn QUIC 连接封装
type Conn struct {
	quicConn *quic.Conn
	cfg      Config

	id         string
	localPeer  types.PeerID
	remotePeer types.PeerID
	remoteAddr ma.Multiaddr
	direction  types.Direction

	closed atomic.Bool
}

var _ interfaces.Connection = (*Conn)(nil)

func newConn(qc *quic.Conn, cfg Config, local, remote types.PeerID, dir types.Direction) *Conn {
	var raddr ma.Multiaddr
	if udp, ok := qc.RemoteAddr().(*net.UDPAddr); ok {
		raddr, _ = types.FromUDPAddr(udp)
	}

	return &Conn{
		quicConn:   qc,
		cfg:        cfg,
		id:         uuid.NewString(),
		localPeer:  local,
		remotePeer: remote,
		remoteAddr: raddr,
		direction:  dir,
	}
}

// ID 返回连接标识
func (c *Conn) ID() string {
	return c.id
}

// LocalPeer 返回本地节点 ID
func (c *Conn) LocalPeer() types.PeerID {
	return c.localPeer
}

// RemotePeer 返回远端节点 ID
func (c *Conn) RemotePeer() types.PeerID {
	return c.remotePeer
}

// RemoteMultiaddr 返回远端地址
func (c *Conn) RemoteMultiaddr() ma.Multiaddr {
	return c.remoteAddr
}

// Direction 返回连接方向
func (c *Conn) Direction() types.Direction {
	return c.direction
}

// NewStream 打开新流并写入协议头
func (c *Conn) NewStream(ctx context.Context, protocolID types.ProtocolID) (interfaces.Stream, error) {
	if c.IsClosed() {
		return nil, ErrConnectionClosed
	}

	qs, err := c.quicConn.OpenStreamSync(ctx)
	if err != nil {
		return nil, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = qs.SetWriteDeadline(deadline)
	}
	if err := writeHeader(qs, protocolID); err != nil {
		qs.CancelWrite(0)
		qs.CancelRead(0)
		return nil, err
	}
	_ = qs.SetWriteDeadline(time.Time{})

	return newStream(qs, c, protocolID), nil
}

// AcceptStream 接受对端打开的流
//
// 返回的流尚未读取协议头，调用方需调用 Stream.ReadHeader。
func (c *Conn) AcceptStream(ctx context.Context) (*Stream, error) {
	qs, err := c.quicConn.AcceptStream(ctx)
	if err != nil {
		return nil, err
	}
	return newStream(qs, c, ""), nil
}

// Done 在连接关闭后关闭
func (c *Conn) Done() <-chan struct{} {
	return c.quicConn.Context().Done()
}

// IsClosed 检查连接是否已关闭
func (c *Conn) IsClosed() bool {
	return c.closed.Load() || c.quicConn.Context().Err() != nil
}

// Close 关闭连接
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.quicConn.CloseWithError(closeCodeNormal, "closed")
}
