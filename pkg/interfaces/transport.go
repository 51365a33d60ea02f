package interfaces

import (
	"context"
	"io"
	"time"

	ma "github.com/multiformats/go-multiaddr"

	"github.com/dep2p/go-p2pping/pkg/types"
)

// Connection 表示到远端节点的一条安全、多路复用的连接
type Connection interface {
	// ID 返回连接的稳定标识（进程内唯一）
	ID() string

	// LocalPeer 返回本地节点 ID
	LocalPeer() types.PeerID

	// RemotePeer 返回远端节点 ID
	RemotePeer() types.PeerID

	// RemoteMultiaddr 返回远端地址
	RemoteMultiaddr() ma.Multiaddr

	// Direction 返回连接方向
	Direction() types.Direction

	// NewStream 在此连接上打开一个新的出站流
	NewStream(ctx context.Context, protocolID types.ProtocolID) (Stream, error)

	// Done 在连接关闭后关闭
	Done() <-chan struct{}

	// IsClosed 检查连接是否已关闭
	IsClosed() bool

	// Close 关闭连接
	Close() error
}

// Stream 定义双向流接口
type Stream interface {
	io.Reader
	io.Writer

	// Close 正常关闭流（写端发送 FIN，读端不再接收）
	Close() error

	// Reset 异常终止流的两个方向
	Reset() error

	// SetDeadline 设置读写超时，零值表示不超时
	SetDeadline(t time.Time) error

	// SetReadDeadline 设置读超时
	SetReadDeadline(t time.Time) error

	// SetWriteDeadline 设置写超时
	SetWriteDeadline(t time.Time) error

	// Protocol 返回流使用的协议 ID
	Protocol() types.ProtocolID

	// Conn 返回流所属的连接
	Conn() Connection
}
