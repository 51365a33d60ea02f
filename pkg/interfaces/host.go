package interfaces

import (
	"context"

	ma "github.com/multiformats/go-multiaddr"

	"github.com/dep2p/go-p2pping/pkg/types"
)

// Host 定义 P2P 主机接口
//
// Host 负责建立安全的多路复用连接，并把入站流按协议 ID 路由到处理器。
type Host interface {
	// ID 返回本地节点 ID
	ID() types.PeerID

	// Addrs 返回实际监听的地址列表（不含 /p2p/ 后缀）
	Addrs() []ma.Multiaddr

	// Listen 监听指定地址
	//
	// 地址格式：/ip4/0.0.0.0/udp/4001/quic-v1
	Listen(addrs ...ma.Multiaddr) error

	// Connect 拨号到指定节点
	//
	// addr 必须包含 /p2p/<PeerID>，握手后校验远端身份。
	// 若与该节点已有可用连接则直接返回。
	Connect(ctx context.Context, addr ma.Multiaddr) (Connection, error)

	// SetStreamHandler 为指定协议设置流处理器
	SetStreamHandler(protocolID types.ProtocolID, handler StreamHandler)

	// RemoveStreamHandler 移除指定协议的流处理器
	RemoveStreamHandler(protocolID types.ProtocolID)

	// Connections 返回当前所有活跃连接
	Connections() []Connection

	// Notify 注册连接生命周期通知
	Notify(n SwarmNotifier)

	// StopNotify 取消连接生命周期通知
	StopNotify(n SwarmNotifier)

	// Close 关闭主机及其全部连接
	Close() error
}

// StreamHandler 定义流处理函数类型
//
// 每个入站流在独立的 goroutine 中调用处理器，处理器返回后流不再被使用。
type StreamHandler func(Stream)
