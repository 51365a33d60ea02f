package mocks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	ma "github.com/multiformats/go-multiaddr"

	"github.com/dep2p/go-p2pping/pkg/interfaces"
	"github.com/dep2p/go-p2pping/pkg/types"
)

// ErrMockNoStream 未设置 NewStreamFunc 时 NewStream 返回的错误
var ErrMockNoStream = errors.New("mock: no stream factory")

// MockConnection 模拟 Connection 接口实现
type MockConnection struct {
	// 基本属性
	IDValue      string
	LocalPeerID  types.PeerID
	RemotePeerID types.PeerID
	RemoteAddr   ma.Multiaddr
	Dir          types.Direction

	// 可覆盖的方法
	NewStreamFunc func(ctx context.Context, protocolID types.ProtocolID) (interfaces.Stream, error)
	CloseFunc     func() error

	// 调用记录
	newStreamCalls atomic.Int32
	closeCalls     atomic.Int32

	done      chan struct{}
	closeOnce sync.Once
}

// NewMockConnection 创建带有默认值的 MockConnection
func NewMockConnection(id string, remotePeer types.PeerID) *MockConnection {
	return &MockConnection{
		IDValue:      id,
		LocalPeerID:  "QmLocalMockPeer",
		RemotePeerID: remotePeer,
		Dir:          types.DirOutbound,
		done:         make(chan struct{}),
	}
}

// ID 返回连接标识
func (m *MockConnection) ID() string {
	return m.IDValue
}

// LocalPeer 返回本地节点 ID
func (m *MockConnection) LocalPeer() types.PeerID {
	return m.LocalPeerID
}

// RemotePeer 返回远端节点 ID
func (m *MockConnection) RemotePeer() types.PeerID {
	return m.RemotePeerID
}

// RemoteMultiaddr 返回远端地址
func (m *MockConnection) RemoteMultiaddr() ma.Multiaddr {
	return m.RemoteAddr
}

// Direction 返回连接方向
func (m *MockConnection) Direction() types.Direction {
	return m.Dir
}

// NewStream 创建新流
func (m *MockConnection) NewStream(ctx context.Context, protocolID types.ProtocolID) (interfaces.Stream, error) {
	m.newStreamCalls.Add(1)
	if m.NewStreamFunc != nil {
		return m.NewStreamFunc(ctx, protocolID)
	}
	return nil, ErrMockNoStream
}

// Done 在连接关闭后关闭
func (m *MockConnection) Done() <-chan struct{} {
	return m.done
}

// IsClosed 检查连接是否已关闭
func (m *MockConnection) IsClosed() bool {
	select {
	case <-m.done:
		return true
	default:
		return false
	}
}

// Close 关闭连接
func (m *MockConnection) Close() error {
	m.closeCalls.Add(1)
	m.closeOnce.Do(func() { close(m.done) })
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// NewStreamCalls 返回 NewStream 调用次数
func (m *MockConnection) NewStreamCalls() int {
	return int(m.newStreamCalls.Load())
}

// CloseCalls 返回 Close 调用次数
func (m *MockConnection) CloseCalls() int {
	return int(m.closeCalls.Load())
}

var _ interfaces.Connection = (*MockConnection)(nil)
