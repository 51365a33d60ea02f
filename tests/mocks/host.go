package mocks

import (
	"context"
	"errors"
	"sync"

	ma "github.com/multiformats/go-multiaddr"

	"github.com/dep2p/go-p2pping/pkg/interfaces"
	"github.com/dep2p/go-p2pping/pkg/types"
)

// ErrMockNotImplemented 未注入行为的方法返回的错误
var ErrMockNotImplemented = errors.New("mock: not implemented")

// MockHost 模拟 Host 接口实现
//
// 流处理器、通知订阅者与连接表都保存在内存中，
// 测试可通过 AddConnection/RemoveConnection 驱动连接生命周期通知。
type MockHost struct {
	IDValue    types.PeerID
	AddrsValue []ma.Multiaddr

	// 可覆盖的方法
	ListenFunc  func(addrs ...ma.Multiaddr) error
	ConnectFunc func(ctx context.Context, addr ma.Multiaddr) (interfaces.Connection, error)
	CloseFunc   func() error

	mu        sync.Mutex
	handlers  map[types.ProtocolID]interfaces.StreamHandler
	notifiers []interfaces.SwarmNotifier
	conns     []interfaces.Connection
}

// NewMockHost 创建带有默认值的 MockHost
func NewMockHost(id types.PeerID) *MockHost {
	return &MockHost{
		IDValue:  id,
		handlers: make(map[types.ProtocolID]interfaces.StreamHandler),
	}
}

// ID 返回本地节点 ID
func (m *MockHost) ID() types.PeerID {
	return m.IDValue
}

// Addrs 返回监听地址
func (m *MockHost) Addrs() []ma.Multiaddr {
	return m.AddrsValue
}

// Listen 监听地址
func (m *MockHost) Listen(addrs ...ma.Multiaddr) error {
	if m.ListenFunc != nil {
		return m.ListenFunc(addrs...)
	}
	m.AddrsValue = append(m.AddrsValue, addrs...)
	return nil
}

// Connect 拨号
func (m *MockHost) Connect(ctx context.Context, addr ma.Multiaddr) (interfaces.Connection, error) {
	if m.ConnectFunc != nil {
		return m.ConnectFunc(ctx, addr)
	}
	return nil, ErrMockNotImplemented
}

// SetStreamHandler 设置流处理器
func (m *MockHost) SetStreamHandler(protocolID types.ProtocolID, handler interfaces.StreamHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[protocolID] = handler
}

// RemoveStreamHandler 移除流处理器
func (m *MockHost) RemoveStreamHandler(protocolID types.ProtocolID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handlers, protocolID)
}

// Handler 返回已注册的流处理器
func (m *MockHost) Handler(protocolID types.ProtocolID) (interfaces.StreamHandler, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.handlers[protocolID]
	return h, ok
}

// Connections 返回当前连接
func (m *MockHost) Connections() []interfaces.Connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]interfaces.Connection(nil), m.conns...)
}

// Notify 注册通知
func (m *MockHost) Notify(n interfaces.SwarmNotifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifiers = append(m.notifiers, n)
}

// StopNotify 取消通知
func (m *MockHost) StopNotify(n interfaces.SwarmNotifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.notifiers {
		if existing == n {
			m.notifiers = append(m.notifiers[:i], m.notifiers[i+1:]...)
			return
		}
	}
}

// NotifierCount 返回当前订阅者数量
func (m *MockHost) NotifierCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.notifiers)
}

// AddConnection 加入连接并同步通知 Connected
func (m *MockHost) AddConnection(conn interfaces.Connection) {
	m.mu.Lock()
	m.conns = append(m.conns, conn)
	notifiers := append([]interfaces.SwarmNotifier(nil), m.notifiers...)
	m.mu.Unlock()

	for _, n := range notifiers {
		n.Connected(conn)
	}
}

// RemoveConnection 移除连接并同步通知 Disconnected
func (m *MockHost) RemoveConnection(conn interfaces.Connection) {
	m.mu.Lock()
	for i, existing := range m.conns {
		if existing == conn {
			m.conns = append(m.conns[:i], m.conns[i+1:]...)
			break
		}
	}
	notifiers := append([]interfaces.SwarmNotifier(nil), m.notifiers...)
	m.mu.Unlock()

	for _, n := range notifiers {
		n.Disconnected(conn)
	}
}

// Close 关闭主机
func (m *MockHost) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

var _ interfaces.Host = (*MockHost)(nil)
