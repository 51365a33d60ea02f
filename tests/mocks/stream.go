package mocks

import (
	"io"
	"sync"
	"time"

	"github.com/dep2p/go-p2pping/pkg/interfaces"
	"github.com/dep2p/go-p2pping/pkg/types"
)

// MockStream 模拟 Stream 接口实现
type MockStream struct {
	mu sync.Mutex

	// 数据存储
	ReadData  []byte // 用于 Read 的预设数据
	WriteData []byte // 写入的数据会追加到这里
	ReadPos   int    // 当前读取位置

	// 状态
	Closed      bool
	ResetCalled bool
	ProtocolID  types.ProtocolID
	ConnValue   interfaces.Connection

	// 可覆盖的方法
	ReadFunc             func(p []byte) (n int, err error)
	WriteFunc            func(p []byte) (n int, err error)
	CloseFunc            func() error
	ResetFunc            func() error
	SetDeadlineFunc      func(t time.Time) error
	SetReadDeadlineFunc  func(t time.Time) error
	SetWriteDeadlineFunc func(t time.Time) error
}

// NewMockStream 创建带有默认值的 MockStream
func NewMockStream() *MockStream {
	return &MockStream{
		WriteData:  make([]byte, 0),
		ProtocolID: "/test/1.0.0",
	}
}

// NewMockStreamWithData 创建带有预设读取数据的 MockStream
func NewMockStreamWithData(data []byte) *MockStream {
	s := NewMockStream()
	s.ReadData = data
	return s
}

// Read 读取数据
func (m *MockStream) Read(p []byte) (n int, err error) {
	if m.ReadFunc != nil {
		return m.ReadFunc(p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Closed || m.ReadPos >= len(m.ReadData) {
		return 0, io.EOF
	}
	n = copy(p, m.ReadData[m.ReadPos:])
	m.ReadPos += n
	return n, nil
}

// Write 写入数据
func (m *MockStream) Write(p []byte) (n int, err error) {
	if m.WriteFunc != nil {
		return m.WriteFunc(p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Closed {
		return 0, io.ErrClosedPipe
	}
	m.WriteData = append(m.WriteData, p...)
	return len(p), nil
}

// Close 关闭流
func (m *MockStream) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	m.mu.Lock()
	m.Closed = true
	m.mu.Unlock()
	return nil
}

// Reset 重置流
func (m *MockStream) Reset() error {
	m.mu.Lock()
	m.Closed = true
	m.ResetCalled = true
	m.mu.Unlock()
	if m.ResetFunc != nil {
		return m.ResetFunc()
	}
	return nil
}

// Written 返回已写入数据的副本
func (m *MockStream) Written() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.WriteData...)
}

// IsClosed 返回是否已关闭（Close 或 Reset）
func (m *MockStream) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Closed
}

// WasReset 返回是否调用过 Reset
func (m *MockStream) WasReset() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ResetCalled
}

// Protocol 返回协议 ID
func (m *MockStream) Protocol() types.ProtocolID {
	return m.ProtocolID
}

// Conn 返回关联的连接
func (m *MockStream) Conn() interfaces.Connection {
	return m.ConnValue
}

// SetDeadline 设置截止时间
func (m *MockStream) SetDeadline(t time.Time) error {
	if m.SetDeadlineFunc != nil {
		return m.SetDeadlineFunc(t)
	}
	return nil
}

// SetReadDeadline 设置读取截止时间
func (m *MockStream) SetReadDeadline(t time.Time) error {
	if m.SetReadDeadlineFunc != nil {
		return m.SetReadDeadlineFunc(t)
	}
	return nil
}

// SetWriteDeadline 设置写入截止时间
func (m *MockStream) SetWriteDeadline(t time.Time) error {
	if m.SetWriteDeadlineFunc != nil {
		return m.SetWriteDeadlineFunc(t)
	}
	return nil
}

var _ interfaces.Stream = (*MockStream)(nil)
