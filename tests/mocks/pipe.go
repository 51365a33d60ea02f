package mocks

import (
	"net"
	"sync/atomic"

	"github.com/dep2p/go-p2pping/pkg/interfaces"
	"github.com/dep2p/go-p2pping/pkg/types"
)

// pipeConn 为 net.Conn 的别名，嵌入时避免与 Conn() 方法同名
type pipeConn = net.Conn

// PipeStream 基于 net.Pipe 的流实现
//
// net.Pipe 是同步、无缓冲的，并支持截止时间，适合在单进程内模拟真实流。
// 注意 net.Pipe 不支持半关闭，Close 会同时关闭两个方向。
type PipeStream struct {
	pipeConn

	protocol types.ProtocolID
	conn     interfaces.Connection

	closes atomic.Int32
	resets atomic.Int32
}

// NewStreamPair 创建一对相连的流
//
// local 属于 localConn，remote 属于 remoteConn，二者均可为 nil。
func NewStreamPair(protocol types.ProtocolID, localConn, remoteConn interfaces.Connection) (*PipeStream, *PipeStream) {
	a, b := net.Pipe()
	return &PipeStream{pipeConn: a, protocol: protocol, conn: localConn},
		&PipeStream{pipeConn: b, protocol: protocol, conn: remoteConn}
}

// Close 关闭流
func (s *PipeStream) Close() error {
	s.closes.Add(1)
	return s.pipeConn.Close()
}

// Reset 重置流
func (s *PipeStream) Reset() error {
	s.resets.Add(1)
	return s.pipeConn.Close()
}

// Protocol 返回协议 ID
func (s *PipeStream) Protocol() types.ProtocolID {
	return s.protocol
}

// Conn 返回所属连接
func (s *PipeStream) Conn() interfaces.Connection {
	return s.conn
}

// CloseCount 返回 Close 调用次数
func (s *PipeStream) CloseCount() int {
	return int(s.closes.Load())
}

// ResetCount 返回 Reset 调用次数
func (s *PipeStream) ResetCount() int {
	return int(s.resets.Load())
}

// Finished 检查流是否已被关闭或重置
func (s *PipeStream) Finished() bool {
	return s.closes.Load() > 0 || s.resets.Load() > 0
}

var _ interfaces.Stream = (*PipeStream)(nil)
