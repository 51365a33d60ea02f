package quic

import (
	"time"

	"github.com/quic-go/quic-go"

	"github.com/dep2p/go-p2pping/pkg/interfaces"
	"github.com/dep2p/go-p2pping/pkg/types"
)

// 流重置码
const resetCode quic.StreamErrorCode = 0

// Stream QUIC 流封装
type Stream struct {
	quicStream *quic.Stream
	conn       *Conn
	protocol   types.ProtocolID
}

var _ interfaces.Stream = (*Stream)(nil)

func newStream(qs *quic.Stream, conn *Conn, protocol types.ProtocolID) *Stream {
	return &Stream{
		quicStream: qs,
		conn:       conn,
		protocol:   protocol,
	}
}

// ReadHeader 读取入站流的协议头
func (s *Stream) ReadHeader(timeout time.Duration) (types.ProtocolID, error) {
	if timeout > 0 {
		_ = s.quicStream.SetReadDeadline(time.Now().Add(timeout))
		defer s.quicStream.SetReadDeadline(time.Time{})
	}

	protocol, err := readHeader(s.quicStream)
	if err != nil {
		return "", err
	}
	s.protocol = protocol
	return protocol, nil
}

// Read 读取数据
func (s *Stream) Read(p []byte) (int, error) {
	return s.quicStream.Read(p)
}

// Write 写入数据
func (s *Stream) Write(p []byte) (int, error) {
	return s.quicStream.Write(p)
}

// Close 关闭流：写端发送 FIN，读端停止接收
func (s *Stream) Close() error {
	err := s.quicStream.Close()
	s.quicStream.CancelRead(resetCode)
	return err
}

// Reset 重置流的两个方向
func (s *Stream) Reset() error {
	s.quicStream.CancelWrite(resetCode)
	s.quicStream.CancelRead(resetCode)
	return nil
}

// SetDeadline 设置读写超时
func (s *Stream) SetDeadline(t time.Time) error {
	return s.quicStream.SetDeadline(t)
}

// SetReadDeadline 设置读超时
func (s *Stream) SetReadDeadline(t time.Time) error {
	return s.quicStream.SetReadDeadline(t)
}

// SetWriteDeadline 设置写超时
func (s *Stream) SetWriteDeadline(t time.Time) error {
	return s.quicStream.SetWriteDeadline(t)
}

// Protocol 返回协议 ID
func (s *Stream) Protocol() types.ProtocolID {
	return s.protocol
}

// Conn 返回所属连接
func (s *Stream) Conn() interfaces.Connection {
	return s.conn
}

// StreamID 返回 QUIC 流 ID
func (s *Stream) StreamID() int64 {
	return int64(s.quicStream.StreamID())
}
