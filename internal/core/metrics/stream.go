package metrics

import (
	"github.com/dep2p/go-p2pping/pkg/interfaces"
	"github.com/dep2p/go-p2pping/pkg/types"
)

// MeteredStream 把读写字节数记入 Reporter 的流
type MeteredStream struct {
	interfaces.Stream
	reporter Reporter
}

// NewMeteredStream 包装流，reporter 为 nil 时原样返回
func NewMeteredStream(s interfaces.Stream, reporter Reporter) interfaces.Stream {
	if reporter == nil {
		return s
	}
	return &MeteredStream{Stream: s, reporter: reporter}
}

// Read 读取并记录接收字节数
func (s *MeteredStream) Read(p []byte) (int, error) {
	n, err := s.Stream.Read(p)
	if n > 0 {
		s.reporter.LogRecvStream(int64(n), s.Protocol(), s.remotePeer())
	}
	return n, err
}

// Write 写入并记录发送字节数
func (s *MeteredStream) Write(p []byte) (int, error) {
	n, err := s.Stream.Write(p)
	if n > 0 {
		s.reporter.LogSentStream(int64(n), s.Protocol(), s.remotePeer())
	}
	return n, err
}

func (s *MeteredStream) remotePeer() types.PeerID {
	if c := s.Conn(); c != nil {
		return c.RemotePeer()
	}
	return types.EmptyPeerID
}
