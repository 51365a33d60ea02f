package ping

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-p2pping/pkg/interfaces"
	"github.com/dep2p/go-p2pping/pkg/types"
	"github.com/dep2p/go-p2pping/tests/mocks"
)

var testPeer = types.PeerIDFromPublicKey([]byte("ping-test-remote"))

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ResponderIdleTimeout = 5 * time.Second
	return cfg
}

func newTestSession(t *testing.T, conn interfaces.Connection, clk clock.Clock) *Session {
	t.Helper()
	cfg := testConfig()
	gen, err := NewPayloadGenerator(cfg.PayloadLength)
	require.NoError(t, err)
	m, err := NewMetrics(nil)
	require.NoError(t, err)
	sess := newSession(conn, cfg, gen, clk, m)
	t.Cleanup(sess.Close)
	return sess
}

// echoConn 返回一条每个新流都由对端回显的模拟连接
func echoConn(id string) (*mocks.MockConnection, <-chan *mocks.PipeStream) {
	conn := mocks.NewMockConnection(id, testPeer)
	opened := make(chan *mocks.PipeStream, 16)
	conn.NewStreamFunc = func(_ context.Context, pid types.ProtocolID) (interfaces.Stream, error) {
		local, remote := mocks.NewStreamPair(pid, conn, nil)
		go func() { _ = respond(remote, DefaultConfig().PayloadLength, 5*time.Second) }()
		select {
		case opened <- local:
		default:
		}
		return local, nil
	}
	return conn, opened
}

// stalledStream 返回一个写入成功、读取一直阻塞直到被重置的流
func stalledStream() *mocks.MockStream {
	s := mocks.NewMockStream()
	unblock := make(chan struct{})
	var once sync.Once
	s.ReadFunc = func([]byte) (int, error) {
		<-unblock
		return 0, io.ErrClosedPipe
	}
	s.ResetFunc = func() error {
		once.Do(func() { close(unblock) })
		return nil
	}
	return s
}

// stalledConn 返回一条每个新流都是 stalledStream 的模拟连接
func stalledConn(id string) (*mocks.MockConnection, <-chan *mocks.MockStream) {
	conn := mocks.NewMockConnection(id, testPeer)
	opened := make(chan *mocks.MockStream, 16)
	conn.NewStreamFunc = func(context.Context, types.ProtocolID) (interfaces.Stream, error) {
		s := stalledStream()
		s.ConnValue = conn
		opened <- s
		return s, nil
	}
	return conn, opened
}

func recvStream[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("等待流打开超时")
		var zero T
		return zero
	}
}
