package ping

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-p2pping/pkg/protocolids"
	"github.com/dep2p/go-p2pping/pkg/types"
	"github.com/dep2p/go-p2pping/tests/mocks"
)

var localPeer = types.PeerIDFromPublicKey([]byte("ping-test-local"))

type serviceFixture struct {
	host    *mocks.MockHost
	svc     *Service
	clock   *clock.Mock
	metrics *Metrics
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	h := mocks.NewMockHost(localPeer)
	mock := clock.NewMock()
	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	svc, err := NewService(h, testConfig(), WithClock(mock), WithMetrics(m))
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Stop() })

	return &serviceFixture{host: h, svc: svc, clock: mock, metrics: m}
}

func (f *serviceFixture) start(t *testing.T) {
	t.Helper()
	require.NoError(t, f.svc.Start(context.Background()))
}

func TestNewService_Validation(t *testing.T) {
	_, err := NewService(nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrNilHost)

	cfg := DefaultConfig()
	cfg.PayloadLength = 0
	_, err = NewService(mocks.NewMockHost(localPeer), cfg)
	assert.ErrorIs(t, err, ErrInvalidPayloadLength)

	cfg = DefaultConfig()
	cfg.MaxConsecutiveFailures = 0
	_, err = NewService(mocks.NewMockHost(localPeer), cfg)
	assert.Error(t, err)
}

func TestService_ProtocolID(t *testing.T) {
	f := newServiceFixture(t)
	assert.Equal(t, "/ipfs/ping/1.0.0", f.svc.ProtocolID())
	assert.Equal(t, protocolids.SysPing, ProtocolID)
}

func TestService_StartRegistersWithHost(t *testing.T) {
	f := newServiceFixture(t)
	existing, _ := echoConn("conn-existing")
	f.host.AddConnection(existing)

	f.start(t)
	f.start(t)

	_, ok := f.host.Handler(ProtocolID)
	assert.True(t, ok)
	assert.Equal(t, 1, f.host.NotifierCount())

	_, ok = f.svc.Session("conn-existing")
	assert.True(t, ok, "启动时应接管已有连接")
}

func TestService_HostNotificationsDriveSessions(t *testing.T) {
	f := newServiceFixture(t)
	f.start(t)

	conn, _ := echoConn("conn-1")
	f.host.AddConnection(conn)
	_, ok := f.svc.Session("conn-1")
	require.True(t, ok)

	f.host.RemoveConnection(conn)
	_, ok = f.svc.Session("conn-1")
	assert.False(t, ok)
	assert.Empty(t, f.svc.Sessions())
}

func TestService_OnConnectionEstablishedIdempotent(t *testing.T) {
	f := newServiceFixture(t)
	f.start(t)

	conn, _ := echoConn("conn-1")
	first := f.svc.OnConnectionEstablished(conn)
	second := f.svc.OnConnectionEstablished(conn)

	require.NotNil(t, first)
	assert.Same(t, first, second)
	assert.Len(t, f.svc.Sessions(), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.sessions))
}

func TestService_ConcurrentEstablish(t *testing.T) {
	f := newServiceFixture(t)
	f.start(t)

	conn, _ := echoConn("conn-1")
	var wg sync.WaitGroup
	sessions := make([]*Session, 16)
	for i := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sessions[i] = f.svc.OnConnectionEstablished(conn)
		}()
	}
	wg.Wait()

	for _, s := range sessions {
		assert.Same(t, sessions[0], s)
	}
	assert.Len(t, f.svc.Sessions(), 1)
}

func TestService_NotRunning(t *testing.T) {
	f := newServiceFixture(t)
	conn, _ := echoConn("conn-1")

	assert.Nil(t, f.svc.OnConnectionEstablished(conn))
	assert.Empty(t, f.svc.Sessions())

	// 没有会话时关闭通知不做任何事
	f.svc.OnConnectionClosed(conn)
}

func TestService_FirstProbeImmediate(t *testing.T) {
	f := newServiceFixture(t)
	f.start(t)

	conn, _ := echoConn("conn-1")
	sess := f.svc.OnConnectionEstablished(conn)
	require.NotNil(t, sess)

	assert.Eventually(t, func() bool {
		return sess.Stats().Probes == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, sess.Stats().Failures)
	assert.Equal(t, 1, conn.NewStreamCalls())
}

func TestService_TerminatesAfterMaxFailures(t *testing.T) {
	f := newServiceFixture(t)

	events := make(chan Termination, 1)
	f.svc.OnTermination(func(ev Termination) { events <- ev })
	f.start(t)

	// 未设置 NewStreamFunc，每次打开流都失败
	conn := mocks.NewMockConnection("conn-dead", testPeer)
	f.svc.OnConnectionEstablished(conn)

	var ev Termination
	select {
	case ev = <-events:
	case <-time.After(5 * time.Second):
		t.Fatal("会话未终止")
	}

	assert.Equal(t, testPeer, ev.Peer)
	assert.Equal(t, "conn-dead", ev.ConnID)
	assert.Equal(t, ReasonStreamError, ev.Cause.Reason)
	assert.Equal(t, 3, ev.Summary.Failures)
	assert.Equal(t, 3, conn.NewStreamCalls())
	assert.Equal(t, 1, conn.CloseCalls(), "终止会话应关闭连接")

	_, ok := f.svc.Session("conn-dead")
	assert.False(t, ok)

	summary, ok := f.svc.Summary(testPeer)
	require.True(t, ok)
	assert.Equal(t, ReasonStreamError, summary.Cause)
	assert.Equal(t, 3, summary.Probes)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.terminations.WithLabelValues("stream_error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.failures.WithLabelValues("stream_error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.sessions))
}

func TestService_CloseDuringProbe(t *testing.T) {
	f := newServiceFixture(t)
	f.start(t)

	terminated := make(chan Termination, 1)
	f.svc.OnTermination(func(ev Termination) { terminated <- ev })

	conn, opened := stalledConn("conn-1")
	sess := f.svc.OnConnectionEstablished(conn)
	require.NotNil(t, sess)
	stream := recvStream(t, opened)

	closed := make(chan struct{})
	go func() {
		f.svc.OnConnectionClosed(conn)
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("OnConnectionClosed 未返回")
	}

	assert.True(t, stream.WasReset())
	_, ok := f.svc.Session("conn-1")
	assert.False(t, ok)

	st := sess.Stats()
	assert.Equal(t, 1, st.Probes)
	assert.Equal(t, ReasonConnectionClosed, st.LastReason)

	summary, ok := f.svc.Summary(testPeer)
	require.True(t, ok)
	assert.Equal(t, ReasonConnectionClosed, summary.Cause)

	select {
	case ev := <-terminated:
		assert.Equal(t, "conn-1", ev.ConnID)
		assert.Equal(t, ReasonConnectionClosed, ev.Cause.Reason)
		assert.ErrorIs(t, ev.Cause.Err, ErrConnectionClosed)
		assert.Equal(t, 1, ev.Summary.Probes)
	case <-time.After(5 * time.Second):
		t.Fatal("连接关闭未触发终止回调")
	}
	// 连接已由对端关闭，不再重复关闭
	assert.Equal(t, 0, conn.CloseCalls())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.terminations.WithLabelValues("connection_closed")))
}

func TestService_DisconnectBetweenPingsReportsTermination(t *testing.T) {
	f := newServiceFixture(t)

	events := make(chan Termination, 2)
	f.svc.OnTermination(func(ev Termination) { events <- ev })
	f.start(t)

	conn, _ := echoConn("conn-1")
	f.host.AddConnection(conn)
	sess, ok := f.svc.Session("conn-1")
	require.True(t, ok)
	assert.Eventually(t, func() bool {
		return sess.Stats().Probes == 1
	}, 5*time.Second, 10*time.Millisecond)

	// 调度器停在两次 Ping 之间
	f.host.RemoveConnection(conn)

	select {
	case ev := <-events:
		assert.Equal(t, testPeer, ev.Peer)
		assert.Equal(t, ReasonConnectionClosed, ev.Cause.Reason)
		assert.Equal(t, 1, ev.Summary.Probes)
		assert.Equal(t, 0, ev.Summary.Failures)
	case <-time.After(5 * time.Second):
		t.Fatal("连接断开未触发终止回调")
	}

	assert.Empty(t, f.svc.Sessions())
	assert.Equal(t, 0, conn.CloseCalls())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.terminations.WithLabelValues("connection_closed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.sessions))

	// 重复的断开通知不会再次上报
	f.svc.OnConnectionClosed(conn)
	select {
	case ev := <-events:
		t.Fatalf("重复上报终止: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestService_StopDrainsEverything(t *testing.T) {
	f := newServiceFixture(t)
	f.start(t)

	connA, openedA := stalledConn("conn-a")
	connB, openedB := stalledConn("conn-b")
	f.svc.OnConnectionEstablished(connA)
	f.svc.OnConnectionEstablished(connB)
	sa := recvStream(t, openedA)
	sb := recvStream(t, openedB)

	// 无会话连接上的入站流
	orphan := stalledStream()
	orphan.ConnValue = mocks.NewMockConnection("conn-unknown", testPeer)
	handler, ok := f.host.Handler(ProtocolID)
	require.True(t, ok)
	go handler(orphan)
	assert.Eventually(t, func() bool {
		f.svc.mu.Lock()
		defer f.svc.mu.Unlock()
		return len(f.svc.orphans) == 1
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, f.svc.Stop())

	assert.Empty(t, f.svc.Sessions())
	assert.True(t, sa.WasReset())
	assert.True(t, sb.WasReset())
	assert.True(t, orphan.WasReset())
	assert.Equal(t, 0, f.host.NotifierCount())
	_, ok = f.host.Handler(ProtocolID)
	assert.False(t, ok)
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.sessions))

	summary, ok := f.svc.Summary(testPeer)
	require.True(t, ok)
	assert.Equal(t, ReasonServiceStopped, summary.Cause)
	assert.ErrorIs(t, summary.Err, ErrServiceStopped)

	// 停止后的通知与入站流
	assert.Nil(t, f.svc.OnConnectionEstablished(connA))
	late := mocks.NewMockStreamWithData([]byte{1})
	handler(late)
	assert.True(t, late.WasReset())

	require.NoError(t, f.svc.Stop())
}

func TestService_HandleStreamRoutesToSession(t *testing.T) {
	f := newServiceFixture(t)
	f.start(t)

	conn, _ := echoConn("conn-1")
	f.svc.OnConnectionEstablished(conn)

	handler, ok := f.host.Handler(ProtocolID)
	require.True(t, ok)

	payload := mustGenerate(t, DefaultConfig().PayloadLength)
	inbound := mocks.NewMockStreamWithData(payload)
	inbound.ConnValue = conn
	handler(inbound)

	assert.Equal(t, payload, inbound.Written())
	assert.True(t, inbound.IsClosed())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.responses.WithLabelValues("echoed")))
}

func TestService_HandleStreamWithoutSession(t *testing.T) {
	f := newServiceFixture(t)
	f.start(t)

	handler, ok := f.host.Handler(ProtocolID)
	require.True(t, ok)

	inbound := mocks.NewMockStreamWithData([]byte("no-session"))
	handler(inbound)

	assert.Equal(t, []byte("no-session"), inbound.Written())
	assert.True(t, inbound.IsClosed())
}

func TestService_Restart(t *testing.T) {
	f := newServiceFixture(t)
	f.start(t)
	require.NoError(t, f.svc.Stop())
	f.start(t)

	conn, _ := echoConn("conn-1")
	assert.NotNil(t, f.svc.OnConnectionEstablished(conn))
	assert.Equal(t, 1, f.host.NotifierCount())
}
