package ping

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-p2pping/pkg/interfaces"
	"github.com/dep2p/go-p2pping/pkg/types"
	"github.com/dep2p/go-p2pping/tests/mocks"
)

// ============================================================================
//                              ProbeOnce
// ============================================================================

func TestProbeOnce_Success(t *testing.T) {
	conn, opened := echoConn("conn-1")
	sess := newTestSession(t, conn, clock.New())

	out := sess.ProbeOnce(context.Background(), time.Second)
	require.True(t, out.OK(), out.String())
	assert.GreaterOrEqual(t, out.RTT, time.Duration(0))

	stream := recvStream(t, opened)
	assert.True(t, stream.Finished(), "探测流应在返回前关闭")
	assert.Equal(t, 1, stream.CloseCount())
	assert.Equal(t, 0, stream.ResetCount())

	st := sess.Stats()
	assert.Equal(t, 1, st.Probes)
	assert.Equal(t, 0, st.Failures)
	assert.Equal(t, out.RTT, st.LastRTT)
	assert.Equal(t, out.RTT, st.AvgRTT)
	assert.False(t, st.LastSuccess.IsZero())
}

func TestProbeOnce_NewStreamPerProbe(t *testing.T) {
	conn, _ := echoConn("conn-1")
	sess := newTestSession(t, conn, clock.New())

	for i := 0; i < 3; i++ {
		require.True(t, sess.ProbeOnce(context.Background(), time.Second).OK())
	}
	assert.Equal(t, 3, conn.NewStreamCalls())
}

func TestProbeOnce_RTTFromWriteCompletion(t *testing.T) {
	mock := clock.NewMock()
	conn := mocks.NewMockConnection("conn-1", testPeer)

	var written []byte
	stream := mocks.NewMockStream()
	stream.WriteFunc = func(p []byte) (int, error) {
		written = append([]byte(nil), p...)
		return len(p), nil
	}
	stream.ReadFunc = func(p []byte) (int, error) {
		mock.Add(7 * time.Millisecond)
		return copy(p, written), nil
	}
	conn.NewStreamFunc = func(context.Context, types.ProtocolID) (interfaces.Stream, error) {
		return stream, nil
	}

	sess := newTestSession(t, conn, mock)
	out := sess.ProbeOnce(context.Background(), time.Second)

	require.True(t, out.OK(), out.String())
	assert.Equal(t, 7*time.Millisecond, out.RTT)
	assert.True(t, stream.IsClosed())
	assert.False(t, stream.WasReset())
}

func TestProbeOnce_Mismatch(t *testing.T) {
	conn := mocks.NewMockConnection("conn-1", testPeer)
	stream := mocks.NewMockStreamWithData(make([]byte, DefaultConfig().PayloadLength))
	conn.NewStreamFunc = func(context.Context, types.ProtocolID) (interfaces.Stream, error) {
		return stream, nil
	}
	sess := newTestSession(t, conn, clock.New())

	out := sess.ProbeOnce(context.Background(), time.Second)
	assert.Equal(t, ReasonMismatch, out.Reason)
	assert.ErrorIs(t, out.Err, ErrDataMismatch)
	assert.True(t, stream.WasReset())
	assert.Len(t, stream.Written(), DefaultConfig().PayloadLength)
}

func TestProbeOnce_OpenStreamFails(t *testing.T) {
	conn := mocks.NewMockConnection("conn-1", testPeer)
	sess := newTestSession(t, conn, clock.New())

	out := sess.ProbeOnce(context.Background(), time.Second)
	assert.Equal(t, ReasonStreamError, out.Reason)
	assert.ErrorIs(t, out.Err, mocks.ErrMockNoStream)
	assert.Equal(t, 1, sess.Stats().Failures)
}

func TestProbeOnce_ConnectionAlreadyClosed(t *testing.T) {
	conn, _ := echoConn("conn-1")
	sess := newTestSession(t, conn, clock.New())
	require.NoError(t, conn.Close())

	out := sess.ProbeOnce(context.Background(), time.Second)
	assert.Equal(t, ReasonConnectionClosed, out.Reason)
	assert.ErrorIs(t, out.Err, ErrConnectionClosed)
	assert.Equal(t, 0, conn.NewStreamCalls())
}

func TestProbeOnce_ReadError(t *testing.T) {
	conn := mocks.NewMockConnection("conn-1", testPeer)
	stream := mocks.NewMockStream()
	stream.ReadFunc = func([]byte) (int, error) { return 0, errors.New("stream broken") }
	conn.NewStreamFunc = func(context.Context, types.ProtocolID) (interfaces.Stream, error) {
		return stream, nil
	}
	sess := newTestSession(t, conn, clock.New())

	out := sess.ProbeOnce(context.Background(), time.Second)
	assert.Equal(t, ReasonStreamError, out.Reason)
	assert.True(t, stream.WasReset())
}

func TestProbeOnce_WriteError(t *testing.T) {
	conn := mocks.NewMockConnection("conn-1", testPeer)
	stream := mocks.NewMockStream()
	stream.WriteFunc = func([]byte) (int, error) { return 0, io.ErrClosedPipe }
	conn.NewStreamFunc = func(context.Context, types.ProtocolID) (interfaces.Stream, error) {
		return stream, nil
	}
	sess := newTestSession(t, conn, clock.New())

	out := sess.ProbeOnce(context.Background(), time.Second)
	assert.Equal(t, ReasonStreamError, out.Reason)
	assert.ErrorIs(t, out.Err, io.ErrClosedPipe)
}

func TestProbeOnce_DeadlineErrorIsTimeout(t *testing.T) {
	conn := mocks.NewMockConnection("conn-1", testPeer)
	stream := mocks.NewMockStream()
	stream.ReadFunc = func([]byte) (int, error) { return 0, os.ErrDeadlineExceeded }
	conn.NewStreamFunc = func(context.Context, types.ProtocolID) (interfaces.Stream, error) {
		return stream, nil
	}
	sess := newTestSession(t, conn, clock.New())

	out := sess.ProbeOnce(context.Background(), time.Second)
	assert.Equal(t, ReasonTimeout, out.Reason)
}

func TestProbeOnce_TimeoutIsBounded(t *testing.T) {
	conn, opened := stalledConn("conn-1")
	sess := newTestSession(t, conn, clock.New())

	const timeout = 100 * time.Millisecond
	start := time.Now()
	out := sess.ProbeOnce(context.Background(), timeout)
	elapsed := time.Since(start)

	assert.Equal(t, ReasonTimeout, out.Reason)
	assert.ErrorIs(t, out.Err, ErrProbeTimeout)
	assert.Less(t, elapsed, timeout+time.Second)
	assert.True(t, recvStream(t, opened).WasReset())
}

func TestSession_OpenAndEchoShareDeadline(t *testing.T) {
	mock := clock.NewMock()
	conn := mocks.NewMockConnection("conn-1", testPeer)
	opened := make(chan *mocks.MockStream, 1)
	conn.NewStreamFunc = func(context.Context, types.ProtocolID) (interfaces.Stream, error) {
		// 打开流耗去大部分预算
		mock.Add(80 * time.Millisecond)
		s := stalledStream()
		opened <- s
		return s, nil
	}
	sess := newTestSession(t, conn, mock)

	result := make(chan Outcome, 1)
	go func() { result <- sess.ProbeOnce(context.Background(), 100*time.Millisecond) }()
	stream := recvStream(t, opened)

	select {
	case out := <-result:
		t.Fatalf("截止时间未到即返回: %s", out)
	case <-time.After(50 * time.Millisecond):
	}

	mock.Add(20 * time.Millisecond)

	select {
	case out := <-result:
		assert.Equal(t, ReasonTimeout, out.Reason)
		assert.ErrorIs(t, out.Err, ErrProbeTimeout)
	case <-time.After(5 * time.Second):
		t.Fatal("截止时间到达后未返回")
	}
	assert.True(t, stream.WasReset())
}

func TestSession_OpenStreamTimeout(t *testing.T) {
	mock := clock.NewMock()
	conn := mocks.NewMockConnection("conn-1", testPeer)
	entered := make(chan struct{})
	conn.NewStreamFunc = func(ctx context.Context, _ types.ProtocolID) (interfaces.Stream, error) {
		close(entered)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	sess := newTestSession(t, conn, mock)

	result := make(chan Outcome, 1)
	go func() { result <- sess.ProbeOnce(context.Background(), 100*time.Millisecond) }()
	recvStream(t, entered)
	mock.Add(100 * time.Millisecond)

	select {
	case out := <-result:
		assert.Equal(t, ReasonTimeout, out.Reason)
		assert.ErrorIs(t, out.Err, ErrProbeTimeout)
	case <-time.After(5 * time.Second):
		t.Fatal("打开流超时后未返回")
	}
}

func TestSession_OpenConsumesWholeBudget(t *testing.T) {
	mock := clock.NewMock()
	conn := mocks.NewMockConnection("conn-1", testPeer)
	stream := mocks.NewMockStream()
	conn.NewStreamFunc = func(context.Context, types.ProtocolID) (interfaces.Stream, error) {
		mock.Add(time.Second)
		return stream, nil
	}
	sess := newTestSession(t, conn, mock)

	out := sess.ProbeOnce(context.Background(), 100*time.Millisecond)
	assert.Equal(t, ReasonTimeout, out.Reason)
	assert.True(t, stream.WasReset())
	assert.Empty(t, stream.Written())
}

func TestProbeOnce_ConnectionClosedInFlight(t *testing.T) {
	conn, opened := stalledConn("conn-1")
	sess := newTestSession(t, conn, clock.New())

	result := make(chan Outcome, 1)
	go func() { result <- sess.ProbeOnce(context.Background(), time.Minute) }()

	stream := recvStream(t, opened)
	require.NoError(t, conn.Close())

	select {
	case out := <-result:
		assert.Equal(t, ReasonConnectionClosed, out.Reason)
	case <-time.After(5 * time.Second):
		t.Fatal("连接关闭后探测未返回")
	}
	assert.True(t, stream.WasReset())
}

func TestProbeOnce_SessionClosedInFlight(t *testing.T) {
	conn, opened := stalledConn("conn-1")
	sess := newTestSession(t, conn, clock.New())

	result := make(chan Outcome, 1)
	go func() { result <- sess.ProbeOnce(context.Background(), time.Minute) }()

	stream := recvStream(t, opened)
	sess.Close()

	out := <-result
	assert.Equal(t, ReasonConnectionClosed, out.Reason)
	assert.True(t, stream.WasReset())

	// 销毁后不再打开新流
	out = sess.ProbeOnce(context.Background(), time.Second)
	assert.Equal(t, ReasonConnectionClosed, out.Reason)
	assert.Equal(t, 1, conn.NewStreamCalls())
}

func TestProbeOnce_ContextCancelled(t *testing.T) {
	conn, opened := stalledConn("conn-1")
	sess := newTestSession(t, conn, clock.New())

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan Outcome, 1)
	go func() { result <- sess.ProbeOnce(ctx, time.Minute) }()

	recvStream(t, opened)
	cancel()

	assert.Equal(t, ReasonConnectionClosed, (<-result).Reason)
}

func TestProbeOnce_RejectsConcurrentProbe(t *testing.T) {
	conn, opened := stalledConn("conn-1")
	sess := newTestSession(t, conn, clock.New())

	result := make(chan Outcome, 1)
	go func() { result <- sess.ProbeOnce(context.Background(), time.Minute) }()
	recvStream(t, opened)

	out := sess.ProbeOnce(context.Background(), time.Second)
	assert.Equal(t, ReasonStreamError, out.Reason)
	assert.ErrorIs(t, out.Err, ErrProbeInFlight)
	assert.Equal(t, 1, conn.NewStreamCalls())

	sess.Close()
	<-result
}

func TestSession_AverageRTT(t *testing.T) {
	sess := newTestSession(t, mocks.NewMockConnection("conn-1", testPeer), clock.New())

	sess.record(Success(80 * time.Millisecond))
	sess.record(Success(160 * time.Millisecond))
	sess.record(Failure(ReasonTimeout, ErrProbeTimeout))

	st := sess.Stats()
	assert.Equal(t, 3, st.Probes)
	assert.Equal(t, 1, st.Failures)
	assert.Equal(t, 160*time.Millisecond, st.LastRTT)
	assert.Equal(t, 90*time.Millisecond, st.AvgRTT)
	assert.Equal(t, ReasonTimeout, st.LastReason)
}

// ============================================================================
//                              Respond
// ============================================================================

func TestRespond_EchoesPayloads(t *testing.T) {
	size := DefaultConfig().PayloadLength
	cases := map[string][]byte{
		"all_zero": make([]byte, size),
		"all_ff":   bytes.Repeat([]byte{0xFF}, size),
		"random":   mustGenerate(t, size),
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			sess := newTestSession(t, mocks.NewMockConnection("conn-1", testPeer), clock.New())
			stream := mocks.NewMockStreamWithData(payload)

			sess.Respond(stream)

			assert.Equal(t, payload, stream.Written())
			assert.True(t, stream.IsClosed())
			assert.False(t, stream.WasReset())
		})
	}
}

func TestRespond_ZeroLength(t *testing.T) {
	sess := newTestSession(t, mocks.NewMockConnection("conn-1", testPeer), clock.New())
	stream := mocks.NewMockStreamWithData(nil)

	sess.Respond(stream)

	assert.Empty(t, stream.Written())
	assert.True(t, stream.IsClosed())
	assert.False(t, stream.WasReset())
}

func TestRespond_ShortPayload(t *testing.T) {
	sess := newTestSession(t, mocks.NewMockConnection("conn-1", testPeer), clock.New())
	stream := mocks.NewMockStreamWithData([]byte("short"))

	sess.Respond(stream)

	assert.Equal(t, []byte("short"), stream.Written())
	assert.True(t, stream.IsClosed())
}

func TestRespond_EchoesAtMostPayloadLength(t *testing.T) {
	size := DefaultConfig().PayloadLength
	data := mustGenerate(t, size*2)
	sess := newTestSession(t, mocks.NewMockConnection("conn-1", testPeer), clock.New())
	stream := mocks.NewMockStreamWithData(data)

	sess.Respond(stream)

	assert.Equal(t, data[:size], stream.Written())
}

func TestRespond_ReadErrorResets(t *testing.T) {
	sess := newTestSession(t, mocks.NewMockConnection("conn-1", testPeer), clock.New())
	stream := mocks.NewMockStream()
	stream.ReadFunc = func([]byte) (int, error) { return 0, os.ErrDeadlineExceeded }

	sess.Respond(stream)

	assert.True(t, stream.WasReset())
	assert.Empty(t, stream.Written())
}

func TestRespond_WriteErrorResets(t *testing.T) {
	sess := newTestSession(t, mocks.NewMockConnection("conn-1", testPeer), clock.New())
	stream := mocks.NewMockStreamWithData([]byte{1, 2, 3})
	stream.WriteFunc = func([]byte) (int, error) { return 0, io.ErrClosedPipe }

	sess.Respond(stream)

	assert.True(t, stream.WasReset())
}

func TestRespond_SetsIdleDeadline(t *testing.T) {
	sess := newTestSession(t, mocks.NewMockConnection("conn-1", testPeer), clock.New())
	stream := mocks.NewMockStreamWithData([]byte{1})

	var deadline time.Time
	stream.SetReadDeadlineFunc = func(d time.Time) error {
		deadline = d
		return nil
	}
	sess.Respond(stream)

	assert.WithinDuration(t, time.Now().Add(testConfig().ResponderIdleTimeout), deadline, time.Second)
}

func TestRespond_AfterCloseResets(t *testing.T) {
	sess := newTestSession(t, mocks.NewMockConnection("conn-1", testPeer), clock.New())
	sess.Close()

	stream := mocks.NewMockStreamWithData([]byte{1, 2, 3})
	sess.Respond(stream)

	assert.True(t, stream.WasReset())
	assert.Empty(t, stream.Written())
}

func TestRespond_DoesNotBlockProbe(t *testing.T) {
	conn, _ := echoConn("conn-1")
	sess := newTestSession(t, conn, clock.New())

	stalled := stalledStream()
	go sess.Respond(stalled)

	out := sess.ProbeOnce(context.Background(), time.Second)
	assert.True(t, out.OK(), out.String())

	sess.Close()
	assert.True(t, stalled.WasReset(), "销毁会话应重置在途回显流")
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	sess := newTestSession(t, mocks.NewMockConnection("conn-1", testPeer), clock.New())
	sess.Close()
	sess.Close()

	select {
	case <-sess.Done():
	default:
		t.Fatal("Close 后 Done 应已关闭")
	}
}

func mustGenerate(t *testing.T, size int) []byte {
	t.Helper()
	gen, err := NewPayloadGenerator(size)
	require.NoError(t, err)
	return gen.Generate()
}
