package ping

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-p2pping/pkg/interfaces"
	"github.com/dep2p/go-p2pping/pkg/types"
)

// rttSmoothing 平均 RTT 的指数加权系数，新样本占 1/8
const rttSmoothing = 8

// Stats 会话统计快照
type Stats struct {
	Probes      int
	Failures    int
	LastRTT     time.Duration
	AvgRTT      time.Duration
	LastSuccess time.Time
	LastReason  FailureReason
}

// Session 单条连接上的 Ping 会话
//
// 会话持有连接的非拥有引用，主动探测与被动回显共享同一个生命周期：
// Close 之后既不会再打开新流，也不会再接受入站流。
type Session struct {
	conn    interfaces.Connection
	cfg     Config
	gen     *PayloadGenerator
	clock   clock.Clock
	metrics *Metrics

	ctx    context.Context
	cancel context.CancelFunc

	// wg 覆盖调度 goroutine、探测 I/O goroutine 与回显流
	wg       sync.WaitGroup
	inFlight atomic.Bool

	mu      sync.Mutex
	streams map[interfaces.Stream]struct{}
	closed  bool

	statsMu sync.Mutex
	stats   Stats
	started time.Time
}

func newSession(conn interfaces.Connection, cfg Config, gen *PayloadGenerator, clk clock.Clock, m *Metrics) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		conn:    conn,
		cfg:     cfg,
		gen:     gen,
		clock:   clk,
		metrics: m,
		ctx:     ctx,
		cancel:  cancel,
		streams: make(map[interfaces.Stream]struct{}),
		started: clk.Now(),
	}
}

// Conn 返回会话绑定的连接
func (s *Session) Conn() interfaces.Connection {
	return s.conn
}

// RemotePeer 返回远端节点 ID
func (s *Session) RemotePeer() types.PeerID {
	return s.conn.RemotePeer()
}

// Stats 返回统计快照
func (s *Session) Stats() Stats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.stats
}

// Done 在会话被销毁或终止后关闭
func (s *Session) Done() <-chan struct{} {
	return s.ctx.Done()
}

// ProbeOnce 执行一次探测
//
// 打开新流，写出随机数据并读回等长回显。无论结果如何，流都会在返回前被关闭或重置。
// timeout 覆盖从打开流到读完回显的全过程。ctx 取消与会话销毁均按 connection_closed 处理。
func (s *Session) ProbeOnce(ctx context.Context, timeout time.Duration) Outcome {
	if !s.inFlight.CompareAndSwap(false, true) {
		return Failure(ReasonStreamError, ErrProbeInFlight)
	}
	defer s.inFlight.Store(false)

	out := s.probe(ctx, timeout)
	s.record(out)
	return out
}

type probeResult struct {
	echo []byte
	rtt  time.Duration
	err  error
}

func (s *Session) probe(ctx context.Context, timeout time.Duration) Outcome {
	if s.conn.IsClosed() || s.ctx.Err() != nil || ctx.Err() != nil {
		return Failure(ReasonConnectionClosed, ErrConnectionClosed)
	}

	// 打开流与回显共享同一个截止时间
	probeCtx, cancel := s.clock.WithTimeout(ctx, timeout)
	defer cancel()
	begin := s.clock.Now()

	stream, err := s.conn.NewStream(probeCtx, ProtocolID)
	if err != nil {
		if probeCtx.Err() != nil && ctx.Err() == nil && s.ctx.Err() == nil {
			return Failure(ReasonTimeout, fmt.Errorf("%w: open stream: %v", ErrProbeTimeout, err))
		}
		return Failure(ReasonStreamError, fmt.Errorf("open stream: %w", err))
	}

	if !s.track(stream) {
		_ = stream.Reset()
		return Failure(ReasonConnectionClosed, ErrConnectionClosed)
	}

	remaining := timeout - s.clock.Since(begin)
	if remaining <= 0 {
		s.untrack(stream)
		_ = stream.Reset()
		return Failure(ReasonTimeout, ErrProbeTimeout)
	}

	payload := s.gen.Generate()
	_ = stream.SetDeadline(time.Now().Add(remaining))

	results := make(chan probeResult, 1)
	go func() {
		defer s.untrack(stream)
		results <- s.exchange(stream, payload)
	}()

	select {
	case r := <-results:
		return s.finish(ctx, stream, payload, r)
	case <-probeCtx.Done():
		_ = stream.Reset()
		if ctx.Err() != nil {
			return Failure(ReasonConnectionClosed, ErrConnectionClosed)
		}
		return Failure(ReasonTimeout, ErrProbeTimeout)
	case <-s.conn.Done():
		_ = stream.Reset()
		return Failure(ReasonConnectionClosed, ErrConnectionClosed)
	case <-s.ctx.Done():
		_ = stream.Reset()
		return Failure(ReasonConnectionClosed, ErrConnectionClosed)
	}
}

// exchange 写出数据并读回回显，RTT 从写入完成计到读取完成
func (s *Session) exchange(stream interfaces.Stream, payload []byte) probeResult {
	if _, err := stream.Write(payload); err != nil {
		return probeResult{err: fmt.Errorf("write: %w", err)}
	}
	start := s.clock.Now()

	echo := make([]byte, len(payload))
	if _, err := io.ReadFull(stream, echo); err != nil {
		return probeResult{err: fmt.Errorf("read: %w", err)}
	}
	return probeResult{echo: echo, rtt: s.clock.Since(start)}
}

func (s *Session) finish(ctx context.Context, stream interfaces.Stream, payload []byte, r probeResult) Outcome {
	if r.err != nil {
		_ = stream.Reset()
		switch {
		case s.ctx.Err() != nil || ctx.Err() != nil || s.conn.IsClosed():
			return Failure(ReasonConnectionClosed, r.err)
		case errors.Is(r.err, os.ErrDeadlineExceeded):
			return Failure(ReasonTimeout, r.err)
		default:
			return Failure(ReasonStreamError, r.err)
		}
	}

	if !bytes.Equal(payload, r.echo) {
		_ = stream.Reset()
		return Failure(ReasonMismatch, ErrDataMismatch)
	}

	_ = stream.Close()
	return Success(r.rtt)
}

func (s *Session) record(out Outcome) {
	s.metrics.observeProbe(out)

	s.statsMu.Lock()
	defer s.statsMu.Unlock()

	s.stats.Probes++
	s.stats.LastReason = out.Reason
	if !out.OK() {
		s.stats.Failures++
		return
	}
	s.stats.LastRTT = out.RTT
	s.stats.LastSuccess = s.clock.Now()
	if s.stats.AvgRTT == 0 {
		s.stats.AvgRTT = out.RTT
	} else {
		s.stats.AvgRTT += (out.RTT - s.stats.AvgRTT) / rttSmoothing
	}
}

// Respond 回显一个入站探测流
//
// 读取至多 PayloadLength 字节，原样写回后关闭流。EOF 或不足长度的数据同样回显，
// 不做任何语义校验。仅传输层错误会重置流。
func (s *Session) Respond(stream interfaces.Stream) {
	if !s.track(stream) {
		_ = stream.Reset()
		return
	}
	defer s.untrack(stream)

	err := respond(stream, s.cfg.PayloadLength, s.cfg.ResponderIdleTimeout)
	s.metrics.observeResponse(err)
	if err != nil {
		log.Debug("回显 Ping 流失败",
			"peer", s.conn.RemotePeer().ShortString(),
			"err", err)
	}
}

// respond 执行一次回显并关闭流，出错时重置流
func respond(stream interfaces.Stream, size int, idle time.Duration) error {
	if idle > 0 {
		_ = stream.SetReadDeadline(time.Now().Add(idle))
	}

	buf := make([]byte, size)
	n, err := io.ReadFull(stream, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		_ = stream.Reset()
		return fmt.Errorf("read: %w", err)
	}

	if n > 0 {
		if _, err := stream.Write(buf[:n]); err != nil {
			_ = stream.Reset()
			return fmt.Errorf("write: %w", err)
		}
	}
	return stream.Close()
}

// track 登记流，会话已关闭时返回 false
func (s *Session) track(stream interfaces.Stream) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.streams[stream] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Session) untrack(stream interfaces.Stream) {
	s.mu.Lock()
	delete(s.streams, stream)
	s.mu.Unlock()
	s.wg.Done()
}

// start 在会话生命周期内运行 fn，会话已关闭时返回 false
func (s *Session) start(fn func(ctx context.Context)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
	return true
}

// shutdown 取消会话并重置所有在途流，不等待
//
// 调度 goroutine 终止自身会话时使用。
func (s *Session) shutdown() bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.closed = true
	streams := make([]interfaces.Stream, 0, len(s.streams))
	for st := range s.streams {
		streams = append(streams, st)
	}
	s.mu.Unlock()

	s.cancel()
	for _, st := range streams {
		_ = st.Reset()
	}
	return true
}

// Close 销毁会话
//
// 取消调度与在途探测，重置所有流，并等待会话内所有 goroutine 退出后返回。
// 不得在会话自身的调度 goroutine 中调用。
func (s *Session) Close() {
	s.shutdown()
	s.wg.Wait()
}

func (s *Session) summary(cause Outcome) SessionSummary {
	st := s.Stats()
	return SessionSummary{
		Peer:        s.conn.RemotePeer(),
		ConnID:      s.conn.ID(),
		Cause:       cause.Reason,
		Err:         cause.Err,
		Probes:      st.Probes,
		Failures:    st.Failures,
		LastRTT:     st.LastRTT,
		AvgRTT:      st.AvgRTT,
		LastSuccess: st.LastSuccess,
		Started:     s.started,
		Ended:       s.clock.Now(),
	}
}

// SessionSummary 已结束会话的摘要
type SessionSummary struct {
	Peer        types.PeerID
	ConnID      string
	Cause       FailureReason
	Err         error
	Probes      int
	Failures    int
	LastRTT     time.Duration
	AvgRTT      time.Duration
	LastSuccess time.Time
	Started     time.Time
	Ended       time.Time
}
