package ping

import (
	"context"
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-p2pping/pkg/interfaces"
	"github.com/dep2p/go-p2pping/pkg/protocolids"
	"github.com/dep2p/go-p2pping/pkg/types"
)

// ProtocolID Ping 协议 ID
var ProtocolID = protocolids.SysPing

// Termination 会话终止事件
type Termination struct {
	Peer    types.PeerID
	ConnID  string
	Cause   Outcome
	Summary SessionSummary
}

// TerminationCallback 会话终止回调，在独立 goroutine 中调用
type TerminationCallback func(Termination)

// Option Service 选项
type Option func(*Service)

// WithClock 使用指定时钟
func WithClock(clk clock.Clock) Option {
	return func(s *Service) {
		if clk != nil {
			s.clock = clk
		}
	}
}

// WithMetrics 使用指定指标
func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// Service Ping 服务
//
// 维护连接 ID 到会话的映射，接收 Host 的连接通知并把入站 Ping 流分派给对应会话。
type Service struct {
	host    interfaces.Host
	cfg     Config
	gen     *PayloadGenerator
	clock   clock.Clock
	metrics *Metrics
	history *lru.Cache[types.PeerID, SessionSummary]

	mu        sync.Mutex
	running   bool
	sessions  map[string]*Session
	orphans   map[interfaces.Stream]struct{}
	callbacks []TerminationCallback

	// wg 覆盖无会话的回显流与终止回调
	wg sync.WaitGroup
}

// NewService 创建 Ping 服务
func NewService(host interfaces.Host, cfg Config, opts ...Option) (*Service, error) {
	if host == nil {
		return nil, ErrNilHost
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	gen, err := NewPayloadGenerator(cfg.PayloadLength)
	if err != nil {
		return nil, err
	}
	history, err := lru.New[types.PeerID, SessionSummary](cfg.HistorySize)
	if err != nil {
		return nil, fmt.Errorf("ping: create history: %w", err)
	}

	s := &Service{
		host:     host,
		cfg:      cfg,
		gen:      gen,
		clock:    clock.New(),
		history:  history,
		sessions: make(map[string]*Session),
		orphans:  make(map[interfaces.Stream]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		if s.metrics, err = NewMetrics(nil); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ProtocolID 返回注册到 Host 流路由的协议 ID
func (s *Service) ProtocolID() string {
	return string(ProtocolID)
}

// Config 返回服务配置
func (s *Service) Config() Config {
	return s.cfg
}

// ============================================================================
//                              生命周期
// ============================================================================

// Start 启动服务
//
// 注册流处理器，订阅连接通知，并为已有连接创建会话。重复调用无副作用。
func (s *Service) Start(_ context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	s.host.SetStreamHandler(ProtocolID, s.handleStream)
	s.host.Notify(s)

	for _, conn := range s.host.Connections() {
		s.OnConnectionEstablished(conn)
	}

	log.Info("Ping 服务已启动",
		"protocol", ProtocolID,
		"interval", s.cfg.ProbeInterval,
		"timeout", s.cfg.ProbeTimeout,
		"maxFailures", s.cfg.MaxConsecutiveFailures)
	return nil
}

// Stop 停止服务
//
// 取消所有会话的调度与在途探测，重置所有流，返回后不再有后台活动。
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.sessions = make(map[string]*Session)
	orphans := make([]interfaces.Stream, 0, len(s.orphans))
	for st := range s.orphans {
		orphans = append(orphans, st)
	}
	s.mu.Unlock()

	s.host.StopNotify(s)
	s.host.RemoveStreamHandler(ProtocolID)

	var g errgroup.Group
	for _, sess := range sessions {
		g.Go(func() error {
			sess.Close()
			s.metrics.sessionEnded()
			s.history.Add(sess.RemotePeer(), sess.summary(Failure(ReasonServiceStopped, ErrServiceStopped)))
			return nil
		})
	}
	for _, st := range orphans {
		_ = st.Reset()
	}
	_ = g.Wait()
	s.wg.Wait()

	log.Info("Ping 服务已停止", "sessions", len(sessions))
	return nil
}

// ============================================================================
//                              连接通知
// ============================================================================

// Connected 实现 interfaces.SwarmNotifier
func (s *Service) Connected(conn interfaces.Connection) {
	s.OnConnectionEstablished(conn)
}

// Disconnected 实现 interfaces.SwarmNotifier
func (s *Service) Disconnected(conn interfaces.Connection) {
	s.OnConnectionClosed(conn)
}

// OnConnectionEstablished 为连接创建会话并立即开始探测
//
// 同一连接重复调用返回已有会话。服务未运行时返回 nil。
func (s *Service) OnConnectionEstablished(conn interfaces.Connection) *Session {
	id := conn.ID()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	if sess, ok := s.sessions[id]; ok {
		return sess
	}

	sess := newSession(conn, s.cfg, s.gen, s.clock, s.metrics)
	sched := NewScheduler(sess, s.cfg, s.clock)
	sched.report = func(out Outcome, consecutive int) {
		s.report(sess, out, consecutive)
	}

	s.sessions[id] = sess
	s.metrics.sessionStarted()
	sess.start(func(ctx context.Context) {
		if out, terminated := sched.Run(ctx); terminated {
			s.terminate(sess, out)
		}
	})

	log.Debug("创建 Ping 会话",
		"peer", conn.RemotePeer().ShortString(),
		"conn", id,
		"direction", conn.Direction())
	return sess
}

// OnConnectionClosed 销毁连接对应的会话，没有会话时什么也不做
//
// 会话以 connection_closed 终止，照常触发终止回调。连接已经关闭，不再调用 Close。
// 返回时会话的所有活动均已停止。
func (s *Service) OnConnectionClosed(conn interfaces.Connection) {
	id := conn.ID()

	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.sessions, id)
	callbacks := s.claimCallbacks()
	s.mu.Unlock()

	sess.Close()
	s.reportTermination(sess, Failure(ReasonConnectionClosed, ErrConnectionClosed), callbacks)
}

// ============================================================================
//                              查询
// ============================================================================

// Session 返回连接对应的会话
func (s *Service) Session(connID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[connID]
	return sess, ok
}

// Sessions 返回所有活跃会话
func (s *Service) Sessions() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

// Summary 返回节点最近一次结束的会话摘要
func (s *Service) Summary(peer types.PeerID) (SessionSummary, bool) {
	return s.history.Get(peer)
}

// OnTermination 注册会话终止回调
func (s *Service) OnTermination(cb TerminationCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, cb)
}

// ============================================================================
//                              内部实现
// ============================================================================

// handleStream 处理入站 Ping 流
func (s *Service) handleStream(stream interfaces.Stream) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		_ = stream.Reset()
		return
	}
	var sess *Session
	if conn := stream.Conn(); conn != nil {
		sess = s.sessions[conn.ID()]
	}
	if sess == nil {
		s.orphans[stream] = struct{}{}
		s.wg.Add(1)
	}
	s.mu.Unlock()

	if sess != nil {
		sess.Respond(stream)
		return
	}

	defer func() {
		s.mu.Lock()
		delete(s.orphans, stream)
		s.mu.Unlock()
		s.wg.Done()
	}()

	err := respond(stream, s.cfg.PayloadLength, s.cfg.ResponderIdleTimeout)
	s.metrics.observeResponse(err)
	if err != nil {
		log.Debug("回显 Ping 流失败", "err", err)
	}
}

// terminate 由调度 goroutine 调用，移除会话并关闭连接
func (s *Service) terminate(sess *Session, cause Outcome) {
	id := sess.conn.ID()

	s.mu.Lock()
	if cur, ok := s.sessions[id]; !ok || cur != sess {
		s.mu.Unlock()
		return
	}
	delete(s.sessions, id)
	callbacks := s.claimCallbacks()
	s.mu.Unlock()

	sess.shutdown()
	if err := sess.conn.Close(); err != nil {
		log.Debug("关闭连接失败", "conn", id, "err", err)
	}
	s.reportTermination(sess, cause, callbacks)
}

// claimCallbacks 复制当前回调并登记到 wg，调用方需持有 s.mu
func (s *Service) claimCallbacks() []TerminationCallback {
	callbacks := append([]TerminationCallback(nil), s.callbacks...)
	s.wg.Add(len(callbacks))
	return callbacks
}

// reportTermination 记录已移除会话的终止并异步通知回调
func (s *Service) reportTermination(sess *Session, cause Outcome, callbacks []TerminationCallback) {
	id := sess.conn.ID()
	summary := sess.summary(cause)
	s.history.Add(summary.Peer, summary)
	s.metrics.sessionEnded()
	s.metrics.sessionTerminated(cause.Reason)

	log.Warn("Ping 会话终止",
		"peer", summary.Peer.ShortString(),
		"conn", id,
		"cause", cause.Reason,
		"probes", summary.Probes,
		"failures", summary.Failures,
		"err", cause.Err)

	event := Termination{
		Peer:    summary.Peer,
		ConnID:  id,
		Cause:   cause,
		Summary: summary,
	}
	for _, cb := range callbacks {
		go func() {
			defer s.wg.Done()
			cb(event)
		}()
	}
}

func (s *Service) report(sess *Session, out Outcome, consecutive int) {
	peer := sess.RemotePeer().ShortString()
	switch {
	case out.OK():
		log.Info("Ping 成功", "peer", peer, "rtt", out.RTT)
	case out.Reason == ReasonMismatch:
		log.Warn("Ping 回显数据不匹配",
			"peer", peer,
			"consecutive", consecutive,
			"max", s.cfg.MaxConsecutiveFailures)
	default:
		log.Debug("Ping 失败",
			"peer", peer,
			"reason", out.Reason,
			"consecutive", consecutive,
			"max", s.cfg.MaxConsecutiveFailures,
			"err", out.Err)
	}
}

var _ interfaces.SwarmNotifier = (*Service)(nil)
