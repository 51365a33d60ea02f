package host

import (
	"context"
	"errors"
	"fmt"
	"sync"

	ma "github.com/multiformats/go-multiaddr"
	"go.uber.org/multierr"

	"github.com/dep2p/go-p2pping/internal/core/identity"
	"github.com/dep2p/go-p2pping/internal/core/metrics"
	"github.com/dep2p/go-p2pping/internal/core/transport/quic"
	"github.com/dep2p/go-p2pping/internal/util/logger"
	"github.com/dep2p/go-p2pping/pkg/interfaces"
	"github.com/dep2p/go-p2pping/pkg/types"
)

var log = logger.Logger("host")

// ErrHostClosed Host 已关闭
var ErrHostClosed = errors.New("host closed")

// Option Host 选项
type Option func(*Host)

// WithReporter 统计所有流的收发字节数
func WithReporter(r metrics.Reporter) Option {
	return func(h *Host) {
		h.reporter = r
	}
}

// Host P2P 主机实现
type Host struct {
	identity *identity.Identity
	cfg      Config
	reporter metrics.Reporter

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.RWMutex
	transports []*quic.Transport
	listeners  []*quic.Listener
	dialer     *quic.Transport
	conns      map[string]*hostConn
	handlers   map[types.ProtocolID]interfaces.StreamHandler
	notifiers  []interfaces.SwarmNotifier
	closed     bool
}

var _ interfaces.Host = (*Host)(nil)

// New 创建 Host
func New(id *identity.Identity, cfg Config, opts ...Option) (*Host, error) {
	if id == nil {
		return nil, identity.ErrNilIdentity
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &Host{
		identity: id,
		cfg:      cfg,
		ctx:      ctx,
		cancel:   cancel,
		conns:    make(map[string]*hostConn),
		handlers: make(map[types.ProtocolID]interfaces.StreamHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// ID 返回本地节点 ID
func (h *Host) ID() types.PeerID {
	return h.identity.ID()
}

// Addrs 返回实际监听的地址
func (h *Host) Addrs() []ma.Multiaddr {
	h.mu.RLock()
	defer h.mu.RUnlock()

	addrs := make([]ma.Multiaddr, 0, len(h.listeners))
	for _, l := range h.listeners {
		addrs = append(addrs, l.Addr())
	}
	return addrs
}

// Listen 监听指定地址
func (h *Host) Listen(addrs ...ma.Multiaddr) error {
	for _, addr := range addrs {
		if err := h.listen(addr); err != nil {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
	}
	return nil
}

func (h *Host) listen(addr ma.Multiaddr) error {
	tr, err := quic.New(h.identity, h.cfg.Transport)
	if err != nil {
		return err
	}

	l, err := tr.Listen(addr)
	if err != nil {
		_ = tr.Close()
		return err
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = tr.Close()
		return ErrHostClosed
	}
	h.transports = append(h.transports, tr)
	h.listeners = append(h.listeners, l)
	h.wg.Add(1)
	h.mu.Unlock()

	go h.acceptLoop(l)

	log.Info("开始监听", "addr", l.Addr())
	return nil
}

// acceptLoop 接受入站连接
func (h *Host) acceptLoop(l *quic.Listener) {
	defer h.wg.Done()

	for {
		conn, err := l.Accept(h.ctx)
		if err != nil {
			if !errors.Is(err, quic.ErrListenerClosed) && h.ctx.Err() == nil {
				log.Warn("接受连接失败，停止监听", "addr", l.Addr(), "error", err)
			}
			return
		}
		h.addConn(conn)
	}
}

// Connect 拨号到指定节点
//
// 与该节点已有活跃连接时直接复用。
func (h *Host) Connect(ctx context.Context, addr ma.Multiaddr) (interfaces.Connection, error) {
	raddr, peer, err := types.SplitPeerID(addr)
	if err != nil {
		return nil, err
	}
	if peer == h.ID() {
		return nil, fmt.Errorf("cannot dial self: %s", peer)
	}

	if existing := h.connToPeer(peer); existing != nil {
		return existing, nil
	}

	tr, err := h.dialTransport()
	if err != nil {
		return nil, err
	}

	if h.cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.DialTimeout)
		defer cancel()
	}

	qc, err := tr.Dial(ctx, raddr, peer)
	if err != nil {
		return nil, err
	}

	conn := h.addConn(qc)
	if conn == nil {
		return nil, ErrHostClosed
	}
	log.Debug("已连接", "peer", peer.ShortString(), "addr", raddr)
	return conn, nil
}

// dialTransport 拨号优先复用监听 socket
func (h *Host) dialTransport() (*quic.Transport, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHostClosed
	}
	if len(h.transports) > 0 {
		return h.transports[0], nil
	}
	if h.dialer == nil {
		tr, err := quic.New(h.identity, h.cfg.Transport)
		if err != nil {
			return nil, err
		}
		h.dialer = tr
	}
	return h.dialer, nil
}

func (h *Host) connToPeer(peer types.PeerID) *hostConn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.conns {
		if c.RemotePeer() == peer && !c.IsClosed() {
			return c
		}
	}
	return nil
}

// addConn 登记连接、通知订阅者并启动后台处理，Host 已关闭时返回 nil
func (h *Host) addConn(qc *quic.Conn) *hostConn {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = qc.Close()
		return nil
	}
	conn := &hostConn{Conn: qc, reporter: h.reporter}
	h.conns[conn.ID()] = conn
	notifiers := append([]interfaces.SwarmNotifier(nil), h.notifiers...)
	h.wg.Add(2)
	h.mu.Unlock()

	for _, n := range notifiers {
		n.Connected(conn)
	}

	go h.streamLoop(conn)
	go h.watchConn(conn)
	return conn
}

// watchConn 在连接关闭后将其移出连接表并通知订阅者
func (h *Host) watchConn(conn *hostConn) {
	defer h.wg.Done()

	select {
	case <-conn.Done():
	case <-h.ctx.Done():
		_ = conn.Close()
	}

	h.mu.Lock()
	delete(h.conns, conn.ID())
	notifiers := append([]interfaces.SwarmNotifier(nil), h.notifiers...)
	h.mu.Unlock()

	log.Debug("连接已断开", "peer", conn.RemotePeer().ShortString(), "conn", conn.ID())
	for _, n := range notifiers {
		n.Disconnected(conn)
	}
}

// streamLoop 接受连接上的入站流
func (h *Host) streamLoop(conn *hostConn) {
	defer h.wg.Done()

	for {
		stream, err := conn.AcceptStream(h.ctx)
		if err != nil {
			return
		}
		h.wg.Add(1)
		go h.handleStream(stream)
	}
}

// handleStream 读取协议头并分发到处理器
func (h *Host) handleStream(stream *quic.Stream) {
	defer h.wg.Done()

	protocol, err := stream.ReadHeader(h.cfg.Transport.StreamHeaderTimeout)
	if err != nil {
		log.Debug("读取流协议头失败", "error", err)
		_ = stream.Reset()
		return
	}

	h.mu.RLock()
	handler := h.handlers[protocol]
	h.mu.RUnlock()

	if handler == nil {
		log.Debug("未注册的协议，重置流", "protocol", protocol)
		_ = stream.Reset()
		return
	}

	handler(metrics.NewMeteredStream(stream, h.reporter))
}

// SetStreamHandler 设置流处理器
func (h *Host) SetStreamHandler(protocolID types.ProtocolID, handler interfaces.StreamHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[protocolID] = handler
}

// RemoveStreamHandler 移除流处理器
func (h *Host) RemoveStreamHandler(protocolID types.ProtocolID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.handlers, protocolID)
}

// Connections 返回当前所有活跃连接
func (h *Host) Connections() []interfaces.Connection {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns := make([]interfaces.Connection, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	return conns
}

// Notify 注册连接通知
func (h *Host) Notify(n interfaces.SwarmNotifier) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notifiers = append(h.notifiers, n)
}

// StopNotify 取消连接通知
func (h *Host) StopNotify(n interfaces.SwarmNotifier) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, existing := range h.notifiers {
		if existing == n {
			h.notifiers = append(h.notifiers[:i], h.notifiers[i+1:]...)
			return
		}
	}
}

// Close 关闭 Host：关闭全部连接与监听器，并等待后台 goroutine 退出
func (h *Host) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	conns := make([]*hostConn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	transports := append([]*quic.Transport(nil), h.transports...)
	if h.dialer != nil {
		transports = append(transports, h.dialer)
	}
	h.mu.Unlock()

	h.cancel()

	var err error
	for _, c := range conns {
		err = multierr.Append(err, c.Close())
	}
	for _, tr := range transports {
		err = multierr.Append(err, tr.Close())
	}

	h.wg.Wait()
	log.Info("Host 已关闭")
	return err
}
