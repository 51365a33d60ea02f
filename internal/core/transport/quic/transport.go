package quic

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	ma "github.com/multiformats/go-multiaddr"
	"github.com/quic-go/quic-go"
	"go.uber.org/multierr"

	"github.com/dep2p/go-p2pping/internal/core/identity"
	"github.com/dep2p/go-p2pping/internal/util/logger"
	"github.com/dep2p/go-p2pping/pkg/types"
)

var log = logger.Logger("transport")

// Config QUIC 传输配置
type Config struct {
	// HandshakeTimeout 握手空闲超时
	HandshakeTimeout time.Duration

	// MaxIdleTimeout 连接最大空闲时间
	MaxIdleTimeout time.Duration

	// KeepAlivePeriod 保活周期，0 表示不发送保活
	KeepAlivePeriod time.Duration

	// MaxIncomingStreams 单连接最大并发入站流
	MaxIncomingStreams int64

	// StreamHeaderTimeout 读取入站流协议头的超时
	StreamHeaderTimeout time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout:    10 * time.Second,
		MaxIdleTimeout:      30 * time.Second,
		KeepAlivePeriod:     15 * time.Second,
		MaxIncomingStreams:  256,
		StreamHeaderTimeout: 10 * time.Second,
	}
}

// Transport QUIC 传输
//
// 一个 Transport 持有一个 UDP socket，监听与拨号共用该 socket。
// 未调用 Listen 就拨号时，会绑定一个随机端口。
type Transport struct {
	mu sync.Mutex

	identity  *identity.Identity
	cfg       Config
	serverTLS *tls.Config
	clientTLS *tls.Config
	quicConf  *quic.Config

	udpConn       *net.UDPConn
	quicTransport *quic.Transport
	listener      *Listener
	closed        bool
}

// New 创建 QUIC 传输
func New(id *identity.Identity, cfg Config) (*Transport, error) {
	serverTLS, clientTLS, err := newTLSConfigs(id)
	if err != nil {
		return nil, err
	}

	return &Transport{
		identity:  id,
		cfg:       cfg,
		serverTLS: serverTLS,
		clientTLS: clientTLS,
		quicConf: &quic.Config{
			HandshakeIdleTimeout:  cfg.HandshakeTimeout,
			MaxIdleTimeout:        cfg.MaxIdleTimeout,
			KeepAlivePeriod:       cfg.KeepAlivePeriod,
			MaxIncomingStreams:    cfg.MaxIncomingStreams,
			MaxIncomingUniStreams: -1,
		},
	}, nil
}

// LocalPeer 返回本地节点 ID
func (t *Transport) LocalPeer() types.PeerID {
	return t.identity.ID()
}

// Listen 在指定地址上监听
//
// 每个 Transport 只能监听一个地址。
func (t *Transport) Listen(laddr ma.Multiaddr) (*Listener, error) {
	udpAddr, err := types.ToUDPAddr(laddr)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, ErrTransportClosed
	}
	if t.udpConn != nil {
		return nil, ErrAlreadyListening
	}

	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("listen udp: %w", err)
	}
	qtr := &quic.Transport{Conn: conn}

	ql, err := qtr.Listen(t.serverTLS, t.quicConf)
	if err != nil {
		_ = qtr.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("listen: %w", err)
	}

	actual, err := types.FromUDPAddr(conn.LocalAddr().(*net.UDPAddr))
	if err != nil {
		_ = ql.Close()
		_ = qtr.Close()
		_ = conn.Close()
		return nil, err
	}

	t.udpConn = conn
	t.quicTransport = qtr
	t.listener = &Listener{quicListener: ql, addr: actual, transport: t}

	log.Debug("QUIC 监听已启动", "addr", actual)
	return t.listener, nil
}

// Dial 拨号到远端节点并校验其身份
//
// expected 为空时接受任何能完成握手的对端。
func (t *Transport) Dial(ctx context.Context, raddr ma.Multiaddr, expected types.PeerID) (*Conn, error) {
	udpAddr, err := types.ToUDPAddr(raddr)
	if err != nil {
		return nil, err
	}

	qtr, err := t.dialTransport()
	if err != nil {
		return nil, err
	}

	qc, err := qtr.Dial(ctx, udpAddr, t.clientTLS, t.quicConf)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", raddr, err)
	}

	remote, err := ExtractPeerID(qc.ConnectionState().TLS)
	if err != nil {
		_ = qc.CloseWithError(0, "bad certificate")
		return nil, err
	}
	if !expected.IsEmpty() && remote != expected {
		_ = qc.CloseWithError(0, "peer id mismatch")
		return nil, fmt.Errorf("%w: want %s, got %s", ErrPeerIDMismatch, expected, remote)
	}

	return newConn(qc, t.cfg, t.identity.ID(), remote, types.DirOutbound), nil
}

// dialTransport 返回拨号使用的 quic.Transport，必要时绑定随机端口
func (t *Transport) dialTransport() (*quic.Transport, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, ErrTransportClosed
	}
	if t.quicTransport == nil {
		conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: 0})
		if err != nil {
			return nil, fmt.Errorf("listen udp for dial: %w", err)
		}
		t.udpConn = conn
		t.quicTransport = &quic.Transport{Conn: conn}
	}
	return t.quicTransport, nil
}

// Close 关闭传输，包括监听器与其上的全部连接
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	var err error
	if t.listener != nil {
		err = multierr.Append(err, t.listener.Close())
	}
	if t.quicTransport != nil {
		err = multierr.Append(err, t.quicTransport.Close())
	}
	if t.udpConn != nil {
		// quic.Transport 不负责关闭外部传入的 socket
		if cerr := t.udpConn.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = multierr.Append(err, cerr)
		}
	}
	return err
}
