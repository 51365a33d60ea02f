package host

import (
	"time"

	"github.com/dep2p/go-p2pping/internal/config"
	"github.com/dep2p/go-p2pping/internal/core/transport/quic"
)

// Config Host 配置
type Config struct {
	// DialTimeout 拨号（含握手）超时
	DialTimeout time.Duration

	// Transport QUIC 传输配置
	Transport quic.Config
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		DialTimeout: config.DefaultDialTimeout,
		Transport:   quic.DefaultConfig(),
	}
}

// ConfigFromUnified 从统一配置创建 Host 配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	t := cfg.Transport
	return Config{
		DialTimeout: t.DialTimeout.Duration(),
		Transport: quic.Config{
			HandshakeTimeout:    t.HandshakeTimeout.Duration(),
			MaxIdleTimeout:      t.MaxIdleTimeout.Duration(),
			KeepAlivePeriod:     t.KeepAlivePeriod.Duration(),
			MaxIncomingStreams:  t.MaxIncomingStreams,
			StreamHeaderTimeout: t.StreamHeaderTimeout.Duration(),
		},
	}
}
