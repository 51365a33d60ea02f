package ping

import (
	"fmt"
	"time"

	"github.com/dep2p/go-p2pping/internal/config"
)

// Config Ping 引擎配置
type Config struct {
	// PayloadLength 探测数据长度（字节）
	PayloadLength int

	// ProbeInterval 成功后到下一次探测的间隔
	ProbeInterval time.Duration

	// ProbeTimeout 单次探测超时
	ProbeTimeout time.Duration

	// MaxConsecutiveFailures 连续失败上限
	MaxConsecutiveFailures int

	// ResponderIdleTimeout 响应方读取超时
	ResponderIdleTimeout time.Duration

	// HistorySize 已结束会话摘要的缓存容量
	HistorySize int
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		PayloadLength:          config.DefaultPayloadLength,
		ProbeInterval:          config.DefaultProbeInterval,
		ProbeTimeout:           config.DefaultProbeTimeout,
		MaxConsecutiveFailures: config.DefaultMaxConsecutiveFailures,
		ResponderIdleTimeout:   config.DefaultResponderIdleTimeout,
		HistorySize:            config.DefaultHistorySize,
	}
}

// ConfigFromUnified 从统一配置创建 Ping 配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	p := cfg.Ping
	return Config{
		PayloadLength:          p.PayloadLength,
		ProbeInterval:          p.ProbeInterval.Duration(),
		ProbeTimeout:           p.ProbeTimeout.Duration(),
		MaxConsecutiveFailures: p.MaxConsecutiveFailures,
		ResponderIdleTimeout:   p.ResponderIdleTimeout.Duration(),
		HistorySize:            p.HistorySize,
	}
}

func (c Config) validate() error {
	switch {
	case c.PayloadLength < 1:
		return fmt.Errorf("%w: %d", ErrInvalidPayloadLength, c.PayloadLength)
	case c.ProbeInterval <= 0:
		return fmt.Errorf("ping: probe interval must be positive")
	case c.ProbeTimeout <= 0:
		return fmt.Errorf("ping: probe timeout must be positive")
	case c.MaxConsecutiveFailures < 1:
		return fmt.Errorf("ping: max consecutive failures must be at least 1")
	case c.HistorySize < 1:
		return fmt.Errorf("ping: history size must be at least 1")
	}
	return nil
}
