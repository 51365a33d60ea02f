package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/dep2p/go-p2pping/internal/util/logger"
	"github.com/dep2p/go-p2pping/pkg/types"
)

// ValidationError 配置校验错误
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("配置错误 [%s]: %s", e.Field, e.Message)
}

// ValidationErrors 多个配置校验错误
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}

	msgs := make([]string, 0, len(e))
	for i := range e {
		msgs = append(msgs, e[i].Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors 是否有错误
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Has 是否包含指定字段的错误
func (e ValidationErrors) Has(field string) bool {
	for i := range e {
		if e[i].Field == field {
			return true
		}
	}
	return false
}

// Validator 配置校验器
type Validator struct {
	errors ValidationErrors
}

// NewValidator 创建校验器
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

func (v *Validator) addError(field, message string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// Errors 返回所有错误
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

// Validate 校验配置
func (c *Config) Validate() error {
	v := NewValidator()

	v.validateListenAddrs(c.ListenAddrs)
	v.validateTransport(&c.Transport)
	v.validatePing(&c.Ping)
	v.validateMetrics(&c.Metrics)
	v.validateLog(&c.Log)

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

func (v *Validator) validateListenAddrs(addrs []string) {
	if len(addrs) == 0 {
		v.addError("listen_addrs", "至少需要一个监听地址")
		return
	}

	for i, addr := range addrs {
		field := fmt.Sprintf("listen_addrs[%d]", i)
		if addr == "" {
			v.addError(field, "地址不能为空")
			continue
		}

		ma, err := types.ParseMultiaddr(addr)
		if err != nil {
			v.addError(field, "无效的 Multiaddr 格式")
			continue
		}
		if _, err := types.ToUDPAddr(ma); err != nil {
			v.addError(field, "仅支持 /ip4|ip6/<ip>/udp/<port>/quic-v1")
		}
	}
}

func (v *Validator) validateTransport(cfg *TransportConfig) {
	if cfg.DialTimeout <= 0 {
		v.addError("transport.dial_timeout", "必须大于 0")
	}
	if cfg.HandshakeTimeout <= 0 {
		v.addError("transport.handshake_timeout", "必须大于 0")
	}
	if cfg.MaxIdleTimeout <= 0 {
		v.addError("transport.max_idle_timeout", "必须大于 0")
	}
	if cfg.KeepAlivePeriod < 0 {
		v.addError("transport.keep_alive_period", "不能为负数")
	}
	if cfg.KeepAlivePeriod >= cfg.MaxIdleTimeout && cfg.KeepAlivePeriod > 0 {
		v.addError("transport.keep_alive_period", "必须小于 max_idle_timeout")
	}
	if cfg.MaxIncomingStreams < 1 {
		v.addError("transport.max_incoming_streams", "必须大于 0")
	}
	if cfg.StreamHeaderTimeout <= 0 {
		v.addError("transport.stream_header_timeout", "必须大于 0")
	}
}

func (v *Validator) validatePing(cfg *PingConfig) {
	if cfg.PayloadLength < 1 {
		v.addError("ping.payload_length", "必须大于 0")
	}
	if cfg.ProbeInterval <= 0 {
		v.addError("ping.probe_interval", "必须大于 0")
	}
	if cfg.ProbeTimeout <= 0 {
		v.addError("ping.probe_timeout", "必须大于 0")
	}
	if cfg.MaxConsecutiveFailures < 1 {
		v.addError("ping.max_consecutive_failures", "必须大于 0")
	}
	if cfg.ResponderIdleTimeout <= 0 {
		v.addError("ping.responder_idle_timeout", "必须大于 0")
	}
	if cfg.HistorySize < 1 {
		v.addError("ping.history_size", "必须大于 0")
	}
}

func (v *Validator) validateMetrics(cfg *MetricsConfig) {
	if !cfg.Enable {
		return
	}
	if _, _, err := net.SplitHostPort(cfg.ListenAddr); err != nil {
		v.addError("metrics.listen_addr", "必须为 host:port 格式")
	}
}

func (v *Validator) validateLog(cfg *LogConfig) {
	if cfg.Level != "" {
		if _, ok := logger.ParseLevel(cfg.Level); !ok {
			v.addError("log.level", "必须为 debug、info、warn 或 error")
		}
	}
	switch strings.ToLower(cfg.Format) {
	case "", "text", "json":
	default:
		v.addError("log.format", "必须为 text 或 json")
	}
}
