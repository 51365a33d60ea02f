// Package config 提供 p2pping 配置管理层
//
// config 包负责：
//   - 定义配置结构（JSON / YAML 双格式）
//   - 提供默认值
//   - 从文件与环境变量加载
//   - 配置校验
//
// 优先级：命令行参数 > 环境变量 > 配置文件 > 默认值。
// 命令行参数由 cmd/p2pping 在加载后覆盖。
package config

// Config 配置结构
type Config struct {
	// ListenAddrs 监听地址（Multiaddr 格式）
	ListenAddrs []string `json:"listen_addrs" yaml:"listen_addrs"`

	// Identity 身份配置
	Identity IdentityConfig `json:"identity" yaml:"identity"`

	// Transport 传输配置
	Transport TransportConfig `json:"transport" yaml:"transport"`

	// Ping Ping 协议配置
	Ping PingConfig `json:"ping" yaml:"ping"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// Log 日志配置
	Log LogConfig `json:"log" yaml:"log"`
}

// IdentityConfig 身份配置
type IdentityConfig struct {
	// Seed 非零时由该值确定性派生密钥，相同种子得到相同节点 ID
	Seed int64 `json:"seed" yaml:"seed"`
}

// TransportConfig QUIC 传输配置
type TransportConfig struct {
	// DialTimeout 拨号（含握手）超时
	DialTimeout Duration `json:"dial_timeout" yaml:"dial_timeout"`

	// HandshakeTimeout 握手空闲超时
	HandshakeTimeout Duration `json:"handshake_timeout" yaml:"handshake_timeout"`

	// MaxIdleTimeout 连接最大空闲时间
	MaxIdleTimeout Duration `json:"max_idle_timeout" yaml:"max_idle_timeout"`

	// KeepAlivePeriod QUIC 保活周期
	KeepAlivePeriod Duration `json:"keep_alive_period" yaml:"keep_alive_period"`

	// MaxIncomingStreams 单连接最大入站流数
	MaxIncomingStreams int64 `json:"max_incoming_streams" yaml:"max_incoming_streams"`

	// StreamHeaderTimeout 读取入站流协议头的超时
	StreamHeaderTimeout Duration `json:"stream_header_timeout" yaml:"stream_header_timeout"`
}

// PingConfig Ping 协议配置
type PingConfig struct {
	// PayloadLength 每次探测的随机数据长度（字节）
	PayloadLength int `json:"payload_length" yaml:"payload_length"`

	// ProbeInterval 探测成功后到下一次探测的间隔
	ProbeInterval Duration `json:"probe_interval" yaml:"probe_interval"`

	// ProbeTimeout 单次探测（写入到读完回显）的超时
	ProbeTimeout Duration `json:"probe_timeout" yaml:"probe_timeout"`

	// MaxConsecutiveFailures 连续失败达到该值时终止会话并关闭连接
	MaxConsecutiveFailures int `json:"max_consecutive_failures" yaml:"max_consecutive_failures"`

	// ResponderIdleTimeout 响应方等待探测数据的最长时间
	ResponderIdleTimeout Duration `json:"responder_idle_timeout" yaml:"responder_idle_timeout"`

	// HistorySize 保留的已结束会话摘要数量
	HistorySize int `json:"history_size" yaml:"history_size"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// Enable 是否启动 /metrics HTTP 端点
	Enable bool `json:"enable" yaml:"enable"`

	// ListenAddr HTTP 端点监听地址（host:port）
	ListenAddr string `json:"listen_addr" yaml:"listen_addr"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 全局日志级别（debug/info/warn/error）
	Level string `json:"level" yaml:"level"`

	// Format 输出格式（text/json）
	Format string `json:"format" yaml:"format"`

	// File 日志文件路径，为空时输出到 stderr
	File string `json:"file" yaml:"file"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		ListenAddrs: []string{DefaultListenAddr},
		Transport: TransportConfig{
			DialTimeout:         Duration(DefaultDialTimeout),
			HandshakeTimeout:    Duration(DefaultHandshakeTimeout),
			MaxIdleTimeout:      Duration(DefaultMaxIdleTimeout),
			KeepAlivePeriod:     Duration(DefaultKeepAlivePeriod),
			MaxIncomingStreams:  DefaultMaxIncomingStreams,
			StreamHeaderTimeout: Duration(DefaultStreamHeaderTimeout),
		},
		Ping: PingConfig{
			PayloadLength:          DefaultPayloadLength,
			ProbeInterval:          Duration(DefaultProbeInterval),
			ProbeTimeout:           Duration(DefaultProbeTimeout),
			MaxConsecutiveFailures: DefaultMaxConsecutiveFailures,
			ResponderIdleTimeout:   Duration(DefaultResponderIdleTimeout),
			HistorySize:            DefaultHistorySize,
		},
		Metrics: MetricsConfig{
			ListenAddr: DefaultMetricsAddr,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
