package config

import "time"

// 默认值
const (
	// DefaultListenAddr 默认监听地址（随机端口）
	DefaultListenAddr = "/ip4/0.0.0.0/udp/0/quic-v1"

	DefaultDialTimeout         = 10 * time.Second
	DefaultHandshakeTimeout    = 10 * time.Second
	DefaultMaxIdleTimeout      = 30 * time.Second
	DefaultKeepAlivePeriod     = 15 * time.Second
	DefaultMaxIncomingStreams  = 256
	DefaultStreamHeaderTimeout = 10 * time.Second

	// DefaultPayloadLength 与其他 libp2p 实现互通的探测数据长度
	DefaultPayloadLength          = 32
	DefaultProbeInterval          = 15 * time.Second
	DefaultProbeTimeout           = 10 * time.Second
	DefaultMaxConsecutiveFailures = 3
	DefaultResponderIdleTimeout   = 60 * time.Second
	DefaultHistorySize            = 128

	DefaultMetricsAddr = "127.0.0.1:9464"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)
