package ping

import "errors"

var (
	// ErrDataMismatch 回显数据与发送数据不一致
	ErrDataMismatch = errors.New("ping: echo data mismatch")

	// ErrProbeInFlight 同一会话已有探测在途
	ErrProbeInFlight = errors.New("ping: probe already in flight")

	// ErrProbeTimeout 探测在超时时间内未收到完整回显
	ErrProbeTimeout = errors.New("ping: probe timeout")

	// ErrConnectionClosed 连接已关闭或会话已销毁
	ErrConnectionClosed = errors.New("ping: connection closed")

	// ErrServiceStopped 服务已停止
	ErrServiceStopped = errors.New("ping: service stopped")

	// ErrInvalidPayloadLength 探测数据长度非法
	ErrInvalidPayloadLength = errors.New("ping: payload length must be at least 1")

	// ErrNilHost 未提供 Host
	ErrNilHost = errors.New("ping: host is nil")
)
