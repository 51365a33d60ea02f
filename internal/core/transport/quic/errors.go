package quic

import "errors"

var (
	// ErrTransportClosed 传输已关闭
	ErrTransportClosed = errors.New("transport closed")

	// ErrListenerClosed 监听器已关闭
	ErrListenerClosed = errors.New("listener closed")

	// ErrAlreadyListening 传输已绑定监听地址
	ErrAlreadyListening = errors.New("transport already listening")

	// ErrConnectionClosed 连接已关闭
	ErrConnectionClosed = errors.New("connection closed")

	// ErrNoCertificate 对端未出示证书
	ErrNoCertificate = errors.New("peer presented no TLS certificate")

	// ErrPeerIDMismatch 对端身份与期望不一致
	ErrPeerIDMismatch = errors.New("peer ID mismatch")

	// ErrInvalidHeader 无效的流协议头
	ErrInvalidHeader = errors.New("invalid stream protocol header")
)
