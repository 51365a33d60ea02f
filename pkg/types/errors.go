package types

import "errors"

// ============================================================================
//                              ID 相关错误
// ============================================================================

var (
	// ErrEmptyPeerID 空节点 ID
	ErrEmptyPeerID = errors.New("empty peer ID")

	// ErrInvalidPeerID 无效的节点 ID
	ErrInvalidPeerID = errors.New("invalid peer ID")

	// ErrEmptyProtocolID 空协议 ID
	ErrEmptyProtocolID = errors.New("empty protocol ID")
)

// ============================================================================
//                              地址相关错误
// ============================================================================

var (
	// ErrInvalidMultiaddr 无效的 multiaddr
	ErrInvalidMultiaddr = errors.New("invalid multiaddr")

	// ErrUnsupportedAddress 不支持的地址（仅支持 ip4/ip6 + udp + quic-v1）
	ErrUnsupportedAddress = errors.New("unsupported address: want /ip4|ip6/<ip>/udp/<port>/quic-v1")

	// ErrMissingPeerID 地址缺少 /p2p/ 组件
	ErrMissingPeerID = errors.New("address has no /p2p/ component")
)
