package types

import (
	"fmt"

	sha256 "github.com/minio/sha256-simd"
	"github.com/mr-tron/base58"
	"github.com/multiformats/go-varint"
)

// ============================================================================
//                              PeerID - 节点标识
// ============================================================================

// multihash 编码参数（sha2-256）
const (
	multihashSHA256 = 0x12
	sha256DigestLen = 32
)

// PeerID 节点唯一标识符
//
// 由公钥派生：base58(multihash(sha2-256, 公钥))。
// 该格式可直接用作 /p2p/<PeerID> 多地址组件。
type PeerID string

// EmptyPeerID 空节点 ID
const EmptyPeerID PeerID = ""

// PeerIDFromPublicKey 从公钥原始字节派生 PeerID
func PeerIDFromPublicKey(pub []byte) PeerID {
	digest := sha256.Sum256(pub)

	buf := make([]byte, 0, 2+sha256DigestLen)
	buf = append(buf, varint.ToUvarint(multihashSHA256)...)
	buf = append(buf, varint.ToUvarint(sha256DigestLen)...)
	buf = append(buf, digest[:]...)
	return PeerID(base58.Encode(buf))
}

// ParsePeerID 从字符串解析 PeerID
//
// 校验 base58 编码以及 multihash 头（sha2-256，32 字节摘要）。
func ParsePeerID(s string) (PeerID, error) {
	if s == "" {
		return EmptyPeerID, ErrEmptyPeerID
	}

	b, err := base58.Decode(s)
	if err != nil {
		return EmptyPeerID, fmt.Errorf("%w: %v", ErrInvalidPeerID, err)
	}

	code, n, err := varint.FromUvarint(b)
	if err != nil {
		return EmptyPeerID, fmt.Errorf("%w: %v", ErrInvalidPeerID, err)
	}
	if code != multihashSHA256 {
		return EmptyPeerID, fmt.Errorf("%w: unsupported multihash code 0x%x", ErrInvalidPeerID, code)
	}

	length, m, err := varint.FromUvarint(b[n:])
	if err != nil {
		return EmptyPeerID, fmt.Errorf("%w: %v", ErrInvalidPeerID, err)
	}
	if length != sha256DigestLen || len(b[n+m:]) != sha256DigestLen {
		return EmptyPeerID, fmt.Errorf("%w: bad digest length", ErrInvalidPeerID)
	}

	return PeerID(s), nil
}

// String 返回 PeerID 的字符串表示
func (id PeerID) String() string {
	return string(id)
}

// ShortString 返回 PeerID 的短字符串表示（前 8 位...后 3 位）
func (id PeerID) ShortString() string {
	s := string(id)
	if len(s) <= 12 {
		return s
	}
	return s[:8] + "..." + s[len(s)-3:]
}

// IsEmpty 检查 PeerID 是否为空
func (id PeerID) IsEmpty() bool {
	return id == EmptyPeerID
}

// MatchesPublicKey 检查 PeerID 是否由给定公钥派生
func (id PeerID) MatchesPublicKey(pub []byte) bool {
	return !id.IsEmpty() && id == PeerIDFromPublicKey(pub)
}

// ============================================================================
//                              ProtocolID - 协议标识
// ============================================================================

// ProtocolID 协议标识符
type ProtocolID string

// String 返回协议 ID 的字符串表示
func (p ProtocolID) String() string {
	return string(p)
}

// IsEmpty 检查协议 ID 是否为空
func (p ProtocolID) IsEmpty() bool {
	return p == ""
}
