package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"

	sha256 "github.com/minio/sha256-simd"
	"golang.org/x/crypto/hkdf"

	"github.com/dep2p/go-p2pping/pkg/types"
)

// seedSalt HKDF 盐值，变更会导致同一种子派生出不同身份
const seedSalt = "p2pping/identity/seed/v1"

// Identity 节点身份
type Identity struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
	peerID     types.PeerID
}

// Generate 随机生成新身份
func Generate() (*Identity, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("生成密钥失败: %w", err)
	}
	return FromPrivateKey(priv)
}

// FromSeed 由种子确定性派生身份
//
// 种子为 0 时等价于 Generate。
func FromSeed(seed int64) (*Identity, error) {
	if seed == 0 {
		return Generate()
	}

	var secret [8]byte
	binary.BigEndian.PutUint64(secret[:], uint64(seed))

	keySeed := make([]byte, ed25519.SeedSize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret[:], []byte(seedSalt), nil), keySeed); err != nil {
		return nil, fmt.Errorf("派生密钥失败: %w", err)
	}
	return FromPrivateKey(ed25519.NewKeyFromSeed(keySeed))
}

// FromPrivateKey 从私钥创建身份
func FromPrivateKey(priv ed25519.PrivateKey) (*Identity, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, ErrInvalidKeySize
	}
	pub := priv.Public().(ed25519.PublicKey)
	return &Identity{
		privateKey: priv,
		publicKey:  pub,
		peerID:     types.PeerIDFromPublicKey(pub),
	}, nil
}

// ID 返回节点 ID
func (i *Identity) ID() types.PeerID {
	return i.peerID
}

// PublicKey 返回公钥
func (i *Identity) PublicKey() ed25519.PublicKey {
	return i.publicKey
}

// PrivateKey 返回私钥
func (i *Identity) PrivateKey() ed25519.PrivateKey {
	return i.privateKey
}

// Sign 签名数据
func (i *Identity) Sign(data []byte) []byte {
	return ed25519.Sign(i.privateKey, data)
}

// Verify 使用本身份的公钥验证签名
func (i *Identity) Verify(data, signature []byte) bool {
	return ed25519.Verify(i.publicKey, data, signature)
}
