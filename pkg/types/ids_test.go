package types

import (
	"crypto/ed25519"
	"crypto/rand"
	"strings"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeerIDFromPublicKey(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	id := PeerIDFromPublicKey(pub)

	assert.True(t, strings.HasPrefix(id.String(), "Qm"), "sha2-256 multihash 应以 Qm 开头: %s", id)
	assert.True(t, id.MatchesPublicKey(pub))
	assert.Equal(t, id, PeerIDFromPublicKey(pub), "同一公钥派生结果应稳定")

	other, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	assert.False(t, id.MatchesPublicKey(other))

	parsed, err := ParsePeerID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParsePeerID_Invalid(t *testing.T) {
	// identity multihash (0x00) 头
	wrongCode := base58.Encode(append([]byte{0x00, 0x20}, make([]byte, 32)...))
	// 摘要长度不足
	short := base58.Encode(append([]byte{0x12, 0x20}, make([]byte, 16)...))

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not base58", "0OIl"},
		{"wrong code", wrongCode},
		{"short digest", short},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePeerID(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestPeerID_ShortString(t *testing.T) {
	id := PeerID("QmTestLongPeerIDValue")
	assert.Equal(t, "QmTestLo...lue", id.ShortString())

	shortID := PeerID("QmShort")
	assert.Equal(t, "QmShort", shortID.ShortString())
}

func TestDirection_String(t *testing.T) {
	assert.Equal(t, "inbound", DirInbound.String())
	assert.Equal(t, "outbound", DirOutbound.String())
	assert.Equal(t, "unknown", DirUnknown.String())
}
