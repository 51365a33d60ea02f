package types

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPeerID(t *testing.T) PeerID {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return PeerIDFromPublicKey(pub)
}

func TestSplitPeerID(t *testing.T) {
	id := testPeerID(t)

	addr, err := ParseMultiaddr("/ip4/127.0.0.1/udp/4001/quic-v1/p2p/" + id.String())
	require.NoError(t, err)

	transport, got, err := SplitPeerID(addr)
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.Equal(t, "/ip4/127.0.0.1/udp/4001/quic-v1", transport.String())

	joined, err := WithPeerID(transport, id)
	require.NoError(t, err)
	assert.True(t, joined.Equal(addr))
}

func TestSplitPeerID_Missing(t *testing.T) {
	addr, err := ParseMultiaddr("/ip4/127.0.0.1/udp/4001/quic-v1")
	require.NoError(t, err)

	_, _, err = SplitPeerID(addr)
	assert.True(t, errors.Is(err, ErrMissingPeerID))
}

func TestToUDPAddr(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"ip4", "/ip4/192.168.1.10/udp/4001/quic-v1", "192.168.1.10:4001", nil},
		{"ip6", "/ip6/::1/udp/9000/quic-v1", "[::1]:9000", nil},
		{"tcp", "/ip4/127.0.0.1/tcp/4001", "", ErrUnsupportedAddress},
		{"dns", "/dns4/example.com/udp/4001/quic-v1", "", ErrUnsupportedAddress},
		{"no quic", "/ip4/127.0.0.1/udp/4001", "", ErrUnsupportedAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := ParseMultiaddr(tt.input)
			require.NoError(t, err)

			udp, err := ToUDPAddr(addr)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, udp.String())
		})
	}
}

func TestFromUDPAddr(t *testing.T) {
	addr, err := FromUDPAddr(&net.UDPAddr{IP: net.IPv4(10, 0, 0, 1), Port: 5000})
	require.NoError(t, err)
	assert.Equal(t, "/ip4/10.0.0.1/udp/5000/quic-v1", addr.String())

	addr, err = FromUDPAddr(&net.UDPAddr{IP: net.IPv6loopback, Port: 5001})
	require.NoError(t, err)
	assert.Equal(t, "/ip6/::1/udp/5001/quic-v1", addr.String())
}

func TestIsUnspecified(t *testing.T) {
	any4, err := ParseMultiaddr("/ip4/0.0.0.0/udp/0/quic-v1")
	require.NoError(t, err)
	assert.True(t, IsUnspecified(any4))

	lo, err := ParseMultiaddr("/ip4/127.0.0.1/udp/0/quic-v1")
	require.NoError(t, err)
	assert.False(t, IsUnspecified(lo))
}

func TestParseMultiaddr_Invalid(t *testing.T) {
	_, err := ParseMultiaddr("not-an-addr")
	assert.ErrorIs(t, err, ErrInvalidMultiaddr)
}
