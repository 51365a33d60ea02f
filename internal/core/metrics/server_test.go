package metrics

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_ServesMetrics(t *testing.T) {
	reg := NewRegistry()
	bwc := NewBandwidthCounter()
	reg.MustRegister(bwc)
	bwc.LogSentStream(32, protoPing, peerA)

	srv := NewServer("127.0.0.1:0", reg)
	assert.Nil(t, srv.Addr())
	require.NoError(t, srv.Start())
	defer func() { _ = srv.Stop(context.Background()) }()

	assert.ErrorIs(t, srv.Start(), ErrServerStarted)

	resp, err := http.Get("http://" + srv.Addr().String() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `p2pping_stream_bytes_total{direction="out",protocol="/ipfs/ping/1.0.0"} 32`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestServer_StopIdempotent(t *testing.T) {
	srv := NewServer("127.0.0.1:0", NewRegistry())
	require.NoError(t, srv.Stop(context.Background()))

	require.NoError(t, srv.Start())
	require.NoError(t, srv.Stop(context.Background()))
	require.NoError(t, srv.Stop(context.Background()))
	assert.Nil(t, srv.Addr())
}

func TestServer_ListenError(t *testing.T) {
	srv := NewServer("127.0.0.1:-1", NewRegistry())
	assert.Error(t, srv.Start())
}
