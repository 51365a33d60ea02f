package ping

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-p2pping/internal/config"
	"github.com/dep2p/go-p2pping/pkg/interfaces"
	"github.com/dep2p/go-p2pping/tests/mocks"
)

func TestModule_Lifecycle(t *testing.T) {
	h := mocks.NewMockHost(localPeer)
	cfg := config.NewConfig()
	cfg.Ping.ProbeInterval = config.Duration(30 * time.Second)
	reg := prometheus.NewRegistry()

	var svc *Service
	app := fxtest.New(t,
		fx.Supply(cfg),
		fx.Provide(func() interfaces.Host { return h }),
		fx.Provide(func() prometheus.Registerer { return reg }),
		Module(),
		fx.Populate(&svc),
	)

	require.NotNil(t, svc)
	assert.Equal(t, 30*time.Second, svc.Config().ProbeInterval)

	app.RequireStart()
	_, ok := h.Handler(ProtocolID)
	assert.True(t, ok)
	assert.Equal(t, 1, h.NotifierCount())

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)

	app.RequireStop()
	_, ok = h.Handler(ProtocolID)
	assert.False(t, ok)
	assert.Equal(t, 0, h.NotifierCount())
}

func TestConfigFromUnified(t *testing.T) {
	assert.Equal(t, DefaultConfig(), ConfigFromUnified(nil))
	assert.Equal(t, DefaultConfig(), ConfigFromUnified(config.NewConfig()))
}
