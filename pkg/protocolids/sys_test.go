package protocolids

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSysPing(t *testing.T) {
	assert.Equal(t, "/ipfs/ping/1.0.0", SysPing.String())
}

func TestAll_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for _, id := range All() {
		assert.True(t, strings.HasPrefix(id.String(), "/"), "协议 ID 必须以 / 开头: %s", id)
		assert.False(t, seen[id.String()], "重复的协议 ID: %s", id)
		seen[id.String()] = true
	}
}
