package ping

import (
	"bytes"
	"errors"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadGenerator_Length(t *testing.T) {
	for _, size := range []int{1, 32, 1024} {
		gen, err := NewPayloadGenerator(size)
		require.NoError(t, err)
		assert.Equal(t, size, gen.Size())
		assert.Len(t, gen.Generate(), size)
	}
}

func TestPayloadGenerator_Fresh(t *testing.T) {
	gen, err := NewPayloadGenerator(32)
	require.NoError(t, err)

	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		p := gen.Generate()
		_, dup := seen[string(p)]
		require.False(t, dup, "第 %d 次生成出现重复数据", i)
		seen[string(p)] = struct{}{}
	}
}

func TestPayloadGenerator_NotConstant(t *testing.T) {
	gen, err := NewPayloadGenerator(32)
	require.NoError(t, err)

	// 32 字节全部相同的概率可以忽略
	p := gen.Generate()
	assert.False(t, bytes.Equal(p, bytes.Repeat(p[:1], len(p))))
}

func TestPayloadGenerator_InvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		_, err := NewPayloadGenerator(size)
		assert.ErrorIs(t, err, ErrInvalidPayloadLength)
	}
}

func TestPayloadGenerator_SourceFailurePanics(t *testing.T) {
	gen, err := newPayloadGenerator(32, iotest.ErrReader(errors.New("entropy exhausted")))
	require.NoError(t, err)

	assert.Panics(t, func() { gen.Generate() })
}
