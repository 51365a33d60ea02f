package ping

import (
	"crypto/rand"
	"fmt"
	"io"
)

// PayloadGenerator 生成定长的密码学随机探测数据
type PayloadGenerator struct {
	size   int
	source io.Reader
}

// NewPayloadGenerator 创建生成器，size 必须 >= 1
func NewPayloadGenerator(size int) (*PayloadGenerator, error) {
	return newPayloadGenerator(size, rand.Reader)
}

func newPayloadGenerator(size int, source io.Reader) (*PayloadGenerator, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPayloadLength, size)
	}
	return &PayloadGenerator{size: size, source: source}, nil
}

// Size 返回探测数据长度
func (g *PayloadGenerator) Size() int {
	return g.size
}

// Generate 返回一段新的随机数据
//
// 随机源不可用属于致命错误，直接 panic，不退化为可预测的数据。
func (g *PayloadGenerator) Generate() []byte {
	buf := make([]byte, g.size)
	if _, err := io.ReadFull(g.source, buf); err != nil {
		panic(fmt.Sprintf("ping: random source unavailable: %v", err))
	}
	return buf
}
