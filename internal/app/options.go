package app

import (
	"time"

	"go.uber.org/fx"
)

// 默认超时
const (
	DefaultStartTimeout = 30 * time.Second
	DefaultStopTimeout  = 30 * time.Second
)

// Option Bootstrap 配置选项
type Option func(*Bootstrap)

// WithFxDebug 将 fx 事件日志输出到 zap 开发日志
func WithFxDebug(enable bool) Option {
	return func(b *Bootstrap) {
		b.fxDebug = enable
	}
}

// WithFxOptions 追加额外的 fx 选项（测试中用于注入或取出依赖）
func WithFxOptions(opts ...fx.Option) Option {
	return func(b *Bootstrap) {
		b.extra = append(b.extra, opts...)
	}
}

// WithStartTimeout 设置启动超时
func WithStartTimeout(d time.Duration) Option {
	return func(b *Bootstrap) {
		if d > 0 {
			b.startTimeout = d
		}
	}
}

// WithStopTimeout 设置停止超时
func WithStopTimeout(d time.Duration) Option {
	return func(b *Bootstrap) {
		if d > 0 {
			b.stopTimeout = d
		}
	}
}
