package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

var (
	// globalOutput 全局日志输出目标，默认为 stderr
	globalOutput   io.Writer = os.Stderr
	globalOutputMu sync.RWMutex
)

// dynamicWriter 每次写入时查找 globalOutput
type dynamicWriter struct{}

func (w *dynamicWriter) Write(p []byte) (n int, err error) {
	globalOutputMu.RLock()
	output := globalOutput
	globalOutputMu.RUnlock()
	return output.Write(p)
}

// formatOverride 由 SetFormat 设置，存储 LogFormat+1，0 表示未设置
var formatOverride atomic.Int32

// SetFormat 设置全局输出格式，已创建的 Logger 同样生效
func SetFormat(f LogFormat) {
	formatOverride.Store(int32(f) + 1)
}

func activeFormat(def LogFormat) LogFormat {
	if v := formatOverride.Load(); v > 0 {
		return LogFormat(v - 1)
	}
	return def
}

// subsystemHandler 支持子系统级别控制的 slog.Handler
//
// 由 With/WithGroup 派生的 Handler 共享同一个 level。
// text 与 json 两个内部 Handler 同步派生，输出时按当前格式选择。
type subsystemHandler struct {
	subsystem string
	level     *slog.LevelVar
	format    LogFormat
	text      slog.Handler
	json      slog.Handler
}

// newHandler 创建新的子系统 Handler
func newHandler(subsystem string, level slog.Level, format LogFormat) *subsystemHandler {
	opts := &slog.HandlerOptions{
		// 过滤在 Enabled 中完成
		Level:     slog.LevelDebug,
		AddSource: ConfigFromEnv().AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Key = "ts"
			}
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok {
					a.Value = slog.StringValue(levelToString(lvl))
				}
			}
			return a
		},
	}

	output := &dynamicWriter{}
	tag := []slog.Attr{slog.String("subsystem", subsystem)}

	lv := new(slog.LevelVar)
	lv.Set(level)

	return &subsystemHandler{
		subsystem: subsystem,
		level:     lv,
		format:    format,
		text:      slog.NewTextHandler(output, opts).WithAttrs(tag),
		json:      slog.NewJSONHandler(output, opts).WithAttrs(tag),
	}
}

// Enabled 检查是否启用指定级别
func (h *subsystemHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle 处理日志记录
func (h *subsystemHandler) Handle(ctx context.Context, r slog.Record) error {
	if activeFormat(h.format) == FormatJSON {
		return h.json.Handle(ctx, r)
	}
	return h.text.Handle(ctx, r)
}

// WithAttrs 添加属性
func (h *subsystemHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &subsystemHandler{
		subsystem: h.subsystem,
		level:     h.level,
		format:    h.format,
		text:      h.text.WithAttrs(attrs),
		json:      h.json.WithAttrs(attrs),
	}
}

// WithGroup 添加组
func (h *subsystemHandler) WithGroup(name string) slog.Handler {
	return &subsystemHandler{
		subsystem: h.subsystem,
		level:     h.level,
		format:    h.format,
		text:      h.text.WithGroup(name),
		json:      h.json.WithGroup(name),
	}
}

// SetLevel 动态设置日志级别
func (h *subsystemHandler) SetLevel(level slog.Level) {
	h.level.Set(level)
}

// levelToString 将日志级别转换为小写字符串
func levelToString(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return "debug"
	case level < slog.LevelWarn:
		return "info"
	case level < slog.LevelError:
		return "warn"
	default:
		return "error"
	}
}

// discardHandler 丢弃所有日志的 Handler（用于测试）
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// DiscardHandler 返回一个丢弃所有日志的 Handler
func DiscardHandler() slog.Handler {
	return discardHandler{}
}
