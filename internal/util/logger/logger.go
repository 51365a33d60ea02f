// Package logger 提供 p2pping 的统一日志系统
//
// 基于标准库 log/slog，支持：
//   - 按子系统配置日志级别
//   - 环境变量配置（P2PPING_LOG_LEVEL, P2PPING_LOG_FORMAT）
//   - 运行时切换输出目标与全局级别
//
// 使用示例:
//
//	package ping
//
//	import "github.com/dep2p/go-p2pping/internal/util/logger"
//
//	var log = logger.Logger("ping")
//
//	func foo() {
//	    log.Info("Ping 成功", "peer", peerID, "rtt", rtt)
//	    log.Debug("探测失败", "reason", reason)
//	}
//
// 环境变量配置:
//
//	# 所有模块为 info，ping 模块为 debug
//	P2PPING_LOG_LEVEL=ping=debug,info
//
//	# 使用 JSON 格式输出
//	P2PPING_LOG_FORMAT=json
package logger

import (
	"io"
	"log/slog"
	"sync"
)

var (
	// loggers 缓存各子系统的 Logger
	loggers sync.Map // map[string]*slog.Logger

	// handlers 缓存各子系统的 Handler（用于动态调整级别）
	handlers sync.Map // map[string]*subsystemHandler

	// levelOverride 由 SetGlobalLevel 设置，对之后创建的 Logger 同样生效
	levelOverride   *slog.Level
	levelOverrideMu sync.RWMutex
)

// Logger 获取指定子系统的 Logger
//
// 同一子系统多次调用返回相同实例。级别来自 P2PPING_LOG_LEVEL，
// 若调用过 SetGlobalLevel 则以其为准。
func Logger(subsystem string) *slog.Logger {
	if l, ok := loggers.Load(subsystem); ok {
		return l.(*slog.Logger)
	}

	cfg := ConfigFromEnv()
	level := cfg.LevelForSubsystem(subsystem)

	levelOverrideMu.RLock()
	if levelOverride != nil {
		if _, explicit := cfg.SubsystemLevels[subsystem]; !explicit {
			level = *levelOverride
		}
	}
	levelOverrideMu.RUnlock()

	handler := newHandler(subsystem, level, cfg.Format)
	logger := slog.New(handler)

	actual, loaded := loggers.LoadOrStore(subsystem, logger)
	if !loaded {
		handlers.Store(subsystem, handler)
	}
	return actual.(*slog.Logger)
}

// SetLevel 动态设置子系统的日志级别
func SetLevel(subsystem string, level slog.Level) {
	if h, ok := handlers.Load(subsystem); ok {
		h.(*subsystemHandler).SetLevel(level)
	}
}

// SetGlobalLevel 设置所有子系统的日志级别
//
// 通过 P2PPING_LOG_LEVEL 显式指定了级别的子系统不受影响。
func SetGlobalLevel(level slog.Level) {
	levelOverrideMu.Lock()
	levelOverride = &level
	levelOverrideMu.Unlock()

	cfg := ConfigFromEnv()
	handlers.Range(func(key, value any) bool {
		if _, explicit := cfg.SubsystemLevels[key.(string)]; !explicit {
			value.(*subsystemHandler).SetLevel(level)
		}
		return true
	})
}

// Discard 返回一个丢弃所有日志的 Logger
func Discard() *slog.Logger {
	return slog.New(DiscardHandler())
}

// With 创建带有预设属性的 Logger
//
//	log := logger.With("host", "peer", peerID)
//	log.Info("已连接")
func With(subsystem string, args ...any) *slog.Logger {
	return Logger(subsystem).With(args...)
}

// SetOutput 设置全局日志输出目标
//
// 已创建的 Logger 同样会被重定向。
//
//	file, _ := os.OpenFile("p2pping.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
//	logger.SetOutput(file)
func SetOutput(w io.Writer) {
	globalOutputMu.Lock()
	globalOutput = w
	globalOutputMu.Unlock()
}
