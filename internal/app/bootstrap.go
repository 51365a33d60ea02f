// Package app 提供 p2pping 应用编排层
//
// app 包负责：
//   - fx 模块组装
//   - 日志配置
//   - 生命周期管理
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/dep2p/go-p2pping/internal/config"
	"github.com/dep2p/go-p2pping/internal/core/host"
	"github.com/dep2p/go-p2pping/internal/core/metrics"
	"github.com/dep2p/go-p2pping/internal/core/protocol/system/ping"
	"github.com/dep2p/go-p2pping/internal/util/logger"
)

var log = logger.Logger("app")

// ErrAlreadyStarted Build 被重复调用
var ErrAlreadyStarted = errors.New("app already started")

// Bootstrap 应用引导程序
//
// Bootstrap 负责：
//   - 校验配置并应用日志设置
//   - 组装 fx 模块
//   - 管理应用生命周期
type Bootstrap struct {
	config       *config.Config
	fxDebug      bool
	extra        []fx.Option
	startTimeout time.Duration
	stopTimeout  time.Duration

	mu      sync.Mutex
	fxApp   *fx.App
	logFile *os.File

	host      *host.Host
	ping      *ping.Service
	bandwidth *metrics.BandwidthCounter
	server    *metrics.Server
}

// New 创建引导程序，cfg 为 nil 时使用默认配置
func New(cfg *config.Config, opts ...Option) *Bootstrap {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	b := &Bootstrap{
		config:       cfg,
		startTimeout: DefaultStartTimeout,
		stopTimeout:  DefaultStopTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Config 返回使用的配置
func (b *Bootstrap) Config() *config.Config {
	return b.config
}

// Build 构建并启动节点
//
// 返回时 Host 已在配置地址上监听，Ping 服务已注册协议处理器。
func (b *Bootstrap) Build() (*Runtime, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.fxApp != nil {
		return nil, ErrAlreadyStarted
	}

	if err := b.config.Validate(); err != nil {
		return nil, fmt.Errorf("配置无效: %w", err)
	}

	// 日志配置必须在所有模块初始化之前应用
	if err := b.setupLogging(); err != nil {
		return nil, fmt.Errorf("设置日志失败: %w", err)
	}

	fxApp := fx.New(
		fx.Options(b.setupModules()...),
		fx.WithLogger(b.fxLogger),
		fx.Populate(&b.host, &b.ping, &b.bandwidth, &b.server),
	)
	if err := fxApp.Err(); err != nil {
		b.closeLogFile()
		return nil, fmt.Errorf("组装模块失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.startTimeout)
	defer cancel()

	if err := fxApp.Start(ctx); err != nil {
		b.closeLogFile()
		return nil, fmt.Errorf("启动应用失败: %w", err)
	}
	b.fxApp = fxApp

	log.Info("节点已启动", "peer", b.host.ID().ShortString(), "addrs", len(b.host.Addrs()))

	return &Runtime{
		Host:      b.host,
		Ping:      b.ping,
		Bandwidth: b.bandwidth,
		Metrics:   b.server,
		stop:      b.Stop,
	}, nil
}

// Stop 停止应用
func (b *Bootstrap) Stop(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.fxApp == nil {
		return nil
	}

	stopCtx, cancel := context.WithTimeout(ctx, b.stopTimeout)
	defer cancel()

	err := b.fxApp.Stop(stopCtx)
	b.fxApp = nil
	log.Info("节点已停止")

	return multierr.Append(err, b.closeLogFile())
}

// setupModules 组装所有 fx 模块
func (b *Bootstrap) setupModules() []fx.Option {
	modules := []fx.Option{
		// 配置（Tier 0）
		fx.Supply(b.config),

		// 基础层（Tier 1）
		FoundationModules(),

		// 传输层（Tier 2）
		TransportModules(),

		// 系统协议（Tier 3）
		ProtocolModules(),
	}
	return append(modules, b.extra...)
}

// fxLogger fx 事件日志，默认丢弃
func (b *Bootstrap) fxLogger() fxevent.Logger {
	if !b.fxDebug {
		return &fxevent.ZapLogger{Logger: zap.NewNop()}
	}
	zl, err := zap.NewDevelopment()
	if err != nil {
		return &fxevent.ZapLogger{Logger: zap.NewNop()}
	}
	return &fxevent.ZapLogger{Logger: zl}
}

// setupLogging 应用日志级别、格式与输出文件
//
// 通过 P2PPING_LOG_FORMAT 指定格式时不覆盖。
func (b *Bootstrap) setupLogging() error {
	cfg := b.config.Log

	if cfg.Level != "" {
		if level, ok := logger.ParseLevel(cfg.Level); ok {
			logger.SetGlobalLevel(level)
		}
	}

	if cfg.Format != "" {
		if _, ok := os.LookupEnv(logger.EnvLogFormat); !ok {
			logger.SetFormat(logger.ParseFormat(cfg.Format))
		}
	}

	if cfg.File == "" {
		return nil
	}

	file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("打开日志文件失败: %w", err)
	}
	b.logFile = file
	logger.SetOutput(file)

	log.Info("日志文件初始化成功", "path", cfg.File)
	return nil
}

func (b *Bootstrap) closeLogFile() error {
	if b.logFile == nil {
		return nil
	}
	logger.SetOutput(os.Stderr)
	err := b.logFile.Close()
	b.logFile = nil
	return err
}
