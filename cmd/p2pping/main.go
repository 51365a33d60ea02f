// Package main 提供 p2pping 命令行入口
//
// 不带 -d 时作为监听方运行，打印节点 ID 与可分享地址后持续应答探测；
// 带 -d 时连接目标节点并周期性探测，目标会话终止时以非零状态退出。
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	ma "github.com/multiformats/go-multiaddr"

	p2pping "github.com/dep2p/go-p2pping"
	"github.com/dep2p/go-p2pping/internal/app"
	"github.com/dep2p/go-p2pping/internal/config"
	"github.com/dep2p/go-p2pping/internal/core/protocol/system/ping"
	"github.com/dep2p/go-p2pping/internal/util/logger"
	"github.com/dep2p/go-p2pping/pkg/types"
)

var log = logger.Logger("cmd")

// ErrSessionTerminated 目标节点的 Ping 会话已终止
var ErrSessionTerminated = errors.New("ping session terminated")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// run 执行一次完整的 CLI 流程，ctx 取消时正常退出
func run(ctx context.Context, args []string, out io.Writer) error {
	f, err := parseFlags("p2pping", args)
	if err != nil {
		return err
	}

	if f.showVersion {
		fmt.Fprintln(out, p2pping.VersionInfo())
		return nil
	}

	cfg, err := buildConfig(f)
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}

	var target *dialTarget
	if f.dest != "" {
		addr, id, err := parseTarget(f.dest)
		if err != nil {
			return fmt.Errorf("目标地址无效: %w", err)
		}
		target = &dialTarget{addr: addr, peer: id}
	}

	log.Info("启动 p2pping 节点", "version", p2pping.Version, "commit", p2pping.GitCommit)

	rt, err := app.New(cfg, app.WithFxDebug(f.fxDebug)).Build()
	if err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), app.DefaultStopTimeout)
		defer cancel()
		if err := rt.Stop(stopCtx); err != nil {
			log.Warn("关闭节点失败", "err", err)
		}
	}()

	printNodeInfo(out, rt)

	if target == nil {
		fmt.Fprintln(out, "等待对端连接，按 Ctrl+C 退出")
		<-ctx.Done()
		fmt.Fprintln(out, "正在关闭节点...")
		return nil
	}

	return dial(ctx, out, rt, cfg, target)
}

type dialTarget struct {
	addr ma.Multiaddr
	peer types.PeerID
}

// dial 连接目标并等待其会话终止或退出信号
func dial(ctx context.Context, out io.Writer, rt *app.Runtime, cfg *config.Config, target *dialTarget) error {
	terminated := make(chan ping.Termination, 1)
	rt.Ping.OnTermination(func(t ping.Termination) {
		if t.Peer != target.peer {
			return
		}
		select {
		case terminated <- t:
		default:
		}
	})

	dialCtx, cancel := context.WithTimeout(ctx, cfg.Transport.DialTimeout.Duration())
	conn, err := rt.Host.Connect(dialCtx, target.addr)
	cancel()
	if err != nil {
		return fmt.Errorf("连接 %s 失败: %w", target.peer.ShortString(), err)
	}

	fmt.Fprintf(out, "已连接 %s，每 %s 探测一次\n", conn.RemotePeer(), cfg.Ping.ProbeInterval.Duration())

	select {
	case <-ctx.Done():
		fmt.Fprintln(out, "正在关闭节点...")
		return nil
	case t := <-terminated:
		return fmt.Errorf("%w: peer=%s cause=%s probes=%d failures=%d",
			ErrSessionTerminated, t.Peer.ShortString(), t.Cause,
			t.Summary.Probes, t.Summary.Failures)
	}
}

// printNodeInfo 打印节点 ID 与可分享地址
func printNodeInfo(out io.Writer, rt *app.Runtime) {
	fmt.Fprintf(out, "节点 ID: %s\n", rt.Host.ID())
	fmt.Fprintln(out, "连接地址:")
	for _, addr := range rt.Host.ShareableAddrs() {
		fmt.Fprintf(out, "  %s\n", addr)
	}
	if rt.Metrics != nil {
		if a := rt.Metrics.Addr(); a != nil {
			fmt.Fprintf(out, "指标端点: http://%s/metrics\n", a)
		}
	}
	fmt.Fprintf(out, "启动时间: %s\n", time.Now().Format(time.RFC3339))
}
