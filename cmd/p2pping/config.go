package main

import (
	"flag"
	"fmt"
	"time"

	ma "github.com/multiformats/go-multiaddr"

	"github.com/dep2p/go-p2pping/internal/config"
	"github.com/dep2p/go-p2pping/pkg/types"
)

// cliFlags 命令行参数
//
// 零值表示未设置，是否显式指定以 flag.Visit 为准。
type cliFlags struct {
	port        int
	dest        string
	seed        int64
	configFile  string
	interval    time.Duration
	timeout     time.Duration
	maxFailures int
	payload     int
	metricsAddr string
	logFile     string
	logLevel    string
	fxDebug     bool
	showVersion bool

	set map[string]bool
}

// parseFlags 解析命令行参数
func parseFlags(name string, args []string) (*cliFlags, error) {
	f := &cliFlags{set: make(map[string]bool)}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.IntVar(&f.port, "p", 0, "监听的 UDP 端口（0 = 随机端口）")
	fs.StringVar(&f.dest, "d", "", "目标节点地址，例如 /ip4/127.0.0.1/udp/4001/quic-v1/p2p/Qm...")
	fs.Int64Var(&f.seed, "s", 0, "身份种子（0 = 随机身份）")
	fs.StringVar(&f.configFile, "config", "", "配置文件路径（.json / .yaml）")
	fs.DurationVar(&f.interval, "interval", config.DefaultProbeInterval, "探测间隔")
	fs.DurationVar(&f.timeout, "timeout", config.DefaultProbeTimeout, "单次探测超时")
	fs.IntVar(&f.maxFailures, "max-failures", config.DefaultMaxConsecutiveFailures, "连续失败多少次后断开连接")
	fs.IntVar(&f.payload, "payload", config.DefaultPayloadLength, "探测数据长度（字节）")
	fs.StringVar(&f.metricsAddr, "metrics", "", "启用 /metrics 端点并监听该地址（host:port）")
	fs.StringVar(&f.logFile, "log", "", "日志文件路径")
	fs.StringVar(&f.logLevel, "log-level", "", "日志级别（debug/info/warn/error）")
	fs.BoolVar(&f.fxDebug, "fx-debug", false, "输出 fx 依赖注入日志")
	fs.BoolVar(&f.showVersion, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return f, nil
}

// isSet 检查命令行参数是否被显式设置
func (f *cliFlags) isSet(name string) bool {
	return f.set[name]
}

// buildConfig 构建最终配置
//
// 配置优先级（从高到低）：
//  1. 命令行参数
//  2. 环境变量（P2PPING_* 前缀）
//  3. 配置文件
//  4. 默认值
func buildConfig(f *cliFlags) (*config.Config, error) {
	cfg := config.NewConfig()
	if f.configFile != "" {
		loaded, err := config.Load(f.configFile)
		if err != nil {
			return nil, fmt.Errorf("加载配置文件失败: %w", err)
		}
		cfg = loaded
	}

	if err := config.ApplyEnv(cfg); err != nil {
		return nil, fmt.Errorf("环境变量无效: %w", err)
	}

	if f.isSet("p") {
		cfg.ListenAddrs = []string{
			fmt.Sprintf("/ip4/0.0.0.0/udp/%d/quic-v1", f.port),
		}
	}
	if f.isSet("s") {
		cfg.Identity.Seed = f.seed
	}
	if f.isSet("interval") {
		cfg.Ping.ProbeInterval = config.Duration(f.interval)
	}
	if f.isSet("timeout") {
		cfg.Ping.ProbeTimeout = config.Duration(f.timeout)
	}
	if f.isSet("max-failures") {
		cfg.Ping.MaxConsecutiveFailures = f.maxFailures
	}
	if f.isSet("payload") {
		cfg.Ping.PayloadLength = f.payload
	}
	if f.metricsAddr != "" {
		cfg.Metrics.Enable = true
		cfg.Metrics.ListenAddr = f.metricsAddr
	}
	if f.logFile != "" {
		cfg.Log.File = f.logFile
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseTarget 解析 -d 目标地址，必须带 /p2p/ 组件
func parseTarget(s string) (ma.Multiaddr, types.PeerID, error) {
	addr, err := types.ParseMultiaddr(s)
	if err != nil {
		return nil, types.EmptyPeerID, err
	}
	transport, id, err := types.SplitPeerID(addr)
	if err != nil {
		return nil, types.EmptyPeerID, err
	}
	if _, err := types.ToUDPAddr(transport); err != nil {
		return nil, types.EmptyPeerID, err
	}
	return addr, id, nil
}
