package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// 环境变量名
const (
	EnvListenAddrs   = "P2PPING_LISTEN_ADDRS"
	EnvIdentitySeed  = "P2PPING_IDENTITY_SEED"
	EnvPayloadLength = "P2PPING_PING_PAYLOAD_LENGTH"
	EnvProbeInterval = "P2PPING_PING_INTERVAL"
	EnvProbeTimeout  = "P2PPING_PING_TIMEOUT"
	EnvMaxFailures   = "P2PPING_PING_MAX_FAILURES"
	EnvMetricsAddr   = "P2PPING_METRICS_ADDR"
	EnvLogFile       = "P2PPING_LOG_FILE"
)

// Load 从文件加载配置
//
// 根据扩展名选择格式：.json 使用 encoding/json，.yaml/.yml 使用 yaml.v3。
// 文件中未出现的字段保持默认值。
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("解析 JSON 配置失败: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("解析 YAML 配置失败: %w", err)
		}
	default:
		return nil, fmt.Errorf("不支持的配置文件格式: %q", ext)
	}

	return cfg, nil
}

// ApplyEnv 应用环境变量覆盖
func ApplyEnv(cfg *Config) error {
	return applyEnv(cfg, os.LookupEnv)
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvListenAddrs); ok && v != "" {
		cfg.ListenAddrs = splitAndTrim(v)
	}

	if v, ok := lookup(EnvIdentitySeed); ok && v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvIdentitySeed, err)
		}
		cfg.Identity.Seed = seed
	}

	if v, ok := lookup(EnvPayloadLength); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPayloadLength, err)
		}
		cfg.Ping.PayloadLength = n
	}

	if v, ok := lookup(EnvProbeInterval); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvProbeInterval, err)
		}
		cfg.Ping.ProbeInterval = Duration(d)
	}

	if v, ok := lookup(EnvProbeTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvProbeTimeout, err)
		}
		cfg.Ping.ProbeTimeout = Duration(d)
	}

	if v, ok := lookup(EnvMaxFailures); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxFailures, err)
		}
		cfg.Ping.MaxConsecutiveFailures = n
	}

	if v, ok := lookup(EnvMetricsAddr); ok && v != "" {
		cfg.Metrics.Enable = true
		cfg.Metrics.ListenAddr = v
	}

	if v, ok := lookup(EnvLogFile); ok && v != "" {
		cfg.Log.File = v
	}

	return nil
}

// splitAndTrim 分割字符串并去除空白
func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}
