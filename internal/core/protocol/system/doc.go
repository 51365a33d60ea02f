// Package system 实现系统协议
//
// system 包含节点启动时自动注册的系统级协议。
//
// # 系统协议
//
//   - ping: 存活检测与往返时延测量（/ipfs/ping/1.0.0）
package system
