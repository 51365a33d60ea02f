// Package p2pping 提供基于 QUIC 的 libp2p 兼容 Ping 节点
//
// p2pping 在每条连接上周期性发送随机数据并等待对端原样回显，
// 测量往返时延；连续失败达到阈值时断开连接。
//
// # 组成
//
//   - internal/core/host: QUIC Host，负责监听、拨号与按协议 ID 路由流
//   - internal/core/protocol/system/ping: Ping 协议引擎（会话、调度与响应）
//   - internal/core/metrics: Prometheus 指标与流量统计
//   - internal/app: 基于 fx 的模块组装
//   - cmd/p2pping: 命令行入口
//
// # 快速开始
//
//	# 终端 1: 监听
//	p2pping -p 4001
//
//	# 终端 2: 拨号（复制终端 1 输出的地址）
//	p2pping -d /ip4/127.0.0.1/udp/4001/quic-v1/p2p/Qm...
//
// # 协议 ID
//
//   - /ipfs/ping/1.0.0
package p2pping
