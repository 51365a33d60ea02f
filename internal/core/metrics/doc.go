// Package metrics 提供 p2pping 的指标基础设施
//
// # 组成
//
//   - Registry: Prometheus 注册表，附带 Go 运行时与进程采集器
//   - BandwidthCounter: 按协议、按节点统计流量，同时作为 Prometheus 采集器导出
//   - MeteredStream: 包装 interfaces.Stream，把读写字节数记入 Reporter
//   - Server: 可选的 /metrics HTTP 端点
//
// # 快速开始
//
//	reg := metrics.NewRegistry()
//	bwc := metrics.NewBandwidthCounter()
//	reg.MustRegister(bwc)
//
//	stream = metrics.NewMeteredStream(stream, bwc)
//
//	srv := metrics.NewServer("127.0.0.1:9464", reg)
//	_ = srv.Start()
//	defer srv.Stop(context.Background())
//
// # 导出的指标
//
//	p2pping_stream_bytes_total{direction="in|out", protocol="..."}
//
// 协议引擎自己的指标（RTT、探测结果等）在 ping 包中定义并注册到同一个 Registry。
package metrics
