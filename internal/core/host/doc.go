// Package host 实现 P2P 主机服务
//
// Host 是协议层与传输层之间的门面：
//   - 监听与拨号（QUIC，每个监听地址一个 UDP socket）
//   - 连接表：按连接 ID 记录所有活跃连接
//   - 协议路由：按入站流的协议头分发到已注册的处理器，未知协议直接重置
//   - 连接通知：连接建立与断开时同步回调 SwarmNotifier
//
// # 使用示例
//
//	h, err := host.New(id, host.DefaultConfig())
//	err = h.Listen(listenAddr)
//
//	h.SetStreamHandler(protocolids.SysPing, handler)
//	conn, err := h.Connect(ctx, remoteAddrWithP2P)
//
//	err = h.Close()
//
// # 并发
//
// 每条连接有一个接受流的 goroutine 和一个等待关闭的 goroutine，
// 每个入站流在独立的 goroutine 中处理。Close 会等待它们全部退出。
package host
