// Package interfaces 定义 p2pping 的公共接口
//
// 协议引擎只依赖这里定义的能力，具体实现位于 internal/core：
//   - host.go       - Host 门面（监听、拨号、流路由、连接通知）
//   - transport.go  - Connection 与 Stream
//   - swarm.go      - 连接生命周期通知
package interfaces
