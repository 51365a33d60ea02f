// Package types 定义 p2pping 的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他内部包。
//
// # 文件组织
//
//   - ids.go        - PeerID, ProtocolID
//   - enums.go      - Direction
//   - multiaddr.go  - QUIC 多地址的解析与构建
//   - errors.go     - 公共错误定义
package types
