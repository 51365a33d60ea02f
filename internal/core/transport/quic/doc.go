// Package quic 提供基于 QUIC 的传输层实现
//
// QUIC 同时提供加密（TLS 1.3）与原生多路复用，一条连接即可承载
// 任意数量的双向流，无需额外的安全握手与复用协议。
//
// # 身份认证
//
// 每个节点用自身 Ed25519 私钥签发自签名证书，双方都必须出示证书。
// 对端节点 ID 总是从证书公钥派生；拨号时还会与地址中的 /p2p/ 组件比对。
//
// # 流协议头
//
// 每个新流的开头是 uvarint(len) || 协议 ID，接收方据此把流路由到处理器。
// 协议头之后的字节完全属于上层协议。
//
// # 地址格式
//
//	/ip4/127.0.0.1/udp/4001/quic-v1
//	/ip6/::1/udp/4001/quic-v1
package quic
