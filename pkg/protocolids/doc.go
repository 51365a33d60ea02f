// Package protocolids 定义 p2pping 使用的协议 ID 注册表。
//
// # 唯一真源原则
//
// 所有模块、测试和 CLI 在需要协议 ID 时必须引用本包中的常量，
// 禁止在其他位置定义字面量。
//
// # 协议命名
//
//   - 互通协议: /ipfs/{name}/{version}
//     与其他 libp2p 实现保持一致的线上标识，例如 /ipfs/ping/1.0.0
//   - 测试协议: /p2pping/test/{name}/{version}
//     仅在测试中使用
package protocolids
