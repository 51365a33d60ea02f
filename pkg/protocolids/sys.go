package protocolids

import (
	"github.com/dep2p/go-p2pping/pkg/types"
)

// ============================================================================
// 系统协议 ID
// ============================================================================

// SysPing Ping 协议，用于连接存活检测和往返时延测量
//
// 线上格式：发起方写入 32 字节随机数据，响应方原样回显后关闭流。
const SysPing types.ProtocolID = "/ipfs/ping/1.0.0"

// ============================================================================
// 测试协议 ID
// ============================================================================

// TestEcho 测试用回显协议
const TestEcho types.ProtocolID = "/p2pping/test/echo/1.0.0"

// All 返回所有已注册的协议 ID
func All() []types.ProtocolID {
	return []types.ProtocolID{SysPing, TestEcho}
}
