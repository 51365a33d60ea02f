// Package mocks 提供统一的测试 Mock 实现
//
// # 核心 Mock
//
//   - MockHost: 模拟 interfaces.Host，记录流处理器与连接通知订阅者
//   - MockConnection: 模拟 interfaces.Connection，支持自定义流创建与关闭信号
//   - MockStream: 模拟 interfaces.Stream，支持预设读取数据与写入记录
//   - PipeStream: 基于 net.Pipe 的真实双向流，用于端到端回显测试
//
// # 设计原则
//
//  1. 函数式注入: 每个 Mock 都支持通过 XxxFunc 字段注入自定义行为
//  2. 调用记录: 关键 Mock 记录调用历史，便于验证测试行为
//  3. 并发安全: 协议引擎在多个 goroutine 中访问 Mock，状态字段均受锁保护
//
// # 使用示例
//
//	conn := mocks.NewMockConnection("conn-1", remotePeer)
//	conn.NewStreamFunc = func(ctx context.Context, pid types.ProtocolID) (interfaces.Stream, error) {
//	    local, remote := mocks.NewStreamPair(pid, conn, nil)
//	    go echo(remote)
//	    return local, nil
//	}
package mocks
