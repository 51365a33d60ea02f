// Package ping 实现 Ping 协议引擎
//
// 协议 ID 为 /ipfs/ping/1.0.0。线上格式没有额外封装：
// 发起方写出 N 字节随机数据，响应方原样回写这 N 字节。
//
// # 组件
//
//   - PayloadGenerator: 从 crypto/rand 生成定长探测数据
//   - Session: 绑定单条连接，负责主动探测（ProbeOnce）与被动回显（Respond）
//   - Scheduler: 决定何时探测，以及失败后是重试还是终止会话
//   - Service: 连接到会话的登记表，对接 Host 的流路由与连接通知
//
// # 调度策略
//
// 会话创建后立即探测一次。成功后等待 ProbeInterval 再探测；
// 失败后立即重试，连续失败达到 MaxConsecutiveFailures 时终止会话并关闭连接。
// connection_closed 不重试，直接终止。任意一次成功都会清零连续失败计数。
//
// # 并发
//
// 每个会话的调度在独立 goroutine 中顺序执行，同一会话最多一个探测在途。
// 每个入站流在 Host 分配的 goroutine 中回显，不会阻塞主动探测。
// Session.Close 与 Service.Stop 返回后，不再有任何后台活动。
package ping
