package interfaces

// SwarmNotifier 连接生命周期通知
//
// 回调可能在主机内部的 goroutine 中同步调用，实现方不应长时间阻塞。
type SwarmNotifier interface {
	// Connected 当建立新连接时调用
	Connected(conn Connection)

	// Disconnected 当连接断开时调用
	Disconnected(conn Connection)
}
