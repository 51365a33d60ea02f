package ping

import (
	"fmt"
	"time"
)

// FailureReason 探测失败原因
type FailureReason int

const (
	// ReasonNone 表示探测成功
	ReasonNone FailureReason = iota
	// ReasonTimeout 超时未收到完整回显
	ReasonTimeout
	// ReasonMismatch 回显数据不一致，对端行为异常
	ReasonMismatch
	// ReasonStreamError 流无法打开或传输中断
	ReasonStreamError
	// ReasonConnectionClosed 连接已关闭，会话不再重试
	ReasonConnectionClosed
	// ReasonServiceStopped 服务停止时结束的会话，只出现在会话摘要中
	ReasonServiceStopped
)

// String 返回原因名称，同时用作指标标签
func (r FailureReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonTimeout:
		return "timeout"
	case ReasonMismatch:
		return "mismatch"
	case ReasonStreamError:
		return "stream_error"
	case ReasonConnectionClosed:
		return "connection_closed"
	case ReasonServiceStopped:
		return "service_stopped"
	default:
		return fmt.Sprintf("unknown(%d)", int(r))
	}
}

// IsFatal 是否立即终止会话
func (r FailureReason) IsFatal() bool {
	return r == ReasonConnectionClosed
}

// Outcome 单次探测结果
//
// Reason 为 ReasonNone 时表示成功，RTT 有效；否则 Err 描述失败细节。
type Outcome struct {
	RTT    time.Duration
	Reason FailureReason
	Err    error
}

// Success 构造成功结果
func Success(rtt time.Duration) Outcome {
	if rtt < 0 {
		rtt = 0
	}
	return Outcome{RTT: rtt}
}

// Failure 构造失败结果
func Failure(reason FailureReason, err error) Outcome {
	return Outcome{Reason: reason, Err: err}
}

// OK 是否成功
func (o Outcome) OK() bool {
	return o.Reason == ReasonNone
}

// String 返回可读描述
func (o Outcome) String() string {
	if o.OK() {
		return fmt.Sprintf("success(rtt=%s)", o.RTT)
	}
	if o.Err != nil {
		return fmt.Sprintf("failure(%s: %v)", o.Reason, o.Err)
	}
	return fmt.Sprintf("failure(%s)", o.Reason)
}
