package ping

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

// Prober 执行单次探测
type Prober interface {
	ProbeOnce(ctx context.Context, timeout time.Duration) Outcome
}

// Scheduler 驱动单个会话的周期探测
//
// 状态机: Idle -> Probing -> (成功: 等待间隔后回到 Probing | 失败: 立即重试或终止)。
// 连续失败计数只由 Scheduler 自己修改。
type Scheduler struct {
	prober      Prober
	clock       clock.Clock
	interval    time.Duration
	timeout     time.Duration
	maxFailures int

	failures int

	// report 在每次探测后调用，附带当前连续失败次数
	report func(out Outcome, consecutive int)

	// onWait 在间隔计时器创建后调用
	onWait func(d time.Duration)
}

// NewScheduler 创建调度器
func NewScheduler(p Prober, cfg Config, clk clock.Clock) *Scheduler {
	if clk == nil {
		clk = clock.New()
	}
	return &Scheduler{
		prober:      p,
		clock:       clk,
		interval:    cfg.ProbeInterval,
		timeout:     cfg.ProbeTimeout,
		maxFailures: cfg.MaxConsecutiveFailures,
	}
}

// ConsecutiveFailures 返回当前连续失败次数
//
// 仅应在 Run 所在的 goroutine 或 Run 返回后调用。
func (s *Scheduler) ConsecutiveFailures() int {
	return s.failures
}

// Run 持续探测直到会话终止或 ctx 取消
//
// terminated 为 true 表示因连续失败达到上限或连接关闭而终止，out 为最后一次失败结果。
// ctx 取消时返回 false，此后不会再有任何回调。
func (s *Scheduler) Run(ctx context.Context) (out Outcome, terminated bool) {
	for {
		if ctx.Err() != nil {
			return out, false
		}

		out = s.prober.ProbeOnce(ctx, s.timeout)
		if ctx.Err() != nil {
			return out, false
		}

		if out.OK() {
			s.failures = 0
			s.emit(out)
			if !s.wait(ctx) {
				return out, false
			}
			continue
		}

		s.failures++
		s.emit(out)
		if out.Reason.IsFatal() || s.failures >= s.maxFailures {
			return out, true
		}
	}
}

func (s *Scheduler) emit(out Outcome) {
	if s.report != nil {
		s.report(out, s.failures)
	}
}

// wait 等待探测间隔，ctx 取消时立即停止计时器并返回 false
func (s *Scheduler) wait(ctx context.Context) bool {
	t := s.clock.Timer(s.interval)
	defer t.Stop()

	if s.onWait != nil {
		s.onWait(s.interval)
	}

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
