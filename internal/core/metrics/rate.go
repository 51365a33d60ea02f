package metrics

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// rateWindow 速率窗口的桶数，每桶 1 秒
const rateWindow = 60

// RateMeter 速率计算器（基于滑动窗口）
//
// 使用 60 个 1 秒桶来计算最近 60 秒的平均速率。
type RateMeter struct {
	clock clock.Clock

	mu       sync.RWMutex
	buckets  [rateWindow]int64
	lastIdx  int
	lastTime time.Time // 窗口当前桶的起始时间
	lastAdd  time.Time
}

// NewRateMeter 创建速率计算器
func NewRateMeter(clk clock.Clock) *RateMeter {
	if clk == nil {
		clk = clock.New()
	}
	return &RateMeter{
		clock:    clk,
		lastTime: clk.Now(),
		lastAdd:  clk.Now(),
	}
}

// Add 添加字节数到当前桶
func (r *RateMeter) Add(bytes int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	r.advance(now)
	r.buckets[r.lastIdx] += bytes
	r.lastAdd = now
}

// advance 把窗口推进到 now，清空跳过的桶
func (r *RateMeter) advance(now time.Time) {
	seconds := int(now.Sub(r.lastTime) / time.Second)
	if seconds <= 0 {
		return
	}
	if seconds >= rateWindow {
		r.buckets = [rateWindow]int64{}
		r.lastIdx = 0
	} else {
		for i := 0; i < seconds; i++ {
			r.lastIdx = (r.lastIdx + 1) % rateWindow
			r.buckets[r.lastIdx] = 0
		}
	}
	r.lastTime = r.lastTime.Add(time.Duration(seconds) * time.Second)
}

// Rate 返回最近 60 秒的平均速率（字节/秒）
func (r *RateMeter) Rate() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.advance(r.clock.Now())
	var total int64
	for _, v := range r.buckets {
		total += v
	}
	return float64(total) / rateWindow
}

// LastUpdate 返回最后一次 Add 的时间
func (r *RateMeter) LastUpdate() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastAdd
}
