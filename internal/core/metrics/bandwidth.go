package metrics

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-p2pping/pkg/types"
)

// Reporter 记录流量
type Reporter interface {
	// LogSentStream 记录流发送字节数
	LogSentStream(size int64, proto types.ProtocolID, peer types.PeerID)

	// LogRecvStream 记录流接收字节数
	LogRecvStream(size int64, proto types.ProtocolID, peer types.PeerID)
}

// meter 单个维度的累计量与速率
type meter struct {
	total atomic.Int64
	rate  *RateMeter
}

func (m *meter) add(size int64) {
	m.total.Add(size)
	m.rate.Add(size)
}

// directional 入站与出站两个方向的计量
type directional struct {
	in, out *meter
}

func (d directional) stats() Stats {
	return Stats{
		TotalIn:  d.in.total.Load(),
		TotalOut: d.out.total.Load(),
		RateIn:   d.in.rate.Rate(),
		RateOut:  d.out.rate.Rate(),
	}
}

// BandwidthCounter 带宽计数器
//
// 跟踪本地节点在各协议流上发送和接收的数据，计数使用原子操作。
type BandwidthCounter struct {
	clock clock.Clock
	total directional

	protocolMu sync.RWMutex
	protocols  map[types.ProtocolID]directional

	peerMu sync.RWMutex
	peers  map[types.PeerID]directional
}

// NewBandwidthCounter 创建带宽计数器
func NewBandwidthCounter() *BandwidthCounter {
	return newBandwidthCounter(clock.New())
}

func newBandwidthCounter(clk clock.Clock) *BandwidthCounter {
	bwc := &BandwidthCounter{
		clock:     clk,
		protocols: make(map[types.ProtocolID]directional),
		peers:     make(map[types.PeerID]directional),
	}
	bwc.total = bwc.newDirectional()
	return bwc
}

func (bwc *BandwidthCounter) newDirectional() directional {
	return directional{
		in:  &meter{rate: NewRateMeter(bwc.clock)},
		out: &meter{rate: NewRateMeter(bwc.clock)},
	}
}

// LogSentStream 记录通过流发送的字节数
func (bwc *BandwidthCounter) LogSentStream(size int64, proto types.ProtocolID, p types.PeerID) {
	bwc.total.out.add(size)
	bwc.forProtocol(proto).out.add(size)
	bwc.forPeer(p).out.add(size)
}

// LogRecvStream 记录通过流接收的字节数
func (bwc *BandwidthCounter) LogRecvStream(size int64, proto types.ProtocolID, p types.PeerID) {
	bwc.total.in.add(size)
	bwc.forProtocol(proto).in.add(size)
	bwc.forPeer(p).in.add(size)
}

func (bwc *BandwidthCounter) forProtocol(proto types.ProtocolID) directional {
	bwc.protocolMu.RLock()
	d, ok := bwc.protocols[proto]
	bwc.protocolMu.RUnlock()
	if ok {
		return d
	}

	bwc.protocolMu.Lock()
	defer bwc.protocolMu.Unlock()
	if d, ok = bwc.protocols[proto]; !ok {
		d = bwc.newDirectional()
		bwc.protocols[proto] = d
	}
	return d
}

func (bwc *BandwidthCounter) forPeer(p types.PeerID) directional {
	bwc.peerMu.RLock()
	d, ok := bwc.peers[p]
	bwc.peerMu.RUnlock()
	if ok {
		return d
	}

	bwc.peerMu.Lock()
	defer bwc.peerMu.Unlock()
	if d, ok = bwc.peers[p]; !ok {
		d = bwc.newDirectional()
		bwc.peers[p] = d
	}
	return d
}

// Totals 返回总带宽统计
func (bwc *BandwidthCounter) Totals() Stats {
	return bwc.total.stats()
}

// ForProtocol 返回协议带宽统计，未见过的协议返回零值
func (bwc *BandwidthCounter) ForProtocol(proto types.ProtocolID) Stats {
	bwc.protocolMu.RLock()
	d, ok := bwc.protocols[proto]
	bwc.protocolMu.RUnlock()
	if !ok {
		return Stats{}
	}
	return d.stats()
}

// ForPeer 返回节点带宽统计，未见过的节点返回零值
func (bwc *BandwidthCounter) ForPeer(p types.PeerID) Stats {
	bwc.peerMu.RLock()
	d, ok := bwc.peers[p]
	bwc.peerMu.RUnlock()
	if !ok {
		return Stats{}
	}
	return d.stats()
}

// ByProtocol 返回所有协议带宽统计
func (bwc *BandwidthCounter) ByProtocol() map[types.ProtocolID]Stats {
	bwc.protocolMu.RLock()
	defer bwc.protocolMu.RUnlock()

	result := make(map[types.ProtocolID]Stats, len(bwc.protocols))
	for proto, d := range bwc.protocols {
		result[proto] = d.stats()
	}
	return result
}

// TrimIdle 清理 since 之后没有流量的节点统计
//
// 节点随连接来去，长时间运行时需要定期清理；协议集合是固定的，不做清理。
func (bwc *BandwidthCounter) TrimIdle(since time.Time) int {
	bwc.peerMu.Lock()
	defer bwc.peerMu.Unlock()

	trimmed := 0
	for p, d := range bwc.peers {
		if d.in.rate.LastUpdate().Before(since) && d.out.rate.LastUpdate().Before(since) {
			delete(bwc.peers, p)
			trimmed++
		}
	}
	return trimmed
}

var _ Reporter = (*BandwidthCounter)(nil)

// 空闲节点统计的清理参数
const (
	trimInterval = time.Minute
	peerIdleTTL  = 5 * time.Minute
)

// trimLoop 定期清理空闲节点统计，直到 ctx 取消
func (bwc *BandwidthCounter) trimLoop(ctx context.Context, interval, idle time.Duration) {
	t := bwc.clock.Ticker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := bwc.TrimIdle(now.Add(-idle)); n > 0 {
				log.Debug("清理空闲节点流量统计", "peers", n)
			}
		}
	}
}
