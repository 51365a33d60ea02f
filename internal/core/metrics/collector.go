package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var streamBytesDesc = prometheus.NewDesc(
	"p2pping_stream_bytes_total",
	"Bytes carried on protocol streams, by direction and protocol.",
	[]string{"direction", "protocol"},
	nil,
)

// Describe 实现 prometheus.Collector
func (bwc *BandwidthCounter) Describe(ch chan<- *prometheus.Desc) {
	ch <- streamBytesDesc
}

// Collect 实现 prometheus.Collector
func (bwc *BandwidthCounter) Collect(ch chan<- prometheus.Metric) {
	for proto, st := range bwc.ByProtocol() {
		ch <- prometheus.MustNewConstMetric(streamBytesDesc, prometheus.CounterValue,
			float64(st.TotalIn), "in", string(proto))
		ch <- prometheus.MustNewConstMetric(streamBytesDesc, prometheus.CounterValue,
			float64(st.TotalOut), "out", string(proto))
	}
}

var _ prometheus.Collector = (*BandwidthCounter)(nil)
