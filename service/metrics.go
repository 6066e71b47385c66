package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the node-level instruments, registered on the registry
// the metrics listener serves.
type Metrics struct {
	BlockHeight     prometheus.Gauge
	BlockSeconds    prometheus.Histogram
	PoolDepth       prometheus.Gauge
	ExtrinsicsTotal *prometheus.CounterVec
	EventsTotal     prometheus.Counter
	OutboundTotal   prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		BlockHeight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "subdex",
			Name:      "block_height",
			Help:      "Height of the committed head.",
		}),
		BlockSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "subdex",
			Name:      "block_seconds",
			Help:      "Wall time to author and commit one block.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		PoolDepth: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "subdex",
			Name:      "pool_depth",
			Help:      "Extrinsics waiting in the pool.",
		}),
		ExtrinsicsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "subdex",
			Name:      "extrinsics_total",
			Help:      "Extrinsics included in sealed blocks, by dispatch result.",
		}, []string{"result"}),
		EventsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: "subdex",
			Name:      "events_total",
			Help:      "Events emitted by sealed blocks.",
		}),
		OutboundTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: "subdex",
			Name:      "outbound_total",
			Help:      "Cross-chain messages queued by sealed blocks.",
		}),
	}
}
