package grpcserver

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"google.golang.org/grpc/codes"
)

// RPCMetrics counts and times unary calls, labeled by full method name.
type RPCMetrics struct {
	requests *prometheus.CounterVec
	seconds  *prometheus.HistogramVec
}

func NewRPCMetrics(reg prometheus.Registerer) *RPCMetrics {
	f := promauto.With(reg)
	return &RPCMetrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "subdex",
			Subsystem: "grpc",
			Name:      "requests_total",
			Help:      "Unary RPCs handled, by method and status code.",
		}, []string{"method", "code"}),
		seconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "subdex",
			Subsystem: "grpc",
			Name:      "request_seconds",
			Help:      "Unary RPC handling time.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"method"}),
	}
}

func (m *RPCMetrics) Observe(method string, code codes.Code, elapsed time.Duration) {
	m.requests.WithLabelValues(method, code.String()).Inc()
	m.seconds.WithLabelValues(method).Observe(elapsed.Seconds())
}
