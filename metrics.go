package main

import (
	"net/http"
	"net/http/pprof"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xgzlucario/respd/internal/pkg"
)

const namespace = "respd"

// decode error kinds
const (
	errKindClosed    = "closed"
	errKindProtocol  = "protocol"
	errKindTransport = "transport"
)

type Metrics struct {
	registry *prometheus.Registry

	connsActive  prometheus.Gauge
	connsTotal   prometheus.Counter
	commands     prometheus.Counter
	decodeErrors *prometheus.CounterVec
	bytesRead    prometheus.Counter
}

func newMetrics(pool *pkg.BufferPool) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bufferpool_hits_total",
		Help:      "Read buffers served from the pool.",
	}, func() float64 {
		hit, _ := pool.Stats()
		return float64(hit)
	})
	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bufferpool_misses_total",
		Help:      "Read buffers allocated because the pool was empty.",
	}, func() float64 {
		_, miss := pool.Stats()
		return float64(miss)
	})

	return &Metrics{
		registry: reg,
		connsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Currently connected clients.",
		}),
		connsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Accepted client connections.",
		}),
		commands: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Decoded requests.",
		}),
		decodeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Requests that ended a connection, by kind.",
		}, []string{"kind"}),
		bytesRead: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_read_total",
			Help:      "Bytes read from clients.",
		}),
	}
}

// debugHandler serves /metrics and the pprof endpoints.
func debugHandler(m *Metrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry}))
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}
