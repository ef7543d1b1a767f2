// Package metrics exports build results and filesystem operation counts to
// Prometheus. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"syscall"

	"github.com/S1riyS/vaultfs/internal/tree"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vaultfs"

type Metrics struct {
	registry *prometheus.Registry

	buildNodes         *prometheus.GaugeVec
	buildPartialErrors prometheus.Gauge
	buildDuration      prometheus.Gauge
	buildTimestamp     prometheus.Gauge
	operations         *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		buildNodes: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "build",
			Name:      "nodes",
			Help:      "Nodes in the mounted tree by kind.",
		}, []string{"kind"}),
		buildPartialErrors: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "build",
			Name:      "partial_errors",
			Help:      "Subtrees left empty because a store call failed during the build.",
		}),
		buildDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "build",
			Name:      "duration_seconds",
			Help:      "Wall time of the tree build.",
		}),
		buildTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "build",
			Name:      "finished_timestamp_seconds",
			Help:      "Unix time the tree build finished.",
		}),
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fuse",
			Name:      "operations_total",
			Help:      "Filesystem callbacks served, by operation and result.",
		}, []string{"op", "result"}),
	}
}

func (m *Metrics) ObserveBuild(r *tree.BuildReport) {
	if m == nil || r == nil {
		return
	}
	m.buildNodes.WithLabelValues("directory").Set(float64(r.Stats.Directories))
	m.buildNodes.WithLabelValues("secret_group").Set(float64(r.Stats.SecretGroups))
	m.buildNodes.WithLabelValues("secret").Set(float64(r.Stats.Secrets))
	m.buildPartialErrors.Set(float64(len(r.Errors)))
	m.buildDuration.Set(r.Duration.Seconds())
	m.buildTimestamp.Set(float64(r.FinishedAt.Unix()))
}

// ObserveOp counts one callback. errno 0 is "ok"; anything else is labelled
// with its symbolic name.
func (m *Metrics) ObserveOp(op string, errno syscall.Errno) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, resultLabel(errno)).Inc()
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func resultLabel(errno syscall.Errno) string {
	switch errno {
	case 0:
		return "ok"
	case syscall.ENOENT:
		return "enoent"
	case syscall.ENOTDIR:
		return "enotdir"
	case syscall.EISDIR:
		return "eisdir"
	case syscall.EINVAL:
		return "einval"
	case syscall.EROFS:
		return "erofs"
	case syscall.EIO:
		return "eio"
	default:
		return "other"
	}
}
