// Package metrics 净化服务的 Prometheus 指标
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标集合，每个实例使用独立的 Registry
type Metrics struct {
	registry *prometheus.Registry

	documents   *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	inputBytes  prometheus.Histogram
	auditErrors *prometheus.CounterVec
}

// New 创建并注册指标
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sanitizer",
			Name:      "documents_total",
			Help:      "Documents processed, by transport and operation.",
		}, []string{"transport", "operation"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sanitizer",
			Name:      "rejected_documents_total",
			Help:      "Documents with at least one diagnostic.",
		}, []string{"transport"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sanitizer",
			Name:      "duration_seconds",
			Help:      "Time spent sanitizing a document.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"transport"}),
		inputBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sanitizer",
			Name:      "input_bytes",
			Help:      "Size of sanitized input documents.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
		}),
		auditErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sanitizer",
			Name:      "audit_errors_total",
			Help:      "Audit records that could not be written, by sink.",
		}, []string{"sink"}),
	}

	m.registry.MustRegister(
		m.documents,
		m.rejections,
		m.duration,
		m.inputBytes,
		m.auditErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Observe 记录一次净化
func (m *Metrics) Observe(transport, operation string, inputLen int, rejected bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(transport, operation).Inc()
	if rejected {
		m.rejections.WithLabelValues(transport).Inc()
	}
	m.duration.WithLabelValues(transport).Observe(elapsed.Seconds())
	m.inputBytes.Observe(float64(inputLen))
}

// AuditFailed 记录审计写入失败
func (m *Metrics) AuditFailed(sink string) {
	if m == nil {
		return
	}
	m.auditErrors.WithLabelValues(sink).Inc()
}

// Registry 返回底层 Registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
