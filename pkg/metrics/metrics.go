// Package metrics 定义服务暴露的 Prometheus 指标。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chatstat"

// Registry 是服务使用的独立注册表，避免测试之间共享全局默认注册表。
var Registry = prometheus.NewRegistry()

var (
	loadsTotal = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dataset_loads_total",
		Help:      "Dataset load attempts by outcome and failure kind.",
	}, []string{"status", "kind"})

	loadDuration = promauto.With(Registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "dataset_load_duration_seconds",
		Help:      "Time spent loading and preprocessing both datasets.",
		Buckets:   prometheus.DefBuckets,
	})

	datasetRows = promauto.With(Registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "dataset_rows",
		Help:      "Rows in the currently loaded datasets.",
	}, []string{"dataset"})

	viewRequests = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "view_requests_total",
		Help:      "View computations by view name and cache result.",
	}, []string{"view", "cache"})

	httpRequests = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.With(Registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// ObserveLoad 记录一次加载。kind 在成功时为空字符串。
func ObserveLoad(succeeded bool, kind string, elapsed time.Duration) {
	status := "succeeded"
	if !succeeded {
		status = "failed"
	}
	loadsTotal.WithLabelValues(status, kind).Inc()
	loadDuration.Observe(elapsed.Seconds())
}

// SetRows 更新数据集行数，加载失败时应传入 0。
func SetRows(dataset string, rows int) {
	datasetRows.WithLabelValues(dataset).Set(float64(rows))
}

// ObserveView 记录一次视图请求，hit 表示是否命中缓存。
func ObserveView(view string, hit bool) {
	cache := "miss"
	if hit {
		cache = "hit"
	}
	viewRequests.WithLabelValues(view, cache).Inc()
}

// ObserveHTTP 记录一次 HTTP 请求。
func ObserveHTTP(method, route, status string, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, status).Inc()
	httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Handler 返回 /metrics 的处理器。
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
