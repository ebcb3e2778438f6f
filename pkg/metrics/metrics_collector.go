package metrics

import (
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector 指标收集器
type MetricsCollector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 数据库指标
	dbTxRetriesTotal prometheus.Counter
	dbErrorsTotal    *prometheus.CounterVec
	dbConnections    *prometheus.GaugeVec
	dbWaitCount      prometheus.Gauge

	// 缓存指标
	cacheHitsTotal   *prometheus.CounterVec
	cacheMissesTotal *prometheus.CounterVec

	// 业务指标
	domainEventsTotal *prometheus.CounterVec
	pushTotal         *prometheus.CounterVec
	pushQueueDepth    prometheus.Gauge

	// 应用指标
	activeGoroutines prometheus.Gauge
	memoryUsage      prometheus.Gauge
}

// NewMetricsCollector 创建指标收集器并注册到 registerer
func NewMetricsCollector(reg prometheus.Registerer) *MetricsCollector {
	f := promauto.With(reg)
	return &MetricsCollector{
		httpRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),

		httpRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		dbTxRetriesTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "db_tx_retries_total",
				Help: "Transactions retried after a serialization failure or lock conflict",
			},
		),

		dbErrorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "db_errors_total",
				Help: "Total number of database errors",
			},
			[]string{"kind"},
		),

		dbConnections: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "db_pool_connections",
				Help: "Database pool connections by state",
			},
			[]string{"state"},
		),

		dbWaitCount: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "db_pool_wait_count",
				Help: "Total number of connections waited for",
			},
		),

		cacheHitsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"key_prefix"},
		),

		cacheMissesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"key_prefix"},
		),

		domainEventsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socialhub_domain_events_total",
				Help: "Committed domain transitions (follow, like, comment, warning, ...)",
			},
			[]string{"event"},
		),

		pushTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socialhub_push_total",
				Help: "Push deliveries by outcome",
			},
			[]string{"outcome"},
		),

		pushQueueDepth: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "socialhub_push_queue_depth",
				Help: "Pending push tasks in the dispatch queue",
			},
		),

		activeGoroutines: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "go_goroutines_active",
				Help: "Number of active goroutines",
			},
		),

		memoryUsage: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "memory_usage_bytes",
				Help: "Heap memory in use",
			},
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求
func (m *MetricsCollector) RecordHTTPRequest(method, endpoint string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordTxRetry 记录一次事务重试
func (m *MetricsCollector) RecordTxRetry() {
	m.dbTxRetriesTotal.Inc()
}

// RecordDBError 记录数据库错误
func (m *MetricsCollector) RecordDBError(kind string) {
	m.dbErrorsTotal.WithLabelValues(kind).Inc()
}

// RecordPoolStats 记录连接池状态
func (m *MetricsCollector) RecordPoolStats(inUse, idle int, waitCount int64) {
	m.dbConnections.WithLabelValues("in_use").Set(float64(inUse))
	m.dbConnections.WithLabelValues("idle").Set(float64(idle))
	m.dbWaitCount.Set(float64(waitCount))
}

// RecordCacheOperation 记录缓存命中情况
func (m *MetricsCollector) RecordCacheOperation(keyPrefix string, hit bool) {
	if hit {
		m.cacheHitsTotal.WithLabelValues(keyPrefix).Inc()
	} else {
		m.cacheMissesTotal.WithLabelValues(keyPrefix).Inc()
	}
}

// RecordDomainEvent 记录业务状态变化
func (m *MetricsCollector) RecordDomainEvent(event string) {
	m.domainEventsTotal.WithLabelValues(event).Inc()
}

// RecordPush 记录推送结果: sent | retried | dropped
func (m *MetricsCollector) RecordPush(outcome string) {
	m.pushTotal.WithLabelValues(outcome).Inc()
}

// SetPushQueueDepth 更新推送队列深度
func (m *MetricsCollector) SetPushQueueDepth(n int) {
	m.pushQueueDepth.Set(float64(n))
}

// UpdateSystemMetrics 更新系统指标
func (m *MetricsCollector) UpdateSystemMetrics() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.activeGoroutines.Set(float64(runtime.NumGoroutine()))
	m.memoryUsage.Set(float64(ms.HeapInuse))
}

// 全局指标收集器
var (
	globalCollector *MetricsCollector
	once            sync.Once
)

// InitMetrics 初始化全局指标收集器 (默认注册表)
func InitMetrics() {
	once.Do(func() {
		globalCollector = NewMetricsCollector(prometheus.DefaultRegisterer)
	})
}

// GetGlobalCollector 获取全局指标收集器
func GetGlobalCollector() *MetricsCollector {
	InitMetrics()
	return globalCollector
}
