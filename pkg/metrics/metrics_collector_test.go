package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsCollector(reg)

	t.Run("Domain events by label", func(t *testing.T) {
		m.RecordDomainEvent("like")
		m.RecordDomainEvent("like")
		m.RecordDomainEvent("follow")

		assert.Equal(t, 2.0, testutil.ToFloat64(m.domainEventsTotal.WithLabelValues("like")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.domainEventsTotal.WithLabelValues("follow")))
	})

	t.Run("HTTP request counter", func(t *testing.T) {
		m.RecordHTTPRequest("POST", "/posts/:id/like", 200, 15*time.Millisecond)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("POST", "/posts/:id/like", "200")))
	})

	t.Run("Tx retries", func(t *testing.T) {
		m.RecordTxRetry()
		assert.Equal(t, 1.0, testutil.ToFloat64(m.dbTxRetriesTotal))
	})

	t.Run("Pool gauges", func(t *testing.T) {
		m.RecordPoolStats(3, 7, 12)
		assert.Equal(t, 3.0, testutil.ToFloat64(m.dbConnections.WithLabelValues("in_use")))
		assert.Equal(t, 7.0, testutil.ToFloat64(m.dbConnections.WithLabelValues("idle")))
		assert.Equal(t, 12.0, testutil.ToFloat64(m.dbWaitCount))
	})
}

func TestGlobalCollectorIsSingleton(t *testing.T) {
	assert.Same(t, GetGlobalCollector(), GetGlobalCollector())
}
