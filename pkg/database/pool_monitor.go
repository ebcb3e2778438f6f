package database

import (
	"sync"
	"time"

	"socialhub/pkg/logger"
	"socialhub/pkg/metrics"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PoolMonitor 连接池监控器，定期调用 Sample 上报连接池状态
type PoolMonitor struct {
	db        *gorm.DB
	collector *metrics.MetricsCollector
	// WaitAlert 两次采样间等待连接次数超过该值时告警
	WaitAlert int64

	mu       sync.Mutex
	lastWait int64
}

// PoolSnapshot 连接池快照
type PoolSnapshot struct {
	Timestamp       time.Time
	OpenConnections int
	InUse           int
	Idle            int
	WaitCount       int64
	WaitDuration    time.Duration
	// NewWaits 距上次采样新增的等待次数
	NewWaits int64
}

func NewPoolMonitor(db *gorm.DB, collector *metrics.MetricsCollector) *PoolMonitor {
	return &PoolMonitor{db: db, collector: collector, WaitAlert: 100}
}

// Sample 读取 sql.DB 统计并写入指标
func (m *PoolMonitor) Sample() (*PoolSnapshot, error) {
	sqlDB, err := m.db.DB()
	if err != nil {
		return nil, err
	}
	st := sqlDB.Stats()

	m.mu.Lock()
	newWaits := st.WaitCount - m.lastWait
	m.lastWait = st.WaitCount
	m.mu.Unlock()

	snap := &PoolSnapshot{
		Timestamp:       time.Now(),
		OpenConnections: st.OpenConnections,
		InUse:           st.InUse,
		Idle:            st.Idle,
		WaitCount:       st.WaitCount,
		WaitDuration:    st.WaitDuration,
		NewWaits:        newWaits,
	}

	if m.collector != nil {
		m.collector.RecordPoolStats(st.InUse, st.Idle, st.WaitCount)
	}
	if m.WaitAlert > 0 && newWaits > m.WaitAlert {
		logger.Log.Warn("database pool saturated",
			zap.Int64("new_waits", newWaits),
			zap.Int("in_use", st.InUse),
			zap.Int("max_open", st.MaxOpenConnections),
			zap.Duration("wait_duration", st.WaitDuration))
	}
	return snap, nil
}
