package database

import (
	"testing"

	"socialhub/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestPoolMonitorSample(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()
	require.NoError(t, sqlDB.Ping())

	mon := NewPoolMonitor(db, metrics.NewMetricsCollector(prometheus.NewRegistry()))

	snap, err := mon.Sample()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, snap.OpenConnections, 1)
	assert.Equal(t, snap.OpenConnections, snap.InUse+snap.Idle)
	assert.Equal(t, int64(0), snap.NewWaits)
}
