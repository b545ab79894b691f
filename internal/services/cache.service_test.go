package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"timefilter/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryCache(t *testing.T) {
	hc := newTestCollector(100)
	now := time.Now()
	hc.Record(snapshotAt(now.Add(-time.Minute), 1, 0))

	clock := now
	qc := NewQueryCache(time.Second)
	qc.now = func() time.Time { return clock }

	first, err := qc.Query(hc, PeriodLatest, "PT1H", models.MetricCPU)
	require.NoError(t, err)
	assert.Len(t, first.Data.([]models.CPUHistory), 1)
	assert.Equal(t, 1, qc.Len())

	// same max time and inside the TTL: served from cache
	second, err := qc.Query(hc, PeriodLatest, "PT1H", models.MetricCPU)
	require.NoError(t, err)
	assert.True(t, first.Range.Equals(second.Range))

	// a new sample invalidates immediately
	hc.Record(snapshotAt(now.Add(-30*time.Second), 2, 0))
	third, err := qc.Query(hc, PeriodLatest, "PT1H", models.MetricCPU)
	require.NoError(t, err)
	assert.Len(t, third.Data.([]models.CPUHistory), 2)

	clock = clock.Add(2 * time.Second)
	qc.Prune()
	assert.Equal(t, 0, qc.Len())
}

func TestQueryCache_ErrorsNotCached(t *testing.T) {
	hc := newTestCollector(10)
	qc := NewQueryCache(time.Minute)

	_, err := qc.Query(hc, "someday", "P1D", "")
	assert.Error(t, err)
	assert.Equal(t, 0, qc.Len())

	_, err = qc.Query(hc, PeriodCurrent, "P1D", "")
	require.NoError(t, err)
	qc.ClearCache()
	assert.Equal(t, 0, qc.Len())
}

func TestQueryCache_Bounded(t *testing.T) {
	hc := newTestCollector(10)
	hc.Record(snapshotAt(time.Now().Add(-time.Minute), 1, 0))

	clock := time.Now()
	qc := NewQueryCache(time.Hour)
	qc.limit = 16
	qc.now = func() time.Time { return clock }

	for i := 1; i <= 500; i++ {
		clock = clock.Add(time.Millisecond)
		_, err := qc.Query(hc, PeriodLatest, fmt.Sprintf("PT%dS", i), "")
		require.NoError(t, err)
		require.LessOrEqual(t, qc.Len(), 16)
	}

	qc.mu.RLock()
	_, newest := qc.entries[queryKey(PeriodLatest, "PT500S", "")]
	_, first := qc.entries[queryKey(PeriodLatest, "PT1S", "")]
	qc.mu.RUnlock()
	assert.True(t, newest, "newest entry kept")
	assert.False(t, first, "oldest entry evicted")
}

func TestQueryCache_ExpiredEvictedFirst(t *testing.T) {
	hc := newTestCollector(10)
	hc.Record(snapshotAt(time.Now().Add(-time.Minute), 1, 0))

	clock := time.Now()
	qc := NewQueryCache(time.Second)
	qc.limit = 2
	qc.now = func() time.Time { return clock }

	_, err := qc.Query(hc, PeriodLatest, "PT1H", "")
	require.NoError(t, err)
	_, err = qc.Query(hc, PeriodLatest, "PT6H", "")
	require.NoError(t, err)

	clock = clock.Add(2 * time.Second)
	_, err = qc.Query(hc, PeriodLatest, "P1D", "")
	require.NoError(t, err)
	assert.Equal(t, 1, qc.Len())
}

func TestQueryCache_ConcurrentTTLChange(t *testing.T) {
	hc := newTestCollector(10)
	hc.Record(snapshotAt(time.Now().Add(-time.Minute), 1, 0))
	qc := NewQueryCache(time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = qc.Query(hc, PeriodLatest, "PT1H", "")
				qc.Prune()
			}
		}()
	}
	for j := 0; j < 100; j++ {
		qc.mu.Lock()
		qc.ttl = time.Duration(j+1) * time.Millisecond
		qc.mu.Unlock()
	}
	wg.Wait()
	assert.LessOrEqual(t, qc.Len(), 1)
}
