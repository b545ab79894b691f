package services

import (
	"sync"
	"time"

	"timefilter/internal/expr"
)

// QueryResult is one resolved history query
type QueryResult struct {
	Range expr.TimeRange
	Data  interface{}
}

type cachedQuery struct {
	result  QueryResult
	maxTime time.Time
	at      time.Time
}

// QueryCache holds resolved history queries with a TTL so websocket clients sharing
// a subscription and repeated HTTP requests resolve once per tick.
// An entry is also stale as soon as the dataset gains a newer sample.
type QueryCache struct {
	mu      sync.RWMutex
	entries map[string]cachedQuery
	ttl     time.Duration
	limit   int
	now     func() time.Time
}

// defaultCacheEntries bounds the cache; durations come from clients
const defaultCacheEntries = 1024

var queryCache = NewQueryCache(1 * time.Second)

func NewQueryCache(ttl time.Duration) *QueryCache {
	return &QueryCache{
		entries: make(map[string]cachedQuery),
		ttl:     ttl,
		limit:   defaultCacheEntries,
		now:     time.Now,
	}
}

// SetCacheTTL sets the default cache time-to-live
func SetCacheTTL(duration time.Duration) {
	queryCache.mu.Lock()
	defer queryCache.mu.Unlock()
	queryCache.ttl = duration
}

func GetQueryCache() *QueryCache {
	return queryCache
}

func queryKey(period TimeFilterPeriod, duration, metric string) string {
	return string(period) + "|" + duration + "|" + metric
}

// isValid must be called with qc.mu held
func (qc *QueryCache) isValid(entry cachedQuery, maxTime time.Time) bool {
	return qc.now().Sub(entry.at) < qc.ttl && entry.maxTime.Equal(maxTime)
}

// Query answers from the cache when possible, otherwise asks hc and stores the result.
// Errors are never cached.
func (qc *QueryCache) Query(hc *HistoryCollector, period TimeFilterPeriod, duration, metric string) (QueryResult, error) {
	key := queryKey(period, duration, metric)
	maxTime := hc.MaxTime()

	qc.mu.RLock()
	entry, ok := qc.entries[key]
	valid := ok && qc.isValid(entry, maxTime)
	qc.mu.RUnlock()
	if valid {
		return entry.result, nil
	}

	now := qc.now()
	tr, data, err := hc.Query(period, duration, metric, now)
	if err != nil {
		return QueryResult{}, err
	}
	result := QueryResult{Range: tr, Data: data}

	qc.mu.Lock()
	if _, exists := qc.entries[key]; !exists && len(qc.entries) >= qc.limit {
		qc.evictLocked()
	}
	qc.entries[key] = cachedQuery{result: result, maxTime: maxTime, at: now}
	qc.mu.Unlock()

	return result, nil
}

// Prune drops expired entries
func (qc *QueryCache) Prune() {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	qc.pruneLocked()
}

func (qc *QueryCache) pruneLocked() {
	now := qc.now()
	for key, entry := range qc.entries {
		if now.Sub(entry.at) >= qc.ttl {
			delete(qc.entries, key)
		}
	}
}

// evictLocked makes room for one entry: expired entries go first, then the oldest.
func (qc *QueryCache) evictLocked() {
	qc.pruneLocked()
	if len(qc.entries) < qc.limit {
		return
	}
	var oldestKey string
	var oldest time.Time
	for key, entry := range qc.entries {
		if oldestKey == "" || entry.at.Before(oldest) {
			oldestKey, oldest = key, entry.at
		}
	}
	delete(qc.entries, oldestKey)
}

// Len reports the number of cached entries
func (qc *QueryCache) Len() int {
	qc.mu.RLock()
	defer qc.mu.RUnlock()
	return len(qc.entries)
}

// ClearCache clears all cached values
func (qc *QueryCache) ClearCache() {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	qc.entries = make(map[string]cachedQuery)
}
