package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"timefilter/internal/expr"
	"timefilter/internal/models"

	"go.uber.org/zap"
)

// HistoryCollector keeps the sampled time series that relative time filters are
// evaluated against. Its newest sample is the dataset's $maxTime.
type HistoryCollector struct {
	mu              sync.RWMutex
	cpuHistory      []models.CPUHistory
	memoryHistory   []models.MemoryHistory
	diskHistory     []models.DiskHistory
	networkHistory  []models.NetworkHistory
	lastNetworkSent uint64
	lastNetworkRecv uint64
	lastTime        time.Time
	maxTime         time.Time
	latest          *models.Snapshot
	maxDataPoints   int
	location        *time.Location
	sampler         Sampler
	logger          *zap.Logger
	cancel          context.CancelFunc
}

var historyCollector *HistoryCollector

func NewHistoryCollector(sampler Sampler, maxDataPoints int, location *time.Location, logger *zap.Logger) *HistoryCollector {
	if location == nil {
		location = time.UTC
	}
	return &HistoryCollector{
		cpuHistory:     []models.CPUHistory{},
		memoryHistory:  []models.MemoryHistory{},
		diskHistory:    []models.DiskHistory{},
		networkHistory: []models.NetworkHistory{},
		maxDataPoints:  maxDataPoints,
		location:       location,
		sampler:        sampler,
		logger:         logger,
	}
}

// InitHistoryCollector installs the collector used by the HTTP and websocket handlers
func InitHistoryCollector(hc *HistoryCollector) *HistoryCollector {
	historyCollector = hc
	return historyCollector
}

func GetHistoryCollector() *HistoryCollector {
	return historyCollector
}

// Start samples every interval until ctx is done or Stop is called
func (hc *HistoryCollector) Start(ctx context.Context, interval time.Duration) {
	hc.mu.Lock()
	if hc.cancel != nil {
		hc.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	hc.cancel = cancel
	hc.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				hc.collectSnapshot()
			}
		}
	}()

	hc.logger.Info("history collector started", zap.Duration("interval", interval), zap.Int("max_points", hc.maxDataPoints))
}

func (hc *HistoryCollector) Stop() {
	hc.mu.Lock()
	cancel := hc.cancel
	hc.cancel = nil
	hc.mu.Unlock()
	if cancel != nil {
		cancel()
		hc.logger.Info("history collector stopped")
	}
}

// collectSnapshot samples outside the lock; gopsutil calls can take hundreds of ms
func (hc *HistoryCollector) collectSnapshot() {
	hc.Record(hc.sampler.Sample())
}

// Record appends one snapshot, dropping the oldest points past maxDataPoints
func (hc *HistoryCollector) Record(snapshot models.Snapshot) {
	now := snapshot.Timestamp

	hc.mu.Lock()
	defer hc.mu.Unlock()

	if snapshot.CPU != nil {
		hc.cpuHistory = trimHistory(append(hc.cpuHistory, models.CPUHistory{
			Timestamp: now,
			Usage:     snapshot.CPU.UsagePercent,
			PerCore:   snapshot.CPU.PerCore,
		}), hc.maxDataPoints)
	}

	if snapshot.Memory != nil {
		hc.memoryHistory = trimHistory(append(hc.memoryHistory, models.MemoryHistory{
			Timestamp:    now,
			UsedGB:       snapshot.Memory.UsedGB,
			AvailableGB:  snapshot.Memory.AvailableGB,
			UsagePercent: snapshot.Memory.UsagePercent,
		}), hc.maxDataPoints)
	}

	if snapshot.Disk != nil {
		hc.diskHistory = trimHistory(append(hc.diskHistory, models.DiskHistory{
			Timestamp:    now,
			UsedGB:       snapshot.Disk.UsedGB,
			TotalGB:      snapshot.Disk.TotalGB,
			UsagePercent: snapshot.Disk.UsagePercent,
		}), hc.maxDataPoints)
	}

	if len(snapshot.Network) > 0 {
		totalSent := uint64(0)
		totalRecv := uint64(0)
		for _, iface := range snapshot.Network {
			totalSent += iface.BytesSent
			totalRecv += iface.BytesRecv
		}

		timeDiff := now.Sub(hc.lastTime).Seconds()
		bytesSentRate := 0.0
		bytesRecvRate := 0.0
		// counters can reset when an interface goes away
		if timeDiff > 0 && hc.lastNetworkSent > 0 && totalSent >= hc.lastNetworkSent && totalRecv >= hc.lastNetworkRecv {
			bytesSentRate = float64(totalSent-hc.lastNetworkSent) / timeDiff
			bytesRecvRate = float64(totalRecv-hc.lastNetworkRecv) / timeDiff
		}

		hc.networkHistory = trimHistory(append(hc.networkHistory, models.NetworkHistory{
			Timestamp:     now,
			BytesSent:     totalSent,
			BytesRecv:     totalRecv,
			BytesSentRate: bytesSentRate,
			BytesRecvRate: bytesRecvRate,
		}), hc.maxDataPoints)

		hc.lastNetworkSent = totalSent
		hc.lastNetworkRecv = totalRecv
		hc.lastTime = now
	}

	if now.After(hc.maxTime) {
		hc.maxTime = now
		hc.latest = &snapshot
	}
}

func trimHistory[T any](history []T, maxPoints int) []T {
	if maxPoints > 0 && len(history) > maxPoints {
		return history[len(history)-maxPoints:]
	}
	return history
}

// MaxTime is the timestamp of the newest sample, zero while the dataset is empty
func (hc *HistoryCollector) MaxTime() time.Time {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.maxTime
}

// Latest returns the newest snapshot, false while the dataset is empty
func (hc *HistoryCollector) Latest() (models.Snapshot, bool) {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	if hc.latest == nil {
		return models.Snapshot{}, false
	}
	return *hc.latest, true
}

// maxTimeResolution is added to the newest sample so that half-open "latest"
// ranges ending at $maxTime still contain it.
const maxTimeResolution = time.Millisecond

// References anchors expressions at now and the dataset's max time.
// An empty dataset uses now for both.
func (hc *HistoryCollector) References(now time.Time) expr.References {
	maxTime := hc.MaxTime()
	if maxTime.IsZero() {
		maxTime = now
	} else {
		maxTime = maxTime.Add(maxTimeResolution)
	}
	return expr.References{Now: now, MaxTime: maxTime, Location: hc.location}
}

// Resolve evaluates a time filter expression against this dataset
func (hc *HistoryCollector) Resolve(e expr.Expression, now time.Time) (expr.TimeRange, error) {
	if err := expr.Validate(e); err != nil {
		return expr.TimeRange{}, err
	}
	return expr.Resolve(e, hc.References(now))
}

// Filter returns the samples of metric inside tr, or nil for an unknown metric
func (hc *HistoryCollector) Filter(metric string, tr expr.TimeRange) interface{} {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	switch metric {
	case models.MetricCPU:
		return filterHistory(hc.cpuHistory, tr, func(h models.CPUHistory) time.Time { return h.Timestamp })
	case models.MetricMemory:
		return filterHistory(hc.memoryHistory, tr, func(h models.MemoryHistory) time.Time { return h.Timestamp })
	case models.MetricDisk:
		return filterHistory(hc.diskHistory, tr, func(h models.DiskHistory) time.Time { return h.Timestamp })
	case models.MetricNetwork:
		return filterHistory(hc.networkHistory, tr, func(h models.NetworkHistory) time.Time { return h.Timestamp })
	default:
		return nil
	}
}

// Window returns every metric inside tr
func (hc *HistoryCollector) Window(tr expr.TimeRange) models.HistoricalDataWindow {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	return models.HistoricalDataWindow{
		Start:   tr.Start(),
		End:     tr.End(),
		CPU:     filterHistory(hc.cpuHistory, tr, func(h models.CPUHistory) time.Time { return h.Timestamp }),
		Memory:  filterHistory(hc.memoryHistory, tr, func(h models.MemoryHistory) time.Time { return h.Timestamp }),
		Disk:    filterHistory(hc.diskHistory, tr, func(h models.DiskHistory) time.Time { return h.Timestamp }),
		Network: filterHistory(hc.networkHistory, tr, func(h models.NetworkHistory) time.Time { return h.Timestamp }),
	}
}

// Query builds the filter for period and duration, resolves it and returns the window.
// An empty metric selects all metrics.
func (hc *HistoryCollector) Query(period TimeFilterPeriod, duration, metric string, now time.Time) (expr.TimeRange, interface{}, error) {
	filter := ConstructFilter(period, duration)
	if filter == nil {
		return expr.TimeRange{}, nil, fmt.Errorf("unknown period '%s'", period)
	}
	tr, err := hc.Resolve(filter, now)
	if err != nil {
		return expr.TimeRange{}, nil, err
	}
	if metric == "" {
		return tr, hc.Window(tr), nil
	}
	data := hc.Filter(metric, tr)
	if data == nil {
		return tr, nil, fmt.Errorf("unknown metric '%s'", metric)
	}
	return tr, data, nil
}

func filterHistory[T any](history []T, tr expr.TimeRange, timestamp func(T) time.Time) []T {
	filtered := []T{}
	for _, h := range history {
		if tr.Contains(timestamp(h)) {
			filtered = append(filtered, h)
		}
	}
	return filtered
}
