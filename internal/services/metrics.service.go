package services

import (
	"fmt"
	"time"

	"timefilter/internal/models"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
	"go.uber.org/zap"
)

const GB = 1024 * 1024 * 1024

// Sampler takes one snapshot of every metric
type Sampler interface {
	Sample() models.Snapshot
}

// SystemSampler reads host metrics through gopsutil
type SystemSampler struct {
	DiskPath string
	Logger   *zap.Logger
}

func NewSystemSampler(diskPath string, logger *zap.Logger) *SystemSampler {
	if diskPath == "" {
		diskPath = "/"
	}
	return &SystemSampler{DiskPath: diskPath, Logger: logger}
}

// Sample reads all metrics; a metric that fails is left nil and logged
func (s *SystemSampler) Sample() models.Snapshot {
	snapshot := models.Snapshot{Timestamp: time.Now()}
	var err error
	if snapshot.CPU, err = s.sampleCPU(); err != nil {
		s.Logger.Warn("cpu sample failed", zap.Error(err))
	}
	if snapshot.Memory, err = s.sampleMemory(); err != nil {
		s.Logger.Warn("memory sample failed", zap.Error(err))
	}
	if snapshot.Disk, err = s.sampleDisk(); err != nil {
		s.Logger.Warn("disk sample failed", zap.String("path", s.DiskPath), zap.Error(err))
	}
	if snapshot.Network, err = s.sampleNetwork(); err != nil {
		s.Logger.Warn("network sample failed", zap.Error(err))
	}
	return snapshot
}

func (s *SystemSampler) sampleCPU() (*models.CPUStatus, error) {
	total, err := cpu.Percent(0, false)
	if err != nil {
		return nil, err
	}
	if len(total) == 0 {
		return nil, fmt.Errorf("cpu.Percent returned no values")
	}

	// per-core figures and the core count are optional in the history
	perCore, err := cpu.Percent(0, true)
	if err != nil {
		s.Logger.Debug("per-core cpu usage unavailable", zap.Error(err))
		perCore = nil
	}
	cores, err := cpu.Counts(true)
	if err != nil {
		s.Logger.Debug("cpu core count unavailable", zap.Error(err))
		cores = 0
	}
	return &models.CPUStatus{UsagePercent: total[0], PerCore: perCore, CoreCount: cores}, nil
}

func (s *SystemSampler) sampleMemory() (*models.MemoryStatus, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return nil, err
	}
	return memoryStatus(vm), nil
}

func (s *SystemSampler) sampleDisk() (*models.DiskStatus, error) {
	usage, err := disk.Usage(s.DiskPath)
	if err != nil {
		return nil, err
	}
	return diskStatus(s.DiskPath, usage), nil
}

func (s *SystemSampler) sampleNetwork() ([]models.NetworkStatus, error) {
	counters, err := net.IOCounters(true)
	if err != nil {
		return nil, err
	}
	return networkStatuses(counters), nil
}

func memoryStatus(vm *mem.VirtualMemoryStat) *models.MemoryStatus {
	return &models.MemoryStatus{
		TotalGB:      float64(vm.Total) / GB,
		UsedGB:       float64(vm.Used) / GB,
		AvailableGB:  float64(vm.Available) / GB,
		UsagePercent: vm.UsedPercent,
	}
}

func diskStatus(path string, usage *disk.UsageStat) *models.DiskStatus {
	return &models.DiskStatus{
		Path:         path,
		Filesystem:   usage.Fstype,
		TotalGB:      float64(usage.Total) / GB,
		UsedGB:       float64(usage.Used) / GB,
		FreeGB:       float64(usage.Free) / GB,
		UsagePercent: usage.UsedPercent,
	}
}

// networkStatuses keeps the raw cumulative counters; rates are derived by the
// history collector from consecutive samples.
func networkStatuses(counters []net.IOCountersStat) []models.NetworkStatus {
	statuses := make([]models.NetworkStatus, 0, len(counters))
	for _, c := range counters {
		statuses = append(statuses, models.NetworkStatus{
			Interface:   c.Name,
			BytesSent:   c.BytesSent,
			BytesRecv:   c.BytesRecv,
			BytesSentGB: float64(c.BytesSent) / GB,
			BytesRecvGB: float64(c.BytesRecv) / GB,
			PacketsSent: c.PacketsSent,
			PacketsRecv: c.PacketsRecv,
			ErrorsIn:    c.Errin,
			ErrorsOut:   c.Errout,
			DropsIn:     c.Dropin,
			DropsOut:    c.Dropout,
		})
	}
	return statuses
}
