package models

import "time"

// CPUStatus is one CPU reading
type CPUStatus struct {
	UsagePercent float64   `json:"usage_percent"`
	PerCore      []float64 `json:"per_core,omitempty"`
	CoreCount    int       `json:"core_count"`
}

// MemoryStatus represents virtual memory usage
type MemoryStatus struct {
	TotalGB      float64 `json:"total_gb"`
	UsedGB       float64 `json:"used_gb"`
	AvailableGB  float64 `json:"available_gb"`
	UsagePercent float64 `json:"usage_percent"`
}

// DiskStatus is the usage of the filesystem holding Path
type DiskStatus struct {
	Path         string  `json:"path"`
	TotalGB      float64 `json:"total_gb"`
	UsedGB       float64 `json:"used_gb"`
	FreeGB       float64 `json:"free_gb"`
	UsagePercent float64 `json:"usage_percent"`
	Filesystem   string  `json:"filesystem"`
}

// NetworkStatus holds the cumulative counters of one interface
type NetworkStatus struct {
	Interface   string  `json:"interface"`
	BytesSent   uint64  `json:"bytes_sent"`
	BytesRecv   uint64  `json:"bytes_recv"`
	PacketsSent uint64  `json:"packets_sent"`
	PacketsRecv uint64  `json:"packets_recv"`
	ErrorsIn    uint64  `json:"errors_in"`
	ErrorsOut   uint64  `json:"errors_out"`
	DropsIn     uint64  `json:"drops_in"`
	DropsOut    uint64  `json:"drops_out"`
	BytesSentGB float64 `json:"bytes_sent_gb"`
	BytesRecvGB float64 `json:"bytes_recv_gb"`
}

// Snapshot is one sample of every metric taken at Timestamp.
// A nil field means that metric could not be read.
type Snapshot struct {
	Timestamp time.Time       `json:"timestamp"`
	CPU       *CPUStatus      `json:"cpu"`
	Memory    *MemoryStatus   `json:"memory"`
	Disk      *DiskStatus     `json:"disk"`
	Network   []NetworkStatus `json:"network"`
}
