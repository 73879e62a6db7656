package models

import "time"

// SystemStats holds simulated resource usage percentages for the
// admin dashboard.
type SystemStats struct {
	CPUUsage     int       `json:"cpuUsage"`
	RAMUsage     int       `json:"ramUsage"`
	DiskUsage    int       `json:"diskUsage"`
	NetworkUsage int       `json:"networkUsage"`
	LastUpdated  time.Time `json:"lastUpdated"`
}
