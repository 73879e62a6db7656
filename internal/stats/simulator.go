// Package stats simulates system resource usage for the admin
// dashboard. Samples follow time-of-day baselines with bounded random
// variation, smoothed against the previous snapshot so consecutive
// readings change gradually.
package stats

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/hwg121/taskmanagement/internal/models"
)

// Simulator produces and holds the current stats snapshot. Safe for
// concurrent use.
type Simulator struct {
	mu      sync.Mutex
	current models.SystemStats
	now     func() time.Time
	randf   func() float64
}

// New creates a simulator seeded with the given snapshot. A zero
// snapshot starts from the default baselines.
func New(initial models.SystemStats) *Simulator {
	if initial.LastUpdated.IsZero() {
		initial = models.SystemStats{
			CPUUsage:     25,
			RAMUsage:     45,
			DiskUsage:    30,
			NetworkUsage: 15,
			LastUpdated:  time.Now(),
		}
	}
	return &Simulator{
		current: initial,
		now:     time.Now,
		randf:   rand.Float64,
	}
}

// Current returns the latest snapshot.
func (s *Simulator) Current() models.SystemStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Set overrides the snapshot, stamping it with the current time.
func (s *Simulator) Set(stats models.SystemStats) models.SystemStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats.LastUpdated = s.now()
	s.current = stats
	return s.current
}

// Tick advances the simulation one step and returns the new snapshot.
func (s *Simulator) Tick() models.SystemStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	hour := now.Hour()

	// Baselines run hotter during work hours.
	baseCPU, baseRAM, baseDisk, baseNetwork := 20.0, 40.0, 30.0, 15.0
	if hour >= 9 && hour <= 18 {
		baseCPU = 35
		baseRAM = 55
		baseNetwork = 25
	}

	sample := models.SystemStats{
		CPUUsage:     clamp(round(baseCPU+s.randf()*20-10), 15, 85),
		RAMUsage:     clamp(round(baseRAM+s.randf()*15-7), 25, 90),
		DiskUsage:    clamp(round(baseDisk+s.randf()*10-5), 25, 85),
		NetworkUsage: clamp(round(baseNetwork+s.randf()*15-7), 5, 80),
	}

	// Smooth toward the sample so the dashboard charts transition
	// instead of jumping.
	s.current = models.SystemStats{
		CPUUsage:     round(float64(s.current.CPUUsage)*0.7 + float64(sample.CPUUsage)*0.3),
		RAMUsage:     round(float64(s.current.RAMUsage)*0.7 + float64(sample.RAMUsage)*0.3),
		DiskUsage:    round(float64(s.current.DiskUsage)*0.8 + float64(sample.DiskUsage)*0.2),
		NetworkUsage: round(float64(s.current.NetworkUsage)*0.6 + float64(sample.NetworkUsage)*0.4),
		LastUpdated:  now,
	}
	return s.current
}

func round(v float64) int {
	return int(math.Round(v))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
