// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// =============================================================================
// RESOURCE GAUGES
// =============================================================================

// Gauges is one reading of the resource panel.
type Gauges struct {
	CPUPercent int
	GPUGB      int
	RAMGB      int
	RAMPercent int
}

// Baseline readings shown before any sampling.
const (
	BaselineCPUPercent = 25
	BaselineGPUGB      = 20
	BaselineRAMGB      = 60
	// RAMCapacityGB is the simulated installed memory.
	RAMCapacityGB = 128
)

// BaselineGauges returns the static panel values.
func BaselineGauges() Gauges {
	return Gauges{
		CPUPercent: BaselineCPUPercent,
		GPUGB:      BaselineGPUGB,
		RAMGB:      BaselineRAMGB,
		RAMPercent: percentOf(BaselineRAMGB, RAMCapacityGB),
	}
}

// CPU returns the panel text for the CPU box, e.g. "25%".
func (g Gauges) CPU() string { return fmt.Sprintf("%d%%", g.CPUPercent) }

// GPU returns the panel text for the GPU box, e.g. "20GB".
func (g Gauges) GPU() string { return fmt.Sprintf("%dGB", g.GPUGB) }

// RAM returns the panel text for the RAM box, e.g. "60GB".
func (g Gauges) RAM() string { return fmt.Sprintf("%dGB", g.RAMGB) }

// Resources renders the reading as an event resource string.
func (g Gauges) Resources() string { return FormatResources(g.CPUPercent, g.RAMPercent) }

// =============================================================================
// SAMPLER
// =============================================================================

// Sampler produces simulated readings that wander around the baselines.
// Each reading stays within Jitter of its baseline.
type Sampler struct {
	mu     sync.Mutex
	rng    *rand.Rand
	jitter float64
	last   Gauges
}

// DefaultJitter is the relative spread of simulated readings.
const DefaultJitter = 0.2

// NewSampler creates a sampler seeded with seed.
func NewSampler(seed int64, jitter float64) *Sampler {
	if jitter < 0 {
		jitter = 0
	}
	return &Sampler{
		rng:    rand.New(rand.NewSource(seed)),
		jitter: jitter,
		last:   BaselineGauges(),
	}
}

// Sample takes a new reading.
func (s *Sampler) Sample() Gauges {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := Gauges{
		CPUPercent: clamp(s.around(BaselineCPUPercent), 0, 100),
		GPUGB:      clamp(s.around(BaselineGPUGB), 0, math.MaxInt32),
		RAMGB:      clamp(s.around(BaselineRAMGB), 0, RAMCapacityGB),
	}
	g.RAMPercent = percentOf(g.RAMGB, RAMCapacityGB)
	s.last = g
	return g
}

// Last returns the most recent reading without sampling.
func (s *Sampler) Last() Gauges {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// around requires s.mu.
func (s *Sampler) around(base int) int {
	spread := float64(base) * s.jitter
	return int(math.Round(float64(base) + (s.rng.Float64()*2-1)*spread))
}

// Collectors exposes the last reading as Prometheus gauges.
func (s *Sampler) Collectors(namespace string) []prometheus.Collector {
	gauge := func(name, help string, read func(Gauges) int) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "resources",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(read(s.Last())) })
	}
	return []prometheus.Collector{
		gauge("cpu_percent", "Simulated CPU utilisation.", func(g Gauges) int { return g.CPUPercent }),
		gauge("gpu_gigabytes", "Simulated GPU memory in use.", func(g Gauges) int { return g.GPUGB }),
		gauge("ram_gigabytes", "Simulated RAM in use.", func(g Gauges) int { return g.RAMGB }),
	}
}

func percentOf(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(whole)))
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
