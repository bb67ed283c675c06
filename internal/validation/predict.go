// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package validation

import (
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/ManuGH/multirec/internal/config"
	"github.com/ManuGH/multirec/internal/log"
	"github.com/ManuGH/multirec/internal/recorder"
)

// Impact buckets a prediction for display.
type Impact string

const (
	ImpactLow    Impact = "Low"
	ImpactMedium Impact = "Medium"
	ImpactHigh   Impact = "High"
)

// Prediction estimates the cost of one recording run.
type Prediction struct {
	MemoryMB        float64 `json:"memoryMB"`
	DiskMBPerMinute float64 `json:"diskMBPerMinute"`
	CPUPercent      float64 `json:"cpuPercent"`
	Impact          Impact  `json:"impact"`

	// Host headroom, zero when the host probe is unavailable.
	HostMemoryMB  float64 `json:"hostMemoryMB,omitempty"`
	HostCPUCount  int     `json:"hostCpuCount,omitempty"`
	Overcommitted bool    `json:"overcommitted,omitempty"`
}

// Impact thresholds in MB of predicted working memory.
const (
	impactMediumMB = 2048
	impactHighMB   = 4096
)

// Frames buffered per stream while the capture backend drains.
const bufferFrames = 30

// Per-kind cost coefficients. Disk is relative to raw frame size per minute;
// memory is a per-stream working-set multiplier on the frame buffer.
var kindCost = map[recorder.Kind]struct {
	disk   float64
	memory float64
	cpu    float64
}{
	recorder.KindImage:     {disk: 0.40, memory: 1.0, cpu: 8},
	recorder.KindMovie:     {disk: 0.08, memory: 1.5, cpu: 14},
	recorder.KindAnimation: {disk: 0.001, memory: 0.1, cpu: 2},
	recorder.KindAlembic:   {disk: 0.05, memory: 0.6, cpu: 6},
	recorder.KindFBX:       {disk: 0.02, memory: 0.4, cpu: 4},
	recorder.KindAOV:       {disk: 0.80, memory: 2.0, cpu: 12},
}

// PredictResourceUsage estimates cost from resolution, frame rate and the
// enabled stream set, then compares the demand against live host capacity.
func PredictResourceUsage(cfg *config.RecordingConfiguration) Prediction {
	frameMB := float64(cfg.Width) * float64(cfg.Height) * 4 / (1024 * 1024)

	p := Prediction{
		MemoryMB:   512, // engine baseline
		CPUPercent: 10,  // evaluation loop baseline
	}

	for _, tl := range cfg.EnabledTimelines() {
		for _, rec := range tl.EnabledRecorders() {
			cost, ok := kindCost[rec.Kind()]
			if !ok {
				continue
			}
			streams := 1.0
			if aov, isAOV := rec.(*recorder.AOVSettings); isAOV {
				streams = float64(len(aov.Passes))
			}
			p.MemoryMB += frameMB * bufferFrames * cost.memory * streams
			p.DiskMBPerMinute += frameMB * cfg.FrameRate * 60 * cost.disk * streams
			p.CPUPercent += cost.cpu * streams
		}
	}

	switch {
	case p.MemoryMB > impactHighMB:
		p.Impact = ImpactHigh
	case p.MemoryMB > impactMediumMB:
		p.Impact = ImpactMedium
	default:
		p.Impact = ImpactLow
	}

	probeHost(&p)
	return p
}

// probeHost fills host capacity fields. Failures are logged and otherwise
// ignored: prediction works without host data.
func probeHost(p *Prediction) {
	logger := log.WithComponent("predict")

	vm, err := mem.VirtualMemory()
	if err != nil {
		logger.Debug().Err(err).Msg("host memory probe unavailable")
		return
	}
	p.HostMemoryMB = float64(vm.Total) / (1024 * 1024)

	if n, err := cpu.Counts(true); err == nil {
		p.HostCPUCount = n
	}

	if p.MemoryMB > p.HostMemoryMB {
		p.Overcommitted = true
		logger.Warn().
			Float64("predicted_mb", p.MemoryMB).
			Float64("host_mb", p.HostMemoryMB).
			Msg("predicted memory demand exceeds host capacity")
	}
}
