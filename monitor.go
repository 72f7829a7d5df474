package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

const mebibyte = 1024 * 1024

// Sample is one observation of the monitored process.
type Sample struct {
	CPUPercent float64
	MemPercent float64
	RSS        uint64
	VMS        uint64
}

// SystemCounters holds machine-wide activity counters. They are not scoped to
// the monitored process, so deltas include everything else running.
type SystemCounters struct {
	ContextSwitches uint64
	Syscalls        uint64
	ReadBytes       uint64
	WriteBytes      uint64
}

// Stats is the reduction of one monitored run.
type Stats struct {
	AvgCPU          float64
	ContextSwitches uint64
	AvgMem          float64
	MaxRSSMiB       float64
	MaxVMSMiB       float64
	Syscalls        uint64
	ReadMiB         float64
	WriteMiB        float64

	Samples int
	Polling time.Duration
}

type processProbe interface {
	Running(ctx context.Context) (bool, error)
	CPUPercent(ctx context.Context, interval time.Duration) (float64, error)
	MemoryInfo(ctx context.Context) (rss, vms uint64, err error)
	MemoryPercent(ctx context.Context) (float64, error)
}

type counterSource interface {
	Snapshot(ctx context.Context) SystemCounters
}

// Monitor polls a running process until it exits.
type Monitor struct {
	Interval time.Duration
	// CPUScale divides every CPU sample; 1 keeps per-core percentages.
	CPUScale float64
	OnSample func(Sample)

	counters counterSource
	attach   func(ctx context.Context, pid int) (processProbe, error)
	logger   *zap.SugaredLogger
}

func NewMonitor(interval time.Duration, logger *zap.SugaredLogger) *Monitor {
	return &Monitor{
		Interval: interval,
		CPUScale: 1,
		counters: newSystemCounterSource(logger),
		attach:   attachProcess,
		logger:   logger,
	}
}

// Watch blocks until pid is gone and returns the aggregated statistics.
// The process vanishing between calls is the normal way the loop ends.
func (m *Monitor) Watch(ctx context.Context, pid int) (Stats, error) {
	before := m.counters.Snapshot(ctx)
	start := time.Now()

	samples, err := m.poll(ctx, pid)
	if err != nil {
		return Stats{}, err
	}

	polling := time.Since(start)
	after := m.counters.Snapshot(ctx)

	stats := summarize(samples, before, after)
	stats.Polling = polling
	m.logger.Debugw("monitoring finished", "pid", pid, "samples", stats.Samples, "polling", polling)
	return stats, nil
}

func (m *Monitor) poll(ctx context.Context, pid int) ([]Sample, error) {
	probe, err := m.attach(ctx, pid)
	if err != nil {
		if processGone(err) {
			m.logger.Debugw("process exited before first sample", "pid", pid)
			return nil, nil
		}
		return nil, fmt.Errorf("attaching to pid %d: %w", pid, err)
	}

	scale := m.CPUScale
	if scale <= 0 {
		scale = 1
	}

	var samples []Sample
	alive, err := stillRunning(ctx, probe)
	if err != nil {
		return nil, fmt.Errorf("checking pid %d: %w", pid, err)
	}
	for alive {
		s, err := takeSample(ctx, probe, m.Interval)
		if err != nil {
			if processGone(err) {
				return samples, nil
			}
			return nil, fmt.Errorf("sampling pid %d: %w", pid, err)
		}

		// A child that exited during the CPU window reads as zeros; drop that sample.
		if alive, err = stillRunning(ctx, probe); err != nil {
			return nil, fmt.Errorf("checking pid %d: %w", pid, err)
		}
		if !alive {
			break
		}

		s.CPUPercent /= scale
		samples = append(samples, s)

		m.logger.Debugw("sample", "pid", pid, "cpu", s.CPUPercent, "mem", s.MemPercent, "rss", s.RSS, "vms", s.VMS)
		if m.OnSample != nil {
			m.OnSample(s)
		}
	}
	return samples, nil
}

// stillRunning treats a vanished process as exited rather than as an error.
func stillRunning(ctx context.Context, probe processProbe) (bool, error) {
	alive, err := probe.Running(ctx)
	if err != nil {
		if processGone(err) {
			return false, nil
		}
		return false, err
	}
	return alive, nil
}

// takeSample blocks for interval while measuring CPU, which also paces the loop.
func takeSample(ctx context.Context, probe processProbe, interval time.Duration) (Sample, error) {
	cpuPercent, err := probe.CPUPercent(ctx, interval)
	if err != nil {
		return Sample{}, err
	}
	rss, vms, err := probe.MemoryInfo(ctx)
	if err != nil {
		return Sample{}, err
	}
	memPercent, err := probe.MemoryPercent(ctx)
	if err != nil {
		return Sample{}, err
	}
	return Sample{
		CPUPercent: cpuPercent,
		MemPercent: math.Round(memPercent*100) / 100,
		RSS:        rss,
		VMS:        vms,
	}, nil
}

func summarize(samples []Sample, before, after SystemCounters) Stats {
	stats := Stats{
		ContextSwitches: absDiff(after.ContextSwitches, before.ContextSwitches),
		Syscalls:        absDiff(after.Syscalls, before.Syscalls),
		ReadMiB:         float64(absDiff(after.ReadBytes, before.ReadBytes)) / mebibyte,
		WriteMiB:        float64(absDiff(after.WriteBytes, before.WriteBytes)) / mebibyte,
		Samples:         len(samples),
	}
	if len(samples) == 0 {
		return stats
	}

	var cpuTotal, memTotal float64
	var maxRSS, maxVMS uint64
	for _, s := range samples {
		cpuTotal += s.CPUPercent
		memTotal += s.MemPercent
		if s.RSS > maxRSS {
			maxRSS = s.RSS
		}
		if s.VMS > maxVMS {
			maxVMS = s.VMS
		}
	}
	n := float64(len(samples))
	stats.AvgCPU = cpuTotal / n
	stats.AvgMem = memTotal / n
	stats.MaxRSSMiB = float64(maxRSS) / mebibyte
	stats.MaxVMSMiB = float64(maxVMS) / mebibyte
	return stats
}

func absDiff(a, b uint64) uint64 {
	if a >= b {
		return a - b
	}
	return b - a
}

func processGone(err error) bool {
	return errors.Is(err, process.ErrorProcessNotRunning) ||
		errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, syscall.ESRCH)
}
