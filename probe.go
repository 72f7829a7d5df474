package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

type psProbe struct {
	p *process.Process
}

func attachProcess(ctx context.Context, pid int) (processProbe, error) {
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return nil, err
	}
	return &psProbe{p: p}, nil
}

// Running reports false once the process is gone or is a zombie waiting to be
// reaped by the runner.
func (ps *psProbe) Running(ctx context.Context) (bool, error) {
	running, err := ps.p.IsRunningWithContext(ctx)
	if err != nil || !running {
		return false, err
	}
	status, err := ps.p.StatusWithContext(ctx)
	if err != nil {
		return false, err
	}
	for _, s := range status {
		if s == process.Zombie {
			return false, nil
		}
	}
	return true, nil
}

func (ps *psProbe) CPUPercent(ctx context.Context, interval time.Duration) (float64, error) {
	return ps.p.PercentWithContext(ctx, interval)
}

func (ps *psProbe) MemoryInfo(ctx context.Context) (uint64, uint64, error) {
	info, err := ps.p.MemoryInfoWithContext(ctx)
	if err != nil {
		return 0, 0, err
	}
	return info.RSS, info.VMS, nil
}

func (ps *psProbe) MemoryPercent(ctx context.Context) (float64, error) {
	pct, err := ps.p.MemoryPercentWithContext(ctx)
	return float64(pct), err
}

// systemCounterSource reads machine-wide counters. A counter that cannot be
// read is logged and left at zero.
type systemCounterSource struct {
	logger *zap.SugaredLogger
}

func newSystemCounterSource(logger *zap.SugaredLogger) *systemCounterSource {
	return &systemCounterSource{logger: logger}
}

// sysBlockDir lets tests point whole-disk detection somewhere else.
var sysBlockDir = "/sys/block"

func (s *systemCounterSource) Snapshot(ctx context.Context) SystemCounters {
	var c SystemCounters

	misc, err := load.MiscWithContext(ctx)
	if err != nil {
		s.logger.Warnw("reading context switch counter", "error", err)
	} else if misc.Ctxt > 0 {
		c.ContextSwitches = uint64(misc.Ctxt)
	}

	// No portable system-wide syscall counter; Syscalls stays 0.

	io, err := disk.IOCountersWithContext(ctx)
	if err != nil {
		s.logger.Warnw("reading disk io counters", "error", err)
		return c
	}
	c.ReadBytes, c.WriteBytes = sumDiskIO(io)
	return c
}

// sumDiskIO totals whole disks only so partitions are not counted twice.
func sumDiskIO(io map[string]disk.IOCountersStat) (read, write uint64) {
	_, err := os.Stat(sysBlockDir)
	filter := err == nil
	for name, st := range io {
		if filter && !isWholeDisk(name) {
			continue
		}
		read += st.ReadBytes
		write += st.WriteBytes
	}
	return read, write
}

func isWholeDisk(name string) bool {
	_, err := os.Stat(filepath.Join(sysBlockDir, name))
	return err == nil
}
