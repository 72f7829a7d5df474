//go:build unix

package main

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

func init() {
	newUsageMeter = func() usageMeter { return new(rusageMeter) }
}

// rusageMeter diffs RUSAGE_CHILDREN around a run. Runs are sequential and
// every child is reaped, so the delta belongs to the benchmarked child.
type rusageMeter struct {
	before unix.Rusage
}

func (r *rusageMeter) Start() error {
	if err := unix.Getrusage(unix.RUSAGE_CHILDREN, &r.before); err != nil {
		return fmt.Errorf("getrusage: %w", err)
	}
	return nil
}

func (r *rusageMeter) Stop(_ *os.ProcessState) (childUsage, error) {
	var after unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_CHILDREN, &after); err != nil {
		return childUsage{}, fmt.Errorf("getrusage: %w", err)
	}
	return childUsage{
		UserTime:         timevalDelta(after.Utime, r.before.Utime),
		KernelTime:       timevalDelta(after.Stime, r.before.Stime),
		VolCtxSwitches:   int64(after.Nvcsw - r.before.Nvcsw),
		InvolCtxSwitches: int64(after.Nivcsw - r.before.Nivcsw),
	}, nil
}

func timevalDelta(after, before unix.Timeval) time.Duration {
	return time.Duration(after.Nano() - before.Nano())
}
