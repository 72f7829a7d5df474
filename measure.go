package main

import (
	"os"
	"time"
)

// childUsage is the resource accounting of one reaped child.
type childUsage struct {
	UserTime   time.Duration
	KernelTime time.Duration
	// Voluntary and involuntary context switches of the child itself.
	// Zero where the platform does not report them.
	VolCtxSwitches   int64
	InvolCtxSwitches int64
}

type usageMeter interface {
	// Start is called right before the child is launched.
	Start() error
	// Stop is called after the child has been reaped.
	Stop(state *os.ProcessState) (childUsage, error)
}

var newUsageMeter func() usageMeter

// stateMeter only knows what the process state carries.
type stateMeter struct{}

func (stateMeter) Start() error { return nil }

func (stateMeter) Stop(state *os.ProcessState) (childUsage, error) {
	if state == nil {
		return childUsage{}, nil
	}
	return childUsage{UserTime: state.UserTime(), KernelTime: state.SystemTime()}, nil
}
