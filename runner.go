package main

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"go.uber.org/zap"
)

var headers = []string{
	"Input Size",
	"Time (s)",
	"CPU (%)",
	"Context Switches Count",
	"Memory (%)",
	"Max Memory RSS (MiB)",
	"Max Memory VMS (MiB)",
	"Total Syscalls",
	"Read Bytes Total (MiB)",
	"Write Bytes Total (MiB)",
}

// Result is the outcome of one benchmarked input file.
type Result struct {
	File     string
	Size     string
	Elapsed  time.Duration
	Stats    Stats
	Usage    childUsage
	ExitCode int
}

// Record maps every table header to its formatted cell.
func (r Result) Record() map[string]string {
	s := r.Stats
	return map[string]string{
		"Input Size":              r.Size,
		"Time (s)":                fmt.Sprintf("%.3f", r.Elapsed.Seconds()),
		"CPU (%)":                 fmt.Sprintf("%.1f", s.AvgCPU),
		"Context Switches Count":  fmt.Sprintf("%.1f", float64(s.ContextSwitches)),
		"Memory (%)":              fmt.Sprintf("%.3f", s.AvgMem),
		"Max Memory RSS (MiB)":    fmt.Sprintf("%.2f", s.MaxRSSMiB),
		"Max Memory VMS (MiB)":    fmt.Sprintf("%.2f", s.MaxVMSMiB),
		"Total Syscalls":          strconv.FormatUint(s.Syscalls, 10),
		"Read Bytes Total (MiB)":  fmt.Sprintf("%.2f", s.ReadMiB),
		"Write Bytes Total (MiB)": fmt.Sprintf("%.2f", s.WriteMiB),
	}
}

type watcher interface {
	Watch(ctx context.Context, pid int) (Stats, error)
}

// Runner benchmarks the configured binary against one input file at a time.
type Runner struct {
	cfg     Config
	monitor watcher
	meter   func() usageMeter
	logger  *zap.SugaredLogger
}

func NewRunner(cfg Config, monitor watcher, logger *zap.SugaredLogger) *Runner {
	return &Runner{cfg: cfg, monitor: monitor, meter: newUsageMeter, logger: logger}
}

func (r *Runner) command(ctx context.Context, file string) *exec.Cmd {
	return exec.CommandContext(ctx, r.cfg.Binary, r.cfg.inputPath(file), r.cfg.outputPath(file))
}

// Warmup runs the binary on file without monitoring it.
func (r *Runner) Warmup(ctx context.Context, file string) error {
	for i := 0; i < r.cfg.Warmup; i++ {
		cmd := r.command(ctx, file)
		err := cmd.Run()
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			return fmt.Errorf("warmup %d for %s: %w", i+1, file, err)
		}
	}
	return nil
}

// Run launches the binary on file, monitors it until exit and reaps it.
func (r *Runner) Run(ctx context.Context, file string) (Result, error) {
	cmd := r.command(ctx, file)
	meter := r.meter()
	if err := meter.Start(); err != nil {
		return Result{}, err
	}

	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("starting %s: %w", r.cfg.Binary, err)
	}
	start := time.Now()
	pid := cmd.Process.Pid
	r.logger.Debugw("child started", "file", file, "pid", pid)

	stats, monErr := r.monitor.Watch(ctx, pid)

	// Always reap, even if monitoring failed.
	waitErr := cmd.Wait()
	elapsed := time.Since(start)

	if monErr != nil {
		return Result{}, fmt.Errorf("monitoring %s: %w", file, monErr)
	}
	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		return Result{}, fmt.Errorf("waiting for %s: %w", r.cfg.Binary, waitErr)
	}
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}

	exitCode := cmd.ProcessState.ExitCode()
	if exitCode != 0 {
		r.logger.Warnw("child exited with non-zero status", "file", file, "code", exitCode)
	}

	usage, err := meter.Stop(cmd.ProcessState)
	if err != nil {
		r.logger.Warnw("reading child usage", "file", file, "error", err)
	}

	return Result{
		File:     file,
		Size:     sizeLabel(file),
		Elapsed:  elapsed,
		Stats:    stats,
		Usage:    usage,
		ExitCode: exitCode,
	}, nil
}
