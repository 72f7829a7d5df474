package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/shirou/gopsutil/v4/cpu"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// cliOptions are the flags that steer the tool itself rather than a benchmark.
type cliOptions struct {
	configPath string
	noColor    bool
	verbose    bool
}

func runSetup(ctx context.Context, cmdToSetup string) error {
	cmdParts := list2Cmdline(cmdToSetup)
	if len(cmdParts) == 0 {
		return errors.New("empty command string")
	}
	return exec.CommandContext(ctx, cmdParts[0], cmdParts[1:]...).Run()
}

// parseConfig layers defaults, the optional YAML file and explicitly set flags.
func parseConfig(args []string) (Config, cliOptions, error) {
	cfg := defaultConfig()
	var opts cliOptions
	fs := flag.NewFlagSet("procbench", flag.ContinueOnError)

	binary := fs.String("binary", cfg.Binary, "Binary to benchmark; called as <binary> <input> <output>")
	dataDir := fs.String("data", cfg.DataDir, "Directory holding the input files")
	files := fs.String("files", "", "Comma separated input files, in run order")
	interval := fs.Duration("interval", cfg.Interval, "CPU sampling interval, also the polling period")
	normalize := fs.Bool("normalize-cpu", false, "Divide CPU% by the number of logical CPUs")
	warmup := fs.Int("warmup", 0, "Number of unmonitored warmup runs per file")
	setup := fs.String("setup", "", "Command to run before all benchmarks")
	fs.StringVar(&opts.configPath, "config", "", "YAML config file")
	fs.BoolVar(&opts.noColor, "no-color", false, "Disable coloured output")
	fs.BoolVar(&opts.verbose, "v", false, "Log every sample")
	if err := fs.Parse(args); err != nil {
		return Config{}, opts, err
	}

	if opts.configPath != "" {
		if err := loadConfigFile(opts.configPath, &cfg); err != nil {
			return Config{}, opts, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "binary":
			cfg.Binary = *binary
		case "data":
			cfg.DataDir = *dataDir
		case "files":
			cfg.Files = splitList(*files)
		case "interval":
			cfg.Interval = *interval
		case "normalize-cpu":
			cfg.NormalizeCPU = *normalize
		case "warmup":
			cfg.Warmup = *warmup
		case "setup":
			cfg.Setup = *setup
		}
	})
	return cfg, opts, cfg.Validate()
}

func newLogger(debug bool) (*zap.SugaredLogger, error) {
	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if debug {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	zcfg.DisableStacktrace = true
	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// benchmark runs every configured file in order and returns the results in
// the same order. The first failure aborts the whole session.
func benchmark(ctx context.Context, cfg Config, runner *Runner, monitor *Monitor) ([]Result, error) {
	interactive := isTerminal()
	results := make([]Result, 0, len(cfg.Files))
	for i, file := range cfg.Files {
		fmt.Fprintf(color.Output, "▶ Running %s on %s...\n", color.CyanString(cfg.Binary), color.YellowString(file))

		if cfg.Warmup > 0 {
			if err := runner.Warmup(ctx, file); err != nil {
				return nil, err
			}
		}

		if interactive {
			done := float64(i) / float64(len(cfg.Files))
			monitor.OnSample = func(s Sample) {
				clearCurrentTerminalLine(color.Output)
				line := fmt.Sprintf("  CPU %s  RSS %s ",
					color.GreenString("%5.1f%%", s.CPUPercent),
					color.GreenString("%8.2f MiB", float64(s.RSS)/mebibyte))
				printProgressLine(line, done)
			}
		}

		result, err := runner.Run(ctx, file)
		if interactive {
			clearCurrentTerminalLine(color.Output)
		}
		if err != nil {
			return nil, fmt.Errorf("benchmarking %s: %w", file, err)
		}
		printRunSummary(color.Output, result)
		fmt.Println()
		results = append(results, result)
	}
	return results, nil
}

func run(args []string) error {
	cfg, opts, err := parseConfig(args)
	if err != nil {
		return err
	}
	color.NoColor = color.NoColor || opts.noColor

	logger, err := newLogger(opts.verbose)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Setup != "" {
		if err := runSetup(ctx, cfg.Setup); err != nil {
			return fmt.Errorf("setup: %w", err)
		}
	}

	monitor := NewMonitor(cfg.Interval, logger)
	if cfg.NormalizeCPU {
		n, err := cpu.CountsWithContext(ctx, true)
		if err != nil || n <= 0 {
			logger.Warnw("cannot count logical CPUs, CPU% left per-core", "error", err)
		} else {
			monitor.CPUScale = float64(n)
		}
	}
	runner := NewRunner(cfg, monitor, logger)

	start := time.Now()
	results, err := benchmark(ctx, cfg, runner, monitor)
	if err != nil {
		return err
	}
	logger.Debugw("benchmark finished", "files", len(results), "took", time.Since(start))

	records := make([]map[string]string, len(results))
	for i, r := range results {
		records[i] = r.Record()
	}
	fmt.Println()
	return renderTable(os.Stdout, headers, records)
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(color.Error, color.RedString("procbench: %v", err))
		os.Exit(1)
	}
}
