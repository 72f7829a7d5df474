package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultBinary       = "./pearson"
	defaultDataDir      = "./data/"
	defaultOutputPrefix = "output_"
	defaultOutputSuffix = "_pearson"
	defaultInterval     = 100 * time.Millisecond
)

var defaultFiles = []string{"128.data", "256.data", "512.data", "1024.data"}

// Config describes one benchmark session. It is passed to the Runner instead of
// living in globals so tests can point it at a fake binary.
type Config struct {
	Binary       string        `yaml:"binary"`
	DataDir      string        `yaml:"data_dir"`
	Files        []string      `yaml:"files"`
	OutputPrefix string        `yaml:"output_prefix"`
	OutputSuffix string        `yaml:"output_suffix"`
	Interval     time.Duration `yaml:"interval"`
	NormalizeCPU bool          `yaml:"normalize_cpu"`
	Warmup       int           `yaml:"warmup"`
	Setup        string        `yaml:"setup"`
}

func defaultConfig() Config {
	return Config{
		Binary:       defaultBinary,
		DataDir:      defaultDataDir,
		Files:        append([]string(nil), defaultFiles...),
		OutputPrefix: defaultOutputPrefix,
		OutputSuffix: defaultOutputSuffix,
		Interval:     defaultInterval,
	}
}

// loadConfigFile overlays the YAML document at path onto cfg. Keys missing from
// the file keep their current values.
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Binary) == "" {
		return errors.New("binary path is empty")
	}
	if len(c.Files) == 0 {
		return errors.New("no input files configured")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("sample interval must be positive, got %v", c.Interval)
	}
	if c.Warmup < 0 {
		return fmt.Errorf("warmup must not be negative, got %d", c.Warmup)
	}
	return nil
}

// sizeLabel is the part of the file name before the first dot: "128.data" -> "128".
func sizeLabel(file string) string {
	base := filepath.Base(file)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		return base[:i]
	}
	return base
}

func (c Config) inputPath(file string) string {
	return filepath.Join(c.DataDir, file)
}

// outputPath derives where the binary should write its result for file,
// e.g. "128.data" -> "<data>/output_128_pearson.data".
func (c Config) outputPath(file string) string {
	name := c.OutputPrefix + sizeLabel(file) + c.OutputSuffix + filepath.Ext(file)
	return filepath.Join(c.DataDir, name)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
