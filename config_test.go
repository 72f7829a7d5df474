package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "./pearson", cfg.Binary)
	require.Equal(t, []string{"128.data", "256.data", "512.data", "1024.data"}, cfg.Files)
	require.Equal(t, 100*time.Millisecond, cfg.Interval)
	require.False(t, cfg.NormalizeCPU)
}

func TestConfigPaths(t *testing.T) {
	cfg := defaultConfig()
	cfg.DataDir = "data"

	require.Equal(t, filepath.Join("data", "128.data"), cfg.inputPath("128.data"))
	require.Equal(t, filepath.Join("data", "output_128_pearson.data"), cfg.outputPath("128.data"))
	require.Equal(t, "1024", sizeLabel("1024.data"))
	require.Equal(t, "512", sizeLabel("512.tar.gz"))
	require.Equal(t, "raw", sizeLabel("raw"))
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cases := map[string]func(*Config){
		"empty binary":    func(c *Config) { c.Binary = " " },
		"no files":        func(c *Config) { c.Files = nil },
		"zero interval":   func(c *Config) { c.Interval = 0 },
		"negative warmup": func(c *Config) { c.Warmup = -1 },
	}
	for name, mutate := range cases {
		cfg := defaultConfig()
		mutate(&cfg)
		require.Error(t, cfg.Validate(), name)
	}
}

func TestParseConfigLayers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.yaml")
	doc := "binary: /opt/pearson\nfiles: [a.data, b.data]\ninterval: 250ms\nwarmup: 2\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, opts, err := parseConfig([]string{"-config", path, "-warmup", "0", "-files", "x.data, y.data", "-v"})
	require.NoError(t, err)
	require.Equal(t, cliOptions{configPath: path, verbose: true}, opts)
	require.Equal(t, "/opt/pearson", cfg.Binary)
	require.Equal(t, 250*time.Millisecond, cfg.Interval)
	require.Equal(t, 0, cfg.Warmup)
	require.Equal(t, []string{"x.data", "y.data"}, cfg.Files)
	require.Equal(t, defaultDataDir, cfg.DataDir)
}

func TestParseConfigMissingFile(t *testing.T) {
	_, _, err := parseConfig([]string{"-config", filepath.Join(t.TempDir(), "nope.yaml")})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseConfigOptionsDoNotLeak(t *testing.T) {
	_, first, err := parseConfig([]string{"-no-color", "-v"})
	require.NoError(t, err)
	require.True(t, first.noColor)
	require.True(t, first.verbose)

	cfg, second, err := parseConfig(nil)
	require.NoError(t, err)
	require.Equal(t, cliOptions{}, second)
	require.Equal(t, defaultConfig(), cfg)
}
