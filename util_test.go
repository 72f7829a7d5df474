package main

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func TestList2Cmdline(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"make data", []string{"make", "data"}},
		{`gen  --size "128 256"`, []string{"gen", "--size", "128 256"}},
		{`sh -c 'echo "hi"'`, []string{"sh", "-c", `echo "hi"`}},
		{"", nil},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, list2Cmdline(tc.in), "input %q", tc.in)
	}
}

func TestGetMeasurementMetrics(t *testing.T) {
	d, unit := getMeasurementMetrics(int64(90 * time.Second))
	require.Equal(t, float64(time.Minute), d)
	require.Equal(t, "m", unit)

	d, unit = getMeasurementMetrics(int64(3 * time.Millisecond))
	require.Equal(t, float64(time.Millisecond), d)
	require.Equal(t, "ms", unit)

	d, unit = getMeasurementMetrics(0)
	require.Equal(t, float64(time.Second), d)
	require.Equal(t, "s", unit)
}

func TestProgressBarIgnoresColourEscapes(t *testing.T) {
	orig := color.NoColor
	t.Cleanup(func() { color.NoColor = orig })

	color.NoColor = true
	plain := "  CPU " + color.GreenString("%5.1f%%", 99.5) + "  RSS " + color.GreenString("%8.2f MiB", 12.0) + " "
	color.NoColor = false
	coloured := "  CPU " + color.GreenString("%5.1f%%", 99.5) + "  RSS " + color.GreenString("%8.2f MiB", 12.0) + " "
	require.NotEqual(t, plain, coloured)

	bar := progressBar(coloured, 80, 0.5)
	require.Equal(t, progressBar(plain, 80, 0.5), bar)
	require.Equal(t, 80-utf8.RuneCountInString(plain)-2, utf8.RuneCountInString(bar))
}

func TestProgressBarClamps(t *testing.T) {
	require.Empty(t, progressBar("a very long status line", 10, 0.5))
	require.Equal(t, strings.Repeat(progressDoneRune, 8), progressBar("", 10, 2))
}
