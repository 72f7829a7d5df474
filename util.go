package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/term"
)

const (
	progressDoneRune    = "█"
	progressPendingRune = "▒"
)

var denominators = []int64{int64(time.Hour), int64(time.Minute), int64(time.Second), int64(time.Millisecond), int64(time.Microsecond), int64(time.Nanosecond)}
var units = []string{"h", "m", "s", "ms", "µs", "ns"}

// list2Cmdline splits a command line on unquoted spaces and tabs. Single or
// double quotes group words; a quote preceded by a backslash is literal.
func list2Cmdline(cmd string) []string {
	var cmdParts []string
	var inQuote rune

	var b strings.Builder
	for i, ch := range cmd {
		if (ch == '"' || ch == '\'') && (i == 0 || cmd[i-1] != '\\') {
			switch inQuote {
			case rune(0):
				inQuote = ch
			case ch:
				inQuote = rune(0)
			default:
				b.WriteRune(ch)
			}
		} else if (ch == ' ' || ch == '\t') && inQuote == 0 {
			if b.Len() > 0 {
				cmdParts = append(cmdParts, b.String())
			}
			b.Reset()
		} else {
			b.WriteRune(ch)
		}
	}
	if b.Len() > 0 {
		cmdParts = append(cmdParts, b.String())
	}
	return cmdParts
}

// getMeasurementMetrics picks the largest unit that fits timing. Zero falls
// back to seconds.
func getMeasurementMetrics(timing int64) (float64, string) {
	for i, denominator := range denominators {
		if timing/denominator > 0 {
			return float64(denominator), units[i]
		}
	}
	return float64(time.Second), "s"
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func clearCurrentTerminalLine(w io.Writer) {
	w.Write([]byte("\r\033[K"))
}

func printProgressLine(line string, progress float64) {
	terminalWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		terminalWidth = 80
	}
	fmt.Fprintf(color.Output, "%s %s", line, progressBar(line, terminalWidth, progress))
}

// progressBar fills what is left of the terminal after line. The width of line
// is measured in columns, ignoring colour escape sequences.
func progressBar(line string, terminalWidth int, progress float64) string {
	width := terminalWidth - text.RuneWidthWithoutEscSequences(line) - 2
	if width < 0 {
		width = 0
	}
	if progress > 1 {
		progress = 1
	}
	progressChunks := int(progress * float64(width))
	return strings.Repeat(progressDoneRune, progressChunks) +
		strings.Repeat(progressPendingRune, width-progressChunks)
}
