package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// renderTable writes records as a GitHub markdown table. Cells are looked up by
// header, so the columns always follow the order of headers.
func renderTable(w io.Writer, headers []string, records []map[string]string) error {
	t := table.NewWriter()
	t.Style().Format.Header = text.FormatDefault

	header := make(table.Row, len(headers))
	for j, h := range headers {
		header[j] = h
	}
	t.AppendHeader(header)

	for _, rec := range records {
		row := make(table.Row, len(headers))
		for j, h := range headers {
			row[j] = rec[h]
		}
		t.AppendRow(row)
	}

	_, err := io.WriteString(w, t.RenderMarkdown()+"\n")
	return err
}

// printRunSummary prints the per-run line shown after each benchmark finishes.
func printRunSummary(w io.Writer, r Result) {
	denominator, unit := getMeasurementMetrics(int64(r.Elapsed))
	userDenominator, userUnit := getMeasurementMetrics(int64(r.Usage.UserTime))
	kernelDenominator, kernelUnit := getMeasurementMetrics(int64(r.Usage.KernelTime))

	fmt.Fprintf(w, "  Time (%s):\t%s\t[User: %s, System: %s]\n",
		color.GreenString("wall"),
		color.GreenString("%.2f %s", scaled(int64(r.Elapsed), denominator), unit),
		color.CyanString("%.2f %s", scaled(int64(r.Usage.UserTime), userDenominator), userUnit),
		color.CyanString("%.2f %s", scaled(int64(r.Usage.KernelTime), kernelDenominator), kernelUnit))
	fmt.Fprintf(w, "  Peak RSS:\t%s\t%s\n",
		color.GreenString("%.2f MiB", r.Stats.MaxRSSMiB),
		color.HiBlackString("%d samples, ctx switches %d voluntary / %d involuntary",
			r.Stats.Samples, r.Usage.VolCtxSwitches, r.Usage.InvolCtxSwitches))
	if r.ExitCode != 0 {
		fmt.Fprintf(w, "  %s\n", color.RedString("exit status %d", r.ExitCode))
	}
}

func scaled(v int64, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(v) / denominator
}
