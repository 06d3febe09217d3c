package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/metalagman/orgarhythm/internal/graph"
)

// ReportMarkdown renders report as a markdown document.
func ReportMarkdown(report *graph.Report) string {
	var b strings.Builder
	b.WriteString("# Task metrics\n\n")
	b.WriteString("| Task | Total | Loops | Magnitude | Percentile | Ancestors |\n")
	b.WriteString("|---|---:|---:|---:|---:|---|\n")
	for _, m := range report.Tasks {
		fmt.Fprintf(&b, "| %s | %s | %d | %s | %s | %s |\n",
			m.ID, formatNumber(m.Total), m.Loops, formatNumber(m.Magnitude),
			formatPercentile(m.MagnitudePercentile), strings.Join(m.AncestorIDs, ", "))
	}
	if len(report.Edges) > 0 {
		b.WriteString("\n## Join offsets\n\n")
		b.WriteString("| Child | Parent | Join offset |\n")
		b.WriteString("|---|---|---:|\n")
		for _, e := range report.Edges {
			fmt.Fprintf(&b, "| %s | %s | %d |\n", e.ChildID, e.ParentID, e.JoinOffset)
		}
	}
	if len(report.Cycles) > 0 {
		b.WriteString("\n## Cycles\n\n")
		for _, cycle := range report.Cycles {
			fmt.Fprintf(&b, "- %s\n", strings.Join(cycle, " -> "))
		}
	}
	return b.String()
}

// RenderMarkdown renders md for a terminal. An empty style picks one from the
// terminal background; "notty" produces plain output.
func RenderMarkdown(md, style string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}

// PlainStyle is the glamour style without colours.
const PlainStyle = styles.NoTTYStyle
