// Package ui renders reports, plans and task lists for the terminal.
package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/metalagman/orgarhythm/internal/graph"
	"github.com/metalagman/orgarhythm/internal/plan"
	"github.com/metalagman/orgarhythm/internal/task"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Padding(0, 1)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// RenderTable draws rows under headers with a rounded border.
func RenderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}

// RenderReport draws the task metrics table, the edge offsets table and any
// detected cycles.
func RenderReport(report *graph.Report) string {
	var b strings.Builder
	b.WriteString(RenderTable(
		[]string{"Task", "Total", "Loops", "Magnitude", "Percentile", "Ancestors"},
		metricRows(report),
	))
	if len(report.Edges) > 0 {
		b.WriteString("\n")
		b.WriteString(RenderTable([]string{"Child", "Parent", "Join offset"}, edgeRows(report)))
	}
	for _, cycle := range report.Cycles {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render("cycle: " + strings.Join(cycle, " -> ")))
	}
	b.WriteString("\n")
	return b.String()
}

// RenderTasks draws stored task records.
func RenderTasks(tasks []task.Task) string {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{
			t.Name,
			formatNumber(t.Difficulty),
			formatNumber(t.Priority),
			formatNumber(t.External),
			t.Team,
			strings.Join(t.DependsOn, ", "),
		})
	}
	return RenderTable([]string{"Task", "Difficulty", "Priority", "External", "Team", "Depends on"}, rows) + "\n"
}

// RenderCandidates draws ranked next steps.
func RenderCandidates(candidates []task.Candidate) string {
	rows := make([][]string, 0, len(candidates))
	for i, c := range candidates {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			c.Metrics.ID,
			formatNumber(c.Metrics.Magnitude),
			formatPercentile(c.Metrics.MagnitudePercentile),
			strconv.Itoa(c.Metrics.Loops),
			c.Team,
		})
	}
	return RenderTable([]string{"#", "Task", "Magnitude", "Percentile", "Loops", "Team"}, rows) + "\n"
}

// RenderPlan draws one row per task window with its attempt slots.
func RenderPlan(p *plan.Plan) string {
	rows := make([][]string, 0, len(p.Windows))
	for _, w := range p.Windows {
		slots := "-"
		if w.Loops > 0 {
			slots = fmt.Sprintf("%d..%d", w.StartSlot, w.EndSlot)
		}
		dates := make([]string, 0, w.Loops)
		for _, a := range p.AttemptsFor(w.TaskID) {
			if a.Date != "" {
				dates = append(dates, a.Date)
			}
		}
		rows = append(rows, []string{w.TaskID, strconv.Itoa(w.Loops), slots, strings.Join(dates, ", ")})
	}
	return RenderTable([]string{"Task", "Loops", "Slots", "Dates"}, rows) +
		"\n" + helpStyle.Render(fmt.Sprintf("%d slots, %d attempts", p.Slots, len(p.Attempts))) + "\n"
}

// RenderAttempts draws stored attempts in slot order.
func RenderAttempts(attempts []plan.Attempt) string {
	if len(attempts) == 0 {
		return helpStyle.Render("No saved attempts.") + "\n"
	}
	rows := make([][]string, 0, len(attempts))
	for _, a := range attempts {
		date := a.Date
		if date == "" {
			date = "-"
		}
		rows = append(rows, []string{strconv.Itoa(a.SlotIndex), a.TaskID, strconv.Itoa(a.Number), date})
	}
	return RenderTable([]string{"Slot", "Task", "Attempt", "Date"}, rows) + "\n"
}

func metricRows(report *graph.Report) [][]string {
	rows := make([][]string, 0, len(report.Tasks))
	for _, m := range report.Tasks {
		rows = append(rows, []string{
			m.ID,
			formatNumber(m.Total),
			strconv.Itoa(m.Loops),
			formatNumber(m.Magnitude),
			formatPercentile(m.MagnitudePercentile),
			strings.Join(m.AncestorIDs, ", "),
		})
	}
	return rows
}

func edgeRows(report *graph.Report) [][]string {
	rows := make([][]string, 0, len(report.Edges))
	for _, e := range report.Edges {
		rows = append(rows, []string{e.ChildID, e.ParentID, strconv.Itoa(e.JoinOffset)})
	}
	return rows
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatPercentile(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
