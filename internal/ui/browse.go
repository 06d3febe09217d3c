package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/metalagman/orgarhythm/internal/graph"
)

var (
	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
)

// Browser is an interactive view over a report: a task table and a detail
// panel for the highlighted task.
type Browser struct {
	report *graph.Report
	table  table.Model
	width  int
	height int
}

// NewBrowser builds the browser model for report.
func NewBrowser(report *graph.Report) Browser {
	columns := []table.Column{
		{Title: "Task", Width: 18},
		{Title: "Total", Width: 7},
		{Title: "Loops", Width: 6},
		{Title: "Magnitude", Width: 10},
		{Title: "Pct", Width: 5},
	}
	rows := make([]table.Row, 0, len(report.Tasks))
	for _, m := range report.Tasks {
		rows = append(rows, table.Row{
			m.ID,
			formatNumber(m.Total),
			strconv.Itoa(m.Loops),
			formatNumber(m.Magnitude),
			formatPercentile(m.MagnitudePercentile),
		})
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(min(max(len(rows), 1), 15)),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("230")).
		Background(lipgloss.Color("62"))
	t.SetStyles(s)
	return Browser{report: report, table: t}
}

// Init implements tea.Model.
func (b Browser) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (b Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return b, tea.Quit
		}
	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.height = msg.Height
		return b, nil
	}
	var cmd tea.Cmd
	b.table, cmd = b.table.Update(msg)
	return b, cmd
}

// View implements tea.Model.
func (b Browser) View() string {
	title := titleStyle.Render(" orga ")
	help := helpStyle.Render("↑/↓: move | q: quit")
	if len(b.report.Tasks) == 0 {
		return fmt.Sprintf("%s\n\n  No tasks.\n\n%s", title, help)
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(b.table.View()),
		panelStyle.Render(b.detail()),
	)
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, help)
}

// Selected returns the metrics of the highlighted task.
func (b Browser) Selected() (graph.TaskMetrics, bool) {
	row := b.table.SelectedRow()
	if len(row) == 0 {
		return graph.TaskMetrics{}, false
	}
	return b.report.Task(row[0])
}

func (b Browser) detail() string {
	m, ok := b.Selected()
	if !ok {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(labelStyle.Render(m.ID))
	sb.WriteString("\n\n")
	ancestors := "none"
	if len(m.AncestorIDs) > 0 {
		ancestors = strings.Join(m.AncestorIDs, ", ")
	}
	fmt.Fprintf(&sb, "%s %s\n", labelStyle.Render("ancestors:"), ancestors)

	var parents, children []string
	for _, e := range b.report.Edges {
		if e.ChildID == m.ID {
			parents = append(parents, fmt.Sprintf("%s (offset %d)", e.ParentID, e.JoinOffset))
		}
		if e.ParentID == m.ID {
			children = append(children, fmt.Sprintf("%s (offset %d)", e.ChildID, e.JoinOffset))
		}
	}
	fmt.Fprintf(&sb, "%s %s\n", labelStyle.Render("joins:"), joinOrNone(parents))
	fmt.Fprintf(&sb, "%s %s", labelStyle.Render("joined by:"), joinOrNone(children))
	return sb.String()
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

// Browse runs the interactive browser until the user quits.
func Browse(report *graph.Report) error {
	if _, err := tea.NewProgram(NewBrowser(report), tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run browser: %w", err)
	}
	return nil
}
