package task

import (
	"fmt"
	"sort"
	"strings"

	"github.com/metalagman/orgarhythm/internal/graph"
)

// SelectionPolicy defines how next steps are chosen from an analysed graph.
type SelectionPolicy struct {
	// Team restricts candidates to tasks owned by this team. When no task
	// matches, every task is considered.
	Team string
	// Limit caps the number of returned candidates. Zero means no limit.
	Limit int
}

// Candidate is a task ranked for the next planning round.
type Candidate struct {
	Metrics graph.TaskMetrics `json:"metrics" yaml:"metrics"`
	Team    string            `json:"team,omitempty" yaml:"team,omitempty"`
	Reason  string            `json:"reason" yaml:"reason"`
}

// Prioritize orders analysed tasks by magnitude descending, then loops
// descending, then creation order, and returns each with a selection reason.
// tasks supplies team ownership and may be nil.
func Prioritize(report *graph.Report, tasks []Task, policy SelectionPolicy) []Candidate {
	if report == nil || len(report.Tasks) == 0 {
		return nil
	}

	teams := make(map[string]string, len(tasks))
	for _, t := range tasks {
		teams[t.Name] = t.Team
	}

	scope := strings.TrimSpace(policy.Team)
	scopeLabel := "none"
	candidates := report.Tasks
	if scope != "" {
		filtered := make([]graph.TaskMetrics, 0, len(report.Tasks))
		for _, m := range report.Tasks {
			if strings.EqualFold(teams[m.ID], scope) {
				filtered = append(filtered, m)
			}
		}
		if len(filtered) > 0 {
			candidates = filtered
			scopeLabel = "team"
		} else {
			scopeLabel = "scope_fallback"
		}
	}

	// report order is creation order, so a stable sort keeps it as the last tie-break
	ranked := make([]graph.TaskMetrics, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		left := ranked[i]
		right := ranked[j]
		if left.Magnitude != right.Magnitude {
			return left.Magnitude > right.Magnitude
		}
		return left.Loops > right.Loops
	})

	if policy.Limit > 0 && len(ranked) > policy.Limit {
		ranked = ranked[:policy.Limit]
	}

	out := make([]Candidate, 0, len(ranked))
	for i, m := range ranked {
		out = append(out, Candidate{
			Metrics: m,
			Team:    teams[m.ID],
			Reason: fmt.Sprintf("rank=%d scope=%s magnitude=%g percentile=%.2f loops=%d",
				i+1, scopeLabel, m.Magnitude, m.MagnitudePercentile, m.Loops),
		})
	}
	return out
}
