package task

import (
	"testing"

	"github.com/metalagman/orgarhythm/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidateIDs(cs []Candidate) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Metrics.ID)
	}
	return out
}

func TestPrioritize_OrdersByMagnitudeLoopsCreation(t *testing.T) {
	t.Parallel()

	report := &graph.Report{Tasks: []graph.TaskMetrics{
		{ID: "a", Magnitude: 10, Loops: 1},
		{ID: "b", Magnitude: 30, Loops: 1},
		{ID: "c", Magnitude: 10, Loops: 2},
		{ID: "d", Magnitude: 10, Loops: 1},
	}}

	got := Prioritize(report, nil, SelectionPolicy{})
	assert.Equal(t, []string{"b", "c", "a", "d"}, candidateIDs(got))
	assert.Contains(t, got[0].Reason, "rank=1")
	assert.Contains(t, got[0].Reason, "scope=none")
}

func TestPrioritize_Limit(t *testing.T) {
	t.Parallel()

	report := &graph.Report{Tasks: []graph.TaskMetrics{
		{ID: "a", Magnitude: 1},
		{ID: "b", Magnitude: 2},
		{ID: "c", Magnitude: 3},
	}}

	got := Prioritize(report, nil, SelectionPolicy{Limit: 2})
	assert.Equal(t, []string{"c", "b"}, candidateIDs(got))
}

func TestPrioritize_TeamScope(t *testing.T) {
	t.Parallel()

	report := &graph.Report{Tasks: []graph.TaskMetrics{
		{ID: "a", Magnitude: 5},
		{ID: "b", Magnitude: 9},
		{ID: "c", Magnitude: 7},
	}}
	tasks := []Task{{Name: "a", Team: "Bar"}, {Name: "b", Team: "kitchen"}, {Name: "c", Team: "bar"}}

	got := Prioritize(report, tasks, SelectionPolicy{Team: "bar"})
	require.Len(t, got, 2)
	assert.Equal(t, []string{"c", "a"}, candidateIDs(got))
	assert.Equal(t, "bar", got[0].Team)
	assert.Contains(t, got[0].Reason, "scope=team")

	fallback := Prioritize(report, tasks, SelectionPolicy{Team: "garden"})
	assert.Equal(t, []string{"b", "c", "a"}, candidateIDs(fallback))
	assert.Contains(t, fallback[0].Reason, "scope=scope_fallback")
}

func TestPrioritize_Empty(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Prioritize(nil, nil, SelectionPolicy{}))
	assert.Nil(t, Prioritize(&graph.Report{}, nil, SelectionPolicy{}))
}
