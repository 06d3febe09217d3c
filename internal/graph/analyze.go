package graph

import (
	"context"
	"fmt"
)

// TaskMetrics is the per-task result of a pass.
type TaskMetrics struct {
	ID                  string   `json:"id"                   yaml:"id"`
	Name                string   `json:"name"                 yaml:"name"`
	Total               float64  `json:"total"                yaml:"total"`
	Loops               int      `json:"loops"                yaml:"loops"`
	Magnitude           float64  `json:"magnitude"            yaml:"magnitude"`
	MagnitudePercentile float64  `json:"magnitude_percentile" yaml:"magnitude_percentile"`
	AncestorIDs         []string `json:"ancestor_ids"         yaml:"ancestor_ids"`
}

// EdgeOffset is the join offset of one direct edge.
type EdgeOffset struct {
	ChildID    string `json:"child_id"    yaml:"child_id"`
	ParentID   string `json:"parent_id"   yaml:"parent_id"`
	JoinOffset int    `json:"join_offset" yaml:"join_offset"`
}

// Report is the full result of analysing a registry.
type Report struct {
	Tasks  []TaskMetrics `json:"tasks"            yaml:"tasks"`
	Edges  []EdgeOffset  `json:"edges"            yaml:"edges"`
	Cycles [][]string    `json:"cycles,omitempty" yaml:"cycles,omitempty"`
}

// Task returns the metrics for id.
func (r *Report) Task(id string) (TaskMetrics, bool) {
	for _, m := range r.Tasks {
		if m.ID == id {
			return m, true
		}
	}
	return TaskMetrics{}, false
}

// Edge returns the offset recorded for the child/parent pair.
func (r *Report) Edge(childID, parentID string) (EdgeOffset, bool) {
	for _, e := range r.Edges {
		if e.ChildID == childID && e.ParentID == parentID {
			return e, true
		}
	}
	return EdgeOffset{}, false
}

// Analyze computes metrics for every task and offsets for every direct edge
// in creation and declaration order. Cycles are reported, and only fail the
// pass when opts.StrictCycles is set.
func Analyze(ctx context.Context, reg *Registry, opts Options) (*Report, error) {
	return reg.NewPass(opts).Report(ctx)
}

// Report builds the report for this pass.
func (p *Pass) Report(ctx context.Context) (*Report, error) {
	report := &Report{
		Tasks:  make([]TaskMetrics, 0, len(p.tasks)),
		Edges:  []EdgeOffset{},
		Cycles: p.Cycles(),
	}
	if p.opts.StrictCycles && len(report.Cycles) > 0 {
		return nil, &CyclicDependencyError{Path: report.Cycles[0]}
	}

	for _, t := range p.tasks {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("analyze: %w", err)
		}
		ancestors := p.Ancestors(t)
		ids := make([]string, 0, len(ancestors))
		for _, a := range ancestors {
			ids = append(ids, a.ID)
		}
		report.Tasks = append(report.Tasks, TaskMetrics{
			ID:                  t.ID,
			Name:                t.Name,
			Total:               Total(t),
			Loops:               Loops(t),
			Magnitude:           p.Magnitude(t),
			MagnitudePercentile: p.Percentile(t),
			AncestorIDs:         ids,
		})
	}

	for _, child := range p.tasks {
		for _, parent := range p.DirectParents(child) {
			offset, err := p.JoinOffset(child, parent)
			if err != nil {
				return nil, err
			}
			report.Edges = append(report.Edges, EdgeOffset{
				ChildID:    child.ID,
				ParentID:   parent.ID,
				JoinOffset: offset,
			})
		}
	}
	return report, nil
}
