// Package graph implements the task dependency graph and the metrics derived
// from it: ancestor closure, effort totals, loop counts, magnitude, magnitude
// percentile and join offsets.
package graph

import (
	"fmt"
	"math"
	"strings"
)

// Attributes are the effort weights a task is created with.
type Attributes struct {
	Difficulty float64 `json:"difficulty" yaml:"difficulty"`
	Priority   float64 `json:"priority"   yaml:"priority"`
	External   float64 `json:"external"   yaml:"external"`
}

// Validate rejects negative and non-finite weights.
func (a Attributes) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"difficulty", a.Difficulty},
		{"priority", a.Priority},
		{"external", a.External},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number, got %v", ErrInvalidAttribute, f.name, f.value)
		}
	}
	return nil
}

// Sum returns difficulty + priority + external.
func (a Attributes) Sum() float64 {
	return a.Difficulty + a.Priority + a.External
}

// Task is a unit of work with an effort score and declared direct parents.
type Task struct {
	ID   string
	Name string
	Attributes

	initialParents []*Task
}

// NewTask validates attrs and returns an unregistered task without edges.
func NewTask(id, name string, attrs Attributes) (*Task, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: task id is required", ErrInvalidAttribute)
	}
	if err := attrs.Validate(); err != nil {
		return nil, fmt.Errorf("task %s: %w", id, err)
	}
	if strings.TrimSpace(name) == "" {
		name = id
	}
	return &Task{ID: id, Name: name, Attributes: attrs}, nil
}

// InitialParents returns a copy of the directly declared parents in declaration order.
func (t *Task) InitialParents() []*Task {
	out := make([]*Task, len(t.initialParents))
	copy(out, t.initialParents)
	return out
}

// HasInitialParent reports whether p is a directly declared parent of t.
func (t *Task) HasInitialParent(p *Task) bool {
	for _, candidate := range t.initialParents {
		if candidate == p {
			return true
		}
	}
	return false
}

func (t *Task) String() string {
	return t.Name
}
