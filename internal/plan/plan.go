// Package plan seeds a repeated-attempt schedule from graph metrics: every
// task gets one attempt per loop, placed on 1-based slots so that a child
// joins its direct parents at their join offsets.
package plan

import (
	"context"
	"fmt"
	"time"

	"github.com/metalagman/orgarhythm/internal/graph"
)

// Attempt is one loop iteration of a task placed on a slot.
type Attempt struct {
	TaskID    string `json:"task_id"        yaml:"task_id"`
	Number    int    `json:"number"         yaml:"number"`
	SlotIndex int    `json:"slot_index"     yaml:"slot_index"`
	Date      string `json:"date,omitempty" yaml:"date,omitempty"`
}

// Dependency links the parent attempt a child's first attempt waits for.
type Dependency struct {
	ParentTaskID  string `json:"parent_task_id" yaml:"parent_task_id"`
	ParentAttempt int    `json:"parent_attempt" yaml:"parent_attempt"`
	ChildTaskID   string `json:"child_task_id"  yaml:"child_task_id"`
	ChildAttempt  int    `json:"child_attempt"  yaml:"child_attempt"`
}

// Window is the slot range a task occupies. EndSlot < StartSlot when the task
// has no loops.
type Window struct {
	TaskID    string `json:"task_id"    yaml:"task_id"`
	Loops     int    `json:"loops"      yaml:"loops"`
	StartSlot int    `json:"start_slot" yaml:"start_slot"`
	EndSlot   int    `json:"end_slot"   yaml:"end_slot"`
}

// Plan is the seeded attempt schedule.
type Plan struct {
	Windows      []Window     `json:"windows"      yaml:"windows"`
	Attempts     []Attempt    `json:"attempts"     yaml:"attempts"`
	Dependencies []Dependency `json:"dependencies" yaml:"dependencies"`
	Slots        int          `json:"slots"        yaml:"slots"`
}

// Calendar maps slot indices onto dates; slot 1 is Start.
type Calendar struct {
	Start    time.Time
	SlotDays int
}

// Date returns the day slot falls on.
func (c Calendar) Date(slot int) time.Time {
	days := c.SlotDays
	if days <= 0 {
		days = 1
	}
	return c.Start.AddDate(0, 0, (slot-1)*days)
}

// Build computes the plan for the registry. The declared edges must be
// acyclic. cal may be nil.
func Build(ctx context.Context, reg *graph.Registry, opts graph.Options, cal *Calendar) (*Plan, error) {
	pass := reg.NewPass(opts)
	if cycles := pass.Cycles(); len(cycles) > 0 {
		return nil, fmt.Errorf("build plan: %w", &graph.CyclicDependencyError{Path: cycles[0]})
	}
	order := topoOrder(pass)

	out := &Plan{
		Windows:      make([]Window, 0, len(order)),
		Attempts:     []Attempt{},
		Dependencies: []Dependency{},
	}
	start := make(map[*graph.Task]int, len(order))
	for _, t := range order {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("build plan: %w", err)
		}
		slot := 1
		loops := graph.Loops(t)
		for _, parent := range pass.DirectParents(t) {
			offset, err := pass.JoinOffset(t, parent)
			if err != nil {
				return nil, fmt.Errorf("build plan: %w", err)
			}
			slot = max(slot, start[parent], start[parent]+offset-1)

			parentLoops := graph.Loops(parent)
			if parentLoops > 0 && loops > 0 {
				out.Dependencies = append(out.Dependencies, Dependency{
					ParentTaskID:  parent.ID,
					ParentAttempt: min(max(offset, 1), parentLoops),
					ChildTaskID:   t.ID,
					ChildAttempt:  1,
				})
			}
		}
		start[t] = slot

		out.Windows = append(out.Windows, Window{
			TaskID:    t.ID,
			Loops:     loops,
			StartSlot: slot,
			EndSlot:   slot + loops - 1,
		})
		for n := 1; n <= loops; n++ {
			a := Attempt{TaskID: t.ID, Number: n, SlotIndex: slot + n - 1}
			if cal != nil {
				a.Date = cal.Date(a.SlotIndex).Format(time.DateOnly)
			}
			out.Attempts = append(out.Attempts, a)
			out.Slots = max(out.Slots, a.SlotIndex)
		}
	}
	return out, nil
}

// topoOrder returns parents before children, breaking ties by creation order.
func topoOrder(pass *graph.Pass) []*graph.Task {
	tasks := pass.Tasks()
	inDegree := make(map[*graph.Task]int, len(tasks))
	children := make(map[*graph.Task][]*graph.Task, len(tasks))
	for _, t := range tasks {
		parents := pass.DirectParents(t)
		inDegree[t] = len(parents)
		for _, p := range parents {
			children[p] = append(children[p], t)
		}
	}

	done := make(map[*graph.Task]bool, len(tasks))
	order := make([]*graph.Task, 0, len(tasks))
	for len(order) < len(tasks) {
		progressed := false
		for _, t := range tasks {
			if done[t] || inDegree[t] > 0 {
				continue
			}
			done[t] = true
			order = append(order, t)
			for _, c := range children[t] {
				inDegree[c]--
			}
			progressed = true
			break
		}
		if !progressed {
			break
		}
	}
	return order
}

// AttemptsFor returns the attempts of one task in loop order.
func (p *Plan) AttemptsFor(taskID string) []Attempt {
	var out []Attempt
	for _, a := range p.Attempts {
		if a.TaskID == taskID {
			out = append(out, a)
		}
	}
	return out
}

// Window returns the slot window of taskID.
func (p *Plan) Window(taskID string) (Window, bool) {
	for _, w := range p.Windows {
		if w.TaskID == taskID {
			return w, true
		}
	}
	return Window{}, false
}
