package graph

import (
	"fmt"
	"sync"
)

// Registry is an append-only, creation-ordered collection of tasks.
// Registry mutation is single-writer; a scoring pass works on a copy of the
// edges taken when the pass is created (see NewPass).
type Registry struct {
	mu    sync.RWMutex
	tasks []*Task
	index map[string]*Task
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]*Task)}
}

// Register appends t. Registering the same instance twice is a no-op.
func (r *Registry) Register(t *Task) error {
	if t == nil {
		return fmt.Errorf("%w: nil task", ErrUnknownTask)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.index[t.ID]; ok {
		if existing == t {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrDuplicateTask, t.ID)
	}
	r.index[t.ID] = t
	r.tasks = append(r.tasks, t)
	return nil
}

// CreateTask builds a task identified by name and registers it.
func (r *Registry) CreateTask(name string, difficulty, priority, external float64) (*Task, error) {
	t, err := NewTask(name, name, Attributes{Difficulty: difficulty, Priority: priority, External: external})
	if err != nil {
		return nil, err
	}
	if err := r.Register(t); err != nil {
		return nil, err
	}
	return t, nil
}

// AddDependency appends parent to child's direct parents. Both tasks must be
// registered. Repeated edges are ignored; cycles are not rejected.
func (r *Registry) AddDependency(child, parent *Task) error {
	if child == nil || parent == nil {
		return fmt.Errorf("%w: nil endpoint", ErrInvalidEdge)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.index[child.ID] != child {
		return fmt.Errorf("%w: child %s is not registered", ErrInvalidEdge, child.ID)
	}
	if r.index[parent.ID] != parent {
		return fmt.Errorf("%w: parent %s is not registered", ErrInvalidEdge, parent.ID)
	}
	if child.HasInitialParent(parent) {
		return nil
	}
	child.initialParents = append(child.initialParents, parent)
	return nil
}

// Link adds a dependency between two registered task ids.
func (r *Registry) Link(childID, parentID string) error {
	child, err := r.Lookup(childID)
	if err != nil {
		return err
	}
	parent, err := r.Lookup(parentID)
	if err != nil {
		return err
	}
	return r.AddDependency(child, parent)
}

// Lookup returns the task registered under id.
func (r *Registry) Lookup(id string) (*Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	return t, nil
}

// Tasks returns all registered tasks in creation order.
func (r *Registry) Tasks() []*Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Task, len(r.tasks))
	copy(out, r.tasks)
	return out
}

// Len returns the number of registered tasks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

// Snapshot returns a deep copy of the registry: new task instances with the
// same ids, attributes, order and edges.
func (r *Registry) Snapshot() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &Registry{
		tasks: make([]*Task, 0, len(r.tasks)),
		index: make(map[string]*Task, len(r.tasks)),
	}
	for _, t := range r.tasks {
		c := &Task{ID: t.ID, Name: t.Name, Attributes: t.Attributes}
		clone.tasks = append(clone.tasks, c)
		clone.index[c.ID] = c
	}
	for i, t := range r.tasks {
		c := clone.tasks[i]
		c.initialParents = make([]*Task, 0, len(t.initialParents))
		for _, p := range t.initialParents {
			c.initialParents = append(c.initialParents, clone.index[p.ID])
		}
	}
	return clone
}

// NewPass starts a scoring pass over the current registry contents.
func (r *Registry) NewPass(opts Options) *Pass {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return newPass(r.tasks, opts)
}

// The accessors below each run a fresh Pass and suit one-off queries. To
// score many tasks, create one pass with NewPass or call Analyze so the
// ancestor closure is computed once.

// Ancestors returns the transitive closure of t's direct parents.
func (r *Registry) Ancestors(t *Task) []*Task {
	return r.NewPass(Options{}).Ancestors(t)
}

// Descendants returns every other registered task that has t as an ancestor.
func (r *Registry) Descendants(t *Task) []*Task {
	return r.NewPass(Options{}).Descendants(t)
}

// Magnitude returns t's weighted downstream importance.
func (r *Registry) Magnitude(t *Task) float64 {
	return r.NewPass(Options{}).Magnitude(t)
}

// Percentile returns t's magnitude percentile among all registered tasks.
// Ranking every task this way repeats the closure per call; use NewPass.
func (r *Registry) Percentile(t *Task) float64 {
	return r.NewPass(Options{}).Percentile(t)
}

// JoinOffset returns the parent loop iteration at which child should start.
func (r *Registry) JoinOffset(child, parent *Task) (int, error) {
	return r.NewPass(Options{}).JoinOffset(child, parent)
}

// DetectCycles returns the first cycle in the declared edges, or nil.
func (r *Registry) DetectCycles() error {
	cycles := r.NewPass(Options{}).Cycles()
	if len(cycles) == 0 {
		return nil
	}
	return &CyclicDependencyError{Path: cycles[0]}
}
