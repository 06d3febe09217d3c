package graph

// Options tune a scoring pass.
type Options struct {
	// ClampJoinOffset bounds join offsets to [1, max(1, loops(parent))].
	ClampJoinOffset bool
	// StrictCycles makes Analyze fail when the declared edges contain a cycle.
	StrictCycles bool
}

// Pass is one computation over a fixed view of the registry. It copies the
// task order and direct edges when created and memoises ancestor sets,
// descendants and magnitudes for its lifetime. A Pass is not safe for
// concurrent use.
type Pass struct {
	opts    Options
	tasks   []*Task
	order   map[*Task]int
	parents map[*Task][]*Task

	ancestors   map[*Task][]*Task
	ancestorSet map[*Task]map[*Task]struct{}
	descendants map[*Task][]*Task
	magnitudes  map[*Task]float64
	sorted      []float64
}

func newPass(tasks []*Task, opts Options) *Pass {
	p := &Pass{
		opts:        opts,
		tasks:       make([]*Task, len(tasks)),
		order:       make(map[*Task]int, len(tasks)),
		parents:     make(map[*Task][]*Task, len(tasks)),
		ancestors:   make(map[*Task][]*Task, len(tasks)),
		ancestorSet: make(map[*Task]map[*Task]struct{}, len(tasks)),
		magnitudes:  make(map[*Task]float64, len(tasks)),
	}
	copy(p.tasks, tasks)
	for i, t := range tasks {
		p.order[t] = i
		p.parents[t] = t.InitialParents()
	}
	return p
}

// Tasks returns the tasks of the pass in creation order.
func (p *Pass) Tasks() []*Task {
	out := make([]*Task, len(p.tasks))
	copy(out, p.tasks)
	return out
}

// Options returns the options the pass was created with.
func (p *Pass) Options() Options {
	return p.opts
}

// DirectParents returns the direct parents of t as copied when the pass started.
func (p *Pass) DirectParents(t *Task) []*Task {
	if parents, ok := p.parents[t]; ok {
		return append([]*Task(nil), parents...)
	}
	return t.InitialParents()
}

func (p *Pass) isDirect(child, parent *Task) bool {
	for _, candidate := range p.DirectParents(child) {
		if candidate == parent {
			return true
		}
	}
	return false
}
