package graph

import "sort"

// Ancestors returns every task reachable from t through direct parents,
// ordered by creation. A task on a cycle is its own ancestor.
func (p *Pass) Ancestors(t *Task) []*Task {
	if cached, ok := p.ancestors[t]; ok {
		return append([]*Task(nil), cached...)
	}
	seen := make(map[*Task]struct{})
	var found []*Task
	var visit func(*Task)
	visit = func(node *Task) {
		for _, parent := range p.DirectParents(node) {
			if _, ok := seen[parent]; ok {
				continue
			}
			seen[parent] = struct{}{}
			found = append(found, parent)
			// A completed set already holds everything reachable from parent.
			if done, ok := p.ancestors[parent]; ok {
				for _, a := range done {
					if _, ok := seen[a]; !ok {
						seen[a] = struct{}{}
						found = append(found, a)
					}
				}
				continue
			}
			visit(parent)
		}
	}
	visit(t)

	sort.SliceStable(found, func(i, j int) bool {
		return p.rank(found[i]) < p.rank(found[j])
	})
	p.ancestors[t] = found
	p.ancestorSet[t] = seen
	return append([]*Task(nil), found...)
}

// IsAncestor reports whether a is an ancestor of t.
func (p *Pass) IsAncestor(a, t *Task) bool {
	if _, ok := p.ancestorSet[t]; !ok {
		p.Ancestors(t)
	}
	_, ok := p.ancestorSet[t][a]
	return ok
}

// Cycles reports every cycle found by a three-colour walk over the direct
// edges. A gray revisit is a cycle; a black revisit is a shared ancestor.
func (p *Pass) Cycles() [][]string {
	const (
		white = iota
		gray
		black
	)
	color := make(map[*Task]int, len(p.tasks))
	var path []*Task
	var cycles [][]string

	var walk func(*Task)
	walk = func(node *Task) {
		color[node] = gray
		path = append(path, node)
		for _, parent := range p.DirectParents(node) {
			switch color[parent] {
			case gray:
				start := len(path) - 1
				for start > 0 && path[start] != parent {
					start--
				}
				cycle := make([]string, 0, len(path)-start+1)
				for _, n := range path[start:] {
					cycle = append(cycle, n.ID)
				}
				cycles = append(cycles, append(cycle, parent.ID))
			case white:
				walk(parent)
			}
		}
		path = path[:len(path)-1]
		color[node] = black
	}

	for _, t := range p.tasks {
		if color[t] == white {
			walk(t)
		}
	}
	return cycles
}

// rank orders tasks outside the pass after every member.
func (p *Pass) rank(t *Task) int {
	if i, ok := p.order[t]; ok {
		return i
	}
	return len(p.order)
}
