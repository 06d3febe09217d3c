package graph

import (
	"math"
	"strconv"
)

const (
	// LoopDivisor and LoopMultiplier map an effort total onto a loop count.
	LoopDivisor    = 15.0
	LoopMultiplier = 3.0
	// SelfWeight multiplies a task's own total inside its magnitude.
	SelfWeight = 3.0
)

// Total returns difficulty + priority + external.
func Total(t *Task) float64 {
	return t.Sum()
}

// Loops returns how many work cycles t needs: total/15*3 rounded half to even.
func Loops(t *Task) int {
	return roundHalfEven(Total(t) / LoopDivisor * LoopMultiplier)
}

// Descendants returns every other task of the pass that has t as an
// ancestor, in creation order.
func (p *Pass) Descendants(t *Task) []*Task {
	if p.descendants == nil {
		p.indexDescendants()
	}
	if _, member := p.order[t]; !member {
		var out []*Task
		for _, x := range p.tasks {
			if p.IsAncestor(t, x) {
				out = append(out, x)
			}
		}
		return out
	}
	return append([]*Task(nil), p.descendants[t]...)
}

func (p *Pass) indexDescendants() {
	p.descendants = make(map[*Task][]*Task, len(p.tasks))
	for _, x := range p.tasks {
		for _, a := range p.Ancestors(x) {
			if a == x {
				continue
			}
			p.descendants[a] = append(p.descendants[a], x)
		}
	}
}

// Magnitude returns 3*total(t) plus the total of every descendant.
func (p *Pass) Magnitude(t *Task) float64 {
	if m, ok := p.magnitudes[t]; ok {
		return m
	}
	m := SelfWeight * Total(t)
	for _, d := range p.Descendants(t) {
		m += Total(d)
	}
	if _, member := p.order[t]; member {
		p.magnitudes[t] = m
	}
	return m
}

func roundHalfEven(v float64) int {
	return int(math.RoundToEven(v))
}

// roundTo2 rounds the exact binary value of v to two decimals, so 1/40
// (stored slightly above 0.025) becomes 0.03.
func roundTo2(v float64) float64 {
	out, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	return out
}
