package graph

import "sort"

// Percentile ranks t's magnitude against every task of the pass on a 0..1
// scale rounded to two decimals. Tied magnitudes share the highest rank and a
// single-task registry ranks its task at 1.
//
// A task outside the pass is ranked against the members without joining
// them: it gets 0 when its magnitude is below every member's, and 1 when the
// pass has at most one member.
func (p *Pass) Percentile(t *Task) float64 {
	if p.sorted == nil {
		p.sorted = make([]float64, 0, len(p.tasks))
		for _, x := range p.tasks {
			p.sorted = append(p.sorted, p.Magnitude(x))
		}
		sort.Float64s(p.sorted)
	}
	n := len(p.sorted)
	if n <= 1 {
		return 1.0
	}
	m := p.Magnitude(t)
	rank := sort.Search(n, func(i int) bool { return p.sorted[i] > m })
	if rank == 0 {
		return 0
	}
	return roundTo2(float64(rank-1) / float64(n-1))
}
