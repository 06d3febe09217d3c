package graph

import "fmt"

// JoinOffset returns the loop iteration of parent at which child should
// begin. parent must be a direct parent of child. A parent with a single loop
// always yields 1.
func (p *Pass) JoinOffset(child, parent *Task) (int, error) {
	if child == nil || parent == nil {
		return 0, fmt.Errorf("%w: nil endpoint", ErrInvalidEdge)
	}
	if !p.isDirect(child, parent) {
		return 0, fmt.Errorf("%w: %s is not a direct parent of %s", ErrInvalidEdge, parent.ID, child.ID)
	}
	loops := Loops(parent)
	if loops == 1 {
		return 1, nil
	}
	offset := roundHalfEven((1-Total(child)/LoopDivisor)*float64(loops) + 1)
	if p.opts.ClampJoinOffset {
		offset = clampOffset(offset, loops)
	}
	return offset, nil
}

func clampOffset(offset, loops int) int {
	upper := max(loops, 1)
	return min(max(offset, 1), upper)
}
