package graph

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidAttribute is returned when an effort attribute is negative or not finite.
	ErrInvalidAttribute = errors.New("invalid attribute")
	// ErrInvalidEdge is returned for edges that are not direct dependencies or reference unknown tasks.
	ErrInvalidEdge = errors.New("invalid edge")
	// ErrDuplicateTask is returned when a different task is registered under an existing id.
	ErrDuplicateTask = errors.New("duplicate task")
	// ErrUnknownTask is returned when a task id is not present in the registry.
	ErrUnknownTask = errors.New("unknown task")
	// ErrCyclicDependency matches any *CyclicDependencyError.
	ErrCyclicDependency = errors.New("cyclic dependency")
)

// CyclicDependencyError describes one cycle in the declared dependency edges.
// Path starts and ends with the same task id.
type CyclicDependencyError struct {
	Path []string
}

func (e *CyclicDependencyError) Error() string {
	if len(e.Path) == 0 {
		return ErrCyclicDependency.Error()
	}
	return ErrCyclicDependency.Error() + ": " + strings.Join(e.Path, " -> ")
}

// Is reports whether target is ErrCyclicDependency.
func (e *CyclicDependencyError) Is(target error) bool {
	return target == ErrCyclicDependency
}
