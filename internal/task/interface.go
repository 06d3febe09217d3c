package task

import (
	"context"

	"github.com/metalagman/orgarhythm/internal/graph"
)

// Task describes a stored task record.
type Task struct {
	ID         int64    `json:"id"                   yaml:"-"`
	Name       string   `json:"name"                 yaml:"name"`
	Difficulty float64  `json:"difficulty"           yaml:"difficulty"`
	Priority   float64  `json:"priority"             yaml:"priority"`
	External   float64  `json:"external"             yaml:"external"`
	Team       string   `json:"team,omitempty"       yaml:"team,omitempty"`
	DependsOn  []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
	CreatedAt  string   `json:"created_at"           yaml:"-"`
	UpdatedAt  string   `json:"updated_at"           yaml:"-"`
}

// Attributes returns the effort weights of the task.
func (t Task) Attributes() graph.Attributes {
	return graph.Attributes{Difficulty: t.Difficulty, Priority: t.Priority, External: t.External}
}

// NewTask carries the fields needed to create or update a task.
type NewTask struct {
	Name string
	graph.Attributes
	Team string
}

// Source supplies task records and the dependency graph built from them.
type Source interface {
	List(ctx context.Context) ([]Task, error)
	Get(ctx context.Context, name string) (Task, error)
	Registry(ctx context.Context) (*graph.Registry, error)
}

var _ Source = (*Store)(nil)
