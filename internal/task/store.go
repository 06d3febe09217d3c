package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/metalagman/orgarhythm/internal/graph"
)

// Store manages task persistence.
type Store struct {
	db *sql.DB
}

// NewStore creates a task store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Add inserts a new task and returns its row id.
func (s *Store) Add(ctx context.Context, in NewTask) (int64, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return 0, fmt.Errorf("%w: task name is required", graph.ErrInvalidAttribute)
	}
	if err := in.Attributes.Validate(); err != nil {
		return 0, fmt.Errorf("task %s: %w", name, err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx, `INSERT INTO tasks(name, difficulty, priority, external, team, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?)`,
		name, in.Difficulty, in.Priority, in.External, nullableString(in.Team), now, now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, fmt.Errorf("%w: %s", graph.ErrDuplicateTask, name)
		}
		return 0, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read task id: %w", err)
	}
	return id, nil
}

// Update replaces the effort attributes and team of an existing task.
func (s *Store) Update(ctx context.Context, in NewTask) error {
	if err := in.Attributes.Validate(); err != nil {
		return fmt.Errorf("task %s: %w", in.Name, err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET difficulty=?, priority=?, external=?, team=?, updated_at=? WHERE name=?`,
		in.Difficulty, in.Priority, in.External, nullableString(in.Team), now, strings.TrimSpace(in.Name))
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return requireRow(res, in.Name)
}

// List returns all tasks in creation order with their direct dependencies.
func (s *Store) List(ctx context.Context) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, difficulty, priority, external, team, created_at, updated_at FROM tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Task
	index := make(map[int64]int)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		index[t.ID] = len(out)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}

	edges, err := s.db.QueryContext(ctx, `SELECT e.task_id, d.name FROM task_dependencies e
		JOIN tasks d ON d.id = e.depends_on_id ORDER BY e.seq`)
	if err != nil {
		return nil, fmt.Errorf("query dependencies: %w", err)
	}
	defer func() { _ = edges.Close() }()
	for edges.Next() {
		var taskID int64
		var dependsOn string
		if err := edges.Scan(&taskID, &dependsOn); err != nil {
			return nil, fmt.Errorf("scan dependency: %w", err)
		}
		if i, ok := index[taskID]; ok {
			out[i].DependsOn = append(out[i].DependsOn, dependsOn)
		}
	}
	if err := edges.Err(); err != nil {
		return nil, fmt.Errorf("iterate dependencies: %w", err)
	}
	return out, nil
}

// Get fetches a task by name.
func (s *Store) Get(ctx context.Context, name string) (Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, difficulty, priority, external, team, created_at, updated_at FROM tasks WHERE name=?`, name)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Task{}, fmt.Errorf("%w: %s", graph.ErrUnknownTask, name)
		}
		return Task{}, err
	}
	deps, err := s.Dependencies(ctx, name)
	if err != nil {
		return Task{}, err
	}
	t.DependsOn = deps
	return t, nil
}

// Delete removes a task and every edge touching it.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE name=?`, name)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return requireRow(res, name)
}

// AddDependency links task->dependsOn. It reports whether a new edge was created.
func (s *Store) AddDependency(ctx context.Context, taskName, dependsOnName string) (bool, error) {
	if taskName == dependsOnName {
		return false, fmt.Errorf("%w: task %s cannot depend on itself", graph.ErrInvalidEdge, taskName)
	}
	taskID, err := s.idOf(ctx, taskName)
	if err != nil {
		return false, err
	}
	dependsOnID, err := s.idOf(ctx, dependsOnName)
	if err != nil {
		return false, err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO task_dependencies(task_id, depends_on_id, created_at) VALUES(?, ?, ?)`,
		taskID, dependsOnID, now)
	if err != nil {
		return false, fmt.Errorf("insert dependency: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return rows > 0, nil
}

// Dependencies returns the names of the direct parents of a task in declaration order.
func (s *Store) Dependencies(ctx context.Context, name string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT d.name FROM task_dependencies e
		JOIN tasks t ON t.id = e.task_id
		JOIN tasks d ON d.id = e.depends_on_id
		WHERE t.name=? ORDER BY e.seq`, name)
	if err != nil {
		return nil, fmt.Errorf("query dependencies: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []string
	for rows.Next() {
		var dep string
		if err := rows.Scan(&dep); err != nil {
			return nil, fmt.Errorf("scan dependency: %w", err)
		}
		out = append(out, dep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dependencies: %w", err)
	}
	return out, nil
}

// Registry loads every task and edge into a new registry in creation and
// declaration order. Task names become graph ids.
func (s *Store) Registry(ctx context.Context) (*graph.Registry, error) {
	tasks, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return buildRegistry(tasks)
}

func buildRegistry(tasks []Task) (*graph.Registry, error) {
	reg := graph.NewRegistry()
	for _, t := range tasks {
		node, err := graph.NewTask(t.Name, t.Name, t.Attributes())
		if err != nil {
			return nil, err
		}
		if err := reg.Register(node); err != nil {
			return nil, err
		}
	}
	for _, t := range tasks {
		for _, dep := range t.DependsOn {
			if err := reg.Link(t.Name, dep); err != nil {
				return nil, fmt.Errorf("link %s -> %s: %w", t.Name, dep, err)
			}
		}
	}
	return reg, nil
}

func (s *Store) idOf(ctx context.Context, name string) (int64, error) {
	var id int64
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM tasks WHERE name=?`, name).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s", graph.ErrUnknownTask, name)
		}
		return 0, fmt.Errorf("read task id: %w", err)
	}
	return id, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (Task, error) {
	var t Task
	var team sql.NullString
	if err := row.Scan(&t.ID, &t.Name, &t.Difficulty, &t.Priority, &t.External, &team, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Task{}, err
		}
		return Task{}, fmt.Errorf("scan task: %w", err)
	}
	t.Team = team.String
	return t, nil
}

func requireRow(res sql.Result, name string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", graph.ErrUnknownTask, name)
	}
	return nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
