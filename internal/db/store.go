// Package db provides database connectivity, migrations and persistence of
// computed metrics and attempt plans.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/metalagman/orgarhythm/internal/graph"
	"github.com/metalagman/orgarhythm/internal/plan"
)

// ErrNoSnapshot is returned when no metric snapshot has been saved yet.
var ErrNoSnapshot = errors.New("no snapshot")

// Store persists metric snapshots and attempt plans.
type Store struct {
	db *sql.DB
}

// NewStore creates a store for snapshot/attempt persistence.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Snapshot is a persisted report.
type Snapshot struct {
	ID        int64
	CreatedAt string
	Options   graph.Options
	Report    *graph.Report
}

// SaveSnapshot stores report and its task and edge rows in one transaction.
func (s *Store) SaveSnapshot(ctx context.Context, report *graph.Report, opts graph.Options) (int64, error) {
	optionsJSON, err := json.Marshal(snapshotOptions{ClampJoinOffset: opts.ClampJoinOffset, StrictCycles: opts.StrictCycles})
	if err != nil {
		return 0, fmt.Errorf("marshal options: %w", err)
	}
	var cyclesJSON string
	if len(report.Cycles) > 0 {
		data, err := json.Marshal(report.Cycles)
		if err != nil {
			return 0, fmt.Errorf("marshal cycles: %w", err)
		}
		cyclesJSON = string(data)
	}

	createdAt := time.Now().UTC().Format(time.RFC3339)
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin save snapshot: %w", err)
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO snapshots(created_at, options_json, cycles_json) VALUES(?, ?, ?)`,
		createdAt, string(optionsJSON), nullableString(cyclesJSON))
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("read snapshot id: %w", err)
	}
	for i, m := range report.Tasks {
		ancestors, err := json.Marshal(m.AncestorIDs)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("marshal ancestors: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO snapshot_tasks(snapshot_id, position, task_id, name, total, loops, magnitude, magnitude_percentile, ancestor_ids_json)
			VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, i, m.ID, m.Name, m.Total, m.Loops, m.Magnitude, m.MagnitudePercentile, string(ancestors)); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert snapshot task: %w", err)
		}
	}
	for i, e := range report.Edges {
		if _, err := tx.ExecContext(ctx, `INSERT INTO snapshot_edges(snapshot_id, position, child_id, parent_id, join_offset) VALUES(?, ?, ?, ?, ?)`,
			id, i, e.ChildID, e.ParentID, e.JoinOffset); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert snapshot edge: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit snapshot: %w", err)
	}
	return id, nil
}

type snapshotOptions struct {
	ClampJoinOffset bool `json:"clamp_join_offset"`
	StrictCycles    bool `json:"strict_cycles"`
}

// LatestSnapshot returns the most recently saved snapshot.
func (s *Store) LatestSnapshot(ctx context.Context) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, created_at, options_json, cycles_json FROM snapshots ORDER BY id DESC LIMIT 1`)
	var snap Snapshot
	var optionsJSON string
	var cyclesJSON sql.NullString
	if err := row.Scan(&snap.ID, &snap.CreatedAt, &optionsJSON, &cyclesJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, ErrNoSnapshot
		}
		return Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	var opts snapshotOptions
	if err := json.Unmarshal([]byte(optionsJSON), &opts); err != nil {
		return Snapshot{}, fmt.Errorf("parse snapshot options: %w", err)
	}
	snap.Options = graph.Options{ClampJoinOffset: opts.ClampJoinOffset, StrictCycles: opts.StrictCycles}
	snap.Report = &graph.Report{Tasks: []graph.TaskMetrics{}, Edges: []graph.EdgeOffset{}}
	if cyclesJSON.Valid {
		if err := json.Unmarshal([]byte(cyclesJSON.String), &snap.Report.Cycles); err != nil {
			return Snapshot{}, fmt.Errorf("parse snapshot cycles: %w", err)
		}
	}

	if err := s.loadSnapshotTasks(ctx, snap); err != nil {
		return Snapshot{}, err
	}
	if err := s.loadSnapshotEdges(ctx, snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (s *Store) loadSnapshotTasks(ctx context.Context, snap Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `SELECT task_id, name, total, loops, magnitude, magnitude_percentile, ancestor_ids_json
		FROM snapshot_tasks WHERE snapshot_id=? ORDER BY position`, snap.ID)
	if err != nil {
		return fmt.Errorf("query snapshot tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var m graph.TaskMetrics
		var ancestors string
		if err := rows.Scan(&m.ID, &m.Name, &m.Total, &m.Loops, &m.Magnitude, &m.MagnitudePercentile, &ancestors); err != nil {
			return fmt.Errorf("scan snapshot task: %w", err)
		}
		if err := json.Unmarshal([]byte(ancestors), &m.AncestorIDs); err != nil {
			return fmt.Errorf("parse ancestors: %w", err)
		}
		snap.Report.Tasks = append(snap.Report.Tasks, m)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate snapshot tasks: %w", err)
	}
	return nil
}

func (s *Store) loadSnapshotEdges(ctx context.Context, snap Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `SELECT child_id, parent_id, join_offset FROM snapshot_edges WHERE snapshot_id=? ORDER BY position`, snap.ID)
	if err != nil {
		return fmt.Errorf("query snapshot edges: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var e graph.EdgeOffset
		if err := rows.Scan(&e.ChildID, &e.ParentID, &e.JoinOffset); err != nil {
			return fmt.Errorf("scan snapshot edge: %w", err)
		}
		snap.Report.Edges = append(snap.Report.Edges, e)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate snapshot edges: %w", err)
	}
	return nil
}

// SaveAttempts replaces all stored attempts and attempt dependencies with p.
// Attempts are keyed by task name.
func (s *Store) SaveAttempts(ctx context.Context, p *plan.Plan) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin save attempts: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM attempts`); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear attempts: %w", err)
	}

	type key struct {
		task   string
		number int
	}
	ids := make(map[key]int64, len(p.Attempts))
	for _, a := range p.Attempts {
		res, err := tx.ExecContext(ctx, `INSERT INTO attempts(task_id, number, slot_index, date)
			SELECT id, ?, ?, ? FROM tasks WHERE name=?`, a.Number, a.SlotIndex, nullableString(a.Date), a.TaskID)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert attempt: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			_ = tx.Rollback()
			return fmt.Errorf("insert attempt: task %s not found", a.TaskID)
		}
		id, err := res.LastInsertId()
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("read attempt id: %w", err)
		}
		ids[key{a.TaskID, a.Number}] = id
	}
	for _, d := range p.Dependencies {
		before, ok := ids[key{d.ParentTaskID, d.ParentAttempt}]
		after, ok2 := ids[key{d.ChildTaskID, d.ChildAttempt}]
		if !ok || !ok2 {
			_ = tx.Rollback()
			return fmt.Errorf("attempt dependency %s#%d -> %s#%d references a missing attempt",
				d.ParentTaskID, d.ParentAttempt, d.ChildTaskID, d.ChildAttempt)
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO attempt_dependencies(before_attempt_id, after_attempt_id) VALUES(?, ?)`,
			before, after); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert attempt dependency: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attempts: %w", err)
	}
	return nil
}

// Attempts returns stored attempts ordered by slot, then task creation, then number.
func (s *Store) Attempts(ctx context.Context) ([]plan.Attempt, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT t.name, a.number, a.slot_index, a.date
		FROM attempts a JOIN tasks t ON t.id = a.task_id
		ORDER BY a.slot_index, t.id, a.number`)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []plan.Attempt
	for rows.Next() {
		var a plan.Attempt
		var date sql.NullString
		if err := rows.Scan(&a.TaskID, &a.Number, &a.SlotIndex, &date); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.Date = date.String
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return out, nil
}

// UpdateSlotIndex moves one stored attempt to another slot. date replaces
// the stored date and may be empty.
func (s *Store) UpdateSlotIndex(ctx context.Context, taskName string, number, slot int, date string) error {
	if slot < 1 {
		return fmt.Errorf("slot index must be >= 1, got %d", slot)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE attempts SET slot_index=?, date=?
		WHERE number=? AND task_id=(SELECT id FROM tasks WHERE name=?)`, slot, nullableString(date), number, taskName)
	if err != nil {
		return fmt.Errorf("update attempt slot: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("attempt %s#%d not found", taskName, number)
	}
	return nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
