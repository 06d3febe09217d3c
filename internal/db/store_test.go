package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/metalagman/orgarhythm/internal/graph"
	"github.com/metalagman/orgarhythm/internal/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "orga.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func insertTasks(t *testing.T, conn *sql.DB, names ...string) {
	t.Helper()
	for _, name := range names {
		_, err := conn.Exec(`INSERT INTO tasks(name, difficulty, priority, external, created_at, updated_at)
			VALUES(?, 1, 1, 1, '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')`, name)
		require.NoError(t, err)
	}
}

func TestOpen_AppliesMigrations(t *testing.T) {
	conn := openTestDB(t)

	for _, table := range []string{"tasks", "task_dependencies", "snapshots", "snapshot_tasks", "snapshot_edges", "attempts", "attempt_dependencies"} {
		var name string
		err := conn.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestOpen_RejectsEmptyPath(t *testing.T) {
	_, err := Open(context.Background(), "")
	require.Error(t, err)
}

func TestStore_SnapshotRoundTrip(t *testing.T) {
	s := NewStore(openTestDB(t))
	ctx := context.Background()

	_, err := s.LatestSnapshot(ctx)
	require.ErrorIs(t, err, ErrNoSnapshot)

	report := &graph.Report{
		Tasks: []graph.TaskMetrics{
			{ID: "a", Name: "a", Total: 15, Loops: 3, Magnitude: 60, MagnitudePercentile: 1, AncestorIDs: []string{}},
			{ID: "b", Name: "b", Total: 15, Loops: 3, Magnitude: 45, MagnitudePercentile: 0, AncestorIDs: []string{"a"}},
		},
		Edges:  []graph.EdgeOffset{{ChildID: "b", ParentID: "a", JoinOffset: 1}},
		Cycles: [][]string{{"x", "y", "x"}},
	}
	opts := graph.Options{ClampJoinOffset: true}

	first, err := s.SaveSnapshot(ctx, &graph.Report{Tasks: []graph.TaskMetrics{}, Edges: []graph.EdgeOffset{}}, graph.Options{})
	require.NoError(t, err)
	id, err := s.SaveSnapshot(ctx, report, opts)
	require.NoError(t, err)
	assert.Greater(t, id, first)

	snap, err := s.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, snap.ID)
	assert.Equal(t, opts, snap.Options)
	assert.Equal(t, report, snap.Report)
	assert.NotEmpty(t, snap.CreatedAt)
}

func TestStore_Attempts(t *testing.T) {
	conn := openTestDB(t)
	s := NewStore(conn)
	ctx := context.Background()
	insertTasks(t, conn, "a", "b")

	p := &plan.Plan{
		Attempts: []plan.Attempt{
			{TaskID: "a", Number: 1, SlotIndex: 1, Date: "2026-03-02"},
			{TaskID: "a", Number: 2, SlotIndex: 2, Date: "2026-03-03"},
			{TaskID: "b", Number: 1, SlotIndex: 2, Date: "2026-03-03"},
		},
		Dependencies: []plan.Dependency{{ParentTaskID: "a", ParentAttempt: 2, ChildTaskID: "b", ChildAttempt: 1}},
	}
	require.NoError(t, s.SaveAttempts(ctx, p))
	// saving again replaces the previous plan
	require.NoError(t, s.SaveAttempts(ctx, p))

	got, err := s.Attempts(ctx)
	require.NoError(t, err)
	assert.Equal(t, p.Attempts, got)

	var deps int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM attempt_dependencies`).Scan(&deps))
	assert.Equal(t, 1, deps)

	require.NoError(t, s.UpdateSlotIndex(ctx, "b", 1, 4, "2026-03-05"))
	got, err = s.Attempts(ctx)
	require.NoError(t, err)
	assert.Equal(t, plan.Attempt{TaskID: "b", Number: 1, SlotIndex: 4, Date: "2026-03-05"}, got[len(got)-1])

	require.Error(t, s.UpdateSlotIndex(ctx, "b", 1, 0, ""))
	require.Error(t, s.UpdateSlotIndex(ctx, "b", 7, 2, ""))
}

func TestStore_SaveAttemptsUnknownTask(t *testing.T) {
	s := NewStore(openTestDB(t))

	err := s.SaveAttempts(context.Background(), &plan.Plan{Attempts: []plan.Attempt{{TaskID: "ghost", Number: 1, SlotIndex: 1}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}
