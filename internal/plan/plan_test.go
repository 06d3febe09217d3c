package plan

import (
	"context"
	"testing"
	"time"

	"github.com/metalagman/orgarhythm/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func partyRegistry(t *testing.T) *graph.Registry {
	t.Helper()
	reg := graph.NewRegistry()
	for _, s := range []struct {
		name      string
		d, p, ext float64
	}{
		{"idea", 5, 5, 5},
		{"konzept", 5, 5, 5},
		{"getraenke", 3, 3, 5},
		{"muellkonzept", 2, 3, 1},
		{"beerpong", 3, 1, 1},
	} {
		_, err := reg.CreateTask(s.name, s.d, s.p, s.ext)
		require.NoError(t, err)
	}
	for _, e := range [][2]string{
		{"getraenke", "konzept"},
		{"muellkonzept", "getraenke"},
		{"beerpong", "muellkonzept"},
		{"beerpong", "konzept"},
		{"konzept", "idea"},
	} {
		require.NoError(t, reg.Link(e[0], e[1]))
	}
	return reg
}

func TestBuild_PartyGraph(t *testing.T) {
	t.Parallel()

	p, err := Build(context.Background(), partyRegistry(t), graph.Options{}, nil)
	require.NoError(t, err)

	want := []Window{
		{TaskID: "idea", Loops: 3, StartSlot: 1, EndSlot: 3},
		{TaskID: "konzept", Loops: 3, StartSlot: 1, EndSlot: 3},
		{TaskID: "getraenke", Loops: 2, StartSlot: 2, EndSlot: 3},
		{TaskID: "muellkonzept", Loops: 1, StartSlot: 3, EndSlot: 3},
		{TaskID: "beerpong", Loops: 1, StartSlot: 3, EndSlot: 3},
	}
	assert.Equal(t, want, p.Windows)
	assert.Equal(t, 3, p.Slots)
	assert.Len(t, p.Attempts, 10)

	assert.Equal(t, []Attempt{
		{TaskID: "getraenke", Number: 1, SlotIndex: 2},
		{TaskID: "getraenke", Number: 2, SlotIndex: 3},
	}, p.AttemptsFor("getraenke"))

	assert.Equal(t, []Dependency{
		{ParentTaskID: "idea", ParentAttempt: 1, ChildTaskID: "konzept", ChildAttempt: 1},
		{ParentTaskID: "konzept", ParentAttempt: 2, ChildTaskID: "getraenke", ChildAttempt: 1},
		{ParentTaskID: "getraenke", ParentAttempt: 2, ChildTaskID: "muellkonzept", ChildAttempt: 1},
		{ParentTaskID: "muellkonzept", ParentAttempt: 1, ChildTaskID: "beerpong", ChildAttempt: 1},
		{ParentTaskID: "konzept", ParentAttempt: 3, ChildTaskID: "beerpong", ChildAttempt: 1},
	}, p.Dependencies)
}

func TestBuild_WithCalendar(t *testing.T) {
	t.Parallel()

	cal := &Calendar{Start: time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC), SlotDays: 2}
	p, err := Build(context.Background(), partyRegistry(t), graph.Options{}, cal)
	require.NoError(t, err)

	attempts := p.AttemptsFor("muellkonzept")
	require.Len(t, attempts, 1)
	assert.Equal(t, "2026-03-06", attempts[0].Date)
	assert.Equal(t, "2026-03-02", p.AttemptsFor("idea")[0].Date)
}

func TestBuild_ZeroLoopParent(t *testing.T) {
	t.Parallel()

	reg := graph.NewRegistry()
	_, err := reg.CreateTask("root", 15, 0, 0)
	require.NoError(t, err)
	_, err = reg.CreateTask("tiny", 1, 0, 0)
	require.NoError(t, err)
	_, err = reg.CreateTask("leaf", 5, 0, 0)
	require.NoError(t, err)
	require.NoError(t, reg.Link("tiny", "root"))
	require.NoError(t, reg.Link("leaf", "tiny"))

	p, err := Build(context.Background(), reg, graph.Options{}, nil)
	require.NoError(t, err)

	tiny, ok := p.Window("tiny")
	require.True(t, ok)
	assert.Equal(t, 0, tiny.Loops)
	assert.Less(t, tiny.EndSlot, tiny.StartSlot)
	assert.Empty(t, p.AttemptsFor("tiny"))

	leaf, ok := p.Window("leaf")
	require.True(t, ok)
	assert.Equal(t, tiny.StartSlot, leaf.StartSlot)
	for _, d := range p.Dependencies {
		assert.NotEqual(t, "tiny", d.ParentTaskID)
		assert.NotEqual(t, "tiny", d.ChildTaskID)
	}
}

func TestBuild_RejectsCycles(t *testing.T) {
	t.Parallel()

	reg := graph.NewRegistry()
	_, _ = reg.CreateTask("a", 5, 5, 5)
	_, _ = reg.CreateTask("b", 5, 5, 5)
	require.NoError(t, reg.Link("a", "b"))
	require.NoError(t, reg.Link("b", "a"))

	_, err := Build(context.Background(), reg, graph.Options{}, nil)
	require.ErrorIs(t, err, graph.ErrCyclicDependency)
}

func TestCalendar_DefaultsToDailySlots(t *testing.T) {
	t.Parallel()

	cal := Calendar{Start: time.Date(2026, time.January, 30, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, "2026-02-01", cal.Date(3).Format(time.DateOnly))
}
