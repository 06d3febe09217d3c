package graph

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoops_RoundsHalfToEven(t *testing.T) {
	t.Parallel()

	cases := []struct {
		total float64
		want  int
	}{
		{0, 0},
		{2.5, 0},  // 0.5
		{7.5, 2},  // 1.5
		{12.5, 2}, // 2.5
		{17.5, 4}, // 3.5
		{22.5, 4}, // 4.5
		{11, 2},
		{15, 3},
	}
	for _, tc := range cases {
		task, err := NewTask("t", "t", Attributes{Difficulty: tc.total})
		require.NoError(t, err)
		assert.Equal(t, tc.want, Loops(task), "total %v", tc.total)
	}
}

func TestMagnitude_IndependentTasks(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	a, _ := reg.CreateTask("a", 1, 2, 3)
	assert.InDelta(t, 18.0, reg.Magnitude(a), 1e-9)
	assert.Empty(t, reg.Descendants(a))
}

func TestPercentile_SingleTask(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	a, _ := reg.CreateTask("a", 0, 0, 0)
	assert.InDelta(t, 1.0, reg.Percentile(a), 1e-9)
}

func TestPercentile_TiesShareHighestRank(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	a, _ := reg.CreateTask("a", 1, 0, 0)
	b, _ := reg.CreateTask("b", 1, 0, 0)
	c, _ := reg.CreateTask("c", 2, 0, 0)

	pass := reg.NewPass(Options{})
	assert.InDelta(t, 0.5, pass.Percentile(a), 1e-9)
	assert.InDelta(t, 0.5, pass.Percentile(b), 1e-9)
	assert.InDelta(t, 1.0, pass.Percentile(c), 1e-9)
}

func TestPercentile_RoundsToTwoDecimals(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	var tasks []*Task
	for i, name := range []string{"a", "b", "c", "d"} {
		task, err := reg.CreateTask(name, float64(i), 0, 0)
		require.NoError(t, err)
		tasks = append(tasks, task)
	}
	pass := reg.NewPass(Options{})
	assert.InDelta(t, 0.0, pass.Percentile(tasks[0]), 1e-9)
	assert.InDelta(t, 0.33, pass.Percentile(tasks[1]), 1e-9)
	assert.InDelta(t, 0.67, pass.Percentile(tasks[2]), 1e-9)
	assert.InDelta(t, 1.0, pass.Percentile(tasks[3]), 1e-9)
}

func TestPercentile_RoundsExactBinaryValue(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	var tasks []*Task
	for i := range 41 {
		task, err := reg.CreateTask(fmt.Sprintf("t%02d", i), float64(i), 0, 0)
		require.NoError(t, err)
		tasks = append(tasks, task)
	}
	pass := reg.NewPass(Options{})
	// k/40 lands on a .xx5 boundary; the stored double decides the direction
	cases := map[int]float64{1: 0.03, 3: 0.07, 7: 0.17, 9: 0.23, 20: 0.5, 40: 1.0}
	for rank, want := range cases {
		assert.Equal(t, want, pass.Percentile(tasks[rank]), "task %s", tasks[rank].ID)
	}
}

func TestPercentile_TaskOutsidePass(t *testing.T) {
	t.Parallel()

	empty := NewRegistry().NewPass(Options{})
	lone, err := NewTask("lone", "lone", Attributes{Difficulty: 1})
	require.NoError(t, err)
	assert.Equal(t, 1.0, empty.Percentile(lone))

	reg := NewRegistry()
	_, err = reg.CreateTask("a", 2, 0, 0)
	require.NoError(t, err)
	_, err = reg.CreateTask("b", 4, 0, 0)
	require.NoError(t, err)
	pass := reg.NewPass(Options{})

	low, err := NewTask("low", "low", Attributes{Difficulty: 1})
	require.NoError(t, err)
	high, err := NewTask("high", "high", Attributes{Difficulty: 9})
	require.NoError(t, err)
	assert.Equal(t, 0.0, pass.Percentile(low))
	assert.Equal(t, 1.0, pass.Percentile(high))
}

func TestJoinOffset_RequiresDirectEdge(t *testing.T) {
	t.Parallel()
	f := partyFixture(t)

	_, err := f.reg.JoinOffset(f.task("beerpong"), f.task("idea"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidEdge))

	_, err = f.reg.JoinOffset(f.task("idea"), f.task("konzept"))
	require.ErrorIs(t, err, ErrInvalidEdge)

	_, err = f.reg.JoinOffset(nil, f.task("konzept"))
	require.ErrorIs(t, err, ErrInvalidEdge)
}

func offsetFixture(t *testing.T, parentTotal, childTotal float64) (*Registry, *Task, *Task) {
	t.Helper()
	reg := NewRegistry()
	parent, err := reg.CreateTask("parent", parentTotal, 0, 0)
	require.NoError(t, err)
	child, err := reg.CreateTask("child", childTotal, 0, 0)
	require.NoError(t, err)
	require.NoError(t, reg.AddDependency(child, parent))
	return reg, child, parent
}

func TestJoinOffset_Formula(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name                    string
		parentTotal, childTotal float64
		want, wantClamped       int
	}{
		{"half rounds to even", 15, 7.5, 2, 2},
		{"light child lands after last loop", 20, 0, 5, 4},
		{"heavy child goes negative", 30, 30, -5, 1},
		{"zero-loop parent", 1, 3, 1, 1},
		{"single-loop parent", 5, 0, 1, 1},
		{"regular", 20, 3, 4, 4},
	}
	for _, tc := range cases {
		reg, child, parent := offsetFixture(t, tc.parentTotal, tc.childTotal)

		got, err := reg.NewPass(Options{}).JoinOffset(child, parent)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.want, got, tc.name)

		clamped, err := reg.NewPass(Options{ClampJoinOffset: true}).JoinOffset(child, parent)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.wantClamped, clamped, tc.name)
	}
}
