package graph

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_SameInstanceIsNoop(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	task, err := NewTask("a", "A", Attributes{Difficulty: 1})
	require.NoError(t, err)

	require.NoError(t, reg.Register(task))
	require.NoError(t, reg.Register(task))
	assert.Equal(t, 1, reg.Len())
}

func TestRegister_DuplicateID(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	_, err := reg.CreateTask("a", 1, 1, 1)
	require.NoError(t, err)

	_, err = reg.CreateTask("a", 2, 2, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateTask))
}

func TestCreateTask_RejectsInvalidAttributes(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	cases := []struct {
		name      string
		d, p, ext float64
	}{
		{"negative difficulty", -1, 0, 0},
		{"negative priority", 0, -0.5, 0},
		{"negative external", 0, 0, -3},
		{"nan", math.NaN(), 0, 0},
		{"inf", 0, math.Inf(1), 0},
	}
	for _, tc := range cases {
		_, err := reg.CreateTask(tc.name, tc.d, tc.p, tc.ext)
		require.Error(t, err, tc.name)
		assert.True(t, errors.Is(err, ErrInvalidAttribute), tc.name)
	}
	assert.Equal(t, 0, reg.Len())
}

func TestNewTask_RequiresID(t *testing.T) {
	t.Parallel()

	_, err := NewTask("  ", "name", Attributes{})
	require.ErrorIs(t, err, ErrInvalidAttribute)

	task, err := NewTask("id", "", Attributes{})
	require.NoError(t, err)
	assert.Equal(t, "id", task.Name)
}

func TestTasks_CreationOrder(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	for _, name := range []string{"c", "a", "b"} {
		_, err := reg.CreateTask(name, 1, 1, 1)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids(reg.Tasks()))
}

func TestAddDependency_Validation(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	a, err := reg.CreateTask("a", 1, 1, 1)
	require.NoError(t, err)
	stranger, err := NewTask("x", "x", Attributes{})
	require.NoError(t, err)

	require.ErrorIs(t, reg.AddDependency(a, nil), ErrInvalidEdge)
	require.ErrorIs(t, reg.AddDependency(a, stranger), ErrInvalidEdge)
	require.ErrorIs(t, reg.AddDependency(stranger, a), ErrInvalidEdge)
	require.ErrorIs(t, reg.Link("a", "missing"), ErrUnknownTask)
}

func TestAddDependency_IgnoresRepeatedEdge(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	a, _ := reg.CreateTask("a", 1, 1, 1)
	b, _ := reg.CreateTask("b", 1, 1, 1)

	require.NoError(t, reg.AddDependency(b, a))
	require.NoError(t, reg.AddDependency(b, a))
	assert.Equal(t, []string{"a"}, ids(b.InitialParents()))
}

func TestSnapshot_IsIndependent(t *testing.T) {
	t.Parallel()
	f := partyFixture(t)

	snap := f.reg.Snapshot()
	require.Equal(t, ids(f.reg.Tasks()), ids(snap.Tasks()))

	// Edits after the snapshot do not leak into it.
	late, err := f.reg.CreateTask("aufraeumen", 1, 1, 1)
	require.NoError(t, err)
	require.NoError(t, f.reg.AddDependency(late, f.task("beerpong")))

	assert.Equal(t, 5, snap.Len())
	idea, err := snap.Lookup("idea")
	require.NoError(t, err)
	assert.NotSame(t, f.task("idea"), idea)
	assert.InDelta(t, 82.0, snap.Magnitude(idea), 1e-9)
	assert.InDelta(t, 85.0, f.reg.Magnitude(f.task("idea")), 1e-9)

	beerpong, err := snap.Lookup("beerpong")
	require.NoError(t, err)
	assert.Equal(t, []string{"muellkonzept", "konzept"}, ids(beerpong.InitialParents()))
}

func TestDerivedValues_ReflectCurrentGraph(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	a, _ := reg.CreateTask("a", 5, 5, 5)
	b, _ := reg.CreateTask("b", 1, 1, 1)

	assert.InDelta(t, 45.0, reg.Magnitude(a), 1e-9)
	require.NoError(t, reg.AddDependency(b, a))
	assert.InDelta(t, 48.0, reg.Magnitude(a), 1e-9)
}

func TestRegistryAccessorsMatchSharedPass(t *testing.T) {
	t.Parallel()
	f := partyFixture(t)

	pass := f.reg.NewPass(Options{})
	for _, task := range f.reg.Tasks() {
		assert.Equal(t, pass.Magnitude(task), f.reg.Magnitude(task), task.ID)
		assert.Equal(t, pass.Percentile(task), f.reg.Percentile(task), task.ID)
		assert.Equal(t, pass.Descendants(task), f.reg.Descendants(task), task.ID)
	}
}
