package grid

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAddSameVariableTwice(t *testing.T) {
	reg := NewRegistry(NewRecorder(0))
	roles := NewRoleMap(reg, NewRecorder(0))
	v := newVar("a", filled(2, 2, 0))

	h1 := reg.Add(v)
	h2 := reg.Add(v)
	assert.Equal(t, h1, h2)
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, []string{"a"}, reg.Labels())

	require.NoError(t, roles.Assign(RoleHeight, h2))
	require.True(t, reg.Remove(h1))

	_, ok := roles.Get(RoleHeight)
	assert.False(t, ok)
	assert.False(t, roles.IsAssigned(RoleHeight))
	assert.Equal(t, 0, reg.Len())
}

func TestRegistryOrderAndLookup(t *testing.T) {
	reg := NewRegistry(NewRecorder(0))
	a := reg.Add(newVar("rain", filled(2, 2, 0)))
	b := reg.Add(newVar("temp", filled(2, 2, 0)))
	c := reg.Add(newVar("rain", filled(3, 3, 0)))

	if diff := cmp.Diff([]string{"rain", "temp", "rain"}, reg.Labels()); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []Handle{a, b, c}, reg.Handles())

	h, v, ok := reg.ByLabel("rain")
	require.True(t, ok)
	assert.Equal(t, a, h)
	assert.Equal(t, 2, v.Rows())

	_, _, ok = reg.ByLabel("wind")
	assert.False(t, ok)

	h, _, ok = reg.ByIndex(1)
	require.True(t, ok)
	assert.Equal(t, b, h)

	for _, i := range []int{-1, 3, 100} {
		_, v, ok := reg.ByIndex(i)
		assert.False(t, ok)
		assert.Nil(t, v)
	}
}

func TestRegistryRemove(t *testing.T) {
	rec := NewRecorder(0)
	reg := NewRegistry(rec)
	a := reg.Add(newVar("a", filled(1, 1, 0)))
	b := reg.Add(newVar("b", filled(1, 1, 0)))

	require.True(t, reg.Remove(a))
	assert.False(t, reg.Contains(a))
	assert.Equal(t, []string{"b"}, reg.Labels())

	// second removal is a soft failure
	assert.False(t, reg.Remove(a))
	assert.Equal(t, 1, rec.Len())

	assert.False(t, reg.Remove(Handle{}))
	assert.Equal(t, 2, rec.Len())

	_, ok := reg.Get(b)
	assert.True(t, ok)
}

func TestRegistryStaleHandleAfterSlotReuse(t *testing.T) {
	reg := NewRegistry(NewRecorder(0))
	old := reg.Add(newVar("old", filled(1, 1, 0)))
	require.True(t, reg.Remove(old))

	fresh := reg.Add(newVar("fresh", filled(1, 1, 0)))
	assert.Equal(t, old.Index, fresh.Index)
	assert.NotEqual(t, old.Generation, fresh.Generation)

	_, ok := reg.Get(old)
	assert.False(t, ok)
	v, ok := reg.Get(fresh)
	require.True(t, ok)
	assert.Equal(t, "fresh", v.Label())
}

func TestRegistryHandleOf(t *testing.T) {
	reg := NewRegistry(NewRecorder(0))
	v := newVar("v", filled(1, 1, 0))
	h := reg.Add(v)

	got, ok := reg.HandleOf(v)
	require.True(t, ok)
	assert.Equal(t, h, got)

	_, ok = reg.HandleOf(newVar("other", filled(1, 1, 0)))
	assert.False(t, ok)
}
