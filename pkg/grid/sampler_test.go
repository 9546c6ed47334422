package grid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleAtBounds(t *testing.T) {
	m := newMapping(
		newVar("h", filled(10, 10, 0)),
		newVar("t", filled(10, 10, 100)),
		newVar("s", filled(10, 10, 200)),
	)

	s, err := SampleAt(m.roles, 0, 0)
	require.NoError(t, err)
	assert.True(t, s.Valid)
	assert.Equal(t, [NumRoles]float64{0, 100, 200}, s.Values)

	s, err = SampleAt(m.roles, 9, 9)
	require.NoError(t, err)
	assert.Equal(t, 99.0, s.Value(RoleHeight))
	assert.Equal(t, 299.0, s.Value(RoleSideColor))
	assert.Equal(t, "t", s.Label(RoleTopColor))

	for _, rc := range [][2]int{{10, 0}, {-1, 0}, {0, 10}, {0, -1}} {
		s, err := SampleAt(m.roles, rc[0], rc[1])
		assert.ErrorIs(t, err, ErrOutOfRange, rc)
		assert.NotErrorIs(t, err, ErrNotReady)
		assert.False(t, s.Valid)
	}
}

func TestSampleAtNotReady(t *testing.T) {
	m := newMapping(newVar("h", filled(2, 2, 0)), nil, newVar("s", filled(2, 2, 0)))

	s, err := SampleAt(m.roles, 0, 0)
	require.ErrorIs(t, err, ErrNotReady)
	assert.ErrorIs(t, err, ErrTopColorUnassignedOrInvalid)
	assert.False(t, s.Valid)
}

func TestSampleAtSameVariableEverywhere(t *testing.T) {
	v := newVar("only", withHeaders(filled(3, 3, 1), "row", "col"))
	m := newMapping(v, v, v)

	s, err := SampleAt(m.roles, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, s.Values[0], s.Values[1])
	assert.Equal(t, s.Values[1], s.Values[2])
	assert.Equal(t, "row1", s.RowHeader)
	assert.Equal(t, "col2", s.ColHeader)
}

func TestSampleAtHeaderResolution(t *testing.T) {
	// Height has no headers, TopColor has only column headers, SideColor
	// has both: the row header must come from SideColor and the column
	// header from TopColor.
	m := newMapping(
		newVar("h", filled(2, 2, 0)),
		newVar("t", withHeaders(filled(2, 2, 0), "", "top-col")),
		newVar("s", withHeaders(filled(2, 2, 0), "side-row", "side-col")),
	)

	s, err := SampleAt(m.roles, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, "side-row1", s.RowHeader)
	assert.Equal(t, "top-col0", s.ColHeader)
}

func TestSampleAtKeepsNaN(t *testing.T) {
	h := filled(2, 2, 0)
	h.Data[0][1] = math.NaN()
	m := newMapping(newVar("h", h), newVar("t", filled(2, 2, 0)), newVar("s", filled(2, 2, 0)))

	s, err := SampleAt(m.roles, 0, 1)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(s.Value(RoleHeight)))
	assert.True(t, s.Valid)
}
