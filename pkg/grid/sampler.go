package grid

// Sample is an immutable snapshot of one grid cell across the three roles.
// It holds copies only.
type Sample struct {
	Row       int
	Col       int
	Values    [NumRoles]float64
	Labels    [NumRoles]string
	RowHeader string
	ColHeader string
	Valid     bool
}

// Value returns the value sampled for role
func (s Sample) Value(role Role) float64 { return s.Values[role] }

// Label returns the label of the variable sampled for role
func (s Sample) Label(role Role) string { return s.Labels[role] }

// SampleAt reads cell (row, col) from every role. The mapping must pass
// CheckReady and the coordinate must be inside the Height variable's shape.
func SampleAt(m *RoleMap, row, col int) (Sample, error) {
	if err := CheckReady(m); err != nil {
		return Sample{}, &SampleError{Row: row, Col: col, Err: ErrNotReady, Cause: err}
	}

	height, _ := m.Get(RoleHeight)
	if row < 0 || row >= height.Rows() || col < 0 || col >= height.Cols() {
		return Sample{}, &SampleError{Row: row, Col: col, Err: ErrOutOfRange}
	}

	s := Sample{Row: row, Col: col}
	for _, role := range Roles {
		v, _ := m.Get(role)
		s.Values[role] = v.Value(row, col)
		s.Labels[role] = v.Label()
		if s.RowHeader == "" {
			s.RowHeader = v.RowHeader(row)
		}
		if s.ColHeader == "" {
			s.ColHeader = v.ColumnHeader(col)
		}
	}
	s.Valid = true
	return s, nil
}
