package grid

import "fmt"

var unassignedErr = [NumRoles]error{
	RoleHeight:    ErrHeightUnassignedOrInvalid,
	RoleTopColor:  ErrTopColorUnassignedOrInvalid,
	RoleSideColor: ErrSideColorUnassignedOrInvalid,
}

// CheckReady reports whether the role mapping can be rendered. Checks run in
// role order and the first failure is returned:
// each role must be assigned to a structurally valid variable, then all three
// variables must share the same declared shape.
// The result depends on current assignments and is never cached.
func CheckReady(m *RoleMap) error {
	var vars [NumRoles]*Variable
	for _, role := range Roles {
		if !m.IsAssigned(role) {
			return &ConsistencyError{Err: unassignedErr[role], Detail: describeSlot(m, role)}
		}
		vars[role], _ = m.Get(role)
	}

	base := vars[RoleHeight].Shape()
	shapes := make([]RoleShape, 0, NumRoles)
	var mismatched []Role
	for _, role := range Roles {
		v := vars[role]
		shapes = append(shapes, RoleShape{Role: role, Label: v.Label(), Shape: v.Shape()})
		if v.Shape() != base {
			mismatched = append(mismatched, role)
		}
	}
	if len(mismatched) > 0 {
		return &ConsistencyError{Err: ErrDimensionMismatch, Shapes: shapes, Mismatched: mismatched}
	}
	return nil
}

// CheckColorTable verifies an externally supplied color table has one entry
// per role. The entries themselves are not interpreted.
func CheckColorTable(ids []int) error {
	if len(ids) != NumRoles {
		return &ConsistencyError{
			Err:    ErrColorTableMismatch,
			Detail: fmt.Sprintf("have %d entries, want %d", len(ids), NumRoles),
		}
	}
	return nil
}

func describeSlot(m *RoleMap, role Role) string {
	h := m.Handle(role)
	if h.IsZero() {
		return "unassigned"
	}
	v, ok := m.Get(role)
	if !ok {
		return fmt.Sprintf("%s is not a registry member", h)
	}
	return v.StructuralValidate().Error()
}
