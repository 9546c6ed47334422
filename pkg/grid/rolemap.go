package grid

import (
	"fmt"
	"strings"
)

// Role is a fixed visualization purpose a variable can be mapped to
type Role int

const (
	RoleHeight Role = iota
	RoleTopColor
	RoleSideColor
)

// NumRoles is the number of visualization roles
const NumRoles = 3

// Roles lists every role in resolution order
var Roles = [NumRoles]Role{RoleHeight, RoleTopColor, RoleSideColor}

func (r Role) String() string {
	switch r {
	case RoleHeight:
		return "height"
	case RoleTopColor:
		return "top_color"
	case RoleSideColor:
		return "side_color"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Valid reports whether r is one of the defined roles
func (r Role) Valid() bool { return r >= RoleHeight && r <= RoleSideColor }

// MarshalText renders a role by name in JSON
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRole, int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText accepts anything ParseRole accepts
func (r *Role) UnmarshalText(text []byte) error {
	role, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// ParseRole accepts the String form of a role, case-insensitively, with
// "-" or "_" separators or none ("topcolor").
func ParseRole(s string) (Role, error) {
	key := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(s))
	switch key {
	case "height":
		return RoleHeight, nil
	case "topcolor":
		return RoleTopColor, nil
	case "sidecolor":
		return RoleSideColor, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// RoleMap holds, per role, a non-owning handle into a Registry.
type RoleMap struct {
	reg   *Registry
	slots [NumRoles]Handle
	sink  DiagnosticSink
}

// NewRoleMap creates an empty role map over reg and subscribes it to reg's
// removals so a removed variable never stays mapped.
func NewRoleMap(reg *Registry, sink DiagnosticSink) *RoleMap {
	m := &RoleMap{reg: reg, sink: sink}
	reg.OnRemove(m.clear)
	return m
}

// Registry returns the registry the map resolves handles against
func (m *RoleMap) Registry() *Registry { return m.reg }

// Assign sets the slot for role. The zero handle unassigns. A handle that is
// not a registry member is reported as a warning and still stored; it will
// never resolve.
func (m *RoleMap) Assign(role Role, h Handle) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownRole, int(role))
	}
	if !h.IsZero() && !m.reg.Contains(h) {
		warn(m.sink, "rolemap", "role %s assigned variable %s which is not in the registry", role, h)
	}
	m.slots[role] = h
	return nil
}

// Handle returns the raw slot content for role
func (m *RoleMap) Handle(role Role) Handle {
	if !role.Valid() {
		return Handle{}
	}
	return m.slots[role]
}

// Get resolves the variable mapped to role
func (m *RoleMap) Get(role Role) (*Variable, bool) {
	if !role.Valid() {
		return nil, false
	}
	return m.reg.Get(m.slots[role])
}

// IsAssigned is true only when role resolves to a variable that also passes
// StructuralValidate.
func (m *RoleMap) IsAssigned(role Role) bool {
	v, ok := m.Get(role)
	if !ok {
		return false
	}
	return v.StructuralValidate() == nil
}

func (m *RoleMap) clear(h Handle) {
	for i := range m.slots {
		if m.slots[i] == h {
			m.slots[i] = Handle{}
		}
	}
}
