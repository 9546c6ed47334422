// Package grid holds loaded grid variables, maps them to visualization
// roles and checks that the mapping is consistent before it is rendered.
package grid

import (
	"context"
	"fmt"
	"sync"

	"github.com/vjranagit/gridmapper/pkg/types"
)

// Notifier receives fire-and-forget UI notifications. Refresh follows every
// registry or role mutation; Redraw follows a successful LoadAndMap.
type Notifier interface {
	Refresh()
	Redraw()
}

// NotifierFuncs adapts plain functions to Notifier; nil fields are skipped.
type NotifierFuncs struct {
	OnRefresh func()
	OnRedraw  func()
}

func (n NotifierFuncs) Refresh() {
	if n.OnRefresh != nil {
		n.OnRefresh()
	}
}

func (n NotifierFuncs) Redraw() {
	if n.OnRedraw != nil {
		n.OnRedraw()
	}
}

// Option configures a Workspace
type Option func(*Workspace)

// WithNotifier sets the UI notifier
func WithNotifier(n Notifier) Option {
	return func(w *Workspace) { w.notifier = n }
}

// WithDiagnostics sets the sink for soft diagnostics
func WithDiagnostics(s DiagnosticSink) Option {
	return func(w *Workspace) { w.sink = s }
}

// Workspace is the explicitly owned context holding one registry and its
// role map. All methods are safe for concurrent use; mutations are
// serialized.
type Workspace struct {
	mu         sync.RWMutex
	reg        *Registry
	roles      *RoleMap
	colorTable []int
	notifier   Notifier
	sink       DiagnosticSink
}

// NewWorkspace creates an empty workspace
func NewWorkspace(opts ...Option) *Workspace {
	w := &Workspace{notifier: NotifierFuncs{}, sink: LogSink{}}
	for _, opt := range opts {
		opt(w)
	}
	w.reg = NewRegistry(w.sink)
	w.roles = NewRoleMap(w.reg, w.sink)
	return w
}

// VariableInfo describes one registry member
type VariableInfo struct {
	Handle      Handle      `json:"handle"`
	Index       int         `json:"index"`
	Label       string      `json:"label"`
	SourcePath  string      `json:"source_path"`
	Shape       types.Shape `json:"shape"`
	Valid       bool        `json:"valid"`
	Problem     string      `json:"problem,omitempty"`
	Statistics  *Statistics `json:"statistics,omitempty"`
	MappedRoles []string    `json:"roles,omitempty"`
}

// RoleInfo describes one role slot
type RoleInfo struct {
	Role     string `json:"role"`
	Handle   Handle `json:"handle"`
	Label    string `json:"label,omitempty"`
	Assigned bool   `json:"assigned"`
}

// Import loads one variable from src and adds it. The registry is only
// touched once the import has fully succeeded.
func (w *Workspace) Import(ctx context.Context, src Source, req types.ImportRequest, label string) (Handle, error) {
	res := <-LoadAsync(ctx, src, req, label)
	if res.Err != nil {
		return Handle{}, res.Err
	}
	return w.AddVariable(res.Variable), nil
}

// AddVariable takes ownership of v
func (w *Workspace) AddVariable(v *Variable) Handle {
	w.mu.Lock()
	h := w.reg.Add(v)
	w.mu.Unlock()

	w.notifier.Refresh()
	return h
}

// RemoveVariable removes h and clears any role pointing at it
func (w *Workspace) RemoveVariable(h Handle) bool {
	w.mu.Lock()
	ok := w.reg.Remove(h)
	w.mu.Unlock()

	if ok {
		w.notifier.Refresh()
	}
	return ok
}

// Rename changes the label of h
func (w *Workspace) Rename(h Handle, label string) bool {
	w.mu.Lock()
	v, ok := w.reg.Get(h)
	if ok {
		v.SetLabel(label)
	}
	w.mu.Unlock()

	if ok {
		w.notifier.Refresh()
	}
	return ok
}

// Assign maps h to role; the zero handle unassigns
func (w *Workspace) Assign(role Role, h Handle) error {
	w.mu.Lock()
	err := w.roles.Assign(role, h)
	w.mu.Unlock()

	if err != nil {
		return err
	}
	w.notifier.Refresh()
	return nil
}

// AssignByLabel maps the first variable labelled label to role
func (w *Workspace) AssignByLabel(role Role, label string) (Handle, error) {
	w.mu.RLock()
	h, _, ok := w.reg.ByLabel(label)
	w.mu.RUnlock()

	if !ok {
		return Handle{}, fmt.Errorf("no variable labelled %q", label)
	}
	return h, w.Assign(role, h)
}

// ByIndex returns the handle of the i-th variable
func (w *Workspace) ByIndex(i int) (Handle, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	h, _, ok := w.reg.ByIndex(i)
	return h, ok
}

// Labels lists variable labels in insertion order
func (w *Workspace) Labels() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.reg.Labels()
}

// Variables describes every member in insertion order. Statistics are
// computed (and cached) for structurally valid variables only.
func (w *Workspace) Variables() []VariableInfo {
	w.mu.RLock()
	defer w.mu.RUnlock()

	infos := make([]VariableInfo, 0, w.reg.Len())
	for i, h := range w.reg.Handles() {
		v, _ := w.reg.Get(h)
		info := VariableInfo{
			Handle:     h,
			Index:      i,
			Label:      v.Label(),
			SourcePath: v.SourcePath(),
			Shape:      v.Shape(),
		}
		if err := v.StructuralValidate(); err != nil {
			info.Problem = err.Error()
		} else {
			info.Valid = true
			stats := v.Statistics()
			info.Statistics = &stats
		}
		for _, role := range Roles {
			if w.roles.Handle(role) == h {
				info.MappedRoles = append(info.MappedRoles, role.String())
			}
		}
		infos = append(infos, info)
	}
	return infos
}

// Roles describes the three role slots
func (w *Workspace) Roles() []RoleInfo {
	w.mu.RLock()
	defer w.mu.RUnlock()

	infos := make([]RoleInfo, 0, NumRoles)
	for _, role := range Roles {
		info := RoleInfo{Role: role.String(), Handle: w.roles.Handle(role)}
		if v, ok := w.roles.Get(role); ok {
			info.Label = v.Label()
		}
		info.Assigned = w.roles.IsAssigned(role)
		infos = append(infos, info)
	}
	return infos
}

// SetColorTable attaches an external color table, one id per role. A nil
// table detaches it.
func (w *Workspace) SetColorTable(ids []int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if ids == nil {
		w.colorTable = nil
		return
	}
	w.colorTable = append([]int{}, ids...)
}

// CheckReady runs CheckReady on the role map and, when a color table is
// attached, CheckColorTable.
func (w *Workspace) CheckReady() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.checkReadyLocked()
}

func (w *Workspace) checkReadyLocked() error {
	if err := CheckReady(w.roles); err != nil {
		return err
	}
	if w.colorTable != nil {
		return CheckColorTable(w.colorTable)
	}
	return nil
}

// SampleAt samples the mapped variables at (row, col)
func (w *Workspace) SampleAt(row, col int) (Sample, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.colorTable != nil {
		if err := CheckColorTable(w.colorTable); err != nil {
			return Sample{}, &SampleError{Row: row, Col: col, Err: ErrNotReady, Cause: err}
		}
	}
	return SampleAt(w.roles, row, col)
}

// RoleSource names one input of LoadAndMap
type RoleSource struct {
	Request types.ImportRequest
	Label   string
}

// LoadAndMap imports one source per role, in role order, adds them, maps
// them and validates the result. If any import fails nothing is added.
// Redraw is sent only when the mapping ends up ready.
func (w *Workspace) LoadAndMap(ctx context.Context, src Source, sources [NumRoles]RoleSource) ([NumRoles]Handle, error) {
	var handles [NumRoles]Handle
	var loaded [NumRoles]*Variable
	for _, role := range Roles {
		rs := sources[role]
		label := rs.Label
		if label == "" {
			label = rs.Request.SourcePath
		}
		res := <-LoadAsync(ctx, src, rs.Request, label)
		if res.Err != nil {
			return handles, fmt.Errorf("load %s: %w", role, res.Err)
		}
		loaded[role] = res.Variable
	}

	w.mu.Lock()
	for _, role := range Roles {
		handles[role] = w.reg.Add(loaded[role])
		if err := w.roles.Assign(role, handles[role]); err != nil {
			w.mu.Unlock()
			return handles, err
		}
	}
	err := w.checkReadyLocked()
	w.mu.Unlock()

	w.notifier.Refresh()
	if err != nil {
		return handles, err
	}
	w.notifier.Redraw()
	return handles, nil
}
