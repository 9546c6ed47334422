package grid

import "fmt"

// Handle identifies a variable owned by a Registry. The zero Handle never
// refers to a variable. A handle goes stale when its variable is removed;
// the slot generation makes reuse of the slot detectable.
type Handle struct {
	Index      uint32 `json:"index"`
	Generation uint32 `json:"generation"`
}

// IsZero reports whether h is the unassigned handle
func (h Handle) IsZero() bool { return h.Generation == 0 }

func (h Handle) String() string {
	if h.IsZero() {
		return "<none>"
	}
	return fmt.Sprintf("#%d.%d", h.Index, h.Generation)
}

type arenaSlot struct {
	variable   *Variable
	generation uint32
}

// Registry owns every loaded variable, in insertion order.
// It is not safe for concurrent use; see Workspace.
type Registry struct {
	slots    []arenaSlot
	free     []uint32
	order    []Handle
	onRemove []func(Handle)
	sink     DiagnosticSink
}

// NewRegistry creates an empty registry reporting soft failures to sink
// (nil logs them).
func NewRegistry(sink DiagnosticSink) *Registry {
	return &Registry{sink: sink}
}

// OnRemove registers fn to be called with the handle of every removed
// variable, before Remove returns.
func (r *Registry) OnRemove(fn func(Handle)) {
	r.onRemove = append(r.onRemove, fn)
}

// Add takes ownership of v and appends it. Adding a current member again
// returns its existing handle.
func (r *Registry) Add(v *Variable) Handle {
	if h, ok := r.HandleOf(v); ok {
		return h
	}
	if v.sink == nil {
		v.sink = r.sink
	}

	var idx uint32
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		idx = uint32(len(r.slots))
		r.slots = append(r.slots, arenaSlot{})
	}

	slot := &r.slots[idx]
	slot.generation++
	slot.variable = v

	h := Handle{Index: idx, Generation: slot.generation}
	r.order = append(r.order, h)
	return h
}

// Remove destroys the variable behind h and clears every role slot pointing
// at it. Removing a non-member is reported as a warning and returns false.
func (r *Registry) Remove(h Handle) bool {
	if !r.Contains(h) {
		warn(r.sink, "registry", "remove of unknown variable %s ignored", h)
		return false
	}

	for _, fn := range r.onRemove {
		fn(h)
	}

	slot := &r.slots[h.Index]
	slot.variable = nil
	r.free = append(r.free, h.Index)

	for i, o := range r.order {
		if o == h {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Contains reports whether h refers to a current member
func (r *Registry) Contains(h Handle) bool {
	if h.IsZero() || int(h.Index) >= len(r.slots) {
		return false
	}
	slot := r.slots[h.Index]
	return slot.variable != nil && slot.generation == h.Generation
}

// Get resolves h
func (r *Registry) Get(h Handle) (*Variable, bool) {
	if !r.Contains(h) {
		return nil, false
	}
	return r.slots[h.Index].variable, true
}

// HandleOf returns the handle of v when v is a member.
func (r *Registry) HandleOf(v *Variable) (Handle, bool) {
	for _, h := range r.order {
		if r.slots[h.Index].variable == v {
			return h, true
		}
	}
	return Handle{}, false
}

// ByLabel returns the first variable, in insertion order, labelled label.
// Duplicate labels are not an error.
func (r *Registry) ByLabel(label string) (Handle, *Variable, bool) {
	for _, h := range r.order {
		if v := r.slots[h.Index].variable; v.Label() == label {
			return h, v, true
		}
	}
	return Handle{}, nil, false
}

// ByIndex returns the i-th variable in insertion order.
func (r *Registry) ByIndex(i int) (Handle, *Variable, bool) {
	if i < 0 || i >= len(r.order) {
		return Handle{}, nil, false
	}
	h := r.order[i]
	return h, r.slots[h.Index].variable, true
}

// Labels returns one label per variable in insertion order, duplicates kept.
func (r *Registry) Labels() []string {
	labels := make([]string, 0, len(r.order))
	for _, h := range r.order {
		labels = append(labels, r.slots[h.Index].variable.Label())
	}
	return labels
}

// Handles returns the member handles in insertion order
func (r *Registry) Handles() []Handle {
	return append([]Handle(nil), r.order...)
}

// Len returns the number of members
func (r *Registry) Len() int { return len(r.order) }
