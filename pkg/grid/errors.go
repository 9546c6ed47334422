package grid

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vjranagit/gridmapper/pkg/types"
)

// Structural validation failures, in the order StructuralValidate checks them.
var (
	ErrEmptyData           = errors.New("grid: data is empty")
	ErrBadDimensions       = errors.New("grid: declared dimensions must be positive")
	ErrRowCountMismatch    = errors.New("grid: row count mismatch")
	ErrRowHeaderCount      = errors.New("grid: row header count mismatch")
	ErrColumnHeaderCount   = errors.New("grid: column header count mismatch")
	ErrColumnCountMismatch = errors.New("grid: column count mismatch")
)

// Readiness failures reported by CheckReady and CheckColorTable.
var (
	ErrHeightUnassignedOrInvalid    = errors.New("grid: height role unassigned or invalid")
	ErrTopColorUnassignedOrInvalid  = errors.New("grid: top color role unassigned or invalid")
	ErrSideColorUnassignedOrInvalid = errors.New("grid: side color role unassigned or invalid")
	ErrDimensionMismatch            = errors.New("grid: role dimensions differ")
	ErrColorTableMismatch           = errors.New("grid: color table length does not match role count")
)

// Sampling failures.
var (
	ErrNotReady   = errors.New("grid: role mapping not ready")
	ErrOutOfRange = errors.New("grid: coordinate out of range")
)

var (
	// ErrUnknownRole is returned for a Role outside the closed enumeration.
	ErrUnknownRole = errors.New("grid: unknown role")

	// ErrNoSource is returned when an import is started without a collaborator.
	ErrNoSource = errors.New("grid: import source is nil")
)

// ImportError carries a failure reported by the import collaborator verbatim.
type ImportError struct {
	SourcePath string
	Err        error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("grid: import %q: %v", e.SourcePath, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

// ValidationError is the single, first structural violation of one variable.
type ValidationError struct {
	Label  string
	Err    error
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v (variable %q)", e.Err, e.Label)
	}
	return fmt.Sprintf("%v (variable %q): %s", e.Err, e.Label, e.Detail)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// RoleShape is the diagnostic view of one role slot.
type RoleShape struct {
	Role  Role        `json:"role"`
	Label string      `json:"label"`
	Shape types.Shape `json:"shape"`
}

// ConsistencyError reports why the role mapping is not render-ready.
// For ErrDimensionMismatch, Shapes holds every role and Mismatched lists the
// roles whose shape differs from Height.
type ConsistencyError struct {
	Err        error
	Shapes     []RoleShape
	Mismatched []Role
	Detail     string
}

func (e *ConsistencyError) Error() string {
	if len(e.Shapes) == 0 {
		if e.Detail != "" {
			return fmt.Sprintf("%v: %s", e.Err, e.Detail)
		}
		return e.Err.Error()
	}
	parts := make([]string, 0, len(e.Shapes))
	for _, s := range e.Shapes {
		parts = append(parts, fmt.Sprintf("%s=%q %dx%d", s.Role, s.Label, s.Shape.Rows, s.Shape.Cols))
	}
	return fmt.Sprintf("%v: %s", e.Err, strings.Join(parts, ", "))
}

func (e *ConsistencyError) Unwrap() error { return e.Err }

// SampleError is returned by SampleAt. Err is ErrNotReady or ErrOutOfRange;
// Cause holds the ConsistencyError behind ErrNotReady.
type SampleError struct {
	Row, Col int
	Err      error
	Cause    error
}

func (e *SampleError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("sample (%d,%d): %v: %v", e.Row, e.Col, e.Err, e.Cause)
	}
	return fmt.Sprintf("sample (%d,%d): %v", e.Row, e.Col, e.Err)
}

func (e *SampleError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}
