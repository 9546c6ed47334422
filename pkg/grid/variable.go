package grid

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/floats"

	"github.com/vjranagit/gridmapper/pkg/types"
)

// RangeEpsilon is the smallest Range a variable reports.
const RangeEpsilon = 0.001

// Statistics summarises the finite cells of a variable.
// With no finite cells Min is +Inf, Max is -Inf and Count is 0.
type Statistics struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Range float64 `json:"range"`
	Count int     `json:"count"`
}

// Empty reports whether no finite cell contributed to the statistics.
func (s Statistics) Empty() bool { return s.Count == 0 }

// Variable is one imported 2D grid with optional headers and a display label.
type Variable struct {
	label      string
	sourcePath string

	data          [][]float64
	rowHeaders    []string
	columnHeaders []string
	rowCount      int
	colCount      int

	// stats is nil until computed; a new data set stores nil again.
	stats   atomic.Pointer[Statistics]
	statsMu sync.Mutex

	sink DiagnosticSink
}

// NewVariable creates an empty variable. It holds no data until ImportFrom.
func NewVariable(label, sourcePath string) *Variable {
	return &Variable{label: label, sourcePath: sourcePath}
}

// ImportFrom populates the variable from a parsed grid and invalidates any
// cached statistics. Shape is not checked here; see StructuralValidate.
func (v *Variable) ImportFrom(raw types.RawGrid) {
	v.statsMu.Lock()
	defer v.statsMu.Unlock()

	v.data = raw.Data
	v.rowHeaders = raw.RowHeaders
	v.columnHeaders = raw.ColumnHeaders
	v.rowCount = raw.RowCount
	v.colCount = raw.ColCount
	v.stats.Store(nil)
}

// Source produces raw grids. It is implemented by the import collaborators
// in pkg/importer and pkg/storage.
type Source interface {
	Import(ctx context.Context, req types.ImportRequest) (*types.RawGrid, error)
}

// Load runs src and returns a populated variable labelled label. Any failure
// from src is returned as an *ImportError without reinterpretation.
func Load(ctx context.Context, src Source, req types.ImportRequest, label string) (*Variable, error) {
	if src == nil {
		return nil, &ImportError{SourcePath: req.SourcePath, Err: ErrNoSource}
	}
	raw, err := src.Import(ctx, req)
	if err != nil {
		return nil, &ImportError{SourcePath: req.SourcePath, Err: err}
	}
	if raw == nil {
		return nil, &ImportError{SourcePath: req.SourcePath, Err: fmt.Errorf("source returned no grid")}
	}
	v := NewVariable(label, req.SourcePath)
	v.ImportFrom(*raw)
	return v, nil
}

// LoadResult is delivered by LoadAsync
type LoadResult struct {
	Variable *Variable
	Err      error
}

// LoadAsync runs Load on its own goroutine. The channel receives exactly one
// result and is then closed. An import, once started, runs to completion.
func LoadAsync(ctx context.Context, src Source, req types.ImportRequest, label string) <-chan LoadResult {
	out := make(chan LoadResult, 1)
	go func() {
		defer close(out)
		v, err := Load(ctx, src, req, label)
		out <- LoadResult{Variable: v, Err: err}
	}()
	return out
}

// Label returns the display label
func (v *Variable) Label() string { return v.label }

// SetLabel changes the display label
func (v *Variable) SetLabel(label string) { v.label = label }

// SourcePath returns the informational origin of the data
func (v *Variable) SourcePath() string { return v.sourcePath }

// Rows returns the declared row count
func (v *Variable) Rows() int { return v.rowCount }

// Cols returns the declared column count
func (v *Variable) Cols() int { return v.colCount }

// Shape returns the declared dimensions
func (v *Variable) Shape() types.Shape {
	return types.Shape{Rows: v.rowCount, Cols: v.colCount}
}

// HasRowHeaders reports whether the source declared row headers
func (v *Variable) HasRowHeaders() bool { return v.rowHeaders != nil }

// HasColumnHeaders reports whether the source declared column headers
func (v *Variable) HasColumnHeaders() bool { return v.columnHeaders != nil }

// RowHeader returns the header of row i, or "" when there is none.
func (v *Variable) RowHeader(i int) string {
	if i < 0 || i >= len(v.rowHeaders) {
		return ""
	}
	return v.rowHeaders[i]
}

// ColumnHeader returns the header of column j, or "" when there is none.
func (v *Variable) ColumnHeader(j int) string {
	if j < 0 || j >= len(v.columnHeaders) {
		return ""
	}
	return v.columnHeaders[j]
}

// Value returns the cell at (row, col). It does not check bounds; callers
// must keep the coordinate inside a validated shape.
func (v *Variable) Value(row, col int) float64 {
	return v.data[row][col]
}

// StructuralValidate returns the first structural violation found, checking
// in a fixed order: data present, positive declared dimensions, row count,
// row headers, column headers, then each row's length.
func (v *Variable) StructuralValidate() error {
	if len(v.data) == 0 {
		return &ValidationError{Label: v.label, Err: ErrEmptyData}
	}
	if v.rowCount <= 0 || v.colCount <= 0 {
		return &ValidationError{Label: v.label, Err: ErrBadDimensions,
			Detail: fmt.Sprintf("declared %dx%d", v.rowCount, v.colCount)}
	}
	if len(v.data) != v.rowCount {
		return &ValidationError{Label: v.label, Err: ErrRowCountMismatch,
			Detail: fmt.Sprintf("declared %d rows, have %d", v.rowCount, len(v.data))}
	}
	if v.rowHeaders != nil && len(v.rowHeaders) != v.rowCount {
		return &ValidationError{Label: v.label, Err: ErrRowHeaderCount,
			Detail: fmt.Sprintf("declared %d rows, have %d headers", v.rowCount, len(v.rowHeaders))}
	}
	if v.columnHeaders != nil && len(v.columnHeaders) != v.colCount {
		return &ValidationError{Label: v.label, Err: ErrColumnHeaderCount,
			Detail: fmt.Sprintf("declared %d columns, have %d headers", v.colCount, len(v.columnHeaders))}
	}
	for i, row := range v.data {
		if len(row) != v.colCount {
			return &ValidationError{Label: v.label, Err: ErrColumnCountMismatch,
				Detail: fmt.Sprintf("row %d has %d values, declared %d", i, len(row), v.colCount)}
		}
	}
	return nil
}

// Statistics returns min, max and range over all non-NaN cells, computing
// them on first use after the data was set. Range is clamped to
// RangeEpsilon (with a warning); Min and Max are never clamped.
func (v *Variable) Statistics() Statistics {
	if s := v.stats.Load(); s != nil {
		return *s
	}

	v.statsMu.Lock()
	defer v.statsMu.Unlock()
	if s := v.stats.Load(); s != nil {
		return *s
	}

	s := scanStatistics(v.data)
	// diff is NaN when every counted cell is the same infinity
	if diff := s.Max - s.Min; !(diff >= RangeEpsilon) {
		s.Range = RangeEpsilon
		if s.Empty() {
			warn(v.sink, "statistics", "variable %q has no finite values; range set to %g", v.label, RangeEpsilon)
		} else {
			warn(v.sink, "statistics", "variable %q range %g below %g; clamped", v.label, diff, RangeEpsilon)
		}
	} else {
		s.Range = diff
	}

	v.stats.Store(&s)
	return s
}

func scanStatistics(data [][]float64) Statistics {
	s := Statistics{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, row := range data {
		if len(row) == 0 {
			continue
		}
		if !floats.HasNaN(row) {
			s.Min = math.Min(s.Min, floats.Min(row))
			s.Max = math.Max(s.Max, floats.Max(row))
			s.Count += len(row)
			continue
		}
		for _, x := range row {
			if math.IsNaN(x) {
				continue
			}
			if x < s.Min {
				s.Min = x
			}
			if x > s.Max {
				s.Max = x
			}
			s.Count++
		}
	}
	return s
}
