package grid

import (
	"context"
	"fmt"
	"math"

	"github.com/vjranagit/gridmapper/pkg/types"
)

// filled returns a rows x cols raw grid whose cell (i,j) is base+i*cols+j.
func filled(rows, cols int, base float64) types.RawGrid {
	data := make([][]float64, rows)
	for i := range data {
		data[i] = make([]float64, cols)
		for j := range data[i] {
			data[i][j] = base + float64(i*cols+j)
		}
	}
	return types.RawGrid{Data: data, RowCount: rows, ColCount: cols}
}

func withHeaders(raw types.RawGrid, rowPrefix, colPrefix string) types.RawGrid {
	if rowPrefix != "" {
		raw.RowHeaders = make([]string, raw.RowCount)
		for i := range raw.RowHeaders {
			raw.RowHeaders[i] = fmt.Sprintf("%s%d", rowPrefix, i)
		}
	}
	if colPrefix != "" {
		raw.ColumnHeaders = make([]string, raw.ColCount)
		for j := range raw.ColumnHeaders {
			raw.ColumnHeaders[j] = fmt.Sprintf("%s%d", colPrefix, j)
		}
	}
	return raw
}

func newVar(label string, raw types.RawGrid) *Variable {
	v := NewVariable(label, label+".csv")
	v.ImportFrom(raw)
	return v
}

func nanGrid(rows, cols int) types.RawGrid {
	raw := filled(rows, cols, 0)
	for i := range raw.Data {
		for j := range raw.Data[i] {
			raw.Data[i][j] = math.NaN()
		}
	}
	return raw
}

// fakeSource serves grids by path and fails for paths in errs.
type fakeSource struct {
	grids map[string]types.RawGrid
	errs  map[string]error
	calls []string
}

func (f *fakeSource) Import(_ context.Context, req types.ImportRequest) (*types.RawGrid, error) {
	f.calls = append(f.calls, req.SourcePath)
	if err, ok := f.errs[req.SourcePath]; ok {
		return nil, err
	}
	raw, ok := f.grids[req.SourcePath]
	if !ok {
		return nil, fmt.Errorf("no such source %q", req.SourcePath)
	}
	return &raw, nil
}
