package importer

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/vjranagit/gridmapper/pkg/types"
)

// Parquet reads a parquet file through Arrow. Each parquet row is a grid
// row. With row headers the first column supplies them; with column headers
// the remaining field names supply them. Nulls become NaN.
type Parquet struct {
	Allocator memory.Allocator
}

// Import implements grid.Source
func (p Parquet) Import(ctx context.Context, req types.ImportRequest) (*types.RawGrid, error) {
	f, err := os.Open(req.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer f.Close()

	pf, err := file.NewParquetReader(f, file.WithReadProps(&parquet.ReaderProperties{}))
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet reader: %w", err)
	}
	defer pf.Close()

	mem := p.Allocator
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	arrowReader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("failed to create arrow reader: %w", err)
	}

	table, err := arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet data: %w", err)
	}
	defer table.Release()

	return FromTable(table, req.HasRowHeaders, req.HasColumnHeaders)
}

// FromTable converts an Arrow table into a raw grid
func FromTable(table arrow.Table, hasRowHeaders, hasColumnHeaders bool) (*types.RawGrid, error) {
	rows := int(table.NumRows())
	ncols := int(table.NumCols())
	first := 0

	raw := &types.RawGrid{RowCount: rows}

	if hasRowHeaders {
		if ncols == 0 {
			return nil, fmt.Errorf("row headers requested but table has no columns")
		}
		headers, err := stringColumn(table.Column(0))
		if err != nil {
			return nil, fmt.Errorf("row header column %q: %w", table.Schema().Field(0).Name, err)
		}
		raw.RowHeaders = headers
		first = 1
	}

	raw.ColCount = ncols - first
	if hasColumnHeaders {
		raw.ColumnHeaders = make([]string, 0, raw.ColCount)
		for c := first; c < ncols; c++ {
			raw.ColumnHeaders = append(raw.ColumnHeaders, table.Schema().Field(c).Name)
		}
	}

	raw.Data = make([][]float64, rows)
	for r := range raw.Data {
		raw.Data[r] = make([]float64, raw.ColCount)
	}
	for c := first; c < ncols; c++ {
		col := table.Column(c)
		r := 0
		for _, chunk := range col.Data().Chunks() {
			for i := 0; i < chunk.Len(); i++ {
				v, err := numericAt(chunk, i)
				if err != nil {
					return nil, fmt.Errorf("column %q: %w", col.Name(), err)
				}
				raw.Data[r][c-first] = v
				r++
			}
		}
	}
	return raw, nil
}

func numericAt(a arrow.Array, i int) (float64, error) {
	if a.IsNull(i) {
		return math.NaN(), nil
	}
	switch arr := a.(type) {
	case *array.Float64:
		return arr.Value(i), nil
	case *array.Float32:
		return float64(arr.Value(i)), nil
	case *array.Int64:
		return float64(arr.Value(i)), nil
	case *array.Int32:
		return float64(arr.Value(i)), nil
	case *array.Int16:
		return float64(arr.Value(i)), nil
	case *array.Int8:
		return float64(arr.Value(i)), nil
	case *array.Uint64:
		return float64(arr.Value(i)), nil
	case *array.Uint32:
		return float64(arr.Value(i)), nil
	case *array.String:
		return parseCell(arr.Value(i))
	default:
		return 0, fmt.Errorf("unsupported type %s", a.DataType())
	}
}

func stringColumn(col *arrow.Column) ([]string, error) {
	out := make([]string, 0, col.Len())
	for _, chunk := range col.Data().Chunks() {
		for i := 0; i < chunk.Len(); i++ {
			if chunk.IsNull(i) {
				out = append(out, "")
				continue
			}
			switch arr := chunk.(type) {
			case *array.String:
				out = append(out, arr.Value(i))
			case *array.LargeString:
				out = append(out, arr.Value(i))
			default:
				out = append(out, arr.ValueStr(i))
			}
		}
	}
	return out, nil
}
