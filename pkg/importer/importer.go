// Package importer turns files into raw grids. Each importer implements
// grid.Source.
package importer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vjranagit/gridmapper/pkg/types"
)

// Format is a supported source file format
type Format int

const (
	FormatUnknown Format = iota
	FormatDelimited
	FormatParquet
)

func (f Format) String() string {
	switch f {
	case FormatDelimited:
		return "delimited"
	case FormatParquet:
		return "parquet"
	default:
		return "unknown"
	}
}

// ErrUnsupportedFormat is returned for paths whose extension no importer handles.
var ErrUnsupportedFormat = errors.New("importer: unsupported file format")

// DetectFormat picks a format from the file extension
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt", ".dat":
		return FormatDelimited
	case ".parquet", ".pq":
		return FormatParquet
	default:
		return FormatUnknown
	}
}

// Auto dispatches each request to the importer for its file extension.
type Auto struct {
	Delimited Delimited
	Parquet   Parquet
}

// Import implements grid.Source
func (a Auto) Import(ctx context.Context, req types.ImportRequest) (*types.RawGrid, error) {
	switch DetectFormat(req.SourcePath) {
	case FormatDelimited:
		return a.Delimited.Import(ctx, req)
	case FormatParquet:
		return a.Parquet.Import(ctx, req)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(req.SourcePath))
	}
}

// parseCell reads one numeric cell. Blank cells and the usual no-data
// spellings become NaN.
func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "na", "n/a", "null", "-":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
