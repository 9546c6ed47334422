package importer

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vjranagit/gridmapper/pkg/types"
)

// Delimited reads comma, semicolon, tab or pipe separated text.
// When Comma is zero the separator is detected from the first line.
type Delimited struct {
	Comma rune
}

// Import implements grid.Source
func (d Delimited) Import(_ context.Context, req types.ImportRequest) (*types.RawGrid, error) {
	f, err := os.Open(req.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return d.Read(f, req.HasRowHeaders, req.HasColumnHeaders)
}

// Read parses delimited text from r
func (d Delimited) Read(r io.Reader, hasRowHeaders, hasColumnHeaders bool) (*types.RawGrid, error) {
	br := bufio.NewReader(r)
	comma := d.Comma
	if comma == 0 {
		first, err := br.Peek(4096)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
			return nil, fmt.Errorf("failed to read header line: %w", err)
		}
		comma = detectSeparator(string(first))
	}

	cr := csv.NewReader(br)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	raw := &types.RawGrid{}
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse: %w", err)
		}
		line++

		if line == 1 && hasColumnHeaders {
			if hasRowHeaders && len(rec) > 0 {
				rec = rec[1:]
			}
			raw.ColumnHeaders = trimAll(rec)
			continue
		}

		if hasRowHeaders {
			if len(rec) == 0 {
				return nil, fmt.Errorf("record %d: missing row header", line)
			}
			raw.RowHeaders = append(raw.RowHeaders, strings.TrimSpace(rec[0]))
			rec = rec[1:]
		}

		row := make([]float64, len(rec))
		for j, cell := range rec {
			v, err := parseCell(cell)
			if err != nil {
				return nil, fmt.Errorf("record %d, field %d: %w", line, j+1, err)
			}
			row[j] = v
		}
		raw.Data = append(raw.Data, row)
	}

	if hasRowHeaders && raw.RowHeaders == nil {
		raw.RowHeaders = []string{}
	}
	if hasColumnHeaders && raw.ColumnHeaders == nil {
		raw.ColumnHeaders = []string{}
	}

	raw.RowCount = len(raw.Data)
	switch {
	case raw.ColumnHeaders != nil:
		raw.ColCount = len(raw.ColumnHeaders)
	case len(raw.Data) > 0:
		raw.ColCount = len(raw.Data[0])
	}
	return raw, nil
}

// detectSeparator picks the most frequent candidate separator on the first
// line, defaulting to a comma.
func detectSeparator(text string) rune {
	firstLine := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		firstLine = text[:i]
	}

	best, bestCount := ',', 0
	for _, sep := range []rune{',', ';', '\t', '|'} {
		if n := strings.Count(firstLine, string(sep)); n > bestCount {
			best, bestCount = sep, n
		}
	}
	return best
}

func trimAll(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.TrimSpace(f)
	}
	return out
}
