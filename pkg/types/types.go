package types

// ImportRequest describes one grid to be read by an import collaborator
type ImportRequest struct {
	SourcePath       string `json:"source_path"`
	HasRowHeaders    bool   `json:"has_row_headers"`
	HasColumnHeaders bool   `json:"has_column_headers"`
}

// RawGrid is the parsed output of an import collaborator.
// RowCount and ColCount are the dimensions the source declared; they are not
// guaranteed to match the shape of Data.
type RawGrid struct {
	Data          [][]float64 `json:"data"`
	RowHeaders    []string    `json:"row_headers,omitempty"`
	ColumnHeaders []string    `json:"column_headers,omitempty"`
	RowCount      int         `json:"row_count"`
	ColCount      int         `json:"col_count"`
}

// Shape is a (rows, cols) pair
type Shape struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}
