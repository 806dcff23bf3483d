// Package fetcher reads tabular input files (XLSX, CSV) into header + rows.
package fetcher

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Table is a parsed tabular file: one header row plus data rows. Rows may
// be ragged; callers index defensively.
type Table struct {
	Header []string
	Rows   [][]string
}

// ReadTable parses path by extension. Supported: .xlsx, .csv.
func ReadTable(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ReadXLSX(path, XLSXOptions{})
	case ".csv":
		return ReadCSVFile(path, CSVOptions{TrimSpace: true})
	default:
		return nil, eris.Errorf("fetcher: unsupported input format %q", filepath.Ext(path))
	}
}
