package spreadsheet

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dealdesk/sheets-merge/log"
	"github.com/dealdesk/sheets-merge/merge"
)

// Files loads source tables from local spreadsheet files. Identifiers have the form
// path[#sheet], the sheet only being meaningful for workbooks.
type Files struct {
	// Header is the 1-based row number of the header row.
	Header int
	// Sheet is the default workbook sheet. Empty selects the first sheet.
	Sheet string
}

func (f Files) Load(ctx context.Context, id string) (*merge.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, sheet := split(id)
	if sheet == "" {
		sheet = f.Sheet
	}

	header := f.Header
	if header < 1 {
		header = 1
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		return ReadXLSX(path, sheet, header)

	case ".csv", ".tsv", ".txt":
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer file.Close()

		comma := ','
		if ext != ".csv" {
			comma = '\t'
		}

		log.Debugf("Reading %v as delimited text", path)

		return ReadCSV(file, filepath.Base(path), comma, header)

	default:
		return nil, fmt.Errorf("unsupported file type '%v'", ext)
	}
}

func split(id string) (string, string) {
	if ix := strings.LastIndex(id, "#"); ix >= 0 {
		return id[:ix], id[ix+1:]
	}

	return id, ""
}

// makeTable converts raw rows into a table. Column ids are zero-based column indices and row
// numbers are 1-based file row numbers. Short rows are padded with "" and blank rows are
// skipped.
func makeTable(name string, rows [][]string, header int) (*merge.Table, error) {
	if len(rows) < header {
		return nil, fmt.Errorf("%v: missing header row %v", name, header)
	}

	index := map[string]bool{}
	columns := []merge.Column{}
	for i, v := range rows[header-1] {
		title := strings.TrimSpace(v)
		if title == "" {
			continue
		}

		if index[title] {
			return nil, fmt.Errorf("%v: duplicate column name '%s'", name, title)
		}

		index[title] = true
		columns = append(columns, merge.Column{ID: merge.ColumnID(i), Title: title})
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("%v: missing/invalid header row", name)
	}

	table := merge.Table{
		Name:    name,
		Columns: columns,
		Rows:    []merge.Row{},
	}

	for j, record := range rows[header:] {
		if blank(record) {
			continue
		}

		number := header + 1 + j
		row := merge.Row{
			ID:     merge.RowID(number),
			Number: number,
			Cells:  map[merge.ColumnID]merge.Value{},
		}

		for _, c := range columns {
			v := ""
			if ix := int(c.ID); ix < len(record) {
				v = record[ix]
			}

			row.Cells[c.ID] = v
		}

		table.Rows = append(table.Rows, row)
	}

	return &table, nil
}

func blank(record []string) bool {
	for _, v := range record {
		if v != "" {
			return false
		}
	}

	return true
}
