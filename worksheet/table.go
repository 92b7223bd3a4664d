package worksheet

import (
	"fmt"
	"strings"

	"github.com/dealdesk/sheets-merge/merge"
)

// MakeTable converts the values retrieved for a worksheet range into a table. The first row
// is the header. Column ids are absolute zero-based column indices and row ids are absolute
// 1-based sheet row numbers so that updates can be addressed directly. Short rows are padded
// with "" and blank rows are skipped.
func MakeTable(name string, r *Range, values [][]any) (*merge.Table, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("empty sheet")
	}

	// ... header
	index := map[string]bool{}
	columns := []merge.Column{}
	offsets := []int{}

	for i, v := range values[0] {
		title := clean(v)
		if title == "" {
			continue
		}

		if index[title] {
			return nil, fmt.Errorf("duplicate column name '%s'", title)
		}

		index[title] = true
		columns = append(columns, merge.Column{
			ID:    merge.ColumnID(r.Left + i),
			Title: title,
		})
		offsets = append(offsets, i)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("missing/invalid header row")
	}

	// ... records
	rows := []merge.Row{}
	for j, record := range values[1:] {
		if blank(record) {
			continue
		}

		number := r.Top + 1 + j
		row := merge.Row{
			ID:     merge.RowID(number),
			Number: number,
			Cells:  map[merge.ColumnID]merge.Value{},
		}

		for k, c := range columns {
			var v any = ""
			if ix := offsets[k]; ix < len(record) && record[ix] != nil {
				v = record[ix]
			}

			row.Cells[c.ID] = v
		}

		rows = append(rows, row)
	}

	return &merge.Table{
		Name:    name,
		Columns: columns,
		Rows:    rows,
	}, nil
}

func blank(record []any) bool {
	for _, v := range record {
		if v != nil && fmt.Sprintf("%v", v) != "" {
			return false
		}
	}

	return true
}

func clean(v any) string {
	if v == nil {
		return ""
	}

	return strings.TrimSpace(fmt.Sprintf("%v", v))
}

func normalise(v string) string {
	return strings.ToLower(strings.ReplaceAll(v, " ", ""))
}
