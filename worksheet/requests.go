package worksheet

import (
	"google.golang.org/api/sheets/v4"

	"github.com/dealdesk/sheets-merge/merge"
)

func statusRanges(r *Range, resets []merge.StatusUpdate) []*sheets.ValueRange {
	list := []*sheets.ValueRange{}
	for _, s := range resets {
		list = append(list, &sheets.ValueRange{
			Range:  r.Cell(int(s.Column), int(s.Row)),
			Values: [][]any{{string(s.Status)}},
		})
	}

	return list
}

// updateRanges converts row updates to one value range per cell. Row ids are absolute sheet
// row numbers and column ids absolute column indices (see MakeTable).
func updateRanges(r *Range, updates []merge.RowUpdate) []*sheets.ValueRange {
	list := []*sheets.ValueRange{}
	for _, u := range updates {
		for _, c := range u.Cells {
			list = append(list, &sheets.ValueRange{
				Range:  r.Cell(int(c.Column), int(u.Row)),
				Values: [][]any{{value(c.Value)}},
			})
		}
	}

	return list
}

// insertRequest inserts N blank rows directly below the header row. The new rows inherit
// formatting and validation (e.g. the status dropdown) from the row after them.
func insertRequest(sheetID int64, r *Range, N int) *sheets.BatchUpdateSpreadsheetRequest {
	return &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			&sheets.Request{
				InsertDimension: &sheets.InsertDimensionRequest{
					Range: &sheets.DimensionRange{
						SheetId:    sheetID,
						Dimension:  "ROWS",
						StartIndex: int64(r.Top),
						EndIndex:   int64(r.Top + N),
					},
					InheritFromBefore: false,
				},
			},
		},
	}
}

// insertRanges lays out the inserted rows from the first data row down, one value range per
// row spanning the selected columns. Only cells with a matching Raw flag are included so that
// raw and parsed cells can be sent as separate requests. Gaps are null so that the API leaves
// those cells unset.
func insertRanges(r *Range, inserts []merge.RowInsert, raw bool) []*sheets.ValueRange {
	list := []*sheets.ValueRange{}
	for i, insert := range inserts {
		cells := []merge.CellUpdate{}
		for _, c := range insert.Cells {
			if c.Raw == raw {
				cells = append(cells, c)
			}
		}

		if len(cells) == 0 {
			continue
		}

		left := int(cells[0].Column)
		right := left
		for _, c := range cells {
			if int(c.Column) < left {
				left = int(c.Column)
			}

			if int(c.Column) > right {
				right = int(c.Column)
			}
		}

		row := make([]any, right-left+1)
		for _, c := range cells {
			row[int(c.Column)-left] = value(c.Value)
		}

		list = append(list, &sheets.ValueRange{
			Range:  r.Span(r.Top+1+i, left, right),
			Values: [][]any{row},
		})
	}

	return list
}

// tableRange lays out a table (header and rows) from the top left corner of a range.
func tableRange(r *Range, table *merge.Table) *sheets.ValueRange {
	header := make([]any, len(table.Columns))
	for i, c := range table.Columns {
		header[i] = c.Title
	}

	values := [][]any{header}
	for _, row := range table.Rows {
		record := make([]any, len(table.Columns))
		for i, c := range table.Columns {
			record[i] = value(row.Get(c.ID))
		}

		values = append(values, record)
	}

	right := r.Left + len(table.Columns) - 1
	if right < r.Left {
		right = r.Left
	}

	return &sheets.ValueRange{
		Range:  Range{Sheet: r.Sheet, Left: r.Left, Top: r.Top, Right: right, Bottom: r.Top + len(table.Rows)}.String(),
		Values: values,
	}
}

// value writes nil as an empty cell.
func value(v merge.Value) any {
	if v == nil {
		return ""
	}

	return v
}
