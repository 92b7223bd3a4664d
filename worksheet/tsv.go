package worksheet

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dealdesk/sheets-merge/merge"
)

// MakeTSV writes a table as tab separated values, header first.
func MakeTSV(f io.Writer, table *merge.Table) error {
	if len(table.Columns) == 0 {
		return fmt.Errorf("missing/invalid header row")
	}

	w := csv.NewWriter(f)
	w.Comma = '\t'

	header := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		header[i] = c.Title
	}

	if err := w.Write(header); err != nil {
		return err
	}

	for _, row := range table.Rows {
		record := make([]string, len(table.Columns))
		for i, c := range table.Columns {
			if v := row.Get(c.ID); v != nil {
				record[i] = fmt.Sprintf("%v", v)
			}
		}

		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()

	return w.Error()
}
