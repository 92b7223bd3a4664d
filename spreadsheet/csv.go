package spreadsheet

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dealdesk/sheets-merge/merge"
)

// ReadCSV reads comma (or tab) separated values as a table.
func ReadCSV(r io.Reader, name string, comma rune, header int) (*merge.Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %v: %w", name, err)
	}

	return makeTable(name, rows, header)
}
