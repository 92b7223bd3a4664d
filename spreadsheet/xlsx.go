package spreadsheet

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf16"

	"github.com/xuri/excelize/v2"

	"github.com/dealdesk/sheets-merge/log"
	"github.com/dealdesk/sheets-merge/merge"
)

// ReadXLSX reads a workbook sheet as a table. Cell values are read as displayed.
func ReadXLSX(path string, sheet string, header int) (*merge.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%v: workbook has no sheets", path)
		}

		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet '%v': %w", sheet, err)
	}

	log.Debugf("Read %v rows from %v#%v", len(rows), path, sheet)

	return makeTable(fmt.Sprintf("%v#%v", filepath.Base(path), sheet), rows, header)
}

// SheetName converts a worksheet title to a valid workbook sheet name, replacing the
// characters Excel does not allow and truncating to 31 characters.
func SheetName(title string) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}

		return r
	}, strings.TrimSpace(title))

	// the limit is in UTF-16 code units
	var b strings.Builder
	n := 0
	for _, r := range name {
		if n += utf16.RuneLen(r); n > excelize.MaxSheetNameLength {
			break
		}

		b.WriteRune(r)
	}

	if name = strings.Trim(b.String(), "'"); name == "" {
		return "Sheet1"
	}

	return name
}

// WriteXLSX writes a table to a new single sheet workbook, header in row 1.
func WriteXLSX(path string, sheet string, table *merge.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet = SheetName(sheet); sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return err
		}
	}

	header := make([]any, len(table.Columns))
	for i, c := range table.Columns {
		header[i] = c.Title
	}

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for j, row := range table.Rows {
		record := make([]any, len(table.Columns))
		for i, c := range table.Columns {
			record[i] = row.Get(c.ID)
		}

		cell, err := excelize.CoordinatesToCellName(1, j+2)
		if err != nil {
			return err
		}

		if err := f.SetSheetRow(sheet, cell, &record); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}
