package spreadsheet

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dealdesk/sheets-merge/merge"
)

func TestReadCSV(t *testing.T) {
	csv := "Opp No,Detail Key,Amount\nA1,D1,100\nA2,D1\n,,\nA3,D2,\"1,500\"\n"

	table, err := ReadCSV(strings.NewReader(csv), "deals.csv", ',', 1)
	require.NoError(t, err)

	assert.Equal(t, "deals.csv", table.Name)
	assert.Equal(t, []merge.Column{{ID: 0, Title: "Opp No"}, {ID: 1, Title: "Detail Key"}, {ID: 2, Title: "Amount"}}, table.Columns)
	require.Len(t, table.Rows, 3)

	assert.Equal(t, merge.Row{ID: 2, Number: 2, Cells: map[merge.ColumnID]merge.Value{0: "A1", 1: "D1", 2: "100"}}, table.Rows[0])
	assert.Equal(t, merge.Row{ID: 3, Number: 3, Cells: map[merge.ColumnID]merge.Value{0: "A2", 1: "D1", 2: ""}}, table.Rows[1])
	assert.Equal(t, merge.Row{ID: 5, Number: 5, Cells: map[merge.ColumnID]merge.Value{0: "A3", 1: "D2", 2: "1,500"}}, table.Rows[2])
}

func TestReadTSVWithHeaderOffset(t *testing.T) {
	tsv := "Deal intake export\nExported 2020-11-10\nOpp No\t\tDetail Key\nA1\tignored\tD1\n"

	table, err := ReadCSV(strings.NewReader(tsv), "deals.tsv", '\t', 3)
	require.NoError(t, err)

	assert.Equal(t, []merge.Column{{ID: 0, Title: "Opp No"}, {ID: 2, Title: "Detail Key"}}, table.Columns)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, 4, table.Rows[0].Number)
	assert.Equal(t, map[merge.ColumnID]merge.Value{0: "A1", 2: "D1"}, table.Rows[0].Cells)
}

func TestReadCSVWithDuplicateColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("Opp No,Amount,Opp No\n"), "deals.csv", ',', 1)

	assert.ErrorContains(t, err, "duplicate column name 'Opp No'")
}

func TestReadCSVWithMissingHeader(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), "deals.csv", ',', 1)
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader(",,\nA1,D1\n"), "deals.csv", ',', 1)
	assert.Error(t, err)
}

func TestLoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Japan_Deal_intake_New.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Intake"))
	require.NoError(t, f.SetSheetRow("Intake", "A1", &[]any{"Opp No", "Detail Key", "Amount"}))
	require.NoError(t, f.SetSheetRow("Intake", "A2", &[]any{"A1", "D1", "100"}))
	require.NoError(t, f.SetSheetRow("Intake", "A4", &[]any{"A2", "D1"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, err := Files{}.Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "Japan_Deal_intake_New.xlsx#Intake", table.Name)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, 2, table.Rows[0].Number)
	assert.Equal(t, 4, table.Rows[1].Number)
	assert.Equal(t, map[merge.ColumnID]merge.Value{0: "A2", 1: "D1", 2: ""}, table.Rows[1].Cells)
}

func TestLoadXLSXWithSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deals.xlsx")

	f := excelize.NewFile()
	_, err := f.NewSheet("Other")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Other", "A1", &[]any{"Opp No", "Detail Key"}))
	require.NoError(t, f.SetSheetRow("Other", "A2", &[]any{"B1", "D9"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, err := Files{}.Load(context.Background(), path+"#Other")
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, map[merge.ColumnID]merge.Value{0: "B1", 1: "D9"}, table.Rows[0].Cells)

	_, err = Files{}.Load(context.Background(), path+"#Missing")
	assert.Error(t, err)
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.xlsx")
	table := merge.Table{
		Columns: []merge.Column{{ID: 0, Title: "Opp No"}, {ID: 3, Title: "Check Update"}},
		Rows: []merge.Row{
			{ID: 2, Number: 2, Cells: map[merge.ColumnID]merge.Value{0: "A1", 3: "NO_UPDATE"}},
			{ID: 3, Number: 3, Cells: map[merge.ColumnID]merge.Value{0: "A2"}},
		},
	}

	require.NoError(t, WriteXLSX(path, "Backup", &table))

	loaded, err := Files{Sheet: "Backup"}.Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []merge.Column{{ID: 0, Title: "Opp No"}, {ID: 1, Title: "Check Update"}}, loaded.Columns)
	require.Len(t, loaded.Rows, 2)
	assert.Equal(t, map[merge.ColumnID]merge.Value{0: "A1", 1: "NO_UPDATE"}, loaded.Rows[0].Cells)
	assert.Equal(t, map[merge.ColumnID]merge.Value{0: "A2", 1: ""}, loaded.Rows[1].Cells)
}

func TestSheetName(t *testing.T) {
	tests := map[string]string{
		"Deals":                                    "Deals",
		"Deals/2020":                               "Deals_2020",
		"Q4 [draft]: Japan?":                       "Q4 _draft__ Japan_",
		"Japan_Deal_Intake_FY2020_Q4_Consolidated": "Japan_Deal_Intake_FY2020_Q4_Con",
		"'Quoted'":                                 "Quoted",
		"  ":                                       "Sheet1",
	}

	for title, expected := range tests {
		if name := SheetName(title); name != expected {
			t.Errorf("Incorrect sheet name for %q - expected:%q, got:%q", title, expected, name)
		}
	}
}

func TestWriteXLSXWithInvalidSheetName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.xlsx")
	table := merge.Table{
		Columns: []merge.Column{{ID: 0, Title: "Opp No"}},
		Rows:    []merge.Row{{ID: 2, Number: 2, Cells: map[merge.ColumnID]merge.Value{0: "A1"}}},
	}

	require.NoError(t, WriteXLSX(path, "Japan/Korea Deal Intake FY2020-Q4 consolidated", &table))

	loaded, err := Files{}.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "backup.xlsx#Japan_Korea Deal Intake FY2020-", loaded.Name)
	require.Len(t, loaded.Rows, 1)
}

func TestLoadWithDefaultSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deals.xlsx")
	table := merge.Table{
		Columns: []merge.Column{{ID: 0, Title: "Opp No"}},
		Rows:    []merge.Row{{ID: 2, Number: 2, Cells: map[merge.ColumnID]merge.Value{0: "A1"}}},
	}

	require.NoError(t, WriteXLSX(path, "Intake", &table))

	loaded, err := Files{Sheet: "Intake"}.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "deals.xlsx#Intake", loaded.Name)

	_, err = Files{Sheet: "Other"}.Load(context.Background(), path)
	assert.Error(t, err)

	loaded, err = Files{Sheet: "Other"}.Load(context.Background(), path+"#Intake")
	require.NoError(t, err)
	assert.Equal(t, "deals.xlsx#Intake", loaded.Name)
}

func TestLoadCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deals.tsv")
	require.NoError(t, os.WriteFile(path, []byte("Opp No\tDetail Key\nA1\tD1\n"), 0644))

	table, err := Files{}.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "deals.tsv", table.Name)
	require.Len(t, table.Rows, 1)
}

func TestLoadUnsupportedFile(t *testing.T) {
	_, err := Files{}.Load(context.Background(), "deals.ods")

	assert.ErrorContains(t, err, "unsupported file type")
}
