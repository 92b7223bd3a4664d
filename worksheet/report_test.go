package worksheet

import (
	"reflect"
	"testing"

	"github.com/dealdesk/sheets-merge/merge"
)

func TestReportFormat(t *testing.T) {
	r, _ := ParseRange("Report!A1:D")
	format := reportFormat(r)

	if format.title != "Report!A1:A1" {
		t.Errorf("Incorrect report title range - expected:%v, got:%v", "Report!A1:A1", format.title)
	}

	if format.data != "Report!A3:D" {
		t.Errorf("Incorrect report data range - expected:%v, got:%v", "Report!A3:D", format.data)
	}
}

func TestReportValues(t *testing.T) {
	expected := [][]any{
		{"UPDATED", "NEWLY_ADDED", "NOT_EXIST", "NO_UPDATE"},
		{"A1/D1", "A4/D1", "A3/D1", "A2/D1"},
		{"", "A5/D1", "", ""},
	}

	plan := merge.Plan{
		StatusResets: []merge.StatusUpdate{
			{Row: 2, Key: merge.Key{"A1", "D1"}, Status: merge.NotExist},
			{Row: 3, Key: merge.Key{"A2", "D1"}, Status: merge.NotExist},
			{Row: 4, Key: merge.Key{"A3", "D1"}, Status: merge.NotExist},
		},
		Updates: []merge.RowUpdate{
			{Row: 2, Key: merge.Key{"A1", "D1"}, Status: merge.Updated},
			{Row: 3, Key: merge.Key{"A2", "D1"}, Status: merge.NoUpdate},
		},
		Inserts: []merge.RowInsert{
			{Key: merge.Key{"A4", "D1"}},
			{Key: merge.Key{"A5", "D1"}},
		},
	}

	values := reportValues(&plan)

	if !reflect.DeepEqual(values, expected) {
		t.Errorf("Incorrect report\n   expected: %v\n   got:      %v", expected, values)
	}
}
