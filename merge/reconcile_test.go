package merge

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var header = []string{"Opp No", "Detail Key", "Amount", "Check Update"}

// makeTable builds a table with column ids starting at base so that the source and target
// tables never share column identifiers.
func makeTable(name string, base ColumnID, header []string, records ...[]Value) *Table {
	t := Table{
		Name:    name,
		Columns: []Column{},
		Rows:    []Row{},
	}

	for i, h := range header {
		t.Columns = append(t.Columns, Column{ID: base + ColumnID(i), Title: h})
	}

	for j, record := range records {
		row := Row{
			ID:     RowID(1000*int(base) + j),
			Number: j + 2,
			Cells:  map[ColumnID]Value{},
		}

		for i, v := range record {
			row.Cells[base+ColumnID(i)] = v
		}

		t.Rows = append(t.Rows, row)
	}

	return &t
}

func column(t *Table, title string) ColumnID {
	c, ok := t.Column(title)
	if !ok {
		panic("no column " + title)
	}

	return c.ID
}

// applyPlan applies a plan to a copy of the target the way a worksheet writer would, padding
// inserted rows with empty strings like the loaders do.
func applyPlan(target *Table, plan *Plan) *Table {
	t := Table{
		Name:    target.Name,
		Columns: target.Columns,
		Rows:    []Row{},
	}

	rows := map[RowID]int{}
	for i, r := range target.Rows {
		cells := map[ColumnID]Value{}
		for k, v := range r.Cells {
			cells[k] = v
		}

		t.Rows = append(t.Rows, Row{ID: r.ID, Number: r.Number, Cells: cells})
		rows[r.ID] = i
	}

	for _, s := range plan.StatusResets {
		t.Rows[rows[s.Row]].Cells[s.Column] = string(s.Status)
	}

	for _, u := range plan.Updates {
		for _, c := range u.Cells {
			t.Rows[rows[u.Row]].Cells[c.Column] = c.Value
		}
	}

	inserted := []Row{}
	for i, insert := range plan.Inserts {
		row := Row{
			ID:    RowID(90000 + i),
			Cells: map[ColumnID]Value{},
		}

		for _, c := range t.Columns {
			row.Cells[c.ID] = ""
		}

		for _, c := range insert.Cells {
			row.Cells[c.Column] = c.Value
		}

		inserted = append(inserted, row)
	}

	t.Rows = append(inserted, t.Rows...)
	for i := range t.Rows {
		t.Rows[i].Number = i + 2
	}

	return &t
}

func TestReconcileWithChangedCell(t *testing.T) {
	target := makeTable("master", 10, header, []Value{"A1", "D1", 100, "NO_UPDATE"})
	source := makeTable("excel", 1, header, []Value{"A1", "D1", 150, ""})

	plan, warnings, err := Reconcile(source, target, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, warnings)

	expected := []RowUpdate{
		{
			Row:     target.Rows[0].ID,
			Number:  2,
			Key:     Key{"A1", "D1"},
			Status:  Updated,
			Changes: 1,
			Cells: []CellUpdate{
				{Column: column(target, "Amount"), Value: 150},
				{Column: column(target, "Check Update"), Value: "UPDATED"},
			},
		},
	}

	if diff := cmp.Diff(expected, plan.Updates); diff != "" {
		t.Errorf("Incorrect updates (-expected +got):\n%s", diff)
	}

	assert.Empty(t, plan.Inserts)
}

func TestReconcileWithNewRow(t *testing.T) {
	target := makeTable("master", 10, header, []Value{"A1", "D1", 100, "NO_UPDATE"})
	source := makeTable("excel", 1, header, []Value{"A2", "D1", 50, ""})

	plan, _, err := Reconcile(source, target, DefaultOptions())
	require.NoError(t, err)

	expected := []RowInsert{
		{
			Source: 2,
			Key:    Key{"A2", "D1"},
			ToTop:  true,
			Cells: []CellUpdate{
				{Column: column(target, "Opp No"), Value: "A2", Raw: true},
				{Column: column(target, "Detail Key"), Value: "D1", Raw: true},
				{Column: column(target, "Amount"), Value: 50},
				{Column: column(target, "Check Update"), Value: "NEWLY_ADDED"},
			},
		},
	}

	if diff := cmp.Diff(expected, plan.Inserts); diff != "" {
		t.Errorf("Incorrect inserts (-expected +got):\n%s", diff)
	}

	assert.Empty(t, plan.Updates)

	unmatched := plan.Unmatched()
	require.Len(t, unmatched, 1)
	assert.Equal(t, target.Rows[0].ID, unmatched[0].Row)
	assert.Equal(t, NotExist, unmatched[0].Status)
}

func TestReconcileResetsEveryTargetRow(t *testing.T) {
	target := makeTable("master", 10, header,
		[]Value{"A1", "D1", 100, "NO_UPDATE"},
		[]Value{"A1", "D2", 200, "UPDATED"},
		[]Value{"A3", "D1", 300, ""})
	source := makeTable("excel", 1, header, []Value{"A1", "D2", 200, ""})

	plan, _, err := Reconcile(source, target, DefaultOptions())
	require.NoError(t, err)

	status := column(target, "Check Update")
	expected := []StatusUpdate{
		{Row: target.Rows[0].ID, Number: 2, Key: Key{"A1", "D1"}, Column: status, Status: NotExist},
		{Row: target.Rows[1].ID, Number: 3, Key: Key{"A1", "D2"}, Column: status, Status: NotExist},
		{Row: target.Rows[2].ID, Number: 4, Key: Key{"A3", "D1"}, Column: status, Status: NotExist},
	}

	if diff := cmp.Diff(expected, plan.StatusResets); diff != "" {
		t.Errorf("Incorrect status resets (-expected +got):\n%s", diff)
	}

	synced := applyPlan(target, plan)
	assert.Equal(t, "NOT_EXIST", synced.Rows[0].Get(status))
	assert.Equal(t, "NO_UPDATE", synced.Rows[1].Get(status))
	assert.Equal(t, "NOT_EXIST", synced.Rows[2].Get(status))
}

func TestReconcileWithUnchangedRow(t *testing.T) {
	target := makeTable("master", 10, header, []Value{"A1", "D1", 100, "UPDATED"})
	source := makeTable("excel", 1, header, []Value{"A1", "D1", 100, "whatever"})

	plan, _, err := Reconcile(source, target, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, plan.Updates, 1)

	update := plan.Updates[0]
	assert.Equal(t, NoUpdate, update.Status)
	assert.Equal(t, 0, update.Changes)
	assert.Equal(t, []CellUpdate{{Column: column(target, "Check Update"), Value: "NO_UPDATE"}}, update.Cells)
}

func TestReconcileWithMismatchedColumns(t *testing.T) {
	target := makeTable("master", 10,
		[]string{"Check Update", "Owner", "Amount", "Detail Key", "Opp No"},
		[]Value{"", "alice", 100, "D1", "A1"})
	source := makeTable("excel", 1,
		[]string{"Opp No", "Detail Key", "Amount", "Notes", "Check Update"},
		[]Value{"A1", "D1", 120, "call back", ""},
		[]Value{"A9", "D9", 90, "new", ""})

	plan, _, err := Reconcile(source, target, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, plan.Updates, 1)
	assert.Equal(t, []CellUpdate{
		{Column: column(target, "Amount"), Value: 120},
		{Column: column(target, "Check Update"), Value: "UPDATED"},
	}, plan.Updates[0].Cells)

	require.Len(t, plan.Inserts, 1)
	assert.Equal(t, []CellUpdate{
		{Column: column(target, "Opp No"), Value: "A9", Raw: true},
		{Column: column(target, "Detail Key"), Value: "D9", Raw: true},
		{Column: column(target, "Amount"), Value: 90},
		{Column: column(target, "Check Update"), Value: "NEWLY_ADDED"},
	}, plan.Inserts[0].Cells)
}

func TestReconcileInsertSkipsEmptyCells(t *testing.T) {
	h := []string{"Opp No", "Detail Key", "Amount", "Region", "Stage", "Check Update"}
	target := makeTable("master", 10, h)
	source := makeTable("excel", 1, h, []Value{"A1", "D1", 0, "", nil, ""})

	plan, _, err := Reconcile(source, target, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, plan.Inserts, 1)

	assert.Equal(t, []CellUpdate{
		{Column: column(target, "Opp No"), Value: "A1", Raw: true},
		{Column: column(target, "Detail Key"), Value: "D1", Raw: true},
		{Column: column(target, "Amount"), Value: 0},
		{Column: column(target, "Check Update"), Value: "NEWLY_ADDED"},
	}, plan.Inserts[0].Cells)
}

func TestReconcileUsesExactEquality(t *testing.T) {
	tests := []struct {
		name    string
		source  Value
		target  Value
		changed bool
	}{
		{"identical strings", "ACME", "ACME", false},
		{"identical numbers", 150, 150, false},
		{"string vs number", "150", 150, true},
		{"int vs float", 150, 150.0, true},
		{"trailing space", "ACME ", "ACME", true},
		{"case", "acme", "ACME", true},
		{"empty vs value", "", "ACME", true},
		{"nil vs empty", nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := makeTable("master", 10, header, []Value{"A1", "D1", tt.target, ""})
			source := makeTable("excel", 1, header, []Value{"A1", "D1", tt.source, ""})

			plan, _, err := Reconcile(source, target, DefaultOptions())
			require.NoError(t, err)
			require.Len(t, plan.Updates, 1)

			if tt.changed {
				assert.Equal(t, Updated, plan.Updates[0].Status)
				assert.Equal(t, tt.source, plan.Updates[0].Cells[0].Value)
			} else {
				assert.Equal(t, NoUpdate, plan.Updates[0].Status)
			}
		})
	}
}

func TestReconcileWithEmptyKeyComponent(t *testing.T) {
	target := makeTable("master", 10, header,
		[]Value{"A1", "", 100, ""},
		[]Value{"", "D1", 200, ""})
	source := makeTable("excel", 1, header,
		[]Value{"A1", "", 100, ""},
		[]Value{"", "D1", 250, ""},
		[]Value{"", "", 300, ""})

	plan, _, err := Reconcile(source, target, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, plan.Updates, 2)
	assert.Equal(t, target.Rows[0].ID, plan.Updates[0].Row)
	assert.Equal(t, NoUpdate, plan.Updates[0].Status)
	assert.Equal(t, target.Rows[1].ID, plan.Updates[1].Row)
	assert.Equal(t, Updated, plan.Updates[1].Status)

	require.Len(t, plan.Inserts, 1)
	assert.Equal(t, Key{"", ""}, plan.Inserts[0].Key)
}

func TestReconcileWithMissingRequiredColumn(t *testing.T) {
	tests := []struct {
		name   string
		source []string
		target []string
	}{
		{"source without Opp No", []string{"Detail Key", "Check Update"}, header},
		{"source without Detail Key", []string{"Opp No", "Check Update"}, header},
		{"source without status", []string{"Opp No", "Detail Key"}, header},
		{"target without Opp No", header, []string{"Detail Key", "Check Update"}},
		{"target without Detail Key", header, []string{"Opp No", "Check Update"}},
		{"target without status", header, []string{"Opp No", "Detail Key", "Amount"}},
		{"status column with other case", header, []string{"Opp No", "Detail Key", "check update"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := makeTable("excel", 1, tt.source)
			target := makeTable("master", 10, tt.target)

			plan, _, err := Reconcile(source, target, DefaultOptions())
			assert.Nil(t, plan)
			assert.True(t, errors.Is(err, ErrMissingRequiredColumn), "expected ErrMissingRequiredColumn, got %v", err)
		})
	}
}

func TestReconcileWithDuplicateColumn(t *testing.T) {
	target := makeTable("master", 10, []string{"Opp No", "Detail Key", "Amount", "Amount", "Check Update"})
	source := makeTable("excel", 1, header)

	plan, _, err := Reconcile(source, target, DefaultOptions())
	assert.Nil(t, plan)
	assert.ErrorIs(t, err, ErrDuplicateColumn)
}

func TestReconcileWithDuplicateTargetKey(t *testing.T) {
	target := makeTable("master", 10, header,
		[]Value{"A1", "D1", 100, ""},
		[]Value{"A1", "D1", 200, ""})
	source := makeTable("excel", 1, header, []Value{"A1", "D1", 200, ""})

	plan, warnings, err := Reconcile(source, target, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Error(), "[2 3]")

	require.Len(t, plan.Updates, 1)
	assert.Equal(t, target.Rows[0].ID, plan.Updates[0].Row)
	assert.Equal(t, Updated, plan.Updates[0].Status)

	unmatched := plan.Unmatched()
	require.Len(t, unmatched, 1)
	assert.Equal(t, target.Rows[1].ID, unmatched[0].Row)
}

func TestReconcileWithDuplicateTargetKeyRejected(t *testing.T) {
	target := makeTable("master", 10, header,
		[]Value{"A1", "D1", 100, ""},
		[]Value{"A1", "D1", 200, ""})
	source := makeTable("excel", 1, header, []Value{"A1", "D1", 200, ""})

	options := DefaultOptions()
	options.Policy = PolicyReject

	plan, _, err := Reconcile(source, target, options)
	assert.Nil(t, plan)
	assert.ErrorIs(t, err, ErrAmbiguousKeyMatch)
}

func TestReconcileWithDuplicateTargetKeyNotMatched(t *testing.T) {
	target := makeTable("master", 10, header,
		[]Value{"A1", "D1", 100, ""},
		[]Value{"A1", "D1", 200, ""})
	source := makeTable("excel", 1, header, []Value{"A2", "D1", 200, ""})

	options := DefaultOptions()
	options.Policy = PolicyReject

	plan, warnings, err := Reconcile(source, target, options)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Len(t, plan.Inserts, 1)
}

func TestReconcileWithDuplicateSourceKey(t *testing.T) {
	target := makeTable("master", 10, header, []Value{"A1", "D1", 100, ""})
	source := makeTable("excel", 1, header,
		[]Value{"A1", "D1", 150, ""},
		[]Value{"A1", "D1", 175, ""})

	plan, warnings, err := Reconcile(source, target, DefaultOptions())
	require.NoError(t, err)
	assert.Len(t, warnings, 1)

	require.Len(t, plan.Updates, 2)
	assert.Equal(t, 150, plan.Updates[0].Cells[0].Value)
	assert.Equal(t, 175, plan.Updates[1].Cells[0].Value)
	assert.Equal(t, 0, plan.Summary.NotExist)
}

func TestReconcileIsIdempotent(t *testing.T) {
	h := []string{"Opp No", "Detail Key", "Amount", "Stage", "Check Update"}
	target := makeTable("master", 10, h,
		[]Value{"A1", "D1", "100", "open", "NO_UPDATE"},
		[]Value{"A1", "D2", "200", "won", ""},
		[]Value{"A4", "D1", "400", "lost", ""})
	source := makeTable("excel", 1, h,
		[]Value{"A1", "D1", "150", "open", ""},
		[]Value{"A1", "D2", "200", "won", ""},
		[]Value{"A2", "D1", "50", "", ""},
		[]Value{"A3", "D7", "", "open", ""})

	plan, _, err := Reconcile(source, target, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, plan.Inserts, 2)

	synced := applyPlan(target, plan)

	again, _, err := Reconcile(source, synced, DefaultOptions())
	require.NoError(t, err)

	assert.Empty(t, again.Inserts)
	assert.Equal(t, 0, again.Summary.Cells)
	require.Len(t, again.Updates, len(source.Rows))
	for _, u := range again.Updates {
		assert.Equal(t, NoUpdate, u.Status, "row %v", u.Number)
		assert.Len(t, u.Cells, 1)
	}

	assert.Equal(t, 1, again.Summary.NotExist)
}

func TestReconcileDoesNotModifyTables(t *testing.T) {
	target := makeTable("master", 10, header, []Value{"A1", "D1", 100, "NO_UPDATE"})
	source := makeTable("excel", 1, header,
		[]Value{"A1", "D1", 150, ""},
		[]Value{"A2", "D1", 50, ""})

	before := []*Table{
		makeTable("master", 10, header, []Value{"A1", "D1", 100, "NO_UPDATE"}),
		makeTable("excel", 1, header, []Value{"A1", "D1", 150, ""}, []Value{"A2", "D1", 50, ""}),
	}

	_, _, err := Reconcile(source, target, DefaultOptions())
	require.NoError(t, err)

	if diff := cmp.Diff(before, []*Table{target, source}); diff != "" {
		t.Errorf("Reconcile modified its inputs (-before +after):\n%s", diff)
	}
}

func TestReconcileWithCustomColumns(t *testing.T) {
	h := []string{"Deal", "Line", "Amount", "Sync"}
	target := makeTable("master", 10, h, []Value{"A1", "1", 100, ""})
	source := makeTable("excel", 1, h, []Value{"A1", "1", 110, ""}, []Value{"A1", "2", 10, ""})

	options := Options{
		Keys:   []string{"Deal", "Line"},
		Status: "Sync",
	}

	plan, _, err := Reconcile(source, target, options)
	require.NoError(t, err)

	require.Len(t, plan.Updates, 1)
	assert.Equal(t, Key{"A1", "1"}, plan.Updates[0].Key)
	assert.Equal(t, CellUpdate{Column: column(target, "Sync"), Value: "UPDATED"}, plan.Updates[0].Cells[1])

	require.Len(t, plan.Inserts, 1)
	assert.Equal(t, Key{"A1", "2"}, plan.Inserts[0].Key)

	_, _, err = Reconcile(source, target, DefaultOptions())
	assert.ErrorIs(t, err, ErrMissingRequiredColumn)
}

func TestReconcileWithIgnoredColumns(t *testing.T) {
	h := []string{"Opp No", "Detail Key", "Amount", "Modified By", "Modified At", "Check Update"}
	target := makeTable("master", 10, h, []Value{"A1", "D1", 100, "alice", "2020-11-09", ""})
	source := makeTable("excel", 1, h,
		[]Value{"A1", "D1", 100, "bob", "2020-11-10", ""},
		[]Value{"A2", "D1", 50, "bob", "2020-11-10", ""})

	ignore, err := CompileIgnore([]string{"Modified *", " "})
	require.NoError(t, err)

	options := DefaultOptions()
	options.Ignore = ignore

	plan, _, err := Reconcile(source, target, options)
	require.NoError(t, err)

	require.Len(t, plan.Updates, 1)
	assert.Equal(t, NoUpdate, plan.Updates[0].Status)

	require.Len(t, plan.Inserts, 1)
	assert.Len(t, plan.Inserts[0].Cells, 4)
}

func TestReconcileNeverIgnoresKeyColumns(t *testing.T) {
	target := makeTable("master", 10, header, []Value{"A1", "D1", "100", "NO_UPDATE"})
	source := makeTable("excel", 1, header, []Value{"A2", "D1", "50", ""})

	ignore, err := CompileIgnore([]string{"Opp*"})
	require.NoError(t, err)

	options := DefaultOptions()
	options.Ignore = ignore

	plan, warnings, err := Reconcile(source, target, options)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.ErrorContains(t, warnings[0], "Opp No")

	require.Len(t, plan.Inserts, 1)
	assert.Equal(t, CellUpdate{Column: column(target, "Opp No"), Value: "A2", Raw: true}, plan.Inserts[0].Cells[0])

	synced := applyPlan(target, plan)

	again, _, err := Reconcile(source, synced, options)
	require.NoError(t, err)
	assert.Empty(t, again.Inserts)
	require.Len(t, again.Updates, 1)
	assert.Equal(t, NoUpdate, again.Updates[0].Status)
}

func TestReconcileSummary(t *testing.T) {
	target := makeTable("master", 10, header,
		[]Value{"A1", "D1", 100, ""},
		[]Value{"A1", "D2", 200, ""},
		[]Value{"A1", "D3", 300, ""})
	source := makeTable("excel", 1, header,
		[]Value{"A1", "D1", 100, ""},
		[]Value{"A1", "D2", 250, ""},
		[]Value{"A2", "D1", 50, ""})

	plan, _, err := Reconcile(source, target, DefaultOptions())
	require.NoError(t, err)

	expected := Summary{
		Source:    3,
		Target:    3,
		Unchanged: 1,
		Updated:   1,
		Added:     1,
		NotExist:  1,
		Cells:     1,
	}

	assert.Equal(t, expected, plan.Summary)
}

func TestReconcileWithNilTable(t *testing.T) {
	_, _, err := Reconcile(nil, makeTable("master", 10, header), DefaultOptions())
	assert.Error(t, err)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyFirst, p)

	p, err = ParsePolicy(" Reject ")
	require.NoError(t, err)
	assert.Equal(t, PolicyReject, p)

	_, err = ParsePolicy("last")
	assert.Error(t, err)
}
