package merge

import (
	"fmt"
	"strings"
)

type ColumnID int64
type RowID int64

// Value is a single cell value: a string, a number, a bool or nil for an empty cell.
type Value = any

type Column struct {
	ID    ColumnID `yaml:"id"`
	Title string   `yaml:"title"`
}

type Row struct {
	ID     RowID
	Number int
	Cells  map[ColumnID]Value
}

// Table is a fully materialised snapshot of a worksheet or spreadsheet file. Column titles
// are expected to be unique within a table.
type Table struct {
	Name    string
	Columns []Column
	Rows    []Row
}

func (r Row) Get(column ColumnID) Value {
	return r.Cells[column]
}

func (t *Table) Column(title string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Title == title {
			return c, true
		}
	}

	return Column{}, false
}

// Key is the composite key of a row, in key column order.
type Key []Value

func (k Key) String() string {
	parts := make([]string, len(k))
	for i, v := range k {
		parts[i] = fmt.Sprintf("%v", v)
	}

	return strings.Join(parts, "/")
}

// fingerprint distinguishes values of different types so that e.g. "150" and 150 never
// produce the same lookup key.
func (k Key) fingerprint() string {
	var b strings.Builder
	for i, v := range k {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		fmt.Fprintf(&b, "%T:%#v", v, v)
	}

	return b.String()
}

// columns is the per-table column title lookup, built once per table.
type columns struct {
	table string
	ids   map[string]ColumnID
}

func index(t *Table) (*columns, error) {
	c := columns{
		table: t.Name,
		ids:   map[string]ColumnID{},
	}

	for _, column := range t.Columns {
		if _, ok := c.ids[column.Title]; ok {
			return nil, fmt.Errorf("%w: '%v' in %v", ErrDuplicateColumn, column.Title, t.Name)
		}

		c.ids[column.Title] = column.ID
	}

	return &c, nil
}

func (c *columns) lookup(title string) (ColumnID, bool) {
	id, ok := c.ids[title]

	return id, ok
}

func (c *columns) require(titles ...string) error {
	for _, title := range titles {
		if _, ok := c.ids[title]; !ok {
			return fmt.Errorf("%w: '%v' in %v", ErrMissingRequiredColumn, title, c.table)
		}
	}

	return nil
}

func keyOf(row Row, ids []ColumnID) Key {
	key := make(Key, len(ids))
	for i, id := range ids {
		key[i] = row.Get(id)
	}

	return key
}
