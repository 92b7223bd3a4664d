package merge

import (
	"fmt"
	"slices"
)

// pair maps a column that exists in both tables.
type pair struct {
	title  string
	source ColumnID
	target ColumnID
	key    bool
}

// Reconcile compares the source table with the target table and returns the status resets,
// row updates and row inserts that bring the target in line with the source. Neither table is
// modified. Non-fatal anomalies (duplicate target keys under PolicyFirst, target rows matched by
// more than one source row) are returned as warnings.
func Reconcile(source, target *Table, options Options) (*Plan, []error, error) {
	if source == nil || target == nil {
		return nil, nil, fmt.Errorf("missing source or target table")
	}

	options = options.withDefaults()

	src, err := index(source)
	if err != nil {
		return nil, nil, err
	}

	dst, err := index(target)
	if err != nil {
		return nil, nil, err
	}

	required := append(append([]string{}, options.Keys...), options.Status)

	if err := src.require(required...); err != nil {
		return nil, nil, err
	}

	if err := dst.require(required...); err != nil {
		return nil, nil, err
	}

	srcKeys := make([]ColumnID, len(options.Keys))
	dstKeys := make([]ColumnID, len(options.Keys))
	for i, k := range options.Keys {
		srcKeys[i], _ = src.lookup(k)
		dstKeys[i], _ = dst.lookup(k)
	}

	status, _ := dst.lookup(options.Status)
	compared := shared(source, dst, options)

	plan := Plan{
		StatusResets: make([]StatusUpdate, 0, len(target.Rows)),
		Updates:      []RowUpdate{},
		Inserts:      []RowInsert{},
		Summary: Summary{
			Source: len(source.Rows),
			Target: len(target.Rows),
		},
	}

	warnings := []error{}

	for _, k := range options.Keys {
		if options.ignored(k) {
			warnings = append(warnings, fmt.Errorf("ignore pattern matches key column '%v' - key columns are always compared and copied", k))
		}
	}

	// ... step 1: reset every target row to NOT_EXIST
	lookup := map[string][]int{}
	for i, row := range target.Rows {
		key := keyOf(row, dstKeys)
		fp := key.fingerprint()

		lookup[fp] = append(lookup[fp], i)
		plan.StatusResets = append(plan.StatusResets, StatusUpdate{
			Row:    row.ID,
			Number: row.Number,
			Key:    key,
			Column: status,
			Status: NotExist,
		})
	}

	// ... steps 2-4: match, update or insert
	matched := make([]int, len(target.Rows))

	for _, row := range source.Rows {
		key := keyOf(row, srcKeys)
		candidates := lookup[key.fingerprint()]

		if len(candidates) == 0 {
			insert := add(row, key, compared, status)

			plan.Inserts = append(plan.Inserts, insert)
			plan.Summary.Added++
			continue
		}

		if len(candidates) > 1 {
			numbers := make([]int, len(candidates))
			for i, ix := range candidates {
				numbers[i] = target.Rows[ix].Number
			}

			if options.Policy == PolicyReject {
				return nil, nil, fmt.Errorf("%w: key %v (source row %v) matches target rows %v", ErrAmbiguousKeyMatch, key, row.Number, numbers)
			}

			warnings = append(warnings, fmt.Errorf("key %v (source row %v) matches target rows %v - using row %v", key, row.Number, numbers, numbers[0]))
		}

		ix := candidates[0]
		if matched[ix] > 0 {
			warnings = append(warnings, fmt.Errorf("target row %v (key %v) matched by more than one source row", target.Rows[ix].Number, key))
		}

		matched[ix]++

		update := compare(row, target.Rows[ix], key, compared, status)

		plan.Updates = append(plan.Updates, update)
		plan.Summary.Cells += update.Changes
		if update.Status == Updated {
			plan.Summary.Updated++
		} else {
			plan.Summary.Unchanged++
		}
	}

	for _, n := range matched {
		if n == 0 {
			plan.Summary.NotExist++
		}
	}

	return &plan, warnings, nil
}

// shared returns the columns present (by title) in both tables, in source column order.
// The status column is owned by the reconciler and never compared or copied. Key columns are
// never ignored: an inserted row without its key would not match its source row again.
func shared(source *Table, dst *columns, options Options) []pair {
	list := []pair{}
	for _, c := range source.Columns {
		key := slices.Contains(options.Keys, c.Title)

		if c.Title == options.Status || (!key && options.ignored(c.Title)) {
			continue
		}

		if id, ok := dst.lookup(c.Title); ok {
			list = append(list, pair{
				title:  c.Title,
				source: c.ID,
				target: id,
				key:    key,
			})
		}
	}

	return list
}

func compare(row Row, existing Row, key Key, columns []pair, status ColumnID) RowUpdate {
	update := RowUpdate{
		Row:    existing.ID,
		Number: existing.Number,
		Key:    key,
		Cells:  []CellUpdate{},
	}

	for _, c := range columns {
		v := row.Get(c.source)
		if !equal(v, existing.Get(c.target)) {
			update.Cells = append(update.Cells, CellUpdate{
				Column: c.target,
				Value:  v,
			})
			update.Changes++
		}
	}

	if update.Changes > 0 {
		update.Status = Updated
	} else {
		update.Status = NoUpdate
	}

	update.Cells = append(update.Cells, CellUpdate{
		Column: status,
		Value:  string(update.Status),
	})

	return update
}

func add(row Row, key Key, columns []pair, status ColumnID) RowInsert {
	insert := RowInsert{
		Source: row.Number,
		Key:    key,
		ToTop:  true,
		Cells:  []CellUpdate{},
	}

	for _, c := range columns {
		if v := row.Get(c.source); !empty(v) {
			insert.Cells = append(insert.Cells, CellUpdate{
				Column: c.target,
				Value:  v,
				Raw:    c.key,
			})
		}
	}

	insert.Cells = append(insert.Cells, CellUpdate{
		Column: status,
		Value:  string(NewlyAdded),
	})

	return insert
}

// equal is exact value equality: no trimming, case folding or numeric coercion.
func equal(a, b Value) bool {
	return Key{a}.fingerprint() == Key{b}.fingerprint()
}

func empty(v Value) bool {
	if v == nil {
		return true
	}

	if s, ok := v.(string); ok && s == "" {
		return true
	}

	return false
}
