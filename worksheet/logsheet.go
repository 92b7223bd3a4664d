package worksheet

import (
	"context"
	"fmt"
	"sort"
	"time"

	"google.golang.org/api/sheets/v4"

	"github.com/dealdesk/sheets-merge/log"
	"github.com/dealdesk/sheets-merge/merge"
)

const timestampFormat = "2006-01-02 15:04:05"

// Entry is a single run summary appended to the log worksheet.
type Entry struct {
	Timestamp time.Time
	RunID     string
	Source    string
	Target    string
	Summary   merge.Summary
}

var defaultLogIndex = map[string]int{
	"timestamp": 0,
	"runid":     1,
	"source":    2,
	"target":    3,
	"unchanged": 4,
	"updated":   5,
	"added":     6,
	"notexist":  7,
}

// AppendLog appends a run summary to the log worksheet, placing each field under the matching
// header column if the worksheet has a header row.
func (s *Sheets) AppendLog(ctx context.Context, area string, entry Entry) error {
	values, err := s.Values(ctx, area)
	if err != nil {
		return fmt.Errorf("unable to retrieve column headers from log sheet (%w)", err)
	}

	var header []any
	if len(values) > 0 {
		header = values[0]
	}

	row := logRow(header, entry)

	if err := s.Append(ctx, area, [][]any{row}); err != nil {
		return fmt.Errorf("error writing log to Google Sheets (%w)", err)
	}

	return nil
}

// PruneLog deletes log records with a timestamp older than 'retention' days.
func (s *Sheets) PruneLog(ctx context.Context, area string, retention int, now time.Time) (int, error) {
	r, err := ParseRange(area)
	if err != nil {
		return 0, err
	}

	sheetID, err := s.sheetID(ctx, r.Sheet)
	if err != nil {
		return 0, err
	}

	values, err := s.Values(ctx, area)
	if err != nil {
		return 0, fmt.Errorf("unable to retrieve data from log sheet (%w)", err)
	}

	before := now.In(time.Local).Add(time.Hour * time.Duration(-24*(retention-1)))
	cutoff := time.Date(before.Year(), before.Month(), before.Day(), 0, 0, 0, 0, before.Location())

	log.Infof("Pruning log records from before %v", cutoff.Format("2006-01-02"))

	rows := expired(values, cutoff)
	if len(rows) == 0 {
		return 0, nil
	}

	rq := sheets.BatchUpdateSpreadsheetRequest{
		Requests: pruneRequests(sheetID, r.Top-1, rows),
	}

	err = s.do(ctx, "prune", func() error {
		_, err := s.google.Spreadsheets.BatchUpdate(s.spreadsheet, &rq).Context(ctx).Do()
		return err
	})

	if err != nil {
		return 0, err
	}

	log.Infof("Pruned %d log records from log sheet", len(rows))

	return len(rows), nil
}

func logRow(header []any, entry Entry) []any {
	index := defaultLogIndex

	if len(header) > 0 {
		index = map[string]int{}
		for i, v := range header {
			k := normalise(clean(v))
			if _, ok := defaultLogIndex[k]; ok {
				index[k] = i
			}
		}

		if len(index) == 0 {
			index = defaultLogIndex
		}
	}

	columns := 0
	for _, v := range index {
		if v >= columns {
			columns = v + 1
		}
	}

	row := make([]any, columns)
	for i := range row {
		row[i] = ""
	}

	fields := map[string]any{
		"timestamp": entry.Timestamp.Format(timestampFormat),
		"runid":     entry.RunID,
		"source":    entry.Source,
		"target":    entry.Target,
		"unchanged": entry.Summary.Unchanged,
		"updated":   entry.Summary.Updated,
		"added":     entry.Summary.Added,
		"notexist":  entry.Summary.NotExist,
	}

	for k, v := range fields {
		if ix, ok := index[k]; ok {
			row[ix] = v
		}
	}

	return row
}

// expired returns the (zero-based, relative to the range) indices of records whose first
// cell is a timestamp before the cutoff.
func expired(values [][]any, cutoff time.Time) []int {
	list := []int{}
	for row, record := range values {
		if len(record) == 0 {
			continue
		}

		s, ok := record[0].(string)
		if !ok {
			continue
		}

		timestamp, err := time.ParseInLocation(timestampFormat, s, cutoff.Location())
		if err == nil && timestamp.Before(cutoff) {
			list = append(list, row)
		}
	}

	return list
}

// pruneRequests groups rows into contiguous blocks and deletes them bottom up so that the
// indices of the remaining blocks are unaffected.
func pruneRequests(sheetID int64, offset int, rows []int) []*sheets.Request {
	if len(rows) == 0 {
		return nil
	}

	sorted := append([]int{}, rows...)
	sort.Ints(sorted)

	blocks := [][2]int{}
	start := sorted[0]
	last := sorted[0]
	for _, row := range sorted[1:] {
		if row != last+1 {
			blocks = append(blocks, [2]int{start, last})
			start = row
		}

		last = row
	}
	blocks = append(blocks, [2]int{start, last})

	requests := []*sheets.Request{}
	for i := len(blocks) - 1; i >= 0; i-- {
		requests = append(requests, &sheets.Request{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(offset + blocks[i][0]),
					EndIndex:   int64(offset + blocks[i][1] + 1),
				},
			},
		})
	}

	return requests
}
