package worksheet

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/sheets/v4"

	"github.com/dealdesk/sheets-merge/log"
	"github.com/dealdesk/sheets-merge/merge"
)

type report struct {
	title string
	data  string
}

// WriteReport replaces the report worksheet contents with the keys of the updated, added and
// not existing rows of a plan.
func (s *Sheets) WriteReport(ctx context.Context, area string, plan *merge.Plan, now time.Time) error {
	r, err := ParseRange(area)
	if err != nil {
		return err
	}

	format := reportFormat(r)

	log.Infof("Clearing existing report from worksheet")
	if err := s.Clear(ctx, format.title, format.data); err != nil {
		return err
	}

	log.Infof("Writing report to worksheet")

	title := sheets.ValueRange{
		Range:  format.title,
		Values: [][]any{{now.Format("Merge Report: " + timestampFormat)}},
	}

	data := sheets.ValueRange{
		Range:  format.data,
		Values: reportValues(plan),
	}

	return s.update(ctx, USER_ENTERED, []*sheets.ValueRange{&title, &data})
}

func reportFormat(r *Range) report {
	right := r.Right
	if right < r.Left+3 {
		right = r.Left + 3
	}

	left := ColumnName(r.Left)

	return report{
		title: fmt.Sprintf("%v!%v%v:%v%v", quote(r.Sheet), left, r.Top, left, r.Top),
		data:  fmt.Sprintf("%v!%v%v:%v", quote(r.Sheet), left, r.Top+2, ColumnName(right)),
	}
}

func reportValues(plan *merge.Plan) [][]any {
	updated := []string{}
	unchanged := []string{}
	for _, u := range plan.Updates {
		if u.Status == merge.Updated {
			updated = append(updated, fmt.Sprintf("%v", u.Key))
		} else {
			unchanged = append(unchanged, fmt.Sprintf("%v", u.Key))
		}
	}

	added := []string{}
	for _, i := range plan.Inserts {
		added = append(added, fmt.Sprintf("%v", i.Key))
	}

	missing := []string{}
	for _, m := range plan.Unmatched() {
		missing = append(missing, fmt.Sprintf("%v", m.Key))
	}

	columns := [][]string{updated, added, missing, unchanged}
	rows := 0
	for _, c := range columns {
		if len(c) > rows {
			rows = len(c)
		}
	}

	values := [][]any{
		{string(merge.Updated), string(merge.NewlyAdded), string(merge.NotExist), string(merge.NoUpdate)},
	}

	for i := 0; i < rows; i++ {
		row := []any{"", "", "", ""}
		for j, c := range columns {
			if i < len(c) {
				row[j] = c[i]
			}
		}

		values = append(values, row)
	}

	return values
}
