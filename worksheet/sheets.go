package worksheet

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/ratelimit"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/sheets/v4"

	"github.com/dealdesk/sheets-merge/log"
	"github.com/dealdesk/sheets-merge/merge"
)

// BatchSize is the maximum number of value ranges sent in a single values:batchUpdate request.
const BatchSize = 500

const (
	USER_ENTERED = "USER_ENTERED"
	RAW          = "RAW"
)

// Sheets loads and writes tables on a single Google Sheets spreadsheet. Every API call is
// rate limited and retried with exponential backoff on quota (429) and server (5xx) errors.
type Sheets struct {
	google      *sheets.Service
	spreadsheet string
	limiter     ratelimit.Limiter
	retries     uint64
}

// NewSheets returns a client for a spreadsheet that issues at most 'rate' requests per second
// and retries a failed request up to 'retries' times.
func NewSheets(google *sheets.Service, spreadsheet string, rate int, retries uint64) *Sheets {
	limiter := ratelimit.NewUnlimited()
	if rate > 0 {
		limiter = ratelimit.New(rate)
	}

	return &Sheets{
		google:      google,
		spreadsheet: spreadsheet,
		limiter:     limiter,
		retries:     retries,
	}
}

func (s *Sheets) Spreadsheet() string {
	return s.spreadsheet
}

// Load retrieves the formatted values of a worksheet range as a table.
func (s *Sheets) Load(ctx context.Context, area string) (*merge.Table, error) {
	r, err := ParseRange(area)
	if err != nil {
		return nil, err
	}

	var response *sheets.ValueRange

	err = s.do(ctx, "get", func() (err error) {
		response, err = s.google.Spreadsheets.Values.Get(s.spreadsheet, area).
			ValueRenderOption("FORMATTED_VALUE").
			Context(ctx).
			Do()
		return
	})

	if err != nil {
		return nil, fmt.Errorf("unable to retrieve data from sheet (%w)", err)
	}

	if len(response.Values) == 0 {
		return nil, fmt.Errorf("no data in spreadsheet/range %v", area)
	}

	return MakeTable(r.Sheet, r, response.Values)
}

func (s *Sheets) ResetStatus(ctx context.Context, area string, resets []merge.StatusUpdate) error {
	r, err := ParseRange(area)
	if err != nil {
		return err
	}

	if err := s.update(ctx, USER_ENTERED, statusRanges(r, resets)); err != nil {
		return fmt.Errorf("%w: error resetting status column (%w)", merge.ErrWriteFailure, err)
	}

	return nil
}

func (s *Sheets) Update(ctx context.Context, area string, updates []merge.RowUpdate) error {
	r, err := ParseRange(area)
	if err != nil {
		return err
	}

	if err := s.update(ctx, USER_ENTERED, updateRanges(r, updates)); err != nil {
		return fmt.Errorf("%w: error updating rows (%w)", merge.ErrWriteFailure, err)
	}

	return nil
}

// Insert adds new rows directly below the header row, in plan order, and then writes their
// values. Cells that were not staged are sent as null and left unset. Raw cells are written
// with the RAW input option so that e.g. a "00123" key is not stored as the number 123.
func (s *Sheets) Insert(ctx context.Context, area string, inserts []merge.RowInsert) error {
	r, err := ParseRange(area)
	if err != nil {
		return err
	}

	if len(inserts) == 0 {
		return nil
	}

	sheetID, err := s.sheetID(ctx, r.Sheet)
	if err != nil {
		return fmt.Errorf("%w: %w", merge.ErrWriteFailure, err)
	}

	rq := insertRequest(sheetID, r, len(inserts))

	err = s.do(ctx, "insert", func() error {
		_, err := s.google.Spreadsheets.BatchUpdate(s.spreadsheet, rq).Context(ctx).Do()
		return err
	})

	if err != nil {
		return fmt.Errorf("%w: error inserting rows (%w)", merge.ErrWriteFailure, err)
	}

	if err := s.update(ctx, USER_ENTERED, insertRanges(r, inserts, false)); err != nil {
		return fmt.Errorf("%w: error writing inserted rows (%w)", merge.ErrWriteFailure, err)
	}

	if err := s.update(ctx, RAW, insertRanges(r, inserts, true)); err != nil {
		return fmt.Errorf("%w: error writing inserted row keys (%w)", merge.ErrWriteFailure, err)
	}

	return nil
}

// Put clears a worksheet range and replaces it with a table's header and rows.
func (s *Sheets) Put(ctx context.Context, area string, table *merge.Table) error {
	r, err := ParseRange(area)
	if err != nil {
		return err
	}

	values := tableRange(r, table)

	if err := s.Clear(ctx, area); err != nil {
		return err
	}

	return s.update(ctx, USER_ENTERED, []*sheets.ValueRange{values})
}

func (s *Sheets) Clear(ctx context.Context, ranges ...string) error {
	rq := sheets.BatchClearValuesRequest{
		Ranges: ranges,
	}

	return s.do(ctx, "clear", func() error {
		_, err := s.google.Spreadsheets.Values.BatchClear(s.spreadsheet, &rq).Context(ctx).Do()
		return err
	})
}

// Append adds rows after the last row of a table range.
func (s *Sheets) Append(ctx context.Context, area string, rows [][]any) error {
	values := sheets.ValueRange{
		Values: rows,
	}

	return s.do(ctx, "append", func() error {
		_, err := s.google.Spreadsheets.Values.Append(s.spreadsheet, area, &values).
			ValueInputOption(USER_ENTERED).
			InsertDataOption("INSERT_ROWS").
			Context(ctx).
			Do()
		return err
	})
}

// Values returns the raw values of a range, without header processing.
func (s *Sheets) Values(ctx context.Context, area string) ([][]any, error) {
	var response *sheets.ValueRange

	err := s.do(ctx, "get", func() (err error) {
		response, err = s.google.Spreadsheets.Values.Get(s.spreadsheet, area).Context(ctx).Do()
		return
	})

	if err != nil {
		return nil, err
	}

	return response.Values, nil
}

func (s *Sheets) update(ctx context.Context, input string, ranges []*sheets.ValueRange) error {
	for start := 0; start < len(ranges); start += BatchSize {
		end := start + BatchSize
		if end > len(ranges) {
			end = len(ranges)
		}

		rq := sheets.BatchUpdateValuesRequest{
			ValueInputOption: input,
			Data:             ranges[start:end],
		}

		err := s.do(ctx, "update", func() error {
			_, err := s.google.Spreadsheets.Values.BatchUpdate(s.spreadsheet, &rq).Context(ctx).Do()
			return err
		})

		if err != nil {
			return err
		}

		log.Debugf("updated %v ranges (%v of %v)", end-start, end, len(ranges))
	}

	return nil
}

func (s *Sheets) sheet(ctx context.Context, name string) (*sheets.Sheet, error) {
	var spreadsheet *sheets.Spreadsheet

	err := s.do(ctx, "spreadsheet", func() (err error) {
		spreadsheet, err = s.google.Spreadsheets.Get(s.spreadsheet).Context(ctx).Do()
		return
	})

	if err != nil {
		return nil, fmt.Errorf("failed to fetch spreadsheet (%w)", err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if strings.ToLower(strings.TrimSpace(sheet.Properties.Title)) == strings.ToLower(strings.TrimSpace(name)) {
			return sheet, nil
		}
	}

	return nil, fmt.Errorf("unable to identify worksheet for '%s'", name)
}

func (s *Sheets) sheetID(ctx context.Context, name string) (int64, error) {
	sheet, err := s.sheet(ctx, name)
	if err != nil {
		return 0, err
	}

	return sheet.Properties.SheetId, nil
}

func (s *Sheets) do(ctx context.Context, op string, f func() error) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.retries), ctx)

	return backoff.Retry(func() error {
		s.limiter.Take()

		if err := f(); err != nil {
			if !retryable(err) {
				return backoff.Permanent(err)
			}

			log.Warnf("%v: %v (retrying)", op, err)
			return err
		}

		return nil
	}, policy)
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var e *googleapi.Error
	if errors.As(err, &e) {
		return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
	}

	return true
}
