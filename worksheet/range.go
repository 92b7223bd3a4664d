package worksheet

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Range is a parsed A1 notation range e.g. 'Deals!A1:K'. Left and Right are zero-based column
// indices, Top and Bottom are 1-based row numbers. Right is -1 and Bottom is 0 for an
// open-ended range.
type Range struct {
	Sheet  string
	Left   int
	Top    int
	Right  int
	Bottom int
}

var (
	urlRegex   = regexp.MustCompile(`^https://docs.google.com/spreadsheets/d/(.*?)(?:/.*)?$`)
	rangeRegex = regexp.MustCompile(`^(.+?)!([a-zA-Z]+)([0-9]+)(?::([a-zA-Z]+)([0-9]+)?)?$`)
)

func SpreadsheetID(url string) (string, error) {
	match := urlRegex.FindStringSubmatch(strings.TrimSpace(url))
	if len(match) < 2 || match[1] == "" {
		return "", fmt.Errorf("invalid spreadsheet URL - expected something like 'https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms'")
	}

	return match[1], nil
}

func ParseRange(area string) (*Range, error) {
	match := rangeRegex.FindStringSubmatch(strings.TrimSpace(area))
	if len(match) < 6 {
		return nil, fmt.Errorf("invalid range '%s' - expected something like 'Deals!A1:K'", area)
	}

	sheet := match[1]
	if len(sheet) > 1 && strings.HasPrefix(sheet, "'") && strings.HasSuffix(sheet, "'") {
		sheet = strings.ReplaceAll(sheet[1:len(sheet)-1], "''", "'")
	}

	top, err := strconv.Atoi(match[3])
	if err != nil || top < 1 {
		return nil, fmt.Errorf("invalid range '%s' - invalid top row", area)
	}

	r := Range{
		Sheet:  sheet,
		Left:   columnIndex(match[2]),
		Top:    top,
		Right:  -1,
		Bottom: 0,
	}

	if match[4] != "" {
		r.Right = columnIndex(match[4])
		if r.Right < r.Left {
			return nil, fmt.Errorf("invalid range '%s' - right column before left column", area)
		}
	}

	if match[5] != "" {
		r.Bottom, _ = strconv.Atoi(match[5])
		if r.Bottom < r.Top {
			return nil, fmt.Errorf("invalid range '%s' - bottom row before top row", area)
		}
	}

	return &r, nil
}

func (r Range) String() string {
	s := fmt.Sprintf("%v!%v%v", quote(r.Sheet), ColumnName(r.Left), r.Top)

	switch {
	case r.Right >= 0 && r.Bottom > 0:
		s += fmt.Sprintf(":%v%v", ColumnName(r.Right), r.Bottom)
	case r.Right >= 0:
		s += fmt.Sprintf(":%v", ColumnName(r.Right))
	case r.Bottom > 0:
		s += fmt.Sprintf(":%v", r.Bottom)
	}

	return s
}

// Cell returns the A1 notation for a single cell on the range's sheet.
func (r Range) Cell(column int, row int) string {
	return fmt.Sprintf("%v!%v%v", quote(r.Sheet), ColumnName(column), row)
}

// Span returns the A1 notation for a single row between two columns (inclusive).
func (r Range) Span(row int, from, to int) string {
	return fmt.Sprintf("%v!%v%v:%v%v", quote(r.Sheet), ColumnName(from), row, ColumnName(to), row)
}

// ColumnName converts a zero-based column index to its A1 letters e.g. 0 -> A, 26 -> AA.
func ColumnName(index int) string {
	name := ""
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		name = string(rune('A'+(n-1)%26)) + name
	}

	return name
}

func columnIndex(letters string) int {
	n := 0
	for _, ch := range strings.ToUpper(letters) {
		n = n*26 + int(ch-'A') + 1
	}

	return n - 1
}

var plain = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

func quote(sheet string) string {
	if plain.MatchString(sheet) {
		return sheet
	}

	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
}
