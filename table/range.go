package table

import (
	"fmt"
	"regexp"
	"strconv"
)

// Range is an open ended A1 range e.g. 'A1:F' or 'Inventory!A2:F'.
type Range struct {
	Sheet string
	Left  string
	Top   int
	Right string
}

var rangeRE = regexp.MustCompile(`^(?:(.+?)!)?([a-zA-Z]+)([0-9]+):([a-zA-Z]+)$`)

func ParseRange(area string) (Range, error) {
	match := rangeRE.FindStringSubmatch(area)
	if len(match) < 5 {
		return Range{}, fmt.Errorf("invalid spreadsheet range '%s'", area)
	}

	top, err := strconv.Atoi(match[3])
	if err != nil || top < 1 {
		return Range{}, fmt.Errorf("invalid spreadsheet range '%s'", area)
	}

	return Range{
		Sheet: match[1],
		Left:  match[2],
		Top:   top,
		Right: match[4],
	}, nil
}

// Next returns the range starting immediately after the first 'rows' rows.
func (r Range) Next(rows int) Range {
	return Range{
		Sheet: r.Sheet,
		Left:  r.Left,
		Top:   r.Top + rows,
		Right: r.Right,
	}
}

func (r Range) String() string {
	if r.Sheet != "" {
		return fmt.Sprintf("%s!%s%d:%s", r.Sheet, r.Left, r.Top, r.Right)
	}

	return fmt.Sprintf("%s%d:%s", r.Left, r.Top, r.Right)
}
