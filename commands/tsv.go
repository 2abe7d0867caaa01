package commands

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/uhppoted/sheets-inventory/entity"
)

var header = []string{"Name", "Model URL", "Created", "Marker", "JSON", "Checksum"}

// rowsToTSV writes the inventory rows as TSV with a header row. Short rows
// are padded.
func rowsToTSV(f io.Writer, rows [][]any) error {
	w := csv.NewWriter(f)
	w.Comma = '\t'

	if err := w.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		record := make([]string, len(header))
		for i := range record {
			if i < len(row) && row[i] != nil {
				record[i] = clean(row[i])
			}
		}

		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()

	return w.Error()
}

// tsvToRows reads a TSV file written by rowsToTSV. Every row must have a
// payload matching its checksum.
func tsvToRows(f io.Reader) ([][]any, error) {
	r := csv.NewReader(f)
	r.Comma = '\t'

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("TSV file is empty")
	}

	if len(records[0]) != len(header) {
		return nil, fmt.Errorf("missing/invalid header row")
	}

	for i, h := range header {
		if normalise(records[0][i]) != normalise(h) {
			return nil, fmt.Errorf("missing '%s' column", h)
		}
	}

	rows := make([][]any, 0, len(records)-1)

	for i, record := range records[1:] {
		created, err := strconv.ParseInt(strings.TrimSpace(record[2]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid created timestamp '%v'", i+1, record[2])
		}

		r := entity.Record{
			Name:     record[0],
			ModelURL: record[1],
			Created:  created,
			Payload:  record[4],
			Checksum: strings.TrimSpace(record[5]),
		}

		entry := entity.Entry{Payload: r.Payload, Checksum: r.Checksum}
		if err := entry.Verify(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}

		rows = append(rows, r.Values())
	}

	return rows, nil
}

// clean formats a cell value. Whole numbers are written without a decimal
// point because the Sheets API returns every number as a float.
func clean(v any) string {
	switch n := v.(type) {
	case float64:
		if n == float64(int64(n)) {
			return strconv.FormatInt(int64(n), 10)
		}

		return strconv.FormatFloat(n, 'f', -1, 64)

	default:
		return fmt.Sprintf("%v", v)
	}
}
