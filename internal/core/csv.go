package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// RawTable is a parsed CSV file: the header row in file order and one
// RawRow per non-empty data record.
type RawTable struct {
	Headers []string
	Rows    []RawRow
}

// ParseCSV reads a CSV file whose first non-empty record is the header row.
// Header cells are trimmed, data cells are kept verbatim. Records shorter
// than the header leave the missing keys undefined; extra cells are dropped.
// Columns with a blank header are ignored. When a header repeats, the later
// column wins.
func ParseCSV(r io.Reader) (*RawTable, error) {
	cr := csv.NewReader(wrapForParsing(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var headers []string
	for headers == nil {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: no header row", ErrEmptyFile)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
		}
		if isEmptyRow(record) {
			continue
		}
		headers = make([]string, len(record))
		for i, h := range record {
			headers[i] = strings.TrimSpace(h)
		}
	}

	table := &RawTable{Headers: headers}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
		}
		if isEmptyRow(record) {
			continue
		}

		row := make(RawRow, len(headers))
		for i, h := range headers {
			if h == "" || i >= len(record) {
				continue
			}
			row[h] = record[i]
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
