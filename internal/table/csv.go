package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ReadCSV parses a CSV stream into a Table. The first record is the header;
// column names are whitespace-trimmed. Empty cells become missing values and
// fully blank rows are dropped.
func ReadCSV(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return Table{}, fmt.Errorf("read csv: no header row")
	}

	t := Table{}
	for _, name := range records[0] {
		t.Columns = append(t.Columns, strings.TrimSpace(name))
	}

	for _, rec := range records[1:] {
		row := make(Row, len(t.Columns))
		blank := true
		for i, name := range t.Columns {
			if i >= len(rec) || strings.TrimSpace(rec[i]) == "" {
				row[name] = MissingCell()
				continue
			}
			row[name] = TextCell(rec[i])
			blank = false
		}
		if blank {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// WriteCSV encodes a Table as CSV, header first, preserving column order.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	rec := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, name := range t.Columns {
			rec[i] = row[name].Text()
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
