package table

import (
	"strconv"
	"strings"
)

// Kind discriminates the scalar value held by a Cell.
type Kind int

const (
	// KindMissing marks an absent value (empty spreadsheet cell, JSON null).
	KindMissing Kind = iota
	// KindText is a textual value.
	KindText
	// KindNumber is a numeric value.
	KindNumber
)

// Cell is one scalar spreadsheet value.
type Cell struct {
	kind Kind
	text string
	num  float64
}

// MissingCell returns the explicit missing marker.
func MissingCell() Cell {
	return Cell{kind: KindMissing}
}

// TextCell returns a textual cell.
func TextCell(s string) Cell {
	return Cell{kind: KindText, text: s}
}

// NumberCell returns a numeric cell.
func NumberCell(v float64) Cell {
	return Cell{kind: KindNumber, num: v}
}

// Kind returns the cell's kind.
func (c Cell) Kind() Kind {
	return c.kind
}

// IsMissing reports whether the cell holds no value.
func (c Cell) IsMissing() bool {
	return c.kind == KindMissing
}

// Text returns the cell's textual representation.
// Missing cells render as the empty string; whole numbers render without
// a decimal part ("3", not "3.000000").
func (c Cell) Text() string {
	switch c.kind {
	case KindNumber:
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	case KindText:
		return c.text
	default:
		return ""
	}
}

// Float coerces the cell to a number. Text cells are parsed; missing or
// unparseable cells report ok=false.
func (c Cell) Float() (float64, bool) {
	switch c.kind {
	case KindNumber:
		return c.num, true
	case KindText:
		v, err := strconv.ParseFloat(strings.TrimSpace(c.text), 64)
		if err != nil {
			return 0, false
		}
		return v, true
	default:
		return 0, false
	}
}

// Row maps a column name to its cell value.
type Row map[string]Cell

// Table is an ordered sequence of named columns and rows of scalar values.
type Table struct {
	Columns []string
	Rows    []Row
}

// Empty reports whether the table has no rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// Filter returns a table with the same columns and only the rows for which
// keep returns true. Row maps are shared, not copied.
func (t Table) Filter(keep func(Row) bool) Table {
	out := Table{Columns: t.Columns}
	for _, r := range t.Rows {
		if keep(r) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}
