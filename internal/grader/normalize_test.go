package grader

import (
	"testing"

	"github.com/markbook/markbook/internal/table"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		cell table.Cell
		want string
	}{
		{"missing is empty", table.MissingCell(), ""},
		{"zero value is empty", table.Cell{}, ""},
		{"trims whitespace", table.TextCell("  b \t"), "B"},
		{"uppercases", table.TextCell("a"), "A"},
		{"strips float suffix", table.TextCell("3.0"), "3"},
		{"whole number cell", table.NumberCell(3), "3"},
		{"negative whole number text", table.TextCell("-7.0"), "-7"},
		{"fractional number kept", table.TextCell("3.5"), "3.5"},
		{"non-numeric dot-zero kept", table.TextCell("a.0"), "A.0"},
		{"plain text", table.TextCell("AB"), "AB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.cell); got != tt.want {
				t.Errorf("Normalize(%v) = %q, want %q", tt.cell, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	cells := []table.Cell{
		table.MissingCell(),
		table.TextCell("3.0"),
		table.TextCell(" a "),
		table.TextCell("3.0.0"),
		table.NumberCell(12),
		table.NumberCell(2.5),
		table.TextCell("答案A"),
	}
	for _, c := range cells {
		once := Normalize(c)
		twice := Normalize(table.TextCell(once))
		if once != twice {
			t.Errorf("Normalize not idempotent for %v: %q then %q", c, once, twice)
		}
	}
}

func TestNormalizeFormatInsensitivity(t *testing.T) {
	if Normalize(table.TextCell("3.0")) != Normalize(table.TextCell("3")) {
		t.Error("expected '3.0' and '3' to normalize identically")
	}
	if Normalize(table.TextCell("a")) != Normalize(table.TextCell("A")) {
		t.Error("expected 'a' and 'A' to normalize identically")
	}
	if Normalize(table.MissingCell()) != "" {
		t.Error("expected missing value to normalize to empty string")
	}
	if Normalize(table.NumberCell(3)) != Normalize(table.TextCell("3.0")) {
		t.Error("expected numeric 3 and text '3.0' to normalize identically")
	}
}

func TestDigitRun(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Q12", "12"},
		{"QQ3", "3"},
		{"第5题", "5"},
		{"7", "7"},
		{"total", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := digitRun(tt.in); got != tt.want {
			t.Errorf("digitRun(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
