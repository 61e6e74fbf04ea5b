package table

import (
	"bytes"
	"strings"
	"testing"
)

func TestCellText(t *testing.T) {
	tests := []struct {
		name string
		cell Cell
		want string
	}{
		{"missing", MissingCell(), ""},
		{"zero value", Cell{}, ""},
		{"text", TextCell("abc"), "abc"},
		{"whole number", NumberCell(3), "3"},
		{"fraction", NumberCell(2.5), "2.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cell.Text(); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCellFloat(t *testing.T) {
	if v, ok := NumberCell(4.5).Float(); !ok || v != 4.5 {
		t.Errorf("NumberCell Float = (%v, %v)", v, ok)
	}
	if v, ok := TextCell(" 12 ").Float(); !ok || v != 12 {
		t.Errorf("TextCell Float = (%v, %v)", v, ok)
	}
	if _, ok := TextCell("abc").Float(); ok {
		t.Error("expected non-numeric text to fail coercion")
	}
	if _, ok := MissingCell().Float(); ok {
		t.Error("expected missing cell to fail coercion")
	}
}

func TestReadCSV(t *testing.T) {
	in := " 题号 ,答案,分值\nQ1,A,5\n,,\nQ2,,3\n"
	tab, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}

	want := []string{"题号", "答案", "分值"}
	for i, col := range want {
		if tab.Columns[i] != col {
			t.Errorf("column %d = %q, want %q", i, tab.Columns[i], col)
		}
	}

	// The fully blank row is dropped.
	if len(tab.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tab.Rows))
	}
	if got := tab.Rows[0]["题号"].Text(); got != "Q1" {
		t.Errorf("row 0 identifier = %q", got)
	}
	if !tab.Rows[1]["答案"].IsMissing() {
		t.Error("expected empty cell to be missing")
	}
}

func TestReadCSVErrors(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("")); err == nil {
		t.Error("expected error on empty input")
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	tab := Table{
		Columns: []string{"name", "score"},
		Rows: []Row{
			{"name": TextCell("Alice"), "score": NumberCell(9)},
			{"name": TextCell("Bob"), "score": NumberCell(7.5)},
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, tab); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(got.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got.Rows))
	}
	if got.Rows[1]["score"].Text() != "7.5" {
		t.Errorf("score = %q, want 7.5", got.Rows[1]["score"].Text())
	}
}

func TestReadJSON(t *testing.T) {
	in := `[
		{"姓名": "Alice", "Q1": "A", "Q2": 3},
		{"姓名": "Bob", "Q1": null, "Q3": "C"}
	]`
	tab, err := ReadJSON([]byte(in))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}

	want := []string{"姓名", "Q1", "Q2", "Q3"}
	if len(tab.Columns) != len(want) {
		t.Fatalf("columns = %v, want %v", tab.Columns, want)
	}
	for i, col := range want {
		if tab.Columns[i] != col {
			t.Errorf("column %d = %q, want %q", i, tab.Columns[i], col)
		}
	}

	if got := tab.Rows[0]["Q2"].Text(); got != "3" {
		t.Errorf("numeric cell Text = %q, want 3", got)
	}
	if !tab.Rows[1]["Q1"].IsMissing() {
		t.Error("expected JSON null to be missing")
	}
	// Absent key reads as missing too.
	if !tab.Rows[0]["Q3"].IsMissing() {
		t.Error("expected absent key to read as missing")
	}
}

func TestReadJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"invalid document", `{"broken`},
		{"not an array", `{"a": 1}`},
		{"non-object element", `[1, 2]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadJSON([]byte(tt.in)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFilter(t *testing.T) {
	tab := Table{
		Columns: []string{"id"},
		Rows: []Row{
			{"id": TextCell("Q1")},
			{"id": TextCell("Q2")},
			{"id": TextCell("Q3")},
		},
	}
	got := tab.Filter(func(r Row) bool { return r["id"].Text() != "Q2" })
	if len(got.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got.Rows))
	}
	if got.Rows[1]["id"].Text() != "Q3" {
		t.Errorf("unexpected row order: %v", got.Rows)
	}
}
