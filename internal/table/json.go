package table

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// ReadJSON parses a JSON array of flat objects into a Table. Column order is
// the order keys are first seen; objects may omit keys (missing cells).
// Scanned answer sheets exported by OMR tools commonly arrive in this shape.
func ReadJSON(data []byte) (Table, error) {
	if !gjson.ValidBytes(data) {
		return Table{}, fmt.Errorf("read json: invalid document")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsArray() {
		return Table{}, fmt.Errorf("read json: expected a top-level array of objects")
	}

	t := Table{}
	seen := map[string]bool{}
	var badRow error

	doc.ForEach(func(_, obj gjson.Result) bool {
		if !obj.IsObject() {
			badRow = fmt.Errorf("read json: array element is not an object")
			return false
		}
		row := Row{}
		obj.ForEach(func(key, val gjson.Result) bool {
			name := key.String()
			if !seen[name] {
				seen[name] = true
				t.Columns = append(t.Columns, name)
			}
			row[name] = cellFromJSON(val)
			return true
		})
		t.Rows = append(t.Rows, row)
		return true
	})
	if badRow != nil {
		return Table{}, badRow
	}
	return t, nil
}

func cellFromJSON(val gjson.Result) Cell {
	switch val.Type {
	case gjson.Null:
		return MissingCell()
	case gjson.Number:
		return NumberCell(val.Num)
	default:
		return TextCell(val.String())
	}
}
