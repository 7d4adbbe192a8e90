package engine

import "github.com/tidwall/gjson"

// asArray coerces a value into a slice for loop iteration. Grids iterate
// row by row; JSON array text is parsed. Anything else is not a
// collection and returns nil
func asArray(val any) []any {
	switch v := val.(type) {
	case []any:
		return v
	case [][]any:
		res := make([]any, len(v))
		for i, row := range v {
			res[i] = row
		}
		return res
	case string:
		parsed := gjson.Parse(v)
		if !parsed.IsArray() {
			return nil
		}
		arr, ok := parsed.Value().([]any)
		if !ok {
			return nil
		}
		return arr
	default:
		return nil
	}
}

// asGrid coerces a value into a grid for range writing. Flat slices
// become a column of single-cell rows unless their elements are already
// rows; scalars become a one-cell grid
func asGrid(val any) [][]any {
	switch v := val.(type) {
	case nil:
		return nil
	case [][]any:
		return v
	case []any:
		rows := make([][]any, len(v))
		for i, e := range v {
			if row, ok := e.([]any); ok {
				rows[i] = row
				continue
			}
			rows[i] = []any{e}
		}
		return rows
	default:
		return [][]any{{v}}
	}
}
