package dataset

import (
	"strconv"
	"strings"
)

var (
	identifierKeywords = []string{"id", "code", "zip", "postal", "number", "identifier", "sku", "isbn", "account", "phone", "key"}
	metricKeywords     = []string{"sale", "profit", "quantity", "amount", "cost", "revenue", "value"}
)

// IsIdentifierColumn reports whether a column name looks like an identifier or
// code that must stay textual even when every value is numeric.
// Columns also naming a metric ("Sales", "Unit Cost") are not identifiers.
func IsIdentifierColumn(name string) bool {
	lower := strings.ToLower(name)
	return containsAny(lower, identifierKeywords) && !containsAny(lower, metricKeywords)
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// parseValue attempts to parse a string value as a number.
// Returns int64 for integers, float64 for decimals, or the original string.
func parseValue(s string) interface{} {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// coerceColumn converts the raw cells of one column to typed values.
// A non-identifier column becomes numeric when every non-empty cell parses;
// it is int64 when all of them are integers and float64 otherwise.
// Empty cells become nil.
func coerceColumn(name string, cells []string) []interface{} {
	out := make([]interface{}, len(cells))

	numeric := !IsIdentifierColumn(name)
	floats := false
	seen := false
	if numeric {
		for _, c := range cells {
			c = strings.TrimSpace(c)
			if c == "" {
				continue
			}
			seen = true
			switch parseValue(c).(type) {
			case int64:
			case float64:
				floats = true
			default:
				numeric = false
			}
			if !numeric {
				break
			}
		}
	}
	numeric = numeric && seen

	for i, c := range cells {
		trimmed := strings.TrimSpace(c)
		switch {
		case trimmed == "":
			out[i] = nil
		case !numeric:
			out[i] = c
		case floats:
			f, _ := strconv.ParseFloat(trimmed, 64)
			out[i] = f
		default:
			out[i] = parseValue(trimmed)
		}
	}

	return out
}

// buildDataset trims the header and types the rows column by column.
func buildDataset(header []string, rows [][]string) (columns []string, typed [][]interface{}) {
	columns = make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	typed = make([][]interface{}, len(rows))
	for r := range rows {
		typed[r] = make([]interface{}, len(columns))
	}

	cells := make([]string, len(rows))
	for c, name := range columns {
		for r, row := range rows {
			if c < len(row) {
				cells[r] = row[c]
			} else {
				cells[r] = ""
			}
		}
		for r, v := range coerceColumn(name, cells) {
			typed[r][c] = v
		}
	}

	return columns, typed
}
