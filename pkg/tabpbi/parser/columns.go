package parser

import (
	"regexp"
	"strings"
)

var (
	// sum:Sales:qk, :Measure Names
	colonFieldPattern = regexp.MustCompile(`^[^:\[\]]*:([^:\]]+)(?::[^:\]]*)?\]?$`)
	// [federated.x].[Column]
	bracketSuffixPattern = regexp.MustCompile(`\.\[([^\]]*)\]$`)
	// ...:Field]
	colonSuffixPattern = regexp.MustCompile(`:([^:\]]+)\]?$`)
	// [ds].[field] pairs inside a shelf expression
	fieldRefPattern = regexp.MustCompile(`\[[^\]]+\]\.\[[^\]]+\]`)
)

// federatedSeparator separates the datasource and field parts of a reference.
const federatedSeparator = "].["

// NormalizeColumn decodes a workbook field reference into its base column name.
// It returns "" for empty input and never fails: the worst case is the input
// with surrounding brackets removed.
func NormalizeColumn(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if idx := strings.LastIndex(raw, federatedSeparator); idx >= 0 {
		field := strings.NewReplacer("[", "", "]", "").Replace(raw[idx+len(federatedSeparator):])
		return normalizeField(field)
	}

	return normalizeField(raw)
}

// normalizeField applies the colon and bracket conventions to an unqualified field.
func normalizeField(s string) string {
	if parts := derivationParts(strings.Trim(s, "[]")); len(parts) >= 4 {
		return parts[len(parts)-2]
	}
	if m := colonFieldPattern.FindStringSubmatch(strings.TrimPrefix(s, "[")); m != nil {
		return m[1]
	}
	if m := bracketSuffixPattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	if m := colonSuffixPattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return strings.Trim(s, "[]")
}

// derivationParts splits a colon-encoded field. Table calculations prepend
// their own prefix (pcto:sum:Sales:qk) and may carry a trailing numeric
// index (pcto:sum:Sales:qk:2), which is dropped.
func derivationParts(field string) []string {
	parts := strings.Split(field, ":")
	if n := len(parts); n >= 5 && isDigits(parts[n-1]) {
		parts = parts[:n-1]
	}
	return parts
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FieldRef is a decoded workbook field reference.
type FieldRef struct {
	// Raw is the reference as written.
	Raw string
	// Datasource is the datasource id ("" for unqualified references).
	Datasource string
	// Aggregation is the derivation prefix, e.g. "sum", "none", "yr".
	Aggregation string
	// Name is the base column name.
	Name string
	// Suffix is the role/type suffix, e.g. "qk", "nk".
	Suffix string
}

// aggregationPrefixes maps workbook derivation prefixes to query function names.
var aggregationPrefixes = map[string]string{
	"sum":    "Sum",
	"avg":    "Avg",
	"min":    "Min",
	"max":    "Max",
	"cnt":    "Count",
	"count":  "Count",
	"ctd":    "CountD",
	"cntd":   "CountD",
	"countd": "CountD",
}

// IsMeasure reports whether the reference carries an aggregation.
func (f FieldRef) IsMeasure() bool {
	_, ok := aggregationPrefixes[strings.ToLower(f.Aggregation)]
	return ok
}

// MeasureRef returns the aggregation-qualified reference, e.g. "Sum(Sales)",
// or "" when the field is not aggregated.
func (f FieldRef) MeasureRef() string {
	fn, ok := aggregationPrefixes[strings.ToLower(f.Aggregation)]
	if !ok || f.Name == "" {
		return ""
	}
	return fn + "(" + f.Name + ")"
}

// ParseFieldRef decodes a raw reference into its parts.
func ParseFieldRef(raw string) FieldRef {
	ref := FieldRef{Raw: raw, Name: NormalizeColumn(raw)}

	field := strings.TrimSpace(raw)
	if idx := strings.LastIndex(field, federatedSeparator); idx >= 0 {
		ref.Datasource = strings.Trim(field[:idx], "[]")
		field = field[idx+len(federatedSeparator):]
	}
	field = strings.Trim(field, "[]")

	parts := derivationParts(field)
	switch n := len(parts); {
	case n >= 3:
		ref.Aggregation = parts[n-3]
		ref.Suffix = parts[n-1]
	case n == 2:
		ref.Aggregation = parts[0]
	}

	return ref
}

// SplitFieldRefs returns every field reference of a shelf expression.
// Expressions without qualified references yield the trimmed expression itself.
func SplitFieldRefs(expr string) []string {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil
	}
	if refs := fieldRefPattern.FindAllString(expr, -1); len(refs) > 0 {
		return refs
	}
	return []string{expr}
}
