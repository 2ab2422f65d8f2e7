// Package resolve binds classified charts to concrete dataset columns.
package resolve

import (
	"regexp"
	"strings"

	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/models"
)

// funcPattern matches "Func(...)" measure references.
var funcPattern = regexp.MustCompile(`^\s*([A-Za-z_]\w*)\s*\(`)

var aggregationNames = map[string]models.AggregationFunc{
	"sum":           models.AggSum,
	"avg":           models.AggAverage,
	"average":       models.AggAverage,
	"mean":          models.AggAverage,
	"min":           models.AggMin,
	"max":           models.AggMax,
	"count":         models.AggCount,
	"cnt":           models.AggCount,
	"countd":        models.AggCountDistinct,
	"cntd":          models.AggCountDistinct,
	"ctd":           models.AggCountDistinct,
	"distinctcount": models.AggCountDistinct,
}

// ParseAggregation splits a measure reference such as "Sum(Orders.Profit)"
// into its base field ("Profit") and aggregation function. Unknown or missing
// function names default to Sum.
func ParseAggregation(ref string) (string, models.AggregationFunc) {
	fn := models.AggSum
	if m := funcPattern.FindStringSubmatch(ref); m != nil {
		if f, ok := aggregationNames[strings.ToLower(m[1])]; ok {
			fn = f
		}
	}
	return BaseField(ref), fn
}

// BaseField returns the innermost parenthesized content of ref with any
// "Dataset." qualifier removed. A reference without parentheses is used whole.
func BaseField(ref string) string {
	field := ref
	if open := strings.LastIndex(field, "("); open >= 0 {
		field = field[open+1:]
		if end := strings.Index(field, ")"); end >= 0 {
			field = field[:end]
		}
	}
	field = strings.TrimSpace(field)
	if dot := strings.LastIndex(field, "."); dot >= 0 {
		field = field[dot+1:]
	}
	return strings.TrimSpace(field)
}

// measureRef builds the resolved measure of column in dataset.
func measureRef(dataset, column string, fn models.AggregationFunc) models.ResolvedMeasure {
	return models.ResolvedMeasure{
		Column:     column,
		Function:   fn,
		QueryRef:   fn.String() + "(" + dataset + "." + column + ")",
		NativeName: fn.DisplayName() + " of " + column,
	}
}

// Alias returns the query source alias of a dataset: its first letter, lowercased.
func Alias(dataset string) string {
	for _, r := range strings.ToLower(dataset) {
		return string(r)
	}
	return "t"
}
