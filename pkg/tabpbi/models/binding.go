package models

// AggregationFunc is the Power BI query aggregation function id.
// The numeric values mirror the target system's protocol enum.
type AggregationFunc int

const (
	AggSum           AggregationFunc = 0
	AggAverage       AggregationFunc = 1
	AggMin           AggregationFunc = 2
	AggMax           AggregationFunc = 3
	AggCount         AggregationFunc = 4
	AggCountDistinct AggregationFunc = 5
)

// String returns the query prefix used in query references, e.g. "Sum".
func (a AggregationFunc) String() string {
	switch a {
	case AggAverage:
		return "Avg"
	case AggMin:
		return "Min"
	case AggMax:
		return "Max"
	case AggCount:
		return "Count"
	case AggCountDistinct:
		return "CountD"
	default:
		return "Sum"
	}
}

// DisplayName returns the label used in native reference names, e.g. "Average".
func (a AggregationFunc) DisplayName() string {
	switch a {
	case AggAverage:
		return "Average"
	case AggMin:
		return "Min"
	case AggMax:
		return "Max"
	case AggCount:
		return "Count"
	case AggCountDistinct:
		return "Count of Distinct"
	default:
		return "Sum"
	}
}

// ResolvedMeasure is a measure bound to a concrete dataset column.
type ResolvedMeasure struct {
	// Column is the dataset column aggregated.
	Column string `json:"column"`
	// Function is the aggregation applied.
	Function AggregationFunc `json:"function"`
	// QueryRef is the query reference, e.g. "Sum(Orders.Sales)".
	QueryRef string `json:"query_ref"`
	// NativeName is the display name, e.g. "Sum of Sales".
	NativeName string `json:"native_name"`
}

// ResolvedBinding is a chart record matched against a concrete dataset.
// Every column named here exists in the dataset.
type ResolvedBinding struct {
	// Worksheet is the source worksheet.
	Worksheet string `json:"worksheet"`
	// ChartType is the source chart archetype.
	ChartType ChartType `json:"chart_type"`
	// Dataset is the cleaned dataset name (the query entity).
	Dataset string `json:"dataset"`
	// Alias is the query source alias.
	Alias string `json:"alias"`
	// Category is the grouping column: the bar category of a bullet chart,
	// the x-axis parent category of a box-and-whisker chart.
	Category string `json:"category"`
	// Legend is the optional box-and-whisker sub-category column.
	Legend string `json:"legend,omitempty"`
	// Measures holds the aggregated measures in order.
	Measures []ResolvedMeasure `json:"measures"`
}

// ColumnRef returns the "Dataset.Column" query reference for column.
func (b ResolvedBinding) ColumnRef(column string) string {
	return b.Dataset + "." + column
}

// MeasureRefs returns the query references of all measures.
func (b ResolvedBinding) MeasureRefs() []string {
	refs := make([]string, len(b.Measures))
	for i, m := range b.Measures {
		refs[i] = m.QueryRef
	}
	return refs
}
