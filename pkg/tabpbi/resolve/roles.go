package resolve

import (
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/models"
)

// MinMeasures returns the number of measures a chart type needs.
func MinMeasures(t models.ChartType) int {
	if t == models.ChartBullet {
		return 2
	}
	return 1
}

// Roles are the conceptual field names a chart needs bound.
type Roles struct {
	// Category is the grouping field.
	Category string
	// Legend is the optional sub-category field (box-and-whisker only).
	Legend string
	// Measures are aggregation-qualified references, e.g. "Sum(Sales)".
	Measures []string
}

// RolesOf derives the roles of a chart record.
//
// Bullet charts group by the first dimension on the row shelf (the column
// shelf when rows only hold measures) and plot every measure. Box-and-whisker
// charts group by the column shelf, split by detail or color and plot the
// first measure.
func RolesOf(chart models.ChartRecord) Roles {
	measures := chart.Measures
	isMeasure := func(field string) bool {
		for _, m := range measures {
			if BaseField(m) == field {
				return true
			}
		}
		return false
	}
	firstDimension := func(values ...models.FieldValue) string {
		for _, v := range values {
			for _, field := range v {
				if !isMeasure(field) {
					return field
				}
			}
		}
		return ""
	}

	if chart.ChartType == models.ChartBullet {
		roles := Roles{Category: firstDimension(chart.YAxis, chart.XAxis)}
		roles.Measures = measures
		if len(roles.Measures) == 0 {
			for _, v := range []models.FieldValue{chart.XAxis, chart.YAxis, chart.Color, chart.Text, chart.Size} {
				for _, field := range v {
					ref := "Sum(" + field + ")"
					if field != roles.Category && !containsString(roles.Measures, ref) {
						roles.Measures = append(roles.Measures, ref)
					}
				}
			}
		}
		return roles
	}

	roles := Roles{Category: firstDimension(chart.XAxis)}
	switch {
	case len(measures) > 0:
		roles.Measures = measures[:1]
	case chart.YAxis.First() != "":
		roles.Measures = []string{"Sum(" + chart.YAxis.First() + ")"}
	}
	if legend := firstDimension(chart.Detail, chart.Color); legend != roles.Category {
		roles.Legend = legend
	}
	return roles
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
