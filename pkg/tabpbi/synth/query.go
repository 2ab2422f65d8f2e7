// Package synth builds Power BI visual configurations from resolved bindings.
package synth

import (
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/models"
)

// Visual types emitted per chart archetype.
const (
	VisualBar        = "barChart"
	VisualBoxWhisker = "BoxandWhiskerByMAQ1823AD39DT234AB532063E128AX"
)

// queryVersion is the prototype query schema version.
const queryVersion = 2

// VisualType returns the visual type emitted for a chart archetype.
func VisualType(t models.ChartType) string {
	if t == models.ChartBoxWhisker {
		return VisualBoxWhisker
	}
	return VisualBar
}

func columnExpr(alias, column string) *models.ColumnExpr {
	return &models.ColumnExpr{
		Expression: models.SourceExpr{SourceRef: models.SourceRef{Source: alias}},
		Property:   column,
	}
}

func aggregationExpr(alias string, m models.ResolvedMeasure) *models.AggregationExpr {
	return &models.AggregationExpr{
		Expression: models.AggregatedColumn{Column: *columnExpr(alias, m.Column)},
		Function:   m.Function,
	}
}

// BuildQuery returns the prototype query of a binding: one entity, one select
// item per bound column followed by the aggregated measures, ordered
// descending on the second measure when present, else the first.
func BuildQuery(b *models.ResolvedBinding) models.PrototypeQuery {
	q := models.PrototypeQuery{
		Version: queryVersion,
		From:    []models.EntitySource{{Name: b.Alias, Entity: b.Dataset, Type: 0}},
	}

	for _, col := range []string{b.Category, b.Legend} {
		if col == "" {
			continue
		}
		q.Select = append(q.Select, models.SelectItem{
			Column:              columnExpr(b.Alias, col),
			Name:                b.ColumnRef(col),
			NativeReferenceName: col,
		})
	}

	for _, m := range b.Measures {
		q.Select = append(q.Select, models.SelectItem{
			Aggregation:         aggregationExpr(b.Alias, m),
			Name:                m.QueryRef,
			NativeReferenceName: m.NativeName,
		})
	}

	if len(b.Measures) > 0 {
		sortBy := b.Measures[0]
		if len(b.Measures) > 1 {
			sortBy = b.Measures[1]
		}
		q.OrderBy = []models.OrderBy{{
			Direction:  models.SortDescending,
			Expression: models.OrderExpr{Aggregation: aggregationExpr(b.Alias, sortBy)},
		}}
	}

	return q
}

// BuildProjections maps the visual roles of a binding to query references.
// Bullet charts project Category (active) and Y; box-and-whisker charts
// project xCategoryParent, the optional category and measure.
func BuildProjections(b *models.ResolvedBinding) models.ProjectionMap {
	p := models.ProjectionMap{}
	if b.ChartType == models.ChartBoxWhisker {
		p.Add("xCategoryParent", b.ColumnRef(b.Category), false)
		if b.Legend != "" {
			p.Add("category", b.ColumnRef(b.Legend), false)
		}
		for _, m := range b.Measures {
			p.Add("measure", m.QueryRef, false)
		}
		return p
	}

	p.Add("Category", b.ColumnRef(b.Category), true)
	for _, m := range b.Measures {
		p.Add("Y", m.QueryRef, false)
	}
	return p
}
