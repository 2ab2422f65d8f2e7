package parser

import (
	"fmt"

	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/models"
)

// MergeRule selects how duplicate chart records combine their fields.
type MergeRule string

const (
	// MergeFirstWins keeps the first non-empty value of each field.
	MergeFirstWins MergeRule = "first-wins"
	// MergeCollect unions every value of each field in encounter order.
	MergeCollect MergeRule = "collect"
)

// ParseMergeRule validates a merge rule name.
func ParseMergeRule(s string) (MergeRule, error) {
	switch MergeRule(s) {
	case MergeFirstWins, MergeCollect:
		return MergeRule(s), nil
	case "":
		return MergeCollect, nil
	default:
		return "", fmt.Errorf("invalid merge rule: %s (must be %s or %s)", s, MergeFirstWins, MergeCollect)
	}
}

// MergeCharts returns one record per (worksheet, chart type) key, in first-seen order.
// Measures and datasources are always unioned.
func MergeCharts(charts []models.ChartRecord, rule MergeRule) []models.ChartRecord {
	index := make(map[models.Key]int)
	var merged []models.ChartRecord

	for _, chart := range charts {
		i, ok := index[chart.Key()]
		if !ok {
			index[chart.Key()] = len(merged)
			merged = append(merged, copyRecord(chart))
			continue
		}

		dst := &merged[i]
		dst.MarkType = mergeField(dst.MarkType, chart.MarkType, rule)
		dst.XAxis = mergeField(dst.XAxis, chart.XAxis, rule)
		dst.YAxis = mergeField(dst.YAxis, chart.YAxis, rule)
		dst.Color = mergeField(dst.Color, chart.Color, rule)
		dst.Text = mergeField(dst.Text, chart.Text, rule)
		dst.Size = mergeField(dst.Size, chart.Size, rule)
		dst.Detail = mergeField(dst.Detail, chart.Detail, rule)
		dst.Measures = unionStrings(dst.Measures, chart.Measures)
		dst.Datasources = unionStrings(dst.Datasources, chart.Datasources)
	}

	return merged
}

func mergeField(dst, src models.FieldValue, rule MergeRule) models.FieldValue {
	if rule == MergeFirstWins {
		if dst.IsEmpty() {
			return append(models.FieldValue(nil), src...)
		}
		return dst
	}
	return dst.Add(src...)
}

func copyRecord(c models.ChartRecord) models.ChartRecord {
	out := c
	out.MarkType = append(models.FieldValue(nil), c.MarkType...)
	out.XAxis = append(models.FieldValue(nil), c.XAxis...)
	out.YAxis = append(models.FieldValue(nil), c.YAxis...)
	out.Color = append(models.FieldValue(nil), c.Color...)
	out.Text = append(models.FieldValue(nil), c.Text...)
	out.Size = append(models.FieldValue(nil), c.Size...)
	out.Detail = append(models.FieldValue(nil), c.Detail...)
	out.Measures = append([]string(nil), c.Measures...)
	out.Datasources = append([]string(nil), c.Datasources...)
	return out
}

func unionStrings(dst, src []string) []string {
	for _, s := range src {
		if s != "" && !containsString(dst, s) {
			dst = append(dst, s)
		}
	}
	return dst
}

// DedupePositions drops positions repeating an earlier
// (worksheet, dashboard, x, y, w, h) tuple.
func DedupePositions(positions []models.PositionRecord) []models.PositionRecord {
	seen := make(map[models.PositionRecord]bool)
	var unique []models.PositionRecord
	for _, pos := range positions {
		if seen[pos] {
			continue
		}
		seen[pos] = true
		unique = append(unique, pos)
	}
	return unique
}
