// Package models defines data structures for workbook conversion.
package models

import (
	"encoding/json"
	"fmt"
)

// ChartType is the chart archetype a worksheet was classified as.
type ChartType string

const (
	// ChartBoxWhisker is a box-and-whisker chart (pane with a whisker reference line).
	ChartBoxWhisker ChartType = "Box-and-Whisker Chart"
	// ChartBullet is a bullet chart (bar panes carrying color or text encodings).
	ChartBullet ChartType = "Bullet Chart"
)

// FieldValue is an ordered set of field names.
// It serializes as null when empty, as a string when it holds one value and as
// an array otherwise.
type FieldValue []string

// NewFieldValue returns a FieldValue holding v, or an empty one when v is blank.
func NewFieldValue(v string) FieldValue {
	if v == "" {
		return nil
	}
	return FieldValue{v}
}

// First returns the first value or "".
func (f FieldValue) First() string {
	if len(f) == 0 {
		return ""
	}
	return f[0]
}

// IsEmpty reports whether the value holds no names.
func (f FieldValue) IsEmpty() bool {
	return len(f) == 0
}

// Contains reports whether v is present.
func (f FieldValue) Contains(v string) bool {
	for _, s := range f {
		if s == v {
			return true
		}
	}
	return false
}

// Add appends v when it is non-empty and not yet present.
func (f FieldValue) Add(v ...string) FieldValue {
	for _, s := range v {
		if s != "" && !f.Contains(s) {
			f = append(f, s)
		}
	}
	return f
}

// MarshalJSON implements json.Marshaler.
func (f FieldValue) MarshalJSON() ([]byte, error) {
	switch len(f) {
	case 0:
		return []byte("null"), nil
	case 1:
		return json.Marshal(f[0])
	default:
		return json.Marshal([]string(f))
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FieldValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = nil
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*f = NewFieldValue(single)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("field value must be null, string or array: %w", err)
	}
	*f = FieldValue(nil).Add(many...)
	return nil
}

// ChartRecord represents one classified worksheet.
type ChartRecord struct {
	// Worksheet is the worksheet name (unique per workbook).
	Worksheet string `json:"worksheet"`
	// ChartType is the detected archetype.
	ChartType ChartType `json:"chart_type"`
	// MarkType is the pane mark class as written in the workbook.
	MarkType FieldValue `json:"mark_type"`
	// XAxis is the column shelf field.
	XAxis FieldValue `json:"X Axis"`
	// YAxis is the row shelf field.
	YAxis FieldValue `json:"Y Axis"`
	// Color is the color encoding field.
	Color FieldValue `json:"Color"`
	// Text is the text encoding field.
	Text FieldValue `json:"Text"`
	// Size is the size encoding field.
	Size FieldValue `json:"Size"`
	// Detail is the level-of-detail encoding field.
	Detail FieldValue `json:"Detail"`
	// Measures lists aggregation-qualified measure references, e.g. "Sum(Sales)".
	Measures []string `json:"measures,omitempty"`
	// Datasources lists the datasource ids referenced by the bindings.
	Datasources []string `json:"datasources,omitempty"`
}

// Key is the natural key of a chart record.
type Key struct {
	Worksheet string
	ChartType ChartType
}

// Key returns the (worksheet, chart type) key.
func (c ChartRecord) Key() Key {
	return Key{Worksheet: c.Worksheet, ChartType: c.ChartType}
}
