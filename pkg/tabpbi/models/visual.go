package models

import (
	"bytes"
	"encoding/json"
)

// VisualConfig is a Power BI report visual configuration.
type VisualConfig struct {
	// Name is the unique visual name.
	Name string `json:"name"`
	// Layouts holds the visual placement (a single entry).
	Layouts []Layout `json:"layouts"`
	// SingleVisual holds the visual definition.
	SingleVisual SingleVisual `json:"singleVisual"`
}

// Layout places a visual on the page.
type Layout struct {
	ID       int            `json:"id"`
	Position VisualPosition `json:"position"`
}

// VisualPosition is the rectangle, z-order and tab order of a visual.
type VisualPosition struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        int     `json:"z"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	TabOrder int     `json:"tabOrder"`
}

// SingleVisual is the data-bound part of a visual configuration.
type SingleVisual struct {
	VisualType              string         `json:"visualType"`
	Projections             ProjectionMap  `json:"projections"`
	PrototypeQuery          PrototypeQuery `json:"prototypeQuery"`
	DrillFilterOtherVisuals bool           `json:"drillFilterOtherVisuals"`
	HasDefaultSort          *bool          `json:"hasDefaultSort,omitempty"`
	Objects                 StyleTree      `json:"objects,omitempty"`
	VCObjects               StyleTree      `json:"vcObjects,omitempty"`
}

// Projection references a query select item from a visual role.
type Projection struct {
	QueryRef string `json:"queryRef"`
	Active   bool   `json:"active,omitempty"`
}

// ProjectionMap maps a visual role (e.g. "Category", "Y") to its projections.
type ProjectionMap map[string][]Projection

// Add appends a projection for role.
func (p ProjectionMap) Add(role, queryRef string, active bool) {
	p[role] = append(p[role], Projection{QueryRef: queryRef, Active: active})
}

// QueryRefs returns the query references projected into role.
func (p ProjectionMap) QueryRefs(role string) []string {
	refs := make([]string, 0, len(p[role]))
	for _, proj := range p[role] {
		refs = append(refs, proj.QueryRef)
	}
	return refs
}

// PrototypeQuery is the semantic query of a visual.
type PrototypeQuery struct {
	Version int            `json:"Version"`
	From    []EntitySource `json:"From"`
	Select  []SelectItem   `json:"Select"`
	OrderBy []OrderBy      `json:"OrderBy,omitempty"`
}

// EntitySource binds an alias to a dataset entity.
type EntitySource struct {
	Name   string `json:"Name"`
	Entity string `json:"Entity"`
	Type   int    `json:"Type"`
}

// SourceRef references a query source alias.
type SourceRef struct {
	Source string `json:"Source"`
}

// SourceExpr wraps a SourceRef.
type SourceExpr struct {
	SourceRef SourceRef `json:"SourceRef"`
}

// ColumnExpr selects a column property from a source.
type ColumnExpr struct {
	Expression SourceExpr `json:"Expression"`
	Property   string     `json:"Property"`
}

// AggregatedColumn wraps the column an aggregation applies to.
type AggregatedColumn struct {
	Column ColumnExpr `json:"Column"`
}

// AggregationExpr aggregates a column with a function id.
type AggregationExpr struct {
	Expression AggregatedColumn `json:"Expression"`
	Function   AggregationFunc  `json:"Function"`
}

// SelectItem is one selected column or aggregation.
type SelectItem struct {
	Column              *ColumnExpr      `json:"Column,omitempty"`
	Aggregation         *AggregationExpr `json:"Aggregation,omitempty"`
	Name                string           `json:"Name"`
	NativeReferenceName string           `json:"NativeReferenceName,omitempty"`
}

// SortDirection is the query sort direction.
type SortDirection int

const (
	SortAscending  SortDirection = 1
	SortDescending SortDirection = 2
)

// OrderExpr is the sort key of an order-by clause.
type OrderExpr struct {
	Column      *ColumnExpr      `json:"Column,omitempty"`
	Aggregation *AggregationExpr `json:"Aggregation,omitempty"`
}

// OrderBy is a query order-by clause.
type OrderBy struct {
	Direction  SortDirection `json:"Direction"`
	Expression OrderExpr     `json:"Expression"`
}

// StyleEntry is one entry of a style object list.
type StyleEntry struct {
	Properties map[string]json.RawMessage `json:"properties,omitempty"`
	Selector   *Selector                  `json:"selector,omitempty"`
}

// Selector scopes a style entry to a series or data point.
type Selector struct {
	Metadata string          `json:"metadata,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	ID       string          `json:"id,omitempty"`
}

// Clone returns a deep copy of the entry.
func (e StyleEntry) Clone() StyleEntry {
	out := StyleEntry{}
	if e.Properties != nil {
		out.Properties = make(map[string]json.RawMessage, len(e.Properties))
		for k, v := range e.Properties {
			out.Properties[k] = append(json.RawMessage(nil), v...)
		}
	}
	if e.Selector != nil {
		sel := *e.Selector
		sel.Data = append(json.RawMessage(nil), e.Selector.Data...)
		if len(sel.Data) == 0 {
			sel.Data = nil
		}
		out.Selector = &sel
	}
	return out
}

// StyleTree maps a style object name (e.g. "dataPoint", "title") to its entries.
type StyleTree map[string][]StyleEntry

// UnmarshalJSON accepts a single entry object in place of a list.
func (t *StyleTree) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	tree := make(StyleTree, len(raw))
	for key, value := range raw {
		value = bytes.TrimSpace(value)
		if len(value) == 0 || value[0] != '[' {
			var single StyleEntry
			if err := json.Unmarshal(value, &single); err != nil {
				return err
			}
			tree[key] = []StyleEntry{single}
			continue
		}
		var entries []StyleEntry
		if err := json.Unmarshal(value, &entries); err != nil {
			return err
		}
		tree[key] = entries
	}
	*t = tree
	return nil
}

// Clone returns a deep copy of the tree.
func (t StyleTree) Clone() StyleTree {
	if t == nil {
		return nil
	}
	out := make(StyleTree, len(t))
	for k, entries := range t {
		cloned := make([]StyleEntry, len(entries))
		for i, e := range entries {
			cloned[i] = e.Clone()
		}
		out[k] = cloned
	}
	return out
}

// VisualWrapper is the report-level container of a visual.
type VisualWrapper struct {
	// Config is the stringified VisualConfig.
	Config string `json:"config"`
	// Filters is the stringified filter list.
	Filters string  `json:"filters"`
	Height  float64 `json:"height"`
	Width   float64 `json:"width"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       int     `json:"z"`
}

// Wrap stringifies v into a VisualWrapper using its first layout position.
// The config is not HTML-escaped.
func Wrap(v *VisualConfig) (VisualWrapper, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return VisualWrapper{}, err
	}
	var pos VisualPosition
	if len(v.Layouts) > 0 {
		pos = v.Layouts[0].Position
	}
	return VisualWrapper{
		Config:  string(bytes.TrimSpace(buf.Bytes())),
		Filters: "[]",
		Height:  pos.Height,
		Width:   pos.Width,
		X:       pos.X,
		Y:       pos.Y,
		Z:       pos.Z,
	}, nil
}

// Unwrap decodes the visual configuration held by w.
func (w VisualWrapper) Unwrap() (*VisualConfig, error) {
	var v VisualConfig
	if err := json.Unmarshal([]byte(w.Config), &v); err != nil {
		return nil, err
	}
	return &v, nil
}
