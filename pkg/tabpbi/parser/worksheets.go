package parser

import (
	"strings"

	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/models"
)

// BulletStrategy selects how bar panes qualify a worksheet as a bullet chart.
// Position detection and field-metadata extraction use different strategies
// on purpose: the first needs a confident worksheet-level verdict, the second
// wants the bindings of every bar pane.
type BulletStrategy string

const (
	// BulletDualPane requires at least two qualifying bar panes per worksheet
	// and yields one record per worksheet.
	BulletDualPane BulletStrategy = "dual-pane"
	// BulletSinglePane yields one record per qualifying bar pane.
	BulletSinglePane BulletStrategy = "single-pane"
)

// whiskerAttr marks a box plot reference line.
const whiskerAttr = "boxplot-whisker-type"

// barMark is the mark class of bullet chart panes (compared case-insensitively).
const barMark = "Bar"

// encoding element names mapped to record roles
const (
	encColor  = "color"
	encText   = "text"
	encSize   = "size"
	encDetail = "lod"
)

// worksheetName returns the worksheet identifier.
func worksheetName(ws *Element) string {
	if name := ws.Get("name"); name != "" {
		return name
	}
	return "Unknown"
}

// IsBoxWhiskerPane reports whether a pane declares a whisker reference line.
func IsBoxWhiskerPane(doc *Document, pane *Element) bool {
	for _, ref := range doc.FindChildren(pane, "reference-line") {
		if _, ok := ref.Lookup(whiskerAttr); ok {
			return true
		}
	}
	return false
}

// IsBulletPane reports whether a pane has a Bar mark and a color or text encoding.
func IsBulletPane(doc *Document, pane *Element) bool {
	hasBar := false
	for _, mark := range doc.FindAll(pane, "mark") {
		if strings.EqualFold(mark.Get("class"), barMark) {
			hasBar = true
			break
		}
	}
	if !hasBar {
		return false
	}

	enc := doc.Find(pane, "encodings")
	return doc.Find(enc, encColor) != nil || doc.Find(enc, encText) != nil
}

// ClassifyBoxWhisker returns one box-and-whisker record per whisker pane of ws.
func ClassifyBoxWhisker(doc *Document, ws *Element) []models.ChartRecord {
	var records []models.ChartRecord
	for _, pane := range doc.FindAll(ws, "pane") {
		if !IsBoxWhiskerPane(doc, pane) {
			continue
		}
		records = append(records, paneRecord(doc, ws, pane, models.ChartBoxWhisker, false))
	}
	return records
}

// ClassifyBullet returns the bullet records of ws under the given strategy.
func ClassifyBullet(doc *Document, ws *Element, strategy BulletStrategy) []models.ChartRecord {
	var records []models.ChartRecord
	for _, pane := range doc.FindAll(ws, "pane") {
		if IsBulletPane(doc, pane) {
			records = append(records, paneRecord(doc, ws, pane, models.ChartBullet, true))
		}
	}

	if strategy == BulletDualPane {
		if len(records) < 2 {
			return nil
		}
		return MergeCharts(records, MergeCollect)
	}

	return records
}

// paneRecord reads the bindings of a pane into a chart record.
// paneAxes prefers the pane's own axis attributes over the worksheet shelves.
func paneRecord(doc *Document, ws, pane *Element, chartType models.ChartType, paneAxes bool) models.ChartRecord {
	rec := models.ChartRecord{
		Worksheet: worksheetName(ws),
		ChartType: chartType,
	}

	if mark := doc.Find(pane, "mark"); mark != nil {
		rec.MarkType = models.NewFieldValue(mark.Get("class"))
	} else if mark := doc.FindDescendant(pane, "mark"); mark != nil {
		rec.MarkType = models.NewFieldValue(mark.Get("class"))
	}

	table := doc.FindDescendant(ws, "table")
	cols := SplitFieldRefs(doc.ChildText(table, "cols"))
	rows := SplitFieldRefs(doc.ChildText(table, "rows"))
	if paneAxes {
		if x := pane.Get("x-axis-name"); x != "" {
			cols = []string{x}
		}
		if y := pane.Get("y-axis-name"); y != "" {
			rows = []string{y}
		}
	}

	var refs []FieldRef
	bind := func(raws []string) models.FieldValue {
		var v models.FieldValue
		for _, raw := range raws {
			ref := ParseFieldRef(raw)
			refs = append(refs, ref)
			v = v.Add(ref.Name)
		}
		return v
	}

	rec.XAxis = bind(cols)
	rec.YAxis = bind(rows)

	enc := doc.Find(pane, "encodings")
	rec.Color = bind(encodingColumns(doc, enc, encColor))
	rec.Text = bind(encodingColumns(doc, enc, encText))
	rec.Size = bind(encodingColumns(doc, enc, encSize))
	rec.Detail = bind(encodingColumns(doc, enc, encDetail))

	for _, ref := range refs {
		if m := ref.MeasureRef(); m != "" && !containsString(rec.Measures, m) {
			rec.Measures = append(rec.Measures, m)
		}
		if ref.Datasource != "" && !containsString(rec.Datasources, ref.Datasource) {
			rec.Datasources = append(rec.Datasources, ref.Datasource)
		}
	}

	return rec
}

// encodingColumns returns the column attributes of the named encoding children.
func encodingColumns(doc *Document, enc *Element, name string) []string {
	var cols []string
	for _, e := range doc.FindChildren(enc, name) {
		if col := e.Get("column"); col != "" {
			cols = append(cols, col)
		}
	}
	return cols
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
