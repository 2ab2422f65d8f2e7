package parser

import (
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/models"
)

// ChartSet is the chart-level extraction result of a workbook.
type ChartSet struct {
	// Charts holds one merged record per (worksheet, chart type).
	Charts []models.ChartRecord
	// Positions holds the deduplicated dashboard placements.
	Positions []models.PositionRecord
}

// ExtractCharts classifies every worksheet of doc and locates the classified
// worksheets on the dashboards.
//
// Metadata records use the single-pane bullet strategy. Positions are looked up
// for box-and-whisker worksheets and for worksheets passing the dual-pane
// bullet strategy.
func ExtractCharts(doc *Document, rule MergeRule, canvas Canvas) ChartSet {
	var records []models.ChartRecord
	placed := make(map[string]bool)

	for _, ws := range doc.FindAll(doc.Root, "worksheet") {
		name := worksheetName(ws)

		boxes := ClassifyBoxWhisker(doc, ws)
		if len(boxes) > 0 {
			placed[name] = true
		}
		records = append(records, boxes...)

		records = append(records, ClassifyBullet(doc, ws, BulletSinglePane)...)
		if len(ClassifyBullet(doc, ws, BulletDualPane)) > 0 {
			placed[name] = true
		}
	}

	return ChartSet{
		Charts:    MergeCharts(records, rule),
		Positions: ExtractPositions(doc, placed, canvas),
	}
}
