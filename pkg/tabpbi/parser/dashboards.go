package parser

import (
	"strconv"
	"strings"

	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/models"
)

// ExtractPositions returns the rescaled placement of every dashboard zone whose
// name is one of worksheets, in document order and deduplicated.
func ExtractPositions(doc *Document, worksheets map[string]bool, canvas Canvas) []models.PositionRecord {
	var positions []models.PositionRecord

	for _, dashboard := range doc.FindAll(doc.Root, "dashboard") {
		dashboardName := dashboard.Get("name")
		for _, zone := range doc.FindAll(dashboard, "zone") {
			name := zone.Get("name")
			if name == "" || !worksheets[name] {
				continue
			}

			x, y, w, h := canvas.Rescale(
				zoneInt(zone, "x"),
				zoneInt(zone, "y"),
				zoneInt(zone, "w"),
				zoneInt(zone, "h"),
			)
			positions = append(positions, models.PositionRecord{
				Dashboard: dashboardName,
				Worksheet: name,
				X:         x,
				Y:         y,
				W:         w,
				H:         h,
			})
		}
	}

	return DedupePositions(positions)
}

// zoneInt reads an integer zone attribute, 0 when absent or invalid.
func zoneInt(zone *Element, name string) float64 {
	v, err := strconv.Atoi(strings.TrimSpace(zone.Get(name)))
	if err != nil {
		return 0
	}
	return float64(v)
}

// DashboardWorksheets returns the sheet names placed on a dashboard: the name
// of a zone's view element, or the zone's own name.
func DashboardWorksheets(doc *Document, dashboard *Element) []string {
	var names []string
	for _, zone := range doc.FindAll(dashboard, "zone") {
		name := zone.Get("name")
		if view := doc.FindDescendant(zone, "view"); view != nil && view.Get("name") != "" {
			name = view.Get("name")
		}
		if name != "" && !containsString(names, name) {
			names = append(names, name)
		}
	}
	return names
}
