package models

// PositionRecord represents a dashboard zone placement of a chart.
// Coordinates are already rescaled to the target canvas.
type PositionRecord struct {
	// Dashboard is the dashboard name owning the zone.
	Dashboard string `json:"dashboard"`
	// Worksheet is the worksheet the zone shows.
	Worksheet string `json:"worksheet"`
	// X is the left offset.
	X float64 `json:"x"`
	// Y is the top offset.
	Y float64 `json:"y"`
	// W is the width.
	W float64 `json:"w"`
	// H is the height.
	H float64 `json:"h"`
}

// DefaultPosition is used when no zone can be matched to a chart.
var DefaultPosition = PositionRecord{X: 32.0, Y: 305.1, W: 1240.32, H: 406.8}
