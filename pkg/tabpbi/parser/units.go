// Package parser provides Tableau workbook parsing utilities.
package parser

import "math"

// Tableau lays dashboard zones out on a fixed virtual canvas of 100000 units
// per axis; Power BI report pages default to 1280x720 pixels.
const (
	SourceMaxWidth  = 100000
	SourceMaxHeight = 100000
	DestWidth       = 1280
	DestHeight      = 720
)

// Canvas maps the source coordinate space onto the destination page.
type Canvas struct {
	SourceWidth  float64
	SourceHeight float64
	DestWidth    float64
	DestHeight   float64
}

// DefaultCanvas returns the standard Tableau to Power BI mapping.
func DefaultCanvas() Canvas {
	return Canvas{
		SourceWidth:  SourceMaxWidth,
		SourceHeight: SourceMaxHeight,
		DestWidth:    DestWidth,
		DestHeight:   DestHeight,
	}
}

// Rescale scales a source rectangle into destination units, rounded to 2 decimals.
// Source dimensions must be non-zero.
func (c Canvas) Rescale(x, y, w, h float64) (float64, float64, float64, float64) {
	return round2(x / c.SourceWidth * c.DestWidth),
		round2(y / c.SourceHeight * c.DestHeight),
		round2(w / c.SourceWidth * c.DestWidth),
		round2(h / c.SourceHeight * c.DestHeight)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
