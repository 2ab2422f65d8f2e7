package synth

import (
	"fmt"

	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/dataset"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/models"
)

// PositionMatch selects how charts are placed when no zone name matches.
type PositionMatch string

const (
	// MatchName places unmatched charts at the default position.
	MatchName PositionMatch = "name"
	// MatchIndex places the i-th unmatched chart at the i-th zone.
	MatchIndex PositionMatch = "index"
)

// ParsePositionMatch validates a position match mode name. Empty selects MatchName.
func ParsePositionMatch(s string) (PositionMatch, error) {
	switch PositionMatch(s) {
	case "", MatchName:
		return MatchName, nil
	case MatchIndex:
		return MatchIndex, nil
	default:
		return "", fmt.Errorf("unknown position match %q (expected %q or %q)", s, MatchName, MatchIndex)
	}
}

// FindPosition returns the zone placing a chart. A zone matches when its
// normalized worksheet name equals the normalized worksheet, title or chart
// type. Failing that, MatchIndex uses positions[index]. ok is false when the
// default position was used.
func FindPosition(positions []models.PositionRecord, worksheet, title string, chartType models.ChartType, index int, mode PositionMatch) (models.PositionRecord, bool) {
	candidates := []string{worksheet, title, string(chartType)}
	for _, pos := range positions {
		for _, name := range candidates {
			if dataset.SameName(pos.Worksheet, name) {
				return pos, true
			}
		}
	}

	if mode == MatchIndex && index >= 0 && index < len(positions) {
		return positions[index], true
	}
	return models.DefaultPosition, false
}

func layout(pos models.PositionRecord, z int) []models.Layout {
	return []models.Layout{{
		ID: 0,
		Position: models.VisualPosition{
			X:        pos.X,
			Y:        pos.Y,
			Z:        z,
			Width:    pos.W,
			Height:   pos.H,
			TabOrder: z * 100,
		},
	}}
}
