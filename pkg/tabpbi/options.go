// Package tabpbi converts Tableau workbooks into Power BI visual configurations.
package tabpbi

import (
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/parser"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/synth"
)

// Options configures conversion behavior.
type Options struct {
	// MergeRule selects how duplicate chart records combine (first-wins, collect).
	MergeRule parser.MergeRule
	// PositionMatch selects the placement fallback for unmatched charts (name, index).
	PositionMatch synth.PositionMatch
	// Canvas maps dashboard coordinates onto the report page.
	Canvas parser.Canvas
	// MaxAttempts caps the drafting attempts per box-and-whisker chart.
	MaxAttempts int
	// Pretty indents the written JSON artifacts.
	Pretty bool
	// UseLLM specifies whether the language model services are used.
	// If nil, defaults to true when an API key is configured.
	UseLLM *bool
}

// DefaultOptions returns default conversion options.
func DefaultOptions() Options {
	return Options{
		MergeRule:     parser.MergeCollect,
		PositionMatch: synth.MatchName,
		Canvas:        parser.DefaultCanvas(),
		MaxAttempts:   synth.DefaultMaxAttempts,
	}
}

// ShouldUseLLM returns whether to call the language model services.
func (o Options) ShouldUseLLM(hasKey bool) bool {
	if o.UseLLM != nil {
		return *o.UseLLM && hasKey
	}
	return hasKey
}
