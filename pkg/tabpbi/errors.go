package tabpbi

import (
	"fmt"

	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/llm"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/output"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/parser"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/resolve"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/synth"
)

var (
	// ErrMalformedDocument indicates the workbook root document cannot be parsed.
	ErrMalformedDocument = parser.ErrMalformedDocument
	// ErrMissingArtifact indicates an intermediate artifact is absent.
	ErrMissingArtifact = output.ErrMissingArtifact
	// ErrUnresolvedBinding indicates a required chart role has no dataset column.
	ErrUnresolvedBinding = resolve.ErrUnresolvedBinding
	// ErrExternalService indicates a failed language model call.
	ErrExternalService = llm.ErrService
	// ErrDecode indicates a drafted configuration could not be decoded.
	ErrDecode = synth.ErrDecode
)

// Pipeline stages reported in chart errors and diagnostics.
const (
	StageResolve    = "resolve"
	StageSynthesize = "synthesize"
	StageWrap       = "wrap"
)

// ChartError represents an error while converting one chart.
type ChartError struct {
	Worksheet string
	Stage     string // "resolve", "synthesize", "wrap"
	Err       error
}

func (e *ChartError) Error() string {
	return fmt.Sprintf("chart error in worksheet %q (%s): %v", e.Worksheet, e.Stage, e.Err)
}

func (e *ChartError) Unwrap() error {
	return e.Err
}

// NewChartError creates a new ChartError.
func NewChartError(worksheet, stage string, err error) *ChartError {
	return &ChartError{
		Worksheet: worksheet,
		Stage:     stage,
		Err:       err,
	}
}

// Diagnostic records a chart that was excluded from the output.
type Diagnostic struct {
	Worksheet string `json:"worksheet"`
	ChartType string `json:"chart_type"`
	Stage     string `json:"stage"`
	Reason    string `json:"reason"`
}

// Diagnostic converts e into its report form.
func (e *ChartError) Diagnostic(chartType string) Diagnostic {
	return Diagnostic{
		Worksheet: e.Worksheet,
		ChartType: chartType,
		Stage:     e.Stage,
		Reason:    e.Err.Error(),
	}
}
