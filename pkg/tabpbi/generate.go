package tabpbi

import (
	"context"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/models"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/output"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/resolve"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/synth"
	"go.uber.org/zap"
)

// Result is the outcome of a generation run.
type Result struct {
	// Visuals holds the emitted visuals in chart order.
	Visuals []models.VisualWrapper
	// Diagnostics lists the charts excluded from Visuals.
	Diagnostics []Diagnostic
}

// Generate reads the extraction artifacts, binds every chart to a dataset and
// writes the visuals and diagnostics. Missing chart metadata or positions
// abort the run; a chart that cannot be converted is reported and skipped.
func (p *Pipeline) Generate(ctx context.Context) (*Result, error) {
	var charts []models.ChartRecord
	if err := output.ReadJSON(p.artifact(output.ChartMetadataFile), &charts); err != nil {
		return nil, err
	}
	var positions []models.PositionRecord
	if err := output.ReadJSON(p.artifact(output.ChartPositionsFile), &positions); err != nil {
		return nil, err
	}
	var data models.ExtractedData
	if err := output.ReadJSON(p.artifact(output.ExtractedDataFile), &data); err != nil {
		if !errors.Is(err, ErrMissingArtifact) {
			return nil, err
		}
		p.logger.Warn("No extracted data, matching datasets by name only")
	}

	datasets, err := p.loadDatasets()
	if err != nil {
		return nil, err
	}

	resolver := resolve.New(datasets, data.DataSources, p.services.Suggester, p.logger.Named("resolve"))
	synthesizer := synth.New(synth.Config{
		Positions:   positions,
		Match:       p.opts.PositionMatch,
		Style:       p.loadStyle(),
		Drafter:     p.services.Drafter,
		Validator:   p.services.Validator,
		Titles:      p.services.Titles,
		MaxAttempts: p.opts.MaxAttempts,
	}, p.logger.Named("synth"))

	result := &Result{
		Visuals:     []models.VisualWrapper{},
		Diagnostics: []Diagnostic{},
	}
	for i, chart := range charts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		w, err := p.convert(ctx, resolver, synthesizer, chart, i)
		if err != nil {
			var chartErr *ChartError
			if !errors.As(err, &chartErr) {
				return nil, err
			}
			p.logger.Warn("Chart excluded",
				zap.String("worksheet", chart.Worksheet),
				zap.String("stage", chartErr.Stage),
				zap.Error(chartErr.Err))
			result.Diagnostics = append(result.Diagnostics, chartErr.Diagnostic(string(chart.ChartType)))
			continue
		}
		result.Visuals = append(result.Visuals, w)
	}

	if err := output.WriteJSON(p.artifact(output.VisualsFile), result.Visuals, p.opts.Pretty); err != nil {
		return nil, err
	}
	if err := output.WriteJSON(p.artifact(output.DiagnosticsFile), result.Diagnostics, p.opts.Pretty); err != nil {
		return nil, err
	}

	p.logger.Info("Generated visuals",
		zap.Int("charts", len(charts)),
		zap.Int("visuals", len(result.Visuals)),
		zap.Int("excluded", len(result.Diagnostics)))

	return result, nil
}

// convert turns one chart into a wrapped visual. Per-chart failures are
// returned as a *ChartError; a cancelled context is returned as is.
func (p *Pipeline) convert(ctx context.Context, r *resolve.Resolver, s *synth.Synthesizer, chart models.ChartRecord, index int) (models.VisualWrapper, error) {
	binding, err := r.Resolve(ctx, chart)
	if err != nil {
		return models.VisualWrapper{}, p.chartError(ctx, chart.Worksheet, StageResolve, err)
	}

	v, err := s.Synthesize(ctx, binding, index)
	if err != nil {
		return models.VisualWrapper{}, p.chartError(ctx, chart.Worksheet, StageSynthesize, err)
	}

	w, err := models.Wrap(v)
	if err != nil {
		return models.VisualWrapper{}, NewChartError(chart.Worksheet, StageWrap, err)
	}
	return w, nil
}

func (p *Pipeline) chartError(ctx context.Context, worksheet, stage string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return NewChartError(worksheet, stage, err)
}

// loadStyle returns the configured bullet style sample, or nil when none is
// configured or it cannot be read.
func (p *Pipeline) loadStyle() *synth.Style {
	if p.cfg.StylePath == "" {
		return nil
	}
	style, err := synth.LoadStyle(p.cfg.StylePath, p.cfg.StyleMarker)
	if err != nil {
		p.logger.Warn("Style sample unavailable, bullet visuals keep default formatting",
			zap.String("path", p.cfg.StylePath), zap.Error(err))
		return nil
	}
	return style
}

func (p *Pipeline) artifact(name string) string {
	return filepath.Join(p.cfg.OutputDir, name)
}
