package tabpbi

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/dataset"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/models"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/output"
	"go.uber.org/zap"
)

// ErrNoDatasets indicates the dataset directory holds no loadable dataset.
var ErrNoDatasets = errors.New("no datasets found")

// DatasetExport describes the combined dataset workbook.
type DatasetExport struct {
	// Workbook is the combined XLSX path.
	Workbook string
	// Script is the Power Query M script path.
	Script string
	// Sheets lists the sheet names in dataset order.
	Sheets []string
}

// loadDatasets loads the configured dataset directory, logging skipped files.
func (p *Pipeline) loadDatasets() ([]*models.Dataset, error) {
	result, err := dataset.LoadDir(p.cfg.CSVDir, p.provider)
	if err != nil {
		return nil, err
	}
	for path, err := range result.Failures {
		p.logger.Warn("Skipped unreadable dataset", zap.String("file", path), zap.Error(err))
	}
	for _, path := range result.Duplicates {
		p.logger.Warn("Skipped duplicate dataset name", zap.String("file", path))
	}
	p.logger.Info("Loaded datasets", zap.String("dir", p.cfg.CSVDir), zap.Int("count", len(result.Datasets)))
	return result.Datasets, nil
}

// ExportDatasets combines every dataset into one workbook, one sheet per
// dataset, and writes the M script loading it.
func (p *Pipeline) ExportDatasets() (*DatasetExport, error) {
	datasets, err := p.loadDatasets()
	if err != nil {
		return nil, err
	}
	if len(datasets) == 0 {
		return nil, errors.Wrap(ErrNoDatasets, p.cfg.CSVDir)
	}

	export := &DatasetExport{
		Workbook: filepath.Join(p.cfg.OutputDir, output.CombinedWorkbookFile),
		Script:   filepath.Join(p.cfg.OutputDir, output.MScriptFile),
	}

	// excelize does not create parent directories.
	if err := os.MkdirAll(p.cfg.OutputDir, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create output directory")
	}
	export.Sheets, err = dataset.CombineWorkbook(datasets, export.Workbook)
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(export.Workbook)
	if err != nil {
		abs = export.Workbook
	}
	if err := output.WriteFile(export.Script, []byte(dataset.MScript(abs, export.Sheets))); err != nil {
		return nil, err
	}

	p.logger.Info("Exported datasets",
		zap.String("workbook", export.Workbook),
		zap.Int("sheets", len(export.Sheets)))

	return export, nil
}
