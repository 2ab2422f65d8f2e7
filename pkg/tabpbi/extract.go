package tabpbi

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/dataset"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/models"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/output"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/parser"
	"go.uber.org/zap"
)

// ErrFileNotFound indicates the input workbook does not exist.
var ErrFileNotFound = errors.New("file not found")

// PackageDir is the directory under the output directory receiving .twbx payloads.
const PackageDir = "extracted"

// previewRows is the number of rows kept per CSV preview.
const previewRows = 3

// Extract parses the configured workbook and writes the chart metadata, chart
// positions and extracted data artifacts.
func (p *Pipeline) Extract() (*models.Extraction, error) {
	path := p.cfg.Workbook
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrFileNotFound, path)
		}
		return nil, errors.Wrapf(err, "failed to stat %s", path)
	}

	doc, err := parser.LoadDocument(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load workbook %s", path)
	}

	set := parser.ExtractCharts(doc, p.opts.MergeRule, p.opts.Canvas)
	data := parser.ExtractData(doc)
	data.BookName = filepath.Base(path)
	data.CSVFiles, data.HyperFiles = []string{}, []string{}

	// Unpack payloads
	if strings.EqualFold(filepath.Ext(path), ".twbx") {
		dir := filepath.Join(p.cfg.OutputDir, PackageDir)
		unpacked, err := parser.ExtractPackage(path, dir)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to unpack %s", path)
		}
		p.logger.Info("Unpacked workbook package", zap.String("dir", dir), zap.Int("files", len(unpacked)))

		if data.CSVFiles, err = payloadFiles(dir, dataset.ExtCSV); err != nil {
			return nil, err
		}
		if data.HyperFiles, err = payloadFiles(dir, ".hyper"); err != nil {
			return nil, err
		}
	}
	data.CSVPreview = p.previews(data.CSVFiles)

	ext := &models.Extraction{
		Charts:    set.Charts,
		Positions: set.Positions,
		Data:      data,
	}

	// Write artifacts
	artifacts := []struct {
		name string
		v    interface{}
	}{
		{output.ChartMetadataFile, nonNilCharts(ext.Charts)},
		{output.ChartPositionsFile, nonNilPositions(ext.Positions)},
		{output.ExtractedDataFile, ext.Data},
	}
	for _, a := range artifacts {
		if err := output.WriteJSON(filepath.Join(p.cfg.OutputDir, a.name), a.v, p.opts.Pretty); err != nil {
			return nil, err
		}
	}

	p.logger.Info("Extracted workbook",
		zap.String("workbook", data.BookName),
		zap.Int("charts", len(ext.Charts)),
		zap.Int("positions", len(ext.Positions)))

	return ext, nil
}

// payloadFiles lists the unpacked files with extension ext.
func payloadFiles(dir, ext string) ([]string, error) {
	files, err := dataset.FindFiles(dir, ext)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list %s payloads", ext)
	}
	if files == nil {
		files = []string{}
	}
	return files, nil
}

func (p *Pipeline) previews(files []string) []models.CSVPreview {
	previews := make([]models.CSVPreview, 0, len(files))
	for _, file := range files {
		preview := models.CSVPreview{File: filepath.Base(file)}
		ds, err := p.provider.Load(file)
		if err != nil {
			p.logger.Warn("Failed to preview payload", zap.String("file", file), zap.Error(err))
			preview.Error = err.Error()
		} else {
			preview.Preview = ds.Head(previewRows)
		}
		previews = append(previews, preview)
	}
	return previews
}

// The artifacts are arrays even when empty.
func nonNilCharts(c []models.ChartRecord) []models.ChartRecord {
	if c == nil {
		return []models.ChartRecord{}
	}
	return c
}

func nonNilPositions(p []models.PositionRecord) []models.PositionRecord {
	if p == nil {
		return []models.PositionRecord{}
	}
	return p
}
