package dataset

import (
	"bytes"
	"encoding/csv"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/models"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// Supported dataset file extensions.
const (
	ExtCSV  = ".csv"
	ExtXLSX = ".xlsx"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrUnsupportedFormat indicates a dataset file with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// Provider loads one dataset file.
type Provider interface {
	Load(path string) (*models.Dataset, error)
}

// FileProvider loads CSV and XLSX files from the local filesystem.
type FileProvider struct{}

// Load implements Provider.
func (FileProvider) Load(path string) (*models.Dataset, error) {
	var (
		header []string
		rows   [][]string
		err    error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ExtCSV:
		header, rows, err = readCSV(path)
	case ExtXLSX:
		header, rows, err = readXLSX(path)
	default:
		return nil, errors.Wrap(ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load dataset %s", path)
	}

	raw := NameFromPath(path)
	columns, typed := buildDataset(header, rows)
	return &models.Dataset{
		Name:    CleanDatasetName(raw),
		RawName: raw,
		Path:    path,
		Columns: columns,
		Rows:    typed,
	}, nil
}

// readCSV reads a CSV file as UTF-8 (BOM stripped), falling back to Latin-1
// for files that are not valid UTF-8. Rows longer than the header are skipped
// and shorter rows are padded.
func readCSV(path string) ([]string, [][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		if data, err = charmap.ISO8859_1.NewDecoder().Bytes(data); err != nil {
			return nil, nil, errors.Wrap(err, "latin1 decode")
		}
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		if len(record) > len(header) {
			continue
		}
		for len(record) < len(header) {
			record = append(record, "")
		}
		rows = append(rows, record)
	}

	return header, rows, nil
}

// readXLSX reads the data region of the first worksheet of an XLSX file.
// The first non-empty row of the region is the header.
func readXLSX(path string) ([]string, [][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, nil
	}

	cells, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, err
	}

	minRow, maxRow, minCol, maxCol := findDataBounds(cells)
	if minRow < 0 {
		return nil, nil, nil
	}

	region := func(row []string) []string {
		out := make([]string, maxCol-minCol+1)
		for c := minCol; c <= maxCol && c < len(row); c++ {
			out[c-minCol] = row[c]
		}
		return out
	}

	header := region(cells[minRow])
	var rows [][]string
	for r := minRow + 1; r <= maxRow; r++ {
		row := region(cells[r])
		if isBlankRow(row) {
			continue
		}
		rows = append(rows, row)
	}

	return header, rows, nil
}

// findDataBounds finds the bounding box of non-empty cells.
func findDataBounds(rows [][]string) (minRow, maxRow, minCol, maxCol int) {
	minRow, maxRow = -1, -1
	minCol, maxCol = -1, -1

	for rowIdx, row := range rows {
		for colIdx, cell := range row {
			if cell != "" {
				if minRow < 0 || rowIdx < minRow {
					minRow = rowIdx
				}
				if maxRow < 0 || rowIdx > maxRow {
					maxRow = rowIdx
				}
				if minCol < 0 || colIdx < minCol {
					minCol = colIdx
				}
				if maxCol < 0 || colIdx > maxCol {
					maxCol = colIdx
				}
			}
		}
	}

	return
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// IsDatasetFile reports whether path has a supported dataset extension.
func IsDatasetFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtCSV, ExtXLSX:
		return true
	}
	return false
}

// LoadResult is the outcome of loading a dataset directory.
type LoadResult struct {
	// Datasets holds the loaded datasets in file name order.
	Datasets []*models.Dataset
	// Duplicates lists files skipped because an earlier file had the same cleaned name.
	Duplicates []string
	// Failures maps unreadable files to their load error.
	Failures map[string]error
}

// LoadDir loads every dataset file directly inside dir with p.
// Unreadable files are recorded in Failures and skipped.
func LoadDir(dir string, p Provider) (*LoadResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read dataset directory %s", dir)
	}

	result := &LoadResult{Failures: make(map[string]error)}
	seen := make(map[string]bool)

	for _, entry := range entries {
		if entry.IsDir() || !IsDatasetFile(entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		ds, err := p.Load(path)
		if err != nil {
			result.Failures[path] = err
			continue
		}
		if seen[ds.Name] {
			result.Duplicates = append(result.Duplicates, path)
			continue
		}
		seen[ds.Name] = true
		result.Datasets = append(result.Datasets, ds)
	}

	return result, nil
}

// FindFiles walks root and returns every file whose extension is one of exts
// (case-insensitive), sorted.
func FindFiles(root string, exts ...string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		for _, want := range exts {
			if ext == strings.ToLower(want) {
				found = append(found, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(found)
	return found, nil
}
