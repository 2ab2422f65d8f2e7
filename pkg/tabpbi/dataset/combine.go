package dataset

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/models"
	"github.com/xuri/excelize/v2"
)

// maxSheetName is the Excel worksheet name length limit.
const maxSheetName = 31

var invalidSheetChars = regexp.MustCompile(`[\\/:*?"<>|\[\]]`)

// SheetNames derives one unique, valid worksheet name per raw dataset name.
// Invalid characters become "_", names are cut to 31 characters and repeats
// get a "_N" suffix.
func SheetNames(raw []string) []string {
	var names []string
	taken := make(map[string]bool)

	for _, r := range raw {
		base := truncate(invalidSheetChars.ReplaceAllString(r, "_"), maxSheetName)
		if base == "" {
			base = "Sheet"
		}

		name := base
		for n := 1; taken[strings.ToLower(name)]; n++ {
			suffix := fmt.Sprintf("_%d", n)
			name = truncate(base, maxSheetName-len(suffix)) + suffix
		}
		taken[strings.ToLower(name)] = true
		names = append(names, name)
	}

	return names
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}

// CombineWorkbook writes every dataset into its own sheet of a new XLSX file at
// path and returns the sheet names. Each non-empty sheet is registered as an
// Excel table so it loads as a named table.
func CombineWorkbook(datasets []*models.Dataset, path string) ([]string, error) {
	if len(datasets) == 0 {
		return nil, nil
	}

	raw := make([]string, len(datasets))
	for i, ds := range datasets {
		raw[i] = ds.RawName
		if raw[i] == "" {
			raw[i] = ds.Name
		}
	}
	sheets := SheetNames(raw)

	f := excelize.NewFile()
	defer f.Close()

	for i, ds := range datasets {
		sheet := sheets[i]
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, errors.Wrapf(err, "failed to create sheet %s", sheet)
		}
		if err := writeSheet(f, sheet, i+1, ds); err != nil {
			return nil, errors.Wrapf(err, "failed to write sheet %s", sheet)
		}
	}

	if !containsFold(sheets, "Sheet1") {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, err
		}
	}
	if idx, err := f.GetSheetIndex(sheets[0]); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}

	if err := f.SaveAs(path); err != nil {
		return nil, errors.Wrapf(err, "failed to save %s", path)
	}
	return sheets, nil
}

func writeSheet(f *excelize.File, sheet string, n int, ds *models.Dataset) error {
	if len(ds.Columns) == 0 {
		return nil
	}

	header := make([]interface{}, len(ds.Columns))
	for i, c := range ds.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for r, row := range ds.Rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		values := append([]interface{}(nil), row...)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}

	if len(ds.Rows) == 0 {
		return nil
	}

	end, err := excelize.CoordinatesToCellName(len(ds.Columns), len(ds.Rows)+1)
	if err != nil {
		return err
	}
	return f.AddTable(sheet, &excelize.Table{
		Range:     "A1:" + end,
		Name:      fmt.Sprintf("Dataset_%d", n),
		StyleName: "TableStyleMedium2",
	})
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
