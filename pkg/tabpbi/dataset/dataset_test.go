package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/models"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestCleanDatasetName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Orders_3759F66AE19340B5A44DC7B40426AAA0_data", "Orders"},
		{"Sales_Order_3759f66ae19340b5a44dc7b40426aaa0_data", "Sales_Order"},
		{"Orders_data", "Orders_data"},
		{"Orders_3759F66AE19340B5A44DC7B40426AAA_data", "Orders_3759F66AE19340B5A44DC7B40426AAA_data"},
		{" Orders ", "Orders"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, CleanDatasetName(tt.input), "CleanDatasetName(%q)", tt.input)
	}
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "stateprovince", NormalizeName("State/Province"))
	assert.Equal(t, "cafesales", NormalizeName("Café Sales"))
	assert.Equal(t, "orders2024", NormalizeName(" ORDERS_2024 "))
	assert.Equal(t, "", NormalizeName("__"))

	assert.True(t, SameName("Sample - Superstore", "sample_superstore"))
	assert.False(t, SameName("", ""))
	assert.False(t, SameName("Orders", "People"))
}

func TestIsIdentifierColumn(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{"Row ID", true},
		{"Postal Code", true},
		{"Phone", true},
		{"Sales", false},
		{"Sale ID", false},
		{"Product Key Value", false},
		{"Region", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, IsIdentifierColumn(tt.name), "IsIdentifierColumn(%q)", tt.name)
	}
}

func TestCoerceColumn(t *testing.T) {
	assert.Equal(t, []interface{}{int64(1), nil, int64(3)}, coerceColumn("Quantity", []string{"1", "", " 3 "}))
	assert.Equal(t, []interface{}{1.0, 2.5}, coerceColumn("Sales", []string{"1", "2.5"}))
	assert.Equal(t, []interface{}{"1", "x"}, coerceColumn("Sales", []string{"1", "x"}))
	assert.Equal(t, []interface{}{"00501", "10024"}, coerceColumn("Postal Code", []string{"00501", "10024"}))
	assert.Equal(t, []interface{}{nil, nil}, coerceColumn("Empty", []string{"", ""}))
}

func TestFileProviderCSV(t *testing.T) {
	dir := t.TempDir()
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Region,Sales,Row ID\nEast,10.5,1\nWest,3,2\nbad,row,with,extra\nSouth,,3\n")...)
	path := writeFile(t, dir, "Orders_3759F66AE19340B5A44DC7B40426AAA0_data.csv", data)

	ds, err := FileProvider{}.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Orders", ds.Name)
	assert.Equal(t, "Orders_3759F66AE19340B5A44DC7B40426AAA0_data", ds.RawName)
	assert.Equal(t, []string{"Region", "Sales", "Row ID"}, ds.Columns)
	require.Len(t, ds.Rows, 3)
	assert.Equal(t, []interface{}{10.5, 3.0, nil}, columnValues(ds, "Sales"))
	assert.Equal(t, []interface{}{"1", "2", "3"}, columnValues(ds, "Row ID"))
}

func columnValues(ds *models.Dataset, name string) []interface{} {
	idx := ds.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	values := make([]interface{}, 0, len(ds.Rows))
	for _, row := range ds.Rows {
		var v interface{}
		if idx < len(row) {
			v = row[idx]
		}
		values = append(values, v)
	}
	return values
}

func TestFileProviderCSVLatin1(t *testing.T) {
	dir := t.TempDir()
	// "Região" in ISO-8859-1
	data := []byte("Regi\xe3o,Vendas\nNorte,1\n")
	path := writeFile(t, dir, "latin.csv", data)

	ds, err := FileProvider{}.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Região", "Vendas"}, ds.Columns)
	assert.Equal(t, []interface{}{int64(1)}, columnValues(ds, "Vendas"))
}

func TestFileProviderXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	f.SetCellValue(sheet, "B2", "Segment")
	f.SetCellValue(sheet, "C2", "Profit")
	f.SetCellValue(sheet, "B3", "Consumer")
	f.SetCellValue(sheet, "C3", 100)
	f.SetCellValue(sheet, "B4", "Corporate")
	f.SetCellValue(sheet, "C4", 200.5)

	path := filepath.Join(t.TempDir(), "People.xlsx")
	require.NoError(t, f.SaveAs(path))

	ds, err := FileProvider{}.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "People", ds.Name)
	assert.Equal(t, []string{"Segment", "Profit"}, ds.Columns)
	assert.Equal(t, []interface{}{"Consumer", "Corporate"}, columnValues(ds, "Segment"))
	assert.Equal(t, []interface{}{100.0, 200.5}, columnValues(ds, "Profit"))
}

func TestFileProviderUnsupported(t *testing.T) {
	_, err := FileProvider{}.Load("data.parquet")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Orders.csv", []byte("Region,Sales\nEast,1\n"))
	writeFile(t, dir, "Orders_3759F66AE19340B5A44DC7B40426AAA0_data.csv", []byte("Region,Profit\nEast,2\n"))
	writeFile(t, dir, "broken.xlsx", []byte("not a zip"))
	writeFile(t, dir, "notes.txt", []byte("skip"))

	result, err := LoadDir(dir, FileProvider{})
	require.NoError(t, err)

	require.Len(t, result.Datasets, 1)
	assert.Equal(t, []string{"Region", "Sales"}, result.Datasets[0].Columns)
	assert.Equal(t, []string{filepath.Join(dir, "Orders_3759F66AE19340B5A44DC7B40426AAA0_data.csv")}, result.Duplicates)
	assert.Contains(t, result.Failures, filepath.Join(dir, "broken.xlsx"))
	assert.Equal(t, "Orders", result.Datasets[0].Name)
}

func TestFindFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Data", "Extracts"), 0755))
	writeFile(t, root, "Data/Orders.CSV", []byte("a\n"))
	writeFile(t, root, "Data/Extracts/Orders.hyper", []byte("h"))
	writeFile(t, root, "notes.txt", []byte("skip"))

	found, err := FindFiles(root, ExtCSV, ".hyper")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "Data", "Extracts", "Orders.hyper"),
		filepath.Join(root, "Data", "Orders.CSV"),
	}, found)

	_, err = FindFiles(filepath.Join(root, "missing"), ExtCSV)
	assert.Error(t, err)
}

func TestLoadDirMissing(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "missing"), FileProvider{})
	assert.Error(t, err)
}

func TestSheetNames(t *testing.T) {
	names := SheetNames([]string{
		"Orders",
		"orders",
		"a/b:c*d?",
		"A very long dataset name that exceeds the limit",
		"A very long dataset name that exceeds the limit",
	})

	assert.Equal(t, []string{
		"Orders",
		"orders_1",
		"a_b_c_d_",
		"A very long dataset name that e",
		"A very long dataset name that_1",
	}, names)
}

func TestCombineWorkbook(t *testing.T) {
	datasets := []*models.Dataset{
		{Name: "Orders", RawName: "Orders", Columns: []string{"Region", "Sales"}, Rows: [][]interface{}{{"East", int64(10)}, {"West", 2.5}}},
		{Name: "People", RawName: "People", Columns: []string{"Person"}, Rows: nil},
	}

	path := filepath.Join(t.TempDir(), "combined_datasets.xlsx")
	sheets, err := CombineWorkbook(datasets, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Orders", "People"}, sheets)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Orders", "People"}, f.GetSheetList())

	rows, err := f.GetRows("Orders")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Region", "Sales"}, {"East", "10"}, {"West", "2.5"}}, rows)

	tables, err := f.GetTables("Orders")
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "A1:B3", tables[0].Range)
}

func TestMScript(t *testing.T) {
	script := MScript(`C:\out\combined_datasets.xlsx`, []string{"Orders", "People"})
	assert.Contains(t, script, `File.Contents("C:\out\combined_datasets.xlsx")`)
	assert.Contains(t, script, `SelectedSheets = {"Orders", "People"},`)
	assert.Contains(t, script, "CheckSheet{0}[Data]")

	assert.Equal(t, "// Error: No sheets found.\n", MScript("x.xlsx", nil))
}
