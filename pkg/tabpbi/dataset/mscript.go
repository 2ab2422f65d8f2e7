package dataset

import (
	"strings"
)

// mscriptQuery is the Power Query loader for the combined workbook. The user
// sets SelectedSheetName to one of the listed sheets.
const mscriptQuery = `let
    Source_Excel_Dataset = Excel.Workbook(File.Contents("{{path}}"), null, true),

    SelectedSheetName = "",

    SelectedSheets = {{{sheets}}},
    FilteredSheets = Table.SelectRows(Source_Excel_Dataset, each List.Contains(SelectedSheets, [Name])),

    TargetSheet = Table.SelectRows(FilteredSheets, each [Name] = SelectedSheetName),
    CheckSheet = if Table.IsEmpty(TargetSheet) then
        error Error.Record(
            "Sheet not found",
            "Available sheets: " & Text.Combine(FilteredSheets[Name], ", "),
            [RequestedSheet = SelectedSheetName]
        )
    else TargetSheet,

    SheetData = try CheckSheet{0}[Data] otherwise error Error.Record(
        "Data extraction failed",
        "Verify sheet structure",
        [SheetName = SelectedSheetName, AvailableColumns = Table.ColumnNames(CheckSheet)]
    ),

    PromotedHeaders = Table.PromoteHeaders(SheetData, [PromoteAllScalars=true]),

    ColumnsToTransform = Table.ColumnNames(PromotedHeaders),
    ChangedTypes = Table.TransformColumnTypes(
        PromotedHeaders,
        List.Transform(
            ColumnsToTransform,
            each {_,
                let
                    SampleValue = List.First(Table.Column(PromotedHeaders, _), null),
                    TypeDetect =
                        if SampleValue = null then type text
                        else if Value.Is(SampleValue, Number.Type) then
                            if Number.Round(SampleValue) = SampleValue then Int64.Type else type number
                        else if try Date.From(SampleValue) is date then type date
                        else if try DateTime.From(SampleValue) is datetime then type datetime
                        else type text
                in
                    TypeDetect
            }
        )
    ),

    CleanedData = Table.SelectRows(ChangedTypes, each not List.Contains(Record.FieldValues(_), null)),
    FinalTable_Excel_Dataset = Table.Distinct(CleanedData)
in
    FinalTable_Excel_Dataset
`

// MScript returns a Power Query M script loading one sheet of the combined
// workbook at excelPath.
func MScript(excelPath string, sheets []string) string {
	if len(sheets) == 0 {
		return "// Error: No sheets found.\n"
	}

	quoted := make([]string, len(sheets))
	for i, s := range sheets {
		quoted[i] = `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}

	return strings.NewReplacer(
		"{{path}}", strings.ReplaceAll(excelPath, `"`, `""`),
		"{{{sheets}}}", "{"+strings.Join(quoted, ", ")+"}",
	).Replace(mscriptQuery)
}
