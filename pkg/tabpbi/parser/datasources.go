package parser

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/models"
)

// calculationMarker identifies generated calculated-field names.
const calculationMarker = "calculation"

// ExtractData builds the workbook part of the combined extraction document.
// Payload file lists and previews are filled in by the caller.
func ExtractData(doc *Document) models.ExtractedData {
	refs, stems := ExtractReferences(doc)
	calcs, usage := ExtractCalculations(doc, stems)

	return models.ExtractedData{
		Calculations: calcs,
		Usage:        usage,
		References:   refs,
		Visuals:      ExtractVisuals(doc),
		DataSources:  ExtractDataSources(doc),
		CSVFiles:     []string{},
		HyperFiles:   []string{},
		CSVPreview:   []models.CSVPreview{},
	}
}

// ExtractReferences returns the file-backed connections of every datasource and
// a map from datasource id to the connection file stem.
func ExtractReferences(doc *Document) ([]models.Reference, map[string]string) {
	refs := []models.Reference{}
	stems := make(map[string]string)

	for _, ds := range doc.FindAll(doc.Root, "datasource") {
		name := ds.Get("name")
		caption := ds.Get("caption")
		if caption == "" {
			caption = name
		}

		for _, conn := range doc.FindAll(ds, "connection") {
			file := conn.Get("filename")
			if file == "" {
				continue
			}
			stems[name] = fileStem(file)

			db := conn.Get("dbname")
			if db == "" {
				db = conn.Get("server")
			}
			if db == "" {
				db = "N/A"
			}
			refs = append(refs, models.Reference{
				DataSource:        caption,
				ConnectionType:    conn.Get("class"),
				DatabaseName:      db,
				ExternalReference: file,
			})
		}
	}

	return refs, stems
}

// ExtractCalculations returns the calculated fields declared by datasources,
// keyed by generated field name, and the worksheets referencing them.
func ExtractCalculations(doc *Document, stems map[string]string) (map[string]models.Calculation, []models.CalculationUsage) {
	calcs := make(map[string]models.Calculation)

	for _, ds := range doc.FindAll(doc.Root, "datasource") {
		dsName := ds.Get("name")
		source := dsName
		if stem, ok := stems[dsName]; ok {
			source = stem
		}

		for _, col := range doc.FindAll(ds, "column") {
			name := col.Get("name")
			if !strings.Contains(strings.ToLower(name), calculationMarker) {
				continue
			}

			field := col.Get("caption")
			if field == "" {
				field = name
			}
			var formula string
			if calc := doc.FindDescendant(col, "calculation"); calc != nil {
				formula = calc.Get("formula")
			}
			if _, seen := calcs[name]; seen && formula == "" {
				continue
			}
			calcs[name] = models.Calculation{FieldName: field, Formula: formula, DataSource: source}
		}
	}

	usage := []models.CalculationUsage{}
	for _, ws := range doc.FindAll(doc.Root, "worksheet") {
		wsName := ws.Get("name")
		seen := make(map[string]bool)
		for _, col := range doc.FindAll(ws, "column") {
			name := col.Get("name")
			calc, ok := calcs[name]
			if !ok || seen[name] {
				continue
			}
			seen[name] = true
			usage = append(usage, models.CalculationUsage{
				Worksheet:   wsName,
				Calculation: name,
				FieldName:   calc.FieldName,
				DataSource:  calc.DataSource,
			})
		}
	}

	return calcs, usage
}

// ExtractVisuals summarizes every worksheet and dashboard.
func ExtractVisuals(doc *Document) []models.VisualSummary {
	visuals := []models.VisualSummary{}

	for _, ws := range doc.FindAll(doc.Root, "worksheet") {
		var rows, cols, filters []string
		for _, r := range doc.FindAll(ws, "rows") {
			if t := strings.TrimSpace(r.Text); t != "" {
				rows = append(rows, t)
			}
		}
		for _, c := range doc.FindAll(ws, "cols") {
			if t := strings.TrimSpace(c.Text); t != "" {
				cols = unionStrings(cols, []string{t})
			}
		}
		for _, f := range doc.FindAll(ws, "filter") {
			if col := f.Get("column"); col != "" {
				filters = append(filters, col)
			}
		}
		for _, pane := range doc.FindAll(ws, "pane") {
			enc := doc.FindDescendant(pane, "encodings")
			if enc == nil {
				continue
			}
			for _, e := range enc.Children {
				if col := e.Get("column"); col != "" {
					cols = unionStrings(cols, []string{col})
				}
			}
		}

		visuals = append(visuals, models.VisualSummary{
			Type:    "Worksheet",
			Source:  ws.Get("name"),
			Rows:    strings.Join(rows, ", "),
			Columns: strings.Join(cols, ", "),
			Filters: strings.Join(filters, ", "),
		})
	}

	for _, dashboard := range doc.FindAll(doc.Root, "dashboard") {
		visuals = append(visuals, models.VisualSummary{
			Type:       "Dashboard",
			Source:     dashboard.Get("name"),
			Worksheets: strings.Join(DashboardWorksheets(doc, dashboard), ", "),
		})
	}

	return visuals
}

// ExtractDataSources returns one entry per datasource id with every table name
// it can be matched by. Datasource references inside worksheets are folded
// into the declaring entry.
func ExtractDataSources(doc *Document) []models.DataSource {
	index := make(map[string]int)
	var sources []models.DataSource

	for _, ds := range doc.FindAll(doc.Root, "datasource") {
		name := ds.Get("name")
		if name == "" {
			continue
		}

		i, ok := index[name]
		if !ok {
			i = len(sources)
			index[name] = i
			sources = append(sources, models.DataSource{Name: name})
		}
		src := &sources[i]

		if src.Caption == "" {
			src.Caption = ds.Get("caption")
		}
		for _, rel := range doc.FindAllFunc(ds, isRelation) {
			src.Tables = unionStrings(src.Tables, []string{relationTable(rel)})
		}
		for _, conn := range doc.FindAll(ds, "connection") {
			if file := conn.Get("filename"); file != "" {
				src.Files = unionStrings(src.Files, []string{fileStem(file)})
			}
			if db := conn.Get("dbname"); strings.HasSuffix(strings.ToLower(db), ".hyper") {
				src.Files = unionStrings(src.Files, []string{fileStem(db)})
			}
		}
	}

	return sources
}

// isRelation matches plain and object-model encapsulated relation elements.
func isRelation(local string) bool {
	return local == "relation" || strings.HasSuffix(local, ".relation") || local == "relation-table"
}

// relationTable returns the table name of a relation element.
// "[Extract].[Orders$]" and "[Orders$]" both yield "Orders".
func relationTable(rel *Element) string {
	if name := rel.Get("name"); name != "" {
		return strings.TrimSuffix(name, "$")
	}
	table := rel.Get("table")
	if idx := strings.LastIndex(table, federatedSeparator); idx >= 0 {
		table = table[idx+len(federatedSeparator):]
	}
	return strings.TrimSuffix(strings.Trim(table, "[]"), "$")
}

// fileStem returns the file name without directory and extension.
// Both slash styles are accepted since workbooks authored on Windows keep
// backslash paths.
func fileStem(file string) string {
	base := path.Base(strings.ReplaceAll(file, `\`, "/"))
	return strings.TrimSuffix(base, filepath.Ext(base))
}
