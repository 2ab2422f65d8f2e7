package models

// Calculation is a calculated field declared by a datasource.
type Calculation struct {
	// FieldName is the caption (or internal name) of the field.
	FieldName string `json:"field_name"`
	// Formula is the calculation formula.
	Formula string `json:"formula,omitempty"`
	// DataSource is the dataset the field belongs to.
	DataSource string `json:"data_source"`
}

// CalculationUsage records a worksheet referencing a calculated field.
type CalculationUsage struct {
	Worksheet   string `json:"worksheet"`
	Calculation string `json:"calculation"`
	FieldName   string `json:"field_name"`
	DataSource  string `json:"data_source"`
}

// Reference describes an external data connection of a datasource.
type Reference struct {
	DataSource        string `json:"Data Source"`
	ConnectionType    string `json:"Connection Type"`
	DatabaseName      string `json:"Database Name"`
	ExternalReference string `json:"External Reference"`
}

// VisualSummary summarizes a worksheet or dashboard.
type VisualSummary struct {
	// Type is "Worksheet" or "Dashboard".
	Type       string `json:"Type"`
	Source     string `json:"Source"`
	Worksheets string `json:"Worksheets,omitempty"`
	Rows       string `json:"Rows"`
	Columns    string `json:"Columns"`
	Filters    string `json:"Filters"`
}

// CSVPreview holds the first rows of a payload CSV.
type CSVPreview struct {
	File    string                   `json:"file"`
	Preview []map[string]interface{} `json:"preview,omitempty"`
	Error   string                   `json:"error,omitempty"`
}

// DataSource describes a workbook datasource.
type DataSource struct {
	// Name is the internal datasource id (e.g. "federated.0a1b2c").
	Name string `json:"name"`
	// Caption is the display caption.
	Caption string `json:"caption,omitempty"`
	// Tables lists relation table names.
	Tables []string `json:"tables,omitempty"`
	// Files lists connection file stems (extract or csv names).
	Files []string `json:"files,omitempty"`
}

// TableNames returns every conceptual table name the datasource can be matched by.
func (d DataSource) TableNames() []string {
	var names []string
	if d.Caption != "" {
		names = append(names, d.Caption)
	}
	names = append(names, d.Tables...)
	names = append(names, d.Files...)
	if d.Name != "" {
		names = append(names, d.Name)
	}
	return names
}

// ExtractedData is the combined extraction document of a workbook.
type ExtractedData struct {
	BookName     string                 `json:"book_name"`
	Calculations map[string]Calculation `json:"calculations"`
	Usage        []CalculationUsage     `json:"usage"`
	References   []Reference            `json:"references"`
	Visuals      []VisualSummary        `json:"visuals"`
	DataSources  []DataSource           `json:"datasources"`
	CSVFiles     []string               `json:"csv_files"`
	HyperFiles   []string               `json:"hyper_files"`
	CSVPreview   []CSVPreview           `json:"csv_preview"`
}

// Extraction is the structural extraction result of a workbook.
type Extraction struct {
	// Charts holds the merged chart records.
	Charts []ChartRecord `json:"charts"`
	// Positions holds the deduplicated zone placements.
	Positions []PositionRecord `json:"positions"`
	// Data is the combined extraction document.
	Data ExtractedData `json:"data"`
}
