package models

// Dataset represents a loaded tabular dataset.
type Dataset struct {
	// Name is the cleaned dataset name used as the visual entity.
	Name string `json:"name"`
	// RawName is the file-derived name before cleaning.
	RawName string `json:"raw_name,omitempty"`
	// Path is the file the dataset was loaded from.
	Path string `json:"path,omitempty"`
	// Columns holds column names in file order.
	Columns []string `json:"columns"`
	// Rows holds typed values (int64, float64, string or nil) aligned to Columns.
	Rows [][]interface{} `json:"rows,omitempty"`
}

// HasColumn reports whether the dataset has a column named name.
func (d *Dataset) HasColumn(name string) bool {
	return d.ColumnIndex(name) >= 0
}

// ColumnIndex returns the index of the named column or -1.
func (d *Dataset) ColumnIndex(name string) int {
	for i, c := range d.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Head returns up to n rows as column-keyed records.
func (d *Dataset) Head(n int) []map[string]interface{} {
	if n > len(d.Rows) {
		n = len(d.Rows)
	}
	out := make([]map[string]interface{}, 0, n)
	for _, row := range d.Rows[:n] {
		rec := make(map[string]interface{}, len(d.Columns))
		for i, c := range d.Columns {
			if i < len(row) {
				rec[c] = row[i]
			} else {
				rec[c] = nil
			}
		}
		out = append(out, rec)
	}
	return out
}
