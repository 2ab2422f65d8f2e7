// Package output serializes pipeline artifacts.
package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Artifact file names written under the output directory.
const (
	ChartMetadataFile    = "chart_metadata.json"
	ChartPositionsFile   = "chart_positions.json"
	ExtractedDataFile    = "tableau_extracted_data.json"
	VisualsFile          = "visuals_output.json"
	DiagnosticsFile      = "diagnostics.json"
	CombinedWorkbookFile = "combined_datasets.xlsx"
	MScriptFile          = "powerbi_mscript.txt"
)

// ErrMissingArtifact indicates an expected intermediate artifact does not exist.
var ErrMissingArtifact = errors.New("missing artifact")

// ToJSON serializes v. HTML characters are not escaped.
func ToJSON(v interface{}, pretty bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSON serializes v to path, creating parent directories.
func WriteJSON(path string, v interface{}, pretty bool) error {
	data, err := ToJSON(v, pretty)
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s", filepath.Base(path))
	}
	return WriteFile(path, data)
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// ReadJSON decodes the artifact at path into v. A missing file yields
// ErrMissingArtifact.
func ReadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return errors.Wrap(ErrMissingArtifact, path)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "failed to decode %s", path)
	}
	return nil
}
