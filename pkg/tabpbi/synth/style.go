package synth

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/models"
)

// DefaultStyleMarker precedes the bullet style sample in the reference document.
const DefaultStyleMarker = "Bullet Chart  Examples:"

// ErrNoStyleSample indicates the reference document holds no usable style sample.
var ErrNoStyleSample = errors.New("no style sample found")

// Style holds the style trees of a reference visual.
type Style struct {
	Objects        models.StyleTree
	VCObjects      models.StyleTree
	HasDefaultSort *bool
}

// IsEmpty reports whether the style carries nothing to merge.
func (s *Style) IsEmpty() bool {
	return s == nil || (len(s.Objects) == 0 && len(s.VCObjects) == 0 && s.HasDefaultSort == nil)
}

type styleSample struct {
	SingleVisual struct {
		VisualType     string           `json:"visualType"`
		Objects        models.StyleTree `json:"objects"`
		VCObjects      models.StyleTree `json:"vcObjects"`
		HasDefaultSort *bool            `json:"hasDefaultSort"`
	} `json:"singleVisual"`
}

// LoadStyle reads a reference document and extracts its style sample.
func LoadStyle(path, marker string) (*Style, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read style reference")
	}
	return FindStyle(string(data), marker)
}

// FindStyle locates marker in content and extracts the style of the first
// balanced JSON object after it. The object must be a visual wrapper whose
// stringified config is a bar chart with dataPoint objects.
func FindStyle(content, marker string) (*Style, error) {
	if marker == "" {
		marker = DefaultStyleMarker
	}
	idx := strings.Index(content, marker)
	if idx < 0 {
		return nil, errors.Wrapf(ErrNoStyleSample, "marker %q not found", marker)
	}

	raw, ok := FirstJSONObject(content[idx+len(marker):])
	if !ok {
		return nil, errors.Wrap(ErrNoStyleSample, "no JSON object after marker")
	}

	var wrapper struct {
		Config string `json:"config"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil || wrapper.Config == "" {
		return nil, errors.Wrap(ErrNoStyleSample, "object has no config")
	}

	var sample styleSample
	if err := json.Unmarshal([]byte(wrapper.Config), &sample); err != nil {
		return nil, errors.Wrapf(ErrNoStyleSample, "invalid config: %v", err)
	}
	sv := sample.SingleVisual
	if sv.VisualType != VisualBar || len(sv.Objects["dataPoint"]) == 0 {
		return nil, errors.Wrapf(ErrNoStyleSample, "sample is %q without dataPoint", sv.VisualType)
	}

	return &Style{Objects: sv.Objects, VCObjects: sv.VCObjects, HasDefaultSort: sv.HasDefaultSort}, nil
}

// FirstJSONObject returns the first balanced, well-formed JSON object in text.
// Braces inside string literals are ignored.
func FirstJSONObject(text string) ([]byte, bool) {
	start := strings.IndexByte(text, '{')
	for start >= 0 {
		end := balancedEnd(text, start)
		if end < 0 {
			return nil, false
		}
		candidate := []byte(text[start : end+1])
		if json.Valid(candidate) {
			return candidate, true
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			return nil, false
		}
		start += next + 1
	}
	return nil, false
}

// balancedEnd returns the index of the brace closing the one at start, or -1.
func balancedEnd(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// IntegrateStyle merges style into v. Only objects, vcObjects and
// hasDefaultSort change; projections and the query are left untouched.
//
// The sample's selector-less dataPoint entry is kept first, then the i-th
// sample series entry is cloned for the i-th Y measure with its selector
// rewritten to that measure. Measures beyond the sample get no entry. Other
// object keys are copied. vcObjects are copied, keeping the generated title text.
func IntegrateStyle(v *models.VisualConfig, style *Style) {
	if v == nil || style.IsEmpty() {
		return
	}
	sv := &v.SingleVisual

	if style.HasDefaultSort != nil {
		hasSort := *style.HasDefaultSort
		sv.HasDefaultSort = &hasSort
	}

	if sv.Objects == nil {
		sv.Objects = models.StyleTree{}
	}
	var points []models.StyleEntry
	var series []models.StyleEntry
	for _, e := range style.Objects["dataPoint"] {
		switch {
		case e.Selector == nil:
			if len(points) == 0 {
				points = append(points, e.Clone())
			}
		case e.Selector.Metadata != "":
			series = append(series, e)
		}
	}
	for i, ref := range sv.Projections.QueryRefs("Y") {
		if i >= len(series) {
			break
		}
		entry := series[i].Clone()
		entry.Selector.Metadata = ref
		points = append(points, entry)
	}
	if len(points) > 0 {
		sv.Objects["dataPoint"] = points
	}
	for key, entries := range style.Objects.Clone() {
		if key != "dataPoint" {
			sv.Objects[key] = entries
		}
	}

	generated := sv.VCObjects["title"]
	if sv.VCObjects == nil {
		sv.VCObjects = models.StyleTree{}
	}
	for key, entries := range style.VCObjects.Clone() {
		sv.VCObjects[key] = entries
	}
	if len(generated) == 0 {
		return
	}
	title := sv.VCObjects["title"]
	if len(title) == 0 {
		sv.VCObjects["title"] = generated
		return
	}
	if text, ok := generated[0].Properties["text"]; ok {
		if title[0].Properties == nil {
			title[0].Properties = map[string]json.RawMessage{}
		}
		title[0].Properties["text"] = text
	}
}
