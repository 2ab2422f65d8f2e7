package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"text/template"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/models"
	"go.uber.org/zap"
)

var (
	// ErrDecode indicates a drafted configuration is not a decodable visual.
	ErrDecode = errors.New("invalid visual configuration")
	// ErrRejected indicates the validator rejected a draft without a correction.
	ErrRejected = errors.New("draft rejected by validator")
)

var fencePattern = regexp.MustCompile("(?s)```(?:json)?[ \t]*\r?\n(.*?)\r?\n?```")

var boxPrompt = template.Must(template.New("box").Parse(`Create a Power BI Box-and-Whisker chart visual configuration in valid JSON format.

Inputs:
- Dataset name: '{{.Dataset}}'
- xCategoryParent: '{{.Axis}}'
{{- if .Legend}}
- category: '{{.Legend}}'
{{- end}}
- measure: '{{.Measure}}'
- Position: x={{.X}}, y={{.Y}}, z={{.Z}}
- Size: width={{.Width}}, height={{.Height}}
- Visual Name: {{.Name}}
- Chart Type: {{.VisualType}}

Important: use '{{.Dataset}}' as the entity name in the JSON configuration.

Here is an example of the expected JSON structure:
` + "```json" + `
{{.Example}}
` + "```" + `

Please generate a similar JSON object based on the provided inputs.
Ensure all property names are enclosed in double quotes and the JSON is valid.
Return the JSON configuration inside a code block:
` + "```json" + `
{ ... }
` + "```" + `
`))

// BoxPrompt returns the drafting prompt of a box-and-whisker visual. example
// is the directly built configuration the draft should resemble.
func BoxPrompt(b *models.ResolvedBinding, example *models.VisualConfig) (string, error) {
	data, err := json.MarshalIndent(example, "", "  ")
	if err != nil {
		return "", err
	}
	pos := example.Layouts[0].Position

	vars := map[string]interface{}{
		"Dataset":    b.Dataset,
		"Axis":       b.ColumnRef(b.Category),
		"Legend":     "",
		"Measure":    b.Measures[0].QueryRef,
		"X":          pos.X,
		"Y":          pos.Y,
		"Z":          pos.Z,
		"Width":      pos.Width,
		"Height":     pos.Height,
		"Name":       example.Name,
		"VisualType": example.SingleVisual.VisualType,
		"Example":    string(data),
	}
	if b.Legend != "" {
		vars["Legend"] = b.ColumnRef(b.Legend)
	}

	var buf bytes.Buffer
	if err := boxPrompt.Execute(&buf, vars); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ExtractJSON returns the body of the first fenced code block in reply, or the
// trimmed reply when it has none.
func ExtractJSON(reply string) string {
	if m := fencePattern.FindStringSubmatch(reply); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(reply)
}

// Verdict decides on a draft given the validator's reply. A fenced JSON block
// in the verdict is taken as a correction. Otherwise the draft is accepted
// when the verdict calls it valid.
func Verdict(candidate, verdict string) (string, bool) {
	if m := fencePattern.FindStringSubmatch(verdict); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	lower := strings.ToLower(verdict)
	if strings.Contains(lower, "invalid") || strings.Contains(lower, "not valid") || !strings.Contains(lower, "valid") {
		return "", false
	}
	return candidate, true
}

// DecodeVisual parses a drafted configuration. It must be a single object with
// name, layouts and singleVisual keys and no nested config wrapper.
func DecodeVisual(text string) (*models.VisualConfig, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &keys); err != nil {
		return nil, errors.Wrap(ErrDecode, err.Error())
	}
	if _, ok := keys["config"]; ok {
		return nil, errors.Wrap(ErrDecode, "nested config key")
	}
	for _, k := range []string{"name", "layouts", "singleVisual"} {
		if _, ok := keys[k]; !ok {
			return nil, errors.Wrapf(ErrDecode, "missing %q", k)
		}
	}

	var v models.VisualConfig
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, errors.Wrap(ErrDecode, err.Error())
	}
	if v.SingleVisual.VisualType == "" {
		return nil, errors.Wrap(ErrDecode, "missing visualType")
	}
	return &v, nil
}

// draft runs the draft-then-validate loop for a box-and-whisker visual. The
// accepted draft keeps its formatting objects; name, placement, visual type
// and the data binding are always the ones assigned here.
func (s *Synthesizer) draft(ctx context.Context, b *models.ResolvedBinding, name string, pos models.PositionRecord, z int, title string, logger *zap.Logger) (*models.VisualConfig, error) {
	example := Build(b, name, pos, z, title)
	prompt, err := BoxPrompt(b, example)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build prompt")
	}

	var result *models.VisualConfig
	attempt := 0
	op := func() error {
		attempt++
		log := logger.With(zap.Int("attempt", attempt))

		reply, err := s.cfg.Drafter.Draft(ctx, prompt)
		if err != nil {
			log.Warn("Draft request failed", zap.Error(err))
			return err
		}
		candidate := ExtractJSON(reply)

		verdict := "Valid"
		if s.cfg.Validator != nil {
			verdict, err = s.cfg.Validator.Validate(ctx, candidate)
			if err != nil {
				log.Warn("Validation request failed", zap.Error(err))
				return err
			}
		}

		chosen, ok := Verdict(candidate, verdict)
		if !ok {
			log.Info("Draft rejected", zap.String("verdict", verdict))
			return ErrRejected
		}

		v, err := DecodeVisual(chosen)
		if err != nil {
			log.Info("Draft could not be decoded", zap.Error(err))
			return err
		}
		if err := checkBinding(v, b); err != nil {
			log.Info("Draft does not match the binding", zap.Error(err))
			return err
		}
		result = v
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, uint64(s.cfg.MaxAttempts-1)), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, errors.Wrapf(err, "no valid draft after %d attempts", attempt)
	}

	result.Name = name
	result.Layouts = example.Layouts
	result.SingleVisual.VisualType = example.SingleVisual.VisualType
	result.SingleVisual.Projections = example.SingleVisual.Projections
	result.SingleVisual.PrototypeQuery = example.SingleVisual.PrototypeQuery
	return result, nil
}

// checkBinding rejects drafts that query another entity or project fields
// outside the resolved binding.
func checkBinding(v *models.VisualConfig, b *models.ResolvedBinding) error {
	for _, src := range v.SingleVisual.PrototypeQuery.From {
		if src.Entity != b.Dataset {
			return errors.Wrapf(ErrDecode, "unknown entity %q", src.Entity)
		}
	}

	allowed := make(map[string]bool)
	for _, refs := range BuildProjections(b) {
		for _, ref := range refs {
			allowed[ref.QueryRef] = true
		}
	}
	for role, refs := range v.SingleVisual.Projections {
		for _, ref := range refs {
			if !allowed[ref.QueryRef] {
				return errors.Wrapf(ErrDecode, "unknown %s projection %q", role, ref.QueryRef)
			}
		}
	}
	return nil
}
