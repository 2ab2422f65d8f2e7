package synth

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/models"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/resolve"
	"go.uber.org/zap"
)

// DefaultMaxAttempts caps the drafting attempts per chart.
const DefaultMaxAttempts = 3

// ErrIncompleteBinding indicates a binding lacks a category or enough measures.
var ErrIncompleteBinding = errors.New("incomplete binding")

// Drafter drafts a visual configuration from a prompt.
type Drafter interface {
	Draft(ctx context.Context, prompt string) (string, error)
}

// Validator returns a verdict on a drafted configuration.
type Validator interface {
	Validate(ctx context.Context, candidate string) (string, error)
}

// TitleSuggester proposes a display title for a chart.
type TitleSuggester interface {
	SuggestTitle(ctx context.Context, category string, measures []string, dataset string) (string, error)
}

// Config configures a Synthesizer. Every service is optional.
type Config struct {
	// Positions are the dashboard zones charts are placed in.
	Positions []models.PositionRecord
	// Match selects the fallback when no zone name matches.
	Match PositionMatch
	// Style is merged into bullet visuals when set.
	Style *Style
	// Drafter drafts box-and-whisker visuals; without one they are built directly.
	Drafter Drafter
	// Validator checks drafts; without one every decodable draft is accepted.
	Validator Validator
	// Titles suggests titles; without one the worksheet name is used.
	Titles TitleSuggester
	// MaxAttempts caps drafting attempts (DefaultMaxAttempts when <= 0).
	MaxAttempts int
}

// Synthesizer emits visual configurations in order. It is not safe for
// concurrent use: z-indexes are assigned sequentially.
type Synthesizer struct {
	cfg     Config
	logger  *zap.Logger
	z       int
	newName func() string
}

// New returns a Synthesizer. logger may be nil.
func New(cfg Config, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Match == "" {
		cfg.Match = MatchName
	}
	return &Synthesizer{cfg: cfg, logger: logger, newName: visualName}
}

func visualName() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// Synthesize builds the visual of one resolved binding. index is the chart's
// position in the extracted chart list and drives MatchIndex placement. A
// visual is either returned whole or not at all; z advances only for emitted
// visuals.
func (s *Synthesizer) Synthesize(ctx context.Context, b *models.ResolvedBinding, index int) (*models.VisualConfig, error) {
	if b == nil || b.Category == "" {
		return nil, errors.Wrap(ErrIncompleteBinding, "no category column")
	}
	if need := resolve.MinMeasures(b.ChartType); len(b.Measures) < need {
		return nil, errors.Wrapf(ErrIncompleteBinding, "%d measures, need %d", len(b.Measures), need)
	}

	logger := s.logger.With(zap.String("worksheet", b.Worksheet), zap.String("dataset", b.Dataset))

	title := s.title(ctx, b, logger)
	pos, matched := FindPosition(s.cfg.Positions, b.Worksheet, title, b.ChartType, index, s.cfg.Match)
	if !matched {
		logger.Debug("No zone matched, using default position")
	}

	z := s.z
	name := s.newName()

	var v *models.VisualConfig
	if b.ChartType == models.ChartBoxWhisker && s.cfg.Drafter != nil {
		drafted, err := s.draft(ctx, b, name, pos, z, title, logger)
		if err != nil {
			return nil, err
		}
		v = drafted
	} else {
		v = Build(b, name, pos, z, title)
	}

	if b.ChartType == models.ChartBullet {
		IntegrateStyle(v, s.cfg.Style)
	}

	s.z++
	logger.Info("Synthesized visual",
		zap.String("visual", v.Name),
		zap.String("type", v.SingleVisual.VisualType),
		zap.Int("z", z),
	)
	return v, nil
}

// title returns the suggested title of b, or its worksheet name when the
// suggester is absent, fails or returns nothing.
func (s *Synthesizer) title(ctx context.Context, b *models.ResolvedBinding, logger *zap.Logger) string {
	if s.cfg.Titles == nil {
		return b.Worksheet
	}
	reply, err := s.cfg.Titles.SuggestTitle(ctx, b.Category, b.MeasureRefs(), b.Dataset)
	if err != nil {
		logger.Warn("Title suggestion failed", zap.Error(err))
		return b.Worksheet
	}
	if title := CleanTitle(reply); title != "" {
		return title
	}
	return b.Worksheet
}

// CleanTitle trims whitespace and strips quotes from a suggested title.
func CleanTitle(s string) string {
	s = strings.NewReplacer(`"`, "", "'", "").Replace(s)
	return strings.TrimSpace(s)
}

// Build constructs a visual directly from a binding.
func Build(b *models.ResolvedBinding, name string, pos models.PositionRecord, z int, title string) *models.VisualConfig {
	return &models.VisualConfig{
		Name:    name,
		Layouts: layout(pos, z),
		SingleVisual: models.SingleVisual{
			VisualType:              VisualType(b.ChartType),
			Projections:             BuildProjections(b),
			PrototypeQuery:          BuildQuery(b),
			DrillFilterOtherVisuals: true,
			VCObjects:               models.StyleTree{"title": {TitleEntry(title)}},
		},
	}
}

// TitleEntry returns a vcObjects title entry showing text.
func TitleEntry(text string) models.StyleEntry {
	literal := "'" + strings.ReplaceAll(text, "'", "''") + "'"
	value := rawJSON(map[string]interface{}{
		"expr": map[string]interface{}{
			"Literal": map[string]string{"Value": literal},
		},
	})
	return models.StyleEntry{Properties: map[string]json.RawMessage{"text": value}}
}

// rawJSON encodes v without HTML escaping.
func rawJSON(v interface{}) json.RawMessage {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return json.RawMessage("null")
	}
	return json.RawMessage(bytes.TrimSpace(buf.Bytes()))
}
