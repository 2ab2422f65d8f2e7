package tabpbi

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/llm"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/logging"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/parser"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/synth"
)

// EnvPrefix prefixes every environment variable read by LoadConfig.
const EnvPrefix = "TABPBI"

// ErrInvalidConfig indicates a configuration value out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// CanvasConfig sizes the source and destination coordinate spaces.
type CanvasConfig struct {
	SourceWidth  float64 `mapstructure:"source_width"`
	SourceHeight float64 `mapstructure:"source_height"`
	DestWidth    float64 `mapstructure:"dest_width"`
	DestHeight   float64 `mapstructure:"dest_height"`
}

// Config is the complete pipeline configuration.
type Config struct {
	// Workbook is the .twb or .twbx file to convert.
	Workbook string `mapstructure:"workbook"`
	// CSVDir holds the CSV and XLSX datasets bound by the visuals.
	CSVDir string `mapstructure:"csv_dir"`
	// OutputDir receives every artifact.
	OutputDir string `mapstructure:"output_dir"`

	MergeRule     string       `mapstructure:"merge_rule"`
	PositionMatch string       `mapstructure:"position_match"`
	Canvas        CanvasConfig `mapstructure:"canvas"`
	MaxAttempts   int          `mapstructure:"max_attempts"`
	Pretty        bool         `mapstructure:"pretty"`
	// UseLLM disables the language model services when false.
	UseLLM bool `mapstructure:"use_llm"`

	// StylePath is the reference document holding the bullet style sample.
	StylePath   string `mapstructure:"style_path"`
	StyleMarker string `mapstructure:"style_marker"`

	LLM llm.Config     `mapstructure:"llm"`
	Log logging.Config `mapstructure:"log"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	canvas := parser.DefaultCanvas()
	return Config{
		CSVDir:        "csv_output",
		OutputDir:     "output",
		MergeRule:     string(parser.MergeCollect),
		PositionMatch: string(synth.MatchName),
		Canvas: CanvasConfig{
			SourceWidth:  canvas.SourceWidth,
			SourceHeight: canvas.SourceHeight,
			DestWidth:    canvas.DestWidth,
			DestHeight:   canvas.DestHeight,
		},
		MaxAttempts: synth.DefaultMaxAttempts,
		Pretty:      true,
		UseLLM:      true,
		StyleMarker: synth.DefaultStyleMarker,
		LLM: llm.Config{
			Model:   llm.DefaultModel,
			Timeout: 60 * time.Second,
		},
		Log: logging.Config{
			Level:  "info",
			Format: logging.FormatConsole,
		},
	}
}

// LoadConfig reads the configuration from defaults, the optional YAML file at
// path and TABPBI_* environment variables, in increasing precedence. A .env
// file in the working directory is loaded into the environment first.
func LoadConfig(path string) (Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return Config{}, errors.Wrap(err, "failed to load .env")
		}
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "failed to read config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode config")
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return cfg, nil
}

// Every key needs a default so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("workbook", d.Workbook)
	v.SetDefault("csv_dir", d.CSVDir)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("merge_rule", d.MergeRule)
	v.SetDefault("position_match", d.PositionMatch)
	v.SetDefault("canvas.source_width", d.Canvas.SourceWidth)
	v.SetDefault("canvas.source_height", d.Canvas.SourceHeight)
	v.SetDefault("canvas.dest_width", d.Canvas.DestWidth)
	v.SetDefault("canvas.dest_height", d.Canvas.DestHeight)
	v.SetDefault("max_attempts", d.MaxAttempts)
	v.SetDefault("pretty", d.Pretty)
	v.SetDefault("use_llm", d.UseLLM)
	v.SetDefault("style_path", d.StylePath)
	v.SetDefault("style_marker", d.StyleMarker)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.timeout", d.LLM.Timeout)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.no_color", d.Log.NoColor)
}

// Options converts the configuration into conversion options.
func (c Config) Options() (Options, error) {
	rule, err := parser.ParseMergeRule(c.MergeRule)
	if err != nil {
		return Options{}, errors.Wrap(ErrInvalidConfig, err.Error())
	}
	match, err := synth.ParsePositionMatch(c.PositionMatch)
	if err != nil {
		return Options{}, errors.Wrap(ErrInvalidConfig, err.Error())
	}
	useLLM := c.UseLLM

	return Options{
		MergeRule:     rule,
		PositionMatch: match,
		Canvas: parser.Canvas{
			SourceWidth:  c.Canvas.SourceWidth,
			SourceHeight: c.Canvas.SourceHeight,
			DestWidth:    c.Canvas.DestWidth,
			DestHeight:   c.Canvas.DestHeight,
		},
		MaxAttempts: c.MaxAttempts,
		Pretty:      c.Pretty,
		UseLLM:      &useLLM,
	}, nil
}

// Validate reports the first invalid configuration value.
func (c Config) Validate() error {
	if _, err := c.Options(); err != nil {
		return err
	}
	if c.Canvas.SourceWidth <= 0 || c.Canvas.SourceHeight <= 0 {
		return errors.Wrap(ErrInvalidConfig, "canvas source dimensions must be positive")
	}
	if c.Canvas.DestWidth <= 0 || c.Canvas.DestHeight <= 0 {
		return errors.Wrap(ErrInvalidConfig, "canvas destination dimensions must be positive")
	}
	if c.MaxAttempts <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "max attempts must be positive, got %d", c.MaxAttempts)
	}
	if c.OutputDir == "" {
		return errors.Wrap(ErrInvalidConfig, "output directory is required")
	}
	return nil
}
