package tabpbi

import (
	"context"

	"github.com/pkg/errors"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/dataset"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/llm"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/resolve"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/synth"
	"go.uber.org/zap"
)

// Services are the external services used during generation. Any may be nil.
type Services struct {
	Drafter   synth.Drafter
	Validator synth.Validator
	Titles    synth.TitleSuggester
	Suggester resolve.Suggester
}

// Pipeline runs the conversion stages over one configuration.
type Pipeline struct {
	cfg      Config
	opts     Options
	logger   *zap.Logger
	provider dataset.Provider
	services Services
}

// NewPipeline validates cfg and returns a Pipeline. The language model client
// is built when cfg enables it and an API key is configured. logger may be nil.
func NewPipeline(cfg Config, logger *zap.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Pipeline{
		cfg:      cfg,
		opts:     opts,
		logger:   logger,
		provider: dataset.FileProvider{},
	}

	if opts.ShouldUseLLM(cfg.LLM.APIKey != "") {
		client, err := llm.New(cfg.LLM, logger.Named("llm"))
		if err != nil {
			return nil, errors.Wrap(err, "failed to create language model client")
		}
		p.services = Services{Drafter: client, Validator: client, Titles: client, Suggester: client}
	} else {
		logger.Info("Language model services disabled, box-and-whisker visuals are built directly")
	}

	return p, nil
}

// WithServices replaces the external services.
func (p *Pipeline) WithServices(s Services) *Pipeline {
	p.services = s
	return p
}

// WithProvider replaces the dataset provider.
func (p *Pipeline) WithProvider(provider dataset.Provider) *Pipeline {
	p.provider = provider
	return p
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Options returns the effective conversion options.
func (p *Pipeline) Options() Options {
	return p.opts
}

// Run extracts the workbook and generates its visuals.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if _, err := p.Extract(); err != nil {
		return nil, err
	}
	return p.Generate(ctx)
}
