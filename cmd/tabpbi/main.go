// Package main provides the CLI entry point for tabpbi-go.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/logging"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/output"
	"go.uber.org/zap"
)

var (
	configPath    string
	outputDir     string
	csvDir        string
	mergeRule     string
	positionMatch string
	stylePath     string
	maxAttempts   int
	logLevel      string
	logFormat     string
	pretty        bool
	noLLM         bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tabpbi",
		Short: "Convert Tableau workbooks into Power BI visuals",
		Long: `tabpbi-go extracts box-and-whisker and bullet charts from Tableau
workbooks (.twb, .twbx) and generates Power BI visual configurations.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "Config file (YAML)")
	flags.StringVarP(&outputDir, "output-dir", "o", "", "Directory for artifacts and visuals")
	flags.StringVar(&csvDir, "csv-dir", "", "Directory holding the CSV and XLSX datasets")
	flags.StringVar(&mergeRule, "merge-rule", "", "Duplicate chart merge rule: first-wins, collect")
	flags.StringVar(&positionMatch, "position-match", "", "Placement of unmatched charts: name, index")
	flags.StringVar(&stylePath, "style", "", "Reference document holding the bullet style sample")
	flags.IntVar(&maxAttempts, "max-attempts", 0, "Drafting attempts per box-and-whisker chart")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&logFormat, "log-format", "", "Log format: console, json")
	flags.BoolVar(&pretty, "pretty", true, "Pretty-print JSON artifacts")
	flags.BoolVar(&noLLM, "no-llm", false, "Disable the language model services")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "extract [input.twb|input.twbx]",
			Short: "Extract chart metadata, positions and datasource details",
			Args:  cobra.ExactArgs(1),
			RunE:  runExtract,
		},
		&cobra.Command{
			Use:   "datasets",
			Short: "Combine datasets into one workbook and write its Power Query script",
			Args:  cobra.NoArgs,
			RunE:  runDatasets,
		},
		&cobra.Command{
			Use:   "generate",
			Short: "Generate visuals from extracted artifacts",
			Args:  cobra.NoArgs,
			RunE:  runGenerate,
		},
		&cobra.Command{
			Use:   "run [input.twb|input.twbx]",
			Short: "Extract a workbook and generate its visuals",
			Args:  cobra.ExactArgs(1),
			RunE:  runAll,
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// loadConfig reads the configuration and applies the flags set on cmd.
func loadConfig(cmd *cobra.Command, args []string) (tabpbi.Config, error) {
	cfg, err := tabpbi.LoadConfig(configPath)
	if err != nil {
		return cfg, err
	}

	if len(args) > 0 {
		cfg.Workbook = args[0]
	}

	// Apply flag overrides
	flags := cmd.Flags()
	if flags.Changed("output-dir") {
		cfg.OutputDir = outputDir
	}
	if flags.Changed("csv-dir") {
		cfg.CSVDir = csvDir
	}
	if flags.Changed("merge-rule") {
		cfg.MergeRule = mergeRule
	}
	if flags.Changed("position-match") {
		cfg.PositionMatch = positionMatch
	}
	if flags.Changed("style") {
		cfg.StylePath = stylePath
	}
	if flags.Changed("max-attempts") {
		cfg.MaxAttempts = maxAttempts
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = logFormat
	}
	if flags.Changed("pretty") {
		cfg.Pretty = pretty
	}
	if noLLM {
		cfg.UseLLM = false
	}

	return cfg, nil
}

// newPipeline builds the pipeline and its logger for cmd.
func newPipeline(cmd *cobra.Command, args []string) (*tabpbi.Pipeline, *zap.Logger, error) {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	p, err := tabpbi.NewPipeline(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	return p, logger, nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	p, logger, err := newPipeline(cmd, args)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ext, err := p.Extract()
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d charts and %d positions to %s\n",
		len(ext.Charts), len(ext.Positions), p.Config().OutputDir)
	return nil
}

func runDatasets(cmd *cobra.Command, args []string) error {
	p, logger, err := newPipeline(cmd, args)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	export, err := p.ExportDatasets()
	if err != nil {
		return fmt.Errorf("dataset export failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Combined %d datasets into %s\nPower Query script: %s\n",
		len(export.Sheets), export.Workbook, export.Script)
	return nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	p, logger, err := newPipeline(cmd, args)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	result, err := p.Generate(cmd.Context())
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}
	return printResult(cmd, p, result)
}

func runAll(cmd *cobra.Command, args []string) error {
	p, logger, err := newPipeline(cmd, args)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	result, err := p.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}
	return printResult(cmd, p, result)
}

func printResult(cmd *cobra.Command, p *tabpbi.Pipeline, result *tabpbi.Result) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %d visuals to %s\n", len(result.Visuals),
		filepath.Join(p.Config().OutputDir, output.VisualsFile))
	for _, d := range result.Diagnostics {
		fmt.Fprintf(out, "  skipped %q (%s): %s\n", d.Worksheet, d.Stage, d.Reason)
	}
	return nil
}
