package commands

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/de-tools/statement-atlas/pkg/models/domain"
	"github.com/de-tools/statement-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/statement-atlas/pkg/services/pipeline"
)

type ExtractCmd struct {
	urls     []string
	output   string
	markdown string
	tmpDir   string
	scale    string
	cfgPath  string
	verbose  bool
	reporter *export.Reporter
}

func NewExtractCmd(reporter *export.Reporter) *cobra.Command {
	ec := &ExtractCmd{reporter: reporter}
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Download filings and extract balance sheet line items",
		RunE:  ec.run,
	}

	cmd.Flags().StringArrayVar(&ec.urls, "url", nil, "Filing URL, repeatable")
	cmd.Flags().StringVar(&ec.output, "output", "", "Path for the output CSV")
	cmd.Flags().StringVar(&ec.markdown, "markdown", "", "Path for an optional Markdown report")
	cmd.Flags().StringVar(&ec.tmpDir, "tmp-dir", "", "Directory for downloaded PDFs (default: a temp dir)")
	cmd.Flags().StringVar(&ec.scale, "scale", "", "Convert amounts to this scale (units, thousands, millions, billions)")
	cmd.Flags().StringVarP(&ec.cfgPath, "config", "c", "", "Path to an optional config file")
	cmd.Flags().BoolVarP(&ec.verbose, "verbose", "v", false, "Enable debug logging")

	_ = cmd.MarkFlagRequired("url")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func (ec *ExtractCmd) run(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
	}

	level := zerolog.InfoLevel
	if ec.verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	settings := pipeline.DefaultSettings()
	if ec.cfgPath != "" {
		if err := applyConfig(ec.cfgPath, &settings); err != nil {
			return err
		}
	}
	settings.TmpDir = ec.tmpDir
	settings.OutputCSV = ec.output
	settings.OutputMarkdown = ec.markdown

	if ec.scale != "" {
		scale, ok := domain.ParseScale(ec.scale)
		if !ok {
			return fmt.Errorf("unknown scale %q", ec.scale)
		}
		settings.Normalize.OutputScale = scale
	}

	runner := pipeline.NewRunner(settings)
	statuses, err := runner.Run(ctx, ec.urls)
	if err != nil {
		return err
	}

	for _, st := range statuses {
		for _, w := range st.Warnings {
			fmt.Fprintf(os.Stderr, "warning [%s]: %s\n", st.URL, w)
		}
	}
	if err := ec.reporter.Handle(statuses); err != nil {
		return err
	}

	failed := 0
	for _, st := range statuses {
		if st.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d urls failed", failed, len(statuses))
	}
	return nil
}

// applyConfig overlays pipeline settings from a viper-readable file.
func applyConfig(path string, settings *pipeline.Settings) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if v.IsSet("fetch.max_retries") {
		settings.Fetch.MaxRetries = v.GetInt("fetch.max_retries")
	}
	if v.IsSet("fetch.request_timeout") {
		settings.Fetch.RequestTimeout = v.GetDuration("fetch.request_timeout")
	}
	if v.IsSet("score.min_score") {
		settings.Score.MinScore = v.GetFloat64("score.min_score")
	}
	if v.IsSet("normalize.known_labels") {
		settings.Normalize.KnownLabels = v.GetStringSlice("normalize.known_labels")
	}
	if v.IsSet("normalize.scale") {
		scale, ok := domain.ParseScale(v.GetString("normalize.scale"))
		if !ok {
			return fmt.Errorf("unknown scale %q in config", v.GetString("normalize.scale"))
		}
		settings.Normalize.OutputScale = scale
	}
	return nil
}
