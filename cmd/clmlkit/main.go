package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coolbeans/clmlkit/internal/config"
	"github.com/coolbeans/clmlkit/internal/logging"
	"github.com/coolbeans/clmlkit/internal/output"
	"github.com/coolbeans/clmlkit/pkg/clml"
	"github.com/coolbeans/clmlkit/pkg/feed"
	"github.com/coolbeans/clmlkit/pkg/pipeline"
	"github.com/coolbeans/clmlkit/pkg/schema"
	"github.com/coolbeans/clmlkit/pkg/schema/libxml"
	"github.com/coolbeans/clmlkit/pkg/ukleg"
)

var version = "0.1.0"

// errInvalidDocument makes validate exit non-zero after printing its report.
var errInvalidDocument = errors.New("document failed schema validation")

// app holds the components shared by every subcommand.
type app struct {
	config    *config.Config
	logger    *zap.Logger
	client    *ukleg.Client
	validator *schema.Validator
	pipeline  *pipeline.Pipeline
	format    output.Format
	closeFns  []func()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application := &app{}
	rootCmd := &cobra.Command{
		Use:   "clmlkit",
		Short: "Extract structured metadata from UK legislation",
		Long: `clmlkit reads Crown Legislation Markup Language (CLML) documents from
legislation.gov.uk or from disk and produces:
  - Document identity (type, year, number) and descriptive metadata
  - An ordered list of sections, schedules and schedule paragraphs with titles
  - Amendment records from unapplied effects
  - Schema validation reports and PDF, Markdown or HTML summaries`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: application.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) { application.close() },
	}

	rootCmd.PersistentFlags().String("config", "", "Config file (default ./clmlkit.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringP("format", "f", "table", "Output format: table, json, yaml, csv")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable coloured output")

	rootCmd.AddCommand(fetchCmd(application))
	rootCmd.AddCommand(extractCmd(application))
	rootCmd.AddCommand(validateCmd(application))
	rootCmd.AddCommand(feedCmd(application))
	rootCmd.AddCommand(reportCmd(application))
	rootCmd.AddCommand(checkCmd(application))
	rootCmd.AddCommand(watchCmd(application))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errInvalidDocument) {
			output.Error(os.Stderr, err)
		}
		application.close()
		os.Exit(1)
	}
}

func (application *app) setup(cmd *cobra.Command, args []string) error {
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		color.NoColor = true
	}

	formatName, _ := cmd.Flags().GetString("format")
	format, err := output.ParseFormat(formatName)
	if err != nil {
		return err
	}
	application.format = format

	configFile, _ := cmd.Flags().GetString("config")
	loaded, err := config.Load(configFile)
	if err != nil {
		return err
	}
	application.config = loaded

	level := loaded.Log.Level
	if flagLevel, _ := cmd.Flags().GetString("log-level"); flagLevel != "" {
		level = flagLevel
	}
	logger, err := logging.New(level, loaded.Log.Development)
	if err != nil {
		return err
	}
	application.logger = logger
	application.closeFns = append(application.closeFns, func() { _ = logger.Sync() })

	application.client = ukleg.NewClient(loaded.ClientConfig(logger.Named("ukleg")))

	validatorConfig := loaded.ValidatorConfig(logger.Named("schema"))
	if loaded.Schema.Backend == config.BackendXSD {
		backend := libxml.New()
		validatorConfig.Backend = backend
		application.closeFns = append(application.closeFns, backend.Close)
	}
	application.validator = schema.NewValidator(validatorConfig)

	extractorConfig, err := loaded.ExtractorConfig()
	if err != nil {
		return err
	}
	application.pipeline = pipeline.New(pipeline.Config{
		Fetcher:   application.client,
		Extractor: clml.NewExtractor(extractorConfig),
		Validator: application.validator,
		Logger:    logger.Named("pipeline"),
	})
	return nil
}

func (application *app) close() {
	for index := len(application.closeFns) - 1; index >= 0; index-- {
		application.closeFns[index]()
	}
	application.closeFns = nil
}

// loadContent reads source from disk when it names an existing file and
// otherwise fetches it as a legislation identifier such as "ukpga/2020/7".
func (application *app) loadContent(ctx context.Context, source string) ([]byte, error) {
	if info, err := os.Stat(source); err == nil && !info.IsDir() {
		return os.ReadFile(source)
	}
	legislationURI, err := ukleg.ParseLegislationID(source)
	if err != nil {
		return nil, fmt.Errorf("%q is neither a file nor a legislation identifier: %w", source, err)
	}
	return application.client.FetchXML(ctx, legislationURI)
}

// run processes source through the pipeline, from disk or from the API.
func (application *app) run(ctx context.Context, source string, opts pipeline.Options) (*pipeline.Outcome, error) {
	if info, err := os.Stat(source); err == nil && !info.IsDir() {
		return application.pipeline.RunFile(ctx, source, opts)
	}
	return application.pipeline.Run(ctx, source, opts)
}

func fetchCmd(application *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <type/year/number>",
		Short: "Download the CLML XML for a legislation item",
		Long: `Download the CLML XML for a legislation item from legislation.gov.uk.

Example:
  clmlkit fetch ukpga/2020/7 --output coronavirus-act.xml
  clmlkit fetch uksi/2019/419 --metadata --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputPath, _ := cmd.Flags().GetString("output")
			metadataOnly, _ := cmd.Flags().GetBool("metadata")

			legislationURI, err := ukleg.ParseLegislationID(args[0])
			if err != nil {
				return err
			}

			if metadataOnly {
				metadata, err := application.client.FetchMetadata(cmd.Context(), legislationURI)
				if err != nil {
					return err
				}
				if application.format == output.FormatJSON || application.format == output.FormatYAML {
					return output.Encode(cmd.OutOrStdout(), application.format, metadata)
				}
				output.KeyValues(cmd.OutOrStdout(), [][2]string{
					{"Type", metadata.LegislationType},
					{"Year", metadata.Year},
					{"Number", metadata.Number},
					{"URI", metadata.URI},
					{"Content Length", strconv.Itoa(metadata.ContentLength)},
					{"Retrieved", metadata.RetrievedAt.Format("2006-01-02 15:04:05")},
				})
				return nil
			}

			content, err := application.client.FetchXML(cmd.Context(), legislationURI)
			if err != nil {
				return err
			}
			if outputPath == "" {
				_, err = cmd.OutOrStdout().Write(content)
				return err
			}
			if err := os.WriteFile(outputPath, content, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outputPath, err)
			}
			output.Success(cmd.ErrOrStderr(), fmt.Sprintf("Wrote %d bytes to %s", len(content), outputPath))
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", "Write the XML to this file instead of stdout")
	cmd.Flags().Bool("metadata", false, "Print retrieval metadata instead of the XML")

	return cmd
}

func extractCmd(application *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <file | type/year/number>",
		Short: "Extract identity, sections and amendments from a CLML document",
		Long: `Extract structured metadata from a CLML document on disk or on legislation.gov.uk.

Example:
  clmlkit extract ukpga/2020/7
  clmlkit extract data/coronavirus-act.xml --format json
  clmlkit extract ukpga/2020/7 --validate --format yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			validate, _ := cmd.Flags().GetBool("validate")
			showWarnings, _ := cmd.Flags().GetBool("warnings")

			outcome, err := application.run(cmd.Context(), args[0], pipeline.Options{
				Validate:      validate,
				CheckMetadata: true,
			})
			if err != nil {
				return err
			}
			return printOutcome(cmd.OutOrStdout(), application.format, outcome, showWarnings)
		},
	}

	cmd.Flags().Bool("validate", false, "Also validate the document against the CLML schema")
	cmd.Flags().Bool("warnings", false, "List skipped or degraded sections in table output")

	return cmd
}

func validateCmd(application *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file | type/year/number>",
		Short: "Validate a CLML document against the legislation.gov.uk schema",
		Long: `Validate a CLML document.

The default structural backend checks namespaces, metadata elements and the
document shape without downloading anything. It does not prove conformance to
the legislation.gov.uk schema. Set "schema.backend: xsd" in clmlkit.yaml (or
CLMLKIT_SCHEMA_BACKEND=xsd) to validate against the published XSDs; this needs
a cgo build with libxml2.

Example:
  clmlkit validate ukpga/2020/7
  clmlkit validate data/coronavirus-act.xml --skip-metadata --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			skipMetadata, _ := cmd.Flags().GetBool("skip-metadata")

			content, err := application.loadContent(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			validationReport, err := application.validator.ValidateAgainstCLML(cmd.Context(), content, !skipMetadata)
			if err != nil {
				return err
			}

			if err := printValidation(cmd.OutOrStdout(), application.format, validationReport); err != nil {
				return err
			}
			if !validationReport.Valid {
				return errInvalidDocument
			}
			return nil
		},
	}

	cmd.Flags().Bool("skip-metadata", false, "Skip the metadata element presence checks")

	return cmd
}

func feedCmd(application *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feed [title query]",
		Short: "List legislation from the legislation.gov.uk Atom feed",
		Long: `List legislation from the legislation.gov.uk Atom feed, optionally filtered by title.
With --process, every listed item is run through extraction.

Example:
  clmlkit feed coronavirus
  clmlkit feed "health protection" --process --concurrency 2 --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			process, _ := cmd.Flags().GetBool("process")
			concurrency, _ := cmd.Flags().GetInt("concurrency")
			validate, _ := cmd.Flags().GetBool("validate")

			query := ""
			if len(args) > 0 {
				query = args[0]
			}
			content, err := application.client.FetchAtomFeed(cmd.Context(), query)
			if err != nil {
				return err
			}
			parsedFeed, err := feed.Parse(content)
			if err != nil {
				return err
			}
			for _, warning := range parsedFeed.Warnings {
				application.logger.Warn("feed entry skipped", zap.Int("index", warning.Index), zap.String("reason", warning.Reason))
			}

			if !process {
				return printFeed(cmd.OutOrStdout(), application.format, parsedFeed)
			}

			batchReport, err := application.pipeline.RunBatch(cmd.Context(), parsedFeed.LegislationIDs(), pipeline.Options{
				Validate:      validate,
				CheckMetadata: true,
			}, concurrency)
			if err != nil {
				return err
			}
			return printBatch(cmd.OutOrStdout(), application.format, batchReport)
		},
	}

	cmd.Flags().Bool("process", false, "Extract every legislation item listed in the feed")
	cmd.Flags().Int("concurrency", pipeline.DefaultBatchConcurrency, "Parallel extractions with --process")
	cmd.Flags().Bool("validate", false, "Validate each item with --process")

	return cmd
}

func reportCmd(application *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <file | type/year/number>",
		Short: "Generate a PDF, Markdown or HTML report for a legislation item",
		Long: `Extract and validate a legislation item, then write a report to the output directory.

Example:
  clmlkit report ukpga/2020/7
  clmlkit report ukpga/2020/7 --report-format markdown --output-dir reports/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reportFormat, _ := cmd.Flags().GetString("report-format")
			outputDir, _ := cmd.Flags().GetString("output-dir")
			maxSections, _ := cmd.Flags().GetInt("max-sections")
			skipValidation, _ := cmd.Flags().GetBool("skip-validation")

			if reportFormat == "" {
				reportFormat = application.config.Report.Format
			}
			if outputDir == "" {
				outputDir = application.config.Report.OutputDir
			}
			if maxSections <= 0 {
				maxSections = application.config.Report.MaxSections
			}

			outcome, err := application.run(cmd.Context(), args[0], pipeline.Options{
				Validate:      !skipValidation,
				CheckMetadata: true,
				ReportFormat:  reportFormat,
				OutputDir:     outputDir,
				MaxSections:   maxSections,
			})
			if err != nil {
				return err
			}
			if outcome.ValidationErr != "" {
				output.Warning(cmd.ErrOrStderr(), "schema validation did not complete: "+outcome.ValidationErr)
			}
			output.Success(cmd.OutOrStdout(), "Report written to "+outcome.ReportPath)
			return nil
		},
	}

	cmd.Flags().String("report-format", "", "Report format: pdf, markdown, html (default from config)")
	cmd.Flags().String("output-dir", "", "Directory for the report (default from config)")
	cmd.Flags().Int("max-sections", 0, "Sections listed in the report (default from config)")
	cmd.Flags().Bool("skip-validation", false, "Leave the validation summary out of the report")

	return cmd
}

func checkCmd(application *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <uri>...",
		Short: "Check that legislation.gov.uk URIs resolve",
		Long: `Check legislation.gov.uk URIs with HEAD requests. Results are cached for api.cache_ttl.

Example:
  clmlkit check https://www.legislation.gov.uk/ukpga/2020/7`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var results []*ukleg.ValidationResult
			for _, uri := range args {
				result, err := application.client.ValidateURI(cmd.Context(), uri)
				if err != nil {
					return err
				}
				results = append(results, result)
			}
			return printURIChecks(cmd.OutOrStdout(), application.format, results)
		},
	}
}

func watchCmd(application *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <directory>",
		Short: "Extract CLML files as they are written to a directory",
		Long: `Watch a directory and extract every .xml file created or modified in it until interrupted.

Example:
  clmlkit watch data/raw --validate
  clmlkit watch data/raw --report-format markdown --output-dir reports/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			validate, _ := cmd.Flags().GetBool("validate")
			reportFormat, _ := cmd.Flags().GetString("report-format")
			outputDir, _ := cmd.Flags().GetString("output-dir")
			if reportFormat != "" && outputDir == "" {
				outputDir = application.config.Report.OutputDir
			}

			opts := pipeline.Options{
				Validate:      validate,
				CheckMetadata: true,
				ReportFormat:  reportFormat,
				OutputDir:     outputDir,
				MaxSections:   application.config.Report.MaxSections,
			}
			return application.pipeline.Watch(cmd.Context(), args[0], opts, func(event pipeline.WatchEvent) {
				if event.Err != nil {
					output.Warning(cmd.ErrOrStderr(), fmt.Sprintf("%s: %v", event.Path, event.Err))
					return
				}
				document := event.Outcome.Document
				output.Success(cmd.OutOrStdout(), fmt.Sprintf("%s %s: %s (%d sections, %d warnings)",
					event.Op, event.Path, document.Identifier(), len(document.Sections), len(event.Outcome.Warnings)))
			})
		},
	}

	cmd.Flags().Bool("validate", false, "Validate each file against the CLML schema")
	cmd.Flags().String("report-format", "", "Also write a report per file: pdf, markdown, html")
	cmd.Flags().String("output-dir", "", "Directory for reports (default from config)")

	return cmd
}
