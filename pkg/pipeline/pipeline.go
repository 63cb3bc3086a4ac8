// Package pipeline ties retrieval, extraction, schema validation and report
// rendering together for one legislation item or a batch of them.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/coolbeans/clmlkit/pkg/clml"
	"github.com/coolbeans/clmlkit/pkg/report"
	"github.com/coolbeans/clmlkit/pkg/schema"
	"github.com/coolbeans/clmlkit/pkg/ukleg"
)

// ErrNoFetcher is returned by Run when the pipeline was built without a Fetcher.
var ErrNoFetcher = errors.New("pipeline has no fetcher configured")

// Fetcher retrieves CLML XML. *ukleg.Client satisfies it.
type Fetcher interface {
	FetchXML(ctx context.Context, legislationURI ukleg.LegislationURI) ([]byte, error)
}

// Validator checks CLML against the published schemas. *schema.Validator
// satisfies it.
type Validator interface {
	ValidateAgainstCLML(ctx context.Context, content []byte, checkMetadata bool) (*schema.Report, error)
}

// Config wires the pipeline stages.
type Config struct {
	Fetcher   Fetcher
	Extractor *clml.Extractor

	// Validator may be nil, in which case validation is skipped.
	Validator Validator

	// Logger defaults to a no-op logger.
	Logger *zap.Logger

	// Now defaults to time.Now.
	Now func() time.Time

	// WatchSettle is how long Watch waits after the last write to a file
	// before processing it. Defaults to DefaultWatchSettle.
	WatchSettle time.Duration
}

// Options controls a single run.
type Options struct {
	Validate      bool
	CheckMetadata bool

	// ReportFormat selects a report renderer; empty skips the report.
	ReportFormat string

	// OutputDir receives the report file. Empty means the working directory.
	OutputDir string

	MaxSections int
}

// Outcome is everything one run produced.
type Outcome struct {
	RunID         string                           `json:"run_id" yaml:"run_id"`
	Source        string                           `json:"source" yaml:"source"`
	Document      *clml.LegislationDocument        `json:"document" yaml:"document"`
	Warnings      []*clml.UnresolvedSectionWarning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Validation    *schema.Report                   `json:"validation,omitempty" yaml:"validation,omitempty"`
	ValidationErr string                           `json:"validation_error,omitempty" yaml:"validation_error,omitempty"`
	ReportPath    string                           `json:"report_path,omitempty" yaml:"report_path,omitempty"`
	Duration      time.Duration                    `json:"duration" yaml:"duration"`
}

// Pipeline runs fetch, extraction, validation and reporting. It is safe for
// concurrent use.
type Pipeline struct {
	fetcher   Fetcher
	extractor *clml.Extractor
	validator Validator
	logger    *zap.Logger
	now       func() time.Time
	settle    time.Duration
}

// New creates a Pipeline from config.
func New(config Config) *Pipeline {
	extractor := config.Extractor
	if extractor == nil {
		extractor = clml.NewExtractor(clml.DefaultConfig())
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}
	settle := config.WatchSettle
	if settle <= 0 {
		settle = DefaultWatchSettle
	}
	return &Pipeline{
		fetcher:   config.Fetcher,
		extractor: extractor,
		validator: config.Validator,
		logger:    logger,
		now:       now,
		settle:    settle,
	}
}

// Run fetches the item named by legislationID (e.g. "ukpga/2020/7") and
// processes it.
func (pipeline *Pipeline) Run(ctx context.Context, legislationID string, opts Options) (*Outcome, error) {
	if pipeline.fetcher == nil {
		return nil, ErrNoFetcher
	}
	legislationURI, err := ukleg.ParseLegislationID(legislationID)
	if err != nil {
		return nil, err
	}

	content, err := pipeline.fetcher.FetchXML(ctx, legislationURI)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", legislationURI.ID(), err)
	}

	outcome, err := pipeline.process(ctx, content, legislationURI.ID(), opts)
	if err != nil {
		return nil, err
	}
	if extracted := outcome.Document.Identifier(); extracted != legislationURI.ID() {
		pipeline.logger.Warn("extracted identity differs from requested item",
			zap.String("run_id", outcome.RunID),
			zap.String("requested", legislationURI.ID()),
			zap.String("extracted", extracted))
	}
	return outcome, nil
}

// RunFile processes a CLML file on disk.
func (pipeline *Pipeline) RunFile(ctx context.Context, path string, opts Options) (*Outcome, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return pipeline.process(ctx, content, path, opts)
}

// process runs extraction and validation concurrently over content. A
// validation failure is recorded on the outcome and never fails the run.
func (pipeline *Pipeline) process(ctx context.Context, content []byte, source string, opts Options) (*Outcome, error) {
	started := pipeline.now()
	outcome := &Outcome{RunID: uuid.New().String(), Source: source}
	logger := pipeline.logger.With(zap.String("run_id", outcome.RunID), zap.String("source", source))

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := groupCtx.Err(); err != nil {
			return err
		}
		result, err := pipeline.extractor.Extract(content)
		if err != nil {
			return fmt.Errorf("extracting %s: %w", source, err)
		}
		outcome.Document = result.Document
		outcome.Warnings = result.Warnings
		return nil
	})

	if opts.Validate && pipeline.validator != nil {
		group.Go(func() error {
			validation, err := pipeline.validator.ValidateAgainstCLML(groupCtx, content, opts.CheckMetadata)
			if err != nil {
				logger.Warn("schema validation did not complete", zap.Error(err))
				outcome.ValidationErr = err.Error()
				return nil
			}
			outcome.Validation = validation
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		logger.Error("extraction failed", zap.Error(err))
		return nil, err
	}

	for _, warning := range outcome.Warnings {
		logger.Debug("section skipped or degraded",
			zap.String("path", warning.Path), zap.String("reason", warning.Reason))
	}

	if opts.ReportFormat != "" {
		reportPath, err := pipeline.writeReport(outcome, opts)
		if err != nil {
			return nil, err
		}
		outcome.ReportPath = reportPath
	}

	outcome.Duration = pipeline.now().Sub(started)
	logger.Info("legislation processed",
		zap.String("document", outcome.Document.Identifier()),
		zap.Int("sections", len(outcome.Document.Sections)),
		zap.Int("amendments", len(outcome.Document.Amendments)),
		zap.Int("warnings", len(outcome.Warnings)),
		zap.Duration("duration", outcome.Duration))
	return outcome, nil
}

func (pipeline *Pipeline) writeReport(outcome *Outcome, opts Options) (string, error) {
	renderer, err := report.ForFormat(opts.ReportFormat)
	if err != nil {
		return "", err
	}

	var buffer bytes.Buffer
	err = renderer.Render(&buffer, report.Data{
		Document:    outcome.Document,
		Validation:  outcome.Validation,
		Warnings:    outcome.Warnings,
		GeneratedAt: pipeline.now(),
		MaxSections: opts.MaxSections,
	})
	if err != nil {
		return "", err
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory %s: %w", outputDir, err)
	}

	reportPath := filepath.Join(outputDir, report.FileName(outcome.Document, renderer))
	if err := os.WriteFile(reportPath, buffer.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write report %s: %w", reportPath, err)
	}
	return reportPath, nil
}
