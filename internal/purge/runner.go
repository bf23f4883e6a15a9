package purge

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/a3tai/pdf-page-purge/internal/pdf/wrapper"
)

// EngineFactory creates the PDF engine used for one batch
type EngineFactory func() (wrapper.PDFLibrary, error)

// FileValidator checks an input file before the engine opens it
type FileValidator interface {
	ValidateCandidate(path string) error
}

// Options configures one batch run
type Options struct {
	Phrase      string
	Destination Destination
	DryRun      bool
}

// BatchRunner removes matching pages from a list of PDF files, one file at a
// time. A failure on one file never stops the batch.
type BatchRunner struct {
	newEngine EngineFactory
	validator FileValidator
	logger    *zap.Logger
	progress  func(FileResult)
}

// RunnerOption configures a BatchRunner
type RunnerOption func(*BatchRunner)

// WithFileValidator checks every input file before it is opened
func WithFileValidator(v FileValidator) RunnerOption {
	return func(r *BatchRunner) {
		r.validator = v
	}
}

// WithLogger sets the runner's logger
func WithLogger(logger *zap.Logger) RunnerOption {
	return func(r *BatchRunner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithProgress registers a callback invoked after each file is processed
func WithProgress(fn func(FileResult)) RunnerOption {
	return func(r *BatchRunner) {
		r.progress = fn
	}
}

// NewBatchRunner creates a runner that builds its engine with newEngine
func NewBatchRunner(newEngine EngineFactory, opts ...RunnerOption) (*BatchRunner, error) {
	if newEngine == nil {
		return nil, ErrNoEngine
	}

	r := &BatchRunner{
		newEngine: newEngine,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run processes inputFiles in order. It returns an error only when the batch
// cannot start: invalid options, an output directory that cannot be created,
// or an engine that fails to initialize. The engine is not created at all
// when inputFiles is empty.
//
// ctx is checked between files; once it is done the remaining files are
// listed in Summary.Unprocessed.
func (r *BatchRunner) Run(ctx context.Context, inputFiles []string, opts Options) (*Summary, error) {
	matcher, err := NewPhraseMatcher(opts.Phrase)
	if err != nil {
		return nil, err
	}

	policy, err := NewOutputPolicy(opts.Destination, opts.DryRun, r.logger)
	if err != nil {
		return nil, err
	}

	summary := newSummary(uuid.NewString(), opts.Phrase, opts.DryRun)
	logger := r.logger.With(zap.String("run_id", summary.RunID))
	defer func() {
		summary.Duration = time.Since(summary.Started)
	}()

	if len(inputFiles) == 0 {
		logger.Info("no input files, nothing to do")
		return summary, nil
	}

	if err := policy.Prepare(); err != nil {
		return nil, err
	}

	engine, err := r.newEngine()
	if err != nil {
		return nil, fmt.Errorf("cannot initialize PDF engine: %w", err)
	}
	defer func() {
		if err := engine.Close(); err != nil {
			logger.Warn("PDF engine shutdown failed", zap.Error(err))
		}
	}()
	if err := engine.Validate(); err != nil {
		return nil, fmt.Errorf("cannot initialize PDF engine: %w", err)
	}

	logger.Info("batch started",
		zap.String("engine", string(engine.GetLibraryType())),
		zap.String("engine_version", engine.GetVersion()),
		zap.Int("files", len(inputFiles)),
		zap.String("phrase", opts.Phrase),
		zap.String("write_mode", string(opts.Destination.Mode)),
		zap.Bool("dry_run", opts.DryRun))

	selector := NewPageSelector(matcher, logger)

	for i, path := range inputFiles {
		if err := ctx.Err(); err != nil {
			summary.Interrupted = true
			summary.Unprocessed = append([]string(nil), inputFiles[i:]...)
			logger.Warn("batch interrupted",
				zap.Int("unprocessed", len(summary.Unprocessed)),
				zap.Error(err))
			break
		}

		result := r.processFile(engine, selector, policy, path)
		summary.record(result)
		r.logResult(logger, result)
		if r.progress != nil {
			r.progress(result)
		}
	}

	logger.Info("batch finished",
		zap.Int("processed", summary.Processed),
		zap.Int("modified", summary.Modified),
		zap.Int("needs_attention", summary.NeedsAttention()))

	return summary, nil
}

// processFile handles one file from open to close. A panic raised while the
// file is processed is reported as an open error for that file alone.
func (r *BatchRunner) processFile(engine wrapper.PDFLibrary, selector *PageSelector,
	policy *OutputPolicy, path string,
) (result FileResult) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("panic while processing file",
				zap.String("file", path),
				zap.Any("panic", rec),
				zap.Stack("stack"))
			result = FileResult{
				Path:    path,
				Outcome: OutcomeSkippedOpenError,
				Err:     &OpenError{Path: path, Err: fmt.Errorf("unexpected failure: %v", rec)},
			}
		}
	}()

	if r.validator != nil {
		if err := r.validator.ValidateCandidate(path); err != nil {
			return FileResult{Path: path, Outcome: OutcomeSkippedOpenError, Err: &OpenError{Path: path, Err: err}}
		}
	}

	doc, err := engine.OpenFile(path)
	if err != nil {
		return FileResult{Path: path, Outcome: OutcomeSkippedOpenError, Err: &OpenError{Path: path, Err: err}}
	}
	defer func() {
		if err := doc.Close(); err != nil {
			r.logger.Warn("cannot close document", zap.String("file", path), zap.Error(err))
		}
	}()

	sel, err := selector.SelectPagesToRemove(doc)
	if err != nil {
		return FileResult{Path: path, Outcome: OutcomeSkippedOpenError, Err: err}
	}

	return policy.Apply(doc, sel)
}

func (r *BatchRunner) logResult(logger *zap.Logger, result FileResult) {
	fields := []zap.Field{
		zap.String("file", result.Path),
		zap.String("outcome", string(result.Outcome)),
		zap.Int("pages", result.PageCount),
	}
	if len(result.RemovedPages) > 0 {
		fields = append(fields, zap.Ints("removed_pages", result.RemovedPages))
	}
	if result.Destination != "" {
		fields = append(fields, zap.String("destination", result.Destination))
	}

	switch result.Outcome {
	case OutcomeSaveError, OutcomeDeleteError, OutcomeSkippedOpenError:
		logger.Error("file not processed", append(fields, zap.Error(result.Err))...)
	case OutcomeSkippedAllMatch:
		logger.Warn("file needs attention", fields...)
	default:
		logger.Info("file processed", fields...)
	}
}
