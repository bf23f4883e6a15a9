package purge

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/a3tai/pdf-page-purge/internal/pdf/wrapper"
)

// Decision is what the output policy does with a scanned document
type Decision int

const (
	// DecisionPassThrough leaves the document unchanged: no page matched.
	DecisionPassThrough Decision = iota
	// DecisionModify removes the matching pages and persists the result.
	DecisionModify
	// DecisionSkipAllMatch leaves the document untouched: every page matched.
	DecisionSkipAllMatch
)

func (d Decision) String() string {
	switch d {
	case DecisionPassThrough:
		return "PASS_THROUGH"
	case DecisionModify:
		return "MODIFY"
	case DecisionSkipAllMatch:
		return "SKIP_ALL_MATCH"
	default:
		return "UNKNOWN"
	}
}

// Decide maps a document's page count and removal count to a decision
func Decide(pageCount, removalCount int) Decision {
	switch {
	case removalCount == 0:
		return DecisionPassThrough
	case removalCount >= pageCount:
		return DecisionSkipAllMatch
	default:
		return DecisionModify
	}
}

// WriteMode selects where and how modified documents are written
type WriteMode string

const (
	// WriteModeReplace saves next to the source, then renames over it.
	WriteModeReplace WriteMode = "replace"
	// WriteModeOverwrite saves straight over the open source when the engine
	// allows it, and falls back to WriteModeReplace otherwise.
	WriteModeOverwrite WriteMode = "overwrite"
	// WriteModeOutputDir writes into a separate directory, never touching sources.
	WriteModeOutputDir WriteMode = "outdir"
)

// DefaultDirPerm is used when creating the output directory
const DefaultDirPerm = 0o750

// Destination is the destination specification of a run
type Destination struct {
	Mode      WriteMode
	OutputDir string
}

// Validate checks the destination specification
func (d Destination) Validate() error {
	switch d.Mode {
	case WriteModeReplace, WriteModeOverwrite:
		return nil
	case WriteModeOutputDir:
		if d.OutputDir == "" {
			return errors.New("output directory cannot be empty in outdir mode")
		}
		return nil
	default:
		return fmt.Errorf("invalid write mode: %q (must be one of: replace, overwrite, outdir)", d.Mode)
	}
}

// Resolve returns the destination path for source and whether it is the
// source itself. Distinct sources with the same file name resolve to the
// same output path; the last one written wins.
func (d Destination) Resolve(source string) (string, bool) {
	if d.Mode != WriteModeOutputDir {
		return source, true
	}
	dest := filepath.Join(d.OutputDir, filepath.Base(source))
	return dest, samePath(dest, source)
}

// OutputPolicy decides and carries out what happens to each scanned document
type OutputPolicy struct {
	dest    Destination
	dryRun  bool
	remover *PageRemover
	logger  *zap.Logger
}

// NewOutputPolicy creates an output policy for dest
func NewOutputPolicy(dest Destination, dryRun bool, logger *zap.Logger) (*OutputPolicy, error) {
	if err := dest.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OutputPolicy{
		dest:    dest,
		dryRun:  dryRun,
		remover: NewPageRemover(logger),
		logger:  logger,
	}, nil
}

// Prepare creates the output directory if the destination needs one. It runs
// before the first document is written.
func (p *OutputPolicy) Prepare() error {
	if p.dest.Mode != WriteModeOutputDir || p.dryRun {
		return nil
	}
	if err := os.MkdirAll(p.dest.OutputDir, DefaultDirPerm); err != nil {
		return fmt.Errorf("cannot create output directory %s: %w", p.dest.OutputDir, err)
	}
	return nil
}

// Apply carries out the decision for doc. doc may be closed by Apply; the
// caller still closes it afterwards, which is a no-op for a closed document.
func (p *OutputPolicy) Apply(doc wrapper.PDFDocument, sel *Selection) FileResult {
	source := doc.Path()
	dest, inPlace := p.dest.Resolve(source)

	result := FileResult{
		Path:               source,
		PageCount:          sel.PageCount,
		RemovedPages:       sel.Remove.PageNumbers(),
		ExtractionFailures: len(sel.ExtractionErrors),
	}

	switch Decide(sel.PageCount, sel.Remove.Len()) {
	case DecisionSkipAllMatch:
		p.logger.Warn("every page matches the phrase, leaving file untouched",
			zap.String("file", source),
			zap.Int("pages", sel.PageCount))
		result.Outcome = OutcomeSkippedAllMatch
		result.Err = ErrAllPagesMatch
		return result

	case DecisionPassThrough:
		if inPlace || p.dryRun {
			result.Outcome = OutcomeSkippedNoMatch
			return result
		}
		result.Destination = dest
		if err := doc.Save(dest); err != nil {
			result.Outcome = OutcomeSaveError
			result.Err = &SaveError{Path: source, Destination: dest, Err: err}
			return result
		}
		result.Outcome = OutcomePassedThrough
		return result
	}

	result.Destination = dest
	if p.dryRun {
		result.Outcome = OutcomeWouldModify
		return result
	}

	if err := p.remover.RemovePages(doc, sel.Remove); err != nil {
		p.logger.Error("removal set does not fit the document",
			zap.String("file", source),
			zap.Ints("indices", sel.Remove),
			zap.Error(err))
		result.Outcome = OutcomeDeleteError
		result.Err = err
		return result
	}

	if err := p.persist(doc, dest, inPlace); err != nil {
		result.Outcome = OutcomeSaveError
		result.Err = err
		return result
	}

	result.Outcome = OutcomeModified
	return result
}

func (p *OutputPolicy) persist(doc wrapper.PDFDocument, dest string, inPlace bool) error {
	source := doc.Path()

	if !inPlace {
		if err := doc.Save(dest); err != nil {
			return &SaveError{Path: source, Destination: dest, Err: err}
		}
		return nil
	}

	if p.dest.Mode == WriteModeOverwrite {
		if doc.SupportsOverwriteWhileOpen() {
			if err := doc.Save(source); err != nil {
				return &SaveError{Path: source, Destination: source, Err: err}
			}
			return nil
		}
		p.logger.Debug("engine cannot overwrite an open file, using temp-then-replace",
			zap.String("file", source))
	}

	return p.replace(doc)
}

// replace saves doc to a sibling temporary file, closes doc to release the
// source, and renames the temporary file over the source. The source is left
// untouched unless the save succeeded. A symlinked source keeps its link; the
// file it points to is replaced.
func (p *OutputPolicy) replace(doc wrapper.PDFDocument) error {
	source := doc.Path()
	target := source
	if resolved, err := filepath.EvalSymlinks(source); err == nil {
		target = resolved
	}
	tmp := tempSibling(target)

	if err := doc.Save(tmp); err != nil {
		p.removeTemp(tmp)
		return &SaveError{Path: source, Destination: source, Err: err}
	}

	if info, err := os.Stat(target); err == nil {
		if err := os.Chmod(tmp, info.Mode().Perm()); err != nil {
			p.logger.Debug("cannot copy source permissions",
				zap.String("file", source),
				zap.Error(err))
		}
	}

	if err := doc.Close(); err != nil {
		p.removeTemp(tmp)
		return &SaveError{Path: source, Destination: source, Err: fmt.Errorf("cannot release source: %w", err)}
	}

	if err := os.Rename(tmp, target); err != nil {
		p.removeTemp(tmp)
		return &SaveError{Path: source, Destination: source, Err: fmt.Errorf("cannot replace source: %w", err)}
	}

	return nil
}

func tempSibling(source string) string {
	dir, base := filepath.Split(source)
	return filepath.Join(dir, "."+base+"."+uuid.NewString()+".tmp")
}

func (p *OutputPolicy) removeTemp(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		p.logger.Warn("cannot remove temporary file", zap.String("file", path), zap.Error(err))
	}
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
