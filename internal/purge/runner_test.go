package purge

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdf-page-purge/internal/pdf/wrapper"
)

func replaceOptions(phrase string) Options {
	return Options{Phrase: phrase, Destination: Destination{Mode: WriteModeReplace}}
}

func newRunner(t *testing.T, engine *fakeEngine, calls *int, opts ...RunnerOption) *BatchRunner {
	t.Helper()
	r, err := NewBatchRunner(engine.factory(calls), opts...)
	require.NoError(t, err)
	return r
}

func TestNewBatchRunner_NilFactory(t *testing.T) {
	r, err := NewBatchRunner(nil)
	assert.ErrorIs(t, err, ErrNoEngine)
	assert.Nil(t, r)
}

func TestBatchRunner_EmptyPhrase(t *testing.T) {
	var calls int
	engine := newFakeEngine()
	doc := engine.addDoc(t, t.TempDir(), "a.pdf", "x")

	summary, err := newRunner(t, engine, &calls).Run(context.Background(), []string{doc.path}, replaceOptions("  "))
	assert.ErrorIs(t, err, ErrEmptyPhrase)
	assert.Nil(t, summary)
	assert.Zero(t, calls)
}

func TestBatchRunner_InvalidDestination(t *testing.T) {
	var calls int
	engine := newFakeEngine()

	_, err := newRunner(t, engine, &calls).Run(context.Background(), []string{"a.pdf"},
		Options{Phrase: "x", Destination: Destination{Mode: WriteModeOutputDir}})
	assert.Error(t, err)
	assert.Zero(t, calls)
}

// Four pages, the first and third match: the survivors keep their order.
func TestBatchRunner_RemovesMatchingPages(t *testing.T) {
	dir := t.TempDir()
	var calls int
	engine := newFakeEngine()
	doc := engine.addDoc(t, dir, "a.pdf", "Information Missing", "intro", "information missing here", "end")

	summary, err := newRunner(t, engine, &calls).Run(context.Background(), []string{doc.path},
		replaceOptions("INFORMATION MISSING"))
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, []int{2, 0}, doc.deleted)
	assert.Equal(t, "p1\np3", readString(t, doc.path))

	require.Len(t, summary.Files, 1)
	result := summary.Files[0]
	assert.Equal(t, OutcomeModified, result.Outcome)
	assert.Equal(t, 4, result.PageCount)
	assert.Equal(t, []int{1, 3}, result.RemovedPages)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Modified)
	assert.Zero(t, summary.NeedsAttention())
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, "INFORMATION MISSING", summary.Phrase)
}

// A single-page document whose only page matches stays as it is.
func TestBatchRunner_AllPagesMatch(t *testing.T) {
	dir := t.TempDir()
	var calls int
	engine := newFakeEngine()
	doc := engine.addDoc(t, dir, "b.pdf", "X")
	before := readString(t, doc.path)

	summary, err := newRunner(t, engine, &calls).Run(context.Background(), []string{doc.path}, replaceOptions("X"))
	require.NoError(t, err)

	require.Len(t, summary.Files, 1)
	assert.Equal(t, OutcomeSkippedAllMatch, summary.Files[0].Outcome)
	assert.ErrorIs(t, summary.Files[0].Err, ErrAllPagesMatch)
	assert.Equal(t, before, readString(t, doc.path))
	assert.Empty(t, doc.saves)
	assert.Equal(t, 1, summary.NeedsAttention())
	assert.Zero(t, summary.Modified)
}

// An empty batch never builds an engine.
func TestBatchRunner_NoInputFiles(t *testing.T) {
	var calls int
	engine := newFakeEngine()
	out := filepath.Join(t.TempDir(), "out")

	for _, files := range [][]string{nil, {}} {
		summary, err := newRunner(t, engine, &calls).Run(context.Background(), files,
			Options{Phrase: "X", Destination: Destination{Mode: WriteModeOutputDir, OutputDir: out}})
		require.NoError(t, err)
		assert.Zero(t, summary.Processed)
		assert.Empty(t, summary.Files)
	}

	assert.Zero(t, calls)
	assert.Zero(t, engine.closings)
	assert.NoDirExists(t, out)
}

func TestBatchRunner_OpenErrorDoesNotStopBatch(t *testing.T) {
	dir := t.TempDir()
	var calls int
	engine := newFakeEngine()
	broken := engine.addDoc(t, dir, "broken.pdf", "x")
	engine.openErr[broken.path] = errors.New("malformed xref")
	good := engine.addDoc(t, dir, "good.pdf", "DRAFT", "keep")

	summary, err := newRunner(t, engine, &calls).Run(context.Background(),
		[]string{broken.path, good.path}, replaceOptions("draft"))
	require.NoError(t, err)

	require.Len(t, summary.Files, 2)
	assert.Equal(t, OutcomeSkippedOpenError, summary.Files[0].Outcome)
	var openErr *OpenError
	require.True(t, errors.As(summary.Files[0].Err, &openErr))
	assert.Equal(t, broken.path, openErr.Path)

	assert.Equal(t, OutcomeModified, summary.Files[1].Outcome)
	assert.Equal(t, "p1", readString(t, good.path))
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Counts[OutcomeSkippedOpenError])
	assert.Equal(t, 1, summary.Counts[OutcomeModified])
}

func TestBatchRunner_PageCountFailureIsOpenError(t *testing.T) {
	dir := t.TempDir()
	var calls int
	engine := newFakeEngine()
	doc := engine.addDoc(t, dir, "a.pdf", "x")
	doc.countErr = errors.New("no page tree")

	summary, err := newRunner(t, engine, &calls).Run(context.Background(), []string{doc.path}, replaceOptions("x"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkippedOpenError, summary.Files[0].Outcome)
	assert.True(t, doc.closed)
}

type rejectValidator struct {
	rejected map[string]bool
}

func (v rejectValidator) ValidateCandidate(path string) error {
	if v.rejected[path] {
		return errors.New("file is empty")
	}
	return nil
}

func TestBatchRunner_ValidatorRejectsBeforeOpen(t *testing.T) {
	dir := t.TempDir()
	var calls int
	engine := newFakeEngine()
	empty := engine.addDoc(t, dir, "empty.pdf")
	good := engine.addDoc(t, dir, "good.pdf", "one")

	r := newRunner(t, engine, &calls, WithFileValidator(rejectValidator{rejected: map[string]bool{empty.path: true}}))
	summary, err := r.Run(context.Background(), []string{empty.path, good.path}, replaceOptions("x"))
	require.NoError(t, err)

	assert.Equal(t, []string{good.path}, engine.opened)
	assert.Equal(t, OutcomeSkippedOpenError, summary.Files[0].Outcome)
	assert.Equal(t, OutcomeSkippedNoMatch, summary.Files[1].Outcome)
}

func TestBatchRunner_OneDocumentOpenAtATime(t *testing.T) {
	dir := t.TempDir()
	var calls int
	engine := newFakeEngine()
	var files []string
	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf"} {
		doc := engine.addDoc(t, dir, name, "DRAFT", "body")
		files = append(files, doc.path)
	}

	summary, err := newRunner(t, engine, &calls).Run(context.Background(), files, replaceOptions("draft"))
	require.NoError(t, err)

	assert.Equal(t, 1, engine.maxOpen)
	assert.Zero(t, engine.open)
	assert.Equal(t, files, engine.opened)
	assert.Equal(t, 4, summary.Modified)
	for _, doc := range engine.docs {
		assert.True(t, doc.closed)
	}
}

func TestBatchRunner_EngineClosedOnce(t *testing.T) {
	dir := t.TempDir()
	var calls int
	engine := newFakeEngine()
	a := engine.addDoc(t, dir, "a.pdf", "one")
	b := engine.addDoc(t, dir, "b.pdf", "two")

	_, err := newRunner(t, engine, &calls).Run(context.Background(), []string{a.path, b.path}, replaceOptions("x"))
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, engine.closings)
}

// A panic inside one file is confined to that file.
func TestBatchRunner_PanicDoesNotStopBatch(t *testing.T) {
	dir := t.TempDir()
	var calls int
	engine := newFakeEngine()
	a := engine.addDoc(t, dir, "a.pdf", "one")
	a.panicOnExtract = true
	b := engine.addDoc(t, dir, "b.pdf", "DRAFT", "two")

	summary, err := newRunner(t, engine, &calls).Run(context.Background(), []string{a.path, b.path},
		replaceOptions("draft"))
	require.NoError(t, err)

	require.Len(t, summary.Files, 2)
	assert.Equal(t, OutcomeSkippedOpenError, summary.Files[0].Outcome)
	var openErr *OpenError
	require.ErrorAs(t, summary.Files[0].Err, &openErr)
	assert.Contains(t, openErr.Error(), "extract exploded")

	assert.Equal(t, OutcomeModified, summary.Files[1].Outcome)
	assert.Equal(t, "p1", readString(t, b.path))
	assert.Equal(t, 1, summary.NeedsAttention())
	assert.True(t, a.closed)
	assert.Equal(t, 1, engine.closings)
}

func TestBatchRunner_EngineValidateFailure(t *testing.T) {
	dir := t.TempDir()
	var calls int
	engine := newFakeEngine()
	engine.validateErr = errors.New("engine not ready")
	doc := engine.addDoc(t, dir, "a.pdf", "DRAFT", "one")

	summary, err := newRunner(t, engine, &calls).Run(context.Background(), []string{doc.path},
		replaceOptions("draft"))
	assert.ErrorContains(t, err, "engine not ready")
	assert.Nil(t, summary)
	assert.Equal(t, 1, engine.closings)
	assert.Empty(t, engine.opened)
}

func TestBatchRunner_EngineInitFailure(t *testing.T) {
	r, err := NewBatchRunner(func() (wrapper.PDFLibrary, error) {
		return nil, errors.New("no engine here")
	})
	require.NoError(t, err)

	summary, err := r.Run(context.Background(), []string{"a.pdf"}, replaceOptions("x"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no engine here")
	assert.Nil(t, summary)
}

func TestBatchRunner_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	var calls int
	engine := newFakeEngine()
	a := engine.addDoc(t, dir, "a.pdf", "DRAFT", "one")
	b := engine.addDoc(t, dir, "b.pdf", "DRAFT", "two")
	c := engine.addDoc(t, dir, "c.pdf", "DRAFT", "three")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := newRunner(t, engine, &calls, WithProgress(func(result FileResult) {
		if result.Path == a.path {
			cancel()
		}
	}))
	summary, err := r.Run(ctx, []string{a.path, b.path, c.path}, replaceOptions("draft"))
	require.NoError(t, err)

	assert.True(t, summary.Interrupted)
	assert.Equal(t, []string{b.path, c.path}, summary.Unprocessed)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, "p1", readString(t, a.path))
	assert.Equal(t, "source\np0\np1", readString(t, b.path))
	assert.Equal(t, 1, engine.closings)
}

// Running twice over the same files changes nothing the second time.
func TestBatchRunner_SecondRunIsNoOp(t *testing.T) {
	dir := t.TempDir()
	var calls int
	engine := newFakeEngine()
	doc := engine.addDoc(t, dir, "a.pdf", "DRAFT", "one", "two")

	r := newRunner(t, engine, &calls)
	_, err := r.Run(context.Background(), []string{doc.path}, replaceOptions("draft"))
	require.NoError(t, err)
	assert.Equal(t, "p1\np2", readString(t, doc.path))

	// reopen the result as a fresh document holding the surviving pages
	again := engine.addDoc(t, dir, "a.pdf", "one", "two")
	engine.closed = false
	summary, err := r.Run(context.Background(), []string{again.path}, replaceOptions("draft"))
	require.NoError(t, err)

	assert.Equal(t, OutcomeSkippedNoMatch, summary.Files[0].Outcome)
	assert.Empty(t, again.saves)
	assert.Empty(t, again.deleted)
}

func TestBatchRunner_ProgressAndCounts(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	var calls int
	engine := newFakeEngine()
	a := engine.addDoc(t, dir, "a.pdf", "DRAFT", "one")
	b := engine.addDoc(t, dir, "b.pdf", "one")
	c := engine.addDoc(t, dir, "c.pdf", "DRAFT")

	var seen []Outcome
	r := newRunner(t, engine, &calls, WithProgress(func(result FileResult) {
		seen = append(seen, result.Outcome)
	}))
	summary, err := r.Run(context.Background(), []string{a.path, b.path, c.path},
		Options{Phrase: "draft", Destination: Destination{Mode: WriteModeOutputDir, OutputDir: out}})
	require.NoError(t, err)

	assert.Equal(t, []Outcome{OutcomeModified, OutcomePassedThrough, OutcomeSkippedAllMatch}, seen)
	assert.Equal(t, 1, summary.Counts[OutcomeModified])
	assert.Equal(t, 1, summary.Counts[OutcomePassedThrough])
	assert.Equal(t, 1, summary.Counts[OutcomeSkippedAllMatch])
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, dirEntries(t, out))
	assert.GreaterOrEqual(t, summary.Duration.Nanoseconds(), int64(0))
}
