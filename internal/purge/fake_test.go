package purge

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdf-page-purge/internal/pdf/wrapper"
)

// fakePage is one page of a fake document. id identifies the page across
// deletions; text is what extraction returns unless err is set.
type fakePage struct {
	id   string
	text string
	err  error
}

// fakeDocument is an in-memory wrapper.PDFDocument. Saving a modified
// document writes the ids of the remaining pages, one per line; saving an
// unmodified one copies the source file.
type fakeDocument struct {
	engine *fakeEngine
	path   string
	pages  []fakePage

	deleted            []int
	modified           bool
	closed             bool
	closeCount         int
	saves              []string
	saveErr            error
	partialWrite       bool
	overwriteWhileOpen bool
	countErr           error
	panicOnExtract     bool
	dropDeletes        bool
}

func (d *fakeDocument) Path() string { return d.path }

func (d *fakeDocument) GetPageCount() (int, error) {
	if d.closed {
		return 0, wrapper.ErrDocumentClosed
	}
	if d.countErr != nil {
		return 0, d.countErr
	}
	return len(d.pages), nil
}

func (d *fakeDocument) ExtractText(index int) (string, error) {
	if d.closed {
		return "", wrapper.ErrDocumentClosed
	}
	if d.panicOnExtract {
		panic("extract exploded")
	}
	if index < 0 || index >= len(d.pages) {
		return "", wrapper.ErrPageOutOfRange
	}
	if d.pages[index].err != nil {
		return "", d.pages[index].err
	}
	return d.pages[index].text, nil
}

func (d *fakeDocument) DeletePage(index int) error {
	if d.closed {
		return wrapper.ErrDocumentClosed
	}
	if index < 0 || index >= len(d.pages) {
		return wrapper.ErrPageOutOfRange
	}
	d.deleted = append(d.deleted, index)
	if d.dropDeletes {
		return nil
	}
	d.pages = append(d.pages[:index], d.pages[index+1:]...)
	d.modified = true
	return nil
}

func (d *fakeDocument) Modified() bool { return d.modified }

func (d *fakeDocument) SupportsOverwriteWhileOpen() bool { return d.overwriteWhileOpen }

func (d *fakeDocument) Save(path string) error {
	if d.closed {
		return wrapper.ErrDocumentClosed
	}
	d.saves = append(d.saves, path)

	if d.saveErr != nil {
		if d.partialWrite {
			_ = os.WriteFile(path, []byte("partial"), 0o644)
		}
		return d.saveErr
	}

	if !d.modified {
		data, err := os.ReadFile(d.path)
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o644)
	}
	return os.WriteFile(path, []byte(d.ids()), 0o644)
}

func (d *fakeDocument) Close() error {
	d.closeCount++
	if d.closed {
		return nil
	}
	d.closed = true
	d.engine.open--
	return nil
}

func (d *fakeDocument) ids() string {
	ids := make([]string, len(d.pages))
	for i, p := range d.pages {
		ids[i] = p.id
	}
	return strings.Join(ids, "\n")
}

// fakeEngine is an in-memory wrapper.PDFLibrary serving fakeDocuments by path
type fakeEngine struct {
	docs     map[string]*fakeDocument
	openErr  map[string]error
	opened   []string
	open     int
	maxOpen  int
	closed   bool
	closings int

	validateErr error
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		docs:    make(map[string]*fakeDocument),
		openErr: make(map[string]error),
	}
}

// addDoc writes a source file for pages under dir and registers a document
// for it. Page ids are "p0", "p1", ...
func (e *fakeEngine) addDoc(t *testing.T, dir, name string, texts ...string) *fakeDocument {
	t.Helper()

	path := filepath.Join(dir, name)
	pages := make([]fakePage, len(texts))
	ids := make([]string, len(texts))
	for i, text := range texts {
		pages[i] = fakePage{id: fmt.Sprintf("p%d", i), text: text}
		ids[i] = pages[i].id
	}
	require.NoError(t, os.WriteFile(path, []byte("source\n"+strings.Join(ids, "\n")), 0o644))

	doc := &fakeDocument{engine: e, path: path, pages: pages}
	e.docs[path] = doc
	return doc
}

func (e *fakeEngine) OpenFile(path string) (wrapper.PDFDocument, error) {
	if e.closed {
		return nil, wrapper.ErrLibraryClosed
	}
	e.opened = append(e.opened, path)
	if err := e.openErr[path]; err != nil {
		return nil, err
	}
	doc, ok := e.docs[path]
	if !ok {
		return nil, errors.New("no such fake document")
	}
	e.open++
	if e.open > e.maxOpen {
		e.maxOpen = e.open
	}
	return doc, nil
}

func (e *fakeEngine) Validate() error { return e.validateErr }

func (e *fakeEngine) Close() error {
	e.closings++
	e.closed = true
	return nil
}

func (e *fakeEngine) GetLibraryType() wrapper.LibraryType { return "fake" }

func (e *fakeEngine) GetVersion() string { return "fake-1" }

// factory returns an EngineFactory handing out e and counting calls
func (e *fakeEngine) factory(calls *int) EngineFactory {
	return func() (wrapper.PDFLibrary, error) {
		*calls++
		return e, nil
	}
}

// dirEntries lists the names in dir
func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func readString(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
