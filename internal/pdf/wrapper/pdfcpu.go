package wrapper

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"
)

// PDFCPULibrary implements PDFLibrary using pdfcpu for page structure and
// writing, and ledongthuc/pdf for page text.
type PDFCPULibrary struct {
	config FactoryConfig
	logger *zap.Logger
	closed bool
}

// NewPDFCPULibrary creates a new pdfcpu library wrapper
func NewPDFCPULibrary(config FactoryConfig) *PDFCPULibrary {
	// pdfcpu would otherwise create a config dir under the user's home.
	api.DisableConfigDir()

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &PDFCPULibrary{
		config: config,
		logger: logger.With(zap.String("library", string(LibraryPDFCPU))),
		closed: false,
	}
}

// newConfiguration returns a fresh pdfcpu configuration for one operation.
// pdfcpu mutates the configuration it is handed, so it is never shared.
func (p *PDFCPULibrary) newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	// Classic xref tables keep the output readable by simpler parsers.
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false
	return conf
}

// OpenFile opens a PDF from a file path. The file stays open until the
// returned document is closed.
func (p *PDFCPULibrary) OpenFile(path string) (PDFDocument, error) {
	if p.closed {
		return nil, &WrapperError{Library: LibraryPDFCPU, Op: "open_file", Path: path, Err: ErrLibraryClosed}
	}

	text, err := newTextExtractor(p.config.TextMode)
	if err != nil {
		return nil, &WrapperError{Library: LibraryPDFCPU, Op: "open_file", Path: path, Err: err}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "open_file",
			Path:    path,
			Err:     fmt.Errorf("failed to open file: %w", err),
		}
	}

	doc, err := p.readDocument(path, file, text)
	if err != nil {
		file.Close()
		return nil, err
	}

	p.logger.Debug("opened document",
		zap.String("file", path),
		zap.Int("pages", len(doc.remaining)),
		zap.String("text_mode", string(text.mode())))

	return doc, nil
}

func (p *PDFCPULibrary) readDocument(path string, file *os.File, text textExtractor) (*PDFCPUDocument, error) {
	info, err := file.Stat()
	if err != nil {
		return nil, &WrapperError{Library: LibraryPDFCPU, Op: "open_file", Path: path, Err: err}
	}

	pageCount, err := p.readPageCount(file)
	if err != nil {
		return nil, &WrapperError{Library: LibraryPDFCPU, Op: "open_file", Path: path, Err: err}
	}

	reader, err := openTextReader(file, info.Size())
	if err != nil {
		return nil, &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "open_file",
			Path:    path,
			Err:     fmt.Errorf("failed to open text layer: %w", err),
		}
	}

	remaining := make([]int, pageCount)
	for i := range remaining {
		remaining[i] = i + 1
	}

	return &PDFCPUDocument{
		lib:         p,
		path:        path,
		file:        file,
		reader:      reader,
		text:        text,
		remaining:   remaining,
		sourcePages: pageCount,
	}, nil
}

// readPageCount parses the cross-reference table and page tree of src
func (p *PDFCPULibrary) readPageCount(src io.ReadSeeker) (count int, err error) {
	defer recoverParse(&err)

	ctx, err := api.ReadContext(src, p.newConfiguration())
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return 0, fmt.Errorf("failed to ensure page count: %w", err)
	}
	return ctx.PageCount, nil
}

// Validate validates the library is properly initialized
func (p *PDFCPULibrary) Validate() error {
	if p.closed {
		return &WrapperError{Library: LibraryPDFCPU, Op: "validate", Err: ErrLibraryClosed}
	}
	return nil
}

// Close closes the library. Documents it opened must be closed by their owners.
func (p *PDFCPULibrary) Close() error {
	p.closed = true
	return nil
}

// GetLibraryType returns the library type
func (p *PDFCPULibrary) GetLibraryType() LibraryType {
	return LibraryPDFCPU
}

// GetVersion returns the pdfcpu version
func (p *PDFCPULibrary) GetVersion() string {
	return "pdfcpu-v0.11.0"
}

// PDFCPUDocument implements PDFDocument. Deletions are recorded against the
// original page numbers and applied by pdfcpu when the document is saved.
type PDFCPUDocument struct {
	lib    *PDFCPULibrary
	path   string
	file   *os.File
	reader *pdf.Reader
	text   textExtractor

	// remaining holds the 1-based source page number behind each current index
	remaining   []int
	sourcePages int
	modified    bool
	closed      bool
}

// Path returns the source path the document was opened from
func (d *PDFCPUDocument) Path() string {
	return d.path
}

// GetPageCount returns the number of pages currently in the document
func (d *PDFCPUDocument) GetPageCount() (int, error) {
	if d.closed {
		return 0, d.closedError("get_page_count")
	}
	return len(d.remaining), nil
}

// ExtractText extracts the text of the page at the given zero-based index
func (d *PDFCPUDocument) ExtractText(index int) (string, error) {
	if d.closed {
		return "", d.closedError("extract_text")
	}
	if err := d.checkIndex("extract_text", index); err != nil {
		return "", err
	}

	pageNum := d.remaining[index]
	if pageNum > d.reader.NumPage() {
		return "", &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "extract_text",
			Path:    d.path,
			Err:     fmt.Errorf("text layer has %d pages, page %d missing", d.reader.NumPage(), pageNum),
		}
	}

	text, err := d.pageText(pageNum)
	if err != nil {
		return "", &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "extract_text",
			Path:    d.path,
			Err:     fmt.Errorf("page %d: %w", pageNum, err),
		}
	}
	return text, nil
}

func (d *PDFCPUDocument) pageText(pageNum int) (text string, err error) {
	// Page lookup walks the page tree and may panic on a broken tree.
	defer recoverParse(&err)
	return d.text.pageText(d.reader.Page(pageNum))
}

// DeletePage removes the page at the given zero-based index
func (d *PDFCPUDocument) DeletePage(index int) error {
	if d.closed {
		return d.closedError("delete_page")
	}
	if err := d.checkIndex("delete_page", index); err != nil {
		return err
	}
	if len(d.remaining) == 1 {
		return &WrapperError{Library: LibraryPDFCPU, Op: "delete_page", Path: d.path, Err: ErrNoPagesLeft}
	}

	d.remaining = append(d.remaining[:index], d.remaining[index+1:]...)
	d.modified = true
	return nil
}

// Modified reports whether any page has been deleted
func (d *PDFCPUDocument) Modified() bool {
	return d.modified
}

// SupportsOverwriteWhileOpen is false: pages are streamed from the source
// file during Save, so truncating it first would corrupt the output.
func (d *PDFCPUDocument) SupportsOverwriteWhileOpen() bool {
	return false
}

// Save writes the current page sequence to path
func (d *PDFCPUDocument) Save(path string) error {
	if d.closed {
		return d.closedError("save")
	}
	if samePath(path, d.path) {
		return &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "save",
			Path:    path,
			Err:     errors.New("cannot overwrite the source file while it is open"),
		}
	}

	if _, err := d.file.Seek(0, io.SeekStart); err != nil {
		return &WrapperError{Library: LibraryPDFCPU, Op: "save", Path: path, Err: err}
	}

	out, err := os.Create(path)
	if err != nil {
		return &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "save",
			Path:    path,
			Err:     fmt.Errorf("failed to create output: %w", err),
		}
	}

	if err := d.writeTo(out); err != nil {
		out.Close()
		os.Remove(path)
		return &WrapperError{Library: LibraryPDFCPU, Op: "save", Path: path, Err: err}
	}

	if err := out.Close(); err != nil {
		os.Remove(path)
		return &WrapperError{Library: LibraryPDFCPU, Op: "save", Path: path, Err: err}
	}

	d.lib.logger.Debug("saved document",
		zap.String("file", d.path),
		zap.String("destination", path),
		zap.Int("pages", len(d.remaining)),
		zap.Bool("modified", d.modified))

	return nil
}

func (d *PDFCPUDocument) writeTo(w io.Writer) (err error) {
	if !d.modified {
		_, err := io.Copy(w, d.file)
		return err
	}

	defer recoverParse(&err)
	removed := d.removedPages()
	if err := api.RemovePages(d.file, w, removed, d.lib.newConfiguration()); err != nil {
		return fmt.Errorf("failed to remove pages %v: %w", removed, err)
	}
	return nil
}

// removedPages returns the source page numbers no longer in the document, in
// pdfcpu page selection syntax.
func (d *PDFCPUDocument) removedPages() []string {
	kept := make(map[int]bool, len(d.remaining))
	for _, n := range d.remaining {
		kept[n] = true
	}

	var removed []string
	for n := 1; n <= d.sourcePages; n++ {
		if !kept[n] {
			removed = append(removed, strconv.Itoa(n))
		}
	}
	return removed
}

// Close releases the underlying file
func (d *PDFCPUDocument) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	return d.file.Close()
}

func (d *PDFCPUDocument) checkIndex(op string, index int) error {
	if index < 0 || index >= len(d.remaining) {
		return &WrapperError{
			Library: LibraryPDFCPU,
			Op:      op,
			Path:    d.path,
			Err:     fmt.Errorf("%w: %d (document has %d pages)", ErrPageOutOfRange, index, len(d.remaining)),
		}
	}
	return nil
}

func (d *PDFCPUDocument) closedError(op string) error {
	return &WrapperError{Library: LibraryPDFCPU, Op: op, Path: d.path, Err: ErrDocumentClosed}
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
