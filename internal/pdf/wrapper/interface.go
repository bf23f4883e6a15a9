package wrapper

import (
	"errors"
	"fmt"
)

// PDFLibrary is a PDF engine instance. It is created once per batch, used to
// open every document of that batch and closed once when the batch ends.
type PDFLibrary interface {
	OpenFile(path string) (PDFDocument, error)
	Validate() error
	Close() error

	GetLibraryType() LibraryType
	GetVersion() string
}

// PDFDocument is an opened PDF whose page sequence can be read and edited.
//
// Page indices are zero-based and refer to the current page sequence: deleting
// page k shifts every page after k down by one.
type PDFDocument interface {
	Path() string
	GetPageCount() (int, error)

	// ExtractText returns the concatenated text of the page at index. A page
	// without extractable text yields "" and a nil error.
	ExtractText(index int) (string, error)

	DeletePage(index int) error
	Modified() bool

	// Save writes the current page sequence to path. Saving an unmodified
	// document writes the source bytes unchanged.
	Save(path string) error

	// SupportsOverwriteWhileOpen reports whether Save may target the
	// document's own source path while it is still open.
	SupportsOverwriteWhileOpen() bool

	// Close releases the document. It is safe to call more than once.
	Close() error
}

// LibraryType identifies the engine behind a PDFLibrary
type LibraryType string

const (
	LibraryPDFCPU LibraryType = "pdfcpu"
)

// TextMode selects how page text is gathered from a page
type TextMode string

const (
	// TextModePlain extracts the page's text runs in content-stream order.
	TextModePlain TextMode = "plain"
	// TextModeRows enumerates words row by row, top to bottom.
	TextModeRows TextMode = "rows"
)

// WrapperError reports a failed engine operation
type WrapperError struct {
	Library LibraryType `json:"library"`
	Op      string      `json:"operation"`
	Path    string      `json:"path,omitempty"`
	Err     error       `json:"error"`
}

func (e *WrapperError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("PDF %s library error in %s (%s): %v", e.Library, e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("PDF %s library error in %s: %v", e.Library, e.Op, e.Err)
}

func (e *WrapperError) Unwrap() error {
	return e.Err
}

// Common error variables
var (
	ErrUnsupportedLibrary  = errors.New("unsupported library type")
	ErrUnsupportedTextMode = errors.New("unsupported text mode")
	ErrLibraryClosed       = errors.New("library is closed")
	ErrDocumentClosed      = errors.New("document is closed")
	ErrPageOutOfRange      = errors.New("page index out of range")
	ErrNoPagesLeft         = errors.New("cannot delete the last remaining page")
)
