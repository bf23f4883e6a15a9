package purge

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyPhrase is returned when a run is configured without a phrase
	ErrEmptyPhrase = errors.New("phrase cannot be empty")

	// ErrAllPagesMatch marks a document left untouched because removing the
	// matching pages would leave it empty.
	ErrAllPagesMatch = errors.New("every page matches the phrase")

	// ErrNoEngine is returned when a runner is built without an engine constructor
	ErrNoEngine = errors.New("PDF engine constructor cannot be nil")
)

// OpenError reports a source file that could not be opened or inspected
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("cannot open %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

// ExtractionError reports a page whose text could not be extracted. The page
// is treated as not matching.
type ExtractionError struct {
	Path  string
	Index int
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("cannot extract text of page %d in %s: %v", e.Index+1, e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// SaveError reports a failed write of a document to its destination
type SaveError struct {
	Path        string
	Destination string
	Err         error
}

func (e *SaveError) Error() string {
	if e.Destination == "" || e.Destination == e.Path {
		return fmt.Sprintf("cannot save %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("cannot save %s to %s: %v", e.Path, e.Destination, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// DeletionError reports a removal set that does not fit the document. It
// signals a bug in page selection, not an environmental problem.
type DeletionError struct {
	Path      string
	Index     int
	PageCount int
	Err       error
}

func (e *DeletionError) Error() string {
	return fmt.Sprintf("cannot delete page index %d of %d in %s: %v", e.Index, e.PageCount, e.Path, e.Err)
}

func (e *DeletionError) Unwrap() error {
	return e.Err
}
