package purge

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/a3tai/pdf-page-purge/internal/pdf/wrapper"
)

// RemovalSet holds the zero-based indices of the pages to delete from one
// document, ascending as discovered.
type RemovalSet []int

// Len returns the number of pages in the set
func (s RemovalSet) Len() int {
	return len(s)
}

// Descending returns a copy of the set sorted high to low, the only order in
// which deleting one page never shifts a page still waiting for deletion.
func (s RemovalSet) Descending() []int {
	out := make([]int, len(s))
	copy(out, s)
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

// PageNumbers returns the set as 1-based page numbers for display
func (s RemovalSet) PageNumbers() []int {
	out := make([]int, len(s))
	for i, index := range s {
		out[i] = index + 1
	}
	return out
}

// Validate checks that every index is unique and lies in [0, pageCount).
// It returns the first offending index with the error.
func (s RemovalSet) Validate(pageCount int) (int, error) {
	seen := make(map[int]bool, len(s))
	for _, index := range s {
		if index < 0 || index >= pageCount {
			return index, fmt.Errorf("index out of range [0, %d)", pageCount)
		}
		if seen[index] {
			return index, fmt.Errorf("duplicate index")
		}
		seen[index] = true
	}
	return -1, nil
}

// Selection is the result of scanning one document
type Selection struct {
	PageCount        int
	Remove           RemovalSet
	ExtractionErrors []*ExtractionError
}

// PageSelector finds the pages of a document whose text contains the phrase
type PageSelector struct {
	matcher *PhraseMatcher
	logger  *zap.Logger
}

// NewPageSelector creates a selector using matcher
func NewPageSelector(matcher *PhraseMatcher, logger *zap.Logger) *PageSelector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageSelector{matcher: matcher, logger: logger}
}

// SelectPagesToRemove scans the pages of doc in ascending order. A page whose
// text cannot be extracted counts as not matching and is recorded in the
// selection's ExtractionErrors; it never fails the document.
func (s *PageSelector) SelectPagesToRemove(doc wrapper.PDFDocument) (*Selection, error) {
	pageCount, err := doc.GetPageCount()
	if err != nil {
		return nil, &OpenError{Path: doc.Path(), Err: err}
	}

	sel := &Selection{
		PageCount: pageCount,
		Remove:    RemovalSet{},
	}

	for index := 0; index < pageCount; index++ {
		text, err := doc.ExtractText(index)
		if err != nil {
			extractErr := &ExtractionError{Path: doc.Path(), Index: index, Err: err}
			sel.ExtractionErrors = append(sel.ExtractionErrors, extractErr)
			s.logger.Warn("page text unavailable, treating page as not matching",
				zap.String("file", doc.Path()),
				zap.Int("page", index+1),
				zap.Error(err))
			continue
		}

		if s.matcher.Matches(text) {
			sel.Remove = append(sel.Remove, index)
			s.logger.Debug("page matches phrase",
				zap.String("file", doc.Path()),
				zap.Int("page", index+1))
		}
	}

	return sel, nil
}
