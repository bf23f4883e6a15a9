package purge

import (
	"errors"

	"go.uber.org/zap"

	"github.com/a3tai/pdf-page-purge/internal/pdf/wrapper"
)

// PageRemover deletes a removal set from a document
type PageRemover struct {
	logger *zap.Logger
}

// NewPageRemover creates a page remover
func NewPageRemover(logger *zap.Logger) *PageRemover {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageRemover{logger: logger}
}

// RemovePages deletes exactly the pages in set, keeping every other page in
// its original relative order. The whole set is checked against the document
// before the first deletion, so an invalid set leaves the document untouched.
func (r *PageRemover) RemovePages(doc wrapper.PDFDocument, set RemovalSet) error {
	pageCount, err := doc.GetPageCount()
	if err != nil {
		return &DeletionError{Path: doc.Path(), Index: -1, Err: err}
	}

	if index, err := set.Validate(pageCount); err != nil {
		return &DeletionError{Path: doc.Path(), Index: index, PageCount: pageCount, Err: err}
	}

	order := set.Descending()
	for _, index := range order {
		if err := doc.DeletePage(index); err != nil {
			return &DeletionError{Path: doc.Path(), Index: index, PageCount: pageCount, Err: err}
		}
	}
	if len(order) > 0 && !doc.Modified() {
		return &DeletionError{Path: doc.Path(), Index: order[0], PageCount: pageCount,
			Err: errors.New("engine reports the document unchanged after deletion")}
	}

	r.logger.Debug("pages removed",
		zap.String("file", doc.Path()),
		zap.Ints("indices", order),
		zap.Int("remaining", pageCount-len(order)))

	return nil
}
