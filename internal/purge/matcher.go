package purge

import (
	"strings"

	"golang.org/x/text/cases"
)

// PhraseMatcher tests page text for a literal phrase, ignoring case.
// Case is compared with Unicode case folding, not just ASCII.
type PhraseMatcher struct {
	phrase string
	folded string
}

// NewPhraseMatcher creates a matcher for phrase. The phrase is used as is:
// it is never interpreted as a pattern and surrounding spaces are kept.
func NewPhraseMatcher(phrase string) (*PhraseMatcher, error) {
	if strings.TrimSpace(phrase) == "" {
		return nil, ErrEmptyPhrase
	}
	return &PhraseMatcher{
		phrase: phrase,
		folded: fold(phrase),
	}, nil
}

// Phrase returns the configured phrase
func (m *PhraseMatcher) Phrase() string {
	return m.phrase
}

// Matches reports whether pageText contains the phrase
func (m *PhraseMatcher) Matches(pageText string) bool {
	if pageText == "" {
		return false
	}
	return strings.Contains(fold(pageText), m.folded)
}

var folder = cases.Fold()

func fold(s string) string {
	return folder.String(s)
}
