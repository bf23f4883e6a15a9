package purge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPhraseMatcher_EmptyPhrase(t *testing.T) {
	for _, phrase := range []string{"", "   ", "\t\n"} {
		m, err := NewPhraseMatcher(phrase)
		assert.ErrorIs(t, err, ErrEmptyPhrase)
		assert.Nil(t, m)
	}
}

func TestPhraseMatcher_Matches(t *testing.T) {
	tests := []struct {
		name   string
		phrase string
		text   string
		want   bool
	}{
		{name: "exact", phrase: "information missing", text: "information missing", want: true},
		{name: "upper case text", phrase: "information missing", text: "INFORMATION MISSING", want: true},
		{name: "mixed case phrase", phrase: "DrAfT", text: "this is a draft copy", want: true},
		{name: "substring of longer text", phrase: "missing", text: "page 4\nInformation Missing\nend", want: true},
		{name: "no match", phrase: "DRAFT", text: "final version", want: false},
		{name: "empty text", phrase: "DRAFT", text: "", want: false},
		{name: "dot is literal", phrase: "a.c", text: "abc", want: false},
		{name: "dot matches dot", phrase: "a.c", text: "xA.Cx", want: true},
		{name: "brackets are literal", phrase: "[x]", text: "option [X] selected", want: true},
		{name: "star is literal", phrase: "a*", text: "aaaa", want: false},
		{name: "regex anchors are literal", phrase: "^end$", text: "the ^END$ marker", want: true},
		{name: "non-ascii letters", phrase: "ÉTÉ MANQUANT", text: "rapport été manquant", want: true},
		{name: "spaces are kept", phrase: " missing ", text: "informationmissing", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewPhraseMatcher(tt.phrase)
			require.NoError(t, err)
			assert.Equal(t, tt.phrase, m.Phrase())
			assert.Equal(t, tt.want, m.Matches(tt.text))
		})
	}
}
