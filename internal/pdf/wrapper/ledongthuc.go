package wrapper

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// textExtractor gathers the text of a single ledongthuc page
type textExtractor interface {
	mode() TextMode
	pageText(page pdf.Page) (string, error)
}

func newTextExtractor(mode TextMode) (textExtractor, error) {
	switch mode {
	case TextModePlain, "":
		return plainTextExtractor{}, nil
	case TextModeRows:
		return rowTextExtractor{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTextMode, mode)
	}
}

// wordGap is the horizontal distance, as a fraction of the font size, above
// which two glyphs on the same row are taken to belong to different words.
const wordGap = 0.25

// plainTextExtractor concatenates the page's text runs in content-stream order
type plainTextExtractor struct{}

func (plainTextExtractor) mode() TextMode { return TextModePlain }

func (plainTextExtractor) pageText(page pdf.Page) (text string, err error) {
	defer recoverParse(&err)

	if page.V.IsNull() {
		return "", nil
	}
	// A nil font map makes ledongthuc load the page's own fonts.
	text, err = page.GetPlainText(nil)
	if err != nil {
		return "", err
	}
	// Every text object starts with a newline, so a page with empty text
	// objects yields only whitespace.
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	return text, nil
}

// rowTextExtractor lays glyphs out by position: rows top to bottom joined
// with newlines, glyphs left to right within a row.
type rowTextExtractor struct{}

func (rowTextExtractor) mode() TextMode { return TextModeRows }

func (rowTextExtractor) pageText(page pdf.Page) (text string, err error) {
	defer recoverParse(&err)

	if page.V.IsNull() {
		return "", nil
	}
	return joinRows(page.Content().Text), nil
}

// joinRows groups glyphs sharing a baseline into rows. A space is inserted
// between glyphs of one row that are further apart than wordGap.
func joinRows(glyphs []pdf.Text) string {
	sorted := make([]pdf.Text, 0, len(glyphs))
	for _, g := range glyphs {
		if g.S != "" {
			sorted = append(sorted, g)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		yi, yj := math.Round(sorted[i].Y), math.Round(sorted[j].Y)
		if yi != yj {
			return yi > yj
		}
		return sorted[i].X < sorted[j].X
	})

	var sb strings.Builder
	for i, g := range sorted {
		if i > 0 {
			prev := sorted[i-1]
			switch {
			case math.Round(prev.Y) != math.Round(g.Y):
				sb.WriteByte('\n')
			case g.X-(prev.X+prev.W) > wordGap*g.FontSize &&
				!strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(g.S, " "):
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(g.S)
	}
	return strings.TrimSpace(sb.String())
}

// openTextReader opens a ledongthuc reader over an already opened source
func openTextReader(src io.ReaderAt, size int64) (r *pdf.Reader, err error) {
	defer recoverParse(&err)
	return pdf.NewReader(src, size)
}

// recoverParse converts a parser panic into an error. Both ledongthuc and
// pdfcpu panic on some malformed files instead of returning errors.
func recoverParse(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("malformed PDF content: %v", r)
	}
}
