// Package testutil generates real PDF fixtures for tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"
)

// WritePDF writes a PDF to path with one page per entry in pages. Each entry
// is drawn as the page's text, one line per "\n"; an empty entry yields a
// page without text.
func WritePDF(t testing.TB, path string, pages ...string) {
	t.Helper()

	if len(pages) == 0 {
		t.Fatalf("WritePDF: at least one page is required")
	}

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 14)
	for _, text := range pages {
		doc.AddPage()
		if text == "" {
			continue
		}
		for i, line := range strings.Split(text, "\n") {
			doc.Text(20, 30+float64(i)*10, line)
		}
	}

	if err := doc.OutputFileAndClose(path); err != nil {
		t.Fatalf("WritePDF: writing %s: %v", path, err)
	}
}

// NewPDF writes a PDF named name inside dir and returns its path
func NewPDF(t testing.TB, dir, name string, pages ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	WritePDF(t, path, pages...)
	return path
}

// ReadFile returns the content of path, failing the test on error
func ReadFile(t testing.TB, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	return data
}
