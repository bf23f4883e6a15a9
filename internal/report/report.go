// Package report renders batch results as plain text for people: one status
// line per file and a closing summary.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/a3tai/pdf-page-purge/internal/purge"
)

// outcomeOrder is the order outcomes are listed in a summary
var outcomeOrder = []purge.Outcome{
	purge.OutcomeModified,
	purge.OutcomeWouldModify,
	purge.OutcomePassedThrough,
	purge.OutcomeSkippedNoMatch,
	purge.OutcomeSkippedAllMatch,
	purge.OutcomeSkippedOpenError,
	purge.OutcomeSaveError,
	purge.OutcomeDeleteError,
}

// FileLine formats the status line of one file, without a trailing newline
func FileLine(r purge.FileResult) string {
	text := fmt.Sprintf("[%s] %s", r.Outcome, r.Path)

	switch r.Outcome {
	case purge.OutcomeModified:
		text += fmt.Sprintf(": removed %s of %d", pageList(r.RemovedPages), r.PageCount)
		if r.Destination != "" && r.Destination != r.Path {
			text += fmt.Sprintf(" -> %s", r.Destination)
		}
	case purge.OutcomeWouldModify:
		text += fmt.Sprintf(": would remove %s of %d", pageList(r.RemovedPages), r.PageCount)
	case purge.OutcomePassedThrough:
		text += fmt.Sprintf(": no match, copied to %s", r.Destination)
	case purge.OutcomeSkippedNoMatch:
		text += fmt.Sprintf(": no match in %d page(s)", r.PageCount)
	case purge.OutcomeSkippedAllMatch:
		text += fmt.Sprintf(": all %d page(s) match, left untouched", r.PageCount)
	default:
		if msg := r.Message(); msg != "" {
			text += ": " + msg
		}
	}

	if r.ExtractionFailures > 0 {
		text += fmt.Sprintf(" (%d page(s) unreadable)", r.ExtractionFailures)
	}
	return text
}

// WriteFileLine writes the status line of one file
func WriteFileLine(w io.Writer, r purge.FileResult) error {
	_, err := fmt.Fprintln(w, FileLine(r))
	return err
}

// FormatSummary formats the closing summary of a run
func FormatSummary(s *purge.Summary) string {
	var b strings.Builder

	title := "Summary"
	if s.DryRun {
		title += " (dry run, nothing written)"
	}
	fmt.Fprintf(&b, "%s\n", title)
	fmt.Fprintf(&b, "Run: %s\n", s.RunID)
	fmt.Fprintf(&b, "Phrase: %q\n", s.Phrase)
	fmt.Fprintf(&b, "Files processed: %d\n", s.Processed)
	fmt.Fprintf(&b, "Files modified: %d\n", s.Modified)

	for _, outcome := range outcomeOrder {
		if n := s.Counts[outcome]; n > 0 {
			fmt.Fprintf(&b, "  %s: %d\n", outcome, n)
		}
	}

	if n := s.NeedsAttention(); n > 0 {
		fmt.Fprintf(&b, "Files needing attention: %d\n", n)
		for _, f := range s.Files {
			if !f.Outcome.NeedsAttention() {
				continue
			}
			reason := f.Message()
			if reason == "" {
				reason = string(f.Outcome)
			}
			fmt.Fprintf(&b, "  - %s: %s\n", f.Path, reason)
		}
	}

	if s.Interrupted {
		fmt.Fprintf(&b, "Interrupted: %d file(s) not processed\n", len(s.Unprocessed))
		for _, path := range s.Unprocessed {
			fmt.Fprintf(&b, "  - %s\n", path)
		}
	}

	fmt.Fprintf(&b, "Duration: %s\n", s.Duration.Round(time.Millisecond))
	return b.String()
}

// WriteSummary writes the closing summary of a run
func WriteSummary(w io.Writer, s *purge.Summary) error {
	_, err := io.WriteString(w, FormatSummary(s))
	return err
}

// Format renders a complete report: every file line followed by the summary
func Format(s *purge.Summary) string {
	var b strings.Builder
	for _, f := range s.Files {
		b.WriteString(FileLine(f))
		b.WriteByte('\n')
	}
	if len(s.Files) > 0 {
		b.WriteByte('\n')
	}
	b.WriteString(FormatSummary(s))
	return b.String()
}

func pageList(pages []int) string {
	if len(pages) == 0 {
		return "no pages"
	}
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = strconv.Itoa(p)
	}
	label := "page "
	if len(pages) > 1 {
		label = "pages "
	}
	return label + strings.Join(parts, ", ")
}
