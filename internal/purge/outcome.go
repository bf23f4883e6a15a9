package purge

import (
	"time"
)

// Outcome is the per-file result of a batch run
type Outcome string

const (
	OutcomeSkippedNoMatch   Outcome = "skipped-no-match"
	OutcomePassedThrough    Outcome = "passed-through"
	OutcomeSkippedAllMatch  Outcome = "skipped-all-match"
	OutcomeSkippedOpenError Outcome = "skipped-open-error"
	OutcomeModified         Outcome = "modified-and-saved"
	OutcomeWouldModify      Outcome = "would-modify"
	OutcomeSaveError        Outcome = "save-error"
	OutcomeDeleteError      Outcome = "delete-error"
)

// NeedsAttention reports whether a file with this outcome should be looked
// at by a person after the run.
func (o Outcome) NeedsAttention() bool {
	switch o {
	case OutcomeSkippedAllMatch, OutcomeSkippedOpenError, OutcomeSaveError, OutcomeDeleteError:
		return true
	default:
		return false
	}
}

// FileResult describes what happened to one input file. RemovedPages lists
// the 1-based source page numbers selected for removal.
type FileResult struct {
	Path               string  `json:"path"`
	Destination        string  `json:"destination,omitempty"`
	Outcome            Outcome `json:"outcome"`
	PageCount          int     `json:"page_count"`
	RemovedPages       []int   `json:"removed_pages,omitempty"`
	ExtractionFailures int     `json:"extraction_failures,omitempty"`
	Err                error   `json:"-"`
}

// Message returns the error text of the result, or "" when it has none
func (r FileResult) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Summary aggregates the results of one batch run
type Summary struct {
	RunID       string          `json:"run_id"`
	Phrase      string          `json:"phrase"`
	DryRun      bool            `json:"dry_run"`
	Processed   int             `json:"processed"`
	Modified    int             `json:"modified"`
	Counts      map[Outcome]int `json:"counts"`
	Files       []FileResult    `json:"files"`
	Interrupted bool            `json:"interrupted,omitempty"`
	Unprocessed []string        `json:"unprocessed,omitempty"`
	Started     time.Time       `json:"started"`
	Duration    time.Duration   `json:"duration"`
}

func newSummary(runID, phrase string, dryRun bool) *Summary {
	return &Summary{
		RunID:   runID,
		Phrase:  phrase,
		DryRun:  dryRun,
		Counts:  make(map[Outcome]int),
		Files:   []FileResult{},
		Started: time.Now(),
	}
}

func (s *Summary) record(result FileResult) {
	s.Processed++
	if result.Outcome == OutcomeModified {
		s.Modified++
	}
	s.Counts[result.Outcome]++
	s.Files = append(s.Files, result)
}

// NeedsAttention returns how many files ended with an outcome that needs
// a person to look at them.
func (s *Summary) NeedsAttention() int {
	n := 0
	for _, f := range s.Files {
		if f.Outcome.NeedsAttention() {
			n++
		}
	}
	return n
}
