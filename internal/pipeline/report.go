package pipeline

import (
	"time"

	nlerrors "github.com/Aman-CERP/notelink/internal/errors"
)

// Failure is a per-note error that did not stop the run.
type Failure struct {
	Path string
	Err  error
}

// Code returns the structured error code of the failure.
func (f Failure) Code() string {
	return nlerrors.GetCode(f.Err)
}

// ScanReport summarizes a scan phase.
type ScanReport struct {
	RunID    string
	Scanned  int // notes found by the walker
	Stored   int // documents upserted
	Empty    int // stored documents with an empty signature
	Pruned   int // rows removed for notes that no longer exist
	Failures []Failure
	Duration time.Duration
}

// LinkReport summarizes a link phase.
type LinkReport struct {
	RunID       string
	Documents   int
	Compared    int // pairs whose intersection was computed
	Connections int
	Updated     int // notes whose content changed (or would change in a dry run)
	Unchanged   int
	Skipped     int // notes with neither backlinks nor tags
	DryRun      bool
	Failures    []Failure
	Duration    time.Duration
}

// RunReport combines the reports of a full run.
type RunReport struct {
	RunID    string
	Scan     *ScanReport
	Link     *LinkReport
	Duration time.Duration
}

// Failures returns the failures of both phases.
func (r *RunReport) Failures() []Failure {
	var out []Failure
	if r.Scan != nil {
		out = append(out, r.Scan.Failures...)
	}
	if r.Link != nil {
		out = append(out, r.Link.Failures...)
	}
	return out
}
