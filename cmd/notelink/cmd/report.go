package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	nlerrors "github.com/Aman-CERP/notelink/internal/errors"
	"github.com/Aman-CERP/notelink/internal/pipeline"
	"github.com/Aman-CERP/notelink/internal/ui"
)

func printScanReport(p *ui.Printer, r *pipeline.ScanReport) {
	if r == nil {
		return
	}
	p.Successf("Scanned %d notes", r.Scanned)
	p.Field("Stored", r.Stored)
	if r.Empty > 0 {
		p.Field("No keywords", r.Empty)
	}
	if r.Pruned > 0 {
		p.Field("Pruned", r.Pruned)
	}
	p.Field("Took", r.Duration.Round(time.Millisecond))
}

func printLinkReport(p *ui.Printer, r *pipeline.LinkReport) {
	if r == nil {
		return
	}
	if r.Documents == 0 {
		p.Warning("No notes stored yet; run 'notelink scan' first")
		return
	}
	if r.DryRun {
		p.Successf("Dry run: %d connections across %d notes", r.Connections, r.Documents)
		p.Field("Would update", r.Updated)
	} else {
		p.Successf("Linked %d notes with %d connections", r.Documents, r.Connections)
		p.Field("Updated", r.Updated)
	}
	p.Field("Unchanged", r.Unchanged)
	if r.Skipped > 0 {
		p.Field("Skipped", r.Skipped)
	}
	p.Field("Took", r.Duration.Round(time.Millisecond))
}

// printFailures lists per-note failures; they never fail the command.
func printFailures(p *ui.Printer, vault string, failures []pipeline.Failure) {
	if len(failures) == 0 {
		return
	}
	p.Newline()
	p.Warningf("%d notes could not be processed", len(failures))
	for _, f := range failures {
		rel, err := filepath.Rel(vault, f.Path)
		if err != nil {
			rel = f.Path
		}
		p.Dim(fmt.Sprintf("  %s  %s (%s)", rel, failureReason(f.Err), f.Code()))
	}
}

func failureReason(err error) string {
	var ne *nlerrors.NotelinkError
	if errors.As(err, &ne) && ne.Cause != nil {
		return ne.Cause.Error()
	}
	return err.Error()
}
