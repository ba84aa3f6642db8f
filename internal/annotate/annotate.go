// Package annotate rewrites notes with their generated backlink and tag lines.
//
// Generated content is two marker lines appended after the note body:
//
//	Links generated: [[Other Note]] [[Third Note]]
//	Tags generated: #alpha #research
//
// Before appending, every line carrying either marker is removed from the
// whole document, so repeated runs replace earlier annotations instead of
// accumulating them.
package annotate

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/spf13/afero"

	nlerrors "github.com/Aman-CERP/notelink/internal/errors"
)

const (
	// LinksMarker starts the generated backlinks line.
	LinksMarker = "Links generated: "
	// TagsMarker starts the generated tags line.
	TagsMarker = "Tags generated: "
)

// UpdateResult reports what Apply did to one note.
type UpdateResult struct {
	Path string
	// Skipped is true when there was nothing to write and the file was not read.
	Skipped bool
	// Changed is true when the content differs from what is on disk.
	// In dry-run mode the file is left untouched either way.
	Changed   bool
	Backlinks int
	Tags      int
}

// Option configures a Writer.
type Option func(*Writer)

// WithDryRun computes results without writing any file.
func WithDryRun(dryRun bool) Option {
	return func(w *Writer) { w.dryRun = dryRun }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(w *Writer) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Writer applies annotations to notes on a filesystem.
type Writer struct {
	fs     afero.Fs
	dryRun bool
	logger *slog.Logger
}

// NewWriter creates a Writer over fs. A nil fs selects the OS filesystem.
func NewWriter(fs afero.Fs, opts ...Option) *Writer {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	w := &Writer{fs: fs, logger: slog.Default()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// DryRun reports whether the writer leaves files untouched.
func (w *Writer) DryRun() bool {
	return w.dryRun
}

// Apply replaces the generated lines of the note at path with the given
// backlinks (display names) and tags (already normalized). When both are
// empty the note is neither read nor written.
func (w *Writer) Apply(path string, backlinks, tags []string) (UpdateResult, error) {
	res := UpdateResult{Path: path, Backlinks: len(backlinks), Tags: len(tags)}
	if len(backlinks) == 0 && len(tags) == 0 {
		res.Skipped = true
		return res, nil
	}

	data, err := afero.ReadFile(w.fs, path)
	if err != nil {
		return res, nlerrors.FileReadFailure(path, err)
	}

	current := string(data)
	updated := Render(current, backlinks, tags)
	if updated == current {
		return res, nil
	}
	res.Changed = true

	if w.dryRun {
		w.logger.Debug("note_annotation_planned", slog.String("path", path))
		return res, nil
	}

	if err := w.writeAtomic(path, []byte(updated)); err != nil {
		return res, nlerrors.FileWriteFailure(path, err)
	}

	w.logger.Debug("note_annotated",
		slog.String("path", path),
		slog.Int("backlinks", len(backlinks)),
		slog.Int("tags", len(tags)))
	return res, nil
}

// writeAtomic writes data to a temp file next to path and renames it over
// path, keeping the original file mode. A symlinked note is written
// through to its target so the link survives.
func (w *Writer) writeAtomic(path string, data []byte) error {
	if _, ok := w.fs.(*afero.OsFs); ok {
		if target, err := filepath.EvalSymlinks(path); err == nil {
			path = target
		}
	}

	mode := os.FileMode(0o644)
	if info, err := w.fs.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	dir := filepath.Dir(path)
	tmp, err := afero.TempFile(w.fs, dir, "."+filepath.Base(path)+".notelink-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() { _ = w.fs.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := w.fs.Chmod(tmpName, mode); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := w.fs.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Strip removes every generated line from content and trims trailing
// whitespace. A line is generated when, ignoring surrounding whitespace, it
// starts with LinksMarker or TagsMarker.
func Strip(content string) string {
	lines := strings.Split(content, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if isGenerated(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimRightFunc(strings.Join(kept, "\n"), unicode.IsSpace)
}

func isGenerated(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, LinksMarker) || strings.HasPrefix(trimmed, TagsMarker)
}

// Render returns content with its generated lines replaced by lines for
// backlinks and tags. Both are sorted; backlinks are wrapped as [[name]].
// With both empty the content is returned unchanged.
func Render(content string, backlinks, tags []string) string {
	if len(backlinks) == 0 && len(tags) == 0 {
		return content
	}

	var b strings.Builder
	b.WriteString(Strip(content))

	if len(backlinks) > 0 {
		links := make([]string, len(backlinks))
		for i, name := range sorted(backlinks) {
			links[i] = "[[" + name + "]]"
		}
		b.WriteString("\n\n")
		b.WriteString(LinksMarker)
		b.WriteString(strings.Join(links, " "))
	}
	if len(tags) > 0 {
		b.WriteString("\n")
		b.WriteString(TagsMarker)
		b.WriteString(strings.Join(sorted(tags), " "))
	}
	b.WriteString("\n")
	return b.String()
}

func sorted(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
