package annotate

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nlerrors "github.com/Aman-CERP/notelink/internal/errors"
)

func writeNote(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func readNote(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(data)
}

func TestRender(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		backlinks []string
		tags      []string
		expect    string
	}{
		{
			name:      "links and tags sorted",
			content:   "Body text\n",
			backlinks: []string{"Zeta", "Alpha"},
			tags:      []string{"#research", "#alpha"},
			expect:    "Body text\n\nLinks generated: [[Alpha]] [[Zeta]]\nTags generated: #alpha #research\n",
		},
		{
			name:    "tags only",
			content: "Body",
			tags:    []string{"#solo"},
			expect:  "Body\nTags generated: #solo\n",
		},
		{
			name:      "links only",
			content:   "Body",
			backlinks: []string{"Other"},
			expect:    "Body\n\nLinks generated: [[Other]]\n",
		},
		{
			name:      "trailing whitespace trimmed",
			content:   "Body  \n\n\t\n",
			backlinks: []string{"Other"},
			tags:      []string{"#x"},
			expect:    "Body\n\nLinks generated: [[Other]]\nTags generated: #x\n",
		},
		{
			name:    "nothing to add",
			content: "Body\nLinks generated: [[Old]]\n",
			expect:  "Body\nLinks generated: [[Old]]\n",
		},
		{
			name:      "leading whitespace kept",
			content:   "\n\n  Indented body",
			backlinks: []string{"B"},
			expect:    "\n\n  Indented body\n\nLinks generated: [[B]]\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, Render(tt.content, tt.backlinks, tt.tags))
		})
	}
}

func TestRender_DoesNotMutateInput(t *testing.T) {
	backlinks := []string{"b", "a"}
	tags := []string{"#y", "#x"}

	_ = Render("Body", backlinks, tags)

	assert.Equal(t, []string{"b", "a"}, backlinks)
	assert.Equal(t, []string{"#y", "#x"}, tags)
}

func TestStrip_RemovesGeneratedLinesAnywhere(t *testing.T) {
	// Given: a note with generated lines from several earlier runs, some indented
	content := "# Title\n" +
		"Links generated: [[First]]\n" +
		"Paragraph one.\n" +
		"   Tags generated: #old\n" +
		"Paragraph two.\n" +
		"\n" +
		"Links generated: [[Second]]\n" +
		"Tags generated: #older #tags\n" +
		"\n" +
		"Links generated: [[Third]]\n" +
		"Tags generated: #oldest\n"

	// When: stripping
	got := Strip(content)

	// Then: only user-authored lines remain
	assert.Equal(t, "# Title\nParagraph one.\nParagraph two.", got)
}

func TestStrip_KeepsLinesMentioningMarkerMidLine(t *testing.T) {
	content := "See: Links generated: is a marker\nLinks generated:no-space"

	assert.Equal(t, content, Strip(content))
}

func TestWriter_ApplyIsIdempotent(t *testing.T) {
	// Given: a note on an in-memory filesystem
	fs := afero.NewMemMapFs()
	writeNote(t, fs, "/vault/note.md", "Some thoughts about graphs.\n")
	w := NewWriter(fs)

	// When: applying the same annotation twice
	first, err := w.Apply("/vault/note.md", []string{"Other"}, []string{"#graphs"})
	require.NoError(t, err)
	afterFirst := readNote(t, fs, "/vault/note.md")

	second, err := w.Apply("/vault/note.md", []string{"Other"}, []string{"#graphs"})
	require.NoError(t, err)
	afterSecond := readNote(t, fs, "/vault/note.md")

	// Then: the second run leaves byte-identical content
	assert.True(t, first.Changed)
	assert.False(t, second.Changed)
	assert.Equal(t, afterFirst, afterSecond)
	assert.Equal(t, "Some thoughts about graphs.\n\nLinks generated: [[Other]]\nTags generated: #graphs\n", afterSecond)
}

func TestWriter_ApplyReplacesPreviousAnnotation(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeNote(t, fs, "/vault/note.md",
		"Body\n\nLinks generated: [[Gone]]\nTags generated: #stale\n\nLinks generated: [[Older]]\n")
	w := NewWriter(fs)

	res, err := w.Apply("/vault/note.md", []string{"New"}, []string{"#fresh"})
	require.NoError(t, err)

	assert.True(t, res.Changed)
	assert.Equal(t, "Body\n\nLinks generated: [[New]]\nTags generated: #fresh\n", readNote(t, fs, "/vault/note.md"))
}

func TestWriter_ApplySkipsEmptyAnnotation(t *testing.T) {
	// Given: a note that would otherwise be stripped
	fs := afero.NewMemMapFs()
	original := "Body\nLinks generated: [[Old]]\n   "
	writeNote(t, fs, "/vault/note.md", original)
	before, err := fs.Stat("/vault/note.md")
	require.NoError(t, err)
	w := NewWriter(fs)

	// When: applying with nothing to write
	res, err := w.Apply("/vault/note.md", nil, []string{})

	// Then: nothing happens
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.False(t, res.Changed)
	after, err := fs.Stat("/vault/note.md")
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
	assert.Equal(t, original, readNote(t, fs, "/vault/note.md"))
}

func TestWriter_ApplySkipsMissingFileWhenEmpty(t *testing.T) {
	w := NewWriter(afero.NewMemMapFs())

	res, err := w.Apply("/vault/missing.md", nil, nil)

	require.NoError(t, err)
	assert.True(t, res.Skipped)
}

func TestWriter_ApplyReadFailure(t *testing.T) {
	w := NewWriter(afero.NewMemMapFs())

	_, err := w.Apply("/vault/missing.md", []string{"Other"}, nil)

	require.Error(t, err)
	assert.Equal(t, nlerrors.ErrCodeFileRead, nlerrors.GetCode(err))
	assert.Equal(t, "/vault/missing.md", nlerrors.Path(err))
	assert.False(t, nlerrors.IsFatal(err))
}

func TestWriter_ApplyWriteFailure(t *testing.T) {
	base := afero.NewMemMapFs()
	writeNote(t, base, "/vault/note.md", "Body")
	w := NewWriter(afero.NewReadOnlyFs(base))

	_, err := w.Apply("/vault/note.md", []string{"Other"}, []string{"#x"})

	require.Error(t, err)
	assert.Equal(t, nlerrors.ErrCodeFileWrite, nlerrors.GetCode(err))
	assert.Equal(t, "Body", readNote(t, base, "/vault/note.md"), "original content untouched")
}

// failAfterCreateFs creates temp files normally, then fails either the
// write into them or the final rename.
type failAfterCreateFs struct {
	afero.Fs
	failWrite  bool
	failRename bool
}

func (f failAfterCreateFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	file, err := f.Fs.OpenFile(name, flag, perm)
	if err != nil || !f.failWrite || !strings.Contains(name, ".notelink-") {
		return file, err
	}
	return failingWriteFile{File: file}, nil
}

func (f failAfterCreateFs) Rename(oldname, newname string) error {
	if f.failRename {
		return errors.New("rename: device busy")
	}
	return f.Fs.Rename(oldname, newname)
}

type failingWriteFile struct {
	afero.File
}

func (failingWriteFile) Write([]byte) (int, error) {
	return 0, errors.New("write: no space left on device")
}

func TestWriter_ApplyFailureAfterTempCreated(t *testing.T) {
	tests := []struct {
		name       string
		failWrite  bool
		failRename bool
		wantCause  string
	}{
		{name: "temp write fails", failWrite: true, wantCause: "no space left"},
		{name: "rename fails", failRename: true, wantCause: "device busy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: a note on a filesystem that fails once the temp file exists
			base := afero.NewMemMapFs()
			writeNote(t, base, "/vault/note.md", "Body")
			w := NewWriter(failAfterCreateFs{Fs: base, failWrite: tt.failWrite, failRename: tt.failRename})

			// When: annotating it
			_, err := w.Apply("/vault/note.md", []string{"Other"}, []string{"#x"})

			// Then: the write fails, the original is intact and no temp file remains
			require.Error(t, err)
			assert.Equal(t, nlerrors.ErrCodeFileWrite, nlerrors.GetCode(err))
			assert.Contains(t, err.Error(), tt.wantCause)
			assert.Equal(t, "Body", readNote(t, base, "/vault/note.md"))

			entries, err := afero.ReadDir(base, "/vault")
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, "note.md", entries[0].Name())
		})
	}
}

func TestWriter_ApplyWritesThroughSymlink(t *testing.T) {
	// Given: a vault note that is a symlink to a file elsewhere
	dir := t.TempDir()
	target := filepath.Join(dir, "shared", "Three.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
	require.NoError(t, os.WriteFile(target, []byte("Body"), 0o644))
	link := filepath.Join(dir, "vault", "Three.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(link), 0o755))
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	w := NewWriter(afero.NewOsFs())

	// When: annotating the note through its link
	_, err := w.Apply(link, []string{"Other"}, nil)
	require.NoError(t, err)

	// Then: the target holds the annotation and the link is preserved
	info, err := os.Lstat(link)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "Body\n\nLinks generated: [[Other]]\n", string(data))
}

func TestWriter_ApplyPreservesModeAndLeavesNoTempFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/vault/private.md", []byte("Secret"), 0o600))
	w := NewWriter(fs)

	_, err := w.Apply("/vault/private.md", []string{"Other"}, nil)
	require.NoError(t, err)

	info, err := fs.Stat("/vault/private.md")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := afero.ReadDir(fs, "/vault")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "private.md", entries[0].Name())
}

func TestWriter_DryRunLeavesFileUntouched(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeNote(t, fs, "/vault/note.md", "Body")
	w := NewWriter(fs, WithDryRun(true))

	res, err := w.Apply("/vault/note.md", []string{"Other"}, []string{"#x"})

	require.NoError(t, err)
	assert.True(t, w.DryRun())
	assert.True(t, res.Changed)
	assert.Equal(t, "Body", readNote(t, fs, "/vault/note.md"))
}

func TestWriter_ReportsCounts(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeNote(t, fs, "/vault/note.md", "Body")
	w := NewWriter(fs)

	res, err := w.Apply("/vault/note.md", []string{"A", "B"}, []string{"#x", "#y", "#z"})

	require.NoError(t, err)
	assert.Equal(t, "/vault/note.md", res.Path)
	assert.Equal(t, 2, res.Backlinks)
	assert.Equal(t, 3, res.Tags)
}
