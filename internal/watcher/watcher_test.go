package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nlerrors "github.com/Aman-CERP/notelink/internal/errors"
)

func testOptions() Options {
	opts := DefaultOptions()
	opts.Debounce = 50 * time.Millisecond
	return opts
}

// startWatcher starts a watcher on dir, waits until dirs directories are
// registered and stops it when the test ends.
func startWatcher(t *testing.T, dir string, opts Options, dirs int) *Watcher {
	t.Helper()
	w, err := New(dir, opts, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = w.Stop()
	})

	require.Eventually(t, func() bool { return w.WatchedDirs() == dirs }, 2*time.Second, 10*time.Millisecond)
	return w
}

// waitFor collects batches until one holds path, failing after timeout.
func waitFor(t *testing.T, w *Watcher, path string, timeout time.Duration) (FileEvent, [][]FileEvent) {
	t.Helper()
	var seen [][]FileEvent
	deadline := time.After(timeout)
	for {
		select {
		case batch, ok := <-w.Events():
			require.True(t, ok, "events closed early")
			seen = append(seen, batch)
			for _, e := range batch {
				if e.Path == path {
					return e, seen
				}
			}
		case <-deadline:
			t.Fatalf("no event for %s (saw %v)", path, seen)
			return FileEvent{}, seen
		}
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestOperation_String(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{OpCreate, "CREATE"},
		{OpModify, "MODIFY"},
		{OpDelete, "DELETE"},
		{OpRename, "RENAME"},
		{OpIgnoreChange, "IGNORE_CHANGE"},
		{OpConfigChange, "CONFIG_CHANGE"},
		{Operation(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.op.String())
		})
	}
}

func TestHasOperation(t *testing.T) {
	batch := []FileEvent{{Path: "a.md", Operation: OpModify}, {Path: ".notelink.yaml", Operation: OpConfigChange}}

	assert.True(t, HasOperation(batch, OpConfigChange))
	assert.False(t, HasOperation(batch, OpIgnoreChange))
	assert.False(t, HasOperation(nil, OpModify))
}

func TestOptions_WithDefaults(t *testing.T) {
	opts := Options{}.WithDefaults()

	assert.Equal(t, 500*time.Millisecond, opts.Debounce)
	assert.Equal(t, 16, opts.EventBufferSize)
	assert.Equal(t, []string{".md"}, opts.Extensions)
	assert.Equal(t, []string{".notelink.yaml", ".notelink.yml"}, opts.ConfigFiles)
}

func TestNew_MissingVault(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), DefaultOptions(), nil)

	require.Error(t, err)
	assert.Equal(t, nlerrors.ErrCodeInvalidPath, nlerrors.GetCode(err))
}

func TestWatcher_SymlinkedRoot(t *testing.T) {
	// Given: a vault reached through a symlink
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	link := filepath.Join(t.TempDir(), "vault")
	if err := os.Symlink(dir, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	// When: watching the link
	w := startWatcher(t, link, testOptions(), 1)

	// Then: the real directory is watched and its notes are reported
	assert.Equal(t, dir, w.Root())
	mustWrite(t, filepath.Join(dir, "One.md"), "alpha\n")
	waitFor(t, w, "One.md", 3*time.Second)
}

func TestWatcher_Classify(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, ".gitignore"), "drafts/\n")
	opts := testOptions()
	opts.ExcludePatterns = []string{"archive/"}
	w, err := New(dir, opts, nil)
	require.NoError(t, err)
	defer w.Stop()

	tests := []struct {
		name   string
		rel    string
		isDir  bool
		op     fsnotify.Op
		expect Operation
		ok     bool
	}{
		{"note written", "research/One.md", false, fsnotify.Write, OpModify, true},
		{"note created", "One.md", false, fsnotify.Create, OpCreate, true},
		{"note removed", "One.md", false, fsnotify.Remove, OpDelete, true},
		{"note renamed away", "One.md", false, fsnotify.Rename, OpRename, true},
		{"upper case extension", "Upper.MD", false, fsnotify.Write, OpModify, true},
		{"chmod ignored", "One.md", false, fsnotify.Chmod, 0, false},
		{"non-note file", "image.png", false, fsnotify.Create, 0, false},
		{"annotate temp file", "research/.One.md.notelink-123.tmp", false, fsnotify.Create, 0, false},
		{"data dir", ".notelink/notes.db", false, fsnotify.Write, 0, false},
		{"hidden dir", ".obsidian/workspace.md", false, fsnotify.Write, 0, false},
		{"gitignored dir", "drafts/Idea.md", false, fsnotify.Write, 0, false},
		{"excluded dir", "archive/Old.md", false, fsnotify.Write, 0, false},
		{"new directory", "inbox", true, fsnotify.Create, OpCreate, true},
		{"ignore file", "research/.notelinkignore", false, fsnotify.Write, OpIgnoreChange, true},
		{"root gitignore", ".gitignore", false, fsnotify.Write, OpIgnoreChange, true},
		{"vault config", ".notelink.yaml", false, fsnotify.Write, OpConfigChange, true},
		{"root itself", ".", true, fsnotify.Write, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe, ok := w.classify(tt.rel, tt.isDir, tt.op)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expect, fe.Operation)
				assert.Equal(t, tt.rel, fe.Path)
				assert.Equal(t, tt.isDir, fe.IsDir)
			}
		})
	}
}

func TestWatcher_ReportsNoteChanges(t *testing.T) {
	// Given: a watched vault with one note
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "research", "One.md"), "alpha\n")
	w := startWatcher(t, dir, testOptions(), 2)

	// When: the note is edited
	mustWrite(t, filepath.Join(dir, "research", "One.md"), "alpha beta\n")

	// Then: a batch reports it
	e, _ := waitFor(t, w, "research/One.md", 3*time.Second)
	assert.False(t, e.IsDir)
}

func TestWatcher_SkipsDataDirAndOtherFiles(t *testing.T) {
	// Given: a watched vault that already has a data dir
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".notelink"), 0o755))
	w := startWatcher(t, dir, testOptions(), 1)

	// When: the store, a non-note and a note change
	mustWrite(t, filepath.Join(dir, ".notelink", "notes.db"), "db")
	mustWrite(t, filepath.Join(dir, "image.png"), "png")
	mustWrite(t, filepath.Join(dir, "Two.md"), "gamma\n")

	// Then: only the note is reported
	_, seen := waitFor(t, w, "Two.md", 3*time.Second)
	for _, batch := range seen {
		for _, e := range batch {
			assert.NotEqual(t, "image.png", e.Path)
			assert.NotContains(t, e.Path, ".notelink/")
		}
	}
}

func TestWatcher_FollowsNewDirectories(t *testing.T) {
	// Given: a watched vault
	dir := t.TempDir()
	w := startWatcher(t, dir, testOptions(), 1)

	// When: a folder is created with a note in it
	mustWrite(t, filepath.Join(dir, "inbox", "New.md"), "delta\n")

	// Then: the note is reported and the folder is watched
	waitFor(t, w, "inbox/New.md", 3*time.Second)
	assert.Eventually(t, func() bool { return w.WatchedDirs() == 2 }, 2*time.Second, 10*time.Millisecond)

	// And: later edits inside the folder are reported too
	mustWrite(t, filepath.Join(dir, "inbox", "Later.md"), "epsilon\n")
	waitFor(t, w, "inbox/Later.md", 3*time.Second)
}

func TestWatcher_ReportsIgnoreAndConfigChanges(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, dir, testOptions(), 1)

	mustWrite(t, filepath.Join(dir, ".notelink.yaml"), "version: 1\n")
	e, _ := waitFor(t, w, ".notelink.yaml", 3*time.Second)
	assert.Equal(t, OpConfigChange, e.Operation)

	mustWrite(t, filepath.Join(dir, ".gitignore"), "drafts/\n")
	e, _ = waitFor(t, w, ".gitignore", 3*time.Second)
	assert.Equal(t, OpIgnoreChange, e.Operation)
}

func TestWatcher_StopClosesChannels(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, testOptions(), nil)
	require.NoError(t, err)

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())

	_, ok := <-w.Events()
	assert.False(t, ok)
	_, ok = <-w.Errors()
	assert.False(t, ok)
}

func TestWatcher_StartReturnsOnCancel(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, testOptions(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()
	require.Eventually(t, func() bool { return w.WatchedDirs() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
