package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nlerrors "github.com/Aman-CERP/notelink/internal/errors"
)

func vaultFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/vault", 0o755))
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, "/vault/"+name, []byte(content), 0o644))
	}
	return fs
}

func relPaths(files []FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

func TestScanner_Scan_FindsNotesInLexicalOrder(t *testing.T) {
	// Given: a vault with notes in nested folders and other files
	fs := vaultFs(t, map[string]string{
		"zeta.md":               "z",
		"Alpha.md":              "a",
		"projects/graph.md":     "g",
		"projects/image.png":    "png",
		"projects/deep/x.MD":    "x",
		"journal/2024-01-01.md": "j",
	})
	s := New(fs, DefaultScanOptions(), nil)

	// When: scanning
	files, err := s.Scan(context.Background(), "/vault")

	// Then: only notes are returned, walk order is lexical
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Alpha.md",
		"journal/2024-01-01.md",
		"projects/deep/x.MD",
		"projects/graph.md",
		"zeta.md",
	}, relPaths(files))
}

func TestScanner_Scan_PopulatesFileInfo(t *testing.T) {
	fs := vaultFs(t, map[string]string{"Reading List/Dune.md": "spice"})
	s := New(fs, DefaultScanOptions(), nil)

	files, err := s.Scan(context.Background(), "/vault")

	require.NoError(t, err)
	require.Len(t, files, 1)
	f := files[0]
	assert.Equal(t, "Reading List/Dune.md", f.Path)
	assert.Equal(t, "/vault/Reading List/Dune.md", f.AbsPath)
	assert.Equal(t, "Dune", f.Name)
	assert.Equal(t, "Reading List", f.Group)
	assert.Equal(t, int64(5), f.Size)
}

func TestScanner_Scan_SkipsHiddenEntries(t *testing.T) {
	fs := vaultFs(t, map[string]string{
		".obsidian/workspace.md": "",
		".trash/old.md":          "",
		".notelink/cache.md":     "",
		".hidden.md":             "",
		"visible.md":             "",
	})
	s := New(fs, DefaultScanOptions(), nil)

	files, err := s.Scan(context.Background(), "/vault")

	require.NoError(t, err)
	assert.Equal(t, []string{"visible.md"}, relPaths(files))
}

func TestScanner_Scan_RespectsIgnoreFiles(t *testing.T) {
	fs := vaultFs(t, map[string]string{
		".gitignore":               "drafts/\n",
		"projects/.notelinkignore": "*.wip.md\n",
		"drafts/a.md":              "",
		"projects/plan.wip.md":     "",
		"projects/plan.md":         "",
		"plan.wip.md":              "",
	})
	s := New(fs, DefaultScanOptions(), nil)

	files, err := s.Scan(context.Background(), "/vault")

	require.NoError(t, err)
	assert.Equal(t, []string{"plan.wip.md", "projects/plan.md"}, relPaths(files))
}

func TestScanner_Scan_ExcludePatternsWithoutIgnoreFiles(t *testing.T) {
	fs := vaultFs(t, map[string]string{
		".gitignore":         "*.md\n",
		"templates/daily.md": "",
		"note.md":            "",
	})
	s := New(fs, ScanOptions{ExcludePatterns: []string{"templates/"}}, nil)

	files, err := s.Scan(context.Background(), "/vault")

	require.NoError(t, err)
	assert.Equal(t, []string{"note.md"}, relPaths(files))
}

func TestScanner_Scan_CustomExtensions(t *testing.T) {
	fs := vaultFs(t, map[string]string{
		"a.md":       "",
		"b.markdown": "",
		"c.txt":      "",
	})
	s := New(fs, ScanOptions{Extensions: []string{"markdown", ".TXT"}}, nil)

	files, err := s.Scan(context.Background(), "/vault")

	require.NoError(t, err)
	assert.Equal(t, []string{"b.markdown", "c.txt"}, relPaths(files))
}

func TestScanner_Scan_ReportsLargeFiles(t *testing.T) {
	// Given: a note above the size limit
	fs := vaultFs(t, map[string]string{
		"small.md": "ok",
		"big.md":   "this one is far too large",
	})
	s := New(fs, ScanOptions{MaxFileSize: 10}, nil)

	// When: scanning
	files, err := s.Scan(context.Background(), "/vault")

	// Then: it is returned with a per-file read error instead of dropped
	require.NoError(t, err)
	require.Equal(t, []string{"big.md", "small.md"}, relPaths(files))
	require.Error(t, files[0].Err)
	assert.Equal(t, nlerrors.ErrCodeFileRead, nlerrors.GetCode(files[0].Err))
	assert.Equal(t, "/vault/big.md", nlerrors.Path(files[0].Err))
	assert.NoError(t, files[1].Err)
}

// symlink creates link pointing at target, skipping the test where the
// platform refuses.
func symlink(t *testing.T, target, link string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(link), 0o755))
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
}

func diskVault(t *testing.T, files map[string]string) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestScanner_Scan_SymlinkedRoot(t *testing.T) {
	// Given: a vault reached through a symlink
	target := diskVault(t, map[string]string{"One.md": "one", "sub/Two.md": "two"})
	link := filepath.Join(t.TempDir(), "vault")
	symlink(t, target, link)
	s := New(afero.NewOsFs(), DefaultScanOptions(), nil)

	// When: scanning the link
	files, err := s.Scan(context.Background(), link)

	// Then: the notes are found under the resolved root
	require.NoError(t, err)
	require.Equal(t, []string{"One.md", "sub/Two.md"}, relPaths(files))
	assert.Equal(t, filepath.Join(target, "One.md"), files[0].AbsPath)
}

func TestScanner_Scan_SymlinkedEntries(t *testing.T) {
	// Given: a vault with a linked note, a broken link and a linked folder
	outside := diskVault(t, map[string]string{"Three.md": "three", "folder/Four.md": "four"})
	vault := diskVault(t, map[string]string{"One.md": "one"})
	symlink(t, filepath.Join(outside, "Three.md"), filepath.Join(vault, "Three.md"))
	symlink(t, filepath.Join(outside, "Gone.md"), filepath.Join(vault, "Gone.md"))
	symlink(t, filepath.Join(outside, "folder"), filepath.Join(vault, "folder"))
	s := New(afero.NewOsFs(), DefaultScanOptions(), nil)

	// When: scanning
	files, err := s.Scan(context.Background(), vault)

	// Then: the linked note is included, the broken link is a failure
	// and the linked folder is not entered
	require.NoError(t, err)
	require.Equal(t, []string{"Gone.md", "One.md", "Three.md"}, relPaths(files))

	assert.Equal(t, nlerrors.ErrCodeFileRead, nlerrors.GetCode(files[0].Err))
	assert.NoError(t, files[2].Err)
	assert.Equal(t, int64(len("three")), files[2].Size)
	assert.Equal(t, "Three", files[2].Name)
}

func TestScanner_Scan_EmptyVault(t *testing.T) {
	fs := vaultFs(t, nil)
	s := New(fs, DefaultScanOptions(), nil)

	files, err := s.Scan(context.Background(), "/vault")

	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestScanner_Scan_MissingRoot(t *testing.T) {
	s := New(afero.NewMemMapFs(), DefaultScanOptions(), nil)

	_, err := s.Scan(context.Background(), "/nowhere")

	require.Error(t, err)
	assert.Equal(t, nlerrors.ErrCodeInvalidPath, nlerrors.GetCode(err))
}

func TestScanner_Scan_RootIsFile(t *testing.T) {
	fs := vaultFs(t, map[string]string{"note.md": ""})
	s := New(fs, DefaultScanOptions(), nil)

	_, err := s.Scan(context.Background(), "/vault/note.md")

	assert.Equal(t, nlerrors.ErrCodeInvalidPath, nlerrors.GetCode(err))
}

func TestScanner_Scan_CanceledContext(t *testing.T) {
	fs := vaultFs(t, map[string]string{"a.md": "", "b.md": ""})
	s := New(fs, DefaultScanOptions(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Scan(ctx, "/vault")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanner_IsNote(t *testing.T) {
	s := New(nil, ScanOptions{}, nil)

	assert.True(t, s.IsNote("a.md"))
	assert.True(t, s.IsNote("A.MD"))
	assert.False(t, s.IsNote("a.md.tmp"))
	assert.False(t, s.IsNote("README"))
}

func TestIsHidden(t *testing.T) {
	assert.True(t, IsHidden(".git"))
	assert.True(t, IsHidden(".note.md.notelink-123.tmp"))
	assert.False(t, IsHidden("."))
	assert.False(t, IsHidden("note.md"))
}
