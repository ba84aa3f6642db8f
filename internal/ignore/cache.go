package ignore

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/afero"
)

// FileNames are the per-directory ignore files, read in this order.
var FileNames = []string{".gitignore", ".notelinkignore"}

// DefaultCacheSize bounds the number of directories whose matchers are kept.
const DefaultCacheSize = 512

// Cache loads and memoizes the ignore files of vault directories.
type Cache struct {
	fs    afero.Fs
	root  string
	dirs  *lru.Cache[string, *Matcher]
	extra *Matcher
}

// NewCache creates a Cache for the vault at root. extra patterns apply at
// the root before any ignore file.
func NewCache(fs afero.Fs, root string, size int, extra ...string) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	dirs, err := lru.New[string, *Matcher](size)
	if err != nil {
		return nil, fmt.Errorf("create ignore cache: %w", err)
	}
	return &Cache{fs: fs, root: root, dirs: dirs, extra: New(extra...)}, nil
}

// Dir returns the matcher for the ignore files directly inside relDir
// (slash-separated, "" for the root). A directory without ignore files
// yields an empty matcher.
func (c *Cache) Dir(relDir string) (*Matcher, error) {
	relDir = filepath.ToSlash(relDir)
	if relDir == "." {
		relDir = ""
	}
	if m, ok := c.dirs.Get(relDir); ok {
		return m, nil
	}

	m := &Matcher{}
	for _, name := range FileNames {
		p := filepath.Join(c.root, filepath.FromSlash(relDir), name)
		data, err := afero.ReadFile(c.fs, p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		if err := m.AddFrom(bytes.NewReader(data), relDir); err != nil {
			return nil, err
		}
	}
	c.dirs.Add(relDir, m)
	return m, nil
}

// Chain returns the matchers governing rel: the extra patterns, then the
// ignore files of every ancestor directory from the root down.
func (c *Cache) Chain(rel string) (Chain, error) {
	chain := Chain{c.extra}
	dirs := []string{""}
	for d := baseOf(rel); d != ""; d = baseOf(d) {
		dirs = append(dirs, d)
	}
	// dirs holds the root first, then the deepest ancestor upwards.
	ordered := append(dirs[:1:1], reverse(dirs[1:])...)
	for _, d := range ordered {
		m, err := c.Dir(d)
		if err != nil {
			return nil, err
		}
		chain = append(chain, m)
	}
	return chain, nil
}

// Ignored reports whether rel is ignored by the extra patterns or any
// ancestor ignore file.
func (c *Cache) Ignored(rel string, isDir bool) (bool, error) {
	chain, err := c.Chain(rel)
	if err != nil {
		return false, err
	}
	return chain.Match(rel, isDir), nil
}

// Invalidate drops the cached matcher of relDir so its ignore files are
// read again on next use.
func (c *Cache) Invalidate(relDir string) {
	relDir = filepath.ToSlash(relDir)
	if relDir == "." {
		relDir = ""
	}
	c.dirs.Remove(relDir)
}

// Len returns the number of cached directories.
func (c *Cache) Len() int {
	return c.dirs.Len()
}

func reverse(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[len(in)-1-i] = s
	}
	return out
}
