package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	nlerrors "github.com/Aman-CERP/notelink/internal/errors"
	"github.com/Aman-CERP/notelink/internal/ignore"
	"github.com/Aman-CERP/notelink/internal/store"
)

// Scanner discovers notes in a vault directory.
type Scanner struct {
	fs     afero.Fs
	opts   ScanOptions
	exts   map[string]struct{}
	logger *slog.Logger
}

// New creates a Scanner over fs (nil selects the OS filesystem).
func New(fs afero.Fs, opts ScanOptions, logger *slog.Logger) *Scanner {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = append([]string(nil), DefaultExtensions...)
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}

	exts := make(map[string]struct{}, len(opts.Extensions))
	for _, e := range opts.Extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[e] = struct{}{}
	}

	return &Scanner{fs: fs, opts: opts, exts: exts, logger: logger}
}

// IsNote reports whether name has one of the configured note extensions.
func (s *Scanner) IsNote(name string) bool {
	_, ok := s.exts[strings.ToLower(filepath.Ext(name))]
	return ok
}

// IsHidden reports whether a file or directory name is hidden. Hidden
// directories hold tool state (.obsidian, .git, .trash, .notelink).
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// ResolveRoot returns the absolute form of root with symlinks evaluated.
// A root that cannot be evaluated (missing, or on a non-OS filesystem)
// is returned as its absolute path.
func ResolveRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}

// Scan walks root in lexical order and returns every note it finds.
// Symlinked notes are followed; symlinked directories are not.
// Unreadable subdirectories are logged and skipped; a missing root is
// an InvalidPath error. Notes that are found but cannot be processed
// are returned with Err set.
func (s *Scanner) Scan(ctx context.Context, root string) ([]FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, nlerrors.InvalidPath(root, err)
	}
	if _, ok := s.fs.(*afero.OsFs); ok {
		if absRoot, err = ResolveRoot(absRoot); err != nil {
			return nil, nlerrors.InvalidPath(root, err)
		}
	}
	info, err := s.fs.Stat(absRoot)
	if err != nil {
		return nil, nlerrors.InvalidPath(absRoot, err)
	}
	if !info.IsDir() {
		return nil, nlerrors.InvalidPath(absRoot, fmt.Errorf("not a directory"))
	}

	var isIgnored func(rel string, isDir bool) (bool, error)
	switch {
	case s.opts.RespectIgnoreFiles:
		cache, err := ignore.NewCache(s.fs, absRoot, ignore.DefaultCacheSize, s.opts.ExcludePatterns...)
		if err != nil {
			return nil, nlerrors.InternalError("failed to create ignore cache", err)
		}
		isIgnored = cache.Ignored
	case len(s.opts.ExcludePatterns) > 0:
		m := ignore.New(s.opts.ExcludePatterns...)
		isIgnored = func(rel string, isDir bool) (bool, error) { return m.Match(rel, isDir), nil }
	}

	var files []FileInfo
	walkErr := afero.Walk(s.fs, absRoot, func(path string, fi os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == absRoot {
				return err
			}
			s.logger.Warn("scan_path_skipped",
				slog.String("path", path),
				slog.String("error", err.Error()))
			if fi != nil && fi.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == absRoot {
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if IsHidden(fi.Name()) {
			if fi.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if isIgnored != nil && s.ignored(isIgnored, rel, fi.IsDir()) {
			s.logger.Debug("scan_path_ignored", slog.String("path", rel))
			if fi.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if fi.IsDir() || !s.IsNote(fi.Name()) {
			return nil
		}

		note := FileInfo{
			Path:    rel,
			AbsPath: path,
			Name:    store.DisplayName(path),
			Group:   store.GroupLabel(path),
		}
		if fi.Mode()&os.ModeSymlink != 0 {
			target, err := s.fs.Stat(path)
			if err != nil {
				note.Err = nlerrors.FileReadFailure(path, err).
					WithSuggestion("Fix or remove the broken symlink")
				s.logger.Warn("scan_link_broken", nlerrors.LogAttrs(note.Err)...)
				files = append(files, note)
				return nil
			}
			fi = target
		}
		if !fi.Mode().IsRegular() {
			return nil
		}

		note.Size = fi.Size()
		note.ModTime = fi.ModTime()
		if fi.Size() > s.opts.MaxFileSize {
			note.Err = tooLarge(path, fi.Size(), s.opts.MaxFileSize)
			s.logger.Warn("scan_file_too_large", nlerrors.LogAttrs(note.Err)...)
		}
		files = append(files, note)
		return nil
	})
	if walkErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, nlerrors.WalkFailed(absRoot, walkErr)
	}

	s.logger.Debug("scan_complete",
		slog.String("root", absRoot),
		slog.Int("files", len(files)))
	return files, nil
}

func tooLarge(path string, size, limit int64) *nlerrors.NotelinkError {
	return nlerrors.New(nlerrors.ErrCodeFileRead, "note exceeds the maximum file size", nil).
		WithDetail("path", path).
		WithDetail("size", strconv.FormatInt(size, 10)).
		WithDetail("limit", strconv.FormatInt(limit, 10)).
		WithSuggestion("Raise paths.max_file_size or exclude the note")
}

func (s *Scanner) ignored(match func(string, bool) (bool, error), rel string, isDir bool) bool {
	ignored, err := match(rel, isDir)
	if err != nil {
		s.logger.Warn("ignore_file_unreadable",
			slog.String("path", rel),
			slog.String("error", err.Error()))
		return false
	}
	return ignored
}
