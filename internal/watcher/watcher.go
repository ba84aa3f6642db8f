package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"

	nlerrors "github.com/Aman-CERP/notelink/internal/errors"
	"github.com/Aman-CERP/notelink/internal/ignore"
	"github.com/Aman-CERP/notelink/internal/scanner"
)

// Watcher watches a vault recursively with fsnotify.
type Watcher struct {
	root      string
	opts      Options
	logger    *slog.Logger
	fsw       *fsnotify.Watcher
	notes     *scanner.Scanner
	isIgnored func(rel string, isDir bool) (bool, error)
	cache     *ignore.Cache
	configs   map[string]struct{}
	debouncer *Debouncer
	events    chan []FileEvent
	errors    chan error
	stopCh    chan struct{}

	mu      sync.RWMutex
	dirs    map[string]struct{} // watched directories, absolute
	stopped bool
}

// New creates a Watcher for the vault at root. Nothing is watched until Start.
func New(root string, opts Options, logger *slog.Logger) (*Watcher, error) {
	opts = opts.WithDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	absRoot, err := scanner.ResolveRoot(root)
	if err != nil {
		return nil, nlerrors.InvalidPath(root, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, nlerrors.InvalidPath(absRoot, err)
	}
	if !info.IsDir() {
		return nil, nlerrors.InvalidPath(absRoot, fmt.Errorf("not a directory"))
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nlerrors.InternalError("failed to create file watcher", err)
	}

	w := &Watcher{
		root:      absRoot,
		opts:      opts,
		logger:    logger,
		fsw:       fsw,
		notes:     scanner.New(nil, scanner.ScanOptions{Extensions: opts.Extensions}, logger),
		configs:   make(map[string]struct{}, len(opts.ConfigFiles)),
		debouncer: NewDebouncer(opts.Debounce, logger),
		events:    make(chan []FileEvent, opts.EventBufferSize),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
		dirs:      make(map[string]struct{}),
	}
	for _, name := range opts.ConfigFiles {
		w.configs[filepath.ToSlash(name)] = struct{}{}
	}

	switch {
	case opts.RespectIgnoreFiles:
		cache, err := ignore.NewCache(afero.NewOsFs(), absRoot, ignore.DefaultCacheSize, opts.ExcludePatterns...)
		if err != nil {
			_ = fsw.Close()
			return nil, nlerrors.InternalError("failed to create ignore cache", err)
		}
		w.cache = cache
		w.isIgnored = cache.Ignored
	case len(opts.ExcludePatterns) > 0:
		m := ignore.New(opts.ExcludePatterns...)
		w.isIgnored = func(rel string, isDir bool) (bool, error) { return m.Match(rel, isDir), nil }
	}

	return w, nil
}

// Root returns the absolute vault root.
func (w *Watcher) Root() string {
	return w.root
}

// Start registers the vault directories and processes events until ctx is
// cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addRecursive(w.root, false); err != nil {
		return err
	}
	w.logger.Info("watch_started",
		slog.String("root", w.root),
		slog.Int("directories", w.WatchedDirs()))

	go w.forward(ctx)

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch_error", slog.String("error", err.Error()))
			w.emitError(err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	isDir := false
	if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
		if info, err := os.Stat(event.Name); err == nil {
			isDir = info.IsDir()
		}
	} else {
		isDir = w.forget(event.Name)
	}

	fe, ok := w.classify(rel, isDir, event.Op)
	if !ok {
		return
	}

	switch fe.Operation {
	case OpIgnoreChange:
		if w.cache != nil {
			w.cache.Invalidate(path.Dir(rel))
		}
	case OpCreate:
		if isDir {
			// Notes written before the watch was added produce no event.
			if err := w.addRecursive(event.Name, true); err != nil {
				w.logger.Warn("watch_add_failed", nlerrors.LogAttrs(err)...)
			}
		}
	}

	w.logger.Debug("watch_event",
		slog.String("path", fe.Path),
		slog.String("op", fe.Operation.String()))
	w.debouncer.Add(fe)
}

// classify maps a raw event to a FileEvent. ok is false for events that
// cannot affect a run: hidden paths, ignored paths, non-note files and
// permission changes.
func (w *Watcher) classify(rel string, isDir bool, op fsnotify.Op) (FileEvent, bool) {
	if rel == "." || rel == "" || strings.HasPrefix(rel, "../") {
		return FileEvent{}, false
	}

	var kind Operation
	switch {
	case op.Has(fsnotify.Create):
		kind = OpCreate
	case op.Has(fsnotify.Write):
		kind = OpModify
	case op.Has(fsnotify.Remove):
		kind = OpDelete
	case op.Has(fsnotify.Rename):
		kind = OpRename
	default:
		return FileEvent{}, false
	}
	fe := FileEvent{Path: rel, Operation: kind, IsDir: isDir, Timestamp: time.Now()}

	if _, ok := w.configs[rel]; ok {
		fe.Operation = OpConfigChange
		return fe, true
	}

	dir, base := path.Split(rel)
	if hiddenPath(dir) {
		return FileEvent{}, false
	}
	if !isDir && isIgnoreFile(base) {
		fe.Operation = OpIgnoreChange
		return fe, true
	}
	if scanner.IsHidden(base) {
		return FileEvent{}, false
	}
	if w.ignored(rel, isDir) {
		return FileEvent{}, false
	}
	if !isDir && !w.notes.IsNote(base) {
		return FileEvent{}, false
	}
	return fe, true
}

func (w *Watcher) ignored(rel string, isDir bool) bool {
	if w.isIgnored == nil {
		return false
	}
	ignored, err := w.isIgnored(rel, isDir)
	if err != nil {
		w.logger.Warn("ignore_file_unreadable",
			slog.String("path", rel),
			slog.String("error", err.Error()))
		return false
	}
	return ignored
}

// addRecursive watches dir and every visible, non-ignored directory below
// it. With announce set, notes already present are reported as created.
func (w *Watcher) addRecursive(dir string, announce bool) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return nlerrors.WalkFailed(dir, err)
			}
			w.logger.Warn("watch_path_skipped",
				slog.String("path", p),
				slog.String("error", err.Error()))
			return nil
		}

		rel, relErr := filepath.Rel(w.root, p)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if !d.IsDir() {
			if announce && !scanner.IsHidden(d.Name()) && w.notes.IsNote(d.Name()) && !w.ignored(rel, false) {
				w.debouncer.Add(FileEvent{Path: rel, Operation: OpCreate, Timestamp: time.Now()})
			}
			return nil
		}

		if p != w.root && (scanner.IsHidden(d.Name()) || w.ignored(rel, true)) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			if p == w.root {
				return nlerrors.InternalError("failed to watch vault", err).WithDetail("path", p)
			}
			w.logger.Warn("watch_add_failed",
				slog.String("path", p),
				slog.String("error", err.Error()))
			return nil
		}
		w.mu.Lock()
		w.dirs[p] = struct{}{}
		w.mu.Unlock()
		return nil
	})
}

// forget drops a removed path from the watched set and reports whether it
// was a watched directory.
func (w *Watcher) forget(p string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.dirs[p]; !ok {
		return false
	}
	prefix := p + string(filepath.Separator)
	for d := range w.dirs {
		if d == p || strings.HasPrefix(d, prefix) {
			delete(w.dirs, d)
		}
	}
	return true
}

// WatchedDirs returns the number of directories being watched.
func (w *Watcher) WatchedDirs() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.dirs)
}

func (w *Watcher) forward(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case batch, ok := <-w.debouncer.Output():
			if !ok {
				return
			}
			w.emit(batch)
		}
	}
}

func (w *Watcher) emit(batch []FileEvent) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return
	}
	select {
	case w.events <- batch:
	default:
		w.logger.Warn("watch_batch_dropped", slog.Int("batch_size", len(batch)))
	}
}

func (w *Watcher) emitError(err error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return
	}
	select {
	case w.errors <- err:
	default:
	}
}

// Stop stops watching and closes the Events and Errors channels.
// Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	w.debouncer.Stop()
	err := w.fsw.Close()
	close(w.events)
	close(w.errors)
	return err
}

// Events returns the channel of debounced batches.
func (w *Watcher) Events() <-chan []FileEvent {
	return w.events
}

// Errors returns non-fatal watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

func hiddenPath(dir string) bool {
	for _, part := range strings.Split(strings.Trim(dir, "/"), "/") {
		if scanner.IsHidden(part) {
			return true
		}
	}
	return false
}

func isIgnoreFile(name string) bool {
	for _, f := range ignore.FileNames {
		if name == f {
			return true
		}
	}
	return false
}
