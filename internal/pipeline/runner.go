package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/Aman-CERP/notelink/internal/annotate"
	"github.com/Aman-CERP/notelink/internal/config"
	nlerrors "github.com/Aman-CERP/notelink/internal/errors"
	"github.com/Aman-CERP/notelink/internal/keywords"
	"github.com/Aman-CERP/notelink/internal/linker"
	"github.com/Aman-CERP/notelink/internal/lock"
	"github.com/Aman-CERP/notelink/internal/scanner"
	"github.com/Aman-CERP/notelink/internal/store"
	"github.com/Aman-CERP/notelink/internal/ui"
)

// ProgressFunc receives per-note progress. current is 1-based.
type ProgressFunc func(stage ui.Stage, current, total int, name string)

// Locker serializes runs on a vault.
type Locker interface {
	TryAcquire() error
	Release() error
}

// RunnerDependencies contains the injected dependencies for Runner.
type RunnerDependencies struct {
	// Config is the loaded vault configuration (required).
	Config *config.Config

	// Fs is the filesystem notes are read from and written to.
	// Defaults to the OS filesystem.
	Fs afero.Fs

	// Opener acquires the document store once per phase.
	// Defaults to the SQLite database named by Config.Storage.
	Opener store.Opener

	// Locker guards Scan, Link and Run. Defaults to the vault run lock.
	Locker Locker

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Progress is called once per note in each phase (optional).
	Progress ProgressFunc
}

// LinkOptions configures the link phase.
type LinkOptions struct {
	// DryRun computes annotations and reports changes without writing.
	DryRun bool
}

// Runner executes the scan and link phases for one vault.
type Runner struct {
	vault     string
	config    *config.Config
	fs        afero.Fs
	open      store.Opener
	locker    Locker
	logger    *slog.Logger
	progress  ProgressFunc
	extractor *keywords.Extractor
	scanner   *scanner.Scanner
	strategy  linker.Strategy
}

// NewRunner creates a Runner for the vault rooted at vault.
func NewRunner(vault string, deps RunnerDependencies) (*Runner, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	// Links are resolved so every path, the store and the lock agree
	// however the vault is reached.
	absVault, err := scanner.ResolveRoot(vault)
	if err != nil {
		return nil, nlerrors.InvalidPath(vault, err)
	}

	cfg := deps.Config
	strategy, err := linker.ParseStrategy(cfg.Linking.Strategy)
	if err != nil {
		return nil, nlerrors.ConfigError("invalid linking strategy", err).
			WithDetail("strategy", cfg.Linking.Strategy)
	}
	extractor, err := keywords.New(cfg.Linking.KeywordsPerNote,
		keywords.WithStopWords(cfg.Linking.ExtraStopwords...))
	if err != nil {
		return nil, nlerrors.ConfigError("invalid keyword settings", err)
	}

	fs := deps.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("vault", absVault))

	open := deps.Opener
	if open == nil {
		open = store.SQLiteOpener(cfg.Storage.DatabasePath(absVault))
	}
	locker := deps.Locker
	if locker == nil {
		locker = lock.New(filepath.Join(absVault, store.DataDirName))
	}

	scanOpts := scanner.ScanOptions{
		Extensions:         cfg.Paths.Extensions,
		ExcludePatterns:    cfg.Paths.Exclude,
		RespectIgnoreFiles: cfg.Paths.IgnoreFilesEnabled(),
		MaxFileSize:        cfg.Paths.MaxFileSize,
	}

	return &Runner{
		vault:     absVault,
		config:    cfg,
		fs:        fs,
		open:      open,
		locker:    locker,
		logger:    logger,
		progress:  deps.Progress,
		extractor: extractor,
		scanner:   scanner.New(fs, scanOpts, logger),
		strategy:  strategy,
	}, nil
}

// Vault returns the absolute vault root.
func (r *Runner) Vault() string {
	return r.vault
}

// Run executes the scan phase followed by the link phase under the vault lock.
// A fatal scan error stops the run before any note is rewritten.
func (r *Runner) Run(ctx context.Context) (*RunReport, error) {
	start := time.Now()
	report := &RunReport{RunID: uuid.NewString()}
	logger := r.logger.With(slog.String("run_id", report.RunID))

	err := r.locked(func() error {
		scan, err := r.scan(ctx, logger, report.RunID)
		report.Scan = scan
		if err != nil {
			return err
		}
		link, err := r.link(ctx, logger, report.RunID, LinkOptions{})
		report.Link = link
		return err
	})
	report.Duration = time.Since(start)
	if err != nil {
		return report, err
	}

	logger.Info("run_complete",
		slog.Int("notes", report.Scan.Scanned),
		slog.Int("connections", report.Link.Connections),
		slog.Int("updated", report.Link.Updated),
		slog.Int("failures", len(report.Failures())),
		slog.Duration("duration", report.Duration))
	return report, nil
}

// Scan executes only the scan phase under the vault lock.
func (r *Runner) Scan(ctx context.Context) (*ScanReport, error) {
	runID := uuid.NewString()
	var report *ScanReport
	err := r.locked(func() error {
		var err error
		report, err = r.scan(ctx, r.logger.With(slog.String("run_id", runID)), runID)
		return err
	})
	return report, err
}

// Link executes only the link phase under the vault lock.
func (r *Runner) Link(ctx context.Context, opts LinkOptions) (*LinkReport, error) {
	runID := uuid.NewString()
	var report *LinkReport
	err := r.locked(func() error {
		var err error
		report, err = r.link(ctx, r.logger.With(slog.String("run_id", runID)), runID, opts)
		return err
	})
	return report, err
}

func (r *Runner) locked(fn func() error) error {
	// The lock lives inside the vault; never create a vault by locking it.
	info, err := r.fs.Stat(r.vault)
	if err != nil {
		return nlerrors.InvalidPath(r.vault, err)
	}
	if !info.IsDir() {
		return nlerrors.InvalidPath(r.vault, fmt.Errorf("not a directory"))
	}

	if err := r.locker.TryAcquire(); err != nil {
		return err
	}
	defer func() {
		if err := r.locker.Release(); err != nil {
			r.logger.Warn("lock_release_failed", nlerrors.LogAttrs(err)...)
		}
	}()
	return fn()
}

func (r *Runner) scan(ctx context.Context, logger *slog.Logger, runID string) (*ScanReport, error) {
	start := time.Now()
	report := &ScanReport{RunID: runID}

	files, err := r.scanner.Scan(ctx, r.vault)
	if err != nil {
		return report, err
	}
	report.Scanned = len(files)

	docs := make([]store.Document, 0, len(files))
	keep := make([]string, 0, len(files))
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		// An unreadable note keeps its previous row.
		keep = append(keep, f.AbsPath)
		r.report(ui.StageScanning, i+1, len(files), f.Path)

		if f.Err != nil {
			report.Failures = append(report.Failures, Failure{Path: f.AbsPath, Err: f.Err})
			continue
		}
		data, err := afero.ReadFile(r.fs, f.AbsPath)
		if err != nil {
			ferr := nlerrors.FileReadFailure(f.AbsPath, err)
			logger.Warn("note_read_failed", nlerrors.LogAttrs(ferr)...)
			report.Failures = append(report.Failures, Failure{Path: f.AbsPath, Err: ferr})
			continue
		}

		// Generated lines are excluded so annotating a note never shifts its signature.
		signature := r.extractor.Extract(annotate.Strip(string(data)))
		if len(signature) == 0 {
			report.Empty++
		}
		docs = append(docs, store.NewDocument(f.AbsPath, signature))
		logger.Debug("note_scanned",
			slog.String("path", f.Path),
			slog.Int("keywords", len(signature)))
	}

	s, err := r.open()
	if err != nil {
		return report, err
	}
	defer func() {
		if err := s.Close(); err != nil {
			logger.Warn("store_close_failed", nlerrors.LogAttrs(err)...)
		}
	}()

	if err := s.UpsertAll(ctx, docs); err != nil {
		return report, err
	}
	report.Stored = len(docs)

	pruned, err := s.Prune(ctx, keep)
	if err != nil {
		return report, err
	}
	report.Pruned = pruned
	report.Duration = time.Since(start)

	logger.Info("scan_complete",
		slog.Int("scanned", report.Scanned),
		slog.Int("stored", report.Stored),
		slog.Int("pruned", report.Pruned),
		slog.Int("failures", len(report.Failures)),
		slog.Duration("duration", report.Duration))
	return report, nil
}

func (r *Runner) link(ctx context.Context, logger *slog.Logger, runID string, opts LinkOptions) (*LinkReport, error) {
	start := time.Now()
	report := &LinkReport{RunID: runID, DryRun: opts.DryRun}

	docs, err := r.loadDocuments(ctx, logger)
	if err != nil {
		return report, err
	}
	report.Documents = len(docs)
	if len(docs) == 0 {
		logger.Warn("no_documents", slog.String("hint", "run a scan first"))
		report.Duration = time.Since(start)
		return report, nil
	}

	lk := linker.New(linker.Options{Strategy: r.strategy, Logger: logger})
	result := lk.Compute(docs, r.config.Linking.MinSharedKeywords)
	report.Compared = result.Compared
	report.Connections = len(result.Connections)

	writer := annotate.NewWriter(r.fs, annotate.WithDryRun(opts.DryRun), annotate.WithLogger(logger))
	for i, ann := range result.Annotations {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		r.report(ui.StageLinking, i+1, len(result.Annotations), ann.Name)

		res, err := writer.Apply(ann.Path, ann.Backlinks(), ann.Tags())
		if err != nil {
			logger.Warn("note_annotate_failed", nlerrors.LogAttrs(err)...)
			report.Failures = append(report.Failures, Failure{Path: ann.Path, Err: err})
			continue
		}
		switch {
		case res.Skipped:
			report.Skipped++
		case res.Changed:
			report.Updated++
		default:
			report.Unchanged++
		}
	}
	report.Duration = time.Since(start)

	logger.Info("link_complete",
		slog.Int("documents", report.Documents),
		slog.Int("connections", report.Connections),
		slog.Int("updated", report.Updated),
		slog.Int("unchanged", report.Unchanged),
		slog.Int("skipped", report.Skipped),
		slog.Bool("dry_run", report.DryRun),
		slog.Int("failures", len(report.Failures)),
		slog.Duration("duration", report.Duration))
	return report, nil
}

// loadDocuments reads every stored document and releases the store before
// any note is touched.
func (r *Runner) loadDocuments(ctx context.Context, logger *slog.Logger) ([]store.Document, error) {
	s, err := r.open()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := s.Close(); err != nil {
			logger.Warn("store_close_failed", nlerrors.LogAttrs(err)...)
		}
	}()
	return s.LoadAll(ctx)
}

func (r *Runner) report(stage ui.Stage, current, total int, name string) {
	if r.progress != nil {
		r.progress(stage, current, total, name)
	}
}
