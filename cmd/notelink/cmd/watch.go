package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/notelink/internal/config"
	nlerrors "github.com/Aman-CERP/notelink/internal/errors"
	"github.com/Aman-CERP/notelink/internal/pipeline"
	"github.com/Aman-CERP/notelink/internal/ui"
	"github.com/Aman-CERP/notelink/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [vault]",
		Short: "Re-link the vault whenever notes change",
		Long: `Run the pipeline once, then watch the vault and run it again after every
burst of note changes. Changes to .notelink.yaml reload the configuration;
changes to ignore files take effect on the next run.

Stop with Ctrl+C.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runWatch,
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printer := ui.NewPrinter(cmd.OutOrStdout())
	vault, err := resolveVault(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, vault)
	if err != nil {
		return err
	}
	runner, err := newRunner(vault, cfg, nil)
	if err != nil {
		return err
	}

	if err := watchRun(ctx, printer, runner); err != nil {
		return err
	}

	w, err := watcher.New(vault, watchOptions(cfg), slog.Default())
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	printer.Newline()
	printer.Successf("Watching %s", vault)
	printer.Dim("  Press Ctrl+C to stop")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := w.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		errs := w.Errors()
		for {
			select {
			case <-gctx.Done():
				return nil
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				printer.Warningf("Watcher: %s", errorMessage(err))
			case batch, ok := <-w.Events():
				if !ok {
					return nil
				}
				slog.Debug("watch_batch", slog.Int("events", len(batch)))

				if watcher.HasOperation(batch, watcher.OpConfigChange) {
					runner = reloadRunner(cmd, printer, vault, runner)
				}
				if err := watchRun(gctx, printer, runner); err != nil {
					if gctx.Err() != nil {
						return nil
					}
					return err
				}
			}
		}
	})
	return g.Wait()
}

func watchOptions(cfg *config.Config) watcher.Options {
	opts := watcher.DefaultOptions()
	opts.Debounce = cfg.Watch.DebounceDuration()
	opts.Extensions = cfg.Paths.Extensions
	opts.ExcludePatterns = cfg.Paths.Exclude
	opts.RespectIgnoreFiles = cfg.Paths.IgnoreFilesEnabled()
	return opts
}

// watchRun runs the pipeline once. Errors that a later run can recover
// from are printed instead of returned.
func watchRun(ctx context.Context, printer *ui.Printer, runner *pipeline.Runner) error {
	report, err := runner.Run(ctx)
	if err != nil {
		switch nlerrors.GetCode(err) {
		case nlerrors.ErrCodeVaultLocked, nlerrors.ErrCodeStorageRead, nlerrors.ErrCodeStorageWrite:
			printer.Warningf("Run skipped: %s", errorMessage(err))
			return nil
		}
		return err
	}

	link := report.Link
	if link.Updated > 0 || len(report.Failures()) > 0 {
		printer.Successf("Updated %d of %d notes (%d connections)", link.Updated, link.Documents, link.Connections)
		printFailures(printer, runner.Vault(), report.Failures())
	}
	return nil
}

// reloadRunner rebuilds the runner from the vault configuration, keeping
// the current one when the new configuration is invalid.
func reloadRunner(cmd *cobra.Command, printer *ui.Printer, vault string, current *pipeline.Runner) *pipeline.Runner {
	cfg, err := loadConfig(cmd, vault)
	if err != nil {
		printer.Warningf("Configuration not reloaded: %s", errorMessage(err))
		return current
	}
	runner, err := newRunner(vault, cfg, nil)
	if err != nil {
		printer.Warningf("Configuration not reloaded: %s", errorMessage(err))
		return current
	}
	printer.Success("Configuration reloaded")
	return runner
}

func errorMessage(err error) string {
	var ne *nlerrors.NotelinkError
	if errors.As(err, &ne) {
		return ne.Message
	}
	return err.Error()
}
