package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/notelink/internal/config"
	nlerrors "github.com/Aman-CERP/notelink/internal/errors"
	"github.com/Aman-CERP/notelink/internal/pipeline"
	"github.com/Aman-CERP/notelink/internal/ui"
)

// resolveVault returns the absolute vault root named by args, defaulting
// to the working directory.
func resolveVault(args []string) (string, error) {
	dir := "."
	if len(args) > 0 && args[0] != "" {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", nlerrors.InvalidPath(dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", nlerrors.InvalidPath(abs, err)
	}
	if !info.IsDir() {
		return "", nlerrors.InvalidPath(abs, fmt.Errorf("not a directory"))
	}
	return abs, nil
}

// loadConfig loads the vault configuration and applies the global flag
// overrides.
func loadConfig(cmd *cobra.Command, vault string) (*config.Config, error) {
	cfg, err := config.Load(vault)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("min-shared") {
		cfg.Linking.MinSharedKeywords = minShared
	}
	if flags.Changed("keywords") {
		cfg.Linking.KeywordsPerNote = keywordsPerNote
	}
	if flags.Changed("min-shared") || flags.Changed("keywords") {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	if err := applyLogLevel(cmd, cfg.Logging.Level); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newRunner builds a pipeline runner. progress may be nil.
func newRunner(vault string, cfg *config.Config, progress ui.Reporter) (*pipeline.Runner, error) {
	deps := pipeline.RunnerDependencies{
		Config: cfg,
		Logger: slog.Default(),
	}
	if progress != nil {
		deps.Progress = progress.Update
	}
	return pipeline.NewRunner(vault, deps)
}

// prepare resolves the vault, loads its configuration and builds a runner.
func prepare(cmd *cobra.Command, args []string, printer *ui.Printer) (*pipeline.Runner, *config.Config, ui.Reporter, error) {
	vault, err := resolveVault(args)
	if err != nil {
		return nil, nil, nil, err
	}
	cfg, err := loadConfig(cmd, vault)
	if err != nil {
		return nil, nil, nil, err
	}
	progress := ui.NewReporter(printer, noTUI)
	runner, err := newRunner(vault, cfg, progress)
	if err != nil {
		return nil, nil, nil, err
	}
	return runner, cfg, progress, nil
}
