// Package cmd provides the CLI commands for notelink.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	nlerrors "github.com/Aman-CERP/notelink/internal/errors"
	"github.com/Aman-CERP/notelink/internal/logging"
	"github.com/Aman-CERP/notelink/internal/profiling"
	"github.com/Aman-CERP/notelink/pkg/version"
)

// Global flags shared by every command.
var (
	debugMode       bool
	minShared       int
	keywordsPerNote int
	noTUI           bool
	loggingCleanup  func()
)

// Profiling flags.
var (
	profileCPU     string
	profileMem     string
	profileTrace   string
	profileSession *profiling.Session
)

// NewRootCmd creates the root command for the notelink CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notelink [vault]",
		Short: "Link related notes in a markdown vault",
		Long: `notelink extracts keywords from every note in a vault, connects notes that
share enough keywords and appends generated backlink and tag lines to each
note. Re-running it replaces the generated lines instead of duplicating them.

Running 'notelink <vault>' is the same as 'notelink run <vault>'.`,
		Version:       version.Short(),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRun,
	}

	cmd.SetVersionTemplate("notelink version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.notelink/logs/")
	cmd.PersistentFlags().IntVar(&minShared, "min-shared", 0, "Shared keywords required to connect two notes (overrides config)")
	cmd.PersistentFlags().IntVar(&keywordsPerNote, "keywords", 0, "Keywords extracted per note (overrides config)")
	cmd.PersistentFlags().BoolVar(&noTUI, "no-tui", false, "Disable the interactive progress view")

	cmd.PersistentFlags().StringVar(&profileCPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileMem, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileTrace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newScanCmd())
	cmd.AddCommand(newLinkCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command and prints any error for the terminal.
func Execute() error {
	return execute(NewRootCmd(), os.Stderr)
}

func execute(cmd *cobra.Command, stderr io.Writer) error {
	err := cmd.Execute()
	_ = stopProfiling()
	stopLoggingQuietly()
	if err != nil {
		_, _ = fmt.Fprint(stderr, nlerrors.FormatForCLI(err))
	}
	return err
}

func startProfilingAndLogging(cmd *cobra.Command, args []string) error {
	if err := startLogging(cmd, args); err != nil {
		return err
	}
	opts := profiling.Options{CPU: profileCPU, Heap: profileMem, Trace: profileTrace}
	if !opts.Enabled() {
		return nil
	}
	session, err := profiling.Start(opts)
	if err != nil {
		return err
	}
	profileSession = session
	slog.Debug("profiling_started",
		slog.String("cpu", opts.CPU),
		slog.String("heap", opts.Heap),
		slog.String("trace", opts.Trace))
	return nil
}

func stopProfilingAndLogging(cmd *cobra.Command, args []string) error {
	err := stopProfiling()
	_ = stopLogging(cmd, args)
	return err
}

func stopProfiling() error {
	if profileSession == nil {
		return nil
	}
	err := profileSession.Stop()
	profileSession = nil
	return err
}

// startLogging installs the default logger. With --debug records also go
// to the rotating log file.
func startLogging(cmd *cobra.Command, _ []string) error {
	cfg := logging.DefaultConfig()
	if debugMode {
		cfg = logging.DebugConfig()
	}
	if err := setupLogging(cmd, cfg); err != nil {
		return err
	}
	if debugMode {
		slog.Info("debug_logging_enabled",
			slog.String("log_file", logging.DefaultLogPath()),
			slog.String("version", version.Short()))
	}
	return nil
}

// applyLogLevel re-installs the logger at the vault's configured level.
// --debug wins over the configuration.
func applyLogLevel(cmd *cobra.Command, level string) error {
	if debugMode || level == "" {
		return nil
	}
	cfg := logging.DefaultConfig()
	cfg.Level = level
	return setupLogging(cmd, cfg)
}

func setupLogging(cmd *cobra.Command, cfg logging.Config) error {
	cfg.Stderr = cmd.ErrOrStderr()
	logger, cleanup, err := logging.Setup(cfg)
	if err != nil {
		return nlerrors.InternalError("failed to set up logging", err).
			WithDetail("path", cfg.FilePath)
	}
	stopLoggingQuietly()
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	stopLoggingQuietly()
	return nil
}

func stopLoggingQuietly() {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
}
