package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/notelink/internal/ui"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [vault]",
		Short: "Scan the vault and link its notes",
		Long: `Scan every note in the vault, store its keyword signature, then rewrite the
generated backlink and tag lines of every note.

The vault defaults to the current directory.`,
		Example: `  # Link the vault in the current directory
  notelink run

  # Require four shared keywords for a connection
  notelink run ~/vault --min-shared 4`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRun,
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	printer := ui.NewPrinter(cmd.OutOrStdout())
	runner, _, progress, err := prepare(cmd, args, printer)
	if err != nil {
		return err
	}

	report, err := runner.Run(cmd.Context())
	progress.Done()
	if err != nil {
		return err
	}

	printScanReport(printer, report.Scan)
	printLinkReport(printer, report.Link)
	printFailures(printer, runner.Vault(), report.Failures())
	return nil
}
