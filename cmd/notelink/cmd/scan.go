package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/notelink/internal/ui"
)

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan [vault]",
		Short: "Store keyword signatures without touching notes",
		Long: `Walk the vault, extract the keyword signature of every note and store it.
Rows of notes that no longer exist are removed. Notes are not modified.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := ui.NewPrinter(cmd.OutOrStdout())
			runner, _, progress, err := prepare(cmd, args, printer)
			if err != nil {
				return err
			}

			report, err := runner.Scan(cmd.Context())
			progress.Done()
			if err != nil {
				return err
			}

			printScanReport(printer, report)
			printFailures(printer, runner.Vault(), report.Failures)
			return nil
		},
	}
}
