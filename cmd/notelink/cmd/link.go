package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/notelink/internal/pipeline"
	"github.com/Aman-CERP/notelink/internal/ui"
)

func newLinkCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "link [vault]",
		Short: "Annotate notes from the stored signatures",
		Long: `Compute connections from the signatures stored by the last scan and rewrite
the generated backlink and tag lines of every note.`,
		Example: `  # Preview how many notes would change
  notelink link --dry-run`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := ui.NewPrinter(cmd.OutOrStdout())
			runner, _, progress, err := prepare(cmd, args, printer)
			if err != nil {
				return err
			}

			report, err := runner.Link(cmd.Context(), pipeline.LinkOptions{DryRun: dryRun})
			progress.Done()
			if err != nil {
				return err
			}

			printLinkReport(printer, report)
			printFailures(printer, runner.Vault(), report.Failures)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report changes without writing notes")

	return cmd
}
