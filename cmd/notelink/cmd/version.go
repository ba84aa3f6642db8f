package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/notelink/pkg/version"
)

func newVersionCmd() *cobra.Command {
	var asJSON, short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print the notelink version with its git commit, build date and Go version.
Builds made with 'go install' report the module version and VCS stamp.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printVersion(cmd.OutOrStdout(), asJSON, short)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output version info as JSON")
	cmd.Flags().BoolVar(&short, "short", false, "Output only the version number")
	cmd.MarkFlagsMutuallyExclusive("json", "short")

	return cmd
}

func printVersion(w io.Writer, asJSON, short bool) error {
	switch {
	case short:
		_, err := fmt.Fprintln(w, version.Short())
		return err
	case asJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(version.GetInfo())
	default:
		_, err := fmt.Fprintln(w, version.String())
		return err
	}
}
