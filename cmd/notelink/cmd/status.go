package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/notelink/internal/config"
	"github.com/Aman-CERP/notelink/internal/ui"
)

// statusOutput is the JSON form of `notelink status`.
type statusOutput struct {
	Vault           string `json:"vault"`
	Database        string `json:"database"`
	DatabaseExists  bool   `json:"database_exists"`
	Notes           int    `json:"notes"`
	EmptySignatures int    `json:"empty_signatures"`
	Groups          int    `json:"groups"`
	ConfigFile      string `json:"config_file,omitempty"`
	MinShared       int    `json:"min_shared_keywords"`
	KeywordsPerNote int    `json:"keywords_per_note"`
	Strategy        string `json:"strategy"`
}

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status [vault]",
		Short: "Show what the store holds for a vault",
		Long: `Show the stored notes of a vault and the linking settings in effect.
The database is never created by this command.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			st, err := runner.Status(cmd.Context())
			if err != nil {
				return err
			}

			out := statusOutput{
				Vault:           st.Vault,
				Database:        st.Database,
				DatabaseExists:  st.Exists,
				Notes:           st.Documents,
				EmptySignatures: st.Empty,
				Groups:          st.Groups,
				MinShared:       cfg.Linking.MinSharedKeywords,
				KeywordsPerNote: cfg.Linking.KeywordsPerNote,
				Strategy:        cfg.Linking.Strategy,
			}
			if p := config.ProjectConfigPath(vault); fileExists(p) {
				out.ConfigFile = p
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			printStatus(ui.NewPrinter(cmd.OutOrStdout()), out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func printStatus(p *ui.Printer, s statusOutput) {
	p.Header("notelink status")
	p.Field("Vault", s.Vault)
	p.Field("Database", s.Database)
	if !s.DatabaseExists {
		p.Newline()
		p.Warning("No scan yet; run 'notelink run' to link this vault")
		return
	}
	p.Field("Notes", s.Notes)
	p.Field("Folders", s.Groups)
	if s.EmptySignatures > 0 {
		p.Field("No keywords", s.EmptySignatures)
	}
	p.Newline()
	if s.ConfigFile != "" {
		p.Field("Config", s.ConfigFile)
	}
	p.Field("Min shared", s.MinShared)
	p.Field("Keywords", s.KeywordsPerNote)
	p.Field("Strategy", s.Strategy)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
