package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/notelink/configs"
	"github.com/Aman-CERP/notelink/internal/config"
	nlerrors "github.com/Aman-CERP/notelink/internal/errors"
	"github.com/Aman-CERP/notelink/internal/ui"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage notelink configuration files.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config ($XDG_CONFIG_HOME/notelink/config.yaml)
  3. Vault config (.notelink.yaml in the vault root)
  4. Environment variables (NOTELINK_*)
  5. --min-shared and --keywords flags`,
		Example: `  # Create the user config from the template
  notelink config init

  # Create a vault config
  notelink config init --vault ~/vault

  # Show the effective configuration for a vault
  notelink config show ~/vault`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		force bool
		vault string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file from the template",
		Long: `Create the user configuration file, or with --vault the vault
configuration file, from the built-in template. An existing file is kept
unless --force is given; it is then backed up before being replaced.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, vault, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing file (a backup is kept)")
	cmd.Flags().StringVar(&vault, "vault", "", "Create .notelink.yaml in this vault instead of the user config")

	return cmd
}

func runConfigInit(cmd *cobra.Command, vault string, force bool) error {
	printer := ui.NewPrinter(cmd.OutOrStdout())

	path := config.GetUserConfigPath()
	template := configs.UserConfigTemplate
	if vault != "" {
		root, err := resolveVault([]string{vault})
		if err != nil {
			return err
		}
		path = config.ProjectConfigPath(root)
		template = configs.VaultConfigTemplate
	}

	if fileExists(path) {
		if !force {
			printer.Warning("Configuration already exists")
			printer.Field("Location", path)
			printer.Dim("  Use --force to replace it (a backup is kept)")
			return nil
		}
		backup, err := config.BackupFile(path)
		if err != nil {
			return nlerrors.FileWriteFailure(path, err)
		}
		printer.Field("Backup", backup)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nlerrors.FileWriteFailure(path, err)
	}
	if err := os.WriteFile(path, []byte(template), 0o644); err != nil {
		return nlerrors.FileWriteFailure(path, err)
	}

	printer.Success("Created configuration")
	printer.Field("Location", path)
	return nil
}

func newConfigShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show [vault]",
		Short: "Show the effective configuration",
		Long:  `Show the configuration after merging every source for a vault.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vault, err := resolveVault(args)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd, vault)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return nlerrors.InternalError("failed to encode configuration", err)
			}
			_, err = fmt.Fprintf(out, "# vault: %s\n%s", vault, data)
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the user config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return err
		},
	}
}
