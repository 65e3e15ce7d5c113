package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/riotts/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration after merging .riotts.yml, RIOTTS_ environment
variables, flags and defaults, as YAML.

With --validate the files the configuration points at are checked too.

Examples:
  riotts config
  riotts config --validate`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

var configValidate bool

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.Flags().BoolVar(&configValidate, "validate", false, "check that configured files exist")
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}

	if !configValidate {
		return nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	result := config.ValidateConfigWithDetails(afero.NewOsFs(), cfg, cwd)
	if result.HasErrors() || result.HasWarnings() {
		fmt.Fprint(cmd.ErrOrStderr(), result.String())
	}
	if !result.Valid {
		return fmt.Errorf("configuration has %d error(s)", len(result.Errors))
	}
	return nil
}
