// Package cmd provides the riotts command-line interface.
//
// Configuration is read from several sources, highest priority first:
//
//  1. Command-line flags (--config, --log-level, command flags)
//  2. RIOTTS_CONFIG_FILE environment variable naming the config file
//  3. Individual environment variables (RIOTTS_BUILD_OUT_DIR, ...)
//  4. The .riotts.yml file in the working directory
//
// Environment variables follow the RIOTTS_<SECTION>_<OPTION> pattern, e.g.
// RIOTTS_PREPROCESSOR_SOURCE_PATH or RIOTTS_LINT_ENGINE.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	noColor bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "riotts",
	Short: "TypeScript preprocessor for Riot components",
	Long: `riotts lints and compiles the TypeScript <script> blocks of Riot
components (.riot files) to JavaScript with source maps.

Every script block is linted first; any lint error or warning stops the
component. The script is then compiled together with the Riot typings,
resolving imports of other components and sibling TypeScript files.

Quick Start:
  riotts compile src/todo.riot     Compile one component to stdout
  riotts build                     Compile every component under the scan paths
  riotts lint src/todo.riot        Lint script blocks only
  riotts watch                     Rebuild components as they change
  riotts resolve ./todo --from src/app.riot   Explain an import`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .riotts.yml, can also use RIOTTS_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable coloured reports")
	AddFlagValidation(rootCmd, "log-level", ValidateLogLevel)
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig selects the configuration file and enables RIOTTS_ environment
// overrides. A missing file is not an error.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("RIOTTS_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".riotts")
	}

	viper.SetEnvPrefix("RIOTTS")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
