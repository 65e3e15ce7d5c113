package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/riotts/internal/version"
)

var (
	versionFormat   string
	versionShort    bool
	versionDetailed bool
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for riotts including the version, git
commit, build time, Go version, platform and the linked esbuild version.

Examples:
  riotts version
  riotts version --detailed
  riotts version --format json`,
	RunE: runVersionCommand,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringVarP(&versionFormat, "format", "f", "text", "Output format (text, json)")
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show short version only")
	versionCmd.Flags().BoolVar(&versionDetailed, "detailed", false, "Show detailed version information")
}

func runVersionCommand(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	switch versionFormat {
	case "json":
		data, err := json.MarshalIndent(version.GetBuildInfo(), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal version info: %w", err)
		}
		fmt.Fprintln(out, string(data))
	case "text":
		switch {
		case versionShort:
			fmt.Fprintln(out, version.GetShortVersion())
		case versionDetailed:
			fmt.Fprintln(out, version.GetDetailedVersion())
		default:
			fmt.Fprintf(out, "riotts %s", version.GetShortVersion())
			if version.IsDirty() {
				fmt.Fprint(out, " (dirty)")
			}
			fmt.Fprintln(out)
		}
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json)", versionFormat)
	}
	return nil
}
