package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/conneroisu/mdserve/internal/version"
	"github.com/spf13/cobra"
)

var (
	versionFormat   string
	versionDetailed bool
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for mdserve including the semantic
version, git commit hash, build timestamp, Go toolchain, and target
platform.

Examples:
  mdserve version              # Show short version
  mdserve version --detailed   # Show detailed version info
  mdserve version -f json      # Output as JSON`,
	RunE: runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringVarP(&versionFormat, "format", "f", "text", "Output format (text, json)")
	versionCmd.Flags().BoolVar(&versionDetailed, "detailed", false, "Show detailed version information")
}

func runVersion(cmd *cobra.Command, args []string) error {
	switch versionFormat {
	case "json":
		return outputVersionJSON()
	case "text":
		if versionDetailed {
			fmt.Println(version.GetDetailedVersion())
			return nil
		}
		fmt.Printf("mdserve %s\n", version.GetShortVersion())
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json)", versionFormat)
	}
}

func outputVersionJSON() error {
	info := map[string]interface{}{
		"version":    version.GetVersion(),
		"git_commit": version.GetGitCommit(),
		"go_version": runtime.Version(),
		"platform":   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		"is_dirty":   version.IsDirty(),
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}
