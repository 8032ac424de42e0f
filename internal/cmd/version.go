package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/certwatch-app/cw-certshow/internal/version"
)

var versionJSON bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, git commit, and build date of cw-certshow.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.GetInfo()

		if versionJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}

		fmt.Printf("cw-certshow\n")
		fmt.Printf("  Version:    %s\n", info.Version)
		fmt.Printf("  Commit:     %s\n", info.GitCommit)
		fmt.Printf("  Build Date: %s\n", info.BuildDate)
		fmt.Printf("  Go Version: %s\n", info.GoVersion)
		fmt.Printf("  Platform:   %s\n", info.Platform)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "print version information as JSON")
}
