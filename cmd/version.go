package cmd

import (
	"fmt"

	"logger-netcfg/internal/pkg/version"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and git info",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.GetGitInfo().String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
