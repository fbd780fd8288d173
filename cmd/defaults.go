package cmd

import (
	"logger-netcfg/internal/pkg/profile"

	"github.com/spf13/cobra"
)

var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print the built-in logger profiles as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := cmd.OutOrStdout().Write(profile.Raw())
		return err
	},
}

func init() {
	rootCmd.AddCommand(defaultsCmd)
}
