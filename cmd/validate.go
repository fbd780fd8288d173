package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the logger profiles and report problems",
	Long: `Validate reports errors that would keep a logger off the network, and
warnings for settings that are legal but probably wrong. Without --config the
built-in profiles are checked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(true)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, warning := range cfg.Warnings() {
			fmt.Fprintf(out, "warning: %s\n", warning)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		fmt.Fprintf(out, "%d logger profile(s) OK\n", len(cfg.Loggers))
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVarP(&configFlag, "config", "f", "", "Path to config file (YAML or TOML)")
	rootCmd.AddCommand(validateCmd)
}
