package cmd

import (
	"bytes"
	"fmt"
	"os"

	"logger-netcfg/internal/pkg/header"

	"github.com/spf13/cobra"
)

var outputFlag string

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Write the WiFi_Info.h header for one logger",
	Long: `Render writes the header a logger's firmware compiles in. Without --config
the built-in profiles are used. Use "-o -" to print to stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(true)
		if err != nil {
			return err
		}
		loggerConfig, err := selectLogger(cfg)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := header.Render(&buf, loggerFlag, loggerConfig); err != nil {
			return err
		}

		if outputFlag == "-" {
			_, err := cmd.OutOrStdout().Write(buf.Bytes())
			return err
		}
		if err := os.WriteFile(outputFlag, buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", outputFlag, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s for logger %s\n", outputFlag, loggerFlag)
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVarP(&configFlag, "config", "f", "", "Path to config file (YAML or TOML)")
	renderCmd.Flags().StringVarP(&loggerFlag, "logger", "l", "", "Logger profile to render")
	renderCmd.Flags().StringVarP(&outputFlag, "output", "o", header.FileName, "Output file, or - for stdout")
	if err := renderCmd.MarkFlagRequired("logger"); err != nil {
		panic(err)
	}
	rootCmd.AddCommand(renderCmd)
}
