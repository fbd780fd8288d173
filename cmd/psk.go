package cmd

import (
	"fmt"

	"logger-netcfg/internal/pkg/wifi"

	"github.com/spf13/cobra"
)

var (
	ssidFlag     string
	passwordFlag string
)

var pskCmd = &cobra.Command{
	Use:   "psk",
	Short: "Print the WPA pre-shared key for an SSID and passphrase",
	RunE: func(cmd *cobra.Command, args []string) error {
		psk, err := wifi.DerivePSK(ssidFlag, passwordFlag)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), psk)
		return nil
	},
}

func init() {
	pskCmd.Flags().StringVar(&ssidFlag, "ssid", "", "WiFi network name")
	pskCmd.Flags().StringVar(&passwordFlag, "password", "", "WiFi passphrase")
	for _, name := range []string{"ssid", "password"} {
		if err := pskCmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}
	rootCmd.AddCommand(pskCmd)
}
