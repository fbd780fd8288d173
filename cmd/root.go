package cmd

import (
	"fmt"

	"logger-netcfg/internal/pkg/config"
	"logger-netcfg/internal/pkg/profile"

	"github.com/spf13/cobra"
)

var (
	configFlag string
	loggerFlag string
)

var rootCmd = &cobra.Command{
	Use:   "logger-netcfg",
	Short: "logger-netcfg manages WiFi and IP settings for the sensor data loggers",
	Long: `logger-netcfg keeps the network profiles of the BMP085 and DHT11 data loggers.
It renders the WiFi_Info.h header the firmware compiles in, validates the
profiles, and can apply a profile to a host interface for bench testing.`,
	SilenceUsage: true,
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

// loadConfig reads the file named by --config, or the built-in profiles
// when allowDefaults is set and no file was given.
func loadConfig(allowDefaults bool) (*config.Config, error) {
	if configFlag == "" {
		if !allowDefaults {
			return nil, fmt.Errorf("a config file is required")
		}
		return profile.Defaults()
	}
	return config.Load(configFlag)
}

// selectLogger returns the profile named by --logger.
func selectLogger(cfg *config.Config) (config.LoggerConfig, error) {
	loggerConfig, ok := cfg.GetLoggerConfig(loggerFlag)
	if !ok {
		return config.LoggerConfig{}, fmt.Errorf("logger %q is not configured", loggerFlag)
	}
	return loggerConfig, nil
}
