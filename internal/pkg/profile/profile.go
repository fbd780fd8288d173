// Package profile ships the network profiles of the known data logger devices.
package profile

import (
	_ "embed"
	"fmt"

	"logger-netcfg/internal/pkg/config"
)

//go:embed defaults.yml
var defaults []byte

// Raw returns the built-in profile document as YAML.
func Raw() []byte {
	out := make([]byte, len(defaults))
	copy(out, defaults)
	return out
}

// Defaults parses the built-in profiles. The result does not validate until
// the placeholder credentials are replaced.
func Defaults() (*config.Config, error) {
	cfg, err := config.Parse(defaults)
	if err != nil {
		return nil, fmt.Errorf("built-in profiles: %w", err)
	}
	return cfg, nil
}

// Lookup returns one built-in device profile by name.
func Lookup(name string) (config.LoggerConfig, error) {
	cfg, err := Defaults()
	if err != nil {
		return config.LoggerConfig{}, err
	}
	logger, ok := cfg.GetLoggerConfig(name)
	if !ok {
		return config.LoggerConfig{}, fmt.Errorf("no built-in profile named %s", name)
	}
	return logger, nil
}
