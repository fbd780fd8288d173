package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"logger-netcfg/internal/pkg/logging"
	"logger-netcfg/internal/types"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultResolvConf is where resolver addresses are written when the
// configuration does not name another file.
const DefaultResolvConf = "/etc/resolv.conf"

// Credentials is the WiFi network a logger joins
type Credentials struct {
	SSID           string `yaml:"ssid" toml:"ssid"`
	Password       string `yaml:"password" toml:"password"`
	SupplicantConf string `yaml:"supplicant_conf,omitempty" toml:"supplicant_conf"` // wpa_supplicant file to maintain (optional)
}

// StaticConfig is the fixed addressing of a logger
type StaticConfig struct {
	IP           types.IPv4 `yaml:"ip" toml:"ip"`
	Gateway      types.IPv4 `yaml:"gateway" toml:"gateway"`
	Subnet       types.IPv4 `yaml:"subnet" toml:"subnet"`
	PrimaryDNS   types.IPv4 `yaml:"primary_dns,omitempty" toml:"primary_dns"`
	SecondaryDNS types.IPv4 `yaml:"secondary_dns,omitempty" toml:"secondary_dns"`
}

// Resolvers returns the configured resolver addresses in order, skipping unset ones.
func (s *StaticConfig) Resolvers() []types.IPv4 {
	var out []types.IPv4
	for _, r := range []types.IPv4{s.PrimaryDNS, s.SecondaryDNS} {
		if !r.IsZero() {
			out = append(out, r)
		}
	}
	return out
}

// LoggerConfig represents the network profile of one data logger
type LoggerConfig struct {
	Interface string        `yaml:"interface" toml:"interface"`
	WiFi      Credentials   `yaml:"wifi" toml:"wifi"`
	Server    string        `yaml:"server,omitempty" toml:"server"`
	DHCP      bool          `yaml:"dhcp,omitempty" toml:"dhcp"`
	DNS       []types.IPv4  `yaml:"dns,omitempty" toml:"dns"` // pinned resolvers for a dhcp logger
	Static    *StaticConfig `yaml:"static,omitempty" toml:"static"`
}

// MaxResolvers is how many resolver addresses a logger can use.
const MaxResolvers = 2

// Config represents the main configuration structure
type Config struct {
	Logging    logging.LogConfig       `yaml:"logging" toml:"logging"`
	ResolvConf string                  `yaml:"resolv_conf,omitempty" toml:"resolv_conf"`
	Loggers    map[string]LoggerConfig `yaml:"loggers" toml:"loggers"`
}

// Load loads configuration from a YAML or TOML file. The format is chosen by
// file extension; anything other than .toml is read as YAML.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var config Config
	if strings.EqualFold(filepath.Ext(configPath), ".toml") {
		if _, err := toml.Decode(string(data), &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
		}
	}

	return &config, nil
}

// Parse decodes a YAML document.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &config, nil
}

// GetLoggerConfig returns the configuration for a specific logger
func (c *Config) GetLoggerConfig(name string) (LoggerConfig, bool) {
	config, exists := c.Loggers[name]
	return config, exists
}

// GetResolvConf returns the resolver file to maintain.
func (c *Config) GetResolvConf() string {
	if c.ResolvConf == "" {
		return DefaultResolvConf
	}
	return c.ResolvConf
}
