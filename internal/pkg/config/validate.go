package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"logger-netcfg/internal/pkg/wifi"
	"logger-netcfg/internal/types"
)

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.Loggers) == 0 {
		return fmt.Errorf("no loggers configured")
	}

	interfaces := make(map[string]string)
	for _, name := range c.loggerNames() {
		logger := c.Loggers[name]

		if logger.Interface == "" {
			return fmt.Errorf("logger %s: interface is required", name)
		}
		if other, taken := interfaces[logger.Interface]; taken {
			return fmt.Errorf("logger %s: interface %s is already used by logger %s", name, logger.Interface, other)
		}
		interfaces[logger.Interface] = name

		if !logger.DHCP && logger.Static == nil {
			return fmt.Errorf("logger %s: must specify either dhcp or static configuration", name)
		}
		if logger.DHCP && logger.Static != nil {
			return fmt.Errorf("logger %s: cannot specify both dhcp and static configuration", name)
		}
		if logger.Static != nil {
			if err := validateStaticConfig(name, logger.Static); err != nil {
				return err
			}
			if len(logger.DNS) > 0 {
				return fmt.Errorf("logger %s: dns is only used with dhcp, set static.primary_dns instead", name)
			}
		}
		if len(logger.DNS) > MaxResolvers {
			return fmt.Errorf("logger %s: at most %d dns servers are supported, got %d", name, MaxResolvers, len(logger.DNS))
		}
		for _, r := range logger.DNS {
			if r.IsZero() {
				return fmt.Errorf("logger %s: dns server 0.0.0.0 is not valid", name)
			}
		}

		if err := wifi.ValidateSSID(logger.WiFi.SSID); err != nil {
			return fmt.Errorf("logger %s: %w", name, err)
		}
		if err := wifi.ValidatePassphrase(logger.WiFi.Password); err != nil {
			return fmt.Errorf("logger %s: %w", name, err)
		}

		if logger.Server != "" && !wifi.IsPlaceholder(logger.Server) {
			if err := ValidateServer(logger.Server); err != nil {
				return fmt.Errorf("logger %s: %w", name, err)
			}
		}
	}

	return nil
}

func validateStaticConfig(name string, static *StaticConfig) error {
	if static.IP.IsZero() {
		return fmt.Errorf("logger %s: static IP address is required", name)
	}
	if static.Subnet.IsZero() {
		return fmt.Errorf("logger %s: static subnet mask is required", name)
	}
	if !static.Subnet.IsContiguousMask() {
		return fmt.Errorf("logger %s: subnet mask %s is not contiguous", name, static.Subnet)
	}
	if static.PrimaryDNS.IsZero() && !static.SecondaryDNS.IsZero() {
		return fmt.Errorf("logger %s: secondary DNS %s set without a primary DNS", name, static.SecondaryDNS)
	}
	return nil
}

// ValidateServer checks the data server. It may be a dotted-quad or a host
// name, optionally followed by :port. A host that ends in a numeric label, or
// that has four labels with three numeric ones leading, is taken as an
// address and must parse as one, so "192.168.1", "192.168.1.x" and
// "192.168.1.10.5" are rejected.
func ValidateServer(server string) error {
	host := server
	if i := strings.LastIndex(server, ":"); i >= 0 {
		host = server[:i]
		port, err := strconv.Atoi(server[i+1:])
		if err != nil || !isNumeric(server[i+1:]) || port < 1 || port > 65535 {
			return fmt.Errorf("server %q has an invalid port", server)
		}
	}
	if host == "" {
		return fmt.Errorf("server %q has no host", server)
	}

	if looksLikeAddress(host) {
		if _, err := types.ParseIPv4(host); err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	}

	if len(host) > 253 {
		return fmt.Errorf("server hostname %q is too long", host)
	}
	for _, label := range strings.Split(host, ".") {
		if !isHostnameLabel(label) {
			return fmt.Errorf("server %q is neither an IPv4 address nor a valid hostname", server)
		}
	}
	return nil
}

// looksLikeAddress reports whether host is an attempt at a dotted-quad.
// Top-level domains are never numeric.
func looksLikeAddress(host string) bool {
	labels := strings.Split(host, ".")
	if isNumeric(labels[len(labels)-1]) {
		return true
	}
	return len(labels) == 4 && isNumeric(labels[0]) && isNumeric(labels[1]) && isNumeric(labels[2])
}

// Warnings reports settings that are legal but probably wrong. Each entry is
// prefixed with the logger name; entries are sorted by logger.
func (c *Config) Warnings() []string {
	var warnings []string
	for _, name := range c.loggerNames() {
		logger := c.Loggers[name]

		if wifi.IsPlaceholder(logger.Server) {
			warnings = append(warnings, fmt.Sprintf("logger %s: server %q is a placeholder", name, logger.Server))
		}

		s := logger.Static
		if s == nil || s.IP.IsZero() || s.Subnet.IsZero() || !s.Subnet.IsContiguousMask() {
			continue
		}
		if s.Subnet.PrefixLength() < 31 {
			if s.IP == s.IP.Network(s.Subnet) {
				warnings = append(warnings, fmt.Sprintf("logger %s: device address %s is the network address of its subnet", name, s.IP))
			}
			if s.IP == s.IP.Broadcast(s.Subnet) {
				warnings = append(warnings, fmt.Sprintf("logger %s: device address %s is the broadcast address of its subnet", name, s.IP))
			}
		}
		if !s.Gateway.IsZero() {
			if s.Gateway == s.IP {
				warnings = append(warnings, fmt.Sprintf("logger %s: gateway %s equals the device address", name, s.Gateway))
			} else if !s.Gateway.SameSubnet(s.IP, s.Subnet) {
				warnings = append(warnings, fmt.Sprintf("logger %s: gateway %s is outside subnet %s/%d", name, s.Gateway, s.IP.Network(s.Subnet), s.Subnet.PrefixLength()))
			} else if s.Subnet.PrefixLength() < 31 && s.Gateway == s.IP.Broadcast(s.Subnet) {
				warnings = append(warnings, fmt.Sprintf("logger %s: gateway %s is the broadcast address of its subnet", name, s.Gateway))
			}
		}
	}
	return warnings
}

func (c *Config) loggerNames() []string {
	names := make([]string, 0, len(c.Loggers))
	for name := range c.Loggers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isNumeric(s string) bool {
	return s != "" && strings.Trim(s, "0123456789") == ""
}

func isHostnameLabel(label string) bool {
	if label == "" || len(label) > 63 {
		return false
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}
	for _, c := range label {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
		default:
			return false
		}
	}
	return true
}
