package static

import (
	"context"
	"fmt"
	"net"
	"time"

	"logger-netcfg/internal/adapter/netapply"
	"logger-netcfg/internal/pkg/config"
	"logger-netcfg/internal/pkg/logging"
	"logger-netcfg/internal/port"
)

// MonitorInterval is how often the applied profile is checked.
const MonitorInterval = 30 * time.Second

// Manager applies a logger's fixed addressing to a host interface and keeps
// it there. It implements the NetworkConfigurationManager port.
type Manager struct {
	device     string
	iface      *net.Interface
	logger     config.LoggerConfig
	static     config.StaticConfig
	resolvConf string
	applier    *netapply.Applier
	interval   time.Duration
	lookup     func(name string) (*net.Interface, error)
}

// Ensure Manager implements the NetworkConfigurationManager port
var _ port.NetworkConfigurationManager = (*Manager)(nil)

// NewManager creates a static network configuration adapter for the named logger.
func NewManager(device string, loggerConfig config.LoggerConfig, networkMgr port.NetworkManager, fileMgr port.FileManager, resolvConf string) (*Manager, error) {
	if loggerConfig.Static == nil {
		return nil, fmt.Errorf("logger %s does not have static IP settings", device)
	}

	iface, err := net.InterfaceByName(loggerConfig.Interface)
	if err != nil {
		return nil, fmt.Errorf("interface not found: %w", err)
	}

	return &Manager{
		device:     device,
		iface:      iface,
		logger:     loggerConfig,
		static:     *loggerConfig.Static,
		resolvConf: resolvConf,
		applier:    netapply.NewApplier("static", device, iface.Name, networkMgr, fileMgr),
		interval:   MonitorInterval,
		lookup:     net.InterfaceByName,
	}, nil
}

// GetInterfaceName returns the name of the network interface managed by this manager.
func (m *Manager) GetInterfaceName() string {
	return m.iface.Name
}

// GetDeviceName returns the logger profile name.
func (m *Manager) GetDeviceName() string {
	return m.device
}

// Run applies the profile and re-checks it every MonitorInterval until the
// context is cancelled.
func (m *Manager) Run(ctx context.Context) error {
	logger := logging.WithManager("static", m.device, m.iface.Name).WithField("mac", m.iface.HardwareAddr.String())
	logger.Info("Starting static IP configuration")

	if err := m.applier.ApplyCredentials(m.logger.WiFi); err != nil {
		return err
	}

	if err := m.applyStaticConfig(); err != nil {
		return fmt.Errorf("failed to apply static configuration: %w", err)
	}

	logger.WithFields(map[string]interface{}{
		"ip":      m.static.IP.String(),
		"subnet":  m.static.Subnet.String(),
		"gateway": m.static.Gateway.String(),
	}).Info("Static IP configuration applied successfully")

	return m.monitorInterface(ctx)
}

// applyStaticConfig applies address, default route and resolvers.
func (m *Manager) applyStaticConfig() error {
	link, err := m.applier.Link()
	if err != nil {
		return err
	}

	if !m.static.Subnet.IsContiguousMask() {
		return fmt.Errorf("invalid subnet mask: %s", m.static.Subnet)
	}
	if m.static.IP.IsZero() {
		return fmt.Errorf("invalid IP address: %s", m.static.IP)
	}

	ipNet := &net.IPNet{
		IP:   m.static.IP.IP(),
		Mask: m.static.Subnet.Mask(),
	}
	if err := m.applier.ApplyAddress(link, ipNet, 0); err != nil {
		return err
	}

	if !m.static.Gateway.IsZero() {
		if err := m.applier.ApplyDefaultRoute(link, m.static.Gateway.IP()); err != nil {
			return fmt.Errorf("failed to set default gateway: %w", err)
		}
	}

	var resolvers []net.IP
	for _, r := range m.static.Resolvers() {
		resolvers = append(resolvers, r.IP())
	}
	if err := m.applier.ApplyResolvers(m.resolvConf, resolvers); err != nil {
		// The address is in place; a stale resolv.conf is not fatal.
		logging.WithManager("static", m.device, m.iface.Name).WithError(err).Warn("Failed to configure DNS")
	}

	return nil
}

// monitorInterface monitors the interface and reapplies configuration if needed.
func (m *Manager) monitorInterface(ctx context.Context) error {
	logger := logging.WithManager("static", m.device, m.iface.Name)
	logger.WithField("interval", m.interval.String()).Info("Starting interface monitoring")

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Interface monitoring stopped due to context cancellation")
			return ctx.Err()
		case <-ticker.C:
			if err := m.checkAndRepairConfiguration(); err != nil {
				logger.WithError(err).Error("Configuration check failed")
			}
		}
	}
}

// checkAndRepairConfiguration brings the link up and reapplies the profile
// when the device address has gone missing.
func (m *Manager) checkAndRepairConfiguration() error {
	logger := logging.WithManager("static", m.device, m.iface.Name)

	iface, err := m.lookup(m.iface.Name)
	if err != nil {
		return fmt.Errorf("interface %s not found: %w", m.iface.Name, err)
	}
	m.iface = iface

	link, err := m.applier.Link()
	if err != nil {
		return err
	}

	if err := m.applier.EnsureUp(link, m.iface); err != nil {
		return err
	}

	hasStaticIP, err := m.applier.HasAddress(link, m.static.IP.IP())
	if err != nil {
		return err
	}

	if !hasStaticIP {
		logger.WithField("ip", m.static.IP.String()).
			Warn("Static IP not found on interface, reapplying configuration")
		if err := m.applyStaticConfig(); err != nil {
			return fmt.Errorf("failed to reapply static configuration: %w", err)
		}
		logger.Info("Static configuration reapplied successfully")
	}

	return nil
}
