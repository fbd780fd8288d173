package dhcp

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"logger-netcfg/internal/adapter/netapply"
	"logger-netcfg/internal/pkg/config"
	"logger-netcfg/internal/pkg/logging"
	"logger-netcfg/internal/port"

	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/sirupsen/logrus"
)

const (
	maxRetries     = 3
	requestTimeout = 15 * time.Second
	failureBackoff = 30 * time.Second
)

// Manager keeps a DHCP lease on the interface of a logger that has no fixed
// addressing. It implements the NetworkConfigurationManager port.
type Manager struct {
	device     string
	iface      *net.Interface
	logger     config.LoggerConfig
	resolvConf string
	dhcpClient port.DHCPClient
	applier    *netapply.Applier
	retryDelay time.Duration
}

// Ensure Manager implements the NetworkConfigurationManager port
var _ port.NetworkConfigurationManager = (*Manager)(nil)

// NewManager creates a DHCP network configuration adapter for the named logger.
func NewManager(device string, loggerConfig config.LoggerConfig, dhcpClient port.DHCPClient, networkMgr port.NetworkManager, fileMgr port.FileManager, resolvConf string) (*Manager, error) {
	iface, err := net.InterfaceByName(loggerConfig.Interface)
	if err != nil {
		return nil, fmt.Errorf("interface not found: %w", err)
	}

	return &Manager{
		device:     device,
		iface:      iface,
		logger:     loggerConfig,
		resolvConf: resolvConf,
		dhcpClient: dhcpClient,
		applier:    netapply.NewApplier("dhcp", device, iface.Name, networkMgr, fileMgr),
		retryDelay: 2 * time.Second,
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

func (m *Manager) getLogger() *logrus.Entry {
	return logging.WithManager("dhcp", m.device, m.iface.Name)
}

// Run acquires a lease, applies it and renews it until the context is cancelled.
func (m *Manager) Run(ctx context.Context) error {
	logger := m.getLogger().WithField("mac", m.iface.HardwareAddr.String())
	logger.Info("Starting DHCP manager")

	if err := m.applier.ApplyCredentials(m.logger.WiFi); err != nil {
		return err
	}

	// Start with immediate lease acquisition
	renewalTimer := time.NewTimer(time.Millisecond)
	defer renewalTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("DHCP manager stopped due to context cancellation")
			return ctx.Err()
		case <-renewalTimer.C:
			renewalTimer.Reset(m.renew(ctx, logger))
		}
	}
}

// renew runs one acquisition cycle and returns the delay until the next.
func (m *Manager) renew(ctx context.Context, logger *logrus.Entry) time.Duration {
	lease, err := m.getDHCPLease(ctx, logger)
	if err != nil {
		logger.WithError(err).WithField("retry_in", failureBackoff.String()).Error("Failed to get DHCP lease")
		return failureBackoff
	}

	if err := m.applyDHCPLease(lease); err != nil {
		logger.WithError(err).Error("Failed to apply DHCP lease")
	} else {
		logger.Info("Successfully configured interface")
	}

	renewal := lease.IPAddressRenewalTime(failureBackoff)
	logger.WithField("renewal_time", renewal.String()).Info("Sleeping until renewal")
	return renewal
}

// getDHCPLease performs the DISCOVER/OFFER/REQUEST/ACK sequence, retrying a
// bounded number of times.
func (m *Manager) getDHCPLease(ctx context.Context, logger *logrus.Entry) (*dhcpv4.DHCPv4, error) {
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logger.WithField("attempt", fmt.Sprintf("%d/%d", attempt, maxRetries)).Debug("Attempting DHCP lease")

		ack, err := m.dhcpClient.RequestLease(ctx, m.iface.Name, requestTimeout)
		if err == nil {
			logger.WithField("ip", ack.YourIPAddr.String()).Info("Successfully obtained DHCP lease")
			return ack, nil
		}

		lastErr = err
		logger.WithError(err).WithField("attempt", attempt).Warn("DHCP lease request failed")
		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(m.retryDelay):
			}
		}
	}

	return nil, fmt.Errorf("DHCP lease request failed after %d attempts: %w", maxRetries, lastErr)
}

// applyDHCPLease configures the interface from the ACK. Resolvers pinned in
// the profile take precedence over those the server offers.
func (m *Manager) applyDHCPLease(ack *dhcpv4.DHCPv4) error {
	logger := m.getLogger()

	subnetMask := ack.SubnetMask()
	if subnetMask == nil {
		// Default to /24 if no subnet mask provided
		subnetMask = net.IPv4Mask(255, 255, 255, 0)
	}
	ipNet := &net.IPNet{
		IP:   ack.YourIPAddr,
		Mask: subnetMask,
	}

	link, err := m.applier.Link()
	if err != nil {
		return err
	}

	leaseTime := ack.IPAddressLeaseTime(60 * time.Second)
	logger.WithField("lease_time", leaseTime.String()).Debug("Lease time extracted")

	if err := m.applier.ApplyAddress(link, ipNet, int(leaseTime.Seconds())); err != nil {
		return err
	}

	if routers := ack.Router(); len(routers) > 0 {
		if err := m.applier.ApplyDefaultRoute(link, routers[0]); err != nil {
			return fmt.Errorf("failed to set default gateway: %w", err)
		}
	}

	resolvers := m.pinnedResolvers()
	if len(resolvers) == 0 {
		resolvers = ack.DNS()
	}
	if len(resolvers) > 0 {
		names := make([]string, 0, len(resolvers))
		for _, r := range resolvers {
			names = append(names, r.String())
		}
		logger.WithField("dns_servers", strings.Join(names, ", ")).Debug("Using DNS servers")

		if err := m.applier.ApplyResolvers(m.resolvConf, resolvers); err != nil {
			logger.WithError(err).Warn("Failed to configure DNS")
		}
	}

	return nil
}

func (m *Manager) pinnedResolvers() []net.IP {
	var out []net.IP
	for _, r := range m.logger.DNS {
		out = append(out, r.IP())
	}
	return out
}
