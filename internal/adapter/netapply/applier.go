// Package netapply applies addressing, routes, resolvers and WiFi credentials
// to a host interface. Both network configuration adapters share it.
package netapply

import (
	"bytes"
	"fmt"
	"net"
	"strings"

	"logger-netcfg/internal/pkg/config"
	"logger-netcfg/internal/pkg/logging"
	"logger-netcfg/internal/pkg/wifi"
	"logger-netcfg/internal/port"

	"github.com/sirupsen/logrus"
	"github.com/vishvananda/netlink"
)

// Applier configures a single interface on behalf of one logger profile.
type Applier struct {
	component  string
	device     string
	ifaceName  string
	networkMgr port.NetworkManager
	fileMgr    port.FileManager
}

// NewApplier creates an applier for the given interface. component and
// device only tag log output.
func NewApplier(component, device, ifaceName string, networkMgr port.NetworkManager, fileMgr port.FileManager) *Applier {
	return &Applier{
		component:  component,
		device:     device,
		ifaceName:  ifaceName,
		networkMgr: networkMgr,
		fileMgr:    fileMgr,
	}
}

func (a *Applier) logger() *logrus.Entry {
	return logging.WithManager(a.component, a.device, a.ifaceName)
}

// Link returns the netlink handle of the interface.
func (a *Applier) Link() (netlink.Link, error) {
	link, err := a.networkMgr.GetLinkByName(a.ifaceName)
	if err != nil {
		return nil, fmt.Errorf("failed to get netlink interface: %w", err)
	}
	return link, nil
}

// ApplyAddress makes ipNet the only IPv4 address on the link. lifetime is in
// seconds; zero means permanent. A permanent address already present with the
// same mask is left alone. A leased one is replaced so the kernel lifetimes
// restart with the new lease.
func (a *Applier) ApplyAddress(link netlink.Link, ipNet *net.IPNet, lifetime int) error {
	logger := a.logger()
	logger.WithField("ip", ipNet.String()).Info("Configuring interface with IP")

	existingAddrs, err := a.networkMgr.ListAddresses(link)
	if err != nil {
		return fmt.Errorf("failed to list existing addresses: %w", err)
	}

	for _, addr := range existingAddrs {
		if !addr.IPNet.IP.Equal(ipNet.IP) || addr.IPNet.Mask.String() != ipNet.Mask.String() {
			continue
		}
		if lifetime <= 0 {
			logger.WithField("ip", ipNet.String()).Info("IP address already configured, skipping")
			return nil
		}
		refreshed := &netlink.Addr{IPNet: ipNet, ValidLft: lifetime, PreferedLft: lifetime}
		if err := a.networkMgr.ReplaceAddress(link, refreshed); err != nil {
			return fmt.Errorf("failed to refresh IP address %s: %w", ipNet.String(), err)
		}
		logger.WithFields(logrus.Fields{
			"ip":       ipNet.String(),
			"lifetime": lifetime,
		}).Info("Refreshed address lifetime")
		return nil
	}

	for _, addr := range existingAddrs {
		if addr.IPNet.IP.Equal(ipNet.IP) {
			continue
		}
		if err := a.networkMgr.DeleteAddress(link, &addr); err != nil {
			logger.WithError(err).WithField("address", addr.IPNet.String()).Warn("Failed to remove existing address")
		} else {
			logger.WithField("address", addr.IPNet.String()).Debug("Removed existing address")
		}
	}

	addr := &netlink.Addr{IPNet: ipNet}
	if lifetime > 0 {
		addr.ValidLft = lifetime
		addr.PreferedLft = lifetime
	}
	if err := a.networkMgr.AddAddress(link, addr); err != nil {
		return fmt.Errorf("failed to add IP address %s: %w", ipNet.String(), err)
	}
	logger.WithField("ip", ipNet.String()).Info("Successfully added IP address")
	return nil
}

// HasAddress reports whether ip is configured on the link.
func (a *Applier) HasAddress(link netlink.Link, ip net.IP) (bool, error) {
	addrs, err := a.networkMgr.ListAddresses(link)
	if err != nil {
		return false, fmt.Errorf("failed to get interface addresses: %w", err)
	}
	for _, addr := range addrs {
		if addr.IPNet.IP.Equal(ip) {
			return true, nil
		}
	}
	return false, nil
}

// ApplyDefaultRoute points the default route at gateway through the link,
// removing any other default route.
func (a *Applier) ApplyDefaultRoute(link netlink.Link, gateway net.IP) error {
	logger := a.logger().WithField("gateway", gateway.String())

	routes, err := a.networkMgr.ListRoutes()
	if err != nil {
		return fmt.Errorf("failed to list routes: %w", err)
	}

	hasDefaultRoute := false
	for _, route := range routes {
		if !isDefaultRoute(route) {
			continue
		}
		if route.Gw != nil && route.Gw.Equal(gateway) && route.LinkIndex == link.Attrs().Index {
			logger.Debug("Default route already configured, skipping")
			hasDefaultRoute = true
			continue
		}
		entry := logger
		if route.Gw != nil {
			entry = entry.WithField("existing_gateway", route.Gw.String())
		}
		if err := a.networkMgr.DeleteRoute(&route); err != nil {
			entry.WithError(err).Warn("Failed to remove existing default route")
		} else {
			entry.Debug("Removed conflicting default route")
		}
	}

	if hasDefaultRoute {
		return nil
	}

	route := &netlink.Route{
		LinkIndex: link.Attrs().Index,
		Gw:        gateway,
	}
	if err := a.networkMgr.AddRoute(route); err != nil {
		if strings.Contains(err.Error(), "file exists") {
			logger.Debug("Default route already exists, ignoring error")
			return nil
		}
		return fmt.Errorf("failed to add default route: %w", err)
	}
	logger.Info("Successfully configured default route")
	return nil
}

func isDefaultRoute(route netlink.Route) bool {
	if route.Dst == nil {
		return true
	}
	ones, _ := route.Dst.Mask.Size()
	return ones == 0 && route.Dst.IP.IsUnspecified()
}

// ApplyResolvers writes the resolver addresses to path, in order. The file is
// left alone when it already has this content.
func (a *Applier) ApplyResolvers(path string, resolvers []net.IP) error {
	logger := a.logger()
	if len(resolvers) == 0 {
		logger.Debug("No resolvers configured, leaving resolv.conf untouched")
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Generated by logger-netcfg for %s\n", a.device)
	names := make([]string, 0, len(resolvers))
	for _, r := range resolvers {
		fmt.Fprintf(&b, "nameserver %s\n", r.String())
		names = append(names, r.String())
	}

	written, err := a.writeIfChanged(path, []byte(b.String()), 0644)
	if err != nil {
		return err
	}
	if written {
		logger.WithFields(logrus.Fields{
			"path":        path,
			"dns_servers": strings.Join(names, ", "),
		}).Info("Updated resolver configuration")
	} else {
		logger.WithField("path", path).Debug("Resolver configuration already up to date, skipping")
	}
	return nil
}

// ApplyCredentials maintains the wpa_supplicant file named by creds. Nothing
// is done when no file is configured.
func (a *Applier) ApplyCredentials(creds config.Credentials) error {
	if creds.SupplicantConf == "" {
		return nil
	}
	block, err := wifi.SupplicantBlock(creds.SSID, creds.Password)
	if err != nil {
		return fmt.Errorf("invalid WiFi credentials: %w", err)
	}
	if err := a.ApplySupplicant(creds.SupplicantConf, block); err != nil {
		return fmt.Errorf("failed to apply WiFi credentials: %w", err)
	}
	return nil
}

// ApplySupplicant writes a wpa_supplicant network block to path. The block
// carries key material, so the file is owner-readable only.
func (a *Applier) ApplySupplicant(path string, block string) error {
	written, err := a.writeIfChanged(path, []byte(block), 0600)
	if err != nil {
		return err
	}
	if written {
		a.logger().WithField("path", path).Info("Updated WiFi supplicant configuration")
	}
	return nil
}

func (a *Applier) writeIfChanged(path string, content []byte, perm int) (bool, error) {
	if a.fileMgr.FileExists(path) {
		if current, err := a.fileMgr.ReadFile(path); err == nil && bytes.Equal(current, content) {
			return false, nil
		}
	}
	if err := a.fileMgr.WriteFile(path, content, perm); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}

// EnsureUp brings the link up when the interface flags report it down.
func (a *Applier) EnsureUp(link netlink.Link, iface *net.Interface) error {
	if iface.Flags&net.FlagUp != 0 {
		return nil
	}
	a.logger().Warn("Interface is down, bringing it up")
	if err := a.networkMgr.SetLinkUp(link); err != nil {
		return fmt.Errorf("failed to bring interface up: %w", err)
	}
	return nil
}
