//go:build unit

package dhcp

import (
	"context"
	"net"
	"testing"
	"time"

	"logger-netcfg/internal/mock"
	"logger-netcfg/internal/pkg/config"
	"logger-netcfg/internal/types"

	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vishvananda/netlink"
	"go.uber.org/mock/gomock"
)

const testResolvConf = "/tmp/logger-netcfg-test/resolv.conf"

func testLoggerConfig() config.LoggerConfig {
	return config.LoggerConfig{
		Interface: "lo",
		DHCP:      true,
		WiFi: config.Credentials{
			SSID:     "LabNetwork",
			Password: "correct horse battery",
		},
	}
}

type mocks struct {
	dhcpClient *mock.MockDHCPClient
	networkMgr *mock.MockNetworkManager
	fileMgr    *mock.MockFileManager
}

func newTestManager(t *testing.T, loggerConfig config.LoggerConfig) (*Manager, mocks) {
	ctrl := gomock.NewController(t)
	m := mocks{
		dhcpClient: mock.NewMockDHCPClient(ctrl),
		networkMgr: mock.NewMockNetworkManager(ctrl),
		fileMgr:    mock.NewMockFileManager(ctrl),
	}
	manager, err := NewManager("bmp085", loggerConfig, m.dhcpClient, m.networkMgr, m.fileMgr, testResolvConf)
	require.NoError(t, err)
	manager.retryDelay = time.Millisecond
	return manager, m
}

func testACK() *dhcpv4.DHCPv4 {
	ack := &dhcpv4.DHCPv4{}
	ack.YourIPAddr = net.ParseIP("192.168.1.100").To4()
	ack.Options = make(dhcpv4.Options)
	ack.Options.Update(dhcpv4.OptSubnetMask(net.IPv4Mask(255, 255, 255, 0)))
	return ack
}

func TestNewManager(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dhcpClient := mock.NewMockDHCPClient(ctrl)
	networkMgr := mock.NewMockNetworkManager(ctrl)
	fileMgr := mock.NewMockFileManager(ctrl)

	t.Run("ValidInterface", func(t *testing.T) {
		manager, err := NewManager("bmp085", testLoggerConfig(), dhcpClient, networkMgr, fileMgr, testResolvConf)
		require.NoError(t, err)
		assert.Equal(t, "lo", manager.GetInterfaceName())
		assert.Equal(t, "bmp085", manager.GetDeviceName())
	})

	t.Run("InvalidInterface", func(t *testing.T) {
		loggerConfig := testLoggerConfig()
		loggerConfig.Interface = "nonexistent"

		_, err := NewManager("bmp085", loggerConfig, dhcpClient, networkMgr, fileMgr, testResolvConf)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "interface not found")
	})
}

func TestManager_getDHCPLease(t *testing.T) {
	ctx := context.Background()

	t.Run("SuccessfulLease", func(t *testing.T) {
		manager, m := newTestManager(t, testLoggerConfig())
		expectedACK := testACK()

		m.dhcpClient.EXPECT().
			RequestLease(ctx, "lo", 15*time.Second).
			Return(expectedACK, nil).
			Times(1)

		ack, err := manager.getDHCPLease(ctx, manager.getLogger())
		require.NoError(t, err)
		assert.Equal(t, expectedACK, ack)
	})

	t.Run("RecoversAfterFailure", func(t *testing.T) {
		manager, m := newTestManager(t, testLoggerConfig())
		expectedACK := testACK()

		gomock.InOrder(
			m.dhcpClient.EXPECT().RequestLease(ctx, "lo", 15*time.Second).Return(nil, assert.AnError),
			m.dhcpClient.EXPECT().RequestLease(ctx, "lo", 15*time.Second).Return(expectedACK, nil),
		)

		ack, err := manager.getDHCPLease(ctx, manager.getLogger())
		require.NoError(t, err)
		assert.Equal(t, expectedACK, ack)
	})

	t.Run("FailedLeaseWithRetries", func(t *testing.T) {
		manager, m := newTestManager(t, testLoggerConfig())

		m.dhcpClient.EXPECT().
			RequestLease(ctx, "lo", 15*time.Second).
			Return(nil, assert.AnError).
			Times(3)

		ack, err := manager.getDHCPLease(ctx, manager.getLogger())
		assert.Error(t, err)
		assert.Nil(t, ack)
		assert.Contains(t, err.Error(), "DHCP lease request failed after 3 attempts")
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("CancelledBetweenRetries", func(t *testing.T) {
		manager, m := newTestManager(t, testLoggerConfig())
		manager.retryDelay = time.Hour

		cancelCtx, cancel := context.WithCancel(context.Background())
		m.dhcpClient.EXPECT().
			RequestLease(cancelCtx, "lo", 15*time.Second).
			DoAndReturn(func(context.Context, string, time.Duration) (*dhcpv4.DHCPv4, error) {
				cancel()
				return nil, assert.AnError
			})

		_, err := manager.getDHCPLease(cancelCtx, manager.getLogger())
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestManager_applyDHCPLease(t *testing.T) {
	mockLink := &netlink.Dummy{LinkAttrs: netlink.LinkAttrs{Index: 1, Name: "lo"}}

	t.Run("SuccessfulIPConfiguration", func(t *testing.T) {
		manager, m := newTestManager(t, testLoggerConfig())

		m.networkMgr.EXPECT().GetLinkByName("lo").Return(mockLink, nil)
		m.networkMgr.EXPECT().ListAddresses(mockLink).Return([]netlink.Addr{}, nil)
		m.networkMgr.EXPECT().
			AddAddress(mockLink, gomock.Any()).
			DoAndReturn(func(_ netlink.Link, addr *netlink.Addr) error {
				assert.Equal(t, "192.168.1.100/24", addr.IPNet.String())
				assert.Equal(t, 60, addr.ValidLft)
				return nil
			})

		assert.NoError(t, manager.applyDHCPLease(testACK()))
	})

	t.Run("RouterAndLeaseDNS", func(t *testing.T) {
		manager, m := newTestManager(t, testLoggerConfig())

		ack := testACK()
		ack.Options.Update(dhcpv4.OptRouter(net.ParseIP("192.168.1.1").To4()))
		ack.Options.Update(dhcpv4.OptDNS(net.ParseIP("192.168.1.1").To4()))
		ack.Options.Update(dhcpv4.OptIPAddressLeaseTime(time.Hour))

		m.networkMgr.EXPECT().GetLinkByName("lo").Return(mockLink, nil)
		m.networkMgr.EXPECT().ListAddresses(mockLink).Return(nil, nil)
		m.networkMgr.EXPECT().
			AddAddress(mockLink, gomock.Any()).
			DoAndReturn(func(_ netlink.Link, addr *netlink.Addr) error {
				assert.Equal(t, 3600, addr.ValidLft)
				return nil
			})
		m.networkMgr.EXPECT().ListRoutes().Return(nil, nil)
		m.networkMgr.EXPECT().AddRoute(gomock.Any()).Return(nil)
		m.fileMgr.EXPECT().FileExists(testResolvConf).Return(false)
		m.fileMgr.EXPECT().
			WriteFile(testResolvConf, []byte("# Generated by logger-netcfg for bmp085\nnameserver 192.168.1.1\n"), 0644).
			Return(nil)

		assert.NoError(t, manager.applyDHCPLease(ack))
	})

	t.Run("PinnedDNSOverridesLease", func(t *testing.T) {
		loggerConfig := testLoggerConfig()
		loggerConfig.DNS = []types.IPv4{{8, 8, 8, 8}, {8, 8, 4, 4}}
		manager, m := newTestManager(t, loggerConfig)

		ack := testACK()
		ack.Options.Update(dhcpv4.OptDNS(net.ParseIP("192.168.1.1").To4()))

		m.networkMgr.EXPECT().GetLinkByName("lo").Return(mockLink, nil)
		m.networkMgr.EXPECT().ListAddresses(mockLink).Return(nil, nil)
		m.networkMgr.EXPECT().AddAddress(mockLink, gomock.Any()).Return(nil)
		m.fileMgr.EXPECT().FileExists(testResolvConf).Return(false)
		m.fileMgr.EXPECT().
			WriteFile(testResolvConf, []byte("# Generated by logger-netcfg for bmp085\nnameserver 8.8.8.8\nnameserver 8.8.4.4\n"), 0644).
			Return(nil)

		assert.NoError(t, manager.applyDHCPLease(ack))
	})

	t.Run("RenewalRefreshesLeasedAddress", func(t *testing.T) {
		manager, m := newTestManager(t, testLoggerConfig())

		ack := testACK()
		ack.Options.Update(dhcpv4.OptIPAddressLeaseTime(time.Hour))
		current := netlink.Addr{
			IPNet:       &net.IPNet{IP: net.ParseIP("192.168.1.100").To4(), Mask: net.IPv4Mask(255, 255, 255, 0)},
			ValidLft:    1800,
			PreferedLft: 1800,
		}

		m.networkMgr.EXPECT().GetLinkByName("lo").Return(mockLink, nil)
		m.networkMgr.EXPECT().ListAddresses(mockLink).Return([]netlink.Addr{current}, nil)
		m.networkMgr.EXPECT().
			ReplaceAddress(mockLink, gomock.Any()).
			DoAndReturn(func(_ netlink.Link, addr *netlink.Addr) error {
				assert.Equal(t, "192.168.1.100/24", addr.IPNet.String())
				assert.Equal(t, 3600, addr.ValidLft)
				assert.Equal(t, 3600, addr.PreferedLft)
				return nil
			})

		assert.NoError(t, manager.applyDHCPLease(ack))
	})

	t.Run("MissingSubnetMaskDefaultsTo24", func(t *testing.T) {
		manager, m := newTestManager(t, testLoggerConfig())

		ack := &dhcpv4.DHCPv4{YourIPAddr: net.ParseIP("10.1.2.3").To4(), Options: make(dhcpv4.Options)}

		m.networkMgr.EXPECT().GetLinkByName("lo").Return(mockLink, nil)
		m.networkMgr.EXPECT().ListAddresses(mockLink).Return(nil, nil)
		m.networkMgr.EXPECT().
			AddAddress(mockLink, gomock.Any()).
			DoAndReturn(func(_ netlink.Link, addr *netlink.Addr) error {
				assert.Equal(t, "10.1.2.3/24", addr.IPNet.String())
				return nil
			})

		assert.NoError(t, manager.applyDHCPLease(ack))
	})
}

func TestManager_renew(t *testing.T) {
	ctx := context.Background()

	t.Run("FailureBacksOff", func(t *testing.T) {
		manager, m := newTestManager(t, testLoggerConfig())
		m.dhcpClient.EXPECT().RequestLease(ctx, "lo", 15*time.Second).Return(nil, assert.AnError).Times(3)

		assert.Equal(t, 30*time.Second, manager.renew(ctx, manager.getLogger()))
	})

	t.Run("UsesRenewalTime", func(t *testing.T) {
		manager, m := newTestManager(t, testLoggerConfig())
		mockLink := &netlink.Dummy{LinkAttrs: netlink.LinkAttrs{Index: 1, Name: "lo"}}

		ack := testACK()
		ack.Options.Update(dhcpv4.OptRenewTimeValue(10 * time.Minute))

		m.dhcpClient.EXPECT().RequestLease(ctx, "lo", 15*time.Second).Return(ack, nil)
		m.networkMgr.EXPECT().GetLinkByName("lo").Return(mockLink, nil)
		m.networkMgr.EXPECT().ListAddresses(mockLink).Return(nil, nil)
		m.networkMgr.EXPECT().AddAddress(mockLink, gomock.Any()).Return(nil)

		assert.Equal(t, 10*time.Minute, manager.renew(ctx, manager.getLogger()))
	})
}

func TestManager_Run(t *testing.T) {
	t.Run("StopsOnCancel", func(t *testing.T) {
		manager, _ := newTestManager(t, testLoggerConfig())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := manager.Run(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("InvalidSupplicantCredentials", func(t *testing.T) {
		loggerConfig := testLoggerConfig()
		loggerConfig.WiFi.SSID = "<ssid>"
		loggerConfig.WiFi.SupplicantConf = "/tmp/logger-netcfg-test/wpa.conf"
		manager, _ := newTestManager(t, loggerConfig)

		err := manager.Run(context.Background())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid WiFi credentials")
	})
}
