//go:build unit

package dhcp

import (
	"context"
	"testing"
	"time"

	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientAdapter(t *testing.T) {
	adapter := NewClientAdapter("logger-bmp085")
	assert.NotNil(t, adapter)
}

func TestClientAdapter_modifiers(t *testing.T) {
	t.Run("WithHostname", func(t *testing.T) {
		msg, err := dhcpv4.New(NewClientAdapter("logger-bmp085").modifiers()...)
		require.NoError(t, err)
		assert.Equal(t, "logger-bmp085", msg.HostName())
		assert.True(t, msg.IsOptionRequested(dhcpv4.OptionDomainNameServer))
	})

	t.Run("WithoutHostname", func(t *testing.T) {
		msg, err := dhcpv4.New(NewClientAdapter("").modifiers()...)
		require.NoError(t, err)
		assert.Empty(t, msg.HostName())
	})
}

func TestClientAdapter_RequestLease(t *testing.T) {
	adapter := NewClientAdapter("")

	// Opening the raw socket fails for a missing interface before anything is sent.
	_, err := adapter.RequestLease(context.Background(), "nonexistent", time.Second)
	assert.Error(t, err)
}
