//go:build unit

package wifi

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPlaceholder(t *testing.T) {
	assert.True(t, IsPlaceholder("<ssid>"))
	assert.True(t, IsPlaceholder("<ssid / wifi network name>"))
	assert.True(t, IsPlaceholder(" <wifi password> "))
	assert.False(t, IsPlaceholder("HomeNetwork"))
	assert.False(t, IsPlaceholder("<"))
	assert.False(t, IsPlaceholder(""))
}

func TestValidateSSID(t *testing.T) {
	assert.NoError(t, ValidateSSID("HomeNetwork"))

	err := ValidateSSID("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ssid is required")

	err = ValidateSSID("<ssid>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "placeholder")

	err = ValidateSSID(strings.Repeat("a", 33))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum is 32")
}

func TestValidatePassphrase(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, ValidatePassphrase("password"))
		assert.NoError(t, ValidatePassphrase(strings.Repeat("x", 63)))
		assert.NoError(t, ValidatePassphrase(strings.Repeat("ab", 32)))
	})

	t.Run("Empty", func(t *testing.T) {
		err := ValidatePassphrase("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "password is required")
	})

	t.Run("Placeholder", func(t *testing.T) {
		err := ValidatePassphrase("<wifi password>")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "placeholder")
	})

	t.Run("TooShort", func(t *testing.T) {
		err := ValidatePassphrase("short")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "8-63 characters")
	})

	t.Run("TooLong", func(t *testing.T) {
		assert.Error(t, ValidatePassphrase(strings.Repeat("x", 64)))
	})

	t.Run("NonASCII", func(t *testing.T) {
		err := ValidatePassphrase("pässwörd123")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "non-printable")
	})
}

func TestDerivePSK(t *testing.T) {
	t.Run("IEEE80211iTestVector", func(t *testing.T) {
		// IEEE 802.11i-2004 Annex H.4 test vector
		psk, err := DerivePSK("IEEE", "password")
		require.NoError(t, err)
		assert.Equal(t, "f42c6fc52df0ebef9ebb4b90b38a5f902e83fe1b135a70e23aed762e9710a12e", psk)
	})

	t.Run("HexKeyPassthrough", func(t *testing.T) {
		key := strings.Repeat("AB", 32)
		psk, err := DerivePSK("HomeNetwork", key)
		require.NoError(t, err)
		assert.Equal(t, strings.ToLower(key), psk)
	})

	t.Run("InvalidCredentials", func(t *testing.T) {
		_, err := DerivePSK("<ssid>", "password")
		assert.Error(t, err)

		_, err = DerivePSK("HomeNetwork", "<password>")
		assert.Error(t, err)
	})
}

func TestSupplicantBlock(t *testing.T) {
	block, err := SupplicantBlock("IEEE", "password")
	require.NoError(t, err)

	assert.Contains(t, block, "network={\n")
	assert.Contains(t, block, "\tssid=\"IEEE\"\n")
	assert.Contains(t, block, "\tpsk=f42c6fc52df0ebef9ebb4b90b38a5f902e83fe1b135a70e23aed762e9710a12e\n")
	assert.Contains(t, block, "\tkey_mgmt=WPA-PSK\n")
	assert.NotContains(t, block, "password")

	t.Run("QuotedSSIDUsesHex", func(t *testing.T) {
		block, err := SupplicantBlock(`my"net`, "password")
		require.NoError(t, err)
		assert.Contains(t, block, "\tssid=6d79226e6574\n")
	})
}
