//go:build unit

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"logger-netcfg/internal/pkg/profile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const labConfig = `logging:
  level: warn
  format: simple
loggers:
  bmp085:
    interface: wlan0
    wifi:
      ssid: LabNetwork
      password: "correct horse battery"
    server: 127.0.0.1:1
    static:
      ip: 192.168.1.20
      gateway: 192.168.1.1
      subnet: 255.255.255.0
      primary_dns: 8.8.8.8
`

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configFlag, loggerFlag, outputFlag = "", "", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "loggers.yml")
	require.NoError(t, os.WriteFile(path, []byte(labConfig), 0644))
	return path
}

func TestValidateCommand(t *testing.T) {
	t.Run("BuiltInProfilesFail", func(t *testing.T) {
		out, err := execute(t, "validate")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "is a placeholder")
		assert.Contains(t, out, "warning: logger bmp085: device address 192.168.1.0 is the network address")
	})

	t.Run("ValidFile", func(t *testing.T) {
		out, err := execute(t, "validate", "-f", writeConfig(t))
		require.NoError(t, err)
		assert.Contains(t, out, "1 logger profile(s) OK")
	})
}

func TestRenderCommand(t *testing.T) {
	t.Run("Stdout", func(t *testing.T) {
		out, err := execute(t, "render", "-l", "dht11", "-o", "-")
		require.NoError(t, err)
		assert.Contains(t, out, `const char* ssid     = "<ssid / wifi network name>";`)
		assert.Contains(t, out, "IPAddress local_IP(192, 168, 1, 3); // Static IP")
	})

	t.Run("File", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "WiFi_Info.h")
		out, err := execute(t, "render", "-f", writeConfig(t), "-l", "bmp085", "-o", target)
		require.NoError(t, err)
		assert.Contains(t, out, "Wrote "+target)

		data, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Contains(t, string(data), `#define SERVER_IP_OR_HOSTNAME "127.0.0.1:1"`)
	})

	t.Run("UnknownLogger", func(t *testing.T) {
		_, err := execute(t, "render", "-l", "sht31", "-o", "-")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `logger "sht31" is not configured`)
	})
}

func TestDefaultsCommand(t *testing.T) {
	out, err := execute(t, "defaults")
	require.NoError(t, err)
	assert.Equal(t, string(profile.Raw()), out)
}

func TestPSKCommand(t *testing.T) {
	out, err := execute(t, "psk", "--ssid", "IEEE", "--password", "password")
	require.NoError(t, err)
	assert.Equal(t, "f42c6fc52df0ebef9ebb4b90b38a5f902e83fe1b135a70e23aed762e9710a12e\n", out)

	_, err = execute(t, "psk", "--ssid", "IEEE", "--password", "short")
	assert.Error(t, err)
}

func TestCheckCommand(t *testing.T) {
	// Port 1 on loopback refuses connections.
	_, err := execute(t, "check", "-f", writeConfig(t), "-t", "1s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logger bmp085: failed to connect to 127.0.0.1:1")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Commit: ")
}
