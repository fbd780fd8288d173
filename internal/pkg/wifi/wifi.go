// Package wifi holds the WPA credential rules shared by validation, the
// supplicant writer and the psk command.
package wifi

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// MaxSSIDLength is the 802.11 limit on the network name, in bytes.
	MaxSSIDLength = 32

	minPassphraseLength = 8
	maxPassphraseLength = 63
	pskHexLength        = 64

	pbkdf2Iterations = 4096
	pskKeyLength     = 32
)

// IsPlaceholder reports whether a value is an unfilled template marker such
// as "<ssid>" or "<wifi password>".
func IsPlaceholder(value string) bool {
	v := strings.TrimSpace(value)
	return len(v) >= 2 && strings.HasPrefix(v, "<") && strings.HasSuffix(v, ">")
}

// ValidateSSID checks that a network name is usable.
func ValidateSSID(ssid string) error {
	if ssid == "" {
		return fmt.Errorf("ssid is required")
	}
	if IsPlaceholder(ssid) {
		return fmt.Errorf("ssid %q is a placeholder", ssid)
	}
	if len(ssid) > MaxSSIDLength {
		return fmt.Errorf("ssid is %d bytes, maximum is %d", len(ssid), MaxSSIDLength)
	}
	return nil
}

// ValidatePassphrase checks that a password is either a WPA passphrase
// (8-63 printable ASCII characters) or a raw 64 hex digit key.
func ValidatePassphrase(passphrase string) error {
	if passphrase == "" {
		return fmt.Errorf("password is required")
	}
	if IsPlaceholder(passphrase) {
		return fmt.Errorf("password is a placeholder")
	}
	if isHexKey(passphrase) {
		return nil
	}
	if len(passphrase) < minPassphraseLength || len(passphrase) > maxPassphraseLength {
		return fmt.Errorf("password must be %d-%d characters or a %d digit hex key, got %d characters",
			minPassphraseLength, maxPassphraseLength, pskHexLength, len(passphrase))
	}
	for _, c := range []byte(passphrase) {
		if c < 0x20 || c > 0x7e {
			return fmt.Errorf("password contains non-printable or non-ASCII characters")
		}
	}
	return nil
}

// DerivePSK returns the 256-bit pre-shared key for the network as 64 lower
// case hex digits. A passphrase that already is a hex key is returned as is.
func DerivePSK(ssid, passphrase string) (string, error) {
	if err := ValidateSSID(ssid); err != nil {
		return "", err
	}
	if err := ValidatePassphrase(passphrase); err != nil {
		return "", err
	}
	if isHexKey(passphrase) {
		return strings.ToLower(passphrase), nil
	}

	key := pbkdf2.Key([]byte(passphrase), []byte(ssid), pbkdf2Iterations, pskKeyLength, sha1.New)
	return hex.EncodeToString(key), nil
}

// SupplicantBlock renders a wpa_supplicant network block for the network.
// Only the derived key is written, never the cleartext passphrase.
func SupplicantBlock(ssid, passphrase string) (string, error) {
	psk, err := DerivePSK(ssid, passphrase)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("# Generated by logger-netcfg\n")
	b.WriteString("network={\n")
	fmt.Fprintf(&b, "\tssid=%s\n", quoteSSID(ssid))
	fmt.Fprintf(&b, "\tpsk=%s\n", psk)
	b.WriteString("\tkey_mgmt=WPA-PSK\n")
	b.WriteString("}\n")
	return b.String(), nil
}

// quoteSSID uses the quoted form when the name is plain printable text and
// the hex form otherwise, matching what wpa_supplicant accepts.
func quoteSSID(ssid string) string {
	for _, c := range []byte(ssid) {
		if c < 0x20 || c > 0x7e || c == '"' {
			return hex.EncodeToString([]byte(ssid))
		}
	}
	return `"` + ssid + `"`
}

func isHexKey(s string) bool {
	if len(s) != pskHexLength {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
