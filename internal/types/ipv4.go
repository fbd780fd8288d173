// Package types defines common types used across the application.
package types

import (
	"fmt"
	"math/bits"
	"net"
	"strconv"
	"strings"
)

// IPv4 is a four-octet network address as declared in a logger profile
// (device address, gateway, subnet mask or resolver).
type IPv4 [4]byte

// ParseIPv4 parses a dotted-quad address. Exactly four decimal octets in the
// range 0-255 are accepted.
func ParseIPv4(s string) (IPv4, error) {
	var addr IPv4

	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 4 {
		return addr, fmt.Errorf("invalid IPv4 address %q: expected 4 octets, got %d", s, len(parts))
	}

	for i, part := range parts {
		if part == "" || len(part) > 3 {
			return addr, fmt.Errorf("invalid IPv4 address %q: bad octet %q", s, part)
		}
		n, err := strconv.ParseUint(part, 10, 8)
		if err != nil {
			return addr, fmt.Errorf("invalid IPv4 address %q: octet %q out of range 0-255", s, part)
		}
		addr[i] = byte(n)
	}

	return addr, nil
}

// MustParseIPv4 is like ParseIPv4 but panics on error. Intended for tests and
// package-level values.
func MustParseIPv4(s string) IPv4 {
	addr, err := ParseIPv4(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// String returns the dotted-quad form.
func (a IPv4) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", a[0], a[1], a[2], a[3])
}

// IsZero reports whether the address is unset (0.0.0.0).
func (a IPv4) IsZero() bool {
	return a == IPv4{}
}

// Octets returns the four address bytes.
func (a IPv4) Octets() [4]byte {
	return a
}

// IP converts the address for use with net and netlink.
func (a IPv4) IP() net.IP {
	return net.IPv4(a[0], a[1], a[2], a[3]).To4()
}

// Mask interprets the address as a subnet mask.
func (a IPv4) Mask() net.IPMask {
	return net.IPv4Mask(a[0], a[1], a[2], a[3])
}

func (a IPv4) uint32() uint32 {
	return uint32(a[0])<<24 | uint32(a[1])<<16 | uint32(a[2])<<8 | uint32(a[3])
}

func fromUint32(v uint32) IPv4 {
	return IPv4{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

// IsContiguousMask reports whether the address is a valid subnet mask: a run
// of one bits followed only by zero bits.
func (a IPv4) IsContiguousMask() bool {
	v := a.uint32()
	return bits.OnesCount32(v) == bits.LeadingZeros32(^v)
}

// PrefixLength returns the number of leading one bits of a contiguous mask.
func (a IPv4) PrefixLength() int {
	return bits.LeadingZeros32(^a.uint32())
}

// Network returns the network address of a under mask.
func (a IPv4) Network(mask IPv4) IPv4 {
	return fromUint32(a.uint32() & mask.uint32())
}

// Broadcast returns the directed broadcast address of a under mask.
func (a IPv4) Broadcast(mask IPv4) IPv4 {
	return fromUint32(a.uint32() | ^mask.uint32())
}

// SameSubnet reports whether a and b share a network under mask.
func (a IPv4) SameSubnet(b, mask IPv4) bool {
	return a.Network(mask) == b.Network(mask)
}

// MarshalText implements encoding.TextMarshaler.
func (a IPv4) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty value leaves the
// address unset.
func (a *IPv4) UnmarshalText(text []byte) error {
	if len(strings.TrimSpace(string(text))) == 0 {
		*a = IPv4{}
		return nil
	}
	addr, err := ParseIPv4(string(text))
	if err != nil {
		return err
	}
	*a = addr
	return nil
}
