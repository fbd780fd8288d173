// Package port defines the primary ports (interfaces) for the application.
// This follows the Ports and Adapters (Hexagonal Architecture) pattern.
package port

import (
	"context"
)

// NetworkConfigurationManager is the primary port for bringing a logger's
// network profile up on a host interface. The static and DHCP adapters
// implement it.
type NetworkConfigurationManager interface {
	// Run applies the profile and keeps it in place until the context is cancelled.
	Run(ctx context.Context) error

	// GetInterfaceName returns the host interface the profile is applied to.
	GetInterfaceName() string

	// GetDeviceName returns the name of the logger profile.
	GetDeviceName() string
}
