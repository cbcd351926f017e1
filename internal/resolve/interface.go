// Package resolve turns the logical device name into a dialable host:port.
package resolve

import "context"

// Resolver maps the configured device to an address usable by the
// OSCQuery client.
type Resolver interface {
	Resolve(ctx context.Context) (string, error)
}

// Resolver names accepted in configuration.
const (
	KindDNS  = "dns"
	KindMDNS = "mdns"
)
