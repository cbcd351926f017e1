package resolve

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"codeberg.org/mutker/rnboctl/internal/errors"
	"codeberg.org/mutker/rnboctl/internal/logger"
	"github.com/enbility/zeroconf/v3"
)

const (
	// ServiceType is the DNS-SD type RNBO runners advertise OSCQuery under.
	ServiceType = "_oscjson._tcp"
	Domain      = "local."

	DefaultMDNSTimeout = 5 * time.Second
)

// MDNSResolver browses for OSCQuery services and picks the one advertised
// by the configured host. The port comes from the advertisement.
type MDNSResolver struct {
	Name    string
	Timeout time.Duration
	logger  logger.Logger
	browse  func(ctx context.Context, entries, removed chan *zeroconf.ServiceEntry) error
}

func (m *MDNSResolver) Resolve(ctx context.Context) (string, error) {
	errFactory := errors.New()

	timeout := m.Timeout
	if timeout <= 0 {
		timeout = DefaultMDNSTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	browse := m.browse
	if browse == nil {
		browse = func(ctx context.Context, entries, removed chan *zeroconf.ServiceEntry) error {
			return zeroconf.Browse(ctx, ServiceType, Domain, entries, removed)
		}
	}

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	go func() {
		if err := browse(ctx, entries, removed); err != nil && m.logger != nil {
			m.logger.Debug().Err(err).Msg("mDNS browse ended")
		}
	}()

	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return "", errFactory.WithData(ErrResolveFailed, m.Name+": browse ended")
			}
			if address, ok := entryAddress(entry, m.Name); ok {
				if m.logger != nil {
					m.logger.Debug().
						Str("name", m.Name).
						Str("instance", entry.Instance).
						Str("address", address).
						Msg("Found OSCQuery service")
				}
				return address, nil
			}
		case <-removed:
		case <-ctx.Done():
			return "", errFactory.Wrap(ErrResolveFailed,
				fmt.Errorf("%s: no %s service within %s: %w", m.Name, ServiceType, timeout, ctx.Err()))
		}
	}
}

// entryAddress returns host:port for entry when it was advertised by name.
func entryAddress(entry *zeroconf.ServiceEntry, name string) (string, bool) {
	if entry == nil || !sameHost(entry.HostName, name) {
		return "", false
	}

	var ip net.IP
	switch {
	case len(entry.AddrIPv4) > 0:
		ip = entry.AddrIPv4[0]
	case len(entry.AddrIPv6) > 0:
		ip = entry.AddrIPv6[0]
	default:
		return "", false
	}

	return net.JoinHostPort(ip.String(), strconv.Itoa(entry.Port)), true
}

func sameHost(a, b string) bool {
	return strings.EqualFold(strings.TrimSuffix(a, "."), strings.TrimSuffix(b, "."))
}
