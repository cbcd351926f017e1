package resolve

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"codeberg.org/mutker/rnboctl/internal/errors"
	"codeberg.org/mutker/rnboctl/internal/logger"
)

// Config selects and parameterises a resolver.
type Config struct {
	Name        string        `mapstructure:"name"`
	Port        int           `mapstructure:"port"`
	Address     string        `mapstructure:"address"`
	Resolver    string        `mapstructure:"resolver"`
	MDNSTimeout time.Duration `mapstructure:"mdns_timeout"`
}

// New returns the resolver described by cfg. An explicit address always
// wins over name resolution.
func New(cfg Config, log logger.Logger) (Resolver, error) {
	errFactory := errors.New()

	if cfg.Address != "" {
		return Static(cfg.Address), nil
	}

	switch cfg.Resolver {
	case KindDNS, "":
		return &DNSResolver{Name: cfg.Name, Port: cfg.Port, logger: log}, nil
	case KindMDNS:
		return &MDNSResolver{Name: cfg.Name, Timeout: cfg.MDNSTimeout, logger: log}, nil
	default:
		return nil, errFactory.WithData(ErrUnknownKind, cfg.Resolver)
	}
}

// Static resolves to a fixed address.
type Static string

func (s Static) Resolve(context.Context) (string, error) {
	return string(s), nil
}

type ipLookup interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// DNSResolver looks the name up through the system resolver, which covers
// .local names when nss-mdns is installed.
type DNSResolver struct {
	Name   string
	Port   int
	lookup ipLookup
	logger logger.Logger
}

func (d *DNSResolver) Resolve(ctx context.Context) (string, error) {
	errFactory := errors.New()

	lookup := d.lookup
	if lookup == nil {
		lookup = net.DefaultResolver
	}

	addrs, err := lookup.LookupIPAddr(ctx, d.Name)
	if err != nil {
		return "", errFactory.Wrap(ErrResolveFailed, fmt.Errorf("%s: %w", d.Name, err))
	}

	ip := pickIP(addrs)
	if ip == nil {
		return "", errFactory.WithData(ErrResolveFailed, d.Name+": no addresses")
	}

	address := net.JoinHostPort(ip.String(), strconv.Itoa(d.Port))
	if d.logger != nil {
		d.logger.Debug().Str("name", d.Name).Str("address", address).Msg("Resolved device name")
	}

	return address, nil
}

// pickIP prefers the first IPv4 address and falls back to the first one.
func pickIP(addrs []net.IPAddr) net.IP {
	for _, a := range addrs {
		if v4 := a.IP.To4(); v4 != nil {
			return v4
		}
	}
	if len(addrs) > 0 {
		return addrs[0].IP
	}

	return nil
}
