package payfast

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// HostResolver resolves a hostname. *net.Resolver satisfies it.
type HostResolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// SourceVerifier decides whether an address belongs to the gateway.
type SourceVerifier interface {
	IsGatewayAddress(ctx context.Context, addr netip.Addr) (bool, error)
}

var errNoGatewayAddresses = errors.New("no gateway host resolved")

// HostAllowlist treats the gateway's published hostnames as the allowlist.
// The hosts are resolved on every call; the gateway rotates its serving
// addresses and nothing here caches them.
//
// Resolving DNS at request time is a weak proof of origin; it is kept
// because the gateway does not sign notifications.
type HostAllowlist struct {
	resolver HostResolver
	hosts    []string
	timeout  time.Duration
	log      *zap.Logger
}

func NewHostAllowlist(resolver HostResolver, hosts []string, timeout time.Duration, log *zap.Logger) *HostAllowlist {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	if len(hosts) == 0 {
		hosts = DefaultValidHosts
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HostAllowlist{resolver: resolver, hosts: hosts, timeout: timeout, log: log}
}

// Resolve looks up every host concurrently. A host that fails to resolve is
// logged and skipped; it is an error only when nothing resolved.
func (a *HostAllowlist) Resolve(ctx context.Context) (map[netip.Addr]struct{}, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var (
		mu    sync.Mutex
		addrs = make(map[netip.Addr]struct{})
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, host := range a.hosts {
		host := host
		g.Go(func() error {
			ips, err := a.resolver.LookupIPAddr(gctx, host)
			if err != nil {
				a.log.Warn("gateway host did not resolve", zap.String("host", host), zap.Error(err))
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			for _, ip := range ips {
				if addr, ok := netip.AddrFromSlice(ip.IP); ok {
					addrs[addr.Unmap()] = struct{}{}
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(addrs) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, errNoGatewayAddresses
	}
	return addrs, nil
}

func (a *HostAllowlist) IsGatewayAddress(ctx context.Context, addr netip.Addr) (bool, error) {
	addrs, err := a.Resolve(ctx)
	if err != nil {
		return false, err
	}
	_, ok := addrs[addr.Unmap()]
	return ok, nil
}
