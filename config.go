package dualstack

import (
	"errors"
	"fmt"
	"time"

	"github.com/nilgiri-labs/dualstack/addr"
)

// ErrInvalidConfig is wrapped by every Config validation failure.
var ErrInvalidConfig = errors.New("dualstack: invalid config")

// HostAddr4 is one owned IPv4 address and the prefix it belongs to, with
// an optional default gateway for that prefix (spec.md §4.3.1).
type HostAddr4 struct {
	Address addr.IPv4
	Prefix  addr.Prefix4
	Gateway addr.IPv4 // IPv4Unspecified means "no gateway"
}

// HasGateway reports whether a gateway is configured for this prefix.
func (h HostAddr4) HasGateway() bool { return !h.Gateway.IsUnspecified() }

// HostAddr6 is one owned IPv6 address and the prefix it belongs to, with
// an optional default gateway.
type HostAddr6 struct {
	Address addr.IPv6
	Prefix  addr.Prefix6
	Gateway addr.IPv6
}

// HasGateway reports whether a gateway is configured for this prefix.
func (h HostAddr6) HasGateway() bool { return !h.Gateway.IsUnspecified() }

// Config is the stack's configuration surface, per SPEC_FULL.md §2's
// recognized-options list (IP4_SUPPORT, IP6_SUPPORT,
// ARP_CACHE_ENTRY_MAX_AGE, ARP_CACHE_ENTRY_REFRESH_TIME,
// ND_CACHE_ENTRY_MAX_AGE, ND_CACHE_ENTRY_REFRESH_TIME, MTU,
// IP4_HOST_LIST, IP6_HOST_LIST, MAC_ADDRESS, FRAGMENT_TIMEOUT; the
// TAP_INTERFACE_NAME option has no field here, since the caller opens the
// device and passes it to NewStack), validated the way the teacher's arp.Config /
// session.Config constructors validate theirs (clamp-with-default rather
// than reject-on-default).
type Config struct {
	IP4Support bool
	IP6Support bool

	MAC addr.MAC

	IP4Hosts []HostAddr4
	IP6Hosts []HostAddr6

	MTU int

	ArpCacheMaxAge      time.Duration
	ArpCacheRefreshTime time.Duration
	NdCacheMaxAge       time.Duration
	NdCacheRefreshTime  time.Duration
	FragmentTimeout     time.Duration
	MaxFragmentFlows    int
}

func (c Config) validated() (Config, error) {
	if c.MAC.IsUnspecified() {
		return c, fmt.Errorf("%w: MAC_ADDRESS must be set", ErrInvalidConfig)
	}
	if !c.IP4Support && !c.IP6Support {
		return c, fmt.Errorf("%w: at least one of IP4_SUPPORT/IP6_SUPPORT must be set", ErrInvalidConfig)
	}
	if c.MTU <= 0 {
		c.MTU = 1500
	}
	if c.ArpCacheMaxAge <= 0 {
		c.ArpCacheMaxAge = 20 * time.Minute
	}
	if c.ArpCacheRefreshTime <= 0 || c.ArpCacheRefreshTime >= c.ArpCacheMaxAge {
		c.ArpCacheRefreshTime = c.ArpCacheMaxAge / 4
	}
	if c.NdCacheMaxAge <= 0 {
		c.NdCacheMaxAge = 20 * time.Minute
	}
	if c.NdCacheRefreshTime <= 0 || c.NdCacheRefreshTime >= c.NdCacheMaxAge {
		c.NdCacheRefreshTime = c.NdCacheMaxAge / 4
	}
	if c.FragmentTimeout <= 0 {
		c.FragmentTimeout = 30 * time.Second
	}
	if c.MaxFragmentFlows <= 0 {
		c.MaxFragmentFlows = 256
	}
	return c, nil
}

// ownedIP4 reports whether ip matches one of the configured IPv4 host
// addresses.
func (c Config) ownedIP4(ip addr.IPv4) (HostAddr4, bool) {
	for _, h := range c.IP4Hosts {
		if h.Address.Equal(ip) {
			return h, true
		}
	}
	return HostAddr4{}, false
}

// ownedIP6 reports whether ip matches one of the configured IPv6 host
// addresses.
func (c Config) ownedIP6(ip addr.IPv6) (HostAddr6, bool) {
	for _, h := range c.IP6Hosts {
		if h.Address.Equal(ip) {
			return h, true
		}
	}
	return HostAddr6{}, false
}

// ownedOrBroadcastIP4 reports whether ip is acceptable as an inbound IPv4
// destination: an owned unicast address, the limited broadcast, or the
// network broadcast of any owned prefix (spec.md §4.2.2).
func (c Config) ownedOrBroadcastIP4(ip addr.IPv4) bool {
	if _, ok := c.ownedIP4(ip); ok {
		return true
	}
	if ip.IsLimitedBroadcast() {
		return true
	}
	for _, h := range c.IP4Hosts {
		if h.Prefix.IsNetworkBroadcast(ip) {
			return true
		}
	}
	return false
}

// egressHostIP4 returns the owned host whose prefix contains dst.
func (c Config) egressHostIP4(dst addr.IPv4) (HostAddr4, bool) {
	for _, h := range c.IP4Hosts {
		if h.Prefix.Contains(dst) {
			return h, true
		}
	}
	return HostAddr4{}, false
}

// anyHostWithGatewayIP4 returns the first owned IPv4 host that has a
// gateway configured.
func (c Config) anyHostWithGatewayIP4() (HostAddr4, bool) {
	for _, h := range c.IP4Hosts {
		if h.HasGateway() {
			return h, true
		}
	}
	return HostAddr4{}, false
}

// firstHostIP4 returns the first configured IPv4 host, if any.
func (c Config) firstHostIP4() (HostAddr4, bool) {
	if len(c.IP4Hosts) == 0 {
		return HostAddr4{}, false
	}
	return c.IP4Hosts[0], true
}

// ownedOrSolicitedIP6 reports whether ip is acceptable as an inbound IPv6
// destination: an owned unicast address, or the solicited-node multicast
// address of one (spec.md §4.2.3). There is no explicit multicast-group
// join/leave surface in this core, so the solicited-node group of each
// owned address is treated as implicitly joined, the one group membership
// every real IPv6 host always carries.
func (c Config) ownedOrSolicitedIP6(ip addr.IPv6) bool {
	if _, ok := c.ownedIP6(ip); ok {
		return true
	}
	for _, h := range c.IP6Hosts {
		if h.Address.SolicitedNodeMulticast().Equal(ip) {
			return true
		}
	}
	return false
}

// egressHostIP6 returns the owned host whose prefix contains dst.
func (c Config) egressHostIP6(dst addr.IPv6) (HostAddr6, bool) {
	for _, h := range c.IP6Hosts {
		if h.Prefix.Contains(dst) {
			return h, true
		}
	}
	return HostAddr6{}, false
}

// linkLocalHostIP6 returns the first configured link-local IPv6 host.
func (c Config) linkLocalHostIP6() (HostAddr6, bool) {
	for _, h := range c.IP6Hosts {
		if h.Address.IsLinkLocal() {
			return h, true
		}
	}
	return HostAddr6{}, false
}

// anyHostWithGatewayIP6 returns the first owned IPv6 host that has a
// gateway configured.
func (c Config) anyHostWithGatewayIP6() (HostAddr6, bool) {
	for _, h := range c.IP6Hosts {
		if h.HasGateway() {
			return h, true
		}
	}
	return HostAddr6{}, false
}

// firstHostIP6 returns the first configured IPv6 host, if any.
func (c Config) firstHostIP6() (HostAddr6, bool) {
	if len(c.IP6Hosts) == 0 {
		return HostAddr6{}, false
	}
	return c.IP6Hosts[0], true
}
