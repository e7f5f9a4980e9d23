// Package ndcache implements the IPv6 Neighbor Discovery resolution
// cache: same shape as arpcache, but soliciting via Neighbor Solicitation
// to the solicited-node multicast address (or unicast on refresh), and
// additionally tracking on-link routers learned from Router
// Advertisements. Grounded in the teacher's icmp6.Handler router table
// (icmp6/icmp6.go, icmp6/radv.go), generalized away from its
// spoofing-oriented LANRouters map toward plain on-link/gateway
// bookkeeping per SPEC_FULL.md §5.1.
package ndcache

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nilgiri-labs/dualstack/addr"
)

// State mirrors arpcache.State; kept as a distinct type since ND and ARP
// entries are never comparable.
type State int

const (
	StatePending State = iota
	StateResolved
	StateStale
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateResolved:
		return "resolved"
	case StateStale:
		return "stale"
	case StateRefreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

// Entry is one neighbor cache row.
type Entry struct {
	IP        addr.IPv6
	MAC       addr.MAC
	State     State
	Permanent bool
	HitCount  uint64
	UpdatedAt time.Time
}

// PrefixInformation is a learned on-link prefix, from a Router
// Advertisement's Prefix Information option.
type PrefixInformation struct {
	Prefix            addr.Prefix6
	OnLink            bool
	Autonomous        bool
	ValidLifetime     time.Duration
	PreferredLifetime time.Duration
}

// Router is an on-link router learned from a Router Advertisement. It is
// consulted only for on-link/gateway determination, never for address
// autoconfiguration (SPEC_FULL.md §5.1 explicitly excludes SLAAC).
type Router struct {
	IP              addr.IPv6
	MAC             addr.MAC
	DefaultLifetime time.Duration
	Prefixes        []PrefixInformation
	UpdatedAt       time.Time
}

// Solicitor emits the Neighbor Solicitation side effects a cache miss or
// refresh probe requires.
type Solicitor interface {
	// SolicitMulticast emits an NS to target's solicited-node multicast
	// address, with an SLLA option carrying the stack's own MAC.
	SolicitMulticast(target addr.IPv6)
	// SolicitUnicast emits an NS directly to mac, as a reachability probe.
	SolicitUnicast(target addr.IPv6, mac addr.MAC)
}

// Config bounds cache entry lifetime (ND_CACHE_ENTRY_MAX_AGE,
// ND_CACHE_ENTRY_REFRESH_TIME).
type Config struct {
	MaxAge      time.Duration
	RefreshTime time.Duration
}

func (c Config) validated() Config {
	if c.MaxAge <= 0 {
		c.MaxAge = 20 * time.Minute
	}
	if c.RefreshTime <= 0 || c.RefreshTime >= c.MaxAge {
		c.RefreshTime = c.MaxAge / 4
	}
	return c
}

// Cache is the ND resolution table plus the on-link router table.
type Cache struct {
	mu      sync.RWMutex
	table   map[addr.IPv6]*Entry
	routers map[addr.IPv6]*Router
	config  Config
	sol     Solicitor
	log     *logrus.Entry
}

// New constructs a Cache that emits solicitations through sol.
func New(config Config, sol Solicitor, log *logrus.Entry) *Cache {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Cache{
		table:   make(map[addr.IPv6]*Entry),
		routers: make(map[addr.IPv6]*Router),
		config:  config.validated(),
		sol:     sol,
		log:     log.WithField("component", "ndcache"),
	}
}

// Find returns the MAC for ip if resolved, incrementing hit_count. On a
// miss it enqueues a Neighbor Solicitation to the solicited-node
// multicast address and returns ok=false.
func (c *Cache) Find(ip addr.IPv6) (mac addr.MAC, ok bool) {
	c.mu.Lock()
	e, found := c.table[ip]
	if found && e.State != StatePending {
		e.HitCount++
		mac = e.MAC
		ok = true
		c.mu.Unlock()
		return mac, ok
	}
	if !found {
		c.table[ip] = &Entry{IP: ip, State: StatePending, UpdatedAt: time.Now()}
	}
	c.mu.Unlock()

	if c.sol != nil {
		c.sol.SolicitMulticast(ip)
	}
	return addr.MAC{}, false
}

// Insert replaces or creates the entry for ip with mac, transitioning it
// to Resolved.
func (c *Cache) Insert(ip addr.IPv6, mac addr.MAC, permanent bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.table[ip]
	if !found {
		e = &Entry{IP: ip}
		c.table[ip] = e
	}
	e.MAC = mac
	e.Permanent = permanent
	e.State = StateResolved
	e.HitCount = 0
	e.UpdatedAt = time.Now()
}

// Get returns a copy of the entry for ip, for diagnostics and tests.
func (c *Cache) Get(ip addr.IPv6) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, found := c.table[ip]
	if !found {
		return Entry{}, false
	}
	return *e, true
}

// Len returns the number of resolution entries, for tests.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.table)
}

// Maintain runs one pass of the periodic aging/refresh sweep, identical
// in shape to arpcache.Cache.Maintain but soliciting NS messages.
func (c *Cache) Maintain(now time.Time) {
	type probe struct {
		ip  addr.IPv6
		mac addr.MAC
	}
	var toMulticast []addr.IPv6
	var toProbe []probe
	var toDelete []addr.IPv6

	c.mu.Lock()
	for ip, e := range c.table {
		if e.Permanent {
			continue
		}
		age := now.Sub(e.UpdatedAt)
		if age > c.config.MaxAge {
			toDelete = append(toDelete, ip)
			continue
		}
		if age > c.config.MaxAge-c.config.RefreshTime {
			if e.State == StateResolved || e.State == StateStale {
				e.State = StateStale
			}
			if e.HitCount > 0 {
				e.HitCount = 0
				e.State = StateRefreshing
				if e.MAC.IsUnspecified() {
					toMulticast = append(toMulticast, ip)
				} else {
					toProbe = append(toProbe, probe{ip: ip, mac: e.MAC})
				}
			}
		}
	}
	for _, ip := range toDelete {
		delete(c.table, ip)
	}
	c.mu.Unlock()

	if c.sol == nil {
		return
	}
	for _, ip := range toMulticast {
		c.sol.SolicitMulticast(ip)
	}
	for _, p := range toProbe {
		c.sol.SolicitUnicast(p.ip, p.mac)
	}
}

// UpsertRouter records or refreshes an on-link router learned from a
// Router Advertisement.
func (c *Cache) UpsertRouter(ip addr.IPv6, mac addr.MAC, defaultLifetime time.Duration, prefixes []PrefixInformation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, found := c.routers[ip]
	if !found {
		r = &Router{IP: ip}
		c.routers[ip] = r
	}
	r.MAC = mac
	r.DefaultLifetime = defaultLifetime
	if len(prefixes) > 0 {
		r.Prefixes = prefixes
	}
	r.UpdatedAt = time.Now()
}

// Router returns a copy of the on-link router entry for ip, if known.
func (c *Cache) Router(ip addr.IPv6) (Router, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, found := c.routers[ip]
	if !found {
		return Router{}, false
	}
	return *r, true
}

// DefaultGateway returns the first router with a nonzero default
// lifetime. Source-address selection does not consult it: it takes the
// gateway from the configured host addresses.
func (c *Cache) DefaultGateway() (addr.IPv6, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for ip, r := range c.routers {
		if r.DefaultLifetime > 0 {
			return ip, true
		}
	}
	return addr.IPv6{}, false
}

// IsOnLink reports whether ip falls within any learned on-link prefix.
func (c *Cache) IsOnLink(ip addr.IPv6) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, r := range c.routers {
		for _, p := range r.Prefixes {
			if p.OnLink && p.Prefix.Contains(ip) {
				return true
			}
		}
	}
	return false
}
