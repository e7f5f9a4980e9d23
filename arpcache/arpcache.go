// Package arpcache implements the IPv4-to-MAC resolution cache: aging,
// proactive refresh, and on-miss solicitation, grounded in the teacher's
// arp.Handler table (irai/packet's arp/handler.go) but generalized to take
// its solicitation side effect as an injected callback instead of owning
// a raw socket, per spec.md §9's dependency-injection design note.
package arpcache

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nilgiri-labs/dualstack/addr"
)

// State is the lifecycle state of a cache entry, per spec.md §4.9.
type State int

const (
	// StatePending marks an entry whose resolution was requested but not
	// yet answered.
	StatePending State = iota
	// StateResolved marks an entry with a usable MAC.
	StateResolved
	// StateStale marks a resolved entry past its refresh threshold,
	// still usable but due for a probe.
	StateStale
	// StateRefreshing marks an entry for which a probe has been sent.
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

// Entry is one cache row.
type Entry struct {
	IP        addr.IPv4
	MAC       addr.MAC
	State     State
	Permanent bool
	HitCount  uint64
	UpdatedAt time.Time
}

// Solicitor emits the ARP REQUEST side effects a cache miss or refresh
// probe requires. The cache never touches a device directly.
type Solicitor interface {
	// SolicitBroadcast emits a broadcast ARP REQUEST for target, with spa
	// set to the caller's chosen source address for that destination.
	SolicitBroadcast(target addr.IPv4)
	// SolicitUnicast emits a unicast ARP REQUEST probe to a known MAC.
	SolicitUnicast(target addr.IPv4, mac addr.MAC)
}

// Config bounds cache entry lifetime, per spec.md §9's configuration
// surface (ARP_CACHE_ENTRY_MAX_AGE, ARP_CACHE_ENTRY_REFRESH_TIME).
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

// Cache is the ARP resolution table. Zero value is not usable; build one
// with New.
type Cache struct {
	mu     sync.RWMutex
	table  map[addr.IPv4]*Entry
	config Config
	sol    Solicitor
	log    *logrus.Entry
}

// New constructs a Cache that emits solicitations through sol.
func New(config Config, sol Solicitor, log *logrus.Entry) *Cache {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Cache{
		table:  make(map[addr.IPv4]*Entry),
		config: config.validated(),
		sol:    sol,
		log:    log.WithField("component", "arpcache"),
	}
}

// Find returns the MAC for ip if resolved, incrementing hit_count. On a
// miss (absent, or present but not yet resolved), it enqueues a broadcast
// ARP REQUEST and returns ok=false, per spec.md §4.5.
func (c *Cache) Find(ip addr.IPv4) (mac addr.MAC, ok bool) {
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
		c.sol.SolicitBroadcast(ip)
	}
	return addr.MAC{}, false
}

// Insert replaces or creates the entry for ip with mac, transitioning it
// to Resolved. A reply arriving for a Pending or Refreshing entry follows
// this same path (spec.md §4.9).
func (c *Cache) Insert(ip addr.IPv4, mac addr.MAC, permanent bool) {
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
func (c *Cache) Get(ip addr.IPv4) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, found := c.table[ip]
	if !found {
		return Entry{}, false
	}
	return *e, true
}

// Len returns the number of entries, for tests.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.table)
}

// Maintain runs one pass of the periodic aging/refresh sweep, meant to be
// invoked every 1 s by a timer.Scheduler registration (spec.md §4.5/§4.7).
func (c *Cache) Maintain(now time.Time) {
	type probe struct {
		ip  addr.IPv4
		mac addr.MAC
	}
	var toBroadcast []addr.IPv4
	var toProbe []probe
	var toDelete []addr.IPv4

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
					toBroadcast = append(toBroadcast, ip)
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
	for _, ip := range toBroadcast {
		c.sol.SolicitBroadcast(ip)
	}
	for _, p := range toProbe {
		c.sol.SolicitUnicast(p.ip, p.mac)
	}
}
