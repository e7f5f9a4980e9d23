// Package reassembly implements IPv4/IPv6 fragment reassembly, keyed by
// (src, dst, id, next_proto) per spec.md §4.4. The covered-byte-range set
// of each flow is a google/btree-backed disjoint interval set (the pack's
// storage-layer representative for ordered range bookkeeping); the
// eviction-under-pressure policy is grounded on the teacher corpus's
// gvisor fragmentation.Fragmentation (capped flow count, oldest-first
// eviction), adapted from its byte-budget threshold to a flow-count cap
// since spec.md expresses the bound that way.
package reassembly

import (
	"sync"
	"time"

	"github.com/google/btree"
)

// MaxIPv4Datagram and MaxIPv6Datagram bound a reassembled datagram's
// total length, per spec.md §4.4.
const (
	MaxIPv4Datagram = 65535
	MaxIPv6Datagram = 65535
)

// Key identifies one reassembly flow.
type Key struct {
	Src       [16]byte // IPv4 addresses are stored left-padded with zero
	Dst       [16]byte
	ID        uint32
	NextProto uint8
}

type interval struct {
	start, end int // [start, end)
}

func (iv interval) Less(other btree.Item) bool {
	return iv.start < other.(interval).start
}

// Flow is one in-progress (or completed) reassembly.
type Flow struct {
	Key         Key
	covered     *btree.BTree
	buf         []byte
	totalLength int // -1 until the final fragment (MF=0) arrives
	createdAt   time.Time
	updatedAt   time.Time
}

func newFlow(key Key) *Flow {
	return &Flow{
		Key:         key,
		covered:     btree.New(4),
		totalLength: -1,
		createdAt:   time.Now(),
		updatedAt:   time.Now(),
	}
}

// insert records [offset, offset+len(data)) as covered, copying data into
// the backing buffer, growing it if needed. Overlapping ranges are
// accepted last-writer-wins, per spec.md §4.4.
func (f *Flow) insert(offset int, data []byte, max int) bool {
	end := offset + len(data)
	if end > max {
		return false
	}
	if end > len(f.buf) {
		grown := make([]byte, end)
		copy(grown, f.buf)
		f.buf = grown
	}
	copy(f.buf[offset:end], data)
	f.mergeInterval(interval{start: offset, end: end})
	f.updatedAt = time.Now()
	return true
}

// mergeInterval inserts iv into the disjoint covered set, merging any
// overlapping or adjacent existing intervals.
func (f *Flow) mergeInterval(iv interval) {
	var toDelete []interval
	f.covered.AscendGreaterOrEqual(interval{start: 0}, func(item btree.Item) bool {
		e := item.(interval)
		if e.start > iv.end {
			return false
		}
		if e.end >= iv.start {
			if e.start < iv.start {
				iv.start = e.start
			}
			if e.end > iv.end {
				iv.end = e.end
			}
			toDelete = append(toDelete, e)
		}
		return true
	})
	for _, e := range toDelete {
		f.covered.Delete(e)
	}
	f.covered.ReplaceOrInsert(iv)
}

// complete reports whether the covered set equals [0, totalLength).
func (f *Flow) complete() bool {
	if f.totalLength < 0 {
		return false
	}
	if f.covered.Len() != 1 {
		return false
	}
	min := f.covered.Min().(interval)
	return min.start == 0 && min.end == f.totalLength
}

// assembled returns the reassembled datagram payload, valid only once
// complete() is true.
func (f *Flow) assembled() []byte {
	return f.buf[:f.totalLength]
}

func (f *Flow) expired(timeout time.Duration, now time.Time) bool {
	return now.Sub(f.createdAt) > timeout
}

// Table is the reassembly table for one IP version.
type Table struct {
	mu       sync.Mutex
	flows    map[Key]*Flow
	order    []Key // insertion order, for oldest-first eviction
	timeout  time.Duration
	maxFlows int
	maxBytes int
}

// Config bounds a Table's resource usage (FRAGMENT_TIMEOUT and a
// concurrent-flow cap, per spec.md §4.4 and §9).
type Config struct {
	Timeout  time.Duration
	MaxFlows int
	MaxBytes int // per-flow byte cap; 0 uses the IP version default
}

// NewTable constructs a Table. maxBytes should be MaxIPv4Datagram or
// MaxIPv6Datagram depending on the caller; a positive config.MaxBytes
// takes precedence over it.
func NewTable(config Config, maxBytes int) *Table {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxFlows <= 0 {
		config.MaxFlows = 256
	}
	if config.MaxBytes > 0 {
		maxBytes = config.MaxBytes
	}
	if maxBytes <= 0 {
		maxBytes = MaxIPv4Datagram
	}
	return &Table{
		flows:    make(map[Key]*Flow),
		timeout:  config.Timeout,
		maxFlows: config.MaxFlows,
		maxBytes: maxBytes,
	}
}

// Result is the outcome of processing one fragment.
type Result struct {
	Created   bool
	Completed bool
	Assembled []byte // valid only when Completed
	Dropped   bool   // offset+len exceeded the datagram size bound
}

// Process handles one incoming fragment: offset and length in bytes,
// more reports the MF bit, and data is the fragment's own payload bytes
// (spec.md §4.4 steps 1-4).
func (t *Table) Process(key Key, offset int, data []byte, more bool) Result {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, found := t.flows[key]
	if !found {
		f = newFlow(key)
		t.flows[key] = f
		t.order = append(t.order, key)
		t.evictIfNeeded()
	}

	if !f.insert(offset, data, t.maxBytes) {
		return Result{Dropped: true}
	}
	if !more {
		total := offset + len(data)
		if f.totalLength < 0 {
			f.totalLength = total
		}
	}

	if f.complete() {
		assembled := f.assembled()
		delete(t.flows, key)
		return Result{Created: !found, Completed: true, Assembled: assembled}
	}
	return Result{Created: !found}
}

// evictIfNeeded drops the oldest flow(s) if the table is over maxFlows.
// Caller holds t.mu.
func (t *Table) evictIfNeeded() {
	for len(t.flows) > t.maxFlows && len(t.order) > 0 {
		oldest := t.order[0]
		t.order = t.order[1:]
		delete(t.flows, oldest)
	}
}

// Sweep drops flows older than the configured timeout, returning the
// count of flows evicted this way, for the timer scheduler's periodic
// registration.
func (t *Table) Sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	var remaining []Key
	dropped := 0
	for _, key := range t.order {
		f, found := t.flows[key]
		if !found {
			continue
		}
		if f.expired(t.timeout, now) {
			delete(t.flows, key)
			dropped++
			continue
		}
		remaining = append(remaining, key)
	}
	t.order = remaining
	return dropped
}

// Len returns the number of in-progress flows, for tests.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.flows)
}
