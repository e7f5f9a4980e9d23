package stats

import (
	"reflect"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Sink owns the live Rx/Tx counter bundles. All mutation goes through
// IncRx/IncTx so that multiple dispatch goroutines never race on the
// bundle (spec.md §5: stats sits at the bottom of the fixed lock order,
// and is the table most frequently touched).
type Sink struct {
	mu sync.Mutex
	Rx Rx
	Tx Tx
}

// NewSink returns a zeroed counter sink.
func NewSink() *Sink {
	return &Sink{}
}

// IncRx runs f against the live Rx bundle under the sink's lock.
func (s *Sink) IncRx(f func(*Rx)) {
	s.mu.Lock()
	f(&s.Rx)
	s.mu.Unlock()
}

// IncTx runs f against the live Tx bundle under the sink's lock.
func (s *Sink) IncTx(f func(*Tx)) {
	s.mu.Lock()
	f(&s.Tx)
	s.mu.Unlock()
}

// SnapshotRx returns a copy of the current Rx bundle for test assertions.
func (s *Sink) SnapshotRx() Rx {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Rx
}

// SnapshotTx returns a copy of the current Tx bundle for test assertions.
func (s *Sink) SnapshotTx() Tx {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Tx
}

// Collector adapts a Sink to prometheus.Collector, exporting every counter
// field of Rx and Tx as its own prometheus Counter. The in-memory structs
// remain the source of truth the test suite asserts against; this is a
// derived, read-only export for operator-facing scraping (SPEC_FULL.md §3).
type Collector struct {
	sink *Sink
}

// NewCollector wraps sink for Prometheus registration.
func NewCollector(sink *Sink) *Collector {
	return &Collector{sink: sink}
}

var _ prometheus.Collector = (*Collector)(nil)

func fieldNameToSnake(name string) string {
	var b strings.Builder
	for i, r := range name {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

func (c *Collector) describe(direction string, v interface{}, ch chan<- *prometheus.Desc) {
	rv := reflect.ValueOf(v)
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		name := "dualstack_packet_" + direction + "_" + fieldNameToSnake(rt.Field(i).Name)
		ch <- prometheus.NewDesc(name, "packet dispatch counter", nil, nil)
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.describe("rx", Rx{}, ch)
	c.describe("tx", Tx{}, ch)
}

func (c *Collector) collect(direction string, v interface{}, ch chan<- prometheus.Metric) {
	rv := reflect.ValueOf(v)
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		name := "dualstack_packet_" + direction + "_" + fieldNameToSnake(rt.Field(i).Name)
		desc := prometheus.NewDesc(name, "packet dispatch counter", nil, nil)
		val := float64(rv.Field(i).Uint())
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, val)
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	rx := c.sink.SnapshotRx()
	tx := c.sink.SnapshotTx()
	c.collect("rx", rx, ch)
	c.collect("tx", tx, ch)
}
