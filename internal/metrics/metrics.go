// Package metrics provides the small counter/gauge types a Session uses to
// track wire traffic and per-encoder frame counts. The shape (a Metric
// interface with Value/Adjust, plus a Gauge implementation) follows the
// github.com/bigangryrobot/go-vnc/go/metrics package referenced by that
// project's ClientConn, recreated here under this module since the
// dependency itself was never published as a separate importable package.
package metrics

import "sync/atomic"

// Metric is a single named measurement a Session exposes to callers.
type Metric interface {
	// Adjust adds delta to the metric's current value.
	Adjust(delta int64)
	// Value returns the metric's current value.
	Value() int64
}

// Gauge is an atomic int64 counter safe for concurrent use from any
// goroutine.
type Gauge struct {
	v int64
}

func (g *Gauge) Adjust(delta int64) { atomic.AddInt64(&g.v, delta) }
func (g *Gauge) Value() int64       { return atomic.LoadInt64(&g.v) }

// Set is a small named registry of metrics, keyed the way
// ClientConn.metrics is in the teacher: map[string]metrics.Metric.
type Set struct {
	m map[string]Metric
}

// NewSet returns a Set pre-populated with the given names, each backed by
// its own Gauge.
func NewSet(names ...string) *Set {
	s := &Set{m: make(map[string]Metric, len(names))}
	for _, n := range names {
		s.m[n] = &Gauge{}
	}
	return s
}

// Adjust adjusts the named metric by delta, creating it as a Gauge on
// first use.
func (s *Set) Adjust(name string, delta int64) {
	m, ok := s.m[name]
	if !ok {
		m = &Gauge{}
		s.m[name] = m
	}
	m.Adjust(delta)
}

// Value returns the current value of the named metric, or 0 if unset.
func (s *Set) Value(name string) int64 {
	if m, ok := s.m[name]; ok {
		return m.Value()
	}
	return 0
}

// Snapshot returns a point-in-time copy of every metric in the set.
func (s *Set) Snapshot() map[string]int64 {
	out := make(map[string]int64, len(s.m))
	for name, m := range s.m {
		out[name] = m.Value()
	}
	return out
}
