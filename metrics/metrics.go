// Copyright 2024 The accountdb Authors
// This file is part of the accountdb library.
//
// The accountdb library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The accountdb library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the accountdb library. If not, see <http://www.gnu.org/licenses/>.

// Package metrics mirrors the call-site shape of go-ethereum's internal
// metrics package (NewRegisteredMeter, NewRegisteredResettingTimer, ...)
// but backs it with github.com/prometheus/client_golang, since the
// teacher's own metrics package is internal to the monorepo and cannot be
// imported as a standalone module.
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var registry = prometheus.NewRegistry()

// Registry exposes the underlying prometheus registry, e.g. for wiring an
// HTTP /metrics endpoint at the process boundary.
func Registry() *prometheus.Registry { return registry }

func sanitize(name string) string {
	return strings.NewReplacer("/", "_", ".", "_", "-", "_").Replace(name)
}

// register registers c under the package registry, returning c itself on
// first registration. Repeated calls with the same name (every opened
// Database registers its metrics anew) hit prometheus.AlreadyRegisteredError;
// in that case the already-registered collector is returned instead of
// panicking, so a process that opens several Databases never crashes on the
// second one.
func register[T prometheus.Collector](c T) T {
	if err := registry.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(T)
		}
		panic(err)
	}
	return c
}

// Meter is a monotonically increasing rate counter (events per interval).
type Meter struct{ c prometheus.Counter }

// NewRegisteredMeter creates and registers a new Meter under name. The tags
// argument is accepted for call-site parity with the teacher and ignored.
func NewRegisteredMeter(name string, _ interface{}) *Meter {
	c := register(prometheus.NewCounter(prometheus.CounterOpts{Name: sanitize(name), Help: name}))
	return &Meter{c: c}
}

// Mark records n events.
func (m *Meter) Mark(n int64) {
	if m == nil {
		return
	}
	m.c.Add(float64(n))
}

// Counter is a simple monotonic counter.
type Counter struct{ c prometheus.Counter }

// NewRegisteredCounter creates and registers a new Counter under name.
func NewRegisteredCounter(name string, _ interface{}) *Counter {
	c := register(prometheus.NewCounter(prometheus.CounterOpts{Name: sanitize(name), Help: name}))
	return &Counter{c: c}
}

func (c *Counter) Inc(n int64) {
	if c == nil {
		return
	}
	c.c.Add(float64(n))
}

// ResettingTimer records a distribution of durations, matching the
// teacher's ResettingTimer (commiterEncodeTimer, memcacheFlushTimeTimer, ...).
type ResettingTimer struct{ h prometheus.Histogram }

// NewRegisteredResettingTimer creates and registers a new ResettingTimer.
func NewRegisteredResettingTimer(name string, _ interface{}) *ResettingTimer {
	h := register(prometheus.NewHistogram(prometheus.HistogramOpts{Name: sanitize(name), Help: name}))
	return &ResettingTimer{h: h}
}

// Update records a single duration sample.
func (t *ResettingTimer) Update(d time.Duration) {
	if t == nil {
		return
	}
	t.h.Observe(d.Seconds())
}

// UpdateSince records the duration elapsed since start.
func (t *ResettingTimer) UpdateSince(start time.Time) {
	t.Update(time.Since(start))
}

// Gauge holds an instantaneous value, e.g. current dirty-node cache size.
type Gauge struct{ g prometheus.Gauge }

// NewRegisteredGauge creates and registers a new Gauge under name.
func NewRegisteredGauge(name string, _ interface{}) *Gauge {
	g := register(prometheus.NewGauge(prometheus.GaugeOpts{Name: sanitize(name), Help: name}))
	return &Gauge{g: g}
}

func (g *Gauge) Update(v int64) {
	if g == nil {
		return
	}
	g.g.Set(float64(v))
}
