// Copyright © 2024 Meroxa, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package memory implements a byte budget shared by everything that holds
// records in memory. Reservations block when the budget is exhausted, which
// is how the pipeline applies backpressure to the input.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

var (
	ErrReservationTooLarge = errors.New("reservation exceeds memory budget")
	ErrReserveTimeout      = errors.New("timed out waiting for memory")
)

// Manager tracks a global byte budget and grants reservations against it.
// It is safe for concurrent use.
type Manager struct {
	m    sync.Mutex
	max  int64
	used int64
	// changed is closed and replaced every time memory is freed or the budget
	// grows, waking up all blocked Reserve calls.
	changed chan struct{}

	timeout time.Duration
	gauge   prometheus.Gauge
}

type Option func(*Manager)

// WithTimeout makes Reserve fail with ErrReserveTimeout if the reservation
// can't be granted within d. By default Reserve blocks until memory is
// available or the context is canceled.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) { m.timeout = d }
}

// WithUsageGauge reports the number of reserved bytes to g.
func WithUsageGauge(g prometheus.Gauge) Option {
	return func(m *Manager) { m.gauge = g }
}

func NewManager(maxBytes int64, opts ...Option) *Manager {
	m := &Manager{
		max:     maxBytes,
		changed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TryReserve reserves n bytes if they are available right now.
func (m *Manager) TryReserve(n int64) (*Reservation, bool) {
	if n < 0 {
		panic(fmt.Sprintf("memory: invalid reservation size %d", n))
	}
	m.m.Lock()
	defer m.m.Unlock()
	return m.tryReserveLocked(n)
}

// Reserve reserves n bytes, blocking until enough memory is released. It
// returns ErrReservationTooLarge if n exceeds the whole budget, the context
// error if ctx is done first, and ErrReserveTimeout if the manager was
// created with a timeout that elapsed.
func (m *Manager) Reserve(ctx context.Context, n int64) (*Reservation, error) {
	if n < 0 {
		panic(fmt.Sprintf("memory: invalid reservation size %d", n))
	}

	var timeout <-chan time.Time
	if m.timeout > 0 {
		timer := time.NewTimer(m.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	for {
		m.m.Lock()
		if n > m.max {
			max := m.max
			m.m.Unlock()
			return nil, fmt.Errorf("%w: requested %d bytes, budget is %d bytes", ErrReservationTooLarge, n, max)
		}
		if r, ok := m.tryReserveLocked(n); ok {
			m.m.Unlock()
			return r, nil
		}
		changed := m.changed
		m.m.Unlock()

		select {
		case <-changed:
		case <-timeout:
			return nil, fmt.Errorf("%w: requested %d bytes after %v", ErrReserveTimeout, n, m.timeout)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (m *Manager) tryReserveLocked(n int64) (*Reservation, bool) {
	if m.used+n > m.max {
		return nil, false
	}
	m.used += n
	m.observe()
	return &Reservation{m: m, bytes: n}, true
}

func (m *Manager) release(n int64) {
	m.m.Lock()
	defer m.m.Unlock()

	m.used -= n
	if m.used < 0 {
		panic(fmt.Sprintf("memory: used bytes went negative (%d)", m.used))
	}
	m.observe()
	m.broadcastLocked()
}

// AddMaxMemory grows (or shrinks, if delta is negative) the budget. Shrinking
// below the currently used amount does not revoke reservations, new ones
// block until enough is released.
func (m *Manager) AddMaxMemory(delta int64) {
	m.m.Lock()
	defer m.m.Unlock()

	m.max += delta
	if m.max < 0 {
		m.max = 0
	}
	m.broadcastLocked()
}

func (m *Manager) broadcastLocked() {
	close(m.changed)
	m.changed = make(chan struct{})
}

func (m *Manager) observe() {
	if m.gauge != nil {
		m.gauge.Set(float64(m.used))
	}
}

func (m *Manager) Used() int64 {
	m.m.Lock()
	defer m.m.Unlock()
	return m.used
}

func (m *Manager) Max() int64 {
	m.m.Lock()
	defer m.m.Unlock()
	return m.max
}

func (m *Manager) Available() int64 {
	m.m.Lock()
	defer m.m.Unlock()
	if m.used > m.max {
		return 0
	}
	return m.max - m.used
}

// Utilization returns the fraction of the budget currently reserved.
func (m *Manager) Utilization() float64 {
	m.m.Lock()
	defer m.m.Unlock()
	if m.max == 0 {
		return 1
	}
	return float64(m.used) / float64(m.max)
}

// LogUtilization logs a snapshot of the memory usage every interval until ctx
// is done.
func (m *Manager) LogUtilization(ctx context.Context, interval time.Duration) {
	logger := zerolog.Ctx(ctx).With().Str("component", "memory.Manager").Logger()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.m.Lock()
			used, max := m.used, m.max
			m.m.Unlock()
			logger.Debug().
				Int64("usedBytes", used).
				Int64("maxBytes", max).
				Float64("utilization", float64(used)/float64(max)).
				Msg("memory utilization")
		}
	}
}

// Reservation is a grant of a number of bytes. It must be released exactly
// once.
type Reservation struct {
	m        *Manager
	bytes    int64
	released atomic.Bool
}

func (r *Reservation) Bytes() int64 {
	return r.bytes
}

// Release returns the reserved bytes to the manager. Releasing the same
// reservation twice is a programming error and panics.
func (r *Reservation) Release() {
	if !r.released.CompareAndSwap(false, true) {
		panic("memory: reservation released twice")
	}
	r.m.release(r.bytes)
}

// Released reports whether Release was already called.
func (r *Reservation) Released() bool {
	return r.released.Load()
}
