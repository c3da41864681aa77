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

package memory

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matryer/is"
	"go.uber.org/goleak"
)

func TestManager_TryReserve(t *testing.T) {
	is := is.New(t)
	m := NewManager(100)

	r1, ok := m.TryReserve(60)
	is.True(ok)
	is.Equal(m.Used(), int64(60))

	_, ok = m.TryReserve(41)
	is.True(!ok) // expected reservation to be denied

	r2, ok := m.TryReserve(40)
	is.True(ok)
	is.Equal(m.Available(), int64(0))

	r1.Release()
	r2.Release()
	is.Equal(m.Used(), int64(0))
}

func TestManager_Backpressure(t *testing.T) {
	defer goleak.VerifyNone(t)
	is := is.New(t)

	const budget = 1000
	m := NewManager(budget)

	var (
		wg       sync.WaitGroup
		admitted atomic.Int32
		mu       sync.Mutex
		granted  []*Reservation
	)
	start := make(chan struct{})
	for i := 0; i < 11; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			r, err := m.Reserve(context.Background(), budget/10)
			is.NoErr(err)
			admitted.Add(1)
			mu.Lock()
			granted = append(granted, r)
			mu.Unlock()
		}()
	}
	close(start)

	// wait until 10 reservations went through, the 11th has to block
	deadline := time.Now().Add(time.Second)
	for admitted.Load() < 10 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(time.Millisecond * 20)
	is.Equal(admitted.Load(), int32(10))
	is.Equal(m.Used(), int64(budget))

	mu.Lock()
	granted[0].Release()
	mu.Unlock()

	wg.Wait()
	is.Equal(admitted.Load(), int32(11))
	is.Equal(m.Used(), int64(budget))

	for _, r := range granted[1:] {
		r.Release()
	}
	is.Equal(m.Used(), int64(0))
}

func TestManager_Conservation(t *testing.T) {
	defer goleak.VerifyNone(t)
	is := is.New(t)

	const budget = 512
	m := NewManager(budget)

	var wg sync.WaitGroup
	var violations atomic.Int32
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(seed))
			for i := 0; i < 500; i++ {
				r, err := m.Reserve(context.Background(), int64(rnd.Intn(64)+1))
				if err != nil {
					violations.Add(1)
					return
				}
				if used := m.Used(); used > budget || used < 0 {
					violations.Add(1)
				}
				r.Release()
			}
		}(int64(w))
	}
	wg.Wait()

	is.Equal(violations.Load(), int32(0))
	is.Equal(m.Used(), int64(0))
}

func TestManager_ReserveTooLarge(t *testing.T) {
	is := is.New(t)
	m := NewManager(10)

	_, err := m.Reserve(context.Background(), 11)
	is.True(errors.Is(err, ErrReservationTooLarge))
}

func TestManager_ReserveTimeout(t *testing.T) {
	is := is.New(t)
	m := NewManager(10, WithTimeout(time.Millisecond*10))

	r, err := m.Reserve(context.Background(), 10)
	is.NoErr(err)
	defer r.Release()

	_, err = m.Reserve(context.Background(), 1)
	is.True(errors.Is(err, ErrReserveTimeout))
}

func TestManager_ReserveCanceled(t *testing.T) {
	is := is.New(t)
	m := NewManager(10)

	r, err := m.Reserve(context.Background(), 10)
	is.NoErr(err)
	defer r.Release()

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*10)
	defer cancel()
	_, err = m.Reserve(ctx, 1)
	is.Equal(err, context.DeadlineExceeded)
}

func TestManager_AddMaxMemoryWakesWaiters(t *testing.T) {
	defer goleak.VerifyNone(t)
	is := is.New(t)
	m := NewManager(10)

	r, err := m.Reserve(context.Background(), 10)
	is.NoErr(err)

	done := make(chan *Reservation)
	go func() {
		r2, err := m.Reserve(context.Background(), 5)
		is.NoErr(err)
		done <- r2
	}()

	select {
	case <-done:
		t.Fatal("expected reservation to block")
	case <-time.After(time.Millisecond * 10):
	}

	m.AddMaxMemory(5)
	r2 := <-done
	is.Equal(m.Used(), int64(15))
	is.Equal(m.Max(), int64(15))

	r.Release()
	r2.Release()
}

func TestReservation_DoubleRelease(t *testing.T) {
	is := is.New(t)
	m := NewManager(10)

	r, ok := m.TryReserve(5)
	is.True(ok)
	r.Release()
	is.True(r.Released())

	defer func() {
		is.True(recover() != nil) // expected second release to panic
		is.Equal(m.Used(), int64(0))
	}()
	r.Release()
}
