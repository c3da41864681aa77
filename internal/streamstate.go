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

//go:generate stringer -type StreamState -trimprefix State

package internal

import (
	"fmt"
	"sync"
)

// StreamState is the lifecycle state of a stream loader.
type StreamState int

const (
	StateUninitialized StreamState = iota
	StateStarting
	StateStarted
	StateClosing
	StateClosed

	StateErrored StreamState = 500
)

// StreamLifecycle guards the state of a stream loader. States only move
// forward and a stream that errored stays errored. The zero value is an
// uninitialized stream.
type StreamLifecycle struct {
	m     sync.Mutex
	state StreamState
}

func (l *StreamLifecycle) Get() StreamState {
	l.m.Lock()
	defer l.m.Unlock()
	return l.state
}

// Start runs start on an uninitialized stream. The stream is StateStarting
// while start runs, StateStarted if it succeeds and StateErrored if it fails.
func (l *StreamLifecycle) Start(start func() error) error {
	l.m.Lock()
	defer l.m.Unlock()
	if l.state != StateUninitialized {
		return fmt.Errorf("can't start stream in state %v", l.state)
	}
	return l.run(StateStarting, StateStarted, start)
}

// Close runs closeFn regardless of the current state, a loader that failed
// still gets to clean up. The stream ends up StateClosed unless it errored
// before or closeFn fails.
func (l *StreamLifecycle) Close(closeFn func() error) error {
	l.m.Lock()
	defer l.m.Unlock()
	return l.run(StateClosing, StateClosed, closeFn)
}

func (l *StreamLifecycle) run(during, after StreamState, f func() error) error {
	l.advance(during)
	if err := f(); err != nil {
		l.state = StateErrored
		return err
	}
	l.advance(after)
	return nil
}

func (l *StreamLifecycle) advance(s StreamState) {
	if s > l.state {
		l.state = s
	}
}
