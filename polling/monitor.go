// go-civ
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-civ.
//
// go-civ is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-civ is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-civ; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package polling keeps track of a rig's frequency, mode and PTT by
// polling it in the background, and reports changes through callbacks.
package polling

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	civ "github.com/ZaparooProject/go-civ"
)

type execRequest struct {
	ctx    context.Context
	fn     func(*civ.Rig) error
	result chan error
}

// Monitor polls a rig from its own goroutine. Callbacks run on that
// goroutine and must be set before Start.
//
// A Device is not safe for concurrent use, so while a Monitor runs all
// other access to the rig must go through Exec.
type Monitor struct {
	rig                *civ.Rig
	config             *Config
	OnFrequencyChanged func(hz uint64) error
	OnModeChanged      func(mode civ.Mode, width civ.Passband) error
	OnPTTChanged       func(on bool) error
	OnOnline           func()
	OnOffline          func(err error)
	requests           chan *execRequest
	done               chan struct{}
	cancelFunc         context.CancelFunc
	handlers           civ.EventHandlers
	state              RigState
	counters           counters
	stateMu            sync.Mutex
	stopMutex          sync.Mutex
	running            atomic.Bool
}

// NewMonitor creates a monitor for rig. A nil config selects DefaultConfig.
func NewMonitor(rig *civ.Rig, config *Config) (*Monitor, error) {
	if rig == nil {
		return nil, errors.New("rig cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid monitor config: %w", err)
	}

	m := &Monitor{
		rig:      rig,
		config:   config,
		requests: make(chan *execRequest),
	}
	m.handlers = m.eventHandlers()
	m.counters.currentInterval.Store(config.PollInterval.Nanoseconds())
	return m, nil
}

// Start begins polling in the background
func (m *Monitor) Start(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		return errors.New("monitor is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.stopMutex.Lock()
	m.cancelFunc = cancel
	m.done = done
	m.stopMutex.Unlock()

	if m.config.DrainEvents {
		// pushes arriving in the middle of a transaction
		m.rig.Device().SetAsyncHandler(m.handlers.AsyncHandler(m.rig.Model()))
	}

	go func() {
		defer close(done)
		defer m.running.Store(false)
		defer cancel()
		m.run(runCtx)
	}()
	return nil
}

// Stop ends polling and waits for the poll goroutine to exit
func (m *Monitor) Stop() error {
	m.stopMutex.Lock()
	cancel, done := m.cancelFunc, m.done
	m.stopMutex.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done

	if m.config.DrainEvents {
		m.rig.Device().SetAsyncHandler(nil)
	}
	return nil
}

// Close stops the monitor and closes the rig
func (m *Monitor) Close() error {
	_ = m.Stop()
	if err := m.rig.Close(); err != nil {
		return fmt.Errorf("failed to close rig: %w", err)
	}
	return nil
}

// IsRunning reports whether the poll goroutine is active
func (m *Monitor) IsRunning() bool {
	return m.running.Load()
}

// GetState returns the last known rig status
func (m *Monitor) GetState() RigState {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	return m.state
}

// GetRig returns the monitored rig
func (m *Monitor) GetRig() *civ.Rig {
	return m.rig
}

// Exec runs fn on the poll goroutine between poll cycles, so it never
// overlaps a poll. It returns fn's error, or the context's error if ctx
// ends before fn has run.
func (m *Monitor) Exec(ctx context.Context, fn func(*civ.Rig) error) error {
	if !m.running.Load() {
		return ErrMonitorNotRunning
	}
	m.stopMutex.Lock()
	done := m.done
	m.stopMutex.Unlock()

	req := &execRequest{ctx: ctx, fn: fn, result: make(chan error, 1)}
	select {
	case m.requests <- req:
	case <-done:
		return ErrMonitorStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.result:
		return err
	case <-done:
		select {
		case err := <-req.result:
			return err
		default:
			return ErrMonitorStopped
		}
	}
}

func (m *Monitor) run(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-m.requests:
			m.execute(req)
		case <-timer.C:
			m.pollCycle(ctx)
			timer.Reset(m.nextInterval())
		}
	}
}

func (m *Monitor) execute(req *execRequest) {
	if err := req.ctx.Err(); err != nil {
		req.result <- err
		return
	}
	m.counters.execs.Add(1)
	req.result <- req.fn(m.rig)
}
