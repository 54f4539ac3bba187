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

package polling

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	civ "github.com/ZaparooProject/go-civ"
	"go.uber.org/zap"
)

// Metrics are counters kept by a Monitor
type Metrics struct {
	PollCycles      int64         // Poll cycles run
	PollErrors      int64         // Poll cycles that failed
	Changes         int64         // Frequency, mode or PTT changes seen
	EventsDecoded   int64         // Transceive frames decoded
	CallbackErrors  int64         // Errors returned by callbacks
	Execs           int64         // Exec calls run
	LastPollLatency time.Duration // Duration of the last poll cycle
}

type counters struct {
	pollCycles      atomic.Int64
	pollErrors      atomic.Int64
	changes         atomic.Int64
	eventsDecoded   atomic.Int64
	callbackErrors  atomic.Int64
	execs           atomic.Int64
	lastPollLatency atomic.Int64
	currentInterval atomic.Int64
}

// GetMetrics returns a snapshot of the monitor's counters
func (m *Monitor) GetMetrics() Metrics {
	return Metrics{
		PollCycles:      m.counters.pollCycles.Load(),
		PollErrors:      m.counters.pollErrors.Load(),
		Changes:         m.counters.changes.Load(),
		EventsDecoded:   m.counters.eventsDecoded.Load(),
		CallbackErrors:  m.counters.callbackErrors.Load(),
		Execs:           m.counters.execs.Load(),
		LastPollLatency: time.Duration(m.counters.lastPollLatency.Load()),
	}
}

// GetCurrentPollInterval returns the period until the next poll
func (m *Monitor) GetCurrentPollInterval() time.Duration {
	return time.Duration(m.counters.currentInterval.Load())
}

// nextInterval slows polling down once the rig has been left alone for
// IdleAfter, or while it is offline
func (m *Monitor) nextInterval() time.Duration {
	m.stateMu.Lock()
	idle := m.state.Link == StateOffline || m.state.idleFor(m.config.IdleAfter, time.Now())
	m.stateMu.Unlock()

	interval := m.config.PollInterval
	if idle {
		interval = m.config.IdleInterval
	}
	m.counters.currentInterval.Store(interval.Nanoseconds())
	return interval
}

// pollCycle drains pending transceive frames, then reads the rig status
func (m *Monitor) pollCycle(ctx context.Context) {
	start := time.Now()
	m.counters.pollCycles.Add(1)

	if m.config.DrainEvents {
		m.drainEvents(ctx)
	}
	err := m.poll(ctx)
	m.counters.lastPollLatency.Store(time.Since(start).Nanoseconds())

	if errors.Is(err, context.Canceled) {
		return
	}

	m.stateMu.Lock()
	var online, offline bool
	if err != nil {
		offline = m.state.recordFailure(err, m.config.OfflineAfter)
	} else {
		online = m.state.recordSuccess(time.Now())
	}
	m.stateMu.Unlock()

	if err != nil {
		m.counters.pollErrors.Add(1)
		civ.Logger().Debug("poll failed", zap.Error(err))
	}
	if offline && m.OnOffline != nil {
		m.OnOffline(err)
	}
	if online && m.OnOnline != nil {
		m.OnOnline()
	}
}

func (m *Monitor) poll(ctx context.Context) error {
	callCtx, cancel := context.WithTimeout(ctx, m.config.CallTimeout)
	defer cancel()

	hz, err := m.rig.GetFreq(callCtx)
	if err != nil {
		return err
	}
	m.applyFrequency(hz)

	if m.config.PollMode {
		mode, width, err := m.rig.GetMode(callCtx)
		if err != nil {
			return err
		}
		m.applyMode(mode, width)
	}

	if m.config.PollPTT && m.rig.Supports(civ.HasPTT) {
		on, err := m.rig.GetPTT(callCtx)
		if err != nil {
			return err
		}
		m.applyPTT(on)
	}
	return nil
}

// drainEvents decodes transceive frames already waiting on the bus
func (m *Monitor) drainEvents(ctx context.Context) {
	device := m.rig.Device()
	for i := 0; i < m.config.MaxEventsPerCycle; i++ {
		err := device.DecodeEvent(ctx, m.rig.Model(), m.handlers)
		switch {
		case err == nil:
		case errors.Is(err, civ.ErrTransportTimeout):
			return
		case errors.Is(err, civ.ErrNotSupported):
			// a push nobody decodes, such as scope data
		default:
			civ.Logger().Debug("event drain stopped", zap.Error(err))
			return
		}
	}
}

func (m *Monitor) eventHandlers() civ.EventHandlers {
	return civ.EventHandlers{
		OnFrequency: func(hz uint64) error {
			m.counters.eventsDecoded.Add(1)
			m.applyFrequency(hz)
			return nil
		},
		OnMode: func(mode civ.Mode, width civ.Passband) error {
			m.counters.eventsDecoded.Add(1)
			m.applyMode(mode, width)
			return nil
		},
		OnPTT: func(on bool) error {
			m.counters.eventsDecoded.Add(1)
			m.applyPTT(on)
			return nil
		},
	}
}

func (m *Monitor) applyFrequency(hz uint64) {
	m.stateMu.Lock()
	changed := m.state.setFrequency(hz, time.Now())
	m.stateMu.Unlock()

	if !changed {
		return
	}
	var err error
	if m.OnFrequencyChanged != nil {
		err = m.OnFrequencyChanged(hz)
	}
	m.notify(err)
}

func (m *Monitor) applyMode(mode civ.Mode, width civ.Passband) {
	m.stateMu.Lock()
	changed := m.state.setMode(mode, width, time.Now())
	m.stateMu.Unlock()

	if !changed {
		return
	}
	var err error
	if m.OnModeChanged != nil {
		err = m.OnModeChanged(mode, width)
	}
	m.notify(err)
}

func (m *Monitor) applyPTT(on bool) {
	m.stateMu.Lock()
	changed := m.state.setPTT(on, time.Now())
	m.stateMu.Unlock()

	if !changed {
		return
	}
	var err error
	if m.OnPTTChanged != nil {
		err = m.OnPTTChanged(on)
	}
	m.notify(err)
}

// notify counts a change and the callback's error, if any
func (m *Monitor) notify(err error) {
	m.counters.changes.Add(1)
	if err != nil {
		m.counters.callbackErrors.Add(1)
		civ.Logger().Debug("monitor callback failed", zap.Error(err))
	}
}
