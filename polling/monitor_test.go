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
	"sync"
	"testing"
	"time"

	civ "github.com/ZaparooProject/go-civ"
	testutil "github.com/ZaparooProject/go-civ/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createMockRig(t *testing.T) (*civ.Rig, *civ.MockTransport, *testutil.VirtualRig) {
	t.Helper()

	model, err := civ.LookupModel("IC-7300")
	require.NoError(t, err)

	vr := testutil.NewVirtualRig()
	mock := civ.NewMockTransport()
	mock.SetResponseFunc(vr.Handle)

	rig, err := civ.Open(mock, model, civ.WithRetryDelay(0), civ.WithTimeout(50*time.Millisecond))
	require.NoError(t, err)
	return rig, mock, vr
}

func fastConfig() *Config {
	return &Config{
		PollInterval:      5 * time.Millisecond,
		IdleInterval:      20 * time.Millisecond,
		IdleAfter:         time.Hour,
		CallTimeout:       time.Second,
		OfflineAfter:      2,
		MaxEventsPerCycle: 4,
		PollMode:          true,
		PollPTT:           true,
	}
}

// recorder collects callback values from the poll goroutine
type recorder struct {
	freqs   []uint64
	modes   []civ.Mode
	ptt     []bool
	offline int
	online  int
	mu      sync.Mutex
}

func (r *recorder) attach(m *Monitor) {
	m.OnFrequencyChanged = func(hz uint64) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.freqs = append(r.freqs, hz)
		return nil
	}
	m.OnModeChanged = func(mode civ.Mode, _ civ.Passband) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.modes = append(r.modes, mode)
		return nil
	}
	m.OnPTTChanged = func(on bool) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.ptt = append(r.ptt, on)
		return nil
	}
	m.OnOffline = func(error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.offline++
	}
	m.OnOnline = func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.online++
	}
}

func (r *recorder) sawFreq(hz uint64) func() bool {
	return func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		for _, f := range r.freqs {
			if f == hz {
				return true
			}
		}
		return false
	}
}

func startMonitor(t *testing.T, config *Config) (*Monitor, *recorder, *civ.MockTransport, *testutil.VirtualRig) {
	t.Helper()

	rig, mock, vr := createMockRig(t)
	monitor, err := NewMonitor(rig, config)
	require.NoError(t, err)

	rec := &recorder{}
	rec.attach(monitor)
	require.NoError(t, monitor.Start(context.Background()))
	t.Cleanup(func() { _ = monitor.Stop() })
	return monitor, rec, mock, vr
}

func TestNewMonitor(t *testing.T) {
	t.Parallel()

	rig, _, _ := createMockRig(t)

	t.Run("WithDefaultConfig", func(t *testing.T) {
		t.Parallel()
		monitor, err := NewMonitor(rig, nil)
		require.NoError(t, err)
		assert.Equal(t, rig, monitor.GetRig())
		assert.Equal(t, DefaultConfig(), monitor.config)
		assert.Equal(t, 250*time.Millisecond, monitor.GetCurrentPollInterval())
		assert.False(t, monitor.IsRunning())
		assert.Equal(t, StateUnknown, monitor.GetState().Link)
	})

	t.Run("NilRig", func(t *testing.T) {
		t.Parallel()
		_, err := NewMonitor(nil, nil)
		require.Error(t, err)
	})

	t.Run("InvalidConfig", func(t *testing.T) {
		t.Parallel()
		config := DefaultConfig()
		config.IdleInterval = time.Millisecond
		_, err := NewMonitor(rig, config)
		require.Error(t, err)
	})
}

func TestMonitor_ReportsChanges(t *testing.T) {
	t.Parallel()

	monitor, rec, _, vr := startMonitor(t, fastConfig())

	require.Eventually(t, rec.sawFreq(14074000), time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		return monitor.GetState().Link == StateOnline
	}, time.Second, 5*time.Millisecond)

	vr.SetFreq(7074000)
	require.Eventually(t, rec.sawFreq(7074000), time.Second, 5*time.Millisecond)

	vr.SetMode(0x03, 0x01)
	vr.SetPTTState(true)
	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.modes) == 2 && len(rec.ptt) == 1
	}, time.Second, 5*time.Millisecond)

	rec.mu.Lock()
	assert.Equal(t, []civ.Mode{civ.ModeUSB, civ.ModeCW}, rec.modes)
	assert.Equal(t, []bool{true}, rec.ptt)
	assert.Equal(t, 1, rec.online)
	rec.mu.Unlock()

	state := monitor.GetState()
	assert.Equal(t, uint64(7074000), state.Frequency)
	assert.Equal(t, civ.ModeCW, state.Mode)
	assert.True(t, state.PTT)

	metrics := monitor.GetMetrics()
	assert.GreaterOrEqual(t, metrics.Changes, int64(5))
	assert.Positive(t, metrics.PollCycles)
	assert.Zero(t, metrics.CallbackErrors)
}

func TestMonitor_GenericRigPollsPTT(t *testing.T) {
	t.Parallel()

	vr := testutil.NewVirtualRig()
	mock := civ.NewMockTransport()
	mock.SetResponseFunc(vr.Handle)
	rig, err := civ.Open(mock, nil, civ.WithRetryDelay(0), civ.WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	monitor, err := NewMonitor(rig, fastConfig())
	require.NoError(t, err)
	rec := &recorder{}
	rec.attach(monitor)
	require.NoError(t, monitor.Start(context.Background()))
	t.Cleanup(func() { _ = monitor.Stop() })

	require.Eventually(t, rec.sawFreq(14074000), time.Second, 5*time.Millisecond)
	vr.SetPTTState(true)
	require.Eventually(t, func() bool {
		return monitor.GetState().PTT
	}, time.Second, 5*time.Millisecond)
	assert.Positive(t, mock.GetCallCount(civ.CmdCtlPTT))
}

func TestMonitor_OfflineAndBack(t *testing.T) {
	t.Parallel()

	monitor, rec, _, vr := startMonitor(t, fastConfig())
	require.Eventually(t, rec.sawFreq(14074000), time.Second, 5*time.Millisecond)

	vr.SetPower(false)
	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return rec.offline == 1
	}, 2*time.Second, 5*time.Millisecond)

	state := monitor.GetState()
	assert.Equal(t, StateOffline, state.Link)
	require.ErrorIs(t, state.LastError, civ.ErrTimeout)
	require.Eventually(t, func() bool {
		return monitor.GetCurrentPollInterval() == 20*time.Millisecond
	}, time.Second, 5*time.Millisecond)

	vr.SetPower(true)
	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return rec.online == 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.Positive(t, monitor.GetMetrics().PollErrors)
}

func TestMonitor_Exec(t *testing.T) {
	t.Parallel()

	monitor, rec, _, vr := startMonitor(t, fastConfig())

	err := monitor.Exec(context.Background(), func(r *civ.Rig) error {
		return r.SetFreq(context.Background(), 3573000)
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(3573000), vr.GetFreq())
	require.Eventually(t, rec.sawFreq(3573000), time.Second, 5*time.Millisecond)

	boom := errors.New("boom")
	err = monitor.Exec(context.Background(), func(*civ.Rig) error { return boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int64(2), monitor.GetMetrics().Execs)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = monitor.Exec(ctx, func(*civ.Rig) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}

func TestMonitor_ExecNotRunning(t *testing.T) {
	t.Parallel()

	rig, _, _ := createMockRig(t)
	monitor, err := NewMonitor(rig, fastConfig())
	require.NoError(t, err)

	err = monitor.Exec(context.Background(), func(*civ.Rig) error { return nil })
	require.ErrorIs(t, err, ErrMonitorNotRunning)
}

func TestMonitor_StartStop(t *testing.T) {
	t.Parallel()

	monitor, _, _, _ := startMonitor(t, fastConfig())
	assert.True(t, monitor.IsRunning())
	require.Error(t, monitor.Start(context.Background()))

	require.NoError(t, monitor.Stop())
	assert.False(t, monitor.IsRunning())
	require.NoError(t, monitor.Stop())

	err := monitor.Exec(context.Background(), func(*civ.Rig) error { return nil })
	require.ErrorIs(t, err, ErrMonitorNotRunning)

	require.NoError(t, monitor.Start(context.Background()))
	assert.True(t, monitor.IsRunning())
}

func TestMonitor_ParentContextCancel(t *testing.T) {
	t.Parallel()

	rig, _, _ := createMockRig(t)
	monitor, err := NewMonitor(rig, fastConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, monitor.Start(ctx))
	cancel()

	require.Eventually(t, func() bool { return !monitor.IsRunning() }, time.Second, 5*time.Millisecond)
}

func TestMonitor_AdaptiveInterval(t *testing.T) {
	t.Parallel()

	config := fastConfig()
	config.IdleAfter = 100 * time.Millisecond
	monitor, rec, _, vr := startMonitor(t, config)

	require.Eventually(t, rec.sawFreq(14074000), time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		return monitor.GetCurrentPollInterval() == config.IdleInterval
	}, time.Second, 5*time.Millisecond)

	vr.SetFreq(21074000)
	require.Eventually(t, func() bool {
		return monitor.GetCurrentPollInterval() == config.PollInterval
	}, time.Second, 5*time.Millisecond)
}

func TestMonitor_DrainEvents(t *testing.T) {
	t.Parallel()

	config := fastConfig()
	config.DrainEvents = true
	monitor, _, mock, _ := startMonitor(t, config)

	// every transaction carries a transceive push matching the rig state
	mock.SetUnsolicited(testutil.BuildTransceiveFreq(14074000))

	require.Eventually(t, func() bool {
		return monitor.GetMetrics().EventsDecoded > 0
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, uint64(14074000), monitor.GetState().Frequency)
}

func TestMonitor_CallbackErrors(t *testing.T) {
	t.Parallel()

	rig, _, _ := createMockRig(t)
	monitor, err := NewMonitor(rig, fastConfig())
	require.NoError(t, err)

	monitor.OnFrequencyChanged = func(uint64) error { return errors.New("listener gone") }
	require.NoError(t, monitor.Start(context.Background()))
	t.Cleanup(func() { _ = monitor.Stop() })

	require.Eventually(t, func() bool {
		return monitor.GetMetrics().CallbackErrors == 1
	}, time.Second, 5*time.Millisecond)
}

func TestMonitor_Close(t *testing.T) {
	t.Parallel()

	monitor, _, mock, _ := startMonitor(t, fastConfig())
	require.NoError(t, monitor.Close())
	assert.False(t, monitor.IsRunning())
	assert.False(t, mock.IsConnected())
}
