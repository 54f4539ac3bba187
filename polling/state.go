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
	"errors"
	"time"

	civ "github.com/ZaparooProject/go-civ"
)

// LinkState is whether the rig is answering polls
type LinkState int

const (
	// StateUnknown is the state before the first poll completes
	StateUnknown LinkState = iota
	// StateOnline means the last poll got answers
	StateOnline
	// StateOffline means OfflineAfter polls in a row failed
	StateOffline
)

// String returns the state name
func (s LinkState) String() string {
	switch s {
	case StateOnline:
		return "online"
	case StateOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// RigState is the last known rig status
type RigState struct {
	LastChange time.Time
	LastPoll   time.Time
	LastError  error
	Mode       civ.Mode
	Frequency  uint64
	Width      civ.Passband
	Failures   int
	Link       LinkState
	PTT        bool
}

// ErrMonitorNotRunning is returned by Exec when the monitor is stopped
var ErrMonitorNotRunning = errors.New("monitor is not running")

// ErrMonitorStopped is returned to Exec calls pending when the monitor stops
var ErrMonitorStopped = errors.New("monitor was stopped")

func (s *RigState) setFrequency(hz uint64, now time.Time) bool {
	if s.Frequency == hz {
		return false
	}
	s.Frequency = hz
	s.LastChange = now
	return true
}

func (s *RigState) setMode(mode civ.Mode, width civ.Passband, now time.Time) bool {
	if s.Mode == mode && s.Width == width {
		return false
	}
	s.Mode = mode
	s.Width = width
	s.LastChange = now
	return true
}

func (s *RigState) setPTT(on bool, now time.Time) bool {
	if s.PTT == on {
		return false
	}
	s.PTT = on
	s.LastChange = now
	return true
}

// recordSuccess marks a completed poll and reports whether the rig just
// came (back) online
func (s *RigState) recordSuccess(now time.Time) bool {
	s.LastPoll = now
	s.LastError = nil
	s.Failures = 0
	wasOnline := s.Link == StateOnline
	s.Link = StateOnline
	return !wasOnline
}

// recordFailure counts a failed poll and reports whether the rig just went
// offline
func (s *RigState) recordFailure(err error, threshold int) bool {
	s.LastError = err
	s.Failures++
	if s.Failures < threshold || s.Link == StateOffline {
		return false
	}
	s.Link = StateOffline
	return true
}

// idleFor reports whether nothing has changed for at least d
func (s *RigState) idleFor(d time.Duration, now time.Time) bool {
	return !s.LastChange.IsZero() && now.Sub(s.LastChange) >= d
}
