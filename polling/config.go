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
)

// Config controls how often a Monitor polls the rig
type Config struct {
	// PollInterval is the fast polling period, used while the rig is
	// being operated
	PollInterval time.Duration
	// IdleInterval is the slow period used once nothing has changed for
	// IdleAfter
	IdleInterval time.Duration
	IdleAfter    time.Duration
	// CallTimeout bounds each rig call made by a poll cycle
	CallTimeout time.Duration
	// OfflineAfter is the number of consecutive failed polls after which
	// the rig is reported offline
	OfflineAfter int
	// MaxEventsPerCycle caps transceive frames drained before each poll
	MaxEventsPerCycle int
	// PollMode and PollPTT add the mode and PTT reads to each cycle.
	// PTT is only read from models that support it.
	PollMode bool
	PollPTT  bool
	// DrainEvents decodes transceive frames waiting on the bus before each
	// poll. Enable it when the rig's CI-V transceive setting is on.
	DrainEvents bool
}

// DefaultConfig returns a Config polling frequency, mode and PTT four
// times a second
func DefaultConfig() *Config {
	return &Config{
		PollInterval:      250 * time.Millisecond,
		IdleInterval:      time.Second,
		IdleAfter:         5 * time.Second,
		CallTimeout:       time.Second,
		OfflineAfter:      3,
		MaxEventsPerCycle: 8,
		PollMode:          true,
		PollPTT:           true,
	}
}

func (c *Config) validate() error {
	switch {
	case c.PollInterval <= 0:
		return errors.New("poll interval must be positive")
	case c.IdleInterval < c.PollInterval:
		return errors.New("idle interval must not be shorter than the poll interval")
	case c.CallTimeout <= 0:
		return errors.New("call timeout must be positive")
	case c.OfflineAfter < 1:
		return errors.New("offline threshold must be at least 1")
	}
	return nil
}
