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

package civ

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ProbeOptions controls a bus scan
type ProbeOptions struct {
	// Timeout is the wait for each address; 100ms when zero
	Timeout time.Duration
	// First and Last bound the scanned addresses; 0x01 to 0xDF when both zero
	First byte
	Last  byte
	// EchoOff skips echo handling, for USB interfaces with echo disabled
	EchoOff bool
	// StopAtFirst ends the scan at the first rig found
	StopAtFirst bool
}

// ProbeResult is one rig found on the bus
type ProbeResult struct {
	// Model is the catalog entry for Address, nil when unknown
	Model *Model
	// Address answered the transceiver ID request
	Address byte
	// ID is the address the rig reported; zero when it refused the request
	ID byte
	// Rejected is set when the rig answered with NAK
	Rejected bool
}

// String returns a short description of the result
func (p ProbeResult) String() string {
	name := "unknown"
	if p.Model != nil {
		name = p.Model.Name
	}
	return fmt.Sprintf("%s at 0x%02X", name, p.Address)
}

// Probe scans the bus for rigs by sending a transceiver ID request to each
// address in turn. Each address gets a single attempt. A NAK still counts
// as a rig being present.
func Probe(ctx context.Context, transport Transport, opts ProbeOptions) ([]ProbeResult, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 100 * time.Millisecond
	}
	if opts.First == 0 && opts.Last == 0 {
		opts.First, opts.Last = 0x01, 0xDF
	}
	if opts.First == 0 || opts.First > opts.Last {
		return nil, fmt.Errorf("%w: probe range 0x%02X-0x%02X", ErrInvalidParameter, opts.First, opts.Last)
	}

	devOpts := []Option{WithTimeout(opts.Timeout), WithRetry(0)}
	if opts.EchoOff {
		devOpts = append(devOpts, WithEchoOff())
	}
	device, err := New(transport, devOpts...)
	if err != nil {
		return nil, err
	}

	var found []ProbeResult
	for addr := int(opts.First); addr <= int(opts.Last); addr++ {
		if err := ctx.Err(); err != nil {
			return found, err
		}
		if byte(addr) == device.config.ControllerAddress {
			continue
		}

		device.SetAddress(byte(addr))
		result, ok, err := probeAddress(ctx, device)
		if err != nil {
			return found, err
		}
		if !ok {
			continue
		}

		debugf("probe found %s", result)
		found = append(found, result)
		if opts.StopAtFirst {
			break
		}
	}

	return found, nil
}

func probeAddress(ctx context.Context, device *Device) (ProbeResult, bool, error) {
	addr := device.Address()
	result := ProbeResult{Address: addr}
	if m, ok := LookupModelByAddress(addr); ok {
		result.Model = m
	}

	reply, err := device.TransactionOnce(ctx, CmdReadTrxID, SubReadTrxID, nil)
	switch {
	case err == nil:
	case IsRejected(err):
		result.Rejected = true
		return result, true, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return result, false, err
	case IsRetryable(err):
		return result, false, nil
	default:
		return result, false, err
	}

	if len(reply) != 3 || reply[0] != CmdReadTrxID {
		debugf("probe 0x%02X: unexpected reply % X", addr, reply)
		return result, false, nil
	}

	result.ID = reply[2]
	if result.Model == nil {
		if m, ok := LookupModelByAddress(result.ID); ok {
			result.Model = m
		}
	}
	return result, true, nil
}
