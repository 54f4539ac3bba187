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
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ZaparooProject/go-civ/internal/frame"
)

// AsyncPredicate decides whether a received frame is an unsolicited push
// from the rig rather than the reply to the outstanding command.
type AsyncPredicate func(f []byte) bool

// AsyncHandler receives unsolicited frames seen during a transaction.
// The slice is a copy and may be retained. Returned errors are logged and
// never fail the transaction.
type AsyncHandler func(f []byte) error

// DeviceConfig contains configuration options for the Device
type DeviceConfig struct {
	// AsyncPredicate classifies asynchronous frames; DefaultAsyncPredicate of
	// ControllerAddress when nil
	AsyncPredicate AsyncPredicate
	// AsyncHandler receives asynchronous frames; they are dropped when nil
	AsyncHandler AsyncHandler
	// Timeout bounds the wait for a reply, including interleaved async frames
	Timeout time.Duration
	// RetryDelay is the pause between attempts
	RetryDelay time.Duration
	// Retry is the number of additional attempts after the first one fails
	Retry int
	// MaxFrameLength is the capacity of the receive buffer
	MaxFrameLength int
	// EmptyReadRetries bounds reads returning nothing while assembling a frame
	EmptyReadRetries int
	// WakeupPreambles is the number of FE bytes sent ahead of a power-on command
	WakeupPreambles int
	// CIVAddress is the rig's bus address
	CIVAddress byte
	// ControllerAddress is the address this library transmits from
	ControllerAddress byte
	// MultiByteSubCmd sends sub-commands above 0xFF as 2 or 3 bytes
	MultiByteSubCmd bool
	// EchoOff disables the echo phase; set for USB interfaces with CI-V echo off
	EchoOff bool
}

// DefaultDeviceConfig returns default device configuration
func DefaultDeviceConfig() *DeviceConfig {
	return &DeviceConfig{
		Timeout:           1 * time.Second,
		RetryDelay:        100 * time.Millisecond,
		Retry:             3,
		MaxFrameLength:    frame.MaxFrameLength,
		EmptyReadRetries:  DefaultEmptyReadRetries,
		WakeupPreambles:   WakeupPreamblesForBaud(0),
		CIVAddress:        0x94,
		ControllerAddress: frame.Controller,
	}
}

// WakeupPreamblesForBaud returns how many FE bytes wake a rig from standby
// at the given serial speed. Unknown speeds get the 115200 baud count.
func WakeupPreamblesForBaud(baud int) int {
	switch baud {
	case 4800:
		return 7
	case 9600:
		return 13
	case 19200:
		return 25
	case 38400:
		return 50
	case 57600:
		return 75
	default:
		return 150
	}
}

// DefaultAsyncPredicate returns the predicate used when none is configured.
// It matches transceive broadcasts (destination 00) and spectrum scope data
// sent to controller, which rigs push without being asked.
func DefaultAsyncPredicate(controller byte) AsyncPredicate {
	return func(f []byte) bool {
		if len(f) < frame.MinFrameLength {
			return false
		}
		if f[2] == frame.Broadcast {
			return true
		}
		return len(f) > frame.MinFrameLength &&
			f[2] == controller && f[4] == CmdCtlScope && f[5] == SubScopeData
	}
}

// Device is a CI-V rig on a transport.
//
// Thread Safety: Device is NOT thread-safe. Replies are matched to commands
// purely by arrival order, so all transactions on one Device must be
// serialized by the caller. The transaction-active flag reported by
// TransactionActive is advisory; it lets background readers such as
// polling.Monitor stay off the bus, but it does not lock anything.
type Device struct {
	transport Transport
	config    *DeviceConfig
	readBuf   []byte
	active    atomic.Bool
}

// New creates a new CI-V device with the given transport
func New(transport Transport, opts ...Option) (*Device, error) {
	if transport == nil {
		return nil, fmt.Errorf("%w: nil transport", ErrInvalidParameter)
	}

	device := &Device{
		transport: transport,
		config:    DefaultDeviceConfig(),
	}

	for _, opt := range opts {
		if err := opt(device); err != nil {
			return nil, err
		}
	}

	if err := device.config.validate(); err != nil {
		return nil, err
	}

	// One spare byte so a dropped preamble can be re-inserted in place
	device.readBuf = make([]byte, device.config.MaxFrameLength+1)
	return device, nil
}

func (c *DeviceConfig) validate() error {
	switch {
	case c.Timeout <= 0:
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidParameter)
	case c.Retry < 0:
		return fmt.Errorf("%w: retry must not be negative", ErrInvalidParameter)
	case c.RetryDelay < 0:
		return fmt.Errorf("%w: retry delay must not be negative", ErrInvalidParameter)
	case c.MaxFrameLength < frame.MinFrameLength+frame.MaxSubCmdBytes:
		return fmt.Errorf("%w: max frame length %d too small", ErrInvalidParameter, c.MaxFrameLength)
	case c.WakeupPreambles < 0:
		return fmt.Errorf("%w: wake-up preambles must not be negative", ErrInvalidParameter)
	case c.EmptyReadRetries <= 0:
		return fmt.Errorf("%w: empty read retries must be positive", ErrInvalidParameter)
	}
	return nil
}

// Transport returns the underlying transport
func (d *Device) Transport() Transport {
	return d.transport
}

// Config returns a copy of the current configuration
func (d *Device) Config() DeviceConfig {
	return *d.config
}

// Address returns the rig's CI-V address
func (d *Device) Address() byte {
	return d.config.CIVAddress
}

// SetAddress changes the rig's CI-V address
func (d *Device) SetAddress(addr byte) {
	d.config.CIVAddress = addr
}

// SetTimeout sets the reply timeout and the transport read timeout
func (d *Device) SetTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidParameter)
	}
	d.config.Timeout = timeout
	if err := d.transport.SetTimeout(timeout); err != nil {
		return fmt.Errorf("failed to set timeout on transport: %w", err)
	}
	return nil
}

// SetRetry sets the number of additional attempts after a failed one
func (d *Device) SetRetry(retry int) error {
	if retry < 0 {
		return fmt.Errorf("%w: retry must not be negative", ErrInvalidParameter)
	}
	d.config.Retry = retry
	return nil
}

// SetAsyncHandler replaces the handler for unsolicited frames
func (d *Device) SetAsyncHandler(handler AsyncHandler) {
	d.config.AsyncHandler = handler
}

// TransactionActive reports whether a transaction is in progress
func (d *Device) TransactionActive() bool {
	return d.active.Load()
}

// IsConnected reports whether the transport is connected
func (d *Device) IsConnected() bool {
	return d.transport.IsConnected()
}

// Close closes the underlying transport
func (d *Device) Close() error {
	if err := d.transport.Close(); err != nil {
		return fmt.Errorf("failed to close transport: %w", err)
	}
	return nil
}

func (d *Device) expectsEcho() bool {
	return !d.config.EchoOff && !HasCapability(d.transport, CapabilityNoEcho)
}

func (d *Device) isAsync(f []byte) bool {
	if d.config.AsyncPredicate != nil {
		return d.config.AsyncPredicate(f)
	}
	return DefaultAsyncPredicate(d.config.ControllerAddress)(f)
}
