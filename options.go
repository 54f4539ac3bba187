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
	"time"
)

// Option is a functional option for configuring a Device
type Option func(*Device) error

// WithCIVAddress sets the rig's bus address
func WithCIVAddress(addr byte) Option {
	return func(d *Device) error {
		d.config.CIVAddress = addr
		return nil
	}
}

// WithControllerAddress sets the address this library transmits from
func WithControllerAddress(addr byte) Option {
	return func(d *Device) error {
		d.config.ControllerAddress = addr
		return nil
	}
}

// WithTimeout sets the reply timeout and the transport read timeout
func WithTimeout(timeout time.Duration) Option {
	return func(d *Device) error {
		return d.SetTimeout(timeout)
	}
}

// WithRetry sets how many more times a failed transaction is attempted
func WithRetry(retry int) Option {
	return func(d *Device) error {
		return d.SetRetry(retry)
	}
}

// WithRetryDelay sets the pause between attempts
func WithRetryDelay(delay time.Duration) Option {
	return func(d *Device) error {
		if delay < 0 {
			return fmt.Errorf("%w: retry delay must not be negative", ErrInvalidParameter)
		}
		d.config.RetryDelay = delay
		return nil
	}
}

// WithEchoOff skips the echo phase. Use it for USB interfaces that have
// CI-V USB echo back turned off in the rig menu.
func WithEchoOff() Option {
	return func(d *Device) error {
		d.config.EchoOff = true
		return nil
	}
}

// WithFullDuplex configures a point-to-point RS-232 rig: no echo, and the
// controller transmits from the full-duplex address.
func WithFullDuplex() Option {
	return func(d *Device) error {
		d.config.EchoOff = true
		d.config.ControllerAddress = ControllerAddressFullDuplex
		return nil
	}
}

// WithMaxFrameLength sets the receive buffer capacity. Rigs that emit long
// wake-up bursts or scope data may need more than the default.
func WithMaxFrameLength(n int) Option {
	return func(d *Device) error {
		d.config.MaxFrameLength = n
		return nil
	}
}

// WithMultiByteSubCmd enables 2 and 3 byte sub-command encoding
func WithMultiByteSubCmd(enabled bool) Option {
	return func(d *Device) error {
		d.config.MultiByteSubCmd = enabled
		return nil
	}
}

// WithAsyncPredicate replaces the test for unsolicited frames
func WithAsyncPredicate(predicate AsyncPredicate) Option {
	return func(d *Device) error {
		if predicate == nil {
			return fmt.Errorf("%w: nil async predicate", ErrInvalidParameter)
		}
		d.config.AsyncPredicate = predicate
		return nil
	}
}

// WithAsyncHandler sets the receiver for unsolicited frames
func WithAsyncHandler(handler AsyncHandler) Option {
	return func(d *Device) error {
		d.config.AsyncHandler = handler
		return nil
	}
}

// WithEmptyReadRetries bounds reads returning nothing while assembling a frame
func WithEmptyReadRetries(n int) Option {
	return func(d *Device) error {
		d.config.EmptyReadRetries = n
		return nil
	}
}

// WithWakeupPreambles sets how many FE bytes precede a power-on command
func WithWakeupPreambles(n int) Option {
	return func(d *Device) error {
		d.config.WakeupPreambles = n
		return nil
	}
}

// WithConfig replaces the whole configuration
func WithConfig(config *DeviceConfig) Option {
	return func(d *Device) error {
		if config == nil {
			return fmt.Errorf("%w: nil config", ErrInvalidParameter)
		}
		c := *config
		d.config = &c
		return nil
	}
}
