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
	"time"
)

// Transport is the byte-oriented port a Device talks CI-V over.
// This can be implemented by serial (UART), network (TCP) or test backends.
type Transport interface {
	// Write sends a block of bytes to the bus
	Write(data []byte) error

	// ReadString reads into buf until one of the terminator bytes has been
	// stored, buf is full, or the read timeout expires. It returns the number
	// of bytes stored. A timeout with nothing read returns ErrTransportTimeout;
	// a timeout after a partial read returns the partial count and no error.
	ReadString(buf []byte, terminators []byte) (int, error)

	// Flush discards any bytes waiting in the input buffer
	Flush() error

	// Close closes the transport connection
	Close() error

	// SetTimeout sets the read timeout for the transport
	SetTimeout(timeout time.Duration) error

	// IsConnected returns true if the transport is connected
	IsConnected() bool

	// Type returns the transport type
	Type() TransportType
}

// TransportType represents the type of transport
type TransportType string

const (
	// TransportUART represents a serial port, including USB CI-V interfaces
	TransportUART TransportType = "uart"
	// TransportTCP represents a serial-over-TCP bridge
	TransportTCP TransportType = "tcp"
	// TransportMock represents a mock transport for testing
	TransportMock TransportType = "mock"
)

// TransportCapability represents specific capabilities or behaviors of a transport
type TransportCapability string

const (
	// CapabilityNoEcho indicates transmitted bytes are never looped back to
	// the receiver, so the echo phase of a transaction must be skipped.
	CapabilityNoEcho TransportCapability = "no_echo"

	// CapabilityLineControl indicates the transport can drive RTS and DTR
	CapabilityLineControl TransportCapability = "line_control"
)

// TransportCapabilityChecker defines an interface for querying transport capabilities
type TransportCapabilityChecker interface {
	// HasCapability returns true if the transport has the specified capability
	HasCapability(capability TransportCapability) bool
}

// LineController is implemented by transports that can drive the modem
// control lines, which some interfaces use for PTT or CW keying.
type LineController interface {
	SetRTS(on bool) error
	SetDTR(on bool) error
}

// HasCapability reports whether t advertises capability
func HasCapability(t Transport, capability TransportCapability) bool {
	if checker, ok := t.(TransportCapabilityChecker); ok {
		return checker.HasCapability(capability)
	}
	return false
}
