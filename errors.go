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
	"errors"
	"fmt"

	"github.com/ZaparooProject/go-civ/internal/frame"
)

// Transport errors
var (
	ErrTransportRead    = errors.New("transport read failed")
	ErrTransportWrite   = errors.New("transport write failed")
	ErrTransportTimeout = errors.New("transport read timeout")
	ErrTransportClosed  = errors.New("transport closed")
	ErrNotConnected     = errors.New("transport not connected")
)

// Bus and protocol errors
var (
	// ErrBusBusy means another controller drove the bus at the same time (collision)
	ErrBusBusy = errors.New("CI-V bus busy")
	// ErrBusError means the bus did not echo a frame when an echo was expected
	ErrBusError = errors.New("CI-V bus error")
	// ErrProtocol means a frame was malformed or did not match what was sent
	ErrProtocol = errors.New("CI-V protocol error")
	// ErrRejected means the rig answered with NAK
	ErrRejected = errors.New("command rejected by rig")
	// ErrTimeout means no reply arrived before the transaction deadline
	ErrTimeout = errors.New("transaction timeout")
)

// Parameter and capability errors
var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrFrameTooLarge    = frame.ErrTooLarge
	ErrUnknownMode      = errors.New("unknown mode")
	ErrNotSupported     = errors.New("not supported by this rig")
	ErrUnexpectedReply  = errors.New("unexpected reply")
)

// ErrorType classifies errors for retry decisions
type ErrorType int

const (
	// ErrorTypePermanent errors will not go away on retry
	ErrorTypePermanent ErrorType = iota
	// ErrorTypeTransient errors may clear up on the next attempt
	ErrorTypeTransient
	// ErrorTypeTimeout errors are transient errors caused by a missing reply
	ErrorTypeTimeout
	// ErrorTypeRejected errors are definitive negative acknowledgements
	ErrorTypeRejected
)

// String returns the error type name
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypeRejected:
		return "rejected"
	case ErrorTypePermanent:
		return "permanent"
	default:
		return fmt.Sprintf("ErrorType(%d)", int(t))
	}
}

// TransportError carries the operation, port and classification of a failure
type TransportError struct {
	Err       error
	Op        string
	Port      string
	Type      ErrorType
	Retryable bool
}

// Error implements the error interface
func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s on %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a transient bus condition. Bus
// collisions, missing echoes, garbled frames and timeouts are; NAKs and
// I/O failures are not. Transactions retry I/O failures regardless and stop
// only on a NAK.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}

	switch {
	case errors.Is(err, ErrRejected):
		return false
	case errors.Is(err, ErrBusBusy),
		errors.Is(err, ErrBusError),
		errors.Is(err, ErrProtocol),
		errors.Is(err, ErrTimeout),
		errors.Is(err, ErrTransportTimeout):
		return true
	default:
		return false
	}
}

// IsRejected reports whether err is a NAK from the rig
func IsRejected(err error) bool {
	return errors.Is(err, ErrRejected)
}

// GetErrorType returns the classification for err
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Type
	}

	switch {
	case errors.Is(err, ErrRejected):
		return ErrorTypeRejected
	case errors.Is(err, ErrTimeout), errors.Is(err, ErrTransportTimeout):
		return ErrorTypeTimeout
	case errors.Is(err, ErrBusBusy), errors.Is(err, ErrBusError), errors.Is(err, ErrProtocol):
		return ErrorTypeTransient
	default:
		return ErrorTypePermanent
	}
}

// NewTransportError creates a new transport error
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       err,
		Type:      errType,
		Retryable: errType == ErrorTypeTransient || errType == ErrorTypeTimeout,
	}
}

// NewTimeoutError creates a timeout error for a port read
func NewTimeoutError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportTimeout, ErrorTypeTimeout)
}

// NewTransportReadError wraps a hard read failure
func NewTransportReadError(port string, err error) *TransportError {
	return NewTransportError("read", port, fmt.Errorf("%w: %w", ErrTransportRead, err), ErrorTypePermanent)
}

// NewTransportWriteError wraps a hard write failure
func NewTransportWriteError(port string, err error) *TransportError {
	return NewTransportError("write", port, fmt.Errorf("%w: %w", ErrTransportWrite, err), ErrorTypePermanent)
}

// NewBusBusyError reports a collision seen during op
func NewBusBusyError(op string) *TransportError {
	return NewTransportError(op, "", ErrBusBusy, ErrorTypeTransient)
}

// NewBusError reports a missing or truncated echo
func NewBusError(op, detail string) *TransportError {
	return NewTransportError(op, "", fmt.Errorf("%w: %s", ErrBusError, detail), ErrorTypeTransient)
}

// NewProtocolError reports a malformed or mismatched frame
func NewProtocolError(op, detail string) *TransportError {
	return NewTransportError(op, "", fmt.Errorf("%w: %s", ErrProtocol, detail), ErrorTypeTransient)
}

// NewRejectedError reports a NAK for cmd
func NewRejectedError(op string, cmd byte) *TransportError {
	return NewTransportError(op, "", fmt.Errorf("%w: command 0x%02X", ErrRejected, cmd), ErrorTypeRejected)
}

// NewDeadlineError reports that the reply deadline expired
func NewDeadlineError(op, detail string) *TransportError {
	return NewTransportError(op, "", fmt.Errorf("%w: %s", ErrTimeout, detail), ErrorTypeTimeout)
}
