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

package uart

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	civ "github.com/ZaparooProject/go-civ"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate suits most current Icom USB interfaces
	DefaultBaudRate = 19200
	// DefaultTimeout is the per-read timeout
	DefaultTimeout = 500 * time.Millisecond
)

// port is the subset of serial.Port the transport drives
type port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	ResetInputBuffer() error
	SetReadTimeout(t time.Duration) error
	SetRTS(rts bool) error
	SetDTR(dtr bool) error
	Close() error
}

// Settings describes the serial line
type Settings struct {
	// BaudRate defaults to DefaultBaudRate
	BaudRate int
	// DataBits defaults to 8
	DataBits int
	Parity   serial.Parity
	// StopBits defaults to one stop bit
	StopBits serial.StopBits
	// Timeout is the read timeout, DefaultTimeout when zero
	Timeout time.Duration
	// RTS and DTR set the initial state of the modem control lines.
	// Interfaces powered from, or keyed by, these lines need them set.
	RTS bool
	DTR bool
	// NoEcho marks an interface that does not loop back transmitted bytes
	NoEcho bool
}

// DefaultSettings returns 19200 8N1 with the default timeout
func DefaultSettings() Settings {
	return Settings{
		BaudRate: DefaultBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
		Timeout:  DefaultTimeout,
	}
}

func (s *Settings) applyDefaults() {
	if s.BaudRate <= 0 {
		s.BaudRate = DefaultBaudRate
	}
	if s.DataBits == 0 {
		s.DataBits = 8
	}
	if s.Timeout <= 0 {
		s.Timeout = DefaultTimeout
	}
}

// Transport implements civ.Transport over a serial port
type Transport struct {
	port     port
	portName string
	settings Settings
	mu       sync.Mutex
}

// New opens portName with the given settings
func New(portName string, settings Settings) (*Transport, error) {
	settings.applyDefaults()

	mode := &serial.Mode{
		BaudRate: settings.BaudRate,
		DataBits: settings.DataBits,
		Parity:   settings.Parity,
		StopBits: settings.StopBits,
		InitialStatusBits: &serial.ModemOutputBits{
			RTS: settings.RTS,
			DTR: settings.DTR,
		},
	}

	p, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", portName, err)
	}

	t, err := newWithPort(p, portName, settings)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	return t, nil
}

func newWithPort(p port, portName string, settings Settings) (*Transport, error) {
	settings.applyDefaults()
	if err := p.SetReadTimeout(settings.Timeout); err != nil {
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", portName, err)
	}
	return &Transport{
		port:     p,
		portName: portName,
		settings: settings,
	}, nil
}

// Write implements civ.Transport
func (t *Transport) Write(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port == nil {
		return civ.ErrTransportClosed
	}

	for len(data) > 0 {
		n, err := t.port.Write(data)
		if err != nil {
			return civ.NewTransportWriteError(t.portName, err)
		}
		if n == 0 {
			return civ.NewTransportWriteError(t.portName, errors.New("short write"))
		}
		data = data[n:]
	}
	return nil
}

// ReadString implements civ.Transport. Bytes are read one at a time so a
// read never consumes past a terminator; each byte waits at most the read
// timeout.
func (t *Transport) ReadString(buf, terminators []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port == nil {
		return 0, civ.ErrTransportClosed
	}

	total := 0
	for total < len(buf) {
		n, err := t.port.Read(buf[total : total+1])
		if err != nil {
			return total, civ.NewTransportReadError(t.portName, err)
		}
		if n == 0 {
			if total == 0 {
				return 0, civ.NewTimeoutError("read", t.portName)
			}
			return total, nil
		}
		total++
		if bytes.IndexByte(terminators, buf[total-1]) >= 0 {
			break
		}
	}
	return total, nil
}

// Flush implements civ.Transport by discarding the input buffer
func (t *Transport) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port == nil {
		return civ.ErrTransportClosed
	}
	if err := t.port.ResetInputBuffer(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", t.portName, err)
	}
	return nil
}

// Close implements civ.Transport
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	if err != nil {
		return fmt.Errorf("failed to close %s: %w", t.portName, err)
	}
	return nil
}

// SetTimeout implements civ.Transport
func (t *Transport) SetTimeout(timeout time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", civ.ErrInvalidParameter)
	}
	t.settings.Timeout = timeout
	if t.port == nil {
		return nil
	}
	return t.port.SetReadTimeout(timeout)
}

// IsConnected implements civ.Transport
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port != nil
}

// Type implements civ.Transport
func (*Transport) Type() civ.TransportType {
	return civ.TransportUART
}

// PortName returns the device path the transport was opened on
func (t *Transport) PortName() string {
	return t.portName
}

// Settings returns the line settings in effect
func (t *Transport) Settings() Settings {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.settings
}

// HasCapability implements civ.TransportCapabilityChecker
func (t *Transport) HasCapability(c civ.TransportCapability) bool {
	switch c {
	case civ.CapabilityLineControl:
		return true
	case civ.CapabilityNoEcho:
		return t.settings.NoEcho
	default:
		return false
	}
}

// SetRTS drives the RTS line
func (t *Transport) SetRTS(on bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port == nil {
		return civ.ErrTransportClosed
	}
	if err := t.port.SetRTS(on); err != nil {
		return fmt.Errorf("failed to set RTS on %s: %w", t.portName, err)
	}
	return nil
}

// SetDTR drives the DTR line
func (t *Transport) SetDTR(on bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port == nil {
		return civ.ErrTransportClosed
	}
	if err := t.port.SetDTR(on); err != nil {
		return fmt.Errorf("failed to set DTR on %s: %w", t.portName, err)
	}
	return nil
}

var (
	_ civ.Transport                  = (*Transport)(nil)
	_ civ.TransportCapabilityChecker = (*Transport)(nil)
	_ civ.LineController             = (*Transport)(nil)
)
