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

package ptt

import (
	"context"
	"fmt"
	"io"
	"sync"

	civ "github.com/ZaparooProject/go-civ"
	"go.bug.st/serial"
)

// SerialLineKeyer keys PTT with the RTS or DTR line of a serial port.
// Interfaces typically switch a transistor on the line, so transmit is the
// asserted state unless Invert is set.
type SerialLineKeyer struct {
	lines  civ.LineController
	closer io.Closer
	method Method
	invert bool
	on     bool
	mu     sync.Mutex
}

// NewSerialLineKeyer keys PTT on a line of an already open port, such as
// the CI-V port itself
func NewSerialLineKeyer(lines civ.LineController, method Method, invert bool) (*SerialLineKeyer, error) {
	if lines == nil {
		return nil, fmt.Errorf("%w: no serial port", civ.ErrInvalidParameter)
	}
	if method != MethodRTS && method != MethodDTR {
		return nil, fmt.Errorf("%w: serial PTT needs rts or dtr, got %q", civ.ErrInvalidParameter, method)
	}

	k := &SerialLineKeyer{lines: lines, method: method, invert: invert}
	if err := k.drive(false); err != nil {
		return nil, err
	}
	return k, nil
}

// OpenSerialLineKeyer opens a port used only for keying. Both lines start
// deasserted so opening the port does not key the transmitter.
func OpenSerialLineKeyer(path string, method Method, invert bool) (*SerialLineKeyer, error) {
	port, err := serial.Open(path, &serial.Mode{
		BaudRate:          9600,
		InitialStatusBits: &serial.ModemOutputBits{RTS: invert, DTR: invert},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open PTT port %s: %w", path, err)
	}

	k, err := NewSerialLineKeyer(port, method, invert)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	k.closer = port
	return k, nil
}

func (k *SerialLineKeyer) drive(on bool) error {
	level := on != k.invert
	var err error
	if k.method == MethodRTS {
		err = k.lines.SetRTS(level)
	} else {
		err = k.lines.SetDTR(level)
	}
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", k.method, err)
	}
	k.on = on
	return nil
}

// SetPTT implements Keyer
func (k *SerialLineKeyer) SetPTT(ctx context.Context, on bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.drive(on)
}

// GetPTT implements Keyer. Modem control outputs cannot be read back, so
// this is the last state set.
func (k *SerialLineKeyer) GetPTT(context.Context) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.on, nil
}

// Close unkeys and closes the port if the keyer opened it
func (k *SerialLineKeyer) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	err := k.drive(false)
	if k.closer != nil {
		if cerr := k.closer.Close(); cerr != nil && err == nil {
			err = cerr
		}
		k.closer = nil
	}
	return err
}
