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
	"sync"

	civ "github.com/ZaparooProject/go-civ"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// GPIOKeyer keys PTT with a GPIO output, high for transmit unless Invert
// is set
type GPIOKeyer struct {
	pin    gpio.PinIO
	invert bool
	mu     sync.Mutex
}

// NewGPIOKeyer drives pin, starting in receive
func NewGPIOKeyer(pin gpio.PinIO, invert bool) (*GPIOKeyer, error) {
	if pin == nil {
		return nil, fmt.Errorf("%w: no GPIO pin", civ.ErrInvalidParameter)
	}
	k := &GPIOKeyer{pin: pin, invert: invert}
	if err := k.drive(false); err != nil {
		return nil, err
	}
	return k, nil
}

// OpenGPIOKeyer looks up a pin by name, such as "GPIO17", on the host's
// GPIO driver
func OpenGPIOKeyer(name string, invert bool) (*GPIOKeyer, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("%w: GPIO pin %q not found", civ.ErrInvalidParameter, name)
	}
	return NewGPIOKeyer(pin, invert)
}

func (k *GPIOKeyer) drive(on bool) error {
	level := gpio.Level(on != k.invert)
	if err := k.pin.Out(level); err != nil {
		return fmt.Errorf("failed to drive %s: %w", k.pin.Name(), err)
	}
	return nil
}

// SetPTT implements Keyer
func (k *GPIOKeyer) SetPTT(ctx context.Context, on bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.drive(on)
}

// GetPTT implements Keyer by reading the pin back
func (k *GPIOKeyer) GetPTT(context.Context) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return bool(k.pin.Read()) != k.invert, nil
}

// Close returns the transmitter to receive
func (k *GPIOKeyer) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.drive(false)
}
