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

// Package ptt keys a transmitter by CAT command, by a serial modem control
// line or by a GPIO pin.
package ptt

import (
	"context"
	"fmt"
	"strings"

	civ "github.com/ZaparooProject/go-civ"
)

// Keyer switches a transmitter between receive and transmit
type Keyer interface {
	SetPTT(ctx context.Context, on bool) error
	GetPTT(ctx context.Context) (bool, error)
	Close() error
}

// Method names how PTT is keyed
type Method string

const (
	MethodNone Method = "none"
	MethodCAT  Method = "cat"
	MethodRTS  Method = "rts"
	MethodDTR  Method = "dtr"
	MethodGPIO Method = "gpio"
)

// ParseMethod parses a method name, ignoring case. An empty string means
// MethodNone.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return MethodNone, nil
	case MethodNone, MethodCAT, MethodRTS, MethodDTR, MethodGPIO:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown PTT method %q", civ.ErrInvalidParameter, s)
	}
}

// NoneKeyer keys nothing, for receive-only setups. GetPTT always
// reports receive.
type NoneKeyer struct{}

// SetPTT implements Keyer
func (NoneKeyer) SetPTT(_ context.Context, on bool) error {
	if on {
		return fmt.Errorf("%w: no PTT method configured", civ.ErrNotSupported)
	}
	return nil
}

// GetPTT implements Keyer
func (NoneKeyer) GetPTT(context.Context) (bool, error) { return false, nil }

// Close implements Keyer
func (NoneKeyer) Close() error { return nil }
