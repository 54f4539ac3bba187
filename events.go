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

	"github.com/ZaparooProject/go-civ/internal/frame"
)

const opEvent = "event"

// EventHandlers receive decoded transceive pushes. A push whose handler is
// nil is reported as ErrNotSupported.
type EventHandlers struct {
	OnFrequency func(hz uint64) error
	OnMode      func(mode Mode, width Passband) error
	OnPTT       func(on bool) error
	// OnUnknown receives pushes of any other command, raw
	OnUnknown func(f []byte) error
}

// DecodeEvent decodes one complete frame pushed by the rig and calls the
// matching handler
func DecodeEvent(model *Model, f []byte, h EventHandlers) error {
	fr := frame.Frame(f)
	if !fr.Valid() {
		return fmt.Errorf("%w: malformed event frame % X", ErrProtocol, f)
	}
	if to := fr.To(); to != frame.Broadcast && to != frame.Controller && to != frame.ControllerFullDuplex {
		debugf("event addressed to 0x%02X", to)
	}

	data := fr.Data()
	switch fr.Command() {
	case CmdSendFreq:
		if h.OnFrequency == nil {
			return fmt.Errorf("%w: frequency event handler", ErrNotSupported)
		}
		if len(data) < 4 || !ValidBCD(data) {
			return fmt.Errorf("%w: frequency event % X", ErrProtocol, f)
		}
		return h.OnFrequency(FromBCD(data, len(data)*2))

	case CmdSendMode:
		if h.OnMode == nil {
			return fmt.Errorf("%w: mode event handler", ErrNotSupported)
		}
		if len(data) < 1 {
			return fmt.Errorf("%w: mode event % X", ErrProtocol, f)
		}
		filter := FilterNone
		if len(data) > 1 {
			filter = int(data[1])
		}
		mode, width, err := IcomToMode(model, data[0], filter)
		if err != nil {
			return err
		}
		return h.OnMode(mode, width)

	case CmdCtlPTT:
		if len(data) == 2 && data[0] == SubPTT {
			if h.OnPTT == nil {
				return fmt.Errorf("%w: PTT event handler", ErrNotSupported)
			}
			return h.OnPTT(data[1] != 0x00)
		}
	}

	if h.OnUnknown == nil {
		debugf("unsupported transceive command 0x%02X", fr.Command())
		return fmt.Errorf("%w: transceive command 0x%02X", ErrNotSupported, fr.Command())
	}
	return h.OnUnknown(append([]byte(nil), f...))
}

// AsyncHandler adapts h for use as a Device's async handler, so pushes
// arriving during transactions are decoded too
func (h EventHandlers) AsyncHandler(model *Model) AsyncHandler {
	return func(f []byte) error {
		return DecodeEvent(model, f, h)
	}
}

// DecodeEvent reads one frame from an idle bus and dispatches it to h.
// It returns ErrTransportTimeout when nothing arrived, a bus-busy error on
// collision and a protocol error for a truncated frame.
func (d *Device) DecodeEvent(ctx context.Context, model *Model, h EventHandlers) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.active.Store(true)
	defer d.active.Store(false)

	n, err := ReadFrame(d.transport, d.readBuf[:d.config.MaxFrameLength], d.config.EmptyReadRetries)
	if err != nil {
		if errors.Is(err, ErrTransportTimeout) {
			return err
		}
		return ioError("read", err)
	}
	if n == 0 {
		return NewTimeoutError(opEvent, "")
	}

	switch d.readBuf[n-1] {
	case frame.Collision:
		return NewBusBusyError(opEvent)
	case frame.EOM:
	default:
		return NewProtocolError(opEvent, fmt.Sprintf("truncated frame % X", d.readBuf[:n]))
	}

	n, err = frame.FixPreamble(d.readBuf, n)
	if err != nil {
		return NewProtocolError(opEvent, err.Error())
	}
	f := d.readBuf[:n]
	debugf("event % X", f)

	if from := frame.Frame(f).From(); from != d.config.CIVAddress {
		warnf("event from 0x%02X, rig is 0x%02X", from, d.config.CIVAddress)
	}
	return DecodeEvent(model, append([]byte(nil), f...), h)
}
