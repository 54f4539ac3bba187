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

package testing

import (
	"sync"

	"github.com/ZaparooProject/go-civ/internal/frame"
)

// VirtualRig is a simulated transceiver answering CI-V commands from its
// own state. Install it with MockTransport.SetResponseFunc(rig.Handle).
type VirtualRig struct {
	levels   map[byte]int
	meters   map[byte]int
	funcs    map[byte]bool
	Freq     uint64
	Address  byte
	ModeCode byte
	Filter   byte
	mu       sync.Mutex
	PTT      bool
	Split    bool
	DataMode bool
	PowerOn  bool
	// NoFilterByte makes mode replies omit the filter byte
	NoFilterByte bool
}

// NewVirtualRig creates a powered-on rig on 14.074 MHz USB
func NewVirtualRig() *VirtualRig {
	return &VirtualRig{
		levels:   make(map[byte]int),
		meters:   map[byte]int{0x02: 120, 0x12: 48},
		funcs:    make(map[byte]bool),
		Freq:     14074000,
		Address:  RigAddress,
		ModeCode: 0x01,
		Filter:   0x01,
		PowerOn:  true,
	}
}

// SetFreq changes the dial frequency as if turned by hand
func (v *VirtualRig) SetFreq(hz uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Freq = hz
}

// GetFreq returns the dial frequency
func (v *VirtualRig) GetFreq() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.Freq
}

// SetPTTState keys or unkeys the rig as if from the front panel
func (v *VirtualRig) SetPTTState(on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.PTT = on
}

// GetPTTState reports whether the rig is keyed
func (v *VirtualRig) GetPTTState() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.PTT
}

// SetPower switches the rig on or off as if from the front panel
func (v *VirtualRig) SetPower(on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.PowerOn = on
}

// SetMode changes the mode code and filter as if from the front panel
func (v *VirtualRig) SetMode(code, filter byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ModeCode = code
	v.Filter = filter
}

// SetMeter sets the raw value a meter reads
func (v *VirtualRig) SetMeter(sub byte, raw int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.meters[sub] = raw
}

// Level returns the raw value of a level
func (v *VirtualRig) Level(sub byte) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.levels[sub]
}

// Handle answers one frame written by the controller with the raw bytes
// the rig would put on the bus
func (v *VirtualRig) Handle(sent []byte) []byte {
	v.mu.Lock()
	defer v.mu.Unlock()

	f := frame.Frame(frame.CollapsePreamble(sent))
	if !f.Valid() || f.To() != v.Address {
		return nil
	}
	reply := func(payload ...byte) []byte {
		return BuildFrame(f.From(), v.Address, payload...)
	}
	ack := reply(frame.ACK)
	nak := reply(frame.NAK)

	data := f.Data()
	// Switched off, a rig only hears the power-on command
	if !v.PowerOn && (f.Command() != CmdSetPower || len(data) == 0) {
		return nil
	}

	switch f.Command() {
	case CmdReadFreq:
		return reply(append([]byte{CmdReadFreq}, FreqBCD(v.Freq, 5)...)...)

	case CmdSetFreq:
		if len(data) != 5 {
			return nak
		}
		v.Freq = freqFromBCD(data)
		return ack

	case CmdReadMode:
		if v.NoFilterByte {
			return reply(CmdReadMode, v.ModeCode)
		}
		return reply(CmdReadMode, v.ModeCode, v.Filter)

	case CmdSetMode:
		if len(data) == 0 {
			return nak
		}
		v.ModeCode = data[0]
		if len(data) > 1 {
			v.Filter = data[1]
		}
		return ack

	case CmdCtlMem:
		if len(data) == 0 || data[0] != 0x06 {
			return nak
		}
		if len(data) == 1 {
			return reply(CmdCtlMem, 0x06, boolByte(v.DataMode), v.Filter)
		}
		v.DataMode = data[1] != 0x00
		return ack

	case CmdCtlPTT:
		if len(data) == 0 || data[0] != 0x00 {
			return nak
		}
		if len(data) == 1 {
			return reply(CmdCtlPTT, 0x00, boolByte(v.PTT))
		}
		v.PTT = data[1] != 0x00
		return ack

	case 0x0F:
		if len(data) == 0 {
			return reply(0x0F, boolByte(v.Split))
		}
		v.Split = data[0] == 0x01
		return ack

	case 0x07:
		return ack

	case CmdSetPower:
		if len(data) == 0 {
			return reply(CmdSetPower, boolByte(v.PowerOn))
		}
		v.PowerOn = data[0] == 0x01
		return ack

	case CmdReadTrxID:
		return reply(CmdReadTrxID, 0x00, v.Address)

	case CmdCtlLevel:
		if len(data) == 0 {
			return nak
		}
		if len(data) == 1 {
			return reply(append([]byte{CmdCtlLevel, data[0]}, LevelBCD(v.levels[data[0]])...)...)
		}
		if len(data) != 3 {
			return nak
		}
		v.levels[data[0]] = levelFromBCD(data[1:])
		return ack

	case CmdReadMeter:
		if len(data) != 1 {
			return nak
		}
		return reply(append([]byte{CmdReadMeter, data[0]}, LevelBCD(v.meters[data[0]])...)...)

	case 0x16:
		if len(data) == 0 {
			return nak
		}
		if len(data) == 1 {
			return reply(0x16, data[0], boolByte(v.funcs[data[0]]))
		}
		v.funcs[data[0]] = data[1] != 0x00
		return ack
	}

	return nak
}

func boolByte(b bool) byte {
	if b {
		return 0x01
	}
	return 0x00
}

func freqFromBCD(b []byte) uint64 {
	var hz uint64
	for i := len(b) - 1; i >= 0; i-- {
		hz = hz*100 + uint64(b[i]>>4)*10 + uint64(b[i]&0x0F)
	}
	return hz
}

func levelFromBCD(b []byte) int {
	return int(b[0]>>4)*1000 + int(b[0]&0x0F)*100 + int(b[1]>>4)*10 + int(b[1]&0x0F)
}
