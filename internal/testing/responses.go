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

// Package testing builds the raw bus traffic a rig would produce, for use
// with civ.MockTransport in tests.
package testing

import "github.com/ZaparooProject/go-civ/internal/frame"

// Addresses used by the fixtures
const (
	RigAddress        = 0x94
	ControllerAddress = frame.Controller
)

// Command bytes for reference
const (
	CmdSendFreq  = 0x00
	CmdSendMode  = 0x01
	CmdReadFreq  = 0x03
	CmdReadMode  = 0x04
	CmdSetFreq   = 0x05
	CmdSetMode   = 0x06
	CmdCtlLevel  = 0x14
	CmdReadMeter = 0x15
	CmdSetPower  = 0x18
	CmdReadTrxID = 0x19
	CmdCtlMem    = 0x1A
	CmdCtlPTT    = 0x1C
	CmdCtlScope  = 0x27
)

// Collision is what a receiver sees when two stations transmit at once
var Collision = []byte{frame.Collision}

// BuildFrame wraps payload (command byte then data) in a complete frame
func BuildFrame(to, from byte, payload ...byte) []byte {
	out := []byte{frame.Preamble, frame.Preamble, to, from}
	out = append(out, payload...)
	return append(out, frame.EOM)
}

// BuildReply creates a frame from the rig to the controller
func BuildReply(payload ...byte) []byte {
	return BuildFrame(ControllerAddress, RigAddress, payload...)
}

// BuildAck creates an ACK from the rig
func BuildAck() []byte {
	return BuildReply(frame.ACK)
}

// BuildNak creates a NAK from the rig
func BuildNak() []byte {
	return BuildReply(frame.NAK)
}

// BuildCommand creates the frame the controller sends for payload
func BuildCommand(payload ...byte) []byte {
	return BuildFrame(RigAddress, ControllerAddress, payload...)
}

// BuildFreqReply creates the answer to a frequency read
func BuildFreqReply(hz uint64) []byte {
	return BuildReply(append([]byte{CmdReadFreq}, FreqBCD(hz, 5)...)...)
}

// BuildTransceiveFreq creates the broadcast a rig sends when its dial moves
func BuildTransceiveFreq(hz uint64) []byte {
	return BuildFrame(frame.Broadcast, RigAddress, append([]byte{CmdSendFreq}, FreqBCD(hz, 5)...)...)
}

// BuildTransceiveMode creates the broadcast a rig sends on a mode change
func BuildTransceiveMode(code, filter byte) []byte {
	return BuildFrame(frame.Broadcast, RigAddress, CmdSendMode, code, filter)
}

// BuildScopeFrame creates a spectrum scope data push addressed to the controller
func BuildScopeFrame(data ...byte) []byte {
	return BuildReply(append([]byte{CmdCtlScope, 0x00}, data...)...)
}

// FreqBCD encodes hz as n bytes of little-endian BCD
func FreqBCD(hz uint64, n int) []byte {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		lo := byte(hz % 10)
		hz /= 10
		hi := byte(hz % 10)
		hz /= 10
		out[i] = hi<<4 | lo
	}
	return out
}

// LevelBCD encodes a 0-255 level as 2 bytes of big-endian BCD
func LevelBCD(v int) []byte {
	return []byte{byte(v / 100), byte((v/10)%10)<<4 | byte(v%10)}
}
