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

// Package frame provides frame construction and protocol constants for CI-V communication
package frame

// Bus addresses
const (
	Controller           = 0xE0 // Default controller address on a half-duplex bus
	ControllerFullDuplex = 0x80 // Controller address used by full-duplex (RS-232) rigs
	Broadcast            = 0x00 // Transceive broadcast address
)

// Frame markers and control bytes
const (
	Preamble  = 0xFE // Frame preamble byte, sent twice
	EOM       = 0xFD // End of message
	ACK       = 0xFB // Command accepted
	NAK       = 0xFA // Command rejected
	Collision = 0xFC // Bus collision (jammer code)
	Pad       = 0xFF // Padding / blank memory marker
)

// Frame size limits
const (
	HeaderLength   = 5   // preamble + preamble + dest + src + cmd
	MinFrameLength = 6   // Smallest valid frame: header + EOM (an ACK/NAK reply)
	MaxFrameLength = 200 // Default buffer capacity, large enough to absorb wake-up preamble bursts
	MaxSubCmdBytes = 3
)

// NoSubCmd marks a frame without a sub-command byte.
const NoSubCmd = -1

// Terminators are the bytes that end a frame on the wire.
var Terminators = []byte{EOM, Collision}
