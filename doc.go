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

/*
Package civ provides a pure Go library for controlling Icom transceivers and
receivers over the CI-V bus.

CI-V is a shared, half-duplex, single-wire bus. Every frame a controller
sends is heard back as an echo, rigs may push frequency and mode changes at
any time (transceive mode), and two controllers talking at once corrupt
each other's frames. This library wraps each command in a transaction that
consumes the echo, detects collisions, sets aside unsolicited frames and
retries when the reply does not arrive.

Features:
  - Serial (go.bug.st/serial) and serial-over-TCP transports
  - Transaction engine with echo handling, collision detection and retry
  - Transceive event decoding (frequency, mode, PTT)
  - BCD frequency and level encoding, mode and filter translation
  - Model catalog with per-model addresses, modes and meter calibration
  - Bus probing and serial port detection
  - Background status monitor and PTT keying by CAT, RTS/DTR or GPIO

Basic Usage:

	import (
	    civ "github.com/ZaparooProject/go-civ"
	    "github.com/ZaparooProject/go-civ/transport/uart"
	)

	transport, err := uart.New("/dev/ttyUSB0", uart.DefaultSettings())
	if err != nil {
	    log.Fatal(err)
	}

	model, err := civ.LookupModel("IC-7300")
	if err != nil {
	    log.Fatal(err)
	}

	rig, err := civ.Open(transport, model, civ.WithTimeout(500*time.Millisecond))
	if err != nil {
	    log.Fatal(err)
	}
	defer rig.Close()

	hz, err := rig.GetFreq(ctx)
	if err != nil {
	    log.Fatal(err)
	}
	fmt.Printf("Dial: %d Hz\n", hz)

	if err := rig.SetMode(ctx, civ.ModeCW, civ.PassbandNormal); err != nil {
	    log.Fatal(err)
	}

Raw Transactions:

Commands the Rig type does not cover go through the Device directly:

	reply, err := rig.Device().TransactionContext(ctx, civ.CmdCtlFunc, civ.SubFuncNB, nil)

USB Echo:

Many USB interfaces have CI-V USB echo back turned off in the rig menu. Use
WithEchoOff for those, otherwise every command waits for an echo that never
comes and fails with ErrBusError.

Error Handling:

	if errors.Is(err, civ.ErrTimeout) {
	    // The rig did not answer; it may be off
	}
	if errors.Is(err, civ.ErrRejected) {
	    // The rig answered NAK
	}

Thread Safety:

Device and Rig are not safe for concurrent use. The polling package's
Monitor serializes access for applications that poll and command the same
rig.
*/
package civ
