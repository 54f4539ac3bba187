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

import "github.com/ZaparooProject/go-civ/internal/frame"

// Bus addresses and markers re-exported for callers building raw frames
const (
	ControllerAddress           = frame.Controller
	ControllerAddressFullDuplex = frame.ControllerFullDuplex
	BroadcastAddress            = frame.Broadcast
	NoSubCmd                    = frame.NoSubCmd
	DefaultMaxFrameLength       = frame.MaxFrameLength
	ACK                         = frame.ACK
	NAK                         = frame.NAK
)

// CI-V command codes
const (
	CmdSendFreq  = 0x00 // Transceive frequency push
	CmdSendMode  = 0x01 // Transceive mode push
	CmdReadFreq  = 0x03
	CmdReadMode  = 0x04
	CmdSetFreq   = 0x05
	CmdSetMode   = 0x06
	CmdSetVFO    = 0x07
	CmdSetMem    = 0x08
	CmdCtlSplit  = 0x0F
	CmdSetTS     = 0x10
	CmdCtlAtt    = 0x11
	CmdCtlAnt    = 0x12
	CmdCtlLevel  = 0x14
	CmdReadMeter = 0x15
	CmdCtlFunc   = 0x16
	CmdSetPower  = 0x18
	CmdReadTrxID = 0x19
	CmdCtlMem    = 0x1A
	CmdCtlPTT    = 0x1C
	CmdCtlScope  = 0x27
)

// Sub-commands for CmdSetVFO
const (
	SubVFOA = 0x00
	SubVFOB = 0x01
	SubMain = 0xD0
	SubSub  = 0xD1
)

// Sub-commands for CmdCtlSplit
const (
	SubSplitOff = 0x00
	SubSplitOn  = 0x01
)

// Sub-commands for CmdSetPower
const (
	SubPowerOff = 0x00
	SubPowerOn  = 0x01
)

// Sub-commands for CmdReadTrxID, CmdCtlPTT and CmdCtlScope
const (
	SubReadTrxID = 0x00
	SubPTT       = 0x00
	SubScopeData = 0x00
)

// Sub-commands for CmdCtlMem
const (
	SubMemFilterWidth = 0x03
	SubMemDataMode    = 0x06
)

// Level sub-commands for CmdCtlLevel
const (
	SubLevelAF       = 0x01
	SubLevelRF       = 0x02
	SubLevelSQL      = 0x03
	SubLevelNR       = 0x06
	SubLevelCWPitch  = 0x09
	SubLevelRFPower  = 0x0A
	SubLevelMicGain  = 0x0B
	SubLevelKeySpeed = 0x0C
)

// Meter sub-commands for CmdReadMeter
const (
	SubMeterSquelch = 0x01
	SubMeterS       = 0x02
	SubMeterRF      = 0x11
	SubMeterSWR     = 0x12
	SubMeterALC     = 0x13
	SubMeterComp    = 0x14
	SubMeterVd      = 0x15
	SubMeterId      = 0x16
)

// Function sub-commands for CmdCtlFunc
const (
	SubFuncNB   = 0x22
	SubFuncNR   = 0x40
	SubFuncANF  = 0x41
	SubFuncTone = 0x42
	SubFuncTSQL = 0x43
	SubFuncComp = 0x44
	SubFuncMon  = 0x45
	SubFuncVOX  = 0x46
)
