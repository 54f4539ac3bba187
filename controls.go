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

import "fmt"

// Level is an adjustable rig setting read and written through CmdCtlLevel
type Level int

// Levels
const (
	LevelAF Level = iota + 1
	LevelRF
	LevelSquelch
	LevelNR
	LevelCWPitch
	LevelRFPower
	LevelMicGain
	LevelKeySpeed
)

var levelInfo = map[Level]struct {
	name   string
	subcmd int
}{
	LevelAF:       {"AF", SubLevelAF},
	LevelRF:       {"RF", SubLevelRF},
	LevelSquelch:  {"SQL", SubLevelSQL},
	LevelNR:       {"NR", SubLevelNR},
	LevelCWPitch:  {"CWPITCH", SubLevelCWPitch},
	LevelRFPower:  {"RFPOWER", SubLevelRFPower},
	LevelMicGain:  {"MICGAIN", SubLevelMicGain},
	LevelKeySpeed: {"KEYSPD", SubLevelKeySpeed},
}

func (l Level) String() string {
	if info, ok := levelInfo[l]; ok {
		return info.name
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

func (l Level) subcmd() (int, error) {
	info, ok := levelInfo[l]
	if !ok {
		return 0, fmt.Errorf("%w: unknown level %d", ErrInvalidParameter, int(l))
	}
	return info.subcmd, nil
}

// Meter is a read-only measurement returned by CmdReadMeter
type Meter int

// Meters
const (
	MeterSquelch Meter = iota + 1
	MeterS
	MeterRFPower
	MeterSWR
	MeterALC
	MeterComp
	MeterVd
	MeterId
)

var meterInfo = map[Meter]struct {
	name   string
	subcmd int
}{
	MeterSquelch: {"SQL", SubMeterSquelch},
	MeterS:       {"STRENGTH", SubMeterS},
	MeterRFPower: {"RFPOWER", SubMeterRF},
	MeterSWR:     {"SWR", SubMeterSWR},
	MeterALC:     {"ALC", SubMeterALC},
	MeterComp:    {"COMP", SubMeterComp},
	MeterVd:      {"VD", SubMeterVd},
	MeterId:      {"ID", SubMeterId},
}

func (m Meter) String() string {
	if info, ok := meterInfo[m]; ok {
		return info.name
	}
	return fmt.Sprintf("Meter(%d)", int(m))
}

func (m Meter) subcmd() (int, error) {
	info, ok := meterInfo[m]
	if !ok {
		return 0, fmt.Errorf("%w: unknown meter %d", ErrInvalidParameter, int(m))
	}
	return info.subcmd, nil
}

// Func is an on/off rig function switched through CmdCtlFunc
type Func int

// Functions
const (
	FuncNB Func = iota + 1
	FuncNR
	FuncANF
	FuncTone
	FuncTSQL
	FuncComp
	FuncMon
	FuncVOX
)

var funcInfo = map[Func]struct {
	name   string
	subcmd int
}{
	FuncNB:   {"NB", SubFuncNB},
	FuncNR:   {"NR", SubFuncNR},
	FuncANF:  {"ANF", SubFuncANF},
	FuncTone: {"TONE", SubFuncTone},
	FuncTSQL: {"TSQL", SubFuncTSQL},
	FuncComp: {"COMP", SubFuncComp},
	FuncMon:  {"MON", SubFuncMon},
	FuncVOX:  {"VOX", SubFuncVOX},
}

func (f Func) String() string {
	if info, ok := funcInfo[f]; ok {
		return info.name
	}
	return fmt.Sprintf("Func(%d)", int(f))
}

func (f Func) subcmd() (int, error) {
	info, ok := funcInfo[f]
	if !ok {
		return 0, fmt.Errorf("%w: unknown function %d", ErrInvalidParameter, int(f))
	}
	return info.subcmd, nil
}

// VFO selects which receiver or VFO a command applies to
type VFO int

// VFOs
const (
	VFOCurrent VFO = iota
	VFOA
	VFOB
	VFOMain
	VFOSub
)

func (v VFO) String() string {
	switch v {
	case VFOCurrent:
		return "currVFO"
	case VFOA:
		return "VFOA"
	case VFOB:
		return "VFOB"
	case VFOMain:
		return "Main"
	case VFOSub:
		return "Sub"
	default:
		return fmt.Sprintf("VFO(%d)", int(v))
	}
}

func (v VFO) subcmd() (int, error) {
	switch v {
	case VFOA:
		return SubVFOA, nil
	case VFOB:
		return SubVFOB, nil
	case VFOMain:
		return SubMain, nil
	case VFOSub:
		return SubSub, nil
	default:
		return 0, fmt.Errorf("%w: unsupported VFO %s", ErrInvalidParameter, v)
	}
}
