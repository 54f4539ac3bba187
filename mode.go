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
	"fmt"
	"strings"
)

// Mode is a device-neutral operating mode
type Mode string

// Operating modes
const (
	ModeNone   Mode = ""
	ModeAM     Mode = "AM"
	ModeAMN    Mode = "AMN"
	ModeAMS    Mode = "AMS"
	ModeCW     Mode = "CW"
	ModeCWR    Mode = "CWR"
	ModeUSB    Mode = "USB"
	ModeLSB    Mode = "LSB"
	ModeRTTY   Mode = "RTTY"
	ModeRTTYR  Mode = "RTTYR"
	ModeFM     Mode = "FM"
	ModeFMN    Mode = "FMN"
	ModeWFM    Mode = "WFM"
	ModePSK    Mode = "PSK"
	ModePSKR   Mode = "PSKR"
	ModeDSTAR  Mode = "DSTAR"
	ModeP25    Mode = "P25"
	ModeDPMR   Mode = "DPMR"
	ModeDCR    Mode = "DCR"
	ModePKTUSB Mode = "PKTUSB"
	ModePKTLSB Mode = "PKTLSB"
	ModePKTFM  Mode = "PKTFM"
	ModePKTAM  Mode = "PKTAM"
)

// Icom mode codes
const (
	icomLSB      = 0x00
	icomUSB      = 0x01
	icomAM       = 0x02
	icomCW       = 0x03
	icomRTTY     = 0x04
	icomFM       = 0x05
	icomWFM      = 0x06
	icomCWR      = 0x07
	icomRTTYR    = 0x08
	icomAMS      = 0x11
	icomPSK      = 0x12
	icomPSKR     = 0x13
	icomP25      = 0x16
	icomDSTAR    = 0x17
	icomDPMR     = 0x18
	icomDCR      = 0x21
	icomR7000SSB = 0x05
	icomBlank    = 0xFF
)

// Filter preset codes
const (
	FilterNone   = -1
	FilterWide   = 0x01
	FilterMedium = 0x02
	FilterNarrow = 0x03
)

// Passband is a filter width in Hz
type Passband int

const (
	// PassbandNormal selects the rig's default filter for the mode
	PassbandNormal Passband = 0
	// PassbandNoChange keeps the filter currently selected on the rig
	PassbandNoChange Passband = -1
)

// Passbands holds the narrow, normal and wide widths a rig offers for a mode.
// Zero means the rig has no such filter.
type Passbands struct {
	Narrow Passband
	Normal Passband
	Wide   Passband
}

var modeCodes = map[Mode]byte{
	ModeAM:     icomAM,
	ModePKTAM:  icomAM,
	ModeAMN:    icomAM,
	ModeAMS:    icomAMS,
	ModeCW:     icomCW,
	ModeCWR:    icomCWR,
	ModeUSB:    icomUSB,
	ModePKTUSB: icomUSB,
	ModeLSB:    icomLSB,
	ModePKTLSB: icomLSB,
	ModeRTTY:   icomRTTY,
	ModeRTTYR:  icomRTTYR,
	ModePSK:    icomPSK,
	ModePSKR:   icomPSKR,
	ModeFM:     icomFM,
	ModePKTFM:  icomFM,
	ModeFMN:    icomFM,
	ModeWFM:    icomWFM,
	ModeP25:    icomP25,
	ModeDSTAR:  icomDSTAR,
	ModeDPMR:   icomDPMR,
	ModeDCR:    icomDCR,
}

var codeModes = map[byte]Mode{
	icomLSB:   ModeLSB,
	icomUSB:   ModeUSB,
	icomAM:    ModeAM,
	icomCW:    ModeCW,
	icomRTTY:  ModeRTTY,
	icomFM:    ModeFM,
	icomWFM:   ModeWFM,
	icomCWR:   ModeCWR,
	icomRTTYR: ModeRTTYR,
	icomAMS:   ModeAMS,
	icomPSK:   ModePSK,
	icomPSKR:  ModePSKR,
	icomP25:   ModeP25,
	icomDSTAR: ModeDSTAR,
	icomDPMR:  ModeDPMR,
	icomDCR:   ModeDCR,
}

var dataModes = map[Mode]Mode{
	ModePKTUSB: ModeUSB,
	ModePKTLSB: ModeLSB,
	ModePKTFM:  ModeFM,
	ModePKTAM:  ModeAM,
}

// ParseMode converts a mode name such as "usb" or "PKTUSB"
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := modeCodes[m]; !ok {
		return ModeNone, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
	return m, nil
}

// IsData reports whether m is a data (packet) variant of a voice mode
func (m Mode) IsData() bool {
	_, ok := dataModes[m]
	return ok
}

// Base returns the voice mode a data mode is built on, or m itself
func (m Mode) Base() Mode {
	if base, ok := dataModes[m]; ok {
		return base
	}
	return m
}

// WithData returns the data variant of a voice mode, or m itself
func (m Mode) WithData() Mode {
	for data, base := range dataModes {
		if base == m {
			return data
		}
	}
	return m
}

// IcomMode is a mode as sent on the wire
type IcomMode struct {
	// Code is the mode byte
	Code byte
	// Filter is the filter preset, FilterNone when no filter byte is sent
	Filter int
	// Data is set when the data-mode command must follow the mode command
	Data bool
}

// ModeToIcom maps a neutral mode and width to the rig's mode code and filter.
//
// PassbandNoChange yields FilterNone; callers wanting to preserve the
// current filter read it from the rig first (see Rig.SetMode). Unknown
// modes return ErrUnknownMode.
func ModeToIcom(model *Model, mode Mode, width Passband) (IcomMode, error) {
	code, ok := modeCodes[mode]
	if !ok {
		return IcomMode{}, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	out := IcomMode{Code: code, Filter: FilterNone}

	if model != nil && mode.IsData() {
		if alt, ok := model.DataModeCodes[mode]; ok {
			out.Code = alt
		} else if model.DataModeCmd {
			out.Data = true
		}
	}

	if width == PassbandNoChange {
		return out, nil
	}

	normal := model.passbands(mode).Normal
	switch {
	case width == PassbandNormal:
		out.Filter = FilterNone
	case width < normal:
		out.Filter = FilterNarrow
	case width == normal:
		out.Filter = FilterMedium
	default:
		out.Filter = FilterWide
	}

	if model != nil && model.R7000Modes {
		switch {
		case mode == ModeUSB || mode == ModeLSB:
			out.Code = icomR7000SSB
			out.Filter = 0x00
		case mode == ModeAM && out.Filter == FilterNone:
			out.Filter = FilterWide
		}
	}

	return out, nil
}

// IcomToMode maps a mode code and filter preset read from the rig back to a
// neutral mode and width. filter is FilterNone when the rig sent no filter
// byte. A blank memory channel (0xFF) decodes to ModeNone without error.
func IcomToMode(model *Model, code byte, filter int) (Mode, Passband, error) {
	if code == icomBlank {
		return ModeNone, PassbandNormal, nil
	}

	if model != nil {
		if model.R7000Modes && code == icomFM && filter == 0x00 {
			return ModeUSB, model.passbands(ModeUSB).Normal, nil
		}
		for mode, alt := range model.DataModeCodes {
			if alt == code {
				return mode, model.filterWidth(mode, filter), nil
			}
		}
	}

	mode, ok := codeModes[code]
	if !ok {
		return ModeNone, PassbandNormal, fmt.Errorf("%w: code 0x%02X", ErrUnknownMode, code)
	}

	return mode, model.filterWidth(mode, filter), nil
}

// filterWidth converts a filter preset to Hz.
// Rigs return 1 wide, 2 narrow, or with three filters 1 wide, 2 medium,
// 3 narrow; the IC-706 family counts from zero.
func (m *Model) filterWidth(mode Mode, filter int) Passband {
	if filter == FilterNone {
		return PassbandNormal
	}
	if m != nil && m.ZeroBasedFilters {
		filter++
	}

	pb := m.passbands(mode)
	switch filter {
	case 0x01:
		if pb.Wide != 0 {
			return pb.Wide
		}
		return pb.Normal
	case 0x02:
		if pb.Wide != 0 {
			return pb.Normal
		}
		if pb.Narrow != 0 {
			return pb.Narrow
		}
		return pb.Normal
	case 0x03:
		if pb.Narrow != 0 {
			return pb.Narrow
		}
		return pb.Normal
	default:
		debugf("unsupported filter preset 0x%02X for %s", filter, mode)
		return PassbandNormal
	}
}
