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
	"sort"
	"strings"
	"sync"
	"time"
)

// CalPoint maps a raw meter reading to a calibrated value
type CalPoint struct {
	Raw   int
	Value float64
}

// Model describes one rig: its bus defaults, quirks and the commands it
// accepts. Fields left zero select the common Icom behavior. Ops lets a
// model replace individual operations.
type Model struct {
	Ops              Ops
	Passbands        map[Mode]Passbands
	DataModeCodes    map[Mode]byte
	Name             string
	Modes            []Mode
	Levels           []Level
	Meters           []Meter
	Funcs            []Func
	StrCal           []CalPoint
	SWRCal           []CalPoint
	PowerOnWait      time.Duration
	Baud             int
	Address          byte
	Has              Capability
	CIV731Mode       bool // 4-byte frequency fields
	ZeroBasedFilters bool // filter presets counted from 0 (IC-706 family)
	R7000Modes       bool // IC-R7000 SSB mode encoding
	DataModeCmd      bool // data modes use 1A 06
	MultiByteSubCmd  bool
	FullDuplex       bool
}

// Capability flags for commands a model supports
type Capability uint32

const (
	HasPTT Capability = 1 << iota
	HasPower
	HasSplit
	HasVFO
	HasTransceive
	HasTrxID
)

// Supports reports whether the model advertises every capability in c
func (m *Model) Supports(c Capability) bool {
	return m != nil && m.Has&c == c
}

// SupportsMode reports whether the model lists mode
func (m *Model) SupportsMode(mode Mode) bool {
	if m == nil || len(m.Modes) == 0 {
		return true
	}
	for _, md := range m.Modes {
		if md == mode {
			return true
		}
	}
	return false
}

// DeviceOptions returns the Device options implied by the model
func (m *Model) DeviceOptions() []Option {
	opts := []Option{WithCIVAddress(m.Address), WithMultiByteSubCmd(m.MultiByteSubCmd)}
	if m.FullDuplex {
		opts = append(opts, WithFullDuplex())
	}
	if m.Baud > 0 {
		opts = append(opts, WithWakeupPreambles(WakeupPreamblesForBaud(m.Baud)))
	}
	return opts
}

func (m *Model) freqDigits() int {
	if m != nil && m.CIV731Mode {
		return 8
	}
	return 10
}

var defaultPassbands = map[Mode]Passbands{
	ModeUSB:    {Narrow: 1800, Normal: 2400, Wide: 3000},
	ModeLSB:    {Narrow: 1800, Normal: 2400, Wide: 3000},
	ModePKTUSB: {Narrow: 1800, Normal: 2400, Wide: 3000},
	ModePKTLSB: {Narrow: 1800, Normal: 2400, Wide: 3000},
	ModeCW:     {Narrow: 250, Normal: 500, Wide: 1200},
	ModeCWR:    {Narrow: 250, Normal: 500, Wide: 1200},
	ModeRTTY:   {Narrow: 250, Normal: 500, Wide: 2400},
	ModeRTTYR:  {Narrow: 250, Normal: 500, Wide: 2400},
	ModePSK:    {Narrow: 250, Normal: 500, Wide: 2400},
	ModePSKR:   {Narrow: 250, Normal: 500, Wide: 2400},
	ModeAM:     {Narrow: 3000, Normal: 6000, Wide: 9000},
	ModePKTAM:  {Narrow: 3000, Normal: 6000, Wide: 9000},
	ModeAMS:    {Narrow: 3000, Normal: 6000, Wide: 9000},
	ModeFM:     {Narrow: 7000, Normal: 10000, Wide: 15000},
	ModePKTFM:  {Narrow: 7000, Normal: 10000, Wide: 15000},
	ModeWFM:    {Normal: 230000},
}

func (m *Model) passbands(mode Mode) Passbands {
	if m != nil {
		if pb, ok := m.Passbands[mode]; ok {
			return pb
		}
	}
	return defaultPassbands[mode]
}

// PassbandNormalFor returns the model's normal width for mode
func (m *Model) PassbandNormalFor(mode Mode) Passband {
	return m.passbands(mode).Normal
}

var (
	hfModes = []Mode{
		ModeAM, ModeCW, ModeCWR, ModeUSB, ModeLSB, ModeRTTY, ModeRTTYR, ModeFM,
		ModePKTUSB, ModePKTLSB, ModePKTFM, ModePKTAM,
	}
	twoFilterSSB = map[Mode]Passbands{
		ModeUSB: {Narrow: 1800, Normal: 2400},
		ModeLSB: {Narrow: 1800, Normal: 2400},
		ModeCW:  {Narrow: 500, Normal: 2400},
		ModeAM:  {Normal: 6000},
		ModeFM:  {Normal: 15000},
	}
	commonLevels = []Level{LevelAF, LevelRF, LevelSquelch, LevelNR, LevelRFPower, LevelMicGain, LevelKeySpeed, LevelCWPitch}
	commonMeters = []Meter{MeterS, MeterSWR, MeterALC, MeterComp, MeterVd, MeterId, MeterRFPower}
	commonFuncs  = []Func{FuncNB, FuncNR, FuncANF, FuncComp, FuncVOX, FuncTone, FuncTSQL, FuncMon}
	ic7300StrCal = []CalPoint{{0, -54}, {10, -48}, {30, -36}, {60, -24}, {90, -12}, {120, 0}, {241, 64}}
	ic7300SWRCal = []CalPoint{{0, 1.0}, {48, 1.5}, {80, 2.0}, {120, 3.0}, {240, 6.0}}
)

var (
	registryMu sync.RWMutex
	registry   = map[string]*Model{
		"IC-7300": {
			Name:        "IC-7300",
			Address:     0x94,
			Baud:        115200,
			Has:         HasPTT | HasPower | HasSplit | HasVFO | HasTransceive | HasTrxID,
			Modes:       hfModes,
			Levels:      commonLevels,
			Meters:      commonMeters,
			Funcs:       commonFuncs,
			StrCal:      ic7300StrCal,
			SWRCal:      ic7300SWRCal,
			DataModeCmd: true,
			PowerOnWait: 3800 * time.Millisecond,
		},
		"IC-705": {
			Name:        "IC-705",
			Address:     0xA4,
			Baud:        115200,
			Has:         HasPTT | HasPower | HasSplit | HasVFO | HasTransceive | HasTrxID,
			Modes:       append(append([]Mode{}, hfModes...), ModeWFM, ModeDSTAR),
			Levels:      commonLevels,
			Meters:      commonMeters,
			Funcs:       commonFuncs,
			StrCal:      ic7300StrCal,
			SWRCal:      ic7300SWRCal,
			DataModeCmd: true,
			PowerOnWait: 5500 * time.Millisecond,
		},
		"IC-7800": {
			Name:          "IC-7800",
			Address:       0x6A,
			Baud:          19200,
			Has:           HasPTT | HasPower | HasSplit | HasVFO | HasTransceive | HasTrxID,
			Modes:         append(append([]Mode{}, hfModes...), ModePSK, ModePSKR),
			Levels:        commonLevels,
			Meters:        commonMeters,
			Funcs:         commonFuncs,
			DataModeCodes: map[Mode]byte{ModePKTUSB: icomPSK, ModePKTLSB: icomPSKR},
			PowerOnWait:   5500 * time.Millisecond,
		},
		"IC-910": {
			Name:      "IC-910",
			Address:   0x60,
			Baud:      19200,
			Has:       HasPTT | HasSplit | HasVFO | HasTransceive,
			Modes:     []Mode{ModeCW, ModeUSB, ModeLSB, ModeFM},
			Passbands: twoFilterSSB,
			Levels:    []Level{LevelAF, LevelRF, LevelSquelch, LevelRFPower, LevelMicGain},
			Meters:    []Meter{MeterS},
			Funcs:     []Func{FuncNB, FuncNR, FuncTone, FuncTSQL},
		},
		"IC-706MKIIG": {
			Name:             "IC-706MKIIG",
			Address:          0x58,
			Baud:             19200,
			Has:              HasPTT | HasSplit | HasVFO | HasTransceive,
			Modes:            []Mode{ModeAM, ModeCW, ModeUSB, ModeLSB, ModeRTTY, ModeFM, ModeWFM},
			Levels:           []Level{LevelAF, LevelRF, LevelSquelch, LevelRFPower},
			Meters:           []Meter{MeterS},
			ZeroBasedFilters: true,
		},
		"IC-746": {
			Name:    "IC-746",
			Address: 0x56,
			Baud:    19200,
			Has:     HasPTT | HasSplit | HasVFO | HasTransceive,
			Modes:   hfModes[:8],
			Levels:  commonLevels,
			Meters:  []Meter{MeterS, MeterSWR, MeterALC},
			Funcs:   commonFuncs,
		},
		"IC-731": {
			Name:       "IC-731",
			Address:    0x02,
			Baud:       1200,
			Has:        HasVFO | HasTransceive,
			Modes:      []Mode{ModeAM, ModeCW, ModeUSB, ModeLSB, ModeFM},
			CIV731Mode: true,
		},
		"IC-R75": {
			Name:    "IC-R75",
			Address: 0x5A,
			Baud:    19200,
			Has:     HasPower | HasVFO | HasTransceive,
			Modes:   []Mode{ModeAM, ModeCW, ModeCWR, ModeUSB, ModeLSB, ModeRTTY, ModeRTTYR, ModeFM, ModeAMS},
			Levels:  []Level{LevelAF, LevelRF, LevelSquelch, LevelNR},
			Meters:  []Meter{MeterS},
			Funcs:   []Func{FuncNB, FuncNR, FuncANF},
			Ops:     Ops{GetPowerStat: powerStatByFreq},
		},
		"IC-R7000": {
			Name:       "IC-R7000",
			Address:    0x08,
			Baud:       1200,
			Has:        HasVFO | HasTransceive,
			Modes:      []Mode{ModeAM, ModeUSB, ModeLSB, ModeFM, ModeWFM},
			R7000Modes: true,
		},
	}
)

// LookupModel returns a registered model by name, ignoring case and dashes
func LookupModel(name string) (*Model, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	want := normalizeModelName(name)
	for key, m := range registry {
		if normalizeModelName(key) == want {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: unknown model %q", ErrInvalidParameter, name)
}

// LookupModelByAddress returns the registered model whose default CI-V
// address is addr
func LookupModelByAddress(addr byte) (*Model, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, m := range registry {
		if m.Address == addr {
			return m, true
		}
	}
	return nil, false
}

// RegisterModel adds or replaces a model in the catalog
func RegisterModel(m *Model) error {
	if m == nil || m.Name == "" {
		return fmt.Errorf("%w: model needs a name", ErrInvalidParameter)
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[m.Name] = m
	return nil
}

// ModelNames returns the registered model names, sorted
func ModelNames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeModelName(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	return strings.NewReplacer("-", "", " ", "", "_", "").Replace(name)
}

// interpolate converts a raw reading using a calibration table
func interpolate(table []CalPoint, raw int) float64 {
	if len(table) == 0 {
		return float64(raw)
	}
	if raw <= table[0].Raw {
		return table[0].Value
	}
	last := table[len(table)-1]
	if raw >= last.Raw {
		return last.Value
	}
	for i := 1; i < len(table); i++ {
		hi := table[i]
		if raw > hi.Raw {
			continue
		}
		lo := table[i-1]
		if hi.Raw == lo.Raw {
			return hi.Value
		}
		frac := float64(raw-lo.Raw) / float64(hi.Raw-lo.Raw)
		return lo.Value + frac*(hi.Value-lo.Value)
	}
	return last.Value
}
