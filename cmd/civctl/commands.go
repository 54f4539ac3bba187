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

package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	civ "github.com/ZaparooProject/go-civ"
	"github.com/ZaparooProject/go-civ/config"
	"github.com/ZaparooProject/go-civ/polling"
)

// session is what a rig command works with
type session struct {
	rig *civ.Rig
	cfg *config.Config
	out *Output
}

type command func(ctx context.Context, s *session, args []string) error

var commands = map[string]command{
	"freq":    cmdFreq,
	"mode":    cmdMode,
	"ptt":     cmdPTT,
	"power":   cmdPower,
	"split":   cmdSplit,
	"id":      cmdID,
	"meter":   cmdMeter,
	"monitor": cmdMonitor,
}

var meterNames = map[string]civ.Meter{
	"s":       civ.MeterS,
	"swr":     civ.MeterSWR,
	"alc":     civ.MeterALC,
	"comp":    civ.MeterComp,
	"rfpower": civ.MeterRFPower,
	"vd":      civ.MeterVd,
	"id":      civ.MeterId,
	"sql":     civ.MeterSquelch,
}

// parseFreq accepts plain Hz or a number with a k, M or G suffix, such as
// 14.074M
func parseFreq(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	mult := 1.0
	if n := len(s); n > 0 {
		switch s[n-1] {
		case 'k', 'K':
			mult = 1e3
		case 'm', 'M':
			mult = 1e6
		case 'g', 'G':
			mult = 1e9
		}
		if mult != 1 {
			s = s[:n-1]
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: frequency %q", civ.ErrInvalidParameter, s)
	}
	return uint64(v*mult + 0.5), nil
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "1", "true", "tx":
		return true, nil
	case "off", "0", "false", "rx":
		return false, nil
	default:
		return false, fmt.Errorf("%w: expected on or off, got %q", civ.ErrInvalidParameter, s)
	}
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func cmdFreq(ctx context.Context, s *session, args []string) error {
	if len(args) > 0 {
		hz, err := parseFreq(args[0])
		if err != nil {
			return err
		}
		if err := s.rig.SetFreq(ctx, hz); err != nil {
			return err
		}
		s.out.OK("Frequency set to %d Hz", hz)
		return nil
	}

	hz, err := s.rig.GetFreq(ctx)
	if err != nil {
		return err
	}
	s.out.Value("%d", hz)
	return nil
}

func cmdMode(ctx context.Context, s *session, args []string) error {
	if len(args) > 0 {
		mode, err := civ.ParseMode(args[0])
		if err != nil {
			return err
		}
		width := civ.PassbandNormal
		if len(args) > 1 {
			w, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("%w: width %q", civ.ErrInvalidParameter, args[1])
			}
			width = civ.Passband(w)
		}
		if err := s.rig.SetMode(ctx, mode, width); err != nil {
			return err
		}
		s.out.OK("Mode set to %s", mode)
		return nil
	}

	mode, width, err := s.rig.GetMode(ctx)
	if err != nil {
		return err
	}
	s.out.Value("%s %d", mode, width)
	return nil
}

func cmdPTT(ctx context.Context, s *session, args []string) error {
	keyer, err := s.cfg.OpenKeyer(s.rig)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		defer func() { _ = keyer.Close() }()
		on, err := keyer.GetPTT(ctx)
		if err != nil {
			return err
		}
		s.out.Value("%s", onOff(on))
		return nil
	}

	on, err := parseOnOff(args[0])
	if err != nil {
		return err
	}
	// Close would return the transmitter to receive, so a set leaves the
	// keyer open
	if err := keyer.SetPTT(ctx, on); err != nil {
		return err
	}
	s.out.OK("PTT %s", onOff(on))
	return nil
}

func cmdPower(ctx context.Context, s *session, args []string) error {
	if len(args) > 0 {
		on, err := parseOnOff(args[0])
		if err != nil {
			return err
		}
		if err := s.rig.SetPowerStat(ctx, on); err != nil {
			return err
		}
		s.out.OK("Power %s", onOff(on))
		return nil
	}

	on, err := s.rig.GetPowerStat(ctx)
	if err != nil {
		return err
	}
	s.out.Value("%s", onOff(on))
	return nil
}

func cmdSplit(ctx context.Context, s *session, args []string) error {
	if len(args) > 0 {
		on, err := parseOnOff(args[0])
		if err != nil {
			return err
		}
		if err := s.rig.SetSplit(ctx, on); err != nil {
			return err
		}
		s.out.OK("Split %s", onOff(on))
		return nil
	}

	on, err := s.rig.GetSplit(ctx)
	if err != nil {
		return err
	}
	s.out.Value("%s", onOff(on))
	return nil
}

func cmdID(ctx context.Context, s *session, _ []string) error {
	id, err := s.rig.TransceiverID(ctx)
	if err != nil {
		return err
	}
	s.out.Value("0x%02X", id)
	return nil
}

func cmdMeter(ctx context.Context, s *session, args []string) error {
	name := "s"
	if len(args) > 0 {
		name = strings.ToLower(args[0])
	}

	switch name {
	case "s":
		db, err := s.rig.StrengthDB(ctx)
		if err != nil {
			return err
		}
		s.out.Value("%.1f dB", db)
		return nil
	case "swr":
		swr, err := s.rig.SWR(ctx)
		if err != nil {
			return err
		}
		s.out.Value("%.2f", swr)
		return nil
	}

	meter, ok := meterNames[name]
	if !ok {
		return fmt.Errorf("%w: unknown meter %q", civ.ErrInvalidParameter, name)
	}
	raw, err := s.rig.ReadMeter(ctx, meter)
	if err != nil {
		return err
	}
	s.out.Value("%d", raw)
	return nil
}

func cmdMonitor(ctx context.Context, s *session, _ []string) error {
	pc, err := s.cfg.PollingConfig()
	if err != nil {
		return err
	}
	monitor, err := polling.NewMonitor(s.rig, pc)
	if err != nil {
		return err
	}

	monitor.OnFrequencyChanged = func(hz uint64) error {
		s.out.Event("FREQ", "%d", hz)
		return nil
	}
	monitor.OnModeChanged = func(mode civ.Mode, width civ.Passband) error {
		s.out.Event("MODE", "%s %d", mode, width)
		return nil
	}
	monitor.OnPTTChanged = func(on bool) error {
		s.out.Event("PTT", "%s", onOff(on))
		return nil
	}
	monitor.OnOffline = func(err error) {
		s.out.Warning("Rig offline: %v", err)
	}
	monitor.OnOnline = func() {
		s.out.Info("Rig online")
	}

	if err := monitor.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	if err := monitor.Stop(); err != nil {
		return err
	}

	m := monitor.GetMetrics()
	s.out.Verbose("%d polls, %d failed, %d changes", m.PollCycles, m.PollErrors, m.Changes)
	return nil
}
