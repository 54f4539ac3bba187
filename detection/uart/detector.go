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

// Package uart detects serial ports carrying a CI-V bus. Importing it
// registers the detector with the detection package.
package uart

import (
	"context"
	"errors"
	"fmt"
	"time"

	civ "github.com/ZaparooProject/go-civ"
	"github.com/ZaparooProject/go-civ/detection"
	uarttransport "github.com/ZaparooProject/go-civ/transport/uart"
)

// probeFunc looks for a rig on one port at one baud rate
type probeFunc func(ctx context.Context, path string, baud int, opts civ.ProbeOptions) (*civ.ProbeResult, error)

type detector struct {
	list  func(ctx context.Context) ([]serialPort, error)
	probe probeFunc
}

// New returns the serial port detector
func New() detection.Detector {
	return &detector{list: listPorts, probe: probePort}
}

func init() {
	detection.RegisterDetector(New())
}

func (*detector) Transport() string {
	return "uart"
}

func (d *detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	ports, err := d.list(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	var devices []detection.DeviceInfo
	for _, p := range ports {
		info := toDeviceInfo(p)
		if info.VIDPID != "" && detection.IsBlocked(info.VIDPID, opts.Blocklist) {
			continue
		}
		if detection.IsPathIgnored(info.Path, opts.IgnorePaths) {
			continue
		}

		switch opts.Mode {
		case detection.Passive:
		case detection.Safe:
			if info.Confidence == detection.Low {
				continue
			}
		case detection.Full:
			ok, err := d.confirm(ctx, &info, opts)
			if err != nil {
				return devices, err
			}
			if !ok {
				continue
			}
		}
		devices = append(devices, info)
	}
	return devices, nil
}

// confirm probes the port for a rig, trying each baud rate. A model named
// by the USB descriptor narrows the scan to that model's address.
func (d *detector) confirm(ctx context.Context, info *detection.DeviceInfo, opts *detection.Options) (bool, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	probeOpts := civ.ProbeOptions{Timeout: 50 * time.Millisecond, StopAtFirst: true}
	baudRates := opts.BaudRates
	if m, err := civ.LookupModel(info.Model); err == nil {
		probeOpts.First, probeOpts.Last = m.Address, m.Address
		if m.Baud > 0 {
			baudRates = append([]int{m.Baud}, baudRates...)
		}
	}
	if len(baudRates) == 0 {
		baudRates = []int{uarttransport.DefaultBaudRate}
	}

	for _, baud := range baudRates {
		result, err := d.probe(ctx, info.Path, baud, probeOpts)
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return false, nil
		case errors.Is(err, context.Canceled):
			return false, err
		case err != nil:
			// the port may be busy or gone; try the next speed
			continue
		case result == nil:
			continue
		}

		info.Address = result.Address
		info.BaudRate = baud
		info.Confidence = detection.High
		if result.Model != nil {
			info.Model = result.Model.Name
		}
		return true, nil
	}
	return false, nil
}

func probePort(ctx context.Context, path string, baud int, opts civ.ProbeOptions) (*civ.ProbeResult, error) {
	settings := uarttransport.DefaultSettings()
	settings.BaudRate = baud
	settings.Timeout = opts.Timeout

	t, err := uarttransport.New(path, settings)
	if err != nil {
		return nil, err
	}
	defer func() { _ = t.Close() }()

	found, err := civ.Probe(ctx, t, opts)
	if len(found) > 0 {
		return &found[0], nil
	}
	return nil, err
}
