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
	"errors"
	"fmt"

	civ "github.com/ZaparooProject/go-civ"
	"github.com/ZaparooProject/go-civ/config"
	"github.com/ZaparooProject/go-civ/detection"
)

// runScan lists candidate serial ports. Full mode opens each one and
// probes the bus, which may briefly disturb other programs using the port.
func runScan(ctx context.Context, full bool, out *Output) error {
	opts := detection.DefaultOptions()
	if full {
		opts.Mode = detection.Full
	}
	out.Verbose("Scanning serial ports (%s)...", opts.Mode)

	devices, err := detection.DetectAll(ctx, &opts)
	if errors.Is(err, detection.ErrNoDevicesFound) {
		out.Info("No CI-V interfaces found")
		return nil
	}
	if err != nil {
		return fmt.Errorf("port discovery failed: %w", err)
	}

	for _, d := range devices {
		out.Device(d)
	}
	return nil
}

// runProbe scans every address on the configured bus
func runProbe(ctx context.Context, cfg *config.Config, out *Output) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	transport, err := cfg.OpenTransport(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = transport.Close() }()

	opts := civ.ProbeOptions{
		EchoOff: cfg.Rig.EchoOff || cfg.Transport.NoEcho ||
			civ.HasCapability(transport, civ.CapabilityNoEcho),
	}
	out.Verbose("Probing bus on %s...", transport.Type())

	results, err := civ.Probe(ctx, transport, opts)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		out.Info("No rigs answered")
		return nil
	}
	for _, r := range results {
		if r.Rejected {
			out.Value("%s (ID request rejected)", r)
			continue
		}
		out.Value("%s, ID 0x%02X", r, r.ID)
	}
	return nil
}
