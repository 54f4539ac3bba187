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

// Package detection finds serial ports that are likely to carry a CI-V bus.
//
// Transport-specific detectors register themselves from their init
// functions; import them for their side effect:
//
//	import _ "github.com/ZaparooProject/go-civ/detection/uart"
package detection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrUnsupportedPlatform is returned by detectors that cannot enumerate
// ports on the running OS
var ErrUnsupportedPlatform = errors.New("detection not supported on this platform")

// ErrNoDevicesFound is returned by DetectAll when no detector found anything
var ErrNoDevicesFound = errors.New("no CI-V devices found")

// Mode selects how intrusive detection may be
type Mode int

const (
	// Passive lists ports from OS metadata only
	Passive Mode = iota
	// Safe lists only ports whose USB identity matches a known CI-V interface
	Safe
	// Full opens candidate ports and probes the bus for a rig
	Full
)

// String returns the mode name
func (m Mode) String() string {
	switch m {
	case Passive:
		return "passive"
	case Safe:
		return "safe"
	case Full:
		return "full"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Confidence ranks how likely a port is to reach a rig
type Confidence int

const (
	// Low means nothing about the port points at a rig
	Low Confidence = iota
	// Medium means a USB-serial bridge commonly used for CI-V
	Medium
	// High means the USB descriptor names an Icom rig, or a rig answered a probe
	High
)

// String returns the confidence name
func (c Confidence) String() string {
	switch c {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	default:
		return fmt.Sprintf("confidence(%d)", int(c))
	}
}

// Options controls detection
type Options struct {
	// Blocklist holds VID:PID pairs that are never reported or opened
	Blocklist []string
	// IgnorePaths holds device paths to skip
	IgnorePaths []string
	// BaudRates are tried in order when probing in Full mode
	BaudRates []int
	// Timeout bounds a whole Full-mode probe of one port
	Timeout time.Duration
	Mode    Mode
}

// DefaultOptions returns passive detection with the default blocklist
func DefaultOptions() Options {
	return Options{
		Mode:      Passive,
		Timeout:   5 * time.Second,
		Blocklist: DefaultBlocklist(),
		BaudRates: []int{115200, 19200, 9600},
	}
}

// DeviceInfo describes one detected port
type DeviceInfo struct {
	Transport    string
	Path         string
	Name         string
	VIDPID       string
	Manufacturer string
	Product      string
	SerialNumber string
	// Model is the rig model, from the USB descriptor or a probe
	Model string
	// Address is the rig's CI-V address when a probe found one
	Address byte
	// BaudRate is the speed a probe succeeded at
	BaudRate   int
	Confidence Confidence
}

// String returns a one-line description of the device
func (d DeviceInfo) String() string {
	s := d.Transport + ":" + d.Path
	if d.Model != "" {
		s += " (" + d.Model + ")"
	}
	return s
}

// Detector finds devices on one kind of transport
type Detector interface {
	// Transport names the transport, such as "uart"
	Transport() string
	// Detect lists the devices found
	Detect(ctx context.Context, opts *Options) ([]DeviceInfo, error)
}

var (
	registryMu sync.RWMutex
	detectors  = make(map[string]Detector)
)

// RegisterDetector adds d to the registry, replacing any detector for the
// same transport
func RegisterDetector(d Detector) {
	registryMu.Lock()
	defer registryMu.Unlock()
	detectors[d.Transport()] = d
}

// Detectors returns the registered detectors sorted by transport name
func Detectors() []Detector {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]Detector, 0, len(detectors))
	for _, d := range detectors {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Transport() < out[j].Transport() })
	return out
}

// DetectAll runs every registered detector. Results are ordered by
// confidence, highest first. Detector errors are returned only when nothing
// at all was found.
func DetectAll(ctx context.Context, opts *Options) ([]DeviceInfo, error) {
	if opts == nil {
		defaults := DefaultOptions()
		opts = &defaults
	}

	var (
		found []DeviceInfo
		errs  []error
	)
	for _, d := range Detectors() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		devices, err := d.Detect(ctx, opts)
		if err != nil {
			if !errors.Is(err, ErrUnsupportedPlatform) {
				errs = append(errs, fmt.Errorf("%s: %w", d.Transport(), err))
			}
			continue
		}
		found = append(found, Filter(devices, opts)...)
	}

	if len(found) == 0 {
		if len(errs) > 0 {
			return nil, errors.Join(errs...)
		}
		return nil, ErrNoDevicesFound
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Confidence > found[j].Confidence
	})
	return found, nil
}

// Filter drops blocked and ignored devices
func Filter(devices []DeviceInfo, opts *Options) []DeviceInfo {
	out := devices[:0:0]
	for _, d := range devices {
		if d.VIDPID != "" && IsBlocked(d.VIDPID, opts.Blocklist) {
			continue
		}
		if IsPathIgnored(d.Path, opts.IgnorePaths) {
			continue
		}
		out = append(out, d)
	}
	return out
}
