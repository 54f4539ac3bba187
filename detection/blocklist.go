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

package detection

import (
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultBlocklist returns VID:PID pairs of serial devices that must not be
// opened while looking for a rig
func DefaultBlocklist() []string {
	return []string{
		"2341:0043", // Arduino Uno, resets when DTR toggles on open
		"2341:0001", // Arduino Uno (early)
		"1A86:55D4", // CH9102 on ESP32 boards, same auto-reset wiring
		"1366:0105", // SEGGER J-Link CDC
	}
}

// IsBlocked reports whether vidpid appears in blocklist, ignoring case
func IsBlocked(vidpid string, blocklist []string) bool {
	vidpid = strings.TrimSpace(vidpid)
	for _, blocked := range blocklist {
		if strings.EqualFold(vidpid, strings.TrimSpace(blocked)) {
			return true
		}
	}
	return false
}

var (
	vidPattern  = regexp.MustCompile(`(?:VID[:=_]|VENDOR=)([0-9A-F]{4})`)
	pidPattern  = regexp.MustCompile(`(?:PID[:=_]|PRODUCT=)([0-9A-F]{4})`)
	pairPattern = regexp.MustCompile(`^([0-9A-F]{4}):([0-9A-F]{4})$`)
)

// ParseVIDPID extracts a "VVVV:PPPP" pair from descriptors such as
// "VID:10C4 PID:EA60", `USB\VID_10C4&PID_EA60` or "10c4:ea60". It returns
// an empty string when no pair is present.
func ParseVIDPID(descriptor string) string {
	descriptor = strings.ToUpper(strings.TrimSpace(descriptor))

	if m := pairPattern.FindStringSubmatch(descriptor); m != nil {
		return m[1] + ":" + m[2]
	}

	vid := vidPattern.FindStringSubmatch(descriptor)
	pid := pidPattern.FindStringSubmatch(descriptor)
	if vid == nil || pid == nil {
		return ""
	}
	return vid[1] + ":" + pid[1]
}

// IsPathIgnored reports whether devicePath matches one of ignorePaths after
// cleaning, ignoring case so Windows COM names compare equal
func IsPathIgnored(devicePath string, ignorePaths []string) bool {
	if devicePath == "" {
		return false
	}
	device := normalizedPath(devicePath)
	for _, p := range ignorePaths {
		if p != "" && normalizedPath(p) == device {
			return true
		}
	}
	return false
}

func normalizedPath(path string) string {
	return strings.ToLower(filepath.Clean(path))
}
