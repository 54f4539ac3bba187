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

package uart

import (
	"context"
	"regexp"
	"strings"

	"github.com/ZaparooProject/go-civ/detection"
	"go.bug.st/serial/enumerator"
)

type serialPort struct {
	Path         string
	Name         string
	VIDPID       string
	Manufacturer string
	Product      string
	SerialNumber string
}

// knownBridges maps USB-serial bridges found in CI-V interfaces and rigs
// with built-in USB to their vendor
var knownBridges = map[string]string{
	"10C4:EA60": "Silicon Labs CP210x",  // IC-7300, IC-705, IC-9700, IC-7610 and CT-17 clones
	"0403:6001": "FTDI FT232R",          // most third-party CI-V cables
	"0403:6015": "FTDI FT231X",          // FT-X based cables
	"067B:2303": "Prolific PL2303",      // older CI-V cables
	"1A86:7523": "WCH CH340",            // low-cost CI-V cables
	"0C26:0036": "Icom USB serial port", // IC-R30, IC-R8600 in CI-V mode
}

var icomModelPattern = regexp.MustCompile(`\bIC-?([0-9]{3,4}[A-Z]*|R[0-9]{2,4}[A-Z]*)\b`)

// listPorts enumerates serial ports with their USB descriptors, falling
// back to the platform's own device listing when the enumerator fails
func listPorts(ctx context.Context) ([]serialPort, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil || len(details) == 0 {
		return platformPorts(ctx)
	}

	ports := make([]serialPort, 0, len(details))
	for _, d := range details {
		p := serialPort{Path: d.Name, Name: d.Name}
		if d.IsUSB {
			p.VIDPID = detection.ParseVIDPID(d.VID + ":" + d.PID)
			p.SerialNumber = d.SerialNumber
			p.Product = d.Product
		}
		ports = append(ports, p)
	}
	return ports, nil
}

// modelFromDescriptor returns the Icom model named in the USB serial
// number or product string, as "IC-7300"
func modelFromDescriptor(p serialPort) string {
	for _, s := range []string{p.SerialNumber, p.Product, p.Name} {
		if m := icomModelPattern.FindStringSubmatch(strings.ToUpper(s)); m != nil {
			return "IC-" + m[1]
		}
	}
	return ""
}

// rank scores a port by how likely it is to reach a rig
func rank(p serialPort) detection.Confidence {
	if modelFromDescriptor(p) != "" {
		return detection.High
	}
	if _, ok := knownBridges[p.VIDPID]; ok {
		return detection.Medium
	}
	return detection.Low
}

func toDeviceInfo(p serialPort) detection.DeviceInfo {
	info := detection.DeviceInfo{
		Transport:    "uart",
		Path:         p.Path,
		Name:         p.Name,
		VIDPID:       p.VIDPID,
		Manufacturer: p.Manufacturer,
		Product:      p.Product,
		SerialNumber: p.SerialNumber,
		Model:        modelFromDescriptor(p),
		Confidence:   rank(p),
	}
	if info.Manufacturer == "" {
		info.Manufacturer = knownBridges[p.VIDPID]
	}
	return info
}
