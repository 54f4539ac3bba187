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
	"errors"
	"testing"

	civ "github.com/ZaparooProject/go-civ"
	"github.com/ZaparooProject/go-civ/detection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPorts = []serialPort{
	{Path: "/dev/ttyS0", Name: "ttyS0"},
	{Path: "/dev/ttyUSB0", Name: "ttyUSB0", VIDPID: "10C4:EA60", SerialNumber: "IC-7300 03001234"},
	{Path: "/dev/ttyUSB1", Name: "ttyUSB1", VIDPID: "0403:6001", Product: "FT232R USB UART"},
	{Path: "/dev/ttyACM0", Name: "ttyACM0", VIDPID: "2341:0043"},
}

func staticList(ports []serialPort) func(context.Context) ([]serialPort, error) {
	return func(context.Context) ([]serialPort, error) { return ports, nil }
}

func TestModelFromDescriptor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		port serialPort
		want string
	}{
		{port: serialPort{SerialNumber: "IC-7300 03001234"}, want: "IC-7300"},
		{port: serialPort{SerialNumber: "IC-705 12001234"}, want: "IC-705"},
		{port: serialPort{Product: "usb-Silicon Labs CP2102 USB to UART Bridge Controller IC-9700 12001234-if00-port0"}, want: "IC-9700"},
		{port: serialPort{Product: "IC-R8600"}, want: "IC-R8600"},
		{port: serialPort{Product: "CP2102 USB to UART Bridge Controller"}, want: ""},
		{port: serialPort{Name: "ttyUSB0"}, want: ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, modelFromDescriptor(tt.port), tt.port)
	}
}

func TestDetect_Modes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		mode  detection.Mode
		paths []string
	}{
		{name: "Passive", mode: detection.Passive, paths: []string{"/dev/ttyS0", "/dev/ttyUSB0", "/dev/ttyUSB1"}},
		{name: "Safe", mode: detection.Safe, paths: []string{"/dev/ttyUSB0", "/dev/ttyUSB1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := &detector{list: staticList(testPorts)}
			opts := detection.DefaultOptions()
			opts.Mode = tt.mode

			devices, err := d.Detect(context.Background(), &opts)
			require.NoError(t, err)

			paths := make([]string, 0, len(devices))
			for _, dev := range devices {
				paths = append(paths, dev.Path)
			}
			assert.Equal(t, tt.paths, paths)
		})
	}
}

func TestDetect_DeviceInfo(t *testing.T) {
	t.Parallel()

	d := &detector{list: staticList(testPorts[1:2])}
	opts := detection.DefaultOptions()

	devices, err := d.Detect(context.Background(), &opts)
	require.NoError(t, err)
	require.Len(t, devices, 1)

	dev := devices[0]
	assert.Equal(t, "uart", dev.Transport)
	assert.Equal(t, "IC-7300", dev.Model)
	assert.Equal(t, "Silicon Labs CP210x", dev.Manufacturer)
	assert.Equal(t, detection.High, dev.Confidence)
}

func TestDetect_IgnorePaths(t *testing.T) {
	t.Parallel()

	d := &detector{list: staticList(testPorts)}
	opts := detection.DefaultOptions()
	opts.IgnorePaths = []string{"/dev/ttyUSB0", "/dev/ttyS0"}

	devices, err := d.Detect(context.Background(), &opts)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "/dev/ttyUSB1", devices[0].Path)
}

func TestDetect_ListError(t *testing.T) {
	t.Parallel()

	d := &detector{list: func(context.Context) ([]serialPort, error) {
		return nil, errors.New("no sysfs")
	}}
	opts := detection.DefaultOptions()
	_, err := d.Detect(context.Background(), &opts)
	require.Error(t, err)
}

func TestDetect_FullProbe(t *testing.T) {
	t.Parallel()

	type call struct {
		path  string
		baud  int
		first byte
		last  byte
	}
	var calls []call

	d := &detector{
		list: staticList(testPorts[:3]),
		probe: func(_ context.Context, path string, baud int, opts civ.ProbeOptions) (*civ.ProbeResult, error) {
			calls = append(calls, call{path: path, baud: baud, first: opts.First, last: opts.Last})
			switch {
			case path == "/dev/ttyUSB0":
				m, err := civ.LookupModel("IC-7300")
				if err != nil {
					return nil, err
				}
				return &civ.ProbeResult{Address: 0x94, ID: 0x94, Model: m}, nil
			case path == "/dev/ttyUSB1" && baud == 9600:
				return &civ.ProbeResult{Address: 0x5A, ID: 0x5A}, nil
			case path == "/dev/ttyS0":
				return nil, errors.New("permission denied")
			}
			return nil, nil
		},
	}

	opts := detection.DefaultOptions()
	opts.Mode = detection.Full

	devices, err := d.Detect(context.Background(), &opts)
	require.NoError(t, err)
	require.Len(t, devices, 2)

	assert.Equal(t, "/dev/ttyUSB0", devices[0].Path)
	assert.Equal(t, byte(0x94), devices[0].Address)
	assert.Equal(t, 115200, devices[0].BaudRate)
	assert.Equal(t, "IC-7300", devices[0].Model)

	assert.Equal(t, "/dev/ttyUSB1", devices[1].Path)
	assert.Equal(t, byte(0x5A), devices[1].Address)
	assert.Equal(t, 9600, devices[1].BaudRate)
	assert.Equal(t, detection.High, devices[1].Confidence)

	// the IC-7300's descriptor limits its probe to address 0x94
	assert.Contains(t, calls, call{path: "/dev/ttyUSB0", baud: 115200, first: 0x94, last: 0x94})
	assert.Contains(t, calls, call{path: "/dev/ttyUSB1", baud: 19200})
}

func TestDetect_FullProbeCancelled(t *testing.T) {
	t.Parallel()

	d := &detector{
		list: staticList(testPorts[1:2]),
		probe: func(context.Context, string, int, civ.ProbeOptions) (*civ.ProbeResult, error) {
			return nil, context.Canceled
		},
	}
	opts := detection.DefaultOptions()
	opts.Mode = detection.Full

	_, err := d.Detect(context.Background(), &opts)
	require.ErrorIs(t, err, context.Canceled)
}
