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
	"bytes"
	"context"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	civ "github.com/ZaparooProject/go-civ"
	"github.com/ZaparooProject/go-civ/config"
	testutil "github.com/ZaparooProject/go-civ/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFreq(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    uint64
		wantErr bool
	}{
		{input: "14074000", want: 14074000},
		{input: "14.074M", want: 14074000},
		{input: "7074k", want: 7074000},
		{input: "1.2G", want: 1200000000},
		{input: " 3.5735m ", want: 3573500},
		{input: "", wantErr: true},
		{input: "-5", wantErr: true},
		{input: "ten", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := parseFreq(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, civ.ErrInvalidParameter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseOnOff(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"on", "ON", "1", "true", "tx"} {
		on, err := parseOnOff(s)
		require.NoError(t, err, s)
		assert.True(t, on, s)
	}
	for _, s := range []string{"off", "0", "false", "RX"} {
		on, err := parseOnOff(s)
		require.NoError(t, err, s)
		assert.False(t, on, s)
	}
	_, err := parseOnOff("maybe")
	require.ErrorIs(t, err, civ.ErrInvalidParameter)
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rig.yaml")
	data := "rig:\n  model: IC-705\ntransport:\n  port: /dev/ttyACM0\n  baud: 115200\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f, err := parseFlags(fs, []string{
		"-config", path, "-tcp", "10.0.0.2:4532", "-addr", "94", "-timeout", "250ms", "-debug", "freq",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"freq"}, fs.Args())

	cfg, err := buildConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "IC-705", cfg.Rig.Model)
	assert.Equal(t, "94", cfg.Rig.Address)
	assert.Equal(t, "250ms", cfg.Rig.Timeout)
	assert.Equal(t, config.TransportTCP, cfg.Transport.Type)
	assert.Equal(t, "10.0.0.2:4532", cfg.Transport.Address)
	assert.Equal(t, 115200, cfg.Transport.Baud)
	assert.Equal(t, "debug", cfg.Logging.Level)
	require.NoError(t, cfg.Validate())
}

func TestRun_Usage(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	assert.Equal(t, 2, run([]string{"-bogus-flag"}, &out))
	assert.Equal(t, 2, run(nil, &out))
	assert.Equal(t, 1, run([]string{"-device", "/dev/ttyUSB0", "transmogrify"}, &out))
	assert.Contains(t, out.String(), `unknown command "transmogrify"`)
}

func newTestSession(t *testing.T) (*session, *testutil.VirtualRig, *bytes.Buffer) {
	t.Helper()

	model, err := civ.LookupModel("IC-7300")
	require.NoError(t, err)
	vr := testutil.NewVirtualRig()
	mock := civ.NewMockTransport()
	mock.SetResponseFunc(vr.Handle)
	rig, err := civ.Open(mock, model, civ.WithRetryDelay(0), civ.WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	var buf bytes.Buffer
	cfg := config.Default()
	cfg.Transport.Port = "/dev/ttyUSB0"
	return &session{rig: rig, cfg: cfg, out: NewOutput(&buf, false)}, vr, &buf
}

func lastLine(buf *bytes.Buffer) string {
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	return lines[len(lines)-1]
}

func TestCommands(t *testing.T) {
	t.Parallel()

	s, vr, buf := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, cmdFreq(ctx, s, nil))
	assert.Equal(t, "14074000", lastLine(buf))

	require.NoError(t, cmdFreq(ctx, s, []string{"7.074M"}))
	assert.Equal(t, uint64(7074000), vr.GetFreq())
	assert.Equal(t, "OK: Frequency set to 7074000 Hz", lastLine(buf))

	require.NoError(t, cmdMode(ctx, s, []string{"cw"}))
	require.NoError(t, cmdMode(ctx, s, nil))
	assert.True(t, strings.HasPrefix(lastLine(buf), "CW "), lastLine(buf))

	require.NoError(t, cmdPTT(ctx, s, []string{"on"}))
	assert.True(t, vr.GetPTTState())
	require.NoError(t, cmdPTT(ctx, s, nil))
	assert.Equal(t, "on", lastLine(buf))

	require.NoError(t, cmdSplit(ctx, s, []string{"on"}))
	require.NoError(t, cmdSplit(ctx, s, nil))
	assert.Equal(t, "on", lastLine(buf))

	require.NoError(t, cmdPower(ctx, s, nil))
	assert.Equal(t, "on", lastLine(buf))

	require.NoError(t, cmdID(ctx, s, nil))
	assert.Equal(t, "0x94", lastLine(buf))

	require.NoError(t, cmdMeter(ctx, s, nil))
	assert.True(t, strings.HasSuffix(lastLine(buf), " dB"), lastLine(buf))
	require.NoError(t, cmdMeter(ctx, s, []string{"alc"}))
	assert.Equal(t, "0", lastLine(buf))
}

func TestCommands_Errors(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestSession(t)
	ctx := context.Background()

	require.ErrorIs(t, cmdFreq(ctx, s, []string{"lots"}), civ.ErrInvalidParameter)
	require.ErrorIs(t, cmdMode(ctx, s, []string{"SSTV"}), civ.ErrUnknownMode)
	require.ErrorIs(t, cmdMode(ctx, s, []string{"USB", "wide"}), civ.ErrInvalidParameter)
	require.ErrorIs(t, cmdPTT(ctx, s, []string{"sometimes"}), civ.ErrInvalidParameter)
	require.ErrorIs(t, cmdMeter(ctx, s, []string{"smoke"}), civ.ErrInvalidParameter)
}

func TestCmdMonitor(t *testing.T) {
	t.Parallel()

	s, _, buf := newTestSession(t)
	s.cfg.Monitor.Interval = "5ms"
	s.cfg.Monitor.IdleInterval = "20ms"

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.NoError(t, cmdMonitor(ctx, s, nil))

	out := buf.String()
	assert.Contains(t, out, "FREQ 14074000")
	assert.Contains(t, out, "MODE USB")
	assert.Contains(t, out, "INFO: Rig online")
}

func TestOutput_Verbose(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewOutput(&buf, false).Verbose("hidden")
	assert.Empty(t, buf.String())

	NewOutput(io.MultiWriter(&buf), true).Verbose("shown %d", 1)
	assert.Equal(t, "shown 1\n", buf.String())
}
