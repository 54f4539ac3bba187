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
	"context"
	"testing"
	"time"

	testutil "github.com/ZaparooProject/go-civ/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVirtualRig(t *testing.T, modelName string) (*Rig, *MockTransport, *testutil.VirtualRig) {
	t.Helper()

	model := mustModel(t, modelName)
	vr := testutil.NewVirtualRig()
	vr.Address = model.Address

	mock := NewMockTransport()
	mock.SetResponseFunc(vr.Handle)

	rig, err := Open(mock, model, WithRetryDelay(0), WithTimeout(50*time.Millisecond))
	require.NoError(t, err)
	return rig, mock, vr
}

func TestRig_Frequency(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rig, mock, vr := newVirtualRig(t, "IC-7300")

	require.NoError(t, rig.SetFreq(ctx, 7074000))
	assert.Equal(t, uint64(7074000), vr.GetFreq())
	assert.Equal(t,
		[]byte{0xFE, 0xFE, 0x94, 0xE0, 0x05, 0x00, 0x40, 0x07, 0x07, 0x00, 0xFD},
		mock.Written()[0])

	vr.SetFreq(145500000)
	hz, err := rig.GetFreq(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(145500000), hz)
}

func TestRig_GetFreqReplies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wantErr error
		name    string
		payload []byte
		want    uint64
	}{
		{name: "Blank_Memory", payload: []byte{CmdReadFreq, 0xFF}, want: FreqNone},
		{name: "Four_Bytes", payload: []byte{CmdReadFreq, 0x00, 0x40, 0x07, 0x07}, want: 7074000},
		{name: "Six_Bytes", payload: []byte{CmdReadFreq, 0x00, 0x00, 0x00, 0x00, 0x24, 0x01}, want: 12_400_000_000},
		{name: "Wrong_Length", payload: []byte{CmdReadFreq, 0x00, 0x40}, wantErr: ErrUnexpectedReply},
		{name: "Not_BCD", payload: []byte{CmdReadFreq, 0xAA, 0x40, 0x07, 0x07, 0x00}, wantErr: ErrUnexpectedReply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock := NewMockTransport()
			mock.SetResponse(CmdReadFreq, tt.payload)
			rig, err := Open(mock, nil, WithRetryDelay(0))
			require.NoError(t, err)

			hz, err := rig.GetFreq(context.Background())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, hz)
		})
	}
}

func TestRig_SetFreq731Mode(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	mock.SetAck(CmdSetFreq)
	rig, err := Open(mock, mustModel(t, "IC-731"), WithRetryDelay(0))
	require.NoError(t, err)

	require.NoError(t, rig.SetFreq(context.Background(), 7100000))
	assert.Equal(t,
		[]byte{0xFE, 0xFE, 0x02, 0xE0, 0x05, 0x00, 0x00, 0x10, 0x07, 0xFD},
		mock.Written()[0])

	err = rig.SetFreq(context.Background(), 1_000_000_000)
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestRig_SetMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		setup     func(*testutil.VirtualRig)
		name      string
		model     string
		mode      Mode
		wantFrame [][]byte
		width     Passband
	}{
		{
			name:  "Voice_Mode_Clears_Data",
			model: "IC-7300",
			mode:  ModeUSB,
			width: PassbandNormal,
			wantFrame: [][]byte{
				{0xFE, 0xFE, 0x94, 0xE0, 0x06, 0x01, 0xFD},
				{0xFE, 0xFE, 0x94, 0xE0, 0x1A, 0x06, 0x00, 0x00, 0xFD},
			},
		},
		{
			name:  "Data_Mode",
			model: "IC-7300",
			mode:  ModePKTUSB,
			width: 3000,
			wantFrame: [][]byte{
				{0xFE, 0xFE, 0x94, 0xE0, 0x06, 0x01, 0x01, 0xFD},
				{0xFE, 0xFE, 0x94, 0xE0, 0x1A, 0x06, 0x01, 0x01, 0xFD},
			},
		},
		{
			name:  "Keep_Current_Filter",
			model: "IC-910",
			mode:  ModeCW,
			width: PassbandNoChange,
			setup: func(vr *testutil.VirtualRig) { vr.Filter = 0x02 },
			wantFrame: [][]byte{
				{0xFE, 0xFE, 0x60, 0xE0, 0x04, 0xFD},
				{0xFE, 0xFE, 0x60, 0xE0, 0x06, 0x03, 0x02, 0xFD},
			},
		},
		{
			name:  "PSK_Code_For_Data",
			model: "IC-7800",
			mode:  ModePKTLSB,
			width: PassbandNormal,
			wantFrame: [][]byte{
				{0xFE, 0xFE, 0x6A, 0xE0, 0x06, 0x13, 0xFD},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rig, mock, vr := newVirtualRig(t, tt.model)
			if tt.setup != nil {
				tt.setup(vr)
			}

			require.NoError(t, rig.SetMode(context.Background(), tt.mode, tt.width))
			assert.Equal(t, tt.wantFrame, mock.Written())
		})
	}
}

func TestRig_GetMode(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rig, _, vr := newVirtualRig(t, "IC-7300")

	require.NoError(t, rig.SetMode(ctx, ModePKTUSB, PassbandNormal))
	assert.True(t, vr.DataMode)

	mode, width, err := rig.GetMode(ctx)
	require.NoError(t, err)
	assert.Equal(t, ModePKTUSB, mode)
	assert.Equal(t, Passband(3000), width)

	vr.NoFilterByte = true
	require.NoError(t, rig.SetMode(ctx, ModeCW, PassbandNormal))
	mode, width, err = rig.GetMode(ctx)
	require.NoError(t, err)
	assert.Equal(t, ModeCW, mode)
	assert.Equal(t, PassbandNormal, width)
}

func TestRig_SetModeUnsupported(t *testing.T) {
	t.Parallel()

	rig, mock, _ := newVirtualRig(t, "IC-910")
	err := rig.SetMode(context.Background(), ModeWFM, PassbandNormal)
	require.ErrorIs(t, err, ErrNotSupported)
	assert.Empty(t, mock.Written())
}

func TestRig_PTTAndSplit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rig, _, vr := newVirtualRig(t, "IC-7300")

	require.NoError(t, rig.SetPTT(ctx, true))
	assert.True(t, vr.GetPTTState())
	on, err := rig.GetPTT(ctx)
	require.NoError(t, err)
	assert.True(t, on)

	require.NoError(t, rig.SetPTT(ctx, false))
	on, err = rig.GetPTT(ctx)
	require.NoError(t, err)
	assert.False(t, on)

	require.NoError(t, rig.SetSplit(ctx, true))
	split, err := rig.GetSplit(ctx)
	require.NoError(t, err)
	assert.True(t, split)
}

func TestRig_CapabilityChecks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rig, mock, _ := newVirtualRig(t, "IC-731")

	assert.False(t, rig.Supports(HasPTT))
	assert.True(t, rig.Supports(HasVFO))
	require.ErrorIs(t, rig.SetPTT(ctx, true), ErrNotSupported)
	require.ErrorIs(t, rig.SetSplit(ctx, true), ErrNotSupported)
	require.ErrorIs(t, rig.SetLevel(ctx, LevelAF, 0.5), ErrNotSupported)
	_, err := rig.ReadMeter(ctx, MeterS)
	require.ErrorIs(t, err, ErrNotSupported)
	_, err = rig.TransceiverID(ctx)
	require.ErrorIs(t, err, ErrNotSupported)
	assert.Empty(t, mock.Written())
}

func TestRig_GenericSupportsEverything(t *testing.T) {
	t.Parallel()

	vr := testutil.NewVirtualRig()
	mock := NewMockTransport()
	mock.SetResponseFunc(vr.Handle)
	rig, err := Open(mock, nil, WithRetryDelay(0), WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	assert.True(t, rig.Supports(HasPTT|HasSplit|HasTrxID))
	require.NoError(t, rig.SetPTT(context.Background(), true))
	on, err := rig.GetPTT(context.Background())
	require.NoError(t, err)
	assert.True(t, on)
}

func TestRig_Levels(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rig, mock, vr := newVirtualRig(t, "IC-7300")

	require.NoError(t, rig.SetLevel(ctx, LevelAF, 1.0))
	assert.Equal(t, 255, vr.Level(SubLevelAF))
	assert.Equal(t, []byte{0xFE, 0xFE, 0x94, 0xE0, 0x14, 0x01, 0x02, 0x55, 0xFD}, mock.Written()[0])

	got, err := rig.GetLevel(ctx, LevelAF)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-9)

	require.NoError(t, rig.SetLevelRaw(ctx, LevelRFPower, 128))
	raw, err := rig.GetLevelRaw(ctx, LevelRFPower)
	require.NoError(t, err)
	assert.Equal(t, 128, raw)

	require.ErrorIs(t, rig.SetLevel(ctx, LevelAF, 1.5), ErrInvalidParameter)
	require.ErrorIs(t, rig.SetLevelRaw(ctx, LevelAF, 256), ErrInvalidParameter)
	require.ErrorIs(t, rig.SetLevel(ctx, Level(99), 0.5), ErrInvalidParameter)
}

func TestRig_Meters(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rig, _, vr := newVirtualRig(t, "IC-7300")

	raw, err := rig.ReadMeter(ctx, MeterS)
	require.NoError(t, err)
	assert.Equal(t, 120, raw)

	db, err := rig.StrengthDB(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, db, 1e-9)

	vr.SetMeter(SubMeterS, 20)
	db, err = rig.StrengthDB(ctx)
	require.NoError(t, err)
	assert.InDelta(t, -42.0, db, 1e-9)

	swr, err := rig.SWR(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, swr, 1e-9)
}

func TestRig_Funcs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rig, _, _ := newVirtualRig(t, "IC-7300")

	require.NoError(t, rig.SetFunc(ctx, FuncNB, true))
	on, err := rig.GetFunc(ctx, FuncNB)
	require.NoError(t, err)
	assert.True(t, on)

	on, err = rig.GetFunc(ctx, FuncVOX)
	require.NoError(t, err)
	assert.False(t, on)
}

func TestRig_VFO(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rig, mock, _ := newVirtualRig(t, "IC-7300")

	require.NoError(t, rig.SetVFO(ctx, VFOCurrent))
	assert.Empty(t, mock.Written())

	require.NoError(t, rig.SetVFO(ctx, VFOB))
	assert.Equal(t, []byte{0xFE, 0xFE, 0x94, 0xE0, 0x07, 0x01, 0xFD}, mock.Written()[0])

	require.ErrorIs(t, rig.SetVFO(ctx, VFO(42)), ErrInvalidParameter)
}

func TestRig_TransceiverID(t *testing.T) {
	t.Parallel()

	rig, _, _ := newVirtualRig(t, "IC-705")
	id, err := rig.TransceiverID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, byte(0xA4), id)
}

func TestRig_PowerStat(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rig, mock, vr := newVirtualRig(t, "IC-7300")
	vr.PowerOn = false

	on, err := rig.GetPowerStat(ctx)
	require.ErrorIs(t, err, ErrTimeout)
	assert.False(t, on)

	require.NoError(t, rig.SetPowerStat(ctx, true))
	on, err = rig.GetPowerStat(ctx)
	require.NoError(t, err)
	assert.True(t, on)

	var burst []byte
	for _, w := range mock.Written() {
		if len(w) > 7 && w[len(w)-3] == CmdSetPower && w[len(w)-2] == SubPowerOn {
			burst = w
		}
	}
	require.NotNil(t, burst)
	assert.Len(t, burst, WakeupPreamblesForBaud(115200)+7)

	require.NoError(t, rig.SetPowerStat(ctx, false))
	assert.False(t, vr.PowerOn)
}

func TestRig_PowerStatByFreq(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rig, _, vr := newVirtualRig(t, "IC-R75")

	on, err := rig.GetPowerStat(ctx)
	require.NoError(t, err)
	assert.True(t, on)

	vr.PowerOn = false
	on, err = rig.GetPowerStat(ctx)
	require.NoError(t, err)
	assert.False(t, on)
}

func TestRig_Raw(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rig, _, _ := newVirtualRig(t, "IC-7300")

	require.NoError(t, rig.SetRaw(ctx, CmdCtlLevel, SubLevelMicGain, testutil.LevelBCD(77)))
	data, err := rig.GetRaw(ctx, CmdCtlLevel, SubLevelMicGain, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x77}, data)
}

func TestNewRig_NilDevice(t *testing.T) {
	t.Parallel()

	_, err := NewRig(nil, nil)
	require.ErrorIs(t, err, ErrInvalidParameter)
}
