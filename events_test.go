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

	testutil "github.com/ZaparooProject/go-civ/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventRecorder struct {
	freqs   []uint64
	modes   []Mode
	widths  []Passband
	ptt     []bool
	unknown [][]byte
}

func (r *eventRecorder) handlers() EventHandlers {
	return EventHandlers{
		OnFrequency: func(hz uint64) error {
			r.freqs = append(r.freqs, hz)
			return nil
		},
		OnMode: func(mode Mode, width Passband) error {
			r.modes = append(r.modes, mode)
			r.widths = append(r.widths, width)
			return nil
		},
		OnPTT: func(on bool) error {
			r.ptt = append(r.ptt, on)
			return nil
		},
		OnUnknown: func(f []byte) error {
			r.unknown = append(r.unknown, f)
			return nil
		},
	}
}

func TestDecodeEvent(t *testing.T) {
	t.Parallel()

	rec := &eventRecorder{}
	h := rec.handlers()

	require.NoError(t, DecodeEvent(nil, testutil.BuildTransceiveFreq(7074000), h))
	require.NoError(t, DecodeEvent(nil, testutil.BuildTransceiveMode(0x03, 0x02), h))
	require.NoError(t, DecodeEvent(nil, testutil.BuildFrame(0x00, 0x94, 0x1C, 0x00, 0x01), h))
	require.NoError(t, DecodeEvent(nil, testutil.BuildFrame(0x00, 0x94, 0x1A, 0x05, 0x00), h))

	assert.Equal(t, []uint64{7074000}, rec.freqs)
	assert.Equal(t, []Mode{ModeCW}, rec.modes)
	assert.Equal(t, []Passband{500}, rec.widths)
	assert.Equal(t, []bool{true}, rec.ptt)
	require.Len(t, rec.unknown, 1)
	assert.Equal(t, byte(0x1A), rec.unknown[0][4])
}

func TestDecodeEvent_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wantErr  error
		handlers EventHandlers
		name     string
		frame    []byte
	}{
		{
			name:    "Malformed",
			frame:   []byte{0xFE, 0xFE, 0x00, 0x94, 0x00},
			wantErr: ErrProtocol,
		},
		{
			name:    "No_Frequency_Handler",
			frame:   testutil.BuildTransceiveFreq(7074000),
			wantErr: ErrNotSupported,
		},
		{
			name:    "No_Mode_Handler",
			frame:   testutil.BuildTransceiveMode(0x01, 0x01),
			wantErr: ErrNotSupported,
		},
		{
			name:    "Unknown_Command",
			frame:   testutil.BuildFrame(0x00, 0x94, 0x1A, 0x05, 0x00),
			wantErr: ErrNotSupported,
		},
		{
			name:  "Short_Frequency",
			frame: testutil.BuildFrame(0x00, 0x94, 0x00, 0x01),
			handlers: EventHandlers{
				OnFrequency: func(uint64) error { return nil },
			},
			wantErr: ErrProtocol,
		},
		{
			name:  "Unknown_Mode_Code",
			frame: testutil.BuildTransceiveMode(0x99, 0x01),
			handlers: EventHandlers{
				OnMode: func(Mode, Passband) error { return nil },
			},
			wantErr: ErrUnknownMode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := DecodeEvent(nil, tt.frame, tt.handlers)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEventHandlers_AsyncHandler(t *testing.T) {
	t.Parallel()

	rec := &eventRecorder{}
	mock := NewMockTransport()
	mock.SetUnsolicited(testutil.BuildTransceiveFreq(3573000), testutil.BuildTransceiveMode(0x00, 0x03))
	mock.SetAck(CmdSetPower)

	device := newTestDevice(t, mock, WithAsyncHandler(rec.handlers().AsyncHandler(nil)))
	require.NoError(t, device.TransactionAck(context.Background(), CmdSetPower, SubPowerOff, nil))

	assert.Equal(t, []uint64{3573000}, rec.freqs)
	assert.Equal(t, []Mode{ModeLSB}, rec.modes)
	assert.Equal(t, []Passband{1800}, rec.widths)
}

func TestDevice_DecodeEvent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wantErr error
		name    string
		inject  []byte
		want    []uint64
	}{
		{
			name:   "Frequency_Push",
			inject: testutil.BuildTransceiveFreq(14074000),
			want:   []uint64{14074000},
		},
		{
			name:   "Dropped_Preamble",
			inject: testutil.BuildTransceiveFreq(14074000)[1:],
			want:   []uint64{14074000},
		},
		{
			name:    "Idle_Bus",
			wantErr: ErrTransportTimeout,
		},
		{
			name:    "Collision",
			inject:  testutil.Collision,
			wantErr: ErrBusBusy,
		},
		{
			name:    "Truncated",
			inject:  []byte{0xFE, 0xFE, 0x00, 0x94},
			wantErr: ErrProtocol,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock := NewMockTransport()
			mock.Inject(tt.inject)
			device := newTestDevice(t, mock)

			rec := &eventRecorder{}
			err := device.DecodeEvent(context.Background(), nil, rec.handlers())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.freqs)
			assert.False(t, device.TransactionActive())
		})
	}
}
