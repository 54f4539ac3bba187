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
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ZaparooProject/go-civ/internal/frame"
	"github.com/ZaparooProject/go-civ/internal/retry"
)

// FreqNone is reported for a blank memory channel
const FreqNone uint64 = 0

// powerPollInterval is how often a waking rig is polled after power-on
const powerPollInterval = 500 * time.Millisecond

// Ops overrides individual rig operations for models that do not follow
// the common command set. Nil entries use the default implementation.
type Ops struct {
	SetFreq      func(ctx context.Context, r *Rig, hz uint64) error
	GetFreq      func(ctx context.Context, r *Rig) (uint64, error)
	SetMode      func(ctx context.Context, r *Rig, mode Mode, width Passband) error
	GetMode      func(ctx context.Context, r *Rig) (Mode, Passband, error)
	GetPowerStat func(ctx context.Context, r *Rig) (bool, error)
}

// RigInterface is the rig control surface used by the monitor, the PTT
// keyers and test doubles.
type RigInterface interface {
	SetFreq(ctx context.Context, hz uint64) error
	GetFreq(ctx context.Context) (uint64, error)
	SetMode(ctx context.Context, mode Mode, width Passband) error
	GetMode(ctx context.Context) (Mode, Passband, error)
	SetPTT(ctx context.Context, on bool) error
	GetPTT(ctx context.Context) (bool, error)
	SetPowerStat(ctx context.Context, on bool) error
	GetPowerStat(ctx context.Context) (bool, error)
	SetVFO(ctx context.Context, vfo VFO) error
	SetSplit(ctx context.Context, on bool) error
	GetSplit(ctx context.Context) (bool, error)
	SetLevel(ctx context.Context, level Level, value float64) error
	GetLevel(ctx context.Context, level Level) (float64, error)
	ReadMeter(ctx context.Context, meter Meter) (int, error)
	SetFunc(ctx context.Context, fn Func, on bool) error
	GetFunc(ctx context.Context, fn Func) (bool, error)
	TransceiverID(ctx context.Context) (byte, error)
	Close() error
}

// Rig wraps a Device with the operations of one rig model.
// Like Device it is not safe for concurrent use.
type Rig struct {
	device *Device
	model  *Model
}

var _ RigInterface = (*Rig)(nil)

// NewRig binds a device to a model. A nil model selects generic Icom
// behavior with every capability assumed present.
func NewRig(device *Device, model *Model) (*Rig, error) {
	if device == nil {
		return nil, fmt.Errorf("%w: nil device", ErrInvalidParameter)
	}
	return &Rig{device: device, model: model}, nil
}

// Open creates a Device for model on transport and wraps it in a Rig.
// opts are applied after the model's defaults and may override them.
func Open(transport Transport, model *Model, opts ...Option) (*Rig, error) {
	var all []Option
	if model != nil {
		all = append(all, model.DeviceOptions()...)
	}
	all = append(all, opts...)

	device, err := New(transport, all...)
	if err != nil {
		return nil, err
	}
	return NewRig(device, model)
}

// Device returns the underlying device
func (r *Rig) Device() *Device {
	return r.device
}

// Model returns the rig model, nil for a generic rig
func (r *Rig) Model() *Model {
	return r.model
}

// Close closes the underlying transport
func (r *Rig) Close() error {
	return r.device.Close()
}

// Supports reports whether the rig has capability c. A rig opened without
// a model is assumed to have every capability.
func (r *Rig) Supports(c Capability) bool {
	return r.model == nil || r.model.Supports(c)
}

func (r *Rig) require(c Capability, what string) error {
	if r.Supports(c) {
		return nil
	}
	return fmt.Errorf("%w: %s on %s", ErrNotSupported, what, r.model.Name)
}

// SetFreq tunes the current VFO to hz
func (r *Rig) SetFreq(ctx context.Context, hz uint64) error {
	if r.model != nil && r.model.Ops.SetFreq != nil {
		return r.model.Ops.SetFreq(ctx, r, hz)
	}

	digits := r.model.freqDigits()
	if digits == 10 && hz >= 10_000_000_000 {
		digits = 12
	}
	if hz >= uint64(math.Pow10(digits)) {
		return fmt.Errorf("%w: frequency %d out of range", ErrInvalidParameter, hz)
	}

	return r.device.TransactionAck(ctx, CmdSetFreq, NoSubCmd, ToBCD(hz, digits))
}

// GetFreq reads the current frequency in Hz. A blank memory channel
// reads as FreqNone.
func (r *Rig) GetFreq(ctx context.Context) (uint64, error) {
	if r.model != nil && r.model.Ops.GetFreq != nil {
		return r.model.Ops.GetFreq(ctx, r)
	}

	reply, err := r.device.TransactionContext(ctx, CmdReadFreq, NoSubCmd, nil)
	if err != nil {
		return 0, err
	}
	return r.decodeFreq(reply)
}

// decodeFreq parses a frequency payload, command byte first
func (r *Rig) decodeFreq(payload []byte) (uint64, error) {
	if len(payload) < 2 {
		return 0, fmt.Errorf("%w: frequency reply % X", ErrUnexpectedReply, payload)
	}

	data := payload[1:]
	if len(data) == 1 && data[0] == frame.Pad {
		return FreqNone, nil
	}

	switch len(data) {
	case 4, 5, 6:
	default:
		return 0, fmt.Errorf("%w: frequency field of %d bytes", ErrUnexpectedReply, len(data))
	}
	if len(data)*2 != r.model.freqDigits() && len(data) != 6 {
		debugf("frequency field is %d bytes, expected %d", len(data), r.model.freqDigits()/2)
	}
	if !ValidBCD(data) {
		return 0, fmt.Errorf("%w: frequency % X is not BCD", ErrUnexpectedReply, data)
	}

	return FromBCD(data, len(data)*2), nil
}

// SetMode selects mode and filter width. PassbandNoChange keeps the filter
// the rig currently uses.
func (r *Rig) SetMode(ctx context.Context, mode Mode, width Passband) error {
	if r.model != nil && r.model.Ops.SetMode != nil {
		return r.model.Ops.SetMode(ctx, r, mode, width)
	}
	if !r.model.SupportsMode(mode) {
		return fmt.Errorf("%w: mode %s", ErrNotSupported, mode)
	}

	im, err := ModeToIcom(r.model, mode, width)
	if err != nil {
		return err
	}

	filter := im.Filter
	if width == PassbandNoChange {
		_, current, err := r.readMode(ctx)
		if err != nil {
			return err
		}
		filter = current
	}
	if r.model != nil && r.model.CIV731Mode {
		filter = FilterNone
	}

	var data []byte
	if filter != FilterNone {
		data = []byte{byte(filter)}
	}
	if err := r.device.TransactionAck(ctx, CmdSetMode, int(im.Code), data); err != nil {
		return err
	}

	if r.model == nil || !r.model.DataModeCmd {
		return nil
	}

	dm := []byte{0x00, 0x00}
	if im.Data {
		f := filter
		if f == FilterNone {
			f = FilterWide
		}
		dm = []byte{0x01, byte(f)}
	}
	return r.device.TransactionAck(ctx, CmdCtlMem, SubMemDataMode, dm)
}

// GetMode reads the current mode and filter width
func (r *Rig) GetMode(ctx context.Context) (Mode, Passband, error) {
	if r.model != nil && r.model.Ops.GetMode != nil {
		return r.model.Ops.GetMode(ctx, r)
	}

	code, filter, err := r.readMode(ctx)
	if err != nil {
		return ModeNone, PassbandNormal, err
	}

	mode, width, err := IcomToMode(r.model, code, filter)
	if err != nil {
		return ModeNone, PassbandNormal, err
	}

	if r.model != nil && r.model.DataModeCmd && mode != ModeNone {
		reply, err := r.device.TransactionContext(ctx, CmdCtlMem, SubMemDataMode, nil)
		if err != nil {
			return ModeNone, PassbandNormal, err
		}
		if len(reply) >= 3 && reply[2] != 0x00 {
			mode = mode.WithData()
		}
	}

	return mode, width, nil
}

// readMode returns the raw mode code and filter byte; the filter is
// FilterNone when the rig omits it
func (r *Rig) readMode(ctx context.Context) (byte, int, error) {
	reply, err := r.device.TransactionContext(ctx, CmdReadMode, NoSubCmd, nil)
	if err != nil {
		return 0, FilterNone, err
	}

	switch len(reply) {
	case 2:
		return reply[1], FilterNone, nil
	case 3:
		return reply[1], int(reply[2]), nil
	default:
		return 0, FilterNone, fmt.Errorf("%w: mode reply % X", ErrUnexpectedReply, reply)
	}
}

// SetPTT keys or unkeys the transmitter
func (r *Rig) SetPTT(ctx context.Context, on bool) error {
	if err := r.require(HasPTT, "PTT"); err != nil {
		return err
	}
	return r.device.TransactionAck(ctx, CmdCtlPTT, SubPTT, []byte{boolByte(on)})
}

// GetPTT reports whether the transmitter is keyed
func (r *Rig) GetPTT(ctx context.Context) (bool, error) {
	if err := r.require(HasPTT, "PTT"); err != nil {
		return false, err
	}
	reply, err := r.device.TransactionContext(ctx, CmdCtlPTT, SubPTT, nil)
	if err != nil {
		return false, err
	}
	return replyBool(reply, 3)
}

// SetPowerStat turns the rig on or off. Power-on sends the wake-up burst
// in a single attempt, then polls the frequency until the rig answers or
// the model's power-on wait elapses.
func (r *Rig) SetPowerStat(ctx context.Context, on bool) error {
	if err := r.require(HasPower, "power control"); err != nil {
		return err
	}

	if !on {
		return r.device.TransactionAck(ctx, CmdSetPower, SubPowerOff, nil)
	}

	reply, err := r.device.TransactionOnce(ctx, CmdSetPower, SubPowerOn, nil)
	if err == nil {
		if err := checkAck(CmdSetPower, reply); err != nil {
			return err
		}
	} else if !IsRetryable(err) {
		return err
	} else {
		// A sleeping rig often misses the command itself; its response to
		// the following polls is what counts.
		debugf("power-on command not acknowledged: %v", err)
	}

	wait := r.device.config.Timeout
	if r.model != nil && r.model.PowerOnWait > wait {
		wait = r.model.PowerOnWait
	}

	_, err = retry.UntilTimeout(ctx, wait, powerPollInterval, func() (uint64, bool, error) {
		reply, err := r.device.TransactionOnce(ctx, CmdReadFreq, NoSubCmd, nil)
		if err != nil {
			return 0, IsRetryable(err), err
		}
		hz, err := r.decodeFreq(reply)
		return hz, false, err
	})
	if err != nil {
		return fmt.Errorf("rig did not come up after power-on: %w", err)
	}
	return nil
}

// GetPowerStat reports whether the rig is powered on
func (r *Rig) GetPowerStat(ctx context.Context) (bool, error) {
	if r.model != nil && r.model.Ops.GetPowerStat != nil {
		return r.model.Ops.GetPowerStat(ctx, r)
	}
	if err := r.require(HasPower, "power status"); err != nil {
		return false, err
	}

	reply, err := r.device.TransactionContext(ctx, CmdSetPower, NoSubCmd, nil)
	if err != nil {
		return false, err
	}
	if len(reply) != 2 || reply[0] != CmdSetPower {
		return false, fmt.Errorf("%w: power status reply % X", ErrUnexpectedReply, reply)
	}
	return reply[1] == SubPowerOn, nil
}

// powerStatByFreq infers power status from whether the rig answers a
// frequency read, for receivers without a power status command
func powerStatByFreq(ctx context.Context, r *Rig) (bool, error) {
	_, err := r.device.TransactionOnce(ctx, CmdReadFreq, NoSubCmd, nil)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrTimeout), errors.Is(err, ErrBusError):
		return false, nil
	default:
		return false, err
	}
}

// SetVFO selects a VFO. VFOCurrent is a no-op.
func (r *Rig) SetVFO(ctx context.Context, vfo VFO) error {
	if vfo == VFOCurrent {
		return nil
	}
	if err := r.require(HasVFO, "VFO selection"); err != nil {
		return err
	}
	sub, err := vfo.subcmd()
	if err != nil {
		return err
	}
	return r.device.TransactionAck(ctx, CmdSetVFO, sub, nil)
}

// SetSplit turns split operation on or off
func (r *Rig) SetSplit(ctx context.Context, on bool) error {
	if err := r.require(HasSplit, "split"); err != nil {
		return err
	}
	sub := SubSplitOff
	if on {
		sub = SubSplitOn
	}
	return r.device.TransactionAck(ctx, CmdCtlSplit, sub, nil)
}

// GetSplit reports whether split is on
func (r *Rig) GetSplit(ctx context.Context) (bool, error) {
	if err := r.require(HasSplit, "split"); err != nil {
		return false, err
	}
	reply, err := r.device.TransactionContext(ctx, CmdCtlSplit, NoSubCmd, nil)
	if err != nil {
		return false, err
	}
	if len(reply) != 2 {
		return false, fmt.Errorf("%w: split reply % X", ErrUnexpectedReply, reply)
	}
	switch reply[1] {
	case SubSplitOff:
		return false, nil
	case SubSplitOn:
		return true, nil
	default:
		return false, fmt.Errorf("%w: split state 0x%02X", ErrUnexpectedReply, reply[1])
	}
}

// SetLevel sets a level from 0.0 to 1.0
func (r *Rig) SetLevel(ctx context.Context, level Level, value float64) error {
	if value < 0 || value > 1 || math.IsNaN(value) {
		return fmt.Errorf("%w: level %s value %v outside 0..1", ErrInvalidParameter, level, value)
	}
	return r.SetLevelRaw(ctx, level, int(math.Round(value*255)))
}

// GetLevel reads a level as 0.0 to 1.0
func (r *Rig) GetLevel(ctx context.Context, level Level) (float64, error) {
	raw, err := r.GetLevelRaw(ctx, level)
	if err != nil {
		return 0, err
	}
	return float64(raw) / 255, nil
}

// SetLevelRaw sets a level to its raw 0-255 value
func (r *Rig) SetLevelRaw(ctx context.Context, level Level, raw int) error {
	sub, err := r.levelSubCmd(level)
	if err != nil {
		return err
	}
	if raw < 0 || raw > 255 {
		return fmt.Errorf("%w: level %s raw value %d outside 0..255", ErrInvalidParameter, level, raw)
	}
	return r.device.TransactionAck(ctx, CmdCtlLevel, sub, ToBCDBE(uint64(raw), 4))
}

// GetLevelRaw reads a level's raw 0-255 value
func (r *Rig) GetLevelRaw(ctx context.Context, level Level) (int, error) {
	sub, err := r.levelSubCmd(level)
	if err != nil {
		return 0, err
	}
	return r.readBCDValue(ctx, CmdCtlLevel, sub)
}

func (r *Rig) levelSubCmd(level Level) (int, error) {
	sub, err := level.subcmd()
	if err != nil {
		return 0, err
	}
	if r.model != nil && !containsItem(r.model.Levels, level) {
		return 0, fmt.Errorf("%w: level %s", ErrNotSupported, level)
	}
	return sub, nil
}

// ReadMeter reads a meter's raw 0-255 value
func (r *Rig) ReadMeter(ctx context.Context, meter Meter) (int, error) {
	sub, err := meter.subcmd()
	if err != nil {
		return 0, err
	}
	if r.model != nil && !containsItem(r.model.Meters, meter) {
		return 0, fmt.Errorf("%w: meter %s", ErrNotSupported, meter)
	}
	return r.readBCDValue(ctx, CmdReadMeter, sub)
}

// StrengthDB reads the S-meter and converts it to dB relative to S9 using
// the model's calibration table
func (r *Rig) StrengthDB(ctx context.Context) (float64, error) {
	raw, err := r.ReadMeter(ctx, MeterS)
	if err != nil {
		return 0, err
	}
	var table []CalPoint
	if r.model != nil {
		table = r.model.StrCal
	}
	return interpolate(table, raw), nil
}

// SWR reads the SWR meter and converts it to a ratio using the model's
// calibration table
func (r *Rig) SWR(ctx context.Context) (float64, error) {
	raw, err := r.ReadMeter(ctx, MeterSWR)
	if err != nil {
		return 0, err
	}
	var table []CalPoint
	if r.model != nil {
		table = r.model.SWRCal
	}
	return interpolate(table, raw), nil
}

// readBCDValue reads a command whose reply is cmd, sub, then a 4 digit
// big-endian BCD value
func (r *Rig) readBCDValue(ctx context.Context, cmd byte, sub int) (int, error) {
	reply, err := r.device.TransactionContext(ctx, cmd, sub, nil)
	if err != nil {
		return 0, err
	}
	if len(reply) != 4 || reply[1] != byte(sub) {
		return 0, fmt.Errorf("%w: command 0x%02X 0x%02X reply % X", ErrUnexpectedReply, cmd, sub, reply)
	}
	if !ValidBCD(reply[2:]) {
		return 0, fmt.Errorf("%w: value % X is not BCD", ErrUnexpectedReply, reply[2:])
	}
	return int(FromBCDBE(reply[2:], 4)), nil
}

// SetFunc switches a function on or off
func (r *Rig) SetFunc(ctx context.Context, fn Func, on bool) error {
	sub, err := r.funcSubCmd(fn)
	if err != nil {
		return err
	}
	return r.device.TransactionAck(ctx, CmdCtlFunc, sub, []byte{boolByte(on)})
}

// GetFunc reports whether a function is on
func (r *Rig) GetFunc(ctx context.Context, fn Func) (bool, error) {
	sub, err := r.funcSubCmd(fn)
	if err != nil {
		return false, err
	}
	reply, err := r.device.TransactionContext(ctx, CmdCtlFunc, sub, nil)
	if err != nil {
		return false, err
	}
	return replyBool(reply, 3)
}

func (r *Rig) funcSubCmd(fn Func) (int, error) {
	sub, err := fn.subcmd()
	if err != nil {
		return 0, err
	}
	if r.model != nil && !containsItem(r.model.Funcs, fn) {
		return 0, fmt.Errorf("%w: function %s", ErrNotSupported, fn)
	}
	return sub, nil
}

// TransceiverID reads the rig's CI-V address as reported by the rig itself
func (r *Rig) TransceiverID(ctx context.Context) (byte, error) {
	if err := r.require(HasTrxID, "transceiver ID"); err != nil {
		return 0, err
	}
	reply, err := r.device.TransactionContext(ctx, CmdReadTrxID, SubReadTrxID, nil)
	if err != nil {
		return 0, err
	}
	if len(reply) != 3 {
		return 0, fmt.Errorf("%w: transceiver ID reply % X", ErrUnexpectedReply, reply)
	}
	return reply[2], nil
}

// SetRaw sends an arbitrary command whose reply must be an ACK
func (r *Rig) SetRaw(ctx context.Context, cmd byte, subcmd int, data []byte) error {
	return r.device.TransactionAck(ctx, cmd, subcmd, data)
}

// GetRaw sends an arbitrary command and returns the reply data following
// the echoed command and sub-command bytes
func (r *Rig) GetRaw(ctx context.Context, cmd byte, subcmd int, data []byte) ([]byte, error) {
	reply, err := r.device.TransactionContext(ctx, cmd, subcmd, data)
	if err != nil {
		return nil, err
	}

	skip := 1
	if subcmd != NoSubCmd {
		sub, err := frame.SubCmdBytes(subcmd, r.device.config.MultiByteSubCmd)
		if err != nil {
			return nil, err
		}
		skip += len(sub)
	}
	if len(reply) < skip || reply[0] != cmd {
		return nil, fmt.Errorf("%w: command 0x%02X reply % X", ErrUnexpectedReply, cmd, reply)
	}
	return reply[skip:], nil
}

func replyBool(reply []byte, want int) (bool, error) {
	if len(reply) != want {
		return false, fmt.Errorf("%w: reply % X", ErrUnexpectedReply, reply)
	}
	return reply[want-1] != 0x00, nil
}

func boolByte(on bool) byte {
	if on {
		return 0x01
	}
	return 0x00
}

func containsItem[T comparable](list []T, item T) bool {
	for _, v := range list {
		if v == item {
			return true
		}
	}
	return false
}
