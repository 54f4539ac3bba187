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
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-civ/internal/frame"
	"github.com/ZaparooProject/go-civ/internal/retry"
)

const (
	opEcho  = "echo"
	opReply = "reply"
)

// Transaction sends a command and returns the reply payload: the reply's
// command byte followed by its data. An ACK reply yields []byte{ACK}.
func (d *Device) Transaction(cmd byte, subcmd int, data []byte) ([]byte, error) {
	return d.TransactionContext(context.Background(), cmd, subcmd, data)
}

// TransactionContext is Transaction with cancellation. Recoverable failures
// (collision, missing echo, garbled frame, timeout) are retried up to the
// configured retry count; a NAK or an I/O failure is returned at once.
// When retries run out the last failure is returned.
func (d *Device) TransactionContext(ctx context.Context, cmd byte, subcmd int, data []byte) ([]byte, error) {
	return d.withRetry(ctx, d.config.Retry, cmd, subcmd, data, true)
}

// TransactionOnce performs a single attempt without retrying
func (d *Device) TransactionOnce(ctx context.Context, cmd byte, subcmd int, data []byte) ([]byte, error) {
	return d.oneTransaction(ctx, cmd, subcmd, data, true)
}

// SendContext sends a command that the rig does not answer.
// The echo, when expected, is still verified.
func (d *Device) SendContext(ctx context.Context, cmd byte, subcmd int, data []byte) error {
	_, err := d.withRetry(ctx, d.config.Retry, cmd, subcmd, data, false)
	return err
}

// Send is SendContext with a background context
func (d *Device) Send(cmd byte, subcmd int, data []byte) error {
	return d.SendContext(context.Background(), cmd, subcmd, data)
}

// TransactionAck runs a transaction and requires a bare ACK reply
func (d *Device) TransactionAck(ctx context.Context, cmd byte, subcmd int, data []byte) error {
	reply, err := d.TransactionContext(ctx, cmd, subcmd, data)
	if err != nil {
		return err
	}
	return checkAck(cmd, reply)
}

func checkAck(cmd byte, reply []byte) error {
	if len(reply) == 1 && reply[0] == frame.ACK {
		return nil
	}
	return fmt.Errorf("%w: command 0x%02X answered with % X", ErrUnexpectedReply, cmd, reply)
}

func (d *Device) withRetry(
	ctx context.Context, maxRetries int, cmd byte, subcmd int, data []byte, expectReply bool,
) ([]byte, error) {
	return retry.Do(ctx, retry.Config{
		Description: fmt.Sprintf("command 0x%02X", cmd),
		MaxRetries:  maxRetries,
		RetryDelay:  d.config.RetryDelay,
		OnRetry: func(attempt int, err error) error {
			debugf("command 0x%02X attempt %d of %d after: %v", cmd, attempt+1, maxRetries+1, err)
			return nil
		},
		OnRetryFailed: func(lastErr error) error {
			debugf("command 0x%02X failed after %d attempts: %v", cmd, maxRetries+1, lastErr)
			return nil
		},
	}, func() ([]byte, bool, error) {
		reply, err := d.oneTransaction(ctx, cmd, subcmd, data, expectReply)
		if err != nil {
			return nil, retryTransaction(ctx, err), err
		}
		return reply, false, nil
	})
}

// retryTransaction reports whether a failed attempt is repeated. A NAK, a
// bad argument or a cancelled context is final; write and read failures are
// retried like bus errors.
func retryTransaction(ctx context.Context, err error) bool {
	switch {
	case ctx.Err() != nil,
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	case IsRejected(err), errors.Is(err, ErrInvalidParameter):
		return false
	default:
		return true
	}
}

// oneTransaction performs a single command/reply exchange:
// flush, write, verify the echo, then read frames until the reply arrives.
// Asynchronous frames seen while waiting are handed to the async handler.
func (d *Device) oneTransaction(
	ctx context.Context, cmd byte, subcmd int, data []byte, expectReply bool,
) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sendBuf, err := frame.Build(d.config.CIVAddress, d.config.ControllerAddress, cmd, subcmd, data,
		d.config.MultiByteSubCmd)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParameter, err)
	}

	d.active.Store(true)
	defer d.active.Store(false)

	if err := d.transport.Flush(); err != nil {
		debugf("flush before command 0x%02X failed: %v", cmd, err)
	}

	out := sendBuf
	wakeup := d.wakeupCount(cmd, subcmd, len(sendBuf))
	if wakeup > 0 {
		out = append(bytes.Repeat([]byte{frame.Preamble}, wakeup), sendBuf...)
	}

	debugf("TX % X", sendBuf)
	if err := d.transport.Write(out); err != nil {
		return nil, ioError("write", err)
	}

	if d.expectsEcho() {
		if err := d.readEcho(sendBuf, wakeup > 0); err != nil {
			return nil, err
		}
	}

	if !expectReply {
		return nil, nil
	}

	return d.readReply(ctx, sendBuf)
}

// wakeupCount returns how many FE bytes to send ahead of this command
func (d *Device) wakeupCount(cmd byte, subcmd, frameLen int) int {
	if cmd != CmdSetPower || subcmd != SubPowerOn {
		return 0
	}
	n := d.config.WakeupPreambles
	if room := d.config.MaxFrameLength - frameLen; n > room {
		n = room
	}
	return n
}

func (d *Device) readEcho(sent []byte, wakeup bool) error {
	n, err := ReadFrame(d.transport, d.readBuf[:d.config.MaxFrameLength], d.config.EmptyReadRetries)
	if err != nil {
		if errors.Is(err, ErrTransportTimeout) {
			return NewBusError(opEcho, "interface is not echoing")
		}
		return ioError("read", err)
	}
	if n == 0 {
		return NewBusError(opEcho, "interface is not echoing")
	}

	echo := d.readBuf[:n]
	debugf("echo % X", echo)

	switch echo[n-1] {
	case frame.Collision:
		return NewBusBusyError(opEcho)
	case frame.EOM:
	default:
		return NewBusError(opEcho, "echo not terminated")
	}

	if wakeup {
		echo = frame.CollapsePreamble(echo)
	}

	if len(echo) != len(sent) {
		return NewProtocolError(opEcho, fmt.Sprintf("echo is %d bytes, sent %d", len(echo), len(sent)))
	}
	if !bytes.Equal(echo, sent) {
		return NewProtocolError(opEcho, fmt.Sprintf("echo % X differs from sent % X", echo, sent))
	}
	return nil
}

func (d *Device) readReply(ctx context.Context, sent []byte) ([]byte, error) {
	deadline := time.Now().Add(d.config.Timeout)
	cmd := sent[4]

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := ReadFrame(d.transport, d.readBuf[:d.config.MaxFrameLength], d.config.EmptyReadRetries)
		if err != nil {
			if errors.Is(err, ErrTransportTimeout) {
				return nil, NewDeadlineError(opReply, fmt.Sprintf("no reply to command 0x%02X", cmd))
			}
			return nil, ioError("read", err)
		}
		if n == 0 {
			return nil, NewDeadlineError(opReply, fmt.Sprintf("no reply to command 0x%02X", cmd))
		}
		if d.readBuf[n-1] == frame.Collision {
			return nil, NewBusBusyError(opReply)
		}

		n, err = frame.FixPreamble(d.readBuf, n)
		if err != nil {
			return nil, NewProtocolError(opReply, fmt.Sprintf("%v: % X", err, d.readBuf[:n]))
		}
		reply := frame.Frame(d.readBuf[:n])
		debugf("RX % X", []byte(reply))

		switch frame.Classify(reply) {
		case frame.ClassCollision:
			return nil, NewBusBusyError(opReply)
		case frame.ClassRejected:
			return nil, NewRejectedError(opReply, cmd)
		case frame.ClassInvalid:
			return nil, NewProtocolError(opReply, fmt.Sprintf("malformed frame % X", []byte(reply)))
		case frame.ClassReply, frame.ClassAsync:
		}

		switch {
		case reply.Equal(sent):
			// Late echo from an interface assumed not to echo
			debugln("skipping echo of sent frame")
		case d.isAsync(reply):
			d.dispatchAsync(reply)
		default:
			d.checkAddresses(reply)
			return append([]byte(nil), reply.Payload()...), nil
		}

		if time.Now().After(deadline) {
			return nil, NewDeadlineError(opReply,
				fmt.Sprintf("unsolicited frames kept arriving, no reply to command 0x%02X", cmd))
		}
	}
}

func (d *Device) dispatchAsync(f frame.Frame) {
	handler := d.config.AsyncHandler
	if handler == nil {
		debugf("dropping asynchronous frame % X", []byte(f))
		return
	}

	if err := handler(append([]byte(nil), f...)); err != nil {
		warnf("asynchronous frame handler failed for % X: %v", []byte(f), err)
	}
}

func (d *Device) checkAddresses(f frame.Frame) {
	if f.To() != d.config.ControllerAddress {
		warnf("reply addressed to %#02x, controller is %#02x", f.To(), d.config.ControllerAddress)
	}
	if f.From() != d.config.CIVAddress && d.config.CIVAddress != frame.Broadcast {
		warnf("reply from %#02x, rig is %#02x", f.From(), d.config.CIVAddress)
	}
}

// ioError marks a transport failure as permanent unless the transport
// already classified it.
func ioError(op string, err error) error {
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	if op == "write" {
		return NewTransportWriteError("", err)
	}
	return NewTransportReadError("", err)
}
