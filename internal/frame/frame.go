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

package frame

import (
	"bytes"
	"errors"
	"fmt"
)

// Frame errors
var (
	ErrTooLarge        = errors.New("frame exceeds maximum length")
	ErrInvalidSubCmd   = errors.New("sub-command out of range")
	ErrMissingPreamble = errors.New("frame does not start with preamble")
)

// Classification describes what a received frame means to an outstanding transaction
type Classification int

const (
	// ClassInvalid is a truncated, garbled or unterminated frame
	ClassInvalid Classification = iota
	// ClassCollision means another controller drove the bus at the same time
	ClassCollision
	// ClassRejected means the far end answered with NAK
	ClassRejected
	// ClassReply is a well-formed, EOM-terminated frame
	ClassReply
	// ClassAsync is a reply-shaped frame the device pushed on its own
	ClassAsync
)

// String returns the classification name
func (c Classification) String() string {
	switch c {
	case ClassCollision:
		return "collision"
	case ClassRejected:
		return "rejected"
	case ClassReply:
		return "reply"
	case ClassAsync:
		return "async"
	case ClassInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("classification(%d)", int(c))
	}
}

// SubCmdBytes encodes a sub-command value.
//
// With multiByte disabled only the low byte is used and values above 0xFF are
// rejected. With multiByte enabled, values above 0xFF are sent as two or three
// big-endian bytes, which DSP rigs use for extended settings.
func SubCmdBytes(subcmd int, multiByte bool) ([]byte, error) {
	if subcmd == NoSubCmd {
		return nil, nil
	}
	if subcmd < 0 || subcmd > 0xFFFFFF {
		return nil, fmt.Errorf("%w: %#x", ErrInvalidSubCmd, subcmd)
	}
	if !multiByte {
		if subcmd > 0xFF {
			return nil, fmt.Errorf("%w: %#x needs multi-byte encoding", ErrInvalidSubCmd, subcmd)
		}
		return []byte{byte(subcmd)}, nil
	}

	switch {
	case subcmd&0xFF0000 != 0:
		return []byte{byte(subcmd >> 16), byte(subcmd >> 8), byte(subcmd)}, nil
	case subcmd&0xFF00 != 0:
		return []byte{byte(subcmd >> 8), byte(subcmd)}, nil
	default:
		return []byte{byte(subcmd)}, nil
	}
}

// Build constructs a complete CI-V command frame.
// The result is FE FE to from cmd [subcmd] [data] FD.
func Build(to, from, cmd byte, subcmd int, data []byte, multiByte bool) ([]byte, error) {
	sub, err := SubCmdBytes(subcmd, multiByte)
	if err != nil {
		return nil, err
	}

	total := HeaderLength + len(sub) + len(data) + 1
	if total > MaxFrameLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, total)
	}

	out := make([]byte, 0, total)
	out = append(out, Preamble, Preamble, to, from, cmd)
	out = append(out, sub...)
	out = append(out, data...)
	out = append(out, EOM)
	return out, nil
}

// FixPreamble repairs a frame whose second preamble byte was dropped.
//
// buf[:n] holds the received bytes. If the frame starts with a single FE,
// the missing byte is re-inserted in place and the new length returned; buf
// must have room for one extra byte. A frame that does not start with FE at
// all is reported as ErrMissingPreamble.
func FixPreamble(buf []byte, n int) (int, error) {
	if n == 0 {
		return 0, nil
	}
	if buf[0] != Preamble {
		return n, ErrMissingPreamble
	}
	if n == 1 || buf[1] == Preamble {
		return n, nil
	}
	if n >= len(buf) {
		return n, ErrTooLarge
	}

	copy(buf[1:n+1], buf[:n])
	buf[0] = Preamble
	return n + 1, nil
}

// CollapsePreamble reduces a leading run of preamble bytes to exactly two.
// Rigs waking from standby echo the wake-up burst ahead of the real frame.
func CollapsePreamble(b []byte) []byte {
	i := 0
	for i < len(b) && b[i] == Preamble {
		i++
	}
	if i <= 2 {
		return b
	}
	return b[i-2:]
}

// Classify inspects the trailing bytes of a received frame.
// It never returns ClassAsync; that distinction needs the rig's predicate.
func Classify(f []byte) Classification {
	if len(f) == 0 {
		return ClassInvalid
	}

	switch f[len(f)-1] {
	case Collision:
		return ClassCollision
	case NAK:
		return ClassRejected
	case EOM:
	default:
		return ClassInvalid
	}

	if len(f) < MinFrameLength {
		return ClassInvalid
	}
	if f[len(f)-2] == NAK {
		return ClassRejected
	}
	return ClassReply
}

// Frame is a received, EOM-terminated CI-V frame
type Frame []byte

// To returns the destination address
func (f Frame) To() byte { return f[2] }

// From returns the source address
func (f Frame) From() byte { return f[3] }

// Command returns the command byte
func (f Frame) Command() byte { return f[4] }

// Payload returns the command byte and everything after it up to, but not
// including, the EOM byte.
func (f Frame) Payload() []byte { return f[4 : len(f)-1] }

// Data returns the bytes following the command byte.
func (f Frame) Data() []byte { return f[HeaderLength : len(f)-1] }

// Valid reports whether f is a complete, well-formed frame
func (f Frame) Valid() bool {
	return len(f) >= MinFrameLength &&
		f[0] == Preamble && f[1] == Preamble &&
		f[len(f)-1] == EOM
}

// IsAck reports whether the frame is a bare ACK reply
func (f Frame) IsAck() bool {
	return len(f) == MinFrameLength && f[4] == ACK
}

// Equal reports whether two frames carry the same bytes
func (f Frame) Equal(other []byte) bool {
	return bytes.Equal(f, other)
}
