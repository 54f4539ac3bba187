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
	"errors"

	"github.com/ZaparooProject/go-civ/internal/frame"
)

// DefaultEmptyReadRetries is how many reads returning nothing are tolerated
// while assembling one frame.
const DefaultEmptyReadRetries = 10

// ReadFrame reads one raw CI-V frame into buf.
//
// Reading stops when the last stored byte is EOM or a collision byte, when
// buf is full, or after emptyReads consecutive reads returned no bytes. In
// the last two cases whatever was accumulated is returned, possibly nothing,
// with a nil error. A transport timeout before the first byte is returned as
// ErrTransportTimeout so callers can tell "nothing on the bus" from an empty
// partial frame. Any other transport failure is returned as is.
func ReadFrame(t Transport, buf []byte, emptyReads int) (int, error) {
	if emptyReads <= 0 {
		emptyReads = 1
	}

	n := 0
	for n < len(buf) {
		got, err := t.ReadString(buf[n:], frame.Terminators)
		if err != nil {
			if !errors.Is(err, ErrTransportTimeout) {
				return n, err
			}
			if n == 0 {
				return 0, err
			}
			// Timed out mid-frame; hand back the fragment
			return n, nil
		}

		if got == 0 {
			emptyReads--
			if emptyReads <= 0 {
				return n, nil
			}
			continue
		}

		n += got
		if last := buf[n-1]; last == frame.EOM || last == frame.Collision {
			break
		}
	}

	return n, nil
}
