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

// BCD helpers. CI-V numbers are packed two decimal digits per byte.
// Frequencies are little-endian (least significant digit pair first);
// levels, meters and most other values are big-endian.

// ToBCD encodes value into little-endian packed BCD holding digits decimal
// digits. Digits beyond the requested count are dropped.
func ToBCD(value uint64, digits int) []byte {
	out := make([]byte, (digits+1)/2)
	for i := 0; i < digits; i++ {
		d := byte(value % 10)
		value /= 10
		if i%2 == 0 {
			out[i/2] |= d
		} else {
			out[i/2] |= d << 4
		}
	}
	return out
}

// FromBCD decodes digits decimal digits of little-endian packed BCD
func FromBCD(b []byte, digits int) uint64 {
	var v uint64
	for i := digits - 1; i >= 0; i-- {
		if i/2 >= len(b) {
			continue
		}
		nibble := b[i/2]
		if i%2 == 1 {
			nibble >>= 4
		}
		v = v*10 + uint64(nibble&0x0F)
	}
	return v
}

// ToBCDBE encodes value into big-endian packed BCD holding digits decimal digits
func ToBCDBE(value uint64, digits int) []byte {
	n := (digits + 1) / 2
	out := make([]byte, n)
	for i := 0; i < digits; i++ {
		d := byte(value % 10)
		value /= 10
		idx := n - 1 - i/2
		if i%2 == 0 {
			out[idx] |= d
		} else {
			out[idx] |= d << 4
		}
	}
	return out
}

// FromBCDBE decodes digits decimal digits of big-endian packed BCD
func FromBCDBE(b []byte, digits int) uint64 {
	n := (digits + 1) / 2
	if n > len(b) {
		n = len(b)
		digits = n * 2
	}
	var v uint64
	for i := digits - 1; i >= 0; i-- {
		nibble := b[n-1-i/2]
		if i%2 == 1 {
			nibble >>= 4
		}
		v = v*10 + uint64(nibble&0x0F)
	}
	return v
}

// ValidBCD reports whether every nibble of b is a decimal digit
func ValidBCD(b []byte) bool {
	for _, c := range b {
		if c&0x0F > 9 || c>>4 > 9 {
			return false
		}
	}
	return true
}
