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
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ZaparooProject/go-civ/detection"
)

// Output handles consistent formatting of messages. The monitor prints
// from its poll goroutine, so writes are serialized.
type Output struct {
	w       io.Writer
	mu      sync.Mutex
	verbose bool
}

// NewOutput creates a new output handler
func NewOutput(w io.Writer, verbose bool) *Output {
	return &Output{w: w, verbose: verbose}
}

func (o *Output) printf(format string, args ...any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, _ = fmt.Fprintf(o.w, format, args...)
}

// Value prints a bare value read from the rig, for use in scripts
func (o *Output) Value(format string, args ...any) {
	o.printf(format+"\n", args...)
}

// Event prints a timestamped change reported by the monitor
func (o *Output) Event(kind, format string, args ...any) {
	o.printf("%s %-4s "+format+"\n", append([]any{time.Now().Format("15:04:05.000"), kind}, args...)...)
}

// Device prints one detected port
func (o *Output) Device(d detection.DeviceInfo) {
	if !o.verbose {
		o.printf("%s\n", d.String())
		return
	}
	o.printf("%s\n", d.String())
	if d.VIDPID != "" {
		o.printf("   USB: %s %s %s\n", d.VIDPID, d.Manufacturer, d.Product)
	}
	if d.Address != 0 {
		o.printf("   CI-V: 0x%02X at %d baud\n", d.Address, d.BaudRate)
	}
	o.printf("   Confidence: %s\n", d.Confidence)
}

// Error prints an error message
func (o *Output) Error(format string, args ...any) {
	o.printf("ERROR: "+format+"\n", args...)
}

// Warning prints a warning message
func (o *Output) Warning(format string, args ...any) {
	o.printf("WARNING: "+format+"\n", args...)
}

// Info prints an info message
func (o *Output) Info(format string, args ...any) {
	o.printf("INFO: "+format+"\n", args...)
}

// OK prints a success message
func (o *Output) OK(format string, args ...any) {
	o.printf("OK: "+format+"\n", args...)
}

// Verbose prints only if verbose mode is enabled
func (o *Output) Verbose(format string, args ...any) {
	if o.verbose {
		o.printf(format+"\n", args...)
	}
}
