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
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	debugEnabled atomic.Bool
	customLogger atomic.Bool
	sugar        atomic.Pointer[zap.SugaredLogger]
)

func init() {
	sugar.Store(zap.NewNop().Sugar())
}

// SetLogger routes all library logging through l.
// A nil logger silences the library.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
		customLogger.Store(false)
	} else {
		customLogger.Store(true)
	}
	sugar.Store(l.Named("civ").Sugar())
}

// Logger returns the logger currently used by the library
func Logger() *zap.Logger {
	return sugar.Load().Desugar()
}

// SetDebugEnabled turns wire-level debug logging on or off.
// When no logger has been installed with SetLogger, enabling debug output
// installs a zap development logger writing to stderr.
func SetDebugEnabled(enabled bool) {
	debugEnabled.Store(enabled)
	if enabled && !customLogger.Load() {
		if l, err := zap.NewDevelopment(); err == nil {
			sugar.Store(l.Named("civ").Sugar())
		}
	}
}

// IsDebugEnabled reports whether debug logging is on
func IsDebugEnabled() bool {
	return debugEnabled.Load()
}

func debugf(format string, args ...any) {
	if debugEnabled.Load() {
		sugar.Load().Debugf(format, args...)
	}
}

func debugln(args ...any) {
	if debugEnabled.Load() {
		sugar.Load().Debugln(args...)
	}
}

func warnf(format string, args ...any) {
	sugar.Load().Warnf(format, args...)
}
