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

// Package logging builds zap loggers for applications using go-civ, writing
// to the console, to a rotating file, or both.
package logging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config describes where log output goes
type Config struct {
	// Level is debug, info, warn or error. Empty means info.
	Level string `yaml:"level" toml:"level"`
	// File enables a rotating log file at this path
	File string `yaml:"file" toml:"file"`
	// Console writes to stderr. It is forced on when File is empty.
	Console bool `yaml:"console" toml:"console"`
	// JSON selects the JSON encoder for the console; files are always JSON
	JSON bool `yaml:"json" toml:"json"`
	// MaxSize is the file size in megabytes that triggers rotation
	MaxSize int `yaml:"max_size" toml:"max_size"`
	// MaxBackups is the number of rotated files kept
	MaxBackups int `yaml:"max_backups" toml:"max_backups"`
	// MaxAge is the number of days rotated files are kept
	MaxAge   int  `yaml:"max_age" toml:"max_age"`
	Compress bool `yaml:"compress" toml:"compress"`
}

// DefaultConfig logs info and above to the console
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Console:    true,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
	}
}

// ErrInvalidLevel is returned for an unrecognized level name
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel parses a level name, ignoring case. "warning" is accepted
// for warn and an empty name means info.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
}

// New builds a logger from cfg. Call Sync before exiting to flush the
// file core.
func New(cfg Config) (*zap.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var cores []zapcore.Core
	if cfg.File != "" {
		core, err := fileCore(cfg, level)
		if err != nil {
			return nil, err
		}
		cores = append(cores, core)
	}
	if cfg.Console || cfg.File == "" {
		cores = append(cores, consoleCore(cfg, level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

func consoleCore(cfg Config, level zapcore.Level) zapcore.Core {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	encoder := zapcore.NewConsoleEncoder(encCfg)
	if cfg.JSON {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	return zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level)
}

func fileCore(cfg Config, level zapcore.Level) (zapcore.Core, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	writer := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(writer), level), nil
}
