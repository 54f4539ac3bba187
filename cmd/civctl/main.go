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
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	civ "github.com/ZaparooProject/go-civ"
	"github.com/ZaparooProject/go-civ/config"
	// Register the serial port detector for the scan command
	_ "github.com/ZaparooProject/go-civ/detection/uart"
	"github.com/ZaparooProject/go-civ/logging"
	"go.uber.org/zap"
)

const usage = `usage: civctl [flags] <command> [args]

commands:
  freq [hz]            read or set the frequency
  mode [mode [width]]  read or set the mode, width in Hz
  ptt [on|off]         read or set PTT
  power [on|off]       read or switch the power state
  split [on|off]       read or set split
  id                   read the transceiver ID
  meter [name]         read a meter (s, swr, alc, comp, rfpower, vd, id)
  monitor              poll and print changes until interrupted
  scan                 list serial ports that may carry a CI-V interface
  probe                scan the bus for rigs

flags:
`

type flags struct {
	configPath *string
	device     *string
	tcpAddr    *string
	model      *string
	address    *string
	baud       *int
	timeout    *time.Duration
	echoOff    *bool
	debug      *bool
	verbose    *bool
	full       *bool
}

func parseFlags(fs *flag.FlagSet, args []string) (*flags, error) {
	f := &flags{
		configPath: fs.String("config", "", "Config file (.yaml, .yml or .toml)"),
		device:     fs.String("device", "", "Serial device path (e.g., /dev/ttyUSB0 or COM3)"),
		tcpAddr:    fs.String("tcp", "", "host:port of a serial-over-TCP bridge"),
		model:      fs.String("model", "", "Rig model (e.g., IC-7300)"),
		address:    fs.String("addr", "", "Rig CI-V address in hex, when not the model default"),
		baud:       fs.Int("baud", 0, "Serial baud rate"),
		timeout:    fs.Duration("timeout", 0, "Reply timeout"),
		echoOff:    fs.Bool("echo-off", false, "The interface does not echo transmitted frames"),
		debug:      fs.Bool("debug", false, "Log CI-V traffic"),
		verbose:    fs.Bool("verbose", false, "Enable verbose output"),
		full:       fs.Bool("full", false, "scan: open each port and probe it for a rig"),
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

// buildConfig merges the config file, if any, with the command line.
// Flags win over the file.
func buildConfig(f *flags) (*config.Config, error) {
	cfg := config.Default()
	if *f.configPath != "" {
		loaded, err := config.Load(*f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if *f.device != "" {
		cfg.Transport.Type = config.TransportSerial
		cfg.Transport.Port = *f.device
	}
	if *f.tcpAddr != "" {
		cfg.Transport.Type = config.TransportTCP
		cfg.Transport.Address = *f.tcpAddr
	}
	if *f.model != "" {
		cfg.Rig.Model = *f.model
	}
	if *f.address != "" {
		cfg.Rig.Address = *f.address
	}
	if *f.baud > 0 {
		cfg.Transport.Baud = *f.baud
	}
	if *f.timeout > 0 {
		cfg.Rig.Timeout = f.timeout.String()
	}
	if *f.echoOff {
		cfg.Rig.EchoOff = true
	}
	if *f.debug {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("civctl", flag.ContinueOnError)
	fs.Usage = func() {
		_, _ = fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	f, err := parseFlags(fs, args)
	if err != nil {
		return 2
	}
	out := NewOutput(stdout, *f.verbose)

	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}
	name, cmdArgs := strings.ToLower(fs.Arg(0)), fs.Args()[1:]

	cfg, err := buildConfig(f)
	if err != nil {
		out.Error("%v", err)
		return 1
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		out.Error("%v", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()
	civ.SetLogger(logger)
	civ.SetDebugEnabled(*f.debug)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := dispatch(ctx, name, cmdArgs, cfg, f, out); err != nil {
		logger.Debug("command failed", zap.String("command", name), zap.Error(err))
		out.Error("%v", err)
		return 1
	}
	return 0
}

func dispatch(ctx context.Context, name string, args []string, cfg *config.Config, f *flags, out *Output) error {
	switch name {
	case "scan":
		return runScan(ctx, *f.full, out)
	case "probe":
		return runProbe(ctx, cfg, out)
	}

	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	rig, err := cfg.Open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open rig: %w", err)
	}
	defer func() { _ = rig.Close() }()
	out.Verbose("Opened %s on %s", rig.Model().Name, rig.Device().Transport().Type())

	err = cmd(ctx, &session{rig: rig, cfg: cfg, out: out}, args)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
