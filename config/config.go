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

// Package config loads a rig connection description from a YAML or TOML
// file and turns it into transports, Device options, a PTT keyer and
// monitor settings.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	civ "github.com/ZaparooProject/go-civ"
	"github.com/ZaparooProject/go-civ/logging"
	"github.com/ZaparooProject/go-civ/polling"
	"github.com/ZaparooProject/go-civ/ptt"
	"github.com/ZaparooProject/go-civ/transport/tcp"
	"github.com/ZaparooProject/go-civ/transport/uart"
	"go.bug.st/serial"
	"gopkg.in/yaml.v2"
)

// Transport types
const (
	TransportSerial = "serial"
	TransportTCP    = "tcp"
)

// ErrUnsupportedFormat is returned by Load for files that are neither YAML
// nor TOML
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Config is the top level of a config file
type Config struct {
	Logging   logging.Config  `yaml:"logging" toml:"logging"`
	Rig       RigConfig       `yaml:"rig" toml:"rig"`
	Transport TransportConfig `yaml:"transport" toml:"transport"`
	PTT       PTTConfig       `yaml:"ptt" toml:"ptt"`
	Monitor   MonitorConfig   `yaml:"monitor" toml:"monitor"`
}

// RigConfig selects the model and the CI-V link parameters. Addresses are
// hex, with or without a 0x prefix; durations use time.ParseDuration
// syntax.
type RigConfig struct {
	Model      string `yaml:"model" toml:"model"`
	Address    string `yaml:"address" toml:"address"`
	Controller string `yaml:"controller" toml:"controller"`
	Timeout    string `yaml:"timeout" toml:"timeout"`
	RetryDelay string `yaml:"retry_delay" toml:"retry_delay"`
	// Retry is the number of extra attempts; unset keeps the model default
	Retry      *int `yaml:"retry" toml:"retry"`
	EchoOff    bool `yaml:"echo_off" toml:"echo_off"`
	FullDuplex bool `yaml:"full_duplex" toml:"full_duplex"`
}

// TransportConfig describes how the controller reaches the bus
type TransportConfig struct {
	Type string `yaml:"type" toml:"type"`
	// Port is the serial device, such as /dev/ttyUSB0 or COM3
	Port string `yaml:"port" toml:"port"`
	// Address is host:port of a serial-over-TCP bridge
	Address  string `yaml:"address" toml:"address"`
	Baud     int    `yaml:"baud" toml:"baud"`
	DataBits int    `yaml:"data_bits" toml:"data_bits"`
	Parity   string `yaml:"parity" toml:"parity"`
	StopBits string `yaml:"stop_bits" toml:"stop_bits"`
	RTS      bool   `yaml:"rts" toml:"rts"`
	DTR      bool   `yaml:"dtr" toml:"dtr"`
	NoEcho   bool   `yaml:"no_echo" toml:"no_echo"`
}

// PTTConfig selects the keying method. For rts and dtr an empty Port keys
// the CI-V port's own line.
type PTTConfig struct {
	Method string `yaml:"method" toml:"method"`
	Port   string `yaml:"port" toml:"port"`
	Pin    string `yaml:"pin" toml:"pin"`
	Invert bool   `yaml:"invert" toml:"invert"`
}

// MonitorConfig mirrors polling.Config in file form
type MonitorConfig struct {
	Interval     string `yaml:"interval" toml:"interval"`
	IdleInterval string `yaml:"idle_interval" toml:"idle_interval"`
	IdleAfter    string `yaml:"idle_after" toml:"idle_after"`
	OfflineAfter int    `yaml:"offline_after" toml:"offline_after"`
	SkipMode     bool   `yaml:"skip_mode" toml:"skip_mode"`
	SkipPTT      bool   `yaml:"skip_ptt" toml:"skip_ptt"`
	Transceive   bool   `yaml:"transceive" toml:"transceive"`
}

// Default returns the settings used for anything a file leaves out
func Default() *Config {
	return &Config{
		Logging: logging.DefaultConfig(),
		Rig: RigConfig{
			Model:   "IC-7300",
			Timeout: "1s",
		},
		Transport: TransportConfig{
			Type:     TransportSerial,
			Baud:     uart.DefaultBaudRate,
			DataBits: 8,
			Parity:   "none",
			StopBits: "1",
		},
		PTT: PTTConfig{Method: string(ptt.MethodCAT)},
		Monitor: MonitorConfig{
			Interval:     "250ms",
			IdleInterval: "1s",
			IdleAfter:    "5s",
			OfflineAfter: 3,
		},
	}
}

// Load reads path, choosing the decoder by extension (.yaml, .yml or
// .toml), and validates the result
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	cfg, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data in the given format ("yaml", "yml" or "toml") on top
// of Default and validates the result
func Parse(data []byte, format string) (*Config, error) {
	cfg := Default()
	switch format {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case "toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field that can be checked without opening a port
func (c *Config) Validate() error {
	if _, err := c.Model(); err != nil {
		return err
	}
	if _, err := c.DeviceOptions(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return err
	}

	switch strings.ToLower(c.Transport.Type) {
	case TransportSerial:
		if c.Transport.Port == "" {
			return fmt.Errorf("%w: serial transport needs a port", civ.ErrInvalidParameter)
		}
		if _, err := c.SerialMode(); err != nil {
			return err
		}
	case TransportTCP:
		if c.Transport.Address == "" {
			return fmt.Errorf("%w: tcp transport needs an address", civ.ErrInvalidParameter)
		}
	default:
		return fmt.Errorf("%w: unknown transport type %q", civ.ErrInvalidParameter, c.Transport.Type)
	}

	method, err := ptt.ParseMethod(c.PTT.Method)
	if err != nil {
		return err
	}
	if method == ptt.MethodGPIO && c.PTT.Pin == "" {
		return fmt.Errorf("%w: gpio PTT needs a pin", civ.ErrInvalidParameter)
	}
	if (method == ptt.MethodRTS || method == ptt.MethodDTR) && c.PTT.Port == "" &&
		strings.ToLower(c.Transport.Type) != TransportSerial {
		return fmt.Errorf("%w: %s PTT over tcp needs a port", civ.ErrInvalidParameter, method)
	}

	_, err = c.PollingConfig()
	return err
}

// Model looks up the configured rig model
func (c *Config) Model() (*civ.Model, error) {
	model, err := civ.LookupModel(c.Rig.Model)
	if err != nil {
		return nil, fmt.Errorf("rig model: %w", err)
	}
	return model, nil
}

// DeviceOptions maps the rig section onto Device options. They are meant to
// follow the model's own options, as civ.Open applies them.
func (c *Config) DeviceOptions() ([]civ.Option, error) {
	var opts []civ.Option

	if c.Rig.Address != "" {
		addr, err := parseAddress(c.Rig.Address)
		if err != nil {
			return nil, fmt.Errorf("rig address: %w", err)
		}
		opts = append(opts, civ.WithCIVAddress(addr))
	}
	if c.Rig.FullDuplex {
		opts = append(opts, civ.WithFullDuplex())
	}
	if c.Rig.Controller != "" {
		addr, err := parseAddress(c.Rig.Controller)
		if err != nil {
			return nil, fmt.Errorf("controller address: %w", err)
		}
		opts = append(opts, civ.WithControllerAddress(addr))
	}
	if c.Rig.EchoOff || c.Transport.NoEcho || strings.ToLower(c.Transport.Type) == TransportTCP {
		opts = append(opts, civ.WithEchoOff())
	}
	if c.Rig.Timeout != "" {
		d, err := parseDuration("rig timeout", c.Rig.Timeout)
		if err != nil {
			return nil, err
		}
		opts = append(opts, civ.WithTimeout(d))
	}
	if c.Rig.RetryDelay != "" {
		d, err := parseDuration("rig retry_delay", c.Rig.RetryDelay)
		if err != nil {
			return nil, err
		}
		opts = append(opts, civ.WithRetryDelay(d))
	}
	if c.Rig.Retry != nil {
		if *c.Rig.Retry < 0 {
			return nil, fmt.Errorf("%w: rig retry must not be negative", civ.ErrInvalidParameter)
		}
		opts = append(opts, civ.WithRetry(*c.Rig.Retry))
	}
	if c.Transport.Baud > 0 {
		opts = append(opts, civ.WithWakeupPreambles(civ.WakeupPreamblesForBaud(c.Transport.Baud)))
	}
	return opts, nil
}

// SerialMode maps the transport section onto uart settings
func (c *Config) SerialMode() (uart.Settings, error) {
	s := uart.DefaultSettings()
	if c.Transport.Baud > 0 {
		s.BaudRate = c.Transport.Baud
	}
	if c.Transport.DataBits != 0 {
		if c.Transport.DataBits < 5 || c.Transport.DataBits > 8 {
			return s, fmt.Errorf("%w: data bits %d", civ.ErrInvalidParameter, c.Transport.DataBits)
		}
		s.DataBits = c.Transport.DataBits
	}

	switch strings.ToLower(c.Transport.Parity) {
	case "", "none", "n":
		s.Parity = serial.NoParity
	case "odd", "o":
		s.Parity = serial.OddParity
	case "even", "e":
		s.Parity = serial.EvenParity
	case "mark", "m":
		s.Parity = serial.MarkParity
	case "space", "s":
		s.Parity = serial.SpaceParity
	default:
		return s, fmt.Errorf("%w: parity %q", civ.ErrInvalidParameter, c.Transport.Parity)
	}

	switch c.Transport.StopBits {
	case "", "1":
		s.StopBits = serial.OneStopBit
	case "1.5":
		s.StopBits = serial.OnePointFiveStopBits
	case "2":
		s.StopBits = serial.TwoStopBits
	default:
		return s, fmt.Errorf("%w: stop bits %q", civ.ErrInvalidParameter, c.Transport.StopBits)
	}

	if c.Rig.Timeout != "" {
		d, err := parseDuration("rig timeout", c.Rig.Timeout)
		if err != nil {
			return s, err
		}
		s.Timeout = d
	}
	s.RTS = c.Transport.RTS
	s.DTR = c.Transport.DTR
	s.NoEcho = c.Transport.NoEcho || c.Rig.EchoOff
	return s, nil
}

// PollingConfig maps the monitor section onto polling.Config
func (c *Config) PollingConfig() (*polling.Config, error) {
	pc := polling.DefaultConfig()
	fields := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"monitor interval", c.Monitor.Interval, &pc.PollInterval},
		{"monitor idle_interval", c.Monitor.IdleInterval, &pc.IdleInterval},
		{"monitor idle_after", c.Monitor.IdleAfter, &pc.IdleAfter},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		d, err := parseDuration(f.name, f.value)
		if err != nil {
			return nil, err
		}
		*f.dst = d
	}
	if c.Monitor.OfflineAfter > 0 {
		pc.OfflineAfter = c.Monitor.OfflineAfter
	}
	pc.PollMode = !c.Monitor.SkipMode
	pc.PollPTT = !c.Monitor.SkipPTT
	pc.DrainEvents = c.Monitor.Transceive
	if pc.IdleInterval < pc.PollInterval {
		return nil, fmt.Errorf("%w: monitor idle_interval is shorter than interval", civ.ErrInvalidParameter)
	}
	return pc, nil
}

// OpenTransport opens the configured serial port or TCP bridge
func (c *Config) OpenTransport(ctx context.Context) (civ.Transport, error) {
	if strings.ToLower(c.Transport.Type) == TransportTCP {
		timeout := uart.DefaultTimeout
		if c.Rig.Timeout != "" {
			d, err := parseDuration("rig timeout", c.Rig.Timeout)
			if err != nil {
				return nil, err
			}
			timeout = d
		}
		return tcp.New(ctx, c.Transport.Address, timeout)
	}

	settings, err := c.SerialMode()
	if err != nil {
		return nil, err
	}
	return uart.New(c.Transport.Port, settings)
}

// Open opens the transport and the rig on it
func (c *Config) Open(ctx context.Context) (*civ.Rig, error) {
	model, err := c.Model()
	if err != nil {
		return nil, err
	}
	opts, err := c.DeviceOptions()
	if err != nil {
		return nil, err
	}
	transport, err := c.OpenTransport(ctx)
	if err != nil {
		return nil, err
	}

	rig, err := civ.Open(transport, model, opts...)
	if err != nil {
		_ = transport.Close()
		return nil, err
	}
	return rig, nil
}

// OpenKeyer builds the configured PTT keyer. rig is used for cat keying,
// and for rts or dtr on the CI-V port when no separate port is set.
func (c *Config) OpenKeyer(rig *civ.Rig) (ptt.Keyer, error) {
	method, err := ptt.ParseMethod(c.PTT.Method)
	if err != nil {
		return nil, err
	}

	switch method {
	case ptt.MethodCAT:
		if rig == nil {
			return nil, fmt.Errorf("%w: cat PTT needs a rig", civ.ErrInvalidParameter)
		}
		return ptt.NewCATKeyer(rig)
	case ptt.MethodRTS, ptt.MethodDTR:
		if c.PTT.Port != "" {
			return ptt.OpenSerialLineKeyer(c.PTT.Port, method, c.PTT.Invert)
		}
		if rig == nil {
			return nil, fmt.Errorf("%w: %s PTT needs a port", civ.ErrInvalidParameter, method)
		}
		lines, ok := rig.Device().Transport().(civ.LineController)
		if !ok {
			return nil, fmt.Errorf("%w: transport has no modem control lines", civ.ErrNotSupported)
		}
		return ptt.NewSerialLineKeyer(lines, method, c.PTT.Invert)
	case ptt.MethodGPIO:
		return ptt.OpenGPIOKeyer(c.PTT.Pin, c.PTT.Invert)
	default:
		return ptt.NoneKeyer{}, nil
	}
}

func parseAddress(s string) (byte, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: address %q", civ.ErrInvalidParameter, s)
	}
	return byte(v), nil
}

func parseDuration(name, s string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", civ.ErrInvalidParameter, name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative", civ.ErrInvalidParameter, name)
	}
	return d, nil
}
