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

// Package tcp carries CI-V over a raw TCP serial bridge such as ser2net or
// a remote rig server's serial port. Bridges forward the rig's bytes only,
// so no echo of our own frames arrives.
package tcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	civ "github.com/ZaparooProject/go-civ"
)

// DefaultTimeout is the per-read timeout
const DefaultTimeout = 500 * time.Millisecond

// Transport implements civ.Transport over a TCP connection
type Transport struct {
	conn    net.Conn
	addr    string
	rx      []byte
	timeout time.Duration
	mu      sync.Mutex
}

// New dials addr. A zero timeout selects DefaultTimeout.
func New(ctx context.Context, addr string, timeout time.Duration) (*Transport, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return NewFromConn(conn, timeout), nil
}

// NewFromConn wraps an established connection
func NewFromConn(conn net.Conn, timeout time.Duration) *Transport {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Transport{
		conn:    conn,
		addr:    conn.RemoteAddr().String(),
		timeout: timeout,
	}
}

// Write implements civ.Transport
func (t *Transport) Write(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return civ.ErrTransportClosed
	}
	if err := t.conn.SetWriteDeadline(time.Now().Add(t.timeout)); err != nil {
		return civ.NewTransportWriteError(t.addr, err)
	}
	if _, err := t.conn.Write(data); err != nil {
		return civ.NewTransportWriteError(t.addr, err)
	}
	return nil
}

// ReadString implements civ.Transport. Bytes past the terminator stay
// buffered for the next call.
func (t *Transport) ReadString(buf, terminators []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return 0, civ.ErrTransportClosed
	}

	deadline := time.Now().Add(t.timeout)
	total := 0
	chunk := make([]byte, 256)
	for total < len(buf) {
		if len(t.rx) == 0 {
			if err := t.conn.SetReadDeadline(deadline); err != nil {
				return total, civ.NewTransportReadError(t.addr, err)
			}
			n, err := t.conn.Read(chunk)
			t.rx = append(t.rx, chunk[:n]...)
			if err != nil && n == 0 {
				if errors.Is(err, os.ErrDeadlineExceeded) {
					if total == 0 {
						return 0, civ.NewTimeoutError("read", t.addr)
					}
					return total, nil
				}
				return total, civ.NewTransportReadError(t.addr, err)
			}
		}

		b := t.rx[0]
		t.rx = t.rx[1:]
		buf[total] = b
		total++
		if bytes.IndexByte(terminators, b) >= 0 {
			break
		}
	}
	return total, nil
}

// Flush implements civ.Transport. Buffered bytes are dropped along with
// whatever the socket can deliver without waiting.
func (t *Transport) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return civ.ErrTransportClosed
	}
	t.rx = nil

	chunk := make([]byte, 256)
	for {
		if err := t.conn.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
			return err
		}
		n, err := t.conn.Read(chunk)
		if n > 0 {
			continue
		}
		if err == nil || errors.Is(err, os.ErrDeadlineExceeded) {
			return nil
		}
		return civ.NewTransportReadError(t.addr, err)
	}
}

// Close implements civ.Transport
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

// SetTimeout implements civ.Transport
func (t *Transport) SetTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", civ.ErrInvalidParameter)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timeout = timeout
	return nil
}

// IsConnected implements civ.Transport
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

// Type implements civ.Transport
func (*Transport) Type() civ.TransportType {
	return civ.TransportTCP
}

// HasCapability implements civ.TransportCapabilityChecker
func (*Transport) HasCapability(c civ.TransportCapability) bool {
	return c == civ.CapabilityNoEcho
}

var (
	_ civ.Transport                  = (*Transport)(nil)
	_ civ.TransportCapabilityChecker = (*Transport)(nil)
)
