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
	"sync"
	"time"
)

// BlockingMockTransport is a mock transport whose reads block until
// Unblock is called, the timeout expires, or the transport is closed.
// It is used to observe a Device while a transaction is in flight.
type BlockingMockTransport struct {
	blockChan    chan struct{}
	ResponseFunc func(sent []byte) []byte
	Response     []byte
	pending      []byte
	timeout      time.Duration
	waiters      int
	mu           sync.Mutex
	closed       bool
}

// NewBlockingMockTransport creates a new blocking mock transport
func NewBlockingMockTransport() *BlockingMockTransport {
	return &BlockingMockTransport{
		blockChan: make(chan struct{}),
		timeout:   5 * time.Second,
	}
}

// Write records the frame and prepares the bytes the next unblocked read
// returns
func (m *BlockingMockTransport) Write(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrTransportClosed
	}

	switch {
	case m.ResponseFunc != nil:
		m.pending = append(m.pending, m.ResponseFunc(append([]byte(nil), data...))...)
	case m.Response != nil:
		m.pending = append(m.pending, m.Response...)
	}
	return nil
}

// ReadString blocks until Unblock, the timeout, or Close
func (m *BlockingMockTransport) ReadString(buf, terminators []byte) (int, error) {
	m.mu.Lock()
	blockChan := m.blockChan
	closed := m.closed
	timeout := m.timeout
	if !closed {
		m.waiters++
	}
	m.mu.Unlock()

	if closed {
		return 0, ErrTransportClosed
	}

	var timedOut bool
	select {
	case <-blockChan:
	case <-time.After(timeout):
		timedOut = true
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.waiters--
	if timedOut {
		return 0, NewTimeoutError("read", "mock")
	}
	if m.closed {
		return 0, ErrTransportClosed
	}
	if len(m.pending) == 0 {
		return 0, NewTimeoutError("read", "mock")
	}

	n := 0
	for n < len(buf) && n < len(m.pending) {
		buf[n] = m.pending[n]
		n++
		if containsByte(terminators, buf[n-1]) {
			break
		}
	}
	m.pending = m.pending[n:]
	return n, nil
}

func containsByte(set []byte, b byte) bool {
	for _, c := range set {
		if c == b {
			return true
		}
	}
	return false
}

// Waiting reports whether a read is currently blocked
func (m *BlockingMockTransport) Waiting() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waiters > 0
}

// Unblock releases the reads currently blocked
func (m *BlockingMockTransport) Unblock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		close(m.blockChan)
		m.blockChan = make(chan struct{})
	}
}

// Flush discards pending bytes
func (m *BlockingMockTransport) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = nil
	return nil
}

// Close unblocks all operations and marks transport as closed
func (m *BlockingMockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.blockChan)
	}
	return nil
}

// SetTimeout configures the timeout for blocking operations
func (m *BlockingMockTransport) SetTimeout(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
	return nil
}

// IsConnected reports whether Close has not been called
func (m *BlockingMockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// Type returns TransportMock
func (*BlockingMockTransport) Type() TransportType {
	return TransportMock
}

// HasCapability reports no echo so reads go straight to the reply
func (*BlockingMockTransport) HasCapability(c TransportCapability) bool {
	return c == CapabilityNoEcho
}
