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
	"bytes"
	"sync"
	"time"

	"github.com/ZaparooProject/go-civ/internal/frame"
)

// MockTransport simulates a rig on a CI-V bus for tests.
//
// Every Write is echoed back (unless echo is off) and followed by the reply
// configured for the written command. Replies are given either as payloads
// with SetResponse, which the mock frames and addresses like a real rig, or
// as raw bus bytes with QueueRaw for collisions, garbage and timeouts.
type MockTransport struct {
	responses    map[byte][]byte
	queued       map[byte][][]byte
	errors       map[byte]error
	callCount    map[byte]int
	capabilities map[TransportCapability]bool
	responseFunc func(sent []byte) []byte
	echoFunc     func(sent []byte) []byte
	stream       func() []byte
	readErr      error
	unsolicited  [][]byte
	written      [][]byte
	rx           []byte
	delay        time.Duration
	timeout      time.Duration
	flushes      int
	mu           sync.Mutex
	noEcho       bool
	closed       bool
}

// NewMockTransport creates a mock transport that echoes and ACKs nothing
// until responses are configured
func NewMockTransport() *MockTransport {
	return &MockTransport{
		responses:    make(map[byte][]byte),
		queued:       make(map[byte][][]byte),
		errors:       make(map[byte]error),
		callCount:    make(map[byte]int),
		capabilities: make(map[TransportCapability]bool),
		timeout:      time.Second,
	}
}

// SetResponse sets the reply payload (command byte then data) sent every
// time cmd is written
func (m *MockTransport) SetResponse(cmd byte, payload []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[cmd] = append([]byte(nil), payload...)
}

// SetAck makes the mock answer cmd with a bare ACK
func (m *MockTransport) SetAck(cmd byte) {
	m.SetResponse(cmd, []byte{frame.ACK})
}

// SetNak makes the mock answer cmd with a NAK
func (m *MockTransport) SetNak(cmd byte) {
	m.SetResponse(cmd, []byte{frame.NAK})
}

// QueueRaw queues raw bus bytes for one future write of cmd. Queued
// entries are used in order before the SetResponse reply; a nil entry
// puts nothing on the bus so the read times out.
func (m *MockTransport) QueueRaw(cmd byte, raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queued[cmd] = append(m.queued[cmd], append([]byte(nil), raw...))
}

// SetError makes writes of cmd fail with err
func (m *MockTransport) SetError(cmd byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errors, cmd)
		return
	}
	m.errors[cmd] = err
}

// SetReadError makes every read fail with err
func (m *MockTransport) SetReadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}

// SetResponseFunc replaces the scripted replies: fn receives each written
// frame and returns the raw bytes to put on the bus after the echo
func (m *MockTransport) SetResponseFunc(fn func(sent []byte) []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responseFunc = fn
}

// SetEchoFunc rewrites the echo of each write, to simulate a bus that
// garbles or truncates it
func (m *MockTransport) SetEchoFunc(fn func(sent []byte) []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.echoFunc = fn
}

// SetEcho turns the echo of written bytes on or off
func (m *MockTransport) SetEcho(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.noEcho = !on
}

// SetCapability makes the mock advertise or hide a transport capability
func (m *MockTransport) SetCapability(c TransportCapability, on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.capabilities[c] = on
}

// SetUnsolicited sets frames the rig pushes between the echo and the
// reply of every command
func (m *MockTransport) SetUnsolicited(frames ...[]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unsolicited = frames
}

// SetStream installs a generator consulted whenever the receive buffer
// runs dry; returning nil means nothing more arrives
func (m *MockTransport) SetStream(fn func() []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stream = fn
}

// Inject puts raw bytes on the bus as if the rig had sent them
func (m *MockTransport) Inject(raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rx = append(m.rx, raw...)
}

// SetDelay makes every read take at least d
func (m *MockTransport) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// GetCallCount returns how many times cmd was written
func (m *MockTransport) GetCallCount(cmd byte) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount[cmd]
}

// Written returns a copy of every block passed to Write
func (m *MockTransport) Written() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.written))
	for i, w := range m.written {
		out[i] = append([]byte(nil), w...)
	}
	return out
}

// FlushCount returns how many times Flush was called
func (m *MockTransport) FlushCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushes
}

// Reset clears the call log and any pending bytes
func (m *MockTransport) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = make(map[byte]int)
	m.written = nil
	m.rx = nil
	m.flushes = 0
}

// Write implements Transport
func (m *MockTransport) Write(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrTransportClosed
	}

	m.written = append(m.written, append([]byte(nil), data...))

	sent := frame.CollapsePreamble(data)
	if len(sent) < frame.HeaderLength {
		return nil
	}
	cmd := sent[4]
	m.callCount[cmd]++

	if err, ok := m.errors[cmd]; ok {
		return err
	}

	if !m.noEcho {
		echo := data
		if m.echoFunc != nil {
			echo = m.echoFunc(append([]byte(nil), data...))
		}
		m.rx = append(m.rx, echo...)
	}

	for _, f := range m.unsolicited {
		m.rx = append(m.rx, f...)
	}

	m.rx = append(m.rx, m.replyFor(sent, cmd)...)
	return nil
}

func (m *MockTransport) replyFor(sent []byte, cmd byte) []byte {
	if m.responseFunc != nil {
		return m.responseFunc(append([]byte(nil), sent...))
	}

	if q := m.queued[cmd]; len(q) > 0 {
		m.queued[cmd] = q[1:]
		return q[0]
	}

	payload, ok := m.responses[cmd]
	if !ok {
		return nil
	}
	return mockFrame(sent[3], sent[2], payload)
}

func mockFrame(to, from byte, payload []byte) []byte {
	out := []byte{frame.Preamble, frame.Preamble, to, from}
	out = append(out, payload...)
	return append(out, frame.EOM)
}

// ReadString implements Transport. Bytes are copied until a terminator is
// stored or buf is full. An empty bus reports ErrTransportTimeout at once
// instead of waiting out the timeout.
func (m *MockTransport) ReadString(buf, terminators []byte) (int, error) {
	m.mu.Lock()
	delay := m.delay
	m.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrTransportClosed
	}
	if m.readErr != nil {
		return 0, m.readErr
	}
	if len(m.rx) == 0 && m.stream != nil {
		m.rx = append(m.rx, m.stream()...)
	}
	if len(m.rx) == 0 {
		return 0, NewTimeoutError("read", "mock")
	}

	n := 0
	for n < len(buf) && n < len(m.rx) {
		buf[n] = m.rx[n]
		n++
		if bytes.IndexByte(terminators, buf[n-1]) >= 0 {
			break
		}
	}
	m.rx = m.rx[n:]
	return n, nil
}

// Flush implements Transport by discarding unread bytes
func (m *MockTransport) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushes++
	m.rx = nil
	return nil
}

// Close implements Transport
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// SetTimeout implements Transport
func (m *MockTransport) SetTimeout(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
	return nil
}

// IsConnected implements Transport
func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// Type implements Transport
func (*MockTransport) Type() TransportType {
	return TransportMock
}

// HasCapability implements TransportCapabilityChecker
func (m *MockTransport) HasCapability(c TransportCapability) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.capabilities[c]
}
