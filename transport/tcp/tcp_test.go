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

package tcp

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	civ "github.com/ZaparooProject/go-civ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newBridge returns a connected transport and the bridge side of the socket
func newBridge(t *testing.T) (*Transport, net.Conn) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			close(accepted)
			return
		}
		accepted <- conn
	}()

	tr, err := New(context.Background(), ln.Addr().String(), 100*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close() })

	server, ok := <-accepted
	require.True(t, ok)
	t.Cleanup(func() { _ = server.Close() })
	return tr, server
}

func TestTransport_WriteAndRead(t *testing.T) {
	t.Parallel()

	tr, server := newBridge(t)
	assert.Equal(t, civ.TransportTCP, tr.Type())
	assert.True(t, tr.IsConnected())
	assert.True(t, civ.HasCapability(tr, civ.CapabilityNoEcho))

	cmd := []byte{0xFE, 0xFE, 0x94, 0xE0, 0x03, 0xFD}
	require.NoError(t, tr.Write(cmd))

	got := make([]byte, len(cmd))
	_, err := io.ReadFull(server, got)
	require.NoError(t, err)
	assert.Equal(t, cmd, got)

	ack := []byte{0xFE, 0xFE, 0xE0, 0x94, 0xFB, 0xFD}
	nak := []byte{0xFE, 0xFE, 0xE0, 0x94, 0xFA, 0xFD}
	_, err = server.Write(append(append([]byte(nil), ack...), nak...))
	require.NoError(t, err)

	buf := make([]byte, 32)
	n, err := tr.ReadString(buf, []byte{0xFD, 0xFC})
	require.NoError(t, err)
	assert.Equal(t, ack, buf[:n])

	n, err = tr.ReadString(buf, []byte{0xFD, 0xFC})
	require.NoError(t, err)
	assert.Equal(t, nak, buf[:n])
}

func TestTransport_ReadTimeouts(t *testing.T) {
	t.Parallel()

	tr, server := newBridge(t)
	buf := make([]byte, 32)

	_, err := tr.ReadString(buf, []byte{0xFD})
	require.ErrorIs(t, err, civ.ErrTransportTimeout)

	_, err = server.Write([]byte{0xFE, 0xFE, 0xE0})
	require.NoError(t, err)
	n, err := tr.ReadString(buf, []byte{0xFD})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFE, 0xFE, 0xE0}, buf[:n])
}

func TestTransport_Flush(t *testing.T) {
	t.Parallel()

	tr, server := newBridge(t)
	_, err := server.Write([]byte{0x01, 0x02, 0x03, 0xFD})
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, tr.Flush())
	_, err = tr.ReadString(make([]byte, 8), []byte{0xFD})
	require.ErrorIs(t, err, civ.ErrTransportTimeout)
}

func TestTransport_PeerClosed(t *testing.T) {
	t.Parallel()

	tr, server := newBridge(t)
	require.NoError(t, server.Close())

	_, err := tr.ReadString(make([]byte, 8), []byte{0xFD})
	require.ErrorIs(t, err, civ.ErrTransportRead)
}

func TestTransport_Close(t *testing.T) {
	t.Parallel()

	tr, _ := newBridge(t)
	require.NoError(t, tr.Close())
	assert.False(t, tr.IsConnected())
	require.ErrorIs(t, tr.Write([]byte{0xFE}), civ.ErrTransportClosed)
	require.NoError(t, tr.Close())
	require.ErrorIs(t, tr.SetTimeout(0), civ.ErrInvalidParameter)
}
