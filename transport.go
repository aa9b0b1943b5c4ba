// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 The Noisy Sockets Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package dnsclient

import (
	"bufio"
	"encoding/binary"
	"io"
	"net"
	"sync"

	"github.com/noisysockets/dnsclient/wire"
)

// maxMessageSize is the maximum size of a message on a stream transport,
// bounded by the 16-bit length prefix.
const maxMessageSize = 0xffff

// maxDatagramSize is the receive buffer size for UDP and mDNS. Consistent
// with the maximum response size the standard library advertises via EDNS.
const maxDatagramSize = 1232

// A Transport carries whole DNS messages over one opened channel. The
// multiplexer does not care which wire mode is behind it: datagrams arrive
// unframed, streams carry a 2-byte big-endian length prefix that the
// transport strips before handing the message up.
type Transport interface {
	// WriteMessage sends one encoded DNS message.
	WriteMessage(msg []byte) error
	// ReadMessage blocks until a whole DNS message has arrived and
	// returns its bytes.
	ReadMessage() ([]byte, error)
	// Close closes the underlying channel, unblocking ReadMessage.
	Close() error
}

// packetTransport is the datagram mode: one datagram is one message, all
// sends are routed to the configured remote address.
type packetTransport struct {
	conn   net.PacketConn
	remote net.Addr
}

func (t *packetTransport) WriteMessage(msg []byte) error {
	if len(msg) > maxMessageSize {
		return wire.ErrMessageTooLong
	}

	_, err := t.conn.WriteTo(msg, t.remote)
	return err
}

func (t *packetTransport) ReadMessage() ([]byte, error) {
	buf := make([]byte, maxDatagramSize)
	n, _, err := t.conn.ReadFrom(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func (t *packetTransport) Close() error {
	return t.conn.Close()
}

// streamTransport is the framed mode used for TCP and DNS over TLS: each
// message is prefixed by its length as a 16-bit big-endian count. Partial
// frames stay buffered in the reader until complete. TLS, when present, is
// below this layer and is just a reliable ordered byte stream.
type streamTransport struct {
	conn net.Conn
	br   *bufio.Reader

	// Guards conn writes: a frame must reach the stream contiguously.
	writeMu sync.Mutex
}

func newStreamTransport(conn net.Conn) *streamTransport {
	return &streamTransport{
		conn: conn,
		br:   bufio.NewReader(conn),
	}
}

func (t *streamTransport) WriteMessage(msg []byte) error {
	if len(msg) > maxMessageSize {
		return wire.ErrMessageTooLong
	}

	frame := make([]byte, 2+len(msg))
	binary.BigEndian.PutUint16(frame, uint16(len(msg)))
	copy(frame[2:], msg)

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	_, err := t.conn.Write(frame)
	return err
}

func (t *streamTransport) ReadMessage() ([]byte, error) {
	var prefix [2]byte
	if _, err := io.ReadFull(t.br, prefix[:]); err != nil {
		return nil, err
	}

	msg := make([]byte, binary.BigEndian.Uint16(prefix[:]))
	if _, err := io.ReadFull(t.br, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (t *streamTransport) Close() error {
	return t.conn.Close()
}
